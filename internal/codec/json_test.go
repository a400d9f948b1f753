package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Count int      `json:"count"`
}

func TestJSON_MarshalUnmarshal(t *testing.T) {
	c := JSON{}

	data, err := c.Marshal(sample{Name: "foo", Tags: []string{"a"}, Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"foo","tags":["a"],"count":2}`, string(data))

	var got sample
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, sample{Name: "foo", Tags: []string{"a"}, Count: 2}, got)
}

func TestJSON_Stream(t *testing.T) {
	c := JSON{}
	var buf bytes.Buffer

	require.NoError(t, c.NewEncoder(&buf).Encode(sample{Name: "bar"}))

	var got sample
	require.NoError(t, c.NewDecoder(&buf).Decode(&got))
	assert.Equal(t, "bar", got.Name)
	assert.Empty(t, got.Tags)
}
