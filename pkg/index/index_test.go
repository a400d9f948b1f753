package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AddAndSearch(t *testing.T) {
	ix, err := New(Options{})
	require.NoError(t, err)

	assert.True(t, ix.Add("f/s1/d1/a", "a.txt", []byte("hello world\nfoo bar\nHello again")))
	assert.True(t, ix.Add("f/s1/d1/b", "b.py", []byte("def foo():\n    return 'bar'")))

	hits := ix.Search("hello")
	require.Len(t, hits, 1)
	assert.Equal(t, "f/s1/d1/a", hits[0].Doc)
	assert.Equal(t, "a.txt", hits[0].Name)
	assert.Equal(t, []int{0, 2}, hits[0].Lines)

	hits = ix.Search("foo bar")
	require.Len(t, hits, 2)
	assert.Equal(t, "f/s1/d1/a", hits[0].Doc)
	assert.Equal(t, []int{1}, hits[0].Lines)
	assert.Equal(t, "f/s1/d1/b", hits[1].Doc)
	assert.Equal(t, []int{0, 1}, hits[1].Lines)

	assert.Empty(t, ix.Search("missing"))
	assert.Empty(t, ix.Search("  ,, "))
	assert.Equal(t, 2, ix.Docs())
}

func TestIndex_SkipsDenylistedAndBinary(t *testing.T) {
	ix, err := New(Options{})
	require.NoError(t, err)

	assert.False(t, ix.Add("1", "logo.PNG", []byte("hello")))
	assert.False(t, ix.Add("2", "data.tar.gz", []byte("hello")))
	assert.False(t, ix.Add("3", "blob.dat", []byte{0xff, 0xfe, 0x00}))
	assert.True(t, ix.Add("4", "notes.md", []byte("hello")))

	assert.Equal(t, 1, ix.Docs())
	assert.Len(t, ix.Search("hello"), 1)
}

func TestIndex_CustomPatterns(t *testing.T) {
	ix, err := New(Options{BreakPattern: `;`, TokenPattern: `,`})
	require.NoError(t, err)

	ix.Add("doc", "row.csv", []byte("a b,c;d"))

	require.Len(t, ix.Search("a b"), 1, "space is not a separator with this token pattern")
	assert.Empty(t, ix.Search("a"))
	assert.Equal(t, []Posting{{Doc: "doc", Line: 0}}, ix.Postings("A B"))
	assert.Equal(t, []Posting{{Doc: "doc", Line: 1}}, ix.Postings("d"))
	assert.Equal(t, 3, ix.Terms())
	assert.Equal(t, 3, ix.Tokens())
}

func TestIndex_InvalidPattern(t *testing.T) {
	_, err := New(Options{TokenPattern: "("})
	require.Error(t, err)
}

func TestIndex_NilIsEmpty(t *testing.T) {
	var ix *Index
	assert.Nil(t, ix.Search("x"))
	assert.Equal(t, 0, ix.Docs())
}
