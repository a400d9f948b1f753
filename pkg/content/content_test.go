package content

import (
	"context"
	"testing"
	"time"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ProviderTestSuite struct {
	suite.Suite
	open    func() Provider
	cleanup func()
	p       Provider
}

func TestMemoryProvider(t *testing.T) {
	suite.Run(t, &ProviderTestSuite{open: func() Provider { return NewMemory() }})
}

func TestBadgerProvider(t *testing.T) {
	ts := &ProviderTestSuite{}
	ts.open = func() Provider {
		b, err := Open(Config{InMemory: true})
		ts.Require().NoError(err)
		ts.cleanup = func() { _ = b.Close() }
		return b
	}
	suite.Run(t, ts)
}

func (s *ProviderTestSuite) SetupTest() {
	s.cleanup = nil
	s.p = s.open()
}

func (s *ProviderTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *ProviderTestSuite) TestRawContent() {
	id := models.NewFileID("s1", "d1", "f1")

	s.False(s.p.HasRawContent(id))
	_, ok := s.p.Content(id)
	s.False(ok)

	s.p.SetRawContent(id, []byte("hello"))
	s.True(s.p.HasRawContent(id))
	s.Equal(5, s.p.RawContentSize(id))

	text, ok := s.p.Content(id)
	s.True(ok)
	s.Equal("hello", text)

	s.p.ClearRawContent(id)
	s.False(s.p.HasRawContent(id))
	s.Equal(0, s.p.RawContentSize(id))
}

func (s *ProviderTestSuite) TestBinaryIsNotText() {
	id := models.NewFileID("s1", "d1", "bin")
	s.p.SetRawContent(id, []byte{0xff, 0xfe, 0x00})

	raw, ok := s.p.RawContent(id)
	s.True(ok)
	s.Len(raw, 3)

	_, ok = s.p.Content(id)
	s.False(ok)
}

func (s *ProviderTestSuite) TestCache() {
	ctx := context.Background()
	id := models.NewFileID("s1", "d1", "f2")

	_, ok, err := s.p.GetFromCache(ctx, id)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.p.StoreInCache(ctx, id, []byte("cached")))
	raw, ok, err := s.p.GetFromCache(ctx, id)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("cached", string(raw))
	s.True(s.p.HasRawContent(id))
}

func TestBadger_SurvivesMemoryClear(t *testing.T) {
	b, err := Open(Config{InMemory: true, TTL: time.Hour})
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	id := models.NewFileID("s1", "d1", "f1")
	require.NoError(t, b.StoreInCache(ctx, id, []byte("persisted")))

	b.ClearRawContent(id)
	assert.False(t, b.HasRawContent(id))

	raw, ok, err := b.GetFromCache(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(raw))
	assert.True(t, b.HasRawContent(id), "disk hit is promoted")

	require.NoError(t, b.Evict(id))
	_, ok, err = b.GetFromCache(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadger_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	id := models.NewAnnotationID("s1", "d1", "f1", "a1")

	b, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, b.StoreInCache(ctx, id, []byte{1, 2, 3}))
	require.NoError(t, b.Close())

	b, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer b.Close()

	raw, ok, err := b.GetFromCache(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, raw)
}

func TestBadger_Errors(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)

	b, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer b.Close()

	err = b.StoreInCache(context.Background(), models.ID{}, []byte("x"))
	assert.ErrorIs(t, err, constants.ErrInvalidID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = b.GetFromCache(ctx, models.NewSpaceID("s"))
	assert.ErrorIs(t, err, context.Canceled)
}
