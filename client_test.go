package mirror

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dataspace/mirror/internal/fakeserver"
	"github.com/dataspace/mirror/pkg/connection"
	mirrorhttp "github.com/dataspace/mirror/pkg/connection/http"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/logger"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
	srv    *fakeserver.Server
	client *Client
	ctx    context.Context
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.srv = fakeserver.New()
	s.ctx = context.Background()

	u, err := url.Parse(s.srv.URL())
	s.Require().NoError(err)
	conf := connection.NewConfig(u)
	conf.Logger = logger.Discard()

	conn := mirrorhttp.New(conf)
	s.Require().NoError(conn.Connect(s.ctx))
	s.client = New(conn, WithLiveURL(conf.LiveURL()), WithRegisterer(prometheus.NewRegistry()))
}

func (s *ClientTestSuite) TearDownTest() {
	s.NoError(s.client.Close(s.ctx))
	s.srv.Close()
}

func (s *ClientTestSuite) dataset() (*models.Space, *models.Dataset) {
	space, err := s.client.CreateSpace(s.ctx, "s1", "ada")
	s.Require().NoError(err)
	dataset, err := s.client.CreateDataset(s.ctx, space.ID, DatasetInput{Name: "foo", Tags: []string{"raw"}})
	s.Require().NoError(err)
	return space, dataset
}

func zipOf(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func (s *ClientTestSuite) TestCreateSpaceDatasetFile() {
	space, dataset := s.dataset()

	files, err := s.client.CreateFile(s.ctx, dataset.ID, "f1.txt", "text/plain", []byte("hello"))
	s.Require().NoError(err)
	s.Require().Len(files, 1)

	state := s.client.State()
	s.Equal("s1", state.Space(space.ID.ItemID()).Name)
	s.Equal("foo", state.Dataset(space.ID.ItemID(), dataset.ID.ItemID()).Name)

	f := state.File(dataset.ID.SpaceID(), dataset.ID.ItemID(), files[0].ID.ItemID())
	s.Equal("f1.txt", f.Name)
	text, ok := s.client.ContentProvider().Content(f.ID)
	s.True(ok)
	s.Equal("hello", text)

	hits, err := s.client.Search(dataset.ID, "hello")
	s.Require().NoError(err)
	s.Len(hits, 1)
}

func (s *ClientTestSuite) TestCreateThenDeleteDataset() {
	_, dataset := s.dataset()

	_, err := s.client.DeleteDataset(s.ctx, dataset.ID)
	s.Require().NoError(err)

	d := s.client.State().Dataset(dataset.ID.SpaceID(), dataset.ID.ItemID())
	s.NotNil(d)
	s.Empty(d.ID.ItemID())
	s.Equal(0, s.srv.Len(constants.ResourceDatasets))
}

func (s *ClientTestSuite) TestArchiveIsReplacedByMembers() {
	_, dataset := s.dataset()
	archive := zipOf(s.T(), map[string]string{"x.txt": "ex marks", "y.txt": "why not"}, "x.txt", "y.txt")

	files, err := s.client.CreateFile(s.ctx, dataset.ID, "a.zip", "application/zip", archive)
	s.Require().NoError(err)
	s.Require().Len(files, 2)
	archiveItem := files[0].ID.ItemID()[:len(files[0].ID.ItemID())-2]

	check := func() {
		stored := s.client.Files(dataset.ID)
		s.Require().Len(stored, 2)
		s.Equal("a.zip/x.txt", stored[0].Name)
		s.Equal(archiveItem+":0", stored[0].ID.ItemID())
		s.Equal("a.zip/y.txt", stored[1].Name)
		s.Equal(archiveItem+":1", stored[1].ID.ItemID())
		for _, f := range stored {
			s.NotEqual("a.zip", f.Name)
		}
	}
	check()

	res, err := s.client.LoadDataset(s.ctx, dataset.ID)
	s.Require().NoError(err)
	s.Len(res.Archives, 1)
	check()
	s.Equal(2, s.client.State().Dataset(dataset.ID.SpaceID(), dataset.ID.ItemID()).FileCount)

	hits, err := s.client.Search(dataset.ID, "why")
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal("a.zip/y.txt", hits[0].Name)
}

func (s *ClientTestSuite) TestArchiveContainerContentIsNotKept() {
	_, dataset := s.dataset()
	archive := zipOf(s.T(), map[string]string{"x.txt": "ex"}, "x.txt")

	files, err := s.client.CreateFile(s.ctx, dataset.ID, "a.zip", "application/zip", archive)
	s.Require().NoError(err)
	s.Require().Len(files, 1)

	container := files[0].ID.WithItem(strings.TrimSuffix(files[0].ID.ItemID(), ":0"))
	s.False(s.client.ContentProvider().HasRawContent(container))
	s.True(s.client.ContentProvider().HasRawContent(files[0].ID))
}

func (s *ClientTestSuite) TestCorruptArchiveUploadIsRemoved() {
	_, dataset := s.dataset()
	_, err := s.client.CreateFile(s.ctx, dataset.ID, "keep.txt", "text/plain", []byte("kept"))
	s.Require().NoError(err)

	_, err = s.client.CreateFile(s.ctx, dataset.ID, "bad.zip", "application/zip", []byte("not a zip at all"))
	s.Require().Error(err)

	stored := s.client.Files(dataset.ID)
	s.Require().Len(stored, 1)
	s.Equal("keep.txt", stored[0].Name)

	state := s.client.State()
	s.Equal(1, state.Dataset(dataset.ID.SpaceID(), dataset.ID.ItemID()).FileCount)
	s.Require().NotNil(state.Err)
}

func (s *ClientTestSuite) TestLoadDatasetFromServer() {
	space, dataset := s.dataset()
	sid, did := space.ID.ItemID(), dataset.ID.ItemID()

	f1 := &models.File{ID: models.NewFileID(sid, did, "f1"), Name: "notes.md"}
	f2 := &models.File{ID: models.NewFileID(sid, did, "f2"), Name: "gone.txt"}
	s.Require().NoError(s.srv.Seed(constants.ResourceFiles, f1, f2))
	s.srv.SetContent(f1.ID, []byte("# Notes\nremember the milk"))
	s.Require().NoError(s.srv.Seed(constants.ResourceAnnotations,
		&models.Annotation{ID: models.NewAnnotationID(sid, did, "f1", "a1"), Length: 7},
		&models.Annotation{ID: models.NewAnnotationID(sid, did, "f2", "a2")},
	))

	res, err := s.client.LoadDataset(s.ctx, dataset.ID)
	s.Require().NoError(err)
	s.Equal([]models.ID{f2.ID}, res.Failed)
	s.Len(res.Dropped, 1)
	s.Len(s.client.Annotations(f1.ID), 1)
	s.Len(s.client.Files(dataset.ID), 1)

	hits, err := s.client.Search(dataset.ID, "milk")
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal([]int{1}, hits[0].Lines)
}

func (s *ClientTestSuite) TestValidationNeverReachesNetwork() {
	_, err := s.client.CreateSpace(s.ctx, "", "ada")
	s.ErrorIs(err, constants.ErrValidation)
	s.Equal(0, s.srv.Hits(http.MethodPost, constants.ResourceSpaces))
	s.Require().NotNil(s.client.State().Err)
	s.Contains(s.client.State().Err.Message, "name undefined")
	s.Equal(0, s.client.State().Err.Status)

	_, err = s.client.CreateDataset(s.ctx, models.NewFileID("s", "d", "f"), DatasetInput{Name: "x"})
	s.ErrorIs(err, constants.ErrValidation)
	s.Contains(err.Error(), "not a Space")

	_, err = s.client.CreateDataset(s.ctx, models.NewSpaceID("s"), DatasetInput{Name: "x", Tags: []string{"ok", " "}})
	s.ErrorIs(err, constants.ErrValidation)
	s.Contains(err.Error(), "malformed tags")
	s.Equal(0, s.srv.Hits(http.MethodPost, constants.ResourceDatasets))

	_, err = s.client.LoadDataset(s.ctx, models.NewSpaceID("s"))
	s.ErrorIs(err, constants.ErrValidation)
	s.Contains(err.Error(), "not a Dataset")
}

func (s *ClientTestSuite) TestHTTPErrorsAreDispatched() {
	space, err := s.client.CreateSpace(s.ctx, "s1", "")
	s.Require().NoError(err)

	s.srv.Fail(http.MethodPost, constants.ResourceDatasets, fakeserver.Failure{Status: http.StatusForbidden, Message: "no write access"})
	_, err = s.client.CreateDataset(s.ctx, space.ID, DatasetInput{Name: "d"})
	var httpErr *connection.HTTPError
	s.Require().True(errors.As(err, &httpErr))
	s.Equal(http.StatusForbidden, httpErr.Status)
	s.Equal("no write access", s.client.State().Err.Message)
	s.Equal(http.StatusForbidden, s.client.State().Err.Status)

	s.srv.Fail(http.MethodGet, constants.ResourceSpaces, fakeserver.Failure{Status: http.StatusInternalServerError})
	_, err = s.client.LoadSpaces(s.ctx)
	s.Error(err)
	s.Equal("500 Internal Server Error", s.client.State().Err.Message)
	s.Equal(http.StatusInternalServerError, s.client.State().Err.Status)
}

func (s *ClientTestSuite) TestUpdateMissingRecordIsEmptyResultSet() {
	_, err := s.client.UpdateSpace(s.ctx, &models.Space{ID: models.NewSpaceID("nope"), Name: "x"})
	s.ErrorIs(err, constants.ErrEmptyResultSet)
	s.Equal("Empty result set", s.client.State().Err.Message)

	_, err = s.client.DeleteFile(s.ctx, models.NewFileID("s", "d", "nope"))
	s.ErrorIs(err, constants.ErrEmptyResultSet)
}

func (s *ClientTestSuite) TestSpacesLifecycle() {
	space, err := s.client.CreateSpace(s.ctx, "first", "ada")
	s.Require().NoError(err)
	_, err = s.client.CreateSpace(s.ctx, "second", "bob")
	s.Require().NoError(err)

	renamed := *space
	renamed.Name = "renamed"
	updated, err := s.client.UpdateSpace(s.ctx, &renamed)
	s.Require().NoError(err)
	s.Equal("renamed", updated.Name)
	s.Equal("first", space.Name, "inputs are not modified")

	fresh := New(s.client.conn)
	spaces, err := fresh.LoadSpaces(s.ctx)
	s.Require().NoError(err)
	s.Len(spaces, 2)
	s.Len(fresh.State().Spaces(), 2)

	s.Require().NoError(s.client.SelectSpace(space.ID))
	s.Equal(space.ID.ItemID(), s.client.State().CurrentSpace().ID.ItemID())

	_, err = s.client.DeleteSpace(s.ctx, space.ID)
	s.Require().NoError(err)
	s.Len(s.client.State().Spaces(), 1)
}

func (s *ClientTestSuite) TestSelectDataset() {
	_, dataset := s.dataset()
	s.Require().NoError(s.client.SelectDataset(dataset.ID))
	s.Equal("foo", s.client.State().CurrentDataset().Name)

	s.ErrorIs(s.client.SelectDataset(models.NewSpaceID("s")), constants.ErrValidation)
}

func (s *ClientTestSuite) TestUpdateDatasetKeepsIndex() {
	_, dataset := s.dataset()
	_, err := s.client.CreateFile(s.ctx, dataset.ID, "a.txt", "", []byte("alpha"))
	s.Require().NoError(err)

	stored := s.client.State().Dataset(dataset.ID.SpaceID(), dataset.ID.ItemID())
	next := stored.Copy()
	next.Description = "described"
	next.Index = nil
	updated, err := s.client.UpdateDataset(s.ctx, next)
	s.Require().NoError(err)
	s.Equal("described", updated.Description)

	hits, err := s.client.Search(dataset.ID, "alpha")
	s.Require().NoError(err)
	s.Len(hits, 1)
}

func (s *ClientTestSuite) TestFilesRenameContentDelete() {
	_, dataset := s.dataset()
	files, err := s.client.CreateFile(s.ctx, dataset.ID, "a.txt", "text/plain", []byte("alpha"))
	s.Require().NoError(err)
	f := files[0]

	renamed, err := s.client.RenameFile(s.ctx, f, "b.txt")
	s.Require().NoError(err)
	s.Equal("b.txt", renamed.Name)
	s.Equal("b.txt", s.client.State().File(f.ID.SpaceID(), f.ID.DatasetID(), f.ID.ItemID()).Name)

	raw, err := s.client.FileContent(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Equal("alpha", string(raw))
	s.Equal(0, s.srv.Hits(http.MethodGet, "content"), "served from the provider")

	_, err = s.client.DeleteFile(s.ctx, f.ID)
	s.Require().NoError(err)
	s.False(s.client.ContentProvider().HasRawContent(f.ID))
	s.Empty(s.client.Files(dataset.ID))

	_, err = s.client.FileContent(s.ctx, f.ID)
	var httpErr *connection.HTTPError
	s.Require().True(errors.As(err, &httpErr))
	s.Equal(http.StatusNotFound, httpErr.Status)
}

func (s *ClientTestSuite) TestFileContentDownloads() {
	id := models.NewFileID("s", "d", "f")
	s.srv.SetContent(id, []byte("remote"))

	raw, err := s.client.FileContent(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("remote", string(raw))
	s.True(s.client.ContentProvider().HasRawContent(id))
}

func (s *ClientTestSuite) TestAnnotationsAndComments() {
	_, dataset := s.dataset()
	files, err := s.client.CreateFile(s.ctx, dataset.ID, "a.txt", "", []byte("alpha beta"))
	s.Require().NoError(err)

	a, err := s.client.CreateAnnotation(s.ctx, files[0].ID, AnnotationInput{Offset: 6, Length: 4, Description: "second word"})
	s.Require().NoError(err)
	s.Equal(files[0].ID, a.ID.Parent())

	_, err = s.client.CreateAnnotation(s.ctx, files[0].ID, AnnotationInput{Offset: -1})
	s.ErrorIs(err, constants.ErrValidation)

	withComment, err := s.client.AddComment(s.ctx, a.ID, "ada", "looks right")
	s.Require().NoError(err)
	s.Require().Len(withComment.Comments, 1)
	commentID := withComment.Comments[0].ID
	s.NotEmpty(commentID)
	s.Len(s.client.State().Annotation(a.ID).Comments, 1)
	s.Empty(a.Comments, "earlier records are untouched")

	_, err = s.client.AddComment(s.ctx, a.ID, "ada", "")
	s.ErrorIs(err, constants.ErrValidation)

	_, err = s.client.RemoveComment(s.ctx, a.ID, "missing")
	s.ErrorIs(err, constants.ErrValidation)

	without, err := s.client.RemoveComment(s.ctx, a.ID, commentID)
	s.Require().NoError(err)
	s.Empty(without.Comments)

	next := without.Copy()
	next.Length = 5
	updated, err := s.client.UpdateAnnotation(s.ctx, next)
	s.Require().NoError(err)
	s.Equal(5, updated.Length)

	_, err = s.client.DeleteAnnotation(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(s.client.Annotations(files[0].ID))
}

func (s *ClientTestSuite) TestActivity() {
	_, dataset := s.dataset()
	files, err := s.client.CreateFile(s.ctx, dataset.ID, "a.txt", "", []byte("alpha"))
	s.Require().NoError(err)

	onDataset, err := s.client.PostActivity(s.ctx, dataset.ID, "load", map[string]any{"files": 1})
	s.Require().NoError(err)
	s.Equal(models.TagDatasetActivity, onDataset.ID.Tag())
	_, err = s.client.PostActivity(s.ctx, files[0].ID, "view", nil)
	s.Require().NoError(err)

	_, err = s.client.PostActivity(s.ctx, dataset.ID, "", nil)
	s.ErrorIs(err, constants.ErrValidation)
	_, err = s.client.PostActivity(s.ctx, models.NewUserID("u"), "x", nil)
	s.ErrorIs(err, constants.ErrValidation)

	fresh := New(s.client.conn)
	loaded, err := fresh.LoadActivity(s.ctx, dataset.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded, 1)
	s.Equal("load", loaded[0].Type)
	s.Len(fresh.Activity(dataset.ID), 1)
}

func (s *ClientTestSuite) TestUsers() {
	s.Require().NoError(s.srv.Seed(constants.ResourceUsers, &models.User{ID: models.NewUserID("ada@example.com")}))

	u, err := s.client.LoadUser(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("ada@example.com", u.ID.ItemID())

	updated, err := s.client.UpdateUserPrefs(s.ctx, "ada@example.com", map[string]any{"theme": "dark"})
	s.Require().NoError(err)
	s.Equal("dark", updated.Prefs["theme"])
	s.Equal("dark", s.client.State().User("ada@example.com").Prefs["theme"])

	_, err = s.client.LoadUser(s.ctx, "nobody@example.com")
	s.ErrorIs(err, constants.ErrEmptyResultSet)
	_, err = s.client.LoadUser(s.ctx, "")
	s.ErrorIs(err, constants.ErrValidation)
}

func (s *ClientTestSuite) TestBotsAndBoards() {
	space, err := s.client.CreateSpace(s.ctx, "s", "")
	s.Require().NoError(err)
	sid := space.ID.ItemID()

	bot, err := s.client.CreateBot(s.ctx, space.ID, "indexer", map[string]any{"interval": "1h"})
	s.Require().NoError(err)
	board, err := s.client.CreateBoard(s.ctx, space.ID, "overview", nil)
	s.Require().NoError(err)

	fresh := New(s.client.conn)
	bots, err := fresh.LoadBots(s.ctx, space.ID)
	s.Require().NoError(err)
	s.Len(bots, 1)
	boards, err := fresh.LoadBoards(s.ctx, space.ID)
	s.Require().NoError(err)
	s.Len(boards, 1)
	s.Equal("overview", fresh.State().Board(sid, board.ID.ItemID()).Name)

	_, err = s.client.DeleteBot(s.ctx, bot.ID)
	s.Require().NoError(err)
	s.Empty(s.client.State().Bots(sid))
	_, err = s.client.DeleteBoard(s.ctx, board.ID)
	s.Require().NoError(err)
	s.Empty(s.client.State().Boards(sid))

	_, err = s.client.CreateBot(s.ctx, space.ID, "", nil)
	s.ErrorIs(err, constants.ErrValidation)
	_, err = s.client.DeleteBoard(s.ctx, bot.ID)
	s.ErrorIs(err, constants.ErrValidation)
}

func (s *ClientTestSuite) TestSearchRequiresLoadedDataset() {
	_, err := s.client.Search(models.NewDatasetID("s", "d"), "x")
	s.ErrorIs(err, constants.ErrValidation)
}

func (s *ClientTestSuite) TestWatchAppliesLiveEvents() {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	feed, err := s.client.Live(ctx)
	s.Require().NoError(err)
	s.Require().Eventually(func() bool { return s.srv.Feeds() == 1 }, 5*time.Second, 10*time.Millisecond)

	watchCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.client.Watch(watchCtx, feed) }()

	s.srv.Broadcast("CREATE", constants.ResourceSpaces, map[string]any{"item_id": "remote", "name": "pushed"})
	s.srv.Broadcast("CREATE", constants.ResourceSpaces, map[string]any{"name": "no id"})
	s.srv.Broadcast("RENAME", constants.ResourceSpaces, map[string]any{"item_id": "other", "name": "x"})
	s.Require().Eventually(func() bool {
		return s.client.State().Space("remote").Name == "pushed"
	}, 5*time.Second, 10*time.Millisecond)

	s.srv.Broadcast("DELETE", constants.ResourceSpaces, map[string]any{"item_id": "remote"})
	s.Require().Eventually(func() bool {
		return len(s.client.State().Spaces()) == 0
	}, 5*time.Second, 10*time.Millisecond)

	stop()
	s.ErrorIs(<-done, context.Canceled)
}

func TestDescribe(t *testing.T) {
	msg, status := Describe(&connection.HTTPError{Status: 404, StatusText: "Not Found"})
	assert.Equal(t, "404 Not Found", msg)
	assert.Equal(t, 404, status)

	msg, status = Describe(invalid("name undefined"))
	assert.Equal(t, "validation failed: name undefined", msg)
	assert.Zero(t, status)
}
