package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dataspace/mirror/pkg/constants"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler func(conn *gorilla.Conn)) string {
	t.Helper()
	upgrader := gorilla.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestFeed_DeliversEvents(t *testing.T) {
	url := serve(t, func(conn *gorilla.Conn) {
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"CREATE","kind":"file","item":{"name":"a"}}`))
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`{"type":"DELETE","kind":"space","item":{"item_id":"s1"}}`))
		_ = conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	feed, err := Dial(ctx, url, nil)
	require.NoError(t, err)

	var got []Event
	for ev := range feed.Events() {
		got = append(got, ev)
	}

	require.Len(t, got, 2, "malformed messages are dropped")
	assert.Equal(t, "CREATE", got[0].Type)
	assert.Equal(t, "file", got[0].Kind)
	assert.JSONEq(t, `{"name":"a"}`, string(got[0].Item))
	assert.Equal(t, "DELETE", got[1].Type)
	assert.ErrorIs(t, feed.Err(), constants.ErrFeedClosed)
}

func TestFeed_Close(t *testing.T) {
	release := make(chan struct{})
	url := serve(t, func(conn *gorilla.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(release)
				return
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	feed, err := Dial(ctx, url, nil)
	require.NoError(t, err)

	require.NoError(t, feed.Close(ctx))
	_, open := <-feed.Events()
	assert.False(t, open)
	assert.NoError(t, feed.Err())
	require.NoError(t, feed.Close(ctx), "second close is a no-op")

	select {
	case <-release:
	case <-ctx.Done():
		t.Fatal("server never saw the close")
	}
}

func TestDial_Error(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/live", nil)
	assert.Error(t, err)
}
