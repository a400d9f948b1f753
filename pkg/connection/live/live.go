// Package live streams server-pushed entity changes over a websocket.
//
// The backend sends one JSON text message per change:
//
//	{"type": "CREATE", "kind": "file", "item": {...}}
//
// Type is one of CREATE, UPDATE or DELETE and kind names the entity kind.
package live

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dataspace/mirror/internal/codec"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/logger"
	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"
)

// DefaultDialer is gorilla's default dialer with compression enabled.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
}

type Event struct {
	Type string          `json:"type"`
	Kind string          `json:"kind"`
	Item json.RawMessage `json:"item"`
}

type Feed struct {
	conn        *gorilla.Conn
	unmarshaler codec.Unmarshaler
	logger      logger.Logger

	events  chan Event
	closeCh chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// Dial connects to the feed at url. The returned Feed delivers events until
// Close is called or the connection drops; Err then reports why.
func Dial(ctx context.Context, url string, log logger.Logger) (*Feed, error) {
	conn, res, err := DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial live feed %s: %w", url, err)
	}
	defer res.Body.Close()

	if log == nil {
		log = logger.Discard()
	}

	f := &Feed{
		conn:        conn,
		unmarshaler: codec.JSON{},
		logger:      log,
		events:      make(chan Event),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	go f.readLoop()
	return f, nil
}

// Events is closed when the feed stops.
func (f *Feed) Events() <-chan Event {
	return f.events
}

// Err is the reason the feed stopped, or nil while it runs and after a
// clean Close.
func (f *Feed) Err() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.err
}

func (f *Feed) setErr(err error) {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

// Close sends a close frame, bounded by ctx, and releases the connection.
func (f *Feed) Close(ctx context.Context) error {
	var err error
	f.closeOnce.Do(func() {
		close(f.closeCh)

		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(time.Second)
		}
		msg := gorilla.FormatCloseMessage(constants.CloseMessageCode, "")
		if werr := f.conn.WriteControl(gorilla.CloseMessage, msg, deadline); werr != nil && !errors.Is(werr, gorilla.ErrCloseSent) {
			f.logger.Error("failed to write close message", "error", werr)
		}
		err = f.conn.Close()
		<-f.done
	})
	return err
}

func (f *Feed) readLoop() {
	defer close(f.done)
	defer close(f.events)

	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			select {
			case <-f.closeCh:
			default:
				f.setErr(f.readError(err))
			}
			return
		}

		var ev Event
		if err := f.unmarshaler.Unmarshal(data, &ev); err != nil {
			f.logger.Warn("dropping malformed live event", "error", err)
			continue
		}

		select {
		case f.events <- ev:
		case <-f.closeCh:
			return
		}
	}
}

func (f *Feed) readError(err error) error {
	if gorilla.IsCloseError(err, gorilla.CloseNormalClosure) || errors.Is(err, net.ErrClosed) {
		return constants.ErrFeedClosed
	}
	return fmt.Errorf("%w: %w", constants.ErrFeedClosed, err)
}
