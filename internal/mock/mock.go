// Package mock provides an in-memory connection.Connection for tests that
// do not need a real HTTP round trip.
package mock

import (
	"context"
	"net/http"
	"sync"

	"github.com/dataspace/mirror/internal/codec"
	"github.com/dataspace/mirror/pkg/connection"
	"github.com/goccy/go-json"
)

// Connection serves fixed collections and raw contents. Requests are
// answered regardless of their query; Send lists every record of the
// requested resource.
type Connection struct {
	mu       sync.Mutex
	records  map[string][]any
	contents map[string][]byte
	fetched  map[string]int

	// Err, when set, fails every Send.
	Err error
}

var _ connection.Connection = (*Connection)(nil)

func Create() *Connection {
	return &Connection{
		records:  map[string][]any{},
		contents: map[string][]byte{},
		fetched:  map[string]int{},
	}
}

// Add appends records to resource.
func (c *Connection) Add(resource string, records ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[resource] = append(c.records[resource], records...)
}

// SetContent makes Fetch(path) return data.
func (c *Connection) SetContent(path string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents[path] = data
}

// Fetched is the number of Fetch calls for path.
func (c *Connection) Fetched(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetched[path]
}

func (c *Connection) Connect(context.Context) error { return nil }

func (c *Connection) Close(context.Context) error { return nil }

func (c *Connection) GetUnmarshaler() codec.Unmarshaler { return codec.JSON{} }

func (c *Connection) Send(_ context.Context, req *connection.Request) (*connection.Page, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.Lock()
	records := c.records[req.Resource]
	c.mu.Unlock()

	page := &connection.Page{}
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, raw)
	}
	page.Count = len(page.Items)
	return page, nil
}

// Fetch returns the content set for path or a 404 HTTPError.
func (c *Connection) Fetch(_ context.Context, path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched[path]++
	data, ok := c.contents[path]
	if !ok {
		return nil, &connection.HTTPError{Status: http.StatusNotFound, StatusText: http.StatusText(http.StatusNotFound)}
	}
	return data, nil
}
