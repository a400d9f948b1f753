// Package connection defines the transport contract between the client and
// the REST backend.
//
// Every read or write resolves to a Page, the backend's {count, items}
// envelope, or fails with an *HTTPError carrying the response status.
package connection

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dataspace/mirror/internal/codec"
	"github.com/goccy/go-json"
)

type Connection interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	// Send performs a CRUD request against a resource collection.
	Send(ctx context.Context, req *Request) (*Page, error)
	// Fetch downloads raw bytes from a path relative to the base URL.
	Fetch(ctx context.Context, path string) ([]byte, error)
	GetUnmarshaler() codec.Unmarshaler
}

// Request addresses a resource collection, optionally narrowed to one
// record by its identifier path.
type Request struct {
	Method   string
	Resource string
	// Path is the slash-joined identifier of a single record.
	Path  string
	Query url.Values
	Body  any
}

// Page is the response envelope.
type Page struct {
	Count int
	Items []json.RawMessage
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	Status     int
	StatusText string
	// Message is the "message" field of the response body, when present.
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.Status, e.StatusText)
}
