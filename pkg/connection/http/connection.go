// Package http is the REST implementation of connection.Connection.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/dataspace/mirror/internal/codec"
	"github.com/dataspace/mirror/internal/rand"
	"github.com/dataspace/mirror/pkg/connection"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

type Connection struct {
	BaseURL     string
	Marshaler   codec.Marshaler
	Unmarshaler codec.Unmarshaler

	httpClient *http.Client
	logger     logger.Logger
}

var _ connection.Connection = (*Connection)(nil)

func New(p *connection.Config) *Connection {
	con := Connection{
		Marshaler:   p.Marshaler,
		Unmarshaler: p.Unmarshaler,
		BaseURL:     p.BaseURL,
		logger:      p.Logger,
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	con.httpClient = &http.Client{
		Timeout: timeout, // Set a default timeout to avoid hanging requests
	}
	if con.logger == nil {
		con.logger = logger.Discard()
	}

	return &con
}

func (c *Connection) Connect(ctx context.Context) error {
	if err := c.preConnectionChecks(); err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", http.NoBody)
	if err != nil {
		return err
	}
	_, err = c.MakeRequest(httpReq)
	return err
}

func (c *Connection) Close(ctx context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Connection) SetTimeout(timeout time.Duration) *Connection {
	c.httpClient.Timeout = timeout
	return c
}

func (c *Connection) SetHTTPClient(client *http.Client) *Connection {
	c.httpClient = client
	return c
}

func (c *Connection) GetUnmarshaler() codec.Unmarshaler {
	return c.Unmarshaler
}

func (c *Connection) preConnectionChecks() error {
	if c.BaseURL == "" {
		return constants.ErrNoBaseURL
	}
	if c.Marshaler == nil {
		return constants.ErrNoMarshaler
	}
	if c.Unmarshaler == nil {
		return constants.ErrNoUnmarshaler
	}
	return nil
}

// Send maps a request onto the REST layout:
//
//	GET    /{resource}?{query}
//	POST   /{resource}
//	PUT    /{resource}/{path}
//	DELETE /{resource}/{path}
func (c *Connection) Send(ctx context.Context, r *connection.Request) (*connection.Page, error) {
	if err := c.preConnectionChecks(); err != nil {
		return nil, err
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.BaseURL + "/" + r.Resource
	if r.Path != "" {
		target += "/" + escapePath(r.Path)
	}
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	body := io.Reader(http.NoBody)
	if r.Body != nil {
		reqBody, err := c.Marshaler.Marshal(r.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	respData, err := c.MakeRequest(req)
	if err != nil {
		return nil, err
	}

	page, err := parsePage(respData)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, r.Resource, err)
	}
	return page, nil
}

// Fetch returns the raw body at path, which is relative to the base URL.
func (c *Connection) Fetch(ctx context.Context, path string) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, constants.ErrNoBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+strings.TrimLeft(path, "/"), http.NoBody)
	if err != nil {
		return nil, err
	}
	return c.MakeRequest(req)
}

func (c *Connection) MakeRequest(req *http.Request) ([]byte, error) {
	id := rand.NewRequestID(constants.RequestIDLength)
	req.Header.Set(requestIDHeader, id)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBytes, nil
	}

	c.logger.Debug("request failed", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "request_id", id)
	return nil, newHTTPError(resp, respBytes)
}

func newHTTPError(resp *http.Response, body []byte) *connection.HTTPError {
	e := &connection.HTTPError{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
	}
	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if contentType == "application/json" {
		if msg, err := jsonparser.GetString(body, "message"); err == nil {
			e.Message = msg
		}
	}
	return e
}

// parsePage reads the {count, items} envelope. A missing count defaults to
// the number of items.
func parsePage(data []byte) (*connection.Page, error) {
	page := &connection.Page{}

	var itemErr error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil {
			itemErr = err
			return
		}
		if dataType != jsonparser.Object {
			itemErr = fmt.Errorf("%w: item of type %s", constants.ErrInvalidResponse, dataType)
			return
		}
		page.Items = append(page.Items, bytes.Clone(value))
	}, "items")
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
	case err != nil:
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidResponse, err)
	case itemErr != nil:
		return nil, itemErr
	}

	count, err := jsonparser.GetInt(data, "count")
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		page.Count = len(page.Items)
	case err != nil:
		return nil, fmt.Errorf("%w: count: %w", constants.ErrInvalidResponse, err)
	default:
		page.Count = int(count)
	}

	return page, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
