package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dataspace/mirror/pkg/config"
	"github.com/dataspace/mirror/pkg/connection"
	"github.com/dataspace/mirror/pkg/connection/http"
	"github.com/dataspace/mirror/pkg/content"
	"github.com/dataspace/mirror/pkg/index"
	"github.com/dataspace/mirror/pkg/ingest"
	"github.com/dataspace/mirror/pkg/logger"
	"github.com/dataspace/mirror/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Client issues backend calls and keeps the store in step with them.
// It is safe for concurrent use.
type Client struct {
	conn     connection.Connection
	content  content.Provider
	state    *store.Context
	pipeline *ingest.Pipeline
	logger   logger.Logger
	liveURL  string
}

type options struct {
	logger     logger.Logger
	provider   content.Provider
	state      *store.Context
	registerer prometheus.Registerer
	indexOpts  index.Options
	liveURL    string
}

type Option func(o *options)

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithContentProvider replaces the default in-memory content provider.
func WithContentProvider(p content.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithStore shares an existing state container with the client.
func WithStore(s *store.Context) Option {
	return func(o *options) { o.state = s }
}

// WithRegisterer registers ingestion metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func WithIndexOptions(opts index.Options) Option {
	return func(o *options) { o.indexOpts = opts }
}

// WithLiveURL sets the websocket address used by Live.
func WithLiveURL(u string) Option {
	return func(o *options) { o.liveURL = u }
}

// New creates a client on top of an established connection.
func New(conn connection.Connection, opts ...Option) *Client {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}
	if o.provider == nil {
		o.provider = content.NewMemory()
	}
	if o.state == nil {
		o.state = store.NewContext(nil, o.logger)
	}

	pipeOpts := []ingest.Option{ingest.WithLogger(o.logger), ingest.WithIndexOptions(o.indexOpts)}
	if o.registerer != nil {
		pipeOpts = append(pipeOpts, ingest.WithMetrics(ingest.NewMetrics(o.registerer)))
	}

	return &Client{
		conn:     conn,
		content:  o.provider,
		state:    o.state,
		pipeline: ingest.New(conn, o.provider, o.state, pipeOpts...),
		logger:   o.logger,
		liveURL:  o.liveURL,
	}
}

// Connect builds the REST connection and content cache described by cfg
// and checks that the backend answers. Options are applied after the
// configuration, so they win.
func Connect(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = logger.New(slog.NewTextHandler(os.Stderr, nil))
	}

	connConf := connection.NewConfig(cfg.ServerURL())
	connConf.Logger = log
	connConf.Timeout = cfg.Server.Timeout

	conn := http.New(connConf)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", connConf.BaseURL, err)
	}

	base := []Option{
		WithLogger(log),
		WithLiveURL(connConf.LiveURL()),
		WithIndexOptions(index.Options{BreakPattern: cfg.Index.BreakPattern, TokenPattern: cfg.Index.TokenPattern}),
	}
	if cfg.Cache.Dir != "" && o.provider == nil {
		cache, err := content.Open(content.Config{Path: cfg.Cache.Dir, TTL: cfg.Cache.TTL, Logger: log})
		if err != nil {
			return nil, err
		}
		base = append(base, WithContentProvider(cache))
	}

	return New(conn, append(base, opts...)...), nil
}

// State is the current store snapshot.
func (c *Client) State() *store.Store {
	return c.state.State()
}

// Subscribe calls fn with every new store. The returned function removes
// the subscription.
func (c *Client) Subscribe(fn func(*store.Store)) (cancel func()) {
	return c.state.Subscribe(fn)
}

func (c *Client) Dispatcher() store.Dispatcher {
	return c.state
}

func (c *Client) ContentProvider() content.Provider {
	return c.content
}

// Close releases the connection and, when it has one, the content cache.
func (c *Client) Close(ctx context.Context) error {
	err := c.conn.Close(ctx)
	if closer, ok := c.content.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
