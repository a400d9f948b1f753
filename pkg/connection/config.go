package connection

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dataspace/mirror/internal/codec"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/logger"
)

// Config carries everything a transport needs.
type Config struct {
	URL         url.URL
	BaseURL     string
	Marshaler   codec.Marshaler
	Unmarshaler codec.Unmarshaler
	Logger      logger.Logger
	Timeout     time.Duration
}

// NewConfig creates a Config for the backend at u, such as
// "http://localhost:8080/api". The path of u is kept as a prefix of every
// resource.
func NewConfig(u *url.URL) *Config {
	c := codec.JSON{}
	return &Config{
		URL:         *u,
		Marshaler:   c,
		Unmarshaler: c,
		BaseURL:     fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, trimSlash(u.Path)),
		Logger:      logger.New(slog.NewTextHandler(os.Stdout, nil)),
		Timeout:     constants.DefaultHTTPTimeout,
	}
}

// LiveURL is the websocket address of the activity feed.
func (c *Config) LiveURL() string {
	u := c.URL
	switch u.Scheme {
	case constants.HTTPSecureScheme:
		u.Scheme = constants.SecureWebsocketScheme
	default:
		u.Scheme = constants.WebsocketScheme
	}
	u.Path = trimSlash(u.Path) + "/live"
	u.RawQuery = ""
	return u.String()
}

func trimSlash(p string) string {
	return strings.TrimRight(p, "/")
}
