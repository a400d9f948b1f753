package constants

import "time"

const (
	// RequestIDLength size of the id sent in the X-Request-ID header
	RequestIDLength = 16
	// DefaultHTTPTimeout bounds a single REST round trip
	DefaultHTTPTimeout = 30 * time.Second
	// CloseMessageCode identifier the message id for a close request
	CloseMessageCode = 1000
)

var (
	WebsocketScheme       = "ws"
	SecureWebsocketScheme = "wss"
	HTTPScheme            = "http"
	HTTPSecureScheme      = "https"
)

// REST resources served by the backend.
const (
	ResourceSpaces      = "spaces"
	ResourceDatasets    = "datasets"
	ResourceFiles       = "files"
	ResourceAnnotations = "annotations"
	ResourceActivity    = "activity"
	ResourceUsers       = "users"
	ResourceBots        = "bots"
	ResourceBoards      = "boards"
)
