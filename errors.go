package mirror

import (
	"errors"
	"fmt"

	"github.com/dataspace/mirror/pkg/connection"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/store"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", constants.ErrValidation, fmt.Sprintf(format, args...))
}

// fail dispatches ERROR for err and returns it unchanged.
func (c *Client) fail(op string, err error) error {
	message, status := Describe(err)
	c.logger.Warn(op+" failed", "error", message, "status", status)
	c.state.Dispatch(store.ErrorAction(message, status))
	return err
}

// Describe reduces err to the message and status stored by an ERROR
// action. HTTP failures keep their status; every other error has status 0.
func Describe(err error) (message string, status int) {
	var httpErr *connection.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error(), httpErr.Status
	}
	return err.Error(), 0
}
