package mirror

import (
	"context"
	"fmt"

	"github.com/dataspace/mirror/internal/codec"
	"github.com/dataspace/mirror/pkg/connection/live"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
)

// Live dials the backend's change feed.
func (c *Client) Live(ctx context.Context) (*live.Feed, error) {
	if c.liveURL == "" {
		return nil, fmt.Errorf("live feed: %w", constants.ErrNoBaseURL)
	}
	return live.Dial(ctx, c.liveURL, c.logger)
}

// Watch applies every event of feed to the store until ctx is done or the
// feed stops. Events that cannot be applied are logged and skipped. The
// feed is closed on return.
func (c *Client) Watch(ctx context.Context, feed *live.Feed) error {
	defer feed.Close(context.Background())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-feed.Events():
			if !ok {
				// A clean close by the backend is not an error.
				if err := feed.Err(); err != constants.ErrFeedClosed { //nolint:errorlint
					return err
				}
				return nil
			}
			c.apply(ev)
		}
	}
}

func (c *Client) apply(ev live.Event) {
	typ := store.ActionType(ev.Type)
	switch typ {
	case store.ActionCreate, store.ActionUpdate, store.ActionDelete, store.ActionLoad:
	default:
		c.logger.Warn("live event skipped", "type", ev.Type, "kind", ev.Kind)
		return
	}

	item, err := decodeEntity(models.ParseKind(ev.Kind), ev.Item, c.conn.GetUnmarshaler())
	if err != nil {
		c.logger.Warn("live event skipped", "type", ev.Type, "kind", ev.Kind, "error", err)
		return
	}
	c.state.Dispatch(store.NewAction(typ, item))
}

func decodeEntity(kind models.Kind, raw []byte, u codec.Unmarshaler) (models.Entity, error) {
	switch kind {
	case models.KindSpace:
		return decodeAs[models.Space](raw, u)
	case models.KindDataset:
		return decodeAs[models.Dataset](raw, u)
	case models.KindFile:
		return decodeAs[models.File](raw, u)
	case models.KindAnnotation:
		return decodeAs[models.Annotation](raw, u)
	case models.KindActivity:
		return decodeAs[models.Activity](raw, u)
	case models.KindUser:
		return decodeAs[models.User](raw, u)
	case models.KindBot:
		return decodeAs[models.Bot](raw, u)
	case models.KindBoard:
		return decodeAs[models.Board](raw, u)
	}
	return nil, fmt.Errorf("unknown kind %d", kind)
}

// decodeAs decodes raw into a fresh *T, which must carry a valid identifier.
func decodeAs[T any, PT interface {
	*T
	models.Entity
}](raw []byte, u codec.Unmarshaler) (models.Entity, error) {
	item := PT(new(T))
	if err := u.Unmarshal(raw, item); err != nil {
		return nil, err
	}
	if !item.Identifier().Valid() {
		return nil, constants.ErrInvalidID
	}
	return item, nil
}
