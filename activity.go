package mirror

import (
	"context"
	"net/http"
	"time"

	"github.com/dataspace/mirror/pkg/connection"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
	"github.com/goccy/go-json"
)

func activityParent(id models.ID) error {
	switch id.Kind() {
	case models.KindSpace, models.KindDataset, models.KindFile:
		if id.Valid() {
			return nil
		}
	}
	return invalid("activity needs a Space, Dataset or File")
}

// LoadActivity lists the activity attached directly to parent. Entries of
// descendants that the backend returns as well are left out.
func (c *Client) LoadActivity(ctx context.Context, parent models.ID) ([]*models.Activity, error) {
	if err := activityParent(parent); err != nil {
		return reject[[]*models.Activity](c, "load activity", err)
	}
	items, err := send[*models.Activity](ctx, c, &connection.Request{
		Method: http.MethodGet, Resource: constants.ResourceActivity, Query: parentQuery(parent),
	})
	if err != nil {
		return nil, c.fail("load activity", err)
	}
	direct := items[:0]
	for _, a := range items {
		if a.ID.Parent() == parent {
			direct = append(direct, a)
		}
	}
	return store.DispatchLoad(c.state, direct, nil)
}

// PostActivity records an event of type typ on parent.
func (c *Client) PostActivity(ctx context.Context, parent models.ID, typ string, data map[string]any) (*models.Activity, error) {
	const op = "post activity"
	if err := activityParent(parent); err != nil {
		return reject[*models.Activity](c, op, err)
	}
	if typ == "" {
		return reject[*models.Activity](c, op, invalid("type undefined"))
	}
	body, err := models.EncodeUnder(parent, &models.Activity{Type: typ, Data: data, CreatedAt: time.Now().UTC()})
	if err != nil {
		return reject[*models.Activity](c, op, err)
	}
	return create[*models.Activity](ctx, c, constants.ResourceActivity, json.RawMessage(body))
}

// Activity lists the activity attached to parent held in the store.
func (c *Client) Activity(parent models.ID) []*models.Activity {
	return store.ActivityOf(c.State(), parent)
}
