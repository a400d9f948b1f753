package mirror

import (
	"context"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
	"github.com/goccy/go-json"
)

func (c *Client) LoadSpaces(ctx context.Context) ([]*models.Space, error) {
	return list[*models.Space](ctx, c, constants.ResourceSpaces, nil)
}

func (c *Client) CreateSpace(ctx context.Context, name, owner string) (*models.Space, error) {
	if name == "" {
		return reject[*models.Space](c, "create space", invalid("name undefined"))
	}
	body, err := models.EncodeUnder(models.ID{}, &models.Space{Name: name, Owner: owner})
	if err != nil {
		return reject[*models.Space](c, "create space", err)
	}
	return create[*models.Space](ctx, c, constants.ResourceSpaces, json.RawMessage(body))
}

func (c *Client) UpdateSpace(ctx context.Context, s *models.Space) (*models.Space, error) {
	if err := checkKind(s.Identifier(), models.KindSpace); err != nil {
		return reject[*models.Space](c, "update space", err)
	}
	if s.Name == "" {
		return reject[*models.Space](c, "update space", invalid("name undefined"))
	}
	return update(ctx, c, s)
}

func (c *Client) DeleteSpace(ctx context.Context, id models.ID) (*models.Space, error) {
	if err := checkKind(id, models.KindSpace); err != nil {
		return reject[*models.Space](c, "delete space", err)
	}
	return remove[*models.Space](ctx, c, id)
}

// SelectSpace makes id the current space and clears the dataset selection.
func (c *Client) SelectSpace(id models.ID) error {
	if err := checkKind(id, models.KindSpace); err != nil {
		return c.fail("select space", err)
	}
	c.state.Dispatch(store.SelectAction(id.ItemID(), ""))
	return nil
}
