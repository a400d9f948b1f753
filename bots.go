package mirror

import (
	"context"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/goccy/go-json"
)

func (c *Client) LoadBots(ctx context.Context, space models.ID) ([]*models.Bot, error) {
	if err := checkKind(space, models.KindSpace); err != nil {
		return reject[[]*models.Bot](c, "load bots", err)
	}
	return list[*models.Bot](ctx, c, constants.ResourceBots, parentQuery(space))
}

func (c *Client) CreateBot(ctx context.Context, space models.ID, name string, config map[string]any) (*models.Bot, error) {
	const op = "create bot"
	if err := checkKind(space, models.KindSpace); err != nil {
		return reject[*models.Bot](c, op, err)
	}
	if name == "" {
		return reject[*models.Bot](c, op, invalid("name undefined"))
	}
	body, err := models.EncodeUnder(space, &models.Bot{Name: name, Config: config})
	if err != nil {
		return reject[*models.Bot](c, op, err)
	}
	return create[*models.Bot](ctx, c, constants.ResourceBots, json.RawMessage(body))
}

func (c *Client) DeleteBot(ctx context.Context, id models.ID) (*models.Bot, error) {
	if err := checkKind(id, models.KindBot); err != nil {
		return reject[*models.Bot](c, "delete bot", err)
	}
	return remove[*models.Bot](ctx, c, id)
}

func (c *Client) LoadBoards(ctx context.Context, space models.ID) ([]*models.Board, error) {
	if err := checkKind(space, models.KindSpace); err != nil {
		return reject[[]*models.Board](c, "load boards", err)
	}
	return list[*models.Board](ctx, c, constants.ResourceBoards, parentQuery(space))
}

func (c *Client) CreateBoard(ctx context.Context, space models.ID, name string, layout map[string]any) (*models.Board, error) {
	const op = "create board"
	if err := checkKind(space, models.KindSpace); err != nil {
		return reject[*models.Board](c, op, err)
	}
	if name == "" {
		return reject[*models.Board](c, op, invalid("name undefined"))
	}
	body, err := models.EncodeUnder(space, &models.Board{Name: name, Layout: layout})
	if err != nil {
		return reject[*models.Board](c, op, err)
	}
	return create[*models.Board](ctx, c, constants.ResourceBoards, json.RawMessage(body))
}

func (c *Client) DeleteBoard(ctx context.Context, id models.ID) (*models.Board, error) {
	if err := checkKind(id, models.KindBoard); err != nil {
		return reject[*models.Board](c, "delete board", err)
	}
	return remove[*models.Board](ctx, c, id)
}
