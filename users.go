package mirror

import (
	"context"
	"net/url"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
)

// LoadUser fetches the user keyed by id, such as an email address.
func (c *Client) LoadUser(ctx context.Context, id string) (*models.User, error) {
	const op = "load user"
	if id == "" {
		return reject[*models.User](c, op, invalid("id undefined"))
	}
	users, err := list[*models.User](ctx, c, constants.ResourceUsers, url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	u, err := single(users, nil)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return u, nil
}

// UpdateUserPrefs replaces the preferences of a user.
func (c *Client) UpdateUserPrefs(ctx context.Context, id string, prefs map[string]any) (*models.User, error) {
	if id == "" {
		return reject[*models.User](c, "update user", invalid("id undefined"))
	}
	return update(ctx, c, &models.User{ID: models.NewUserID(id), Prefs: prefs})
}
