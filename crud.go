package mirror

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dataspace/mirror/pkg/connection"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
)

// single extracts the one record a write is expected to return.
func single[T any](items []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, constants.ErrEmptyResultSet
	}
	return items[0], nil
}

func send[T models.Entity](ctx context.Context, c *Client, req *connection.Request) ([]T, error) {
	items, _, err := connection.Send[T](c.conn, ctx, req)
	return items, err
}

func list[T models.Entity](ctx context.Context, c *Client, resource string, query url.Values) ([]T, error) {
	items, err := send[T](ctx, c, &connection.Request{Method: http.MethodGet, Resource: resource, Query: query})
	items, err = store.DispatchLoad(c.state, items, err)
	if err != nil {
		return nil, c.fail("list "+resource, err)
	}
	return items, nil
}

func create[T models.Entity](ctx context.Context, c *Client, resource string, body any) (T, error) {
	item, err := single[T](send[T](ctx, c, &connection.Request{Method: http.MethodPost, Resource: resource, Body: body}))
	item, err = store.DispatchCreate(c.state, item, err)
	if err != nil {
		return item, c.fail("create "+resource, err)
	}
	return item, nil
}

func update[T models.Entity](ctx context.Context, c *Client, item T) (T, error) {
	return updateWith(ctx, c, item, nil)
}

// updateWith applies adjust to the backend's answer before dispatching it,
// to restore state the backend does not hold.
func updateWith[T models.Entity](ctx context.Context, c *Client, item T, adjust func(T) T) (T, error) {
	id := item.Identifier()
	resource := id.Kind().Resource()
	updated, err := single[T](send[T](ctx, c, &connection.Request{
		Method: http.MethodPut, Resource: resource, Path: id.Path(), Body: item,
	}))
	if err == nil && adjust != nil {
		updated = adjust(updated)
	}
	updated, err = store.DispatchUpdate(c.state, updated, err)
	if err != nil {
		return updated, c.fail(fmt.Sprintf("update %s", id), err)
	}
	return updated, nil
}

func remove[T models.Entity](ctx context.Context, c *Client, id models.ID) (T, error) {
	resource := id.Kind().Resource()
	deleted, err := single[T](send[T](ctx, c, &connection.Request{
		Method: http.MethodDelete, Resource: resource, Path: id.Path(),
	}))
	deleted, err = store.DispatchDelete(c.state, deleted, err)
	if err != nil {
		return deleted, c.fail(fmt.Sprintf("delete %s", id), err)
	}
	return deleted, nil
}

// reject dispatches ERROR for a validation failure.
func reject[T any](c *Client, op string, err error) (T, error) {
	var zero T
	return zero, c.fail(op, err)
}

// parentQuery narrows a listing to the children of parent.
func parentQuery(parent models.ID) url.Values {
	q := url.Values{}
	switch parent.Kind() {
	case models.KindSpace:
		q.Set(models.FieldSpaceID, parent.ItemID())
	case models.KindDataset:
		q.Set(models.FieldSpaceID, parent.SpaceID())
		q.Set(models.FieldDatasetID, parent.ItemID())
	case models.KindFile:
		q.Set(models.FieldSpaceID, parent.SpaceID())
		q.Set(models.FieldDatasetID, parent.DatasetID())
		q.Set(models.FieldFileID, parent.ItemID())
	}
	return q
}

func checkKind(id models.ID, want models.Kind) error {
	if !id.Valid() || id.Kind() != want {
		return invalid("not a %s", want)
	}
	return nil
}
