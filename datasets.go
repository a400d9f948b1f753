package mirror

import (
	"context"
	"strings"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/index"
	"github.com/dataspace/mirror/pkg/ingest"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
	"github.com/goccy/go-json"
)

// DatasetInput carries the writable fields of a new dataset.
type DatasetInput struct {
	Name        string
	Description string
	Tags        []string
	Problem     string
	Resolution  string
}

func validTags(tags []string) error {
	for _, t := range tags {
		if strings.TrimSpace(t) == "" || strings.ContainsAny(t, ",\n") {
			return invalid("malformed tags")
		}
	}
	return nil
}

// LoadDatasets lists the datasets of a space.
func (c *Client) LoadDatasets(ctx context.Context, space models.ID) ([]*models.Dataset, error) {
	if err := checkKind(space, models.KindSpace); err != nil {
		return reject[[]*models.Dataset](c, "load datasets", err)
	}
	return list[*models.Dataset](ctx, c, constants.ResourceDatasets, parentQuery(space))
}

func (c *Client) CreateDataset(ctx context.Context, space models.ID, in DatasetInput) (*models.Dataset, error) {
	const op = "create dataset"
	if err := checkKind(space, models.KindSpace); err != nil {
		return reject[*models.Dataset](c, op, err)
	}
	if in.Name == "" {
		return reject[*models.Dataset](c, op, invalid("name undefined"))
	}
	if err := validTags(in.Tags); err != nil {
		return reject[*models.Dataset](c, op, err)
	}

	body, err := models.EncodeUnder(space, &models.Dataset{
		Name:        in.Name,
		Description: in.Description,
		Tags:        in.Tags,
		Problem:     in.Problem,
		Resolution:  in.Resolution,
	})
	if err != nil {
		return reject[*models.Dataset](c, op, err)
	}
	return create[*models.Dataset](ctx, c, constants.ResourceDatasets, json.RawMessage(body))
}

// UpdateDataset writes the dataset's fields. The local index survives the
// update.
func (c *Client) UpdateDataset(ctx context.Context, d *models.Dataset) (*models.Dataset, error) {
	const op = "update dataset"
	if err := checkKind(d.Identifier(), models.KindDataset); err != nil {
		return reject[*models.Dataset](c, op, err)
	}
	if d.Name == "" {
		return reject[*models.Dataset](c, op, invalid("name undefined"))
	}
	if err := validTags(d.Tags); err != nil {
		return reject[*models.Dataset](c, op, err)
	}

	ix := store.DatasetOf(c.State(), d.ID).Index
	return updateWith(ctx, c, d, func(updated *models.Dataset) *models.Dataset {
		if ix == nil {
			return updated
		}
		updated = updated.Copy()
		updated.Index = ix
		return updated
	})
}

func (c *Client) DeleteDataset(ctx context.Context, id models.ID) (*models.Dataset, error) {
	if err := checkKind(id, models.KindDataset); err != nil {
		return reject[*models.Dataset](c, "delete dataset", err)
	}
	return remove[*models.Dataset](ctx, c, id)
}

// SelectDataset makes id and its space the current selection.
func (c *Client) SelectDataset(id models.ID) error {
	if err := checkKind(id, models.KindDataset); err != nil {
		return c.fail("select dataset", err)
	}
	c.state.Dispatch(store.SelectAction(id.SpaceID(), id.ItemID()))
	return nil
}

// LoadDataset fetches the dataset's files and annotations, hydrates their
// content and rebuilds its search index.
func (c *Client) LoadDataset(ctx context.Context, id models.ID) (*ingest.Result, error) {
	if err := checkKind(id, models.KindDataset); err != nil {
		return reject[*ingest.Result](c, "load dataset", err)
	}
	res, err := c.pipeline.LoadDataset(ctx, id)
	if err != nil {
		return nil, c.fail("load dataset", err)
	}
	return res, nil
}

// Search queries the index built by the last load of the dataset.
func (c *Client) Search(id models.ID, query string) ([]index.Hit, error) {
	if err := checkKind(id, models.KindDataset); err != nil {
		return nil, err
	}
	d := store.DatasetOf(c.State(), id)
	if d.Index == nil {
		return nil, invalid("dataset %s is not loaded", id)
	}
	return d.Index.Search(query), nil
}
