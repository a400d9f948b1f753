package mirror

import (
	"context"
	"strings"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/ingest"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
	"github.com/goccy/go-json"
)

// upload is the body of a file creation. Content travels base64 encoded.
type upload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	Content     []byte `json:"content"`
}

// CreateFile uploads raw as a new file of dataset and ingests it. The
// returned files stand for the upload: the file itself, or the members of
// an archive, which replace it in the store.
func (c *Client) CreateFile(ctx context.Context, dataset models.ID, name, contentType string, raw []byte) ([]*models.File, error) {
	const op = "create file"
	if err := checkKind(dataset, models.KindDataset); err != nil {
		return reject[[]*models.File](c, op, err)
	}
	if name == "" {
		return reject[[]*models.File](c, op, invalid("name undefined"))
	}
	if strings.HasPrefix(name, "/") {
		return reject[[]*models.File](c, op, invalid("name must be relative"))
	}

	body, err := models.EncodeUnder(dataset, upload{Name: name, ContentType: contentType, Size: len(raw), Content: raw})
	if err != nil {
		return reject[[]*models.File](c, op, err)
	}
	f, err := create[*models.File](ctx, c, constants.ResourceFiles, json.RawMessage(body))
	if err != nil {
		return nil, err
	}

	if ingest.Reusable(f.Name) {
		if err := c.content.StoreInCache(ctx, f.ID, raw); err != nil {
			c.logger.Warn("cache write failed", "file", f.ID.String(), "error", err)
		}
	}
	files, err := c.pipeline.IngestFile(ctx, f)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return files, nil
}

func (c *Client) RenameFile(ctx context.Context, f *models.File, name string) (*models.File, error) {
	const op = "rename file"
	if err := checkKind(f.Identifier(), models.KindFile); err != nil {
		return reject[*models.File](c, op, err)
	}
	if name == "" {
		return reject[*models.File](c, op, invalid("name undefined"))
	}
	next := f.Copy()
	next.Name = name
	return update(ctx, c, next)
}

// DeleteFile removes the file and drops its content from the provider.
func (c *Client) DeleteFile(ctx context.Context, id models.ID) (*models.File, error) {
	if err := checkKind(id, models.KindFile); err != nil {
		return reject[*models.File](c, "delete file", err)
	}
	f, err := remove[*models.File](ctx, c, id)
	if err != nil {
		return f, err
	}
	c.content.ClearRawContent(id)
	return f, nil
}

// FileContent returns the raw bytes of a file, downloading them when the
// content provider does not hold them yet.
func (c *Client) FileContent(ctx context.Context, id models.ID) ([]byte, error) {
	const op = "file content"
	if err := checkKind(id, models.KindFile); err != nil {
		return reject[[]byte](c, op, err)
	}
	if raw, ok := c.content.RawContent(id); ok {
		return raw, nil
	}
	if raw, ok, err := c.content.GetFromCache(ctx, id); err == nil && ok {
		c.content.SetRawContent(id, raw)
		return raw, nil
	}

	raw, err := c.conn.Fetch(ctx, ingest.ContentPath(id))
	if err != nil {
		return nil, c.fail(op, err)
	}
	c.content.SetRawContent(id, raw)
	return raw, nil
}

// Files lists the files of a dataset held in the store.
func (c *Client) Files(dataset models.ID) []*models.File {
	return store.FilesOf(c.State(), dataset)
}
