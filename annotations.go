package mirror

import (
	"context"
	"time"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
	"github.com/goccy/go-json"
	"github.com/gofrs/uuid"
)

// AnnotationInput carries the writable fields of a new annotation.
type AnnotationInput struct {
	Description string
	Offset      int
	Length      int
	Data        map[string]any
}

func (c *Client) CreateAnnotation(ctx context.Context, file models.ID, in AnnotationInput) (*models.Annotation, error) {
	const op = "create annotation"
	if err := checkKind(file, models.KindFile); err != nil {
		return reject[*models.Annotation](c, op, err)
	}
	if in.Offset < 0 || in.Length < 0 {
		return reject[*models.Annotation](c, op, invalid("negative span"))
	}
	body, err := models.EncodeUnder(file, &models.Annotation{
		Description: in.Description,
		Offset:      in.Offset,
		Length:      in.Length,
		Data:        in.Data,
	})
	if err != nil {
		return reject[*models.Annotation](c, op, err)
	}
	return create[*models.Annotation](ctx, c, constants.ResourceAnnotations, json.RawMessage(body))
}

func (c *Client) UpdateAnnotation(ctx context.Context, a *models.Annotation) (*models.Annotation, error) {
	const op = "update annotation"
	if err := checkKind(a.Identifier(), models.KindAnnotation); err != nil {
		return reject[*models.Annotation](c, op, err)
	}
	if a.Offset < 0 || a.Length < 0 {
		return reject[*models.Annotation](c, op, invalid("negative span"))
	}
	return update(ctx, c, a)
}

func (c *Client) DeleteAnnotation(ctx context.Context, id models.ID) (*models.Annotation, error) {
	if err := checkKind(id, models.KindAnnotation); err != nil {
		return reject[*models.Annotation](c, "delete annotation", err)
	}
	return remove[*models.Annotation](ctx, c, id)
}

// AddComment appends a comment to an annotation held in the store.
func (c *Client) AddComment(ctx context.Context, id models.ID, author, text string) (*models.Annotation, error) {
	const op = "add comment"
	a, err := c.storedAnnotation(id)
	if err != nil {
		return reject[*models.Annotation](c, op, err)
	}
	if text == "" {
		return reject[*models.Annotation](c, op, invalid("text undefined"))
	}
	commentID, err := uuid.NewV4()
	if err != nil {
		return reject[*models.Annotation](c, op, err)
	}
	return update(ctx, c, a.WithComment(models.Comment{
		ID:        commentID.String(),
		Author:    author,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}))
}

func (c *Client) RemoveComment(ctx context.Context, id models.ID, commentID string) (*models.Annotation, error) {
	const op = "remove comment"
	a, err := c.storedAnnotation(id)
	if err != nil {
		return reject[*models.Annotation](c, op, err)
	}
	next, ok := a.WithoutComment(commentID)
	if !ok {
		return reject[*models.Annotation](c, op, invalid("no comment %q", commentID))
	}
	return update(ctx, c, next)
}

func (c *Client) storedAnnotation(id models.ID) (*models.Annotation, error) {
	if err := checkKind(id, models.KindAnnotation); err != nil {
		return nil, err
	}
	a := c.State().Annotation(id)
	if !a.ID.Valid() {
		return nil, invalid("annotation %s is not loaded", id)
	}
	return a, nil
}

// Annotations lists the annotations of a file, or of every file of a
// dataset, held in the store.
func (c *Client) Annotations(id models.ID) []*models.Annotation {
	return store.AnnotationsOf(c.State(), id)
}
