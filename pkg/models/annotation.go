package models

import (
	"slices"
	"time"

	"github.com/goccy/go-json"
)

// Annotation marks a span of a file. Comments are kept in insertion order
// and always sent, so that removing the last one reaches the backend.
type Annotation struct {
	ID          ID             `json:"-"`
	Description string         `json:"description,omitempty"`
	Offset      int            `json:"offset"`
	Length      int            `json:"length"`
	Data        map[string]any `json:"data,omitempty"`
	Comments    []Comment      `json:"comments"`
}

// Comment is embedded in an annotation and carries its own opaque id.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (*Annotation) Kind() Kind { return KindAnnotation }

func (a *Annotation) Identifier() ID {
	if a == nil {
		return ID{}
	}
	return a.ID
}

func (a *Annotation) Copy() *Annotation {
	c := *a
	return &c
}

// WithComment returns a copy with c appended. The receiver is not modified.
func (a *Annotation) WithComment(c Comment) *Annotation {
	next := a.Copy()
	next.Comments = append(slices.Clone(a.Comments), c)
	return next
}

// WithoutComment returns a copy lacking the comment with the given id, and
// whether such a comment existed.
func (a *Annotation) WithoutComment(id string) (*Annotation, bool) {
	i := slices.IndexFunc(a.Comments, func(c Comment) bool { return c.ID == id })
	if i < 0 {
		return a, false
	}
	next := a.Copy()
	next.Comments = slices.Delete(slices.Clone(a.Comments), i, i+1)
	return next, true
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	type alias Annotation
	return encodeWithID(a.ID, alias(a))
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	type alias Annotation
	var v alias
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	id, err := decodeID(data, KindAnnotation)
	if err != nil {
		return err
	}
	v.ID = id
	*a = Annotation(v)
	return nil
}
