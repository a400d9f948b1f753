package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Activity is an append-only log entry attached to a space, a dataset or a
// file. The parent level is encoded in the identifier tag.
type Activity struct {
	ID        ID             `json:"-"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (*Activity) Kind() Kind { return KindActivity }

func (a *Activity) Identifier() ID {
	if a == nil {
		return ID{}
	}
	return a.ID
}

func (a *Activity) Copy() *Activity {
	c := *a
	return &c
}

func (a Activity) MarshalJSON() ([]byte, error) {
	type alias Activity
	return encodeWithID(a.ID, alias(a))
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type alias Activity
	var v alias
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	id, err := decodeID(data, KindActivity)
	if err != nil {
		return err
	}
	v.ID = id
	*a = Activity(v)
	return nil
}
