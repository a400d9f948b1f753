package models

import (
	"slices"

	"github.com/dataspace/mirror/pkg/index"
	"github.com/goccy/go-json"
)

// Dataset groups files and their annotations under a space. Index is built
// locally when the dataset is loaded and never crosses the wire.
type Dataset struct {
	ID          ID           `json:"-"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Problem     string       `json:"problem,omitempty"`
	Resolution  string       `json:"resolution,omitempty"`
	FileCount   int          `json:"file_count"`
	Index       *index.Index `json:"-"`
}

func (*Dataset) Kind() Kind { return KindDataset }

func (d *Dataset) Identifier() ID {
	if d == nil {
		return ID{}
	}
	return d.ID
}

// Copy returns a shallow duplicate. Tags is cloned so that the copy may be
// edited without touching the original; the index is shared.
func (d *Dataset) Copy() *Dataset {
	c := *d
	c.Tags = slices.Clone(d.Tags)
	return &c
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	type alias Dataset
	return encodeWithID(d.ID, alias(d))
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	type alias Dataset
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	id, err := decodeID(data, KindDataset)
	if err != nil {
		return err
	}
	a.ID = id
	*d = Dataset(a)
	return nil
}
