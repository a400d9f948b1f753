package models

import (
	"path"
	"strings"

	"github.com/goccy/go-json"
)

// File is a member of a dataset. Raw bytes live in a content provider, not
// on the record. Origin is set on files extracted from an archive and holds
// the archive's name.
type File struct {
	ID          ID     `json:"-"`
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	Origin      string `json:"origin,omitempty"`
}

func (*File) Kind() Kind { return KindFile }

func (f *File) Identifier() ID {
	if f == nil {
		return ID{}
	}
	return f.ID
}

func (f *File) Copy() *File {
	c := *f
	return &c
}

// Ext is the lower-cased extension of the file name, "" if none. Compound
// archive extensions are reported whole.
func (f *File) Ext() string {
	lower := strings.ToLower(f.Name)
	if strings.HasSuffix(lower, ".tar.gz") {
		return ".tar.gz"
	}
	return path.Ext(lower)
}

func (f File) MarshalJSON() ([]byte, error) {
	type alias File
	return encodeWithID(f.ID, alias(f))
}

func (f *File) UnmarshalJSON(data []byte) error {
	type alias File
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	id, err := decodeID(data, KindFile)
	if err != nil {
		return err
	}
	a.ID = id
	*f = File(a)
	return nil
}
