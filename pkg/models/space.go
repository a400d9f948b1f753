package models

import "github.com/goccy/go-json"

// Space is the top-level container.
type Space struct {
	ID    ID     `json:"-"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
}

func (*Space) Kind() Kind { return KindSpace }

func (s *Space) Identifier() ID {
	if s == nil {
		return ID{}
	}
	return s.ID
}

func (s *Space) Copy() *Space {
	c := *s
	return &c
}

func (s Space) MarshalJSON() ([]byte, error) {
	type alias Space
	return encodeWithID(s.ID, alias(s))
}

func (s *Space) UnmarshalJSON(data []byte) error {
	type alias Space
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	id, err := decodeID(data, KindSpace)
	if err != nil {
		return err
	}
	a.ID = id
	*s = Space(a)
	return nil
}
