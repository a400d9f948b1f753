package models

import (
	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// User is keyed by an opaque string such as an email address. On the wire
// the key travels as "id" rather than as an identifier field set.
type User struct {
	ID    ID             `json:"-"`
	Prefs map[string]any `json:"prefs,omitempty"`
}

func (*User) Kind() Kind { return KindUser }

func (u *User) Identifier() ID {
	if u == nil {
		return ID{}
	}
	return u.ID
}

func (u *User) Copy() *User {
	c := *u
	return &c
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    string         `json:"id,omitempty"`
		Prefs map[string]any `json:"prefs,omitempty"`
	}{u.ID.ItemID(), u.Prefs})
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	key, err := jsonparser.GetString(data, "id")
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return err
	}
	a.ID = NewUserID(key)
	*u = User(a)
	return nil
}
