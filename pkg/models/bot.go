package models

import "github.com/goccy/go-json"

// Bot is an automated participant configured per space.
type Bot struct {
	ID     ID             `json:"-"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config,omitempty"`
}

func (*Bot) Kind() Kind { return KindBot }

func (b *Bot) Identifier() ID {
	if b == nil {
		return ID{}
	}
	return b.ID
}

func (b *Bot) Copy() *Bot {
	c := *b
	return &c
}

func (b Bot) MarshalJSON() ([]byte, error) {
	type alias Bot
	return encodeWithID(b.ID, alias(b))
}

func (b *Bot) UnmarshalJSON(data []byte) error {
	type alias Bot
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	id, err := decodeID(data, KindBot)
	if err != nil {
		return err
	}
	a.ID = id
	*b = Bot(a)
	return nil
}

// Board is a saved dashboard layout within a space.
type Board struct {
	ID     ID             `json:"-"`
	Name   string         `json:"name"`
	Layout map[string]any `json:"layout,omitempty"`
}

func (*Board) Kind() Kind { return KindBoard }

func (b *Board) Identifier() ID {
	if b == nil {
		return ID{}
	}
	return b.ID
}

func (b *Board) Copy() *Board {
	c := *b
	return &c
}

func (b Board) MarshalJSON() ([]byte, error) {
	type alias Board
	return encodeWithID(b.ID, alias(b))
}

func (b *Board) UnmarshalJSON(data []byte) error {
	type alias Board
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	id, err := decodeID(data, KindBoard)
	if err != nil {
		return err
	}
	a.ID = id
	*b = Board(a)
	return nil
}
