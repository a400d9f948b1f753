package models

import (
	"fmt"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/fxamacker/cbor/v2"
)

// MarshalCBOR encodes the ID as its compact token under IdentifierTag.
func (id ID) MarshalCBOR() ([]byte, error) {
	return getCborEncoder().Marshal(cbor.Tag{
		Number:  uint64(IdentifierTag),
		Content: id.String(),
	})
}

// UnmarshalCBOR decodes an IdentifierTag. An empty token yields the zero ID.
func (id *ID) UnmarshalCBOR(data []byte) error {
	var tag cbor.Tag
	if err := getCborDecoder().Unmarshal(data, &tag); err != nil {
		return err
	}

	if tag.Number != uint64(IdentifierTag) {
		return fmt.Errorf("unexpected tag number for ID: got %d, want %d", tag.Number, IdentifierTag)
	}

	token, ok := tag.Content.(string)
	if !ok {
		return fmt.Errorf("ID tag content must be a text string, got %T", tag.Content)
	}

	return id.UnmarshalText([]byte(token))
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ID{}
		return nil
	}

	parsed := Parse(string(text))
	if !parsed.Valid() {
		return fmt.Errorf("%w: %q", constants.ErrInvalidID, text)
	}

	*id = parsed
	return nil
}
