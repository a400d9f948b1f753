package models

import (
	"io"

	"github.com/dataspace/mirror/internal/codec"
	"github.com/fxamacker/cbor/v2"
)

// CustomCBORTag numbers are taken from the first-come-first-served range.
type CustomCBORTag uint64

var (
	// IdentifierTag wraps the compact token of an ID.
	IdentifierTag CustomCBORTag = 1101
)

// CborMarshaler encodes values crossing a process or worker boundary.
type CborMarshaler struct{}

var _ codec.Marshaler = CborMarshaler{}

func (c CborMarshaler) Marshal(v any) ([]byte, error) {
	return getCborEncoder().Marshal(v)
}

func (c CborMarshaler) NewEncoder(w io.Writer) codec.Encoder {
	return getCborEncoder().NewEncoder(w)
}

type CborUnmarshaler struct{}

var _ codec.Unmarshaler = CborUnmarshaler{}

func (c CborUnmarshaler) Unmarshal(data []byte, dst any) error {
	return getCborDecoder().Unmarshal(data, dst)
}

func (c CborUnmarshaler) NewDecoder(r io.Reader) codec.Decoder {
	return getCborDecoder().NewDecoder(r)
}

func getCborEncoder() cbor.EncMode {
	em, err := cbor.EncOptions{
		Time:    cbor.TimeRFC3339,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(err)
	}

	return em
}

func getCborDecoder() cbor.DecMode {
	dm, err := cbor.DecOptions{
		TimeTagToAny: cbor.TimeTagToTime,
	}.DecMode()
	if err != nil {
		panic(err)
	}

	return dm
}
