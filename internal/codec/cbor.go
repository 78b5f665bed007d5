// Package codec centralizes the deterministic CBOR options used across the
// block, object and commit layers, mirroring the teacher's
// massifs.NewRootSignerCodec / datatrails-common/cbor.CBORCodec split: one
// pair of (encode options, decode options) shared by everything that needs
// byte-stable serialization, because two peers producing the same logical
// commit must produce the same bytes (spec §6, "deterministic serialization").
package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// EncOptions returns the deterministic CBOR encoding options: map keys sorted,
// no indefinite-length items, smallest-form integers. Equal Go values always
// marshal to equal bytes.
func EncOptions() cbor.EncOptions {
	return cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		Time:          cbor.TimeUnix,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}
}

// DecOptions returns the matching decode options: no duplicate map keys, no
// indefinite-length streaming, no unexpected tags.
func DecOptions() cbor.DecOptions {
	return cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		IntDec:      cbor.IntDecConvertNone,
		TagsMd:      cbor.TagsForbidden,
	}
}

// Codec bundles a ready-to-use EncMode/DecMode pair, matching the teacher's
// commoncbor.CBORCodec ergonomics.
type Codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// New builds a Codec from the package's deterministic options.
func New() (Codec, error) {
	enc, err := EncOptions().EncMode()
	if err != nil {
		return Codec{}, err
	}
	dec, err := DecOptions().DecMode()
	if err != nil {
		return Codec{}, err
	}
	return Codec{enc: enc, dec: dec}, nil
}

func (c Codec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c Codec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

// Default is the package-wide shared codec; every caller in this module uses
// the same deterministic options so cross-package round trips stay stable.
var Default = mustNew()

func mustNew() Codec {
	c, err := New()
	if err != nil {
		panic("codec: failed to build default deterministic codec: " + err.Error())
	}
	return c
}
