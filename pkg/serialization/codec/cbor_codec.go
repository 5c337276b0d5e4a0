package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding: shortest-form heads, definite lengths and
	// sorted map keys, so equal values always produce equal bytes.
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: invalid encoding options: %v", err))
	}
	cborDec, err = cbor.DecOptions{
		UTF8:      cbor.UTF8RejectInvalid,
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: invalid decoding options: %v", err))
	}
}

// CBORCodec implements the Codec interface for deterministic CBOR (RFC 8949).
type CBORCodec struct{}

// NewCBORCodec returns the deterministic CBOR codec.
func NewCBORCodec() *CBORCodec {
	return &CBORCodec{}
}

func (c *CBORCodec) Marshal(v interface{}) ([]byte, error) {
	b, err := cborEnc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf(ErrCBOREncoding, err)
	}
	return b, nil
}

// Unmarshal decodes exactly one CBOR item; trailing bytes are an error.
func (c *CBORCodec) Unmarshal(data []byte, v interface{}) error {
	rest, err := c.UnmarshalFirst(data, v)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return ErrTrailingData
	}
	return nil
}

// UnmarshalFirst decodes the first CBOR item of data into v and returns the unread remainder.
func (c *CBORCodec) UnmarshalFirst(data []byte, v interface{}) ([]byte, error) {
	rest, err := cborDec.UnmarshalFirst(data, v)
	if err != nil {
		return nil, fmt.Errorf(ErrCBORDecoding, err)
	}
	return rest, nil
}
