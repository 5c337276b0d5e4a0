// Package memo implements the on-chain memo format: a single CBOR text string
// of at most MaxSize bytes.
package memo

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/serialization/codec"
)

// MaxSize is the maximum size in bytes of an encoded memo.
const MaxSize = 256

var cborCodec = codec.NewCBORCodec()

// Memo is an immutable memo value. The zero value is the empty memo.
type Memo struct {
	displayValue string
	encoded      []byte
	trusted      bool
}

// New builds a memo from user supplied text. It never fails; callers must
// check Validate before attaching it to a transaction.
func New(displayValue string) Memo {
	return Memo{
		displayValue: displayValue,
		encoded:      encode(displayValue),
		trusted:      true,
	}
}

// FromHex decodes a memo payload given as hex. It reports false when the
// payload is absent or malformed. A payload that decodes but does not
// re-encode to the same bytes yields a memo displaying the hex itself.
func FromHex(payload string) (Memo, bool) {
	m, err := Decode(payload)
	if err != nil {
		return Memo{}, false
	}
	return m, true
}

// Decode is FromHex with the failure reason. Round-trip mismatches are not
// errors; they produce a memo for which Trusted reports false.
func Decode(payload string) (Memo, error) {
	if payload == "" {
		return Memo{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	data, err := hex.DecodeString(payload)
	if err != nil {
		return Memo{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var item interface{}
	if _, err := cborCodec.UnmarshalFirst(data, &item); err != nil {
		return Memo{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	text, ok := item.(string)
	if !ok {
		return Memo{}, fmt.Errorf("%w: first item is %T, not a text string", ErrMalformedPayload, item)
	}

	reencoded := encode(text)
	if string(reencoded) == string(data) {
		return Memo{displayValue: text, encoded: reencoded, trusted: true}, nil
	}

	// Trailing bytes or a non-canonical encoding: show the payload as given.
	return Memo{displayValue: payload, encoded: encode(payload), trusted: false}, nil
}

// DisplayValue returns the text shown to the user.
func (m Memo) DisplayValue() string {
	return m.displayValue
}

// Encoded returns the canonical encoding of the display value.
func (m Memo) Encoded() []byte {
	if m.encoded == nil {
		return encode(m.displayValue)
	}
	out := make([]byte, len(m.encoded))
	copy(out, m.encoded)
	return out
}

// Hex returns the lowercase hex form of Encoded.
func (m Memo) Hex() string {
	return hex.EncodeToString(m.Encoded())
}

// Size is the length of Encoded in bytes.
func (m Memo) Size() int {
	if m.encoded == nil {
		return len(encode(m.displayValue))
	}
	return len(m.encoded)
}

// HasValidSize reports whether the memo may be attached to a transaction.
func (m Memo) HasValidSize() bool {
	return m.Size() <= MaxSize
}

// Validate returns ErrInvalidText when the display value is not valid UTF-8,
// since the payload could not be decoded again, and ErrTooLarge when
// HasValidSize is false.
func (m Memo) Validate() error {
	if !utf8.ValidString(m.displayValue) {
		return ErrInvalidText
	}
	if !m.HasValidSize() {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, m.Size(), MaxSize)
	}
	return nil
}

// Trusted is false when the memo was decoded from a payload that failed the
// round-trip check and DisplayValue holds the raw hex.
func (m Memo) Trusted() bool {
	return m.trusted || m.encoded == nil
}

func (m Memo) String() string {
	return m.displayValue
}

func encode(s string) []byte {
	b, err := cborCodec.Marshal(s)
	if err != nil {
		// Encoding a Go string as a CBOR text string cannot fail.
		panic(fmt.Sprintf("memo: encode text: %v", err))
	}
	return b
}
