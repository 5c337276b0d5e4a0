package memo

import "errors"

var (
	// ErrTooLarge is returned when the encoded memo exceeds MaxSize bytes.
	// A memo in this state must not be attached to a transaction.
	ErrTooLarge = errors.New("memo: encoded size exceeds maximum")

	// ErrMalformedPayload is returned when a payload is missing, is not valid
	// hex, or does not start with a CBOR text string.
	ErrMalformedPayload = errors.New("memo: malformed payload")

	// ErrInvalidText is returned for text that is not valid UTF-8. CBOR text
	// strings must be UTF-8, so such a payload would be rejected on decode.
	ErrInvalidText = errors.New("memo: text is not valid UTF-8")
)
