package codec

// Codec marshals values to and from a byte representation.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// FirstItemDecoder is implemented by self-describing codecs that can decode
// the first complete item of data and report what was left unread.
type FirstItemDecoder interface {
	UnmarshalFirst(data []byte, v interface{}) (rest []byte, err error)
}
