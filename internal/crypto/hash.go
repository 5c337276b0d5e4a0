package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

const HashSize = 32

type Hash [HashSize]byte

func HashData(data []byte) Hash {
	hash := blake2b.Sum256(data)
	return hash
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
