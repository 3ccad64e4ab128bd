package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// HashParts hashes an ordered list of components. Parts are length-delimited so
// ("ab","c") and ("a","bc") never collide.
func HashParts(parts ...string) Hash {
	var data strings.Builder
	for _, p := range parts {
		data.WriteString(strconv.Itoa(len(p)))
		data.WriteByte(':')
		data.WriteString(p)
		data.WriteByte('|')
	}
	return NewHash([]byte(data.String()))
}
