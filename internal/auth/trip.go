package auth

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// TokenLength is the printable width of a digest token (60 bits of output).
const TokenLength = 10

// Digester produces tripcodes and ip-hashes with a keyed BLAKE2b hash.
// Equal inputs under the same salt always give the same token.
type Digester struct {
	key []byte
}

// ErrEmptySalt is returned for an empty salt, which would leave the hash unkeyed.
var ErrEmptySalt = errors.New("trip salt is empty")

// NewDigester creates a digester keyed by salt. BLAKE2b accepts keys up to 64 bytes.
func NewDigester(salt string) (*Digester, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	if len(salt) > blake2b.Size {
		return nil, fmt.Errorf("trip salt longer than %d bytes", blake2b.Size)
	}
	return &Digester{key: []byte(salt)}, nil
}

// Digest returns the token for secret.
func (d *Digester) Digest(secret string) string {
	h, err := blake2b.New256(d.key)
	if err != nil {
		// key length is checked in NewDigester
		panic(err)
	}
	h.Write([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))[:TokenLength]
}
