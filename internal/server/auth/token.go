package auth

import (
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"golang.org/x/crypto/blake2b"
)

// tokenBytes is the entropy of a freshly issued API token.
const tokenBytes = 32

// NewToken returns a random opaque API token (64 hex characters).
func NewToken() (string, error) {
	tok, err := common.MakeRandHexString(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return tok, nil
}

// HashToken is the at-rest form of an API token: keyed BLAKE2b-256 with the
// server secret, hex encoded. Keys longer than 64 bytes are rejected by
// blake2b, so the secret is folded through an unkeyed hash first.
func HashToken(secret []byte, token string) string {
	key := secret
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}

	h, err := blake2b.New256(key)
	if err != nil {
		// unreachable: key length is bounded above
		panic(err)
	}
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
