package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// unit separator; keeps ("ab","c") and ("a","bc") from colliding
var keySep = []byte{0x1f}

// Key derives a cache key from the semantically relevant parts of a request.
// SHA-256 over the separator-joined parts keeps keys deterministic across
// process restarts, which language-builtin hashes do not guarantee.
// Composition is the caller's concern: each endpoint joins exactly the
// fields that affect its output (text plus voice and rate for TTS, text
// plus history for conversation).
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write(keySep)
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
