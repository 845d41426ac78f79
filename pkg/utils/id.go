package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a compact 32-char identifier (uuid v4 without dashes).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ShortToken returns n random bytes hex-encoded, used as a slug
// disambiguator suffix.
func ShortToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
