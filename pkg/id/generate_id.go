package id

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewTaskID returns a canonical UUID string.
func NewTaskID() string { return uuid.NewString() }

const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewApplicationNumber returns a human readable number such as
// LA-20260301-7KQ2ZD. Ambiguous glyphs (0/O, 1/I) are left out.
func NewApplicationNumber(at time.Time) string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = numberAlphabet[int(b[i])%len(numberAlphabet)]
	}
	return "LA-" + at.UTC().Format("20060102") + "-" + string(b)
}
