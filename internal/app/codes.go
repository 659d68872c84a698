package app

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/lithammer/shortuuid/v3"
)

// codeAlphabet excludes lookalike characters (0/O, 1/I/L) so codes read
// unambiguously off a projected screen.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	hostKeyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	hostKeyLength   = 16

	// codeAttempts bounds retries when a generated code collides with
	// an active session.
	codeAttempts = 5
)

func randomString(alphabet string, length int) string {
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}

// NewJoinCode returns a fresh 6-character join code.
func NewJoinCode() string {
	return randomString(codeAlphabet, codeLength)
}

// NewHostKey returns an opaque capability token for host-privileged calls.
func NewHostKey() string {
	return randomString(hostKeyAlphabet, hostKeyLength)
}

// NewPlayerID returns a session-unique player id that stays stable
// across reconnects.
func NewPlayerID() string {
	return shortuuid.New()
}

// NormalizeCode folds user-typed join codes to the canonical form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
