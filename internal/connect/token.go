package connect

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// codeAlphabet omits characters that are easy to misread when a code is
// shared verbally or on paper (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateCode returns a random token of length n drawn from codeAlphabet.
func generateCode(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// NormalizeCode canonicalizes user input before lookup. Codes are stored
// upper-case without surrounding whitespace.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
