package event

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// JoinCodeLength is the number of characters in a join code
const JoinCodeLength = 6

const joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateJoinCode draws a random upper-case alphanumeric join code
func GenerateJoinCode() (string, error) {
	limit := big.NewInt(int64(len(joinCodeAlphabet)))
	var b strings.Builder
	b.Grow(JoinCodeLength)
	for range JoinCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeJoinCode folds user input to the stored form
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidJoinCode reports whether code is already in stored form
func ValidJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(joinCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
