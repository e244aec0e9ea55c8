package invitecode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	// Alphabet leaves out 0/O and 1/I so codes can be read aloud
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	Length   = 8
)

// Generate returns a random code of Length characters from Alphabet
func Generate() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	var sb strings.Builder
	sb.Grow(Length)
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(Alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Normalize uppercases and trims user input before lookup
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code has the right shape
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
