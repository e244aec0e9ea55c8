package invitecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Len(t, code, Length)
		assert.True(t, Valid(code), code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestValid(t *testing.T) {
	assert.False(t, Valid("ABCDEFG"))
	assert.False(t, Valid("ABCDEFG0"))
	assert.False(t, Valid("abcdefgh"))
	assert.True(t, Valid("ABCD2345"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABCD2345", Normalize("  abcd2345 "))
}
