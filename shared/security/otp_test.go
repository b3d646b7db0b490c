package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDigitCodeGenerator_RejectsOutOfRangeDigits(t *testing.T) {
	_, err := NewDigitCodeGenerator(3)
	require.Error(t, err)

	_, err = NewDigitCodeGenerator(11)
	require.Error(t, err)
}

func TestDigitCodeGenerator_Generate(t *testing.T) {
	gen, err := NewDigitCodeGenerator(6)
	require.NoError(t, err)
	assert.Equal(t, 6, gen.Digits())

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q in %q", r, code)
		}
		seen[code] = struct{}{}
	}

	// 200 draws from a million values should almost never collide much.
	assert.Greater(t, len(seen), 190)
}

func TestHashSecret(t *testing.T) {
	a := HashSecret("123456")
	b := HashSecret("123456")
	c := HashSecret("654321")

	assert.Len(t, a, 64)
	assert.True(t, EqualHashes(a, b))
	assert.False(t, EqualHashes(a, c))
}
