package connect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := generateCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r), "code %q contains %q outside the alphabet", code, r)
	}
}

func TestGenerateCodeOmitsAmbiguousCharacters(t *testing.T) {
	for _, forbidden := range []string{"0", "O", "1", "I", "L"} {
		assert.NotContains(t, codeAlphabet, forbidden)
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateCode(8)
		require.NoError(t, err)
		seen[code] = true
	}
	// 100 draws from 31^8 possibilities colliding would point at a broken
	// random source.
	assert.Greater(t, len(seen), 95)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeCode("  ab12cd \n"))
	assert.Equal(t, "", NormalizeCode("   "))
	assert.Equal(t, strings.ToUpper("xyz234"), NormalizeCode("xyz234"))
}
