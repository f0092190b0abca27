package meeting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		assert.Equal(t, strings.ToUpper(code), code)
	}
}

func TestGenerateCodeVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// 36^8 possibilities; 1000 draws colliding would point at a broken source
	assert.Greater(t, len(seen), 990)
}

func TestLinkDeterministic(t *testing.T) {
	base := "https://meet.jit.si/HealthStream"

	assert.Equal(t, Link(base, "AB12CD34"), Link(base, "AB12CD34"))
	assert.Equal(t, "https://meet.jit.si/HealthStream-AB12CD34", Link(base, "AB12CD34"))

	// case-insensitive on input, stable on output
	assert.Equal(t, Link(base, "ab12cd34"), Link(base, "AB12CD34"))
}

func TestLinkDistinctCodes(t *testing.T) {
	base := "https://meet.jit.si/HealthStream"
	assert.NotEqual(t, Link(base, "AB12CD34"), Link(base, "ZZ99XX11"))
}
