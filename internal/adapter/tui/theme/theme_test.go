package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(42, 0, 10))
}

func TestInitSymbols_ASCIIOverride(t *testing.T) {
	// Registered first so it runs after the env var is restored.
	t.Cleanup(InitSymbols)
	t.Setenv("INSTALLER_ASCII_SYMBOLS", "true")
	InitSymbols()

	assert.False(t, DetectUnicodeSupport())
	assert.Equal(t, "[OK]", SymbolSuccess)
	assert.Equal(t, "->", SymbolArrowR)
}

func TestDetectUnicodeSupport_UTF8Locale(t *testing.T) {
	t.Setenv("INSTALLER_ASCII_SYMBOLS", "")
	t.Setenv("LANG", "en_US.UTF-8")
	assert.True(t, DetectUnicodeSupport())
}
