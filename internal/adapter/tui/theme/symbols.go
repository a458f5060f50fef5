package theme

import (
	"os"
	"strings"
)

// glyphs is one complete set of status glyphs.
type glyphs struct {
	ok, fail, warn     string
	current, pending   string
	arrow, bullet      string
	checked, unchecked string
}

var (
	unicodeGlyphs = glyphs{"✓", "✗", "⚠", "▸", "·", "→", "•", "[✓]", "[ ]"}
	asciiGlyphs   = glyphs{"[OK]", "[ERR]", "[!]", ">", "-", "->", "*", "[x]", "[ ]"}
)

func (g glyphs) install() {
	SymbolSuccess, SymbolError, SymbolWarning = g.ok, g.fail, g.warn
	SymbolCurrent, SymbolPending = g.current, g.pending
	SymbolArrowR, SymbolBullet = g.arrow, g.bullet
	SymbolChecked, SymbolUnchecked = g.checked, g.unchecked
}

// DetectUnicodeSupport reports whether glyphs outside ASCII should be used.
// INSTALLER_ASCII_SYMBOLS=1 (or true) forces ASCII. A non-UTF-8 locale
// alone does not, since most terminals render the unicode set anyway.
func DetectUnicodeSupport() bool {
	v := os.Getenv("INSTALLER_ASCII_SYMBOLS")
	return v != "1" && !strings.EqualFold(v, "true")
}

// InitSymbols picks the glyph set for the current environment.
func InitSymbols() {
	if DetectUnicodeSupport() {
		unicodeGlyphs.install()
		return
	}
	asciiGlyphs.install()
}

func init() {
	InitSymbols()
}
