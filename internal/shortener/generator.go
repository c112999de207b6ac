package shortener

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	minAliasLength = 3
	maxAliasLength = 50
)

// ErrInvalidCharacter signals that a string contains a symbol outside the
// generator's alphabet.
var ErrInvalidCharacter = errors.New("invalid character in short code")

var (
	aliasCharsPattern  = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	aliasEdgesPattern  = regexp.MustCompile(`^[a-zA-Z0-9].*[a-zA-Z0-9]$`)
	sanitizeRunPattern = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRunPattern   = regexp.MustCompile(`--+`)
)

// Generator produces random short codes over a fixed alphabet and exposes a
// reversible base-N integer encoding over the same symbols.
//
// With the default 62-symbol alphabet, 6 characters cover ~56 billion codes
// and 7 characters ~3.5 trillion, which is why random generation with a small
// bounded retry is enough: collisions are practically nonexistent.
type Generator struct {
	alphabet      string
	defaultLength int
}

// NewGenerator builds a Generator. The alphabet and default length are
// validated at config load; they are read-only for the process lifetime.
func NewGenerator(alphabet string, defaultLength int) *Generator {
	return &Generator{alphabet: alphabet, defaultLength: defaultLength}
}

// DefaultLength returns the configured generated-code length.
func (g *Generator) DefaultLength() int { return g.defaultLength }

// Generate returns a code of the given length with every character drawn
// independently and uniformly from the alphabet. A non-positive length falls
// back to the configured default.
func (g *Generator) Generate(length int) string {
	if length <= 0 {
		length = g.defaultLength
	}

	base := big.NewInt(int64(len(g.alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, base)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; nothing sensible to do but stop.
			panic(fmt.Sprintf("shortener: read random source: %v", err))
		}
		b.WriteByte(g.alphabet[idx.Int64()])
	}
	return b.String()
}

// EncodeNumber converts n to its positional representation over the alphabet.
// Zero encodes to the first alphabet symbol.
func (g *Generator) EncodeNumber(n uint64) string {
	if n == 0 {
		return string(g.alphabet[0])
	}

	base := uint64(len(g.alphabet))
	var encoded []byte
	for n > 0 {
		encoded = append([]byte{g.alphabet[n%base]}, encoded...)
		n /= base
	}
	return string(encoded)
}

// DecodeString reverses EncodeNumber. It fails with ErrInvalidCharacter when
// the input contains a symbol outside the alphabet.
func (g *Generator) DecodeString(s string) (uint64, error) {
	base := uint64(len(g.alphabet))
	var n uint64
	for _, c := range []byte(s) {
		idx := strings.IndexByte(g.alphabet, c)
		if idx < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCharacter, string(c))
		}
		n = n*base + uint64(idx)
	}
	return n, nil
}

// IsValidShortCode reports whether code has an acceptable length and is made
// up entirely of alphabet symbols.
func (g *Generator) IsValidShortCode(code string) bool {
	if len(code) < minAliasLength || len(code) > maxAliasLength {
		return false
	}
	for _, c := range []byte(code) {
		if strings.IndexByte(g.alphabet, c) < 0 {
			return false
		}
	}
	return true
}

// IsValidCustomAlias reports whether alias is acceptable as a user-chosen
// short code: 3-50 characters, letters/digits/hyphens only, alphanumeric at
// both ends, and no consecutive hyphens.
func IsValidCustomAlias(alias string) bool {
	if len(alias) < minAliasLength || len(alias) > maxAliasLength {
		return false
	}
	if !aliasCharsPattern.MatchString(alias) {
		return false
	}
	if !aliasEdgesPattern.MatchString(alias) {
		return false
	}
	return !strings.Contains(alias, "--")
}

// SanitizeCustomAlias lowercases a raw alias and collapses anything invalid
// into single hyphens, trimming hyphens from the ends. The result may still
// be too short to pass IsValidCustomAlias; callers must re-validate.
func SanitizeCustomAlias(alias string) string {
	s := strings.ToLower(strings.TrimSpace(alias))
	s = sanitizeRunPattern.ReplaceAllString(s, "-")
	s = hyphenRunPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
