package shortener

import (
	"errors"
	"strings"
	"testing"
)

const testAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	g := NewGenerator(testAlphabet, 7)

	for length := 6; length <= 10; length++ {
		code := g.Generate(length)
		if len(code) != length {
			t.Fatalf("expected length %d, got %d (%q)", length, len(code), code)
		}
		for _, c := range []byte(code) {
			if strings.IndexByte(testAlphabet, c) < 0 {
				t.Fatalf("code %q contains %q outside the alphabet", code, string(c))
			}
		}
	}

	if code := g.Generate(0); len(code) != 7 {
		t.Fatalf("expected default length 7, got %d", len(code))
	}
}

func TestGenerate_NotDeterministic(t *testing.T) {
	g := NewGenerator(testAlphabet, 8)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[g.Generate(8)] = true
	}
	// 50 draws from a ~218 trillion code space must not all collide.
	if len(seen) < 2 {
		t.Fatal("repeated Generate calls produced a fixed output")
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	g := NewGenerator(testAlphabet, 7)

	if got := g.EncodeNumber(0); got != string(testAlphabet[0]) {
		t.Fatalf("EncodeNumber(0) = %q, want %q", got, string(testAlphabet[0]))
	}

	for _, n := range []uint64{0, 1, 61, 62, 63, 12345, 987654321, 1<<40 + 7} {
		encoded := g.EncodeNumber(n)
		decoded, err := g.DecodeString(encoded)
		if err != nil {
			t.Fatalf("DecodeString(%q) returned error: %v", encoded, err)
		}
		if decoded != n {
			t.Fatalf("round trip of %d yielded %d (via %q)", n, decoded, encoded)
		}
	}
}

func TestDecodeString_InvalidCharacter(t *testing.T) {
	g := NewGenerator(testAlphabet, 7)

	if _, err := g.DecodeString("abc_def"); !errors.Is(err, ErrInvalidCharacter) {
		t.Fatalf("expected ErrInvalidCharacter, got %v", err)
	}
}

func TestIsValidShortCode(t *testing.T) {
	g := NewGenerator(testAlphabet, 7)

	if !g.IsValidShortCode("abc123") {
		t.Error("expected abc123 to be a valid short code")
	}
	if g.IsValidShortCode("ab") {
		t.Error("expected two characters to be too short")
	}
	if g.IsValidShortCode(strings.Repeat("a", 51)) {
		t.Error("expected 51 characters to be too long")
	}
	if g.IsValidShortCode("abc-def") {
		t.Error("hyphen is outside the generation alphabet")
	}
}

func TestIsValidCustomAlias(t *testing.T) {
	cases := []struct {
		alias string
		want  bool
	}{
		{"my-link", true},
		{"abc", true},
		{"A1-b2-C3", true},
		{"my-link_1", false}, // underscore
		{"-bad", false},      // leading hyphen
		{"bad-", false},      // trailing hyphen
		{"a--b", false},      // consecutive hyphens
		{"ab", false},        // too short
		{strings.Repeat("a", 51), false},
	}
	for _, tc := range cases {
		if got := IsValidCustomAlias(tc.alias); got != tc.want {
			t.Errorf("IsValidCustomAlias(%q) = %v, want %v", tc.alias, got, tc.want)
		}
	}
}

func TestSanitizeCustomAlias(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Link!", "my-link"},
		{"--hello--world--", "hello-world"},
		{"Already-ok", "already-ok"},
	}
	for _, tc := range cases {
		if got := SanitizeCustomAlias(tc.in); got != tc.want {
			t.Errorf("SanitizeCustomAlias(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
