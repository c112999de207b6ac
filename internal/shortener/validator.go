package shortener

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// MaxURLLength is the longest destination URL accepted for shortening.
const MaxURLLength = 2048

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// IsValidURL reports whether candidate is an absolute http(s) URL with a
// non-empty host and an acceptable length.
func IsValidURL(candidate string) bool {
	if candidate == "" || len(candidate) > MaxURLLength {
		return false
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Hostname() != ""
}

// IsSafeURL rejects URLs whose host is localhost or sits in a private IPv4
// range, as a guard against shortening links into internal infrastructure.
//
// This is a literal prefix check on the hostname string. It does not resolve
// DNS, so a public hostname pointing at a private address slips through, and
// it does not recognise IPv4-mapped IPv6 or decimal/hex IP encodings.
func IsSafeURL(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())

	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return false
	}

	if strings.HasPrefix(host, "10.") || strings.HasPrefix(host, "192.168.") {
		return false
	}

	// 172.16.0.0/12, checked as its sixteen /16 blocks.
	for block := 16; block <= 31; block++ {
		if strings.HasPrefix(host, "172."+strconv.Itoa(block)+".") {
			return false
		}
	}

	return true
}

// NormalizeURL returns the canonical form of candidate: whitespace trimmed,
// https:// prepended when no scheme is present, and a single trailing slash
// stripped from a non-root path. If the candidate cannot be parsed the input
// is returned untouched; normalization never fails.
func NormalizeURL(candidate string) string {
	normalized := strings.TrimSpace(candidate)

	if !schemePattern.MatchString(normalized) {
		normalized = "https://" + normalized
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return candidate
	}

	if strings.HasSuffix(u.Path, "/") && len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}
