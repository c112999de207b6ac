package shortener

import (
	"strconv"
	"strings"
	"testing"
)

func TestIsValidURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"https://sub.example.co.uk/a/b",
	}
	for _, u := range valid {
		if !IsValidURL(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}

	invalid := []string{
		"",
		"not a url",
		"ftp://example.com",
		"https://",
		"example.com",
		"https://example.com/" + strings.Repeat("a", MaxURLLength),
	}
	for _, u := range invalid {
		if IsValidURL(u) {
			t.Errorf("expected %q to be invalid", u)
		}
	}
}

func TestIsSafeURL_BlocksPrivateHosts(t *testing.T) {
	blocked := []string{
		"http://localhost/admin",
		"http://LOCALHOST/admin",
		"http://127.0.0.1:8080",
		"http://[::1]/",
		"http://10.0.0.5/internal",
		"http://192.168.1.1/admin",
	}
	for block := 16; block <= 31; block++ {
		blocked = append(blocked, "http://172."+strconv.Itoa(block)+".0.1/")
	}
	for _, u := range blocked {
		if IsSafeURL(u) {
			t.Errorf("expected %q to be unsafe", u)
		}
	}

	safe := []string{
		"https://example.com",
		"http://172.15.0.1/",  // below the /12
		"http://172.32.0.1/",  // above the /12
		"https://8.8.8.8/dns", // public address
	}
	for _, u := range safe {
		if !IsSafeURL(u) {
			t.Errorf("expected %q to be safe", u)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com/a/b/", "https://example.com/a/b"},
		{"  https://example.com  ", "https://example.com"},
		{"example.com/path", "https://example.com/path"},
		{"https://example.com/", "https://example.com/"},
		{"HTTP://example.com/x/", "http://example.com/x"},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/a/b/",
		"example.com",
		"https://example.com/?q=1",
		"sub.example.com/deep/path/",
	}
	for _, in := range inputs {
		once := NormalizeURL(in)
		twice := NormalizeURL(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
