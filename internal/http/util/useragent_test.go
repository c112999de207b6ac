package util

import "testing"

const (
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	edgeUA    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	safariUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	operaUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 OPR/105.0.0.0"
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ipadUA    = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

func TestParseDeviceType(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{chromeUA, DeviceDesktop},
		{iphoneUA, DeviceMobile},
		{ipadUA, DeviceTablet},
		{"", DeviceUnknown},
	}
	for _, tc := range cases {
		if got := ParseDeviceType(tc.ua); got != tc.want {
			t.Errorf("ParseDeviceType(%q) = %q, want %q", tc.ua, got, tc.want)
		}
	}
}

func TestParseBrowser(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{chromeUA, "Chrome"},
		{edgeUA, "Edge"},
		{safariUA, "Safari"},
		{firefoxUA, "Firefox"},
		{operaUA, "Opera"},
		{"curl/8.4.0", "Unknown"},
		{"", "Unknown"},
	}
	for _, tc := range cases {
		if got := ParseBrowser(tc.ua); got != tc.want {
			t.Errorf("ParseBrowser(%q) = %q, want %q", tc.ua, got, tc.want)
		}
	}
}
