package normalizer

import (
	"net/url"
	"strings"

	"github.com/aleister1102/pagewatch/internal/common"
)

// NormalizeURL validates a tracked-page URL and returns its canonical form.
// Normalization includes:
// - Requiring an absolute http(s) URL with a host.
// - Lowercasing the scheme and host.
// - Removing the fragment.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", &common.InvalidURLError{URL: rawURL, Reason: "empty"}
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", &common.InvalidURLError{URL: rawURL, Reason: err.Error()}
	}
	if !parsedURL.IsAbs() {
		return "", &common.InvalidURLError{URL: rawURL, Reason: "not absolute"}
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", &common.InvalidURLError{URL: rawURL, Reason: "unsupported scheme " + parsedURL.Scheme}
	}
	if parsedURL.Host == "" {
		return "", &common.InvalidURLError{URL: rawURL, Reason: "missing host"}
	}

	parsedURL.Host = strings.ToLower(parsedURL.Host)
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""

	return parsedURL.String(), nil
}
