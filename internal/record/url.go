package record

import (
	"fmt"
	"net/url"
	"strings"
)

// CleanURL parses raw, drops any user info and lower-cases the host.
// It returns the cleaned URL and its lower-cased scheme.
func CleanURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" {
		return "", "", fmt.Errorf("parse url: %q is not absolute", raw)
	}

	u.User = nil
	u.Host = strings.ToLower(u.Host)
	return u.String(), strings.ToLower(u.Scheme), nil
}

// Domain returns the hostname of rawURL, or "" if it cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
