package sitemapper

import (
	"net/url"
	"strings"
)

// IsHTTPURL reports whether raw is an absolute HTTP or HTTPS URL with a
// host component.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// StripToHomepage reduces a URL to its origin (scheme and host with a
// trailing slash), dropping path, query and fragment.
func StripToHomepage(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", &ValidationError{URL: raw, Reason: err.Error()}
	}
	if !IsHTTPURL(raw) {
		return "", &ValidationError{URL: raw, Reason: "not an absolute HTTP(S) URL"}
	}
	origin := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	return origin.String(), nil
}
