package utils

import (
	"net/url"
	"strings"
)

// SafeRedirectTarget returns next when it is a local path, else fallback.
// Absolute URLs, scheme-relative "//host" targets and backslashes are rejected.
func SafeRedirectTarget(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// LoginURL builds the login redirect carrying the page to come back to.
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}
