package utils

import (
	"net/url"
	"strings"

	"github.com/gosimple/slug"
)

const maxSlugLen = 140

// Sluggify turns a title into a lower-cased, filesystem-safe slug capped
// at 140 chars. Deterministic: the same title always yields the same slug.
func Sluggify(name string) string {
	s := slug.Make(name)
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	return s
}

// ParseTagString splits a user-supplied comma list ("Go, web ,  cloud")
// into slugged tags. Empty entries are dropped.
func ParseTagString(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		t := Sluggify(strings.TrimSpace(part))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// CleanDomain normalizes a user-entered domain to a bare hostname.
// "HTTP://Foo.Example/x" -> "foo.example". Returns "" if nothing usable.
func CleanDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	// hostnames never need more than letters, digits, dots and dashes
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".-")
}
