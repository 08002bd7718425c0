package tenant

import "strings"

// NormalizeHost lowercases a Host header value and strips the port, a
// trailing dot and any leading "www." labels. Applying it twice yields
// the same result as applying it once.
func NormalizeHost(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(h, "["):
		if end := strings.IndexByte(h, ']'); end > 0 {
			h = h[1:end]
		}
	case strings.Count(h, ":") == 1:
		h = h[:strings.IndexByte(h, ':')]
	}

	h = strings.TrimRight(h, ".")
	for strings.HasPrefix(h, "www.") {
		h = strings.TrimPrefix(h, "www.")
	}
	return h
}

// FirstHost returns the first entry of a comma separated X-Forwarded-Host value.
func FirstHost(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
