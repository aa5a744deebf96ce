// Package cookiejar implements an in-memory, domain/path/secure-aware
// cookie store independent of any particular transport.
package cookiejar

import (
	"strings"
	"time"
)

// Cookie is a single stored cookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string // defaults to "/"
	Expires  *time.Time
	Secure   bool
	HTTPOnly bool
}

// IsExpired reports whether the cookie's Expires time has passed. A nil
// Expires means a session cookie, which never expires on its own.
func (c Cookie) IsExpired() bool {
	if c.Expires == nil {
		return false
	}
	return time.Now().After(*c.Expires)
}

// MatchesDomain reports whether domain (a request host, already
// lowercased) is covered by the cookie's domain attribute: exact match,
// leading-dot suffix match, or strict subdomain.
func (c Cookie) MatchesDomain(domain string) bool {
	domain = strings.ToLower(domain)
	cookieDomain := strings.ToLower(c.Domain)

	if domain == cookieDomain {
		return true
	}
	if strings.HasPrefix(cookieDomain, ".") {
		return strings.HasSuffix(domain, cookieDomain) || domain == cookieDomain[1:]
	}
	return strings.HasSuffix(domain, "."+cookieDomain)
}

// MatchesPath reports whether path is covered by the cookie's path:
// "/" matches everything; otherwise it's a prefix match.
func (c Cookie) MatchesPath(path string) bool {
	if c.Path == "" || c.Path == "/" {
		return true
	}
	return strings.HasPrefix(path, c.Path)
}
