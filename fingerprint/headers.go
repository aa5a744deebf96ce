package fingerprint

import (
	"net/url"
	"sort"
	"strings"

	"github.com/firasghr/stealthscraper/transport"
)

// multiLevelTLDs mirrors the hardcoded eTLD+1 heuristic: common multi-part
// TLDs that a naive "last two labels" split would get wrong.
var multiLevelTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "gov.uk": true, "ac.uk": true,
	"com.au": true, "org.au": true, "gov.au": true, "edu.au": true,
	"co.nz": true, "org.nz": true, "gov.nz": true,
	"co.jp": true, "or.jp": true, "ne.jp": true,
	"com.br": true, "org.br": true, "gov.br": true,
	"co.in": true, "org.in": true, "gov.in": true,
	"com.cn": true, "org.cn": true, "gov.cn": true,
}

func registrableDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	for tld := range multiLevelTLDs {
		if host == tld || strings.HasSuffix(host, "."+tld) {
			tldParts := strings.Split(tld, ".")
			if len(parts) > len(tldParts) {
				return strings.Join(parts[len(parts)-(len(tldParts)+1):], ".")
			}
			return host
		}
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

func isSameSite(host1, host2 string) bool {
	if host1 == "" || host2 == "" {
		return false
	}
	host1 = strings.ToLower(strings.Split(host1, ":")[0])
	host2 = strings.ToLower(strings.Split(host2, ":")[0])
	if host1 == host2 {
		return true
	}
	return registrableDomain(host1) == registrableDomain(host2)
}

// HeaderComposer builds ordered, fingerprint-consistent header sets for a
// profile, tracking a referer chain across successive requests so
// Sec-Fetch-Site can be derived the way a real browser navigation would
// produce it.
type HeaderComposer struct {
	profile     Profile
	lastReferer string
}

// NewHeaderComposer returns a composer bound to profile with an empty
// referer chain.
func NewHeaderComposer(profile Profile) *HeaderComposer {
	return &HeaderComposer{profile: profile}
}

// Profile returns the bound profile.
func (c *HeaderComposer) Profile() Profile { return c.profile }

// ComposeOptions customizes one call to Compose.
type ComposeOptions struct {
	Method          string
	CustomHeaders   map[string]string // always win over generated values
	IncludeSecFetch bool
	Referer         string // explicit referer; overrides the tracked chain
}

// headerSet accumulates name/value pairs while recording the order names
// are first introduced. Compose builds directly into one of these instead
// of merging successive stages through a bare map, so a name with no slot
// in the profile's header order still carries real positional information
// instead of being reduced to an arbitrary map iteration.
type headerSet struct {
	values map[string]string
	order  []string
}

func newHeaderSet() *headerSet {
	return &headerSet{values: make(map[string]string)}
}

func (s *headerSet) set(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.order = append(s.order, name)
	}
	s.values[name] = value
}

// setFrom merges a caller- or profile-provided map into the set. The map
// itself carries no order, so names introduced by a single setFrom call
// fall back to alphabetical order among themselves, but that group as a
// whole still lands after everything set before it and before anything
// set after it.
func (s *headerSet) setFrom(m map[string]string) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		s.set(k, m[k])
	}
}

// Compose builds the ordered header set for a request to targetURL,
// folding in the profile defaults, Sec-Fetch-* derivation, referer, and
// any caller-supplied overrides, then returns them as an OrderedHeader
// sequenced per the profile's header order (unlisted headers are appended
// afterward, in the order Compose introduced them).
func (c *HeaderComposer) Compose(targetURL string, opts ComposeOptions) *transport.OrderedHeader {
	if opts.Method == "" {
		opts.Method = "GET"
	}

	headers := newHeaderSet()
	headers.setFrom(c.profile.DefaultHeaders())

	if opts.IncludeSecFetch {
		headers.setFrom(c.generateSecFetch(targetURL, opts.Method))
	}

	referer := opts.Referer
	if referer == "" {
		referer = c.lastReferer
	}
	if referer != "" {
		headers.set("Referer", referer)
	}

	headers.setFrom(opts.CustomHeaders)

	ordered := c.orderHeaders(headers)
	c.lastReferer = targetURL
	return ordered
}

func (c *HeaderComposer) generateSecFetch(targetURL, method string) map[string]string {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return map[string]string{
			"Sec-Fetch-Site": "cross-site",
			"Sec-Fetch-Mode": "navigate",
			"Sec-Fetch-Dest": "document",
		}
	}

	site := "none"
	if c.lastReferer != "" {
		if lastParsed, err := url.Parse(c.lastReferer); err == nil && lastParsed.Host != "" && parsed.Host != "" {
			switch {
			case lastParsed.Host == parsed.Host:
				site = "same-origin"
			case isSameSite(lastParsed.Host, parsed.Host):
				site = "same-site"
			default:
				site = "cross-site"
			}
		} else {
			site = "cross-site"
		}
	}

	headers := map[string]string{
		"Sec-Fetch-Site": site,
		"Sec-Fetch-Mode": "navigate",
		"Sec-Fetch-Dest": "document",
	}
	if strings.EqualFold(method, "GET") {
		headers["Sec-Fetch-User"] = "?1"
	}
	return headers
}

// orderHeaders sequences headers per the profile's header order, appending
// any headers not named there afterward in the order Compose introduced
// them.
func (c *HeaderComposer) orderHeaders(headers *headerSet) *transport.OrderedHeader {
	out := transport.NewOrderedHeader()
	used := make(map[string]bool, len(headers.order))

	for _, name := range c.profile.HeaderOrder {
		for k, v := range headers.values {
			if used[k] {
				continue
			}
			if strings.EqualFold(k, name) {
				out.Add(k, v)
				used[k] = true
				break
			}
		}
	}

	for _, k := range headers.order {
		if used[k] {
			continue
		}
		out.Add(k, headers.values[k])
		used[k] = true
	}

	return out
}

// ResetRefererChain clears the tracked referer, as if starting a fresh
// navigation with no prior page.
func (c *HeaderComposer) ResetRefererChain() {
	c.lastReferer = ""
}

// SetReferer manually pins the referer the next Compose call will use.
func (c *HeaderComposer) SetReferer(refererURL string) {
	c.lastReferer = refererURL
}
