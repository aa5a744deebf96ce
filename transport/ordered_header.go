package transport

import (
	"net/http"
)

// headerEntry stores a single header key/value pair with its original casing.
type headerEntry struct {
	key   string
	value string
}

// OrderedHeader is a drop-in companion to http.Header that preserves the
// exact capitalisation and insertion order of HTTP headers.
//
// Unlike http.Header (a map[string][]string, therefore unordered),
// OrderedHeader stores entries in a slice so iteration always returns them
// in the order they were added. This matters for fingerprinting: a server
// that profiles clients inspects both the casing (e.g. "sec-ch-ua-platform"
// vs "Sec-Ch-Ua-Platform") and the ordering of headers such as
// "accept-language", "sec-ch-ua-*", and "user-agent".
//
// OrderedHeader is NOT safe for concurrent use without external
// synchronisation; callers build one per request.
type OrderedHeader struct {
	entries []headerEntry
}

// NewOrderedHeader returns an empty OrderedHeader.
func NewOrderedHeader() *OrderedHeader {
	return &OrderedHeader{}
}

// Add appends key/value to the header list, preserving the exact casing of
// key. Multiple calls with the same key produce multiple entries
// (equivalent to http.Header.Add).
func (h *OrderedHeader) Add(key, value string) {
	h.entries = append(h.entries, headerEntry{key: key, value: value})
}

// Set replaces the first entry whose key matches key (case-insensitively)
// with the new value and removes any subsequent duplicates. If no entry
// with that key exists, Set behaves like Add.
func (h *OrderedHeader) Set(key, value string) {
	canonKey := http.CanonicalHeaderKey(key)
	replaced := false
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			if !replaced {
				out = append(out, headerEntry{key: key, value: value})
				replaced = true
			}
		} else {
			out = append(out, e)
		}
	}
	if !replaced {
		out = append(out, headerEntry{key: key, value: value})
	}
	h.entries = out
}

// Del removes all entries whose key matches key (case-insensitively).
func (h *OrderedHeader) Del(key string) {
	canonKey := http.CanonicalHeaderKey(key)
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) != canonKey {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Get returns the value of the first entry whose key matches key
// (case-insensitively), or an empty string if no such entry exists.
func (h *OrderedHeader) Get(key string) string {
	canonKey := http.CanonicalHeaderKey(key)
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			return e.value
		}
	}
	return ""
}

// Keys returns the ordered, de-duplicated list of header names as added.
func (h *OrderedHeader) Keys() []string {
	seen := make(map[string]bool, len(h.entries))
	out := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		canon := http.CanonicalHeaderKey(e.key)
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, e.key)
	}
	return out
}

// Len returns the number of header entries (including duplicates).
func (h *OrderedHeader) Len() int { return len(h.entries) }

// Clone returns a shallow copy of the receiver.
func (h *OrderedHeader) Clone() *OrderedHeader {
	c := &OrderedHeader{entries: make([]headerEntry, len(h.entries))}
	copy(c.entries, h.entries)
	return c
}

// Merge appends every entry of other onto h. Used to overlay caller-supplied
// headers on top of a profile's defaults; callers that want override rather
// than duplication should Del the key first.
func (h *OrderedHeader) Merge(other *OrderedHeader) {
	h.entries = append(h.entries, other.entries...)
}

// ApplyToRequest writes every entry in h into req.Header, preserving the
// exact key casing and insertion order by bypassing net/http's canonical-key
// normalisation and writing directly into the underlying map. This works
// for both HTTP/1.1 and the http2 transport (which still uses the key
// string supplied here when building its HPACK encoder).
//
// Any headers already present in req.Header are replaced, not merged.
func (h *OrderedHeader) ApplyToRequest(req *http.Request) {
	req.Header = make(http.Header, len(h.entries))
	for _, e := range h.entries {
		req.Header[e.key] = append(req.Header[e.key], e.value)
	}
}

// ToHTTPHeader converts the OrderedHeader to a standard http.Header map.
// Insertion order is NOT preserved in the resulting map (maps are
// unordered), but the exact key casing IS preserved because the raw key is
// used as the map key rather than http.CanonicalHeaderKey(key).
func (h *OrderedHeader) ToHTTPHeader() http.Header {
	out := make(http.Header, len(h.entries))
	for _, e := range h.entries {
		out[e.key] = append(out[e.key], e.value)
	}
	return out
}
