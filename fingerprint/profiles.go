// Package fingerprint supplies the browser-impersonation data (TLS
// ClientHello identity, HTTP/2 SETTINGS, header ordering, UA strings) that
// the transport and header-generation layers consume to make requests look
// like they came from a real browser.
package fingerprint

import (
	"fmt"
	"sort"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// Profile is a single browser identity: its TLS ClientHello, its
// HTTP/2 SETTINGS, its header order, and its default header values.
type Profile struct {
	Name             string
	HelloID          utls.ClientHelloID
	UserAgent        string
	HeaderOrder      []string // case-insensitive, in transmission order
	Accept           string
	AcceptLanguage   string
	AcceptEncoding   string
	SecChUA          string
	SecChUAMobile    string
	SecChUAPlatform  string
	H2HeaderTable    uint32
	H2InitialWindow  int32
	H2ConnWindow     int32
	H2MaxHeaderList  uint32
}

// DefaultHeaders returns this profile's baseline header set, including
// Sec-CH-UA-* only when the profile defines them (Firefox/Safari don't).
func (p Profile) DefaultHeaders() map[string]string {
	h := map[string]string{
		"User-Agent":      p.UserAgent,
		"Accept":          p.Accept,
		"Accept-Language": p.AcceptLanguage,
		"Accept-Encoding": p.AcceptEncoding,
	}
	if p.SecChUA != "" {
		h["Sec-CH-UA"] = p.SecChUA
		h["Sec-CH-UA-Mobile"] = p.SecChUAMobile
		h["Sec-CH-UA-Platform"] = p.SecChUAPlatform
	}
	return h
}

const chromeH2HeaderTable uint32 = 65536
const chromeH2InitialWindow int32 = 6291456
const chromeH2ConnWindow int32 = 15663105
const chromeH2MaxHeaderList uint32 = 262144

var chromeHeaderOrder = []string{
	"Host", "Connection", "sec-ch-ua", "sec-ch-ua-mobile", "sec-ch-ua-platform",
	"Upgrade-Insecure-Requests", "User-Agent", "Accept", "Sec-Fetch-Site",
	"Sec-Fetch-Mode", "Sec-Fetch-User", "Sec-Fetch-Dest", "Referer",
	"Accept-Encoding", "Accept-Language", "Cookie",
}

var firefoxHeaderOrder = []string{
	"Host", "User-Agent", "Accept", "Accept-Language", "Accept-Encoding",
	"Connection", "Referer", "Cookie", "Upgrade-Insecure-Requests",
	"Sec-Fetch-Dest", "Sec-Fetch-Mode", "Sec-Fetch-Site", "Sec-Fetch-User",
}

var safariHeaderOrder = []string{
	"Host", "Accept", "Sec-Fetch-Site", "Accept-Language", "Sec-Fetch-Mode",
	"Accept-Encoding", "Sec-Fetch-Dest", "User-Agent", "Referer", "Connection", "Cookie",
}

const defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
const firefoxAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
const safariAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
const defaultAcceptLanguage = "en-US,en;q=0.9"
const defaultAcceptEncoding = "gzip, deflate, br"

var chrome120 = Profile{
	Name: "chrome_120", HelloID: utls.HelloChrome_120,
	UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	HeaderOrder:     chromeHeaderOrder,
	Accept:          defaultAccept,
	AcceptLanguage:  defaultAcceptLanguage,
	AcceptEncoding:  defaultAcceptEncoding,
	SecChUA:         `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
	SecChUAMobile:   "?0",
	SecChUAPlatform: `"Windows"`,
	H2HeaderTable:   chromeH2HeaderTable, H2InitialWindow: chromeH2InitialWindow,
	H2ConnWindow: chromeH2ConnWindow, H2MaxHeaderList: chromeH2MaxHeaderList,
}

var chrome119 = Profile{
	Name: "chrome_119", HelloID: utls.HelloChrome_120, // nearest parrot available
	UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	HeaderOrder:     chromeHeaderOrder,
	Accept:          defaultAccept,
	AcceptLanguage:  defaultAcceptLanguage,
	AcceptEncoding:  defaultAcceptEncoding,
	SecChUA:         `"Google Chrome";v="119", "Chromium";v="119", "Not?A_Brand";v="24"`,
	SecChUAMobile:   "?0",
	SecChUAPlatform: `"Windows"`,
	H2HeaderTable:   chromeH2HeaderTable, H2InitialWindow: chromeH2InitialWindow,
	H2ConnWindow: chromeH2ConnWindow, H2MaxHeaderList: chromeH2MaxHeaderList,
}

var chrome118 = Profile{
	Name: "chrome_118", HelloID: utls.HelloChrome_106_Shuffle, // nearest parrot available
	UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	HeaderOrder:     chromeHeaderOrder,
	Accept:          defaultAccept,
	AcceptLanguage:  defaultAcceptLanguage,
	AcceptEncoding:  defaultAcceptEncoding,
	SecChUA:         `"Chromium";v="118", "Google Chrome";v="118", "Not=A?Brand";v="99"`,
	SecChUAMobile:   "?0",
	SecChUAPlatform: `"Windows"`,
	H2HeaderTable:   chromeH2HeaderTable, H2InitialWindow: chromeH2InitialWindow,
	H2ConnWindow: chromeH2ConnWindow, H2MaxHeaderList: chromeH2MaxHeaderList,
}

var firefox121 = Profile{
	Name: "firefox_121", HelloID: utls.HelloFirefox_120, // nearest parrot available
	UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	HeaderOrder:    firefoxHeaderOrder,
	Accept:         firefoxAccept,
	AcceptLanguage: defaultAcceptLanguage,
	AcceptEncoding: defaultAcceptEncoding,
	H2HeaderTable:  4096, H2InitialWindow: 131072, H2ConnWindow: 12517377, H2MaxHeaderList: 0,
}

var firefox120 = Profile{
	Name: "firefox_120", HelloID: utls.HelloFirefox_120,
	UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	HeaderOrder:    firefoxHeaderOrder,
	Accept:         firefoxAccept,
	AcceptLanguage: defaultAcceptLanguage,
	AcceptEncoding: defaultAcceptEncoding,
	H2HeaderTable:  4096, H2InitialWindow: 131072, H2ConnWindow: 12517377, H2MaxHeaderList: 0,
}

var firefox117 = Profile{
	Name: "firefox_117", HelloID: utls.HelloFirefox_102, // nearest parrot available
	UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:117.0) Gecko/20100101 Firefox/117.0",
	HeaderOrder:    firefoxHeaderOrder,
	Accept:         firefoxAccept,
	AcceptLanguage: defaultAcceptLanguage,
	AcceptEncoding: defaultAcceptEncoding,
	H2HeaderTable:  4096, H2InitialWindow: 131072, H2ConnWindow: 12517377, H2MaxHeaderList: 0,
}

var safari17 = Profile{
	Name: "safari_17", HelloID: utls.HelloSafari_16_0, // nearest parrot available
	UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	HeaderOrder:    safariHeaderOrder,
	Accept:         safariAccept,
	AcceptLanguage: defaultAcceptLanguage,
	AcceptEncoding: defaultAcceptEncoding,
	H2HeaderTable:  4096, H2InitialWindow: 2097152, H2ConnWindow: 10485760, H2MaxHeaderList: 0,
}

var safari16 = Profile{
	Name: "safari_16", HelloID: utls.HelloSafari_16_0,
	UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
	HeaderOrder:    safariHeaderOrder,
	Accept:         safariAccept,
	AcceptLanguage: defaultAcceptLanguage,
	AcceptEncoding: defaultAcceptEncoding,
	H2HeaderTable:  4096, H2InitialWindow: 2097152, H2ConnWindow: 10485760, H2MaxHeaderList: 0,
}

var safari15 = Profile{
	Name: "safari_15", HelloID: utls.HelloSafari_16_0, // nearest parrot available
	UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 12_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.6 Safari/605.1.15",
	HeaderOrder:    safariHeaderOrder,
	Accept:         safariAccept,
	AcceptLanguage: defaultAcceptLanguage,
	AcceptEncoding: defaultAcceptEncoding,
	H2HeaderTable:  4096, H2InitialWindow: 2097152, H2ConnWindow: 10485760, H2MaxHeaderList: 0,
}

var edge120 = Profile{
	Name: "edge_120", HelloID: utls.HelloChrome_120,
	UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	HeaderOrder:     chromeHeaderOrder,
	Accept:          defaultAccept,
	AcceptLanguage:  defaultAcceptLanguage,
	AcceptEncoding:  defaultAcceptEncoding,
	SecChUA:         `"Not_A Brand";v="8", "Chromium";v="120", "Microsoft Edge";v="120"`,
	SecChUAMobile:   "?0",
	SecChUAPlatform: `"Windows"`,
	H2HeaderTable:   chromeH2HeaderTable, H2InitialWindow: chromeH2InitialWindow,
	H2ConnWindow: chromeH2ConnWindow, H2MaxHeaderList: chromeH2MaxHeaderList,
}

var edge119 = Profile{
	Name: "edge_119", HelloID: utls.HelloChrome_120, // nearest parrot available
	UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 Edg/119.0.0.0",
	HeaderOrder:     chromeHeaderOrder,
	Accept:          defaultAccept,
	AcceptLanguage:  defaultAcceptLanguage,
	AcceptEncoding:  defaultAcceptEncoding,
	SecChUA:         `"Microsoft Edge";v="119", "Chromium";v="119", "Not?A_Brand";v="24"`,
	SecChUAMobile:   "?0",
	SecChUAPlatform: `"Windows"`,
	H2HeaderTable:   chromeH2HeaderTable, H2InitialWindow: chromeH2InitialWindow,
	H2ConnWindow: chromeH2ConnWindow, H2MaxHeaderList: chromeH2MaxHeaderList,
}

// catalog is the full profile registry, keyed by lowercase name.
var catalog = map[string]Profile{
	"chrome_120": chrome120, "chrome_119": chrome119, "chrome_118": chrome118,
	"firefox_121": firefox121, "firefox_120": firefox120, "firefox_117": firefox117,
	"safari_17": safari17, "safari_16": safari16, "safari_15": safari15,
	"edge_120": edge120, "edge_119": edge119,
}

// DefaultProfileName is returned by GetProfile when called with an empty name.
const DefaultProfileName = "chrome_120"

// UnknownProfileError reports a lookup for a profile name not in the catalog.
type UnknownProfileError struct {
	Name      string
	Available []string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("fingerprint: unknown profile %q, available: %s", e.Name, strings.Join(e.Available, ", "))
}

// GetProfile looks up a profile by name, case-insensitively. An empty name
// returns the default profile. An unrecognized name fails loudly rather
// than silently falling back, since a caller who asked to impersonate
// Safari should never silently get Chrome.
func GetProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	key := strings.ToLower(name)
	p, ok := catalog[key]
	if !ok {
		return Profile{}, &UnknownProfileError{Name: name, Available: ListProfiles()}
	}
	return p, nil
}

// ListProfiles returns every known profile name, sorted.
func ListProfiles() []string {
	names := make([]string, 0, len(catalog))
	for k := range catalog {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
