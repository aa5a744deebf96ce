package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// stealthH2Settings groups the HTTP/2 SETTINGS values a stealth transport
// sends. Different browsers advertise different values here; the caller
// (the fingerprint catalog) supplies the set to impersonate.
type stealthH2Settings struct {
	HeaderTableSize   uint32
	InitialWindowSize int32
	ConnWindowSize    int32
	MaxHeaderListSize uint32
}

// defaultH2Settings mirrors a contemporary Chrome client: these are used
// whenever a profile doesn't specify its own H2Settings.
var defaultH2Settings = stealthH2Settings{
	HeaderTableSize:   65536,
	InitialWindowSize: 6291456,
	ConnWindowSize:    15663105,
	MaxHeaderListSize: 262144,
}

// newStealthH2Transport builds an http.RoundTripper that dials with uTLS
// (impersonating helloID) and negotiates HTTP/2. Of the given settings only
// HeaderTableSize and MaxHeaderListSize are applied; InitialWindowSize and
// ConnWindowSize are not passed to the http2.Transport, which keeps its own
// flow-control windows. If
// proxyURL is non-nil, the raw connection is tunnelled through it via HTTP
// CONNECT before the uTLS handshake.
func newStealthH2Transport(helloID utls.ClientHelloID, settings stealthH2Settings, idleConnTimeout time.Duration, proxyURL *url.URL) http.RoundTripper {
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}
	dialFn := utlsDialerVia(helloID, proxyURL)

	h2t := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
			return dialFn(ctx, network, addr, tlsCfg)
		},
		MaxDecoderHeaderTableSize: settings.HeaderTableSize,
		MaxEncoderHeaderTableSize: settings.HeaderTableSize,
		MaxHeaderListSize:         settings.MaxHeaderListSize,
		DisableCompression:        false,
		IdleConnTimeout:           idleConnTimeout,
	}

	return h2t
}
