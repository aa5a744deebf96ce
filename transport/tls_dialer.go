package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"

	utls "github.com/refraction-networking/utls"
)

// UTLSDialer returns a DialTLSContext-compatible function that performs the
// TLS handshake using the uTLS library, impersonating the browser
// fingerprint described by helloID.
//
// The returned dialer is safe for concurrent use and wires directly into an
// http.Transport.DialTLSContext or an http2.Transport.DialTLSContext field.
// It applies the full ClientHelloSpec associated with helloID, including
// GREASE values, cipher-suite ordering, and extension ordering, so the
// resulting fingerprint matches the impersonated client.
//
// tlsCfg may be nil; if provided, its ServerName is used as the SNI
// hostname (the dialer also derives SNI from the addr argument when
// tlsCfg.ServerName is empty).
func UTLSDialer(helloID utls.ClientHelloID) func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
	return utlsDialerVia(helloID, nil)
}

// UTLSDialerViaProxy is identical to UTLSDialer except the raw TCP
// connection is tunnelled through proxyURL via HTTP CONNECT before the uTLS
// handshake begins. proxyURL must use the "http" or "https" scheme.
func UTLSDialerViaProxy(helloID utls.ClientHelloID, proxyURL *url.URL) func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
	return utlsDialerVia(helloID, proxyURL)
}

func utlsDialerVia(helloID utls.ClientHelloID, proxyURL *url.URL) func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
	return func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("utls dialer: parse addr %q: %w", addr, err)
		}
		sni := host
		if tlsCfg != nil && tlsCfg.ServerName != "" {
			sni = tlsCfg.ServerName
		}

		var rawConn net.Conn
		if proxyURL != nil {
			rawConn, err = dialViaHTTPProxy(ctx, proxyURL, addr)
		} else {
			var d net.Dialer
			rawConn, err = d.DialContext(ctx, network, addr)
		}
		if err != nil {
			return nil, fmt.Errorf("utls dialer: dial %s: %w", addr, err)
		}

		uCfg := &utls.Config{
			ServerName:         sni,
			InsecureSkipVerify: tlsCfg != nil && tlsCfg.InsecureSkipVerify, // #nosec G402 -- caller-controlled
		}

		uConn := utls.UClient(rawConn, uCfg, helloID)

		spec := buildClientHelloSpec(helloID)
		if err := uConn.ApplyPreset(&spec); err != nil {
			_ = rawConn.Close()
			return nil, fmt.Errorf("utls dialer: apply preset for %s: %w", helloID.Str(), err)
		}

		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = uConn.Close()
			return nil, fmt.Errorf("utls dialer: TLS handshake with %s: %w", addr, err)
		}

		return uConn, nil
	}
}

// UTLSDialerHTTP1 is identical to UTLSDialer but returns a function whose
// signature matches http.Transport.DialTLSContext, which does not receive a
// *tls.Config argument (SNI is derived solely from addr). Use this when
// wiring uTLS into an http.Transport; use UTLSDialer for
// golang.org/x/net/http2.Transport.
func UTLSDialerHTTP1(helloID utls.ClientHelloID) func(ctx context.Context, network, addr string) (net.Conn, error) {
	inner := UTLSDialer(helloID)
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return inner(ctx, network, addr, nil)
	}
}

// buildClientHelloSpec returns the ClientHelloSpec for the given helloID,
// falling back to the uTLS default spec for IDs the parrot table doesn't
// recognize so callers can still pass arbitrary IDs without error.
func buildClientHelloSpec(helloID utls.ClientHelloID) utls.ClientHelloSpec {
	spec, err := utls.UTLSIdToSpec(helloID)
	if err == nil {
		return spec
	}
	return utls.ClientHelloSpec{}
}
