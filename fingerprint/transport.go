package fingerprint

import (
	"time"

	"github.com/firasghr/stealthscraper/transport"
)

// StealthConfig translates this profile's TLS identity and HTTP/2 SETTINGS
// into a transport.StealthConfig, so scraper.Client can build a
// transport.StealthTransport without transport needing to know what a
// Profile is.
func (p Profile) StealthConfig(idleConnTimeout, timeout time.Duration) transport.StealthConfig {
	return transport.StealthConfig{
		HelloID:         p.HelloID,
		HeaderTableSize: p.H2HeaderTable,
		InitialWindow:   p.H2InitialWindow,
		ConnWindow:      p.H2ConnWindow,
		MaxHeaderList:   p.H2MaxHeaderList,
		IdleConnTimeout: idleConnTimeout,
		Timeout:         timeout,
	}
}
