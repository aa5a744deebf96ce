package fingerprint

// MinimalHeaders is the lean header set applied in speed mode, where no
// stealth fingerprinting is wanted: just enough to look like a well-formed
// HTTP client rather than a bare Go program.
var MinimalHeaders = map[string]string{
	"User-Agent":      "Go-stealthscraper/1.0",
	"Accept":          "*/*",
	"Accept-Encoding": "gzip, deflate",
	"Connection":      "keep-alive",
}

// APIHeaders is a convenience preset for JSON API calls.
var APIHeaders = map[string]string{
	"Accept":          "application/json",
	"Accept-Encoding": "gzip, deflate",
	"Content-Type":    "application/json",
}
