// Package utils provides common utility functions.
package utils

import "net/http"

// Default request identity presented to the bulletin host.
const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; IME-Mirror/1.0)"
	DefaultReferer   = "https://www.justiciachaco.gov.ar/"
	DefaultAccept    = "text/plain,*/*;q=0.8"
)

// BulletinHeaders creates the fixed header set sent with every bulletin request.
// Custom headers are added after the defaults and replace them on key collision.
func BulletinHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", DefaultUserAgent)
	headers.Set("Referer", DefaultReferer)
	headers.Set("Accept", DefaultAccept)

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
