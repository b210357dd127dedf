package fetch

import "fmt"

// HTTPStatusError reports a response with any status other than 200 OK.
// The response is treated as a complete failure: nothing is returned,
// nothing is cached. A crawl driver uses the code to decide whether the
// URL should be disallowed for the rest of the run.
type HTTPStatusError struct {
	// URL is the request URL.
	URL string

	// Code is the HTTP status code received.
	Code int
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected HTTP status %d", e.URL, e.Code)
}

// BannedError reports that a page was recognized as a ban or block page
// by the configured predicate. By the time this error is returned, any
// cache record for the URL has been evicted, so the ban page can never
// serve from cache.
type BannedError struct {
	// URL is the URL whose content was recognized as a ban page.
	URL string
}

// Error implements the error interface.
func (e *BannedError) Error() string {
	return fmt.Sprintf("fetch %s: remote host served a ban page", e.URL)
}
