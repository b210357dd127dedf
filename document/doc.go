// Package document wraps lenient HTML parsing and link handling.
//
// Pages on the open web are routinely malformed, so parsing goes through
// golang.org/x/net/html, which repairs broken markup instead of
// rejecting it. The parsed tree is exposed through goquery for CSS
// selector queries, and every document stays bound to the URL it was
// fetched from so relative links can be made absolute before the page is
// cached or handed to crawl handlers.
package document
