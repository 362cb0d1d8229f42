// Package enhancers implements the pure Pattern/Performance/Anomaly/
// Correlation analyzers of spec.md §4.D. Each analyzer is a pure function
// of its input slice: no AI provider calls, no storage access.
package enhancers

import "regexp"

// Canonicalization patterns for message signatures, grounded on the
// log-capture teacher's pkg/anomaly/extractors.go TextFeatureExtractor
// pattern list (IP/email/UUID/timestamp/number token families), narrowed
// to the four substitutions spec.md §4.D names.
var (
	uuidRe     = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	quotedRe   = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	hexAddrRe  = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)
	digitsRe   = regexp.MustCompile(`\d+(\.\d+)?`)
)

// Signature canonicalizes a message for grouping: digits become %d, UUIDs
// become %id, quoted strings become %s, and stack-frame-style hex
// addresses become %x.
func Signature(message string) string {
	s := uuidRe.ReplaceAllString(message, "%id")
	s = quotedRe.ReplaceAllString(s, "%s")
	s = hexAddrRe.ReplaceAllString(s, "%x")
	s = digitsRe.ReplaceAllString(s, "%d")
	return s
}
