package aiprovider

import "regexp"

// secretPatterns are the credential shapes stripped from outgoing context
// strings before dispatch to a provider (spec.md §4.C: "providers MUST NOT
// echo credentials"). Adapted from the log-capture teacher's
// pkg/security/sanitizer.go compileBuiltInPatterns, narrowed to the
// API-key-shaped tokens an AI provider request might otherwise leak
// (Bearer/API-key headers, raw vendor key prefixes, generic key=value
// secrets) rather than the teacher's broader PII patterns, which do not
// apply to an outgoing LLM prompt.
var prefixedSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9\-._~+/]+=*)`),
	regexp.MustCompile(`(?i)(api[_-]?key\s*[=:]\s*)([a-zA-Z0-9\-._~+/]+)`),
	regexp.MustCompile(`(?i)(x-api-key\s*[=:]\s*)([a-zA-Z0-9\-._~+/]+)`),
	regexp.MustCompile(`(?i)(token\s*[=:]\s*)([a-zA-Z0-9\-._~+/]{16,})`),
	regexp.MustCompile(`(?i)(secret\s*[=:]\s*)([a-zA-Z0-9\-._~+/]{16,})`),
}

var bareSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsk-ant-[a-zA-Z0-9\-]{16,}\b`),
	regexp.MustCompile(`\bsk-[a-zA-Z0-9]{16,}\b`),
}

const redacted = "****"

// StripSecrets redacts common API-key-shaped substrings from s before it
// is embedded in a context string handed to an AI provider.
func StripSecrets(s string) string {
	for _, re := range prefixedSecretPatterns {
		s = re.ReplaceAllString(s, "$1"+redacted)
	}
	for _, re := range bareSecretPatterns {
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}
