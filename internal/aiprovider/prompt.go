package aiprovider

import (
	"fmt"
	"strings"

	"github.com/loglens/loglens/pkg/types"
)

// maxPromptEntries bounds how many log lines are embedded directly in the
// outgoing prompt; the slimmer already bounds the entry count upstream,
// this is a second, provider-side ceiling against runaway prompt cost.
const maxPromptEntries = 500

// buildPrompt renders a sanitized AnalysisRequest into the free-text
// prompt body shared by every chat-style provider. Concrete providers wrap
// this in their own wire envelope (messages array, system/user split,
// etc).
func buildPrompt(req types.AnalysisRequest) string {
	var b strings.Builder
	b.WriteString("You are analyzing application log entries. Identify issues, their category, and actionable recommendations.\n\n")

	if req.Focus != "" {
		fmt.Fprintf(&b, "Focus area: %s\n", req.Focus)
	}
	if req.UserContext != "" {
		fmt.Fprintf(&b, "Context: %s\n", req.UserContext)
	}
	fmt.Fprintf(&b, "Minimum severity: %s\n\n", req.Threshold)

	n := len(req.Entries)
	if n > maxPromptEntries {
		n = maxPromptEntries
	}
	for _, e := range req.Entries[:n] {
		fmt.Fprintf(&b, "[%s] %s: %s\n", e.Timestamp, e.Severity, e.Message)
	}
	if len(req.Entries) > n {
		fmt.Fprintf(&b, "... (%d additional entries omitted)\n", len(req.Entries)-n)
	}
	return b.String()
}
