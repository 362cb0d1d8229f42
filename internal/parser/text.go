package parser

import (
	"regexp"
	"strings"

	"github.com/loglens/loglens/pkg/types"
)

// textParser implements the default Text recognition mode: first match wins
// among (a) a "[LEVEL] ..." prefix, (b) an ISO-8601 timestamp followed by a
// level token, (c) a level token anywhere in the first 32 characters.
type textParser struct{}

// NewTextParser returns the default Text-mode Parser.
func NewTextParser() Parser {
	return textParser{}
}

var (
	isoTimestampRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?)\s+`)
	levelTokenRe   = regexp.MustCompile(`\b(TRACE|DEBUG|INFO|WARN(?:ING)?|ERROR|FATAL|CRITICAL|PANIC)\b`)
)

func (textParser) ParseLine(line string, lineNo int) types.LogEntry {
	trimmed := strings.TrimRight(line, "\r\n")

	// (a) bracketed level prefix, e.g. "[ERROR] message"
	if m := bracketLevelRe.FindStringSubmatch(trimmed); m != nil {
		if sev := types.ParseSeverity(m[1]); sev != types.SeverityNone {
			return finalize(types.LogEntry{
				Severity: sev,
				Message:  m[2],
				Line:     lineNo,
			}, trimmed)
		}
	}

	// (b) ISO-8601 timestamp followed by a level token.
	if m := isoTimestampRe.FindStringSubmatch(trimmed); m != nil {
		rest := trimmed[len(m[0]):]
		if lm := levelTokenRe.FindStringSubmatchIndex(rest); lm != nil && lm[0] < 32 {
			sev := types.ParseSeverity(rest[lm[2]:lm[3]])
			if sev != types.SeverityNone {
				return finalize(types.LogEntry{
					Timestamp: m[1],
					Severity:  sev,
					Message:   strings.TrimSpace(rest),
					Line:      lineNo,
				}, trimmed)
			}
		}
	}

	// (c) a level token anywhere in the first 32 characters.
	head := trimmed
	if len(head) > 32 {
		head = head[:32]
	}
	if lm := levelTokenRe.FindString(head); lm != "" {
		if sev := types.ParseSeverity(lm); sev != types.SeverityNone {
			return finalize(types.LogEntry{
				Severity: sev,
				Message:  trimmed,
				Line:     lineNo,
			}, trimmed)
		}
	}

	// Malformed or unrecognized: parser is total, never drops the line.
	return finalize(types.LogEntry{Line: lineNo}, trimmed)
}

// blankLineMessage is the Message assigned to a whitespace-only input
// line, since the non-empty-after-trimming invariant (spec.md §3) allows
// no fallback shorter than this.
const blankLineMessage = "(blank line)"

// finalize applies the non-empty-message invariant: a blank recognized
// message falls back to the raw line, and a raw line that is itself blank
// (or whitespace-only) falls back to blankLineMessage.
func finalize(e types.LogEntry, raw string) types.LogEntry {
	if strings.TrimSpace(e.Message) == "" {
		e.Message = raw
	}
	if strings.TrimSpace(e.Message) == "" {
		e.Message = blankLineMessage
	}
	return e
}
