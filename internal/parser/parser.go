// Package parser tokenizes raw text lines into types.LogEntry records.
//
// The parser is total by construction: a line that matches none of the
// recognized shapes still produces a LogEntry (severity None, timestamp
// unset, message equal to the raw line) rather than an error. This mirrors
// the log-capture teacher's "never drop a line" discipline in
// internal/monitors/file_monitor.go, generalized from "forward raw text to
// the dispatcher" to "always emit a structured record".
package parser

import (
	"regexp"

	"github.com/loglens/loglens/pkg/types"
)

// Parser recognizes one line at a time in a configured format.
type Parser interface {
	ParseLine(line string, lineNo int) types.LogEntry
}

// New returns the Parser for the given format, defaulting to Text mode for
// an empty or unrecognized format (auto mode, per spec.md §4.A).
func New(cfg types.ParserConfig) Parser {
	switch cfg.Format {
	case types.FormatJSON:
		return NewJSONParser(cfg)
	case types.FormatSyslog:
		return NewSyslogParser()
	case types.FormatCommonLog:
		return NewCommonLogParser()
	default:
		return NewTextParser()
	}
}

// ParseLines parses an ordered, finite slice of raw lines, preserving input
// order and count (testable property 1 in spec.md §8).
func ParseLines(p Parser, lines []string) []types.LogEntry {
	out := make([]types.LogEntry, len(lines))
	for i, l := range lines {
		out[i] = p.ParseLine(l, i+1)
	}
	return out
}

var bracketLevelRe = regexp.MustCompile(`^\s*\[([A-Za-z]+)\]\s*(.*)$`)
