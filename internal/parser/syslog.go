package parser

import (
	"regexp"

	"github.com/loglens/loglens/pkg/types"
)

// syslogRe matches RFC3164-style syslog: "<PRI>Mon _2 15:04:05 host tag: msg"
// with named capture groups for timestamp and source.
var syslogRe = regexp.MustCompile(
	`^(?:<\d+>)?(?P<timestamp>[A-Z][a-z]{2}\s+\d{1,2}\s\d{2}:\d{2}:\d{2})\s+(?P<source>\S+)\s+(?P<message>.*)$`,
)

type syslogParser struct{}

// NewSyslogParser returns a Parser for RFC3164-style syslog lines.
func NewSyslogParser() Parser {
	return syslogParser{}
}

func (syslogParser) ParseLine(line string, lineNo int) types.LogEntry {
	m := syslogRe.FindStringSubmatch(line)
	if m == nil {
		return finalize(types.LogEntry{Line: lineNo}, line)
	}
	entry := types.LogEntry{Line: lineNo}
	for i, name := range syslogRe.SubexpNames() {
		switch name {
		case "timestamp":
			entry.Timestamp = m[i]
		case "source":
			entry.Source = m[i]
		case "message":
			entry.Message = m[i]
			entry.Severity = detectInlineLevel(m[i])
		}
	}
	return finalize(entry, line)
}

// commonLogRe matches the Apache/NCSA Common Log Format.
var commonLogRe = regexp.MustCompile(
	`^(?P<source>\S+)\s+\S+\s+\S+\s+\[(?P<timestamp>[^\]]+)\]\s+"(?P<message>[^"]*)"\s+(?P<status>\d{3})\s+\S+`,
)

type commonLogParser struct{}

// NewCommonLogParser returns a Parser for Apache/NCSA Common Log Format lines.
func NewCommonLogParser() Parser {
	return commonLogParser{}
}

func (commonLogParser) ParseLine(line string, lineNo int) types.LogEntry {
	m := commonLogRe.FindStringSubmatch(line)
	if m == nil {
		return finalize(types.LogEntry{Line: lineNo}, line)
	}
	entry := types.LogEntry{Line: lineNo, Metadata: make(map[string]any)}
	for i, name := range commonLogRe.SubexpNames() {
		switch name {
		case "timestamp":
			entry.Timestamp = m[i]
		case "source":
			entry.Source = m[i]
		case "message":
			entry.Message = m[i]
		case "status":
			entry.Metadata["status"] = m[i]
			entry.Severity = severityFromStatus(m[i])
		}
	}
	if len(entry.Metadata) == 0 {
		entry.Metadata = nil
	}
	return finalize(entry, line)
}

func detectInlineLevel(message string) types.Severity {
	if lm := levelTokenRe.FindString(message); lm != "" {
		return types.ParseSeverity(lm)
	}
	return types.SeverityNone
}

func severityFromStatus(status string) types.Severity {
	if len(status) != 3 {
		return types.SeverityNone
	}
	switch status[0] {
	case '5':
		return types.SeverityError
	case '4':
		return types.SeverityWarn
	default:
		return types.SeverityInfo
	}
}
