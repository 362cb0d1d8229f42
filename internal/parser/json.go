package parser

import (
	"encoding/json"

	"github.com/loglens/loglens/pkg/types"
)

// jsonParser parses each line as a JSON object with configurable field
// names for timestamp/level/message; unrecognized fields are preserved in
// LogEntry.Metadata.
type jsonParser struct {
	timestampField string
	levelField     string
	messageField   string
}

// NewJSONParser returns a Parser for newline-delimited JSON log lines.
func NewJSONParser(cfg types.ParserConfig) Parser {
	p := jsonParser{
		timestampField: cfg.TimestampField,
		levelField:     cfg.LevelField,
		messageField:   cfg.MessageField,
	}
	if p.timestampField == "" {
		p.timestampField = "timestamp"
	}
	if p.levelField == "" {
		p.levelField = "level"
	}
	if p.messageField == "" {
		p.messageField = "message"
	}
	return p
}

func (p jsonParser) ParseLine(line string, lineNo int) types.LogEntry {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return finalize(types.LogEntry{Line: lineNo}, line)
	}

	entry := types.LogEntry{Line: lineNo, Metadata: make(map[string]any)}

	if v, ok := raw[p.timestampField]; ok {
		if s, ok := v.(string); ok {
			entry.Timestamp = s
		}
		delete(raw, p.timestampField)
	}
	if v, ok := raw[p.levelField]; ok {
		if s, ok := v.(string); ok {
			entry.Severity = types.ParseSeverity(s)
		}
		delete(raw, p.levelField)
	}
	if v, ok := raw[p.messageField]; ok {
		if s, ok := v.(string); ok {
			entry.Message = s
		}
		delete(raw, p.messageField)
	}

	for k, v := range raw {
		entry.Metadata[k] = v
	}
	if len(entry.Metadata) == 0 {
		entry.Metadata = nil
	}

	return finalize(entry, line)
}
