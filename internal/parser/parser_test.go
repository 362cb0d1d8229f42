package parser

import (
	"testing"

	"github.com/loglens/loglens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextParser_Totality(t *testing.T) {
	p := NewTextParser()
	lines := []string{
		"[ERROR] Boom at line 3 in foo.rs",
		"",
		"just some noise with no level",
		"2024-01-02T15:04:05Z WARN disk nearly full",
	}
	out := ParseLines(p, lines)
	require.Len(t, out, len(lines))
}

func TestTextParser_BracketPrefix(t *testing.T) {
	p := NewTextParser()
	e := p.ParseLine("[ERROR] Boom at line 3 in foo.rs", 1)
	assert.Equal(t, types.SeverityError, e.Severity)
	assert.Equal(t, "Boom at line 3 in foo.rs", e.Message)
}

func TestTextParser_ISOTimestampAndLevel(t *testing.T) {
	p := NewTextParser()
	e := p.ParseLine("2024-01-02T15:04:05Z WARN disk nearly full", 1)
	assert.Equal(t, types.SeverityWarn, e.Severity)
	assert.Equal(t, "2024-01-02T15:04:05Z", e.Timestamp)
}

func TestTextParser_BareLevelInFirst32(t *testing.T) {
	p := NewTextParser()
	e := p.ParseLine("ERROR something went wrong here", 1)
	assert.Equal(t, types.SeverityError, e.Severity)
}

func TestTextParser_MalformedLineIsRetained(t *testing.T) {
	p := NewTextParser()
	e := p.ParseLine("totally unstructured text", 1)
	assert.Equal(t, types.SeverityNone, e.Severity)
	assert.Equal(t, "", e.Timestamp)
	assert.Equal(t, "totally unstructured text", e.Message)
}

func TestJSONParser_FieldMapping(t *testing.T) {
	p := NewJSONParser(types.ParserConfig{})
	e := p.ParseLine(`{"timestamp":"2024-01-01T00:00:00Z","level":"error","message":"db down","extra":"x"}`, 1)
	assert.Equal(t, types.SeverityError, e.Severity)
	assert.Equal(t, "db down", e.Message)
	assert.Equal(t, "x", e.Metadata["extra"])
}

func TestJSONParser_MalformedIsRetained(t *testing.T) {
	p := NewJSONParser(types.ParserConfig{})
	e := p.ParseLine(`not json`, 1)
	assert.Equal(t, "not json", e.Message)
}

func TestSyslogParser_Basic(t *testing.T) {
	p := NewSyslogParser()
	e := p.ParseLine("<34>Oct 11 22:14:15 myhost su: ERROR something broke", 1)
	assert.Equal(t, "myhost", e.Source)
	assert.Equal(t, types.SeverityError, e.Severity)
}

func TestCommonLogParser_Basic(t *testing.T) {
	p := NewCommonLogParser()
	line := `127.0.0.1 - - [10/Oct/2023:13:55:36 -0700] "GET /api HTTP/1.1" 500 1234`
	e := p.ParseLine(line, 1)
	assert.Equal(t, "127.0.0.1", e.Source)
	assert.Equal(t, types.SeverityError, e.Severity)
}
