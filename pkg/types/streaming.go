package types

import "time"

// SourceKind is the kind of live log producer a StreamingSource wraps.
type SourceKind string

const (
	SourceFileTail SourceKind = "File-tail"
	SourceChildProcess SourceKind = "Child-process"
	SourceTCPListener  SourceKind = "TCP-listener"
	SourceHTTPSink     SourceKind = "HTTP-sink"
	SourceStdin        SourceKind = "Stdin"
)

// ParserFormat is the recognition mode a source's parser is configured for.
type ParserFormat string

const (
	FormatText      ParserFormat = "Text"
	FormatJSON      ParserFormat = "JSON"
	FormatSyslog    ParserFormat = "Syslog"
	FormatCommonLog ParserFormat = "CommonLog"
)

// ParserConfig configures the per-source parser.
type ParserConfig struct {
	Format         ParserFormat `json:"format"`
	TimestampField string       `json:"timestamp_field,omitempty"`
	LevelField     string       `json:"level_field,omitempty"`
	MessageField   string       `json:"message_field,omitempty"`
}

// RestartPolicy governs whether and how many times a failed source restarts.
type RestartPolicy struct {
	RestartOnError bool
	MaxRestarts    int // 0 means unlimited
}

// SourceStatus is the lifecycle state of a StreamingSource.
type SourceStatus string

const (
	SourceStarting   SourceStatus = "Starting"
	SourceActive     SourceStatus = "Active"
	SourceRestarting SourceStatus = "Restarting"
	SourceStopped    SourceStatus = "Stopped"
	SourceFailed     SourceStatus = "Failed"
)

// StreamingSourceConfig is the start() request for a new live source.
type StreamingSourceConfig struct {
	ProjectID     string
	Name          string
	Kind          SourceKind
	// Descriptor is kind-specific: an absolute path for File-tail, a
	// command+args for Child-process, a bind address for TCP-listener, a
	// path prefix for HTTP-sink, unused for Stdin.
	Path          string
	Command       string
	Args          []string
	BindAddr      string
	PathPrefix    string
	Parser        ParserConfig
	BufferSize    int
	BatchTimeout  time.Duration
	Restart       RestartPolicy
}

// StreamingSource is a named live producer within a project.
type StreamingSource struct {
	ID      string
	Config  StreamingSourceConfig
	Status  SourceStatus
	StartedAt time.Time
	RestartCount int
	LastError    string
}
