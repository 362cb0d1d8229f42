package types

import "time"

// ProjectType is the auto-detected kind of project rooted at a path.
type ProjectType string

const (
	ProjectRust    ProjectType = "Rust"
	ProjectNode    ProjectType = "Node"
	ProjectPython  ProjectType = "Python"
	ProjectJava    ProjectType = "Java"
	ProjectGeneric ProjectType = "Generic"
)

// Project is the unit of persistence: a directory owning a local SQLite
// catalog of analyses plus a metadata file linking it to the global
// registry.
type Project struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	RootPath     string      `db:"root_path" json:"root_path"`
	Type         ProjectType `db:"-" json:"project_type"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
	LastAccessed time.Time   `db:"-" json:"last_accessed"`
	Metadata     []byte      `db:"metadata" json:"-"`
}

// AnalysisStatus is the lifecycle state of an Analysis row. Transitions are
// monotonic: Pending -> Running -> {Completed, Failed}; terminal states
// never transition.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "Pending"
	AnalysisRunning   AnalysisStatus = "Running"
	AnalysisCompleted AnalysisStatus = "Completed"
	AnalysisFailed    AnalysisStatus = "Failed"
)

// Terminal reports whether the status accepts no further transitions.
func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisCompleted || s == AnalysisFailed
}

// ValidTransition reports whether moving from s to next is legal under the
// monotonic state machine Pending -> Running -> {Completed, Failed}.
func (s AnalysisStatus) ValidTransition(next AnalysisStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case AnalysisPending:
		return next == AnalysisRunning
	case AnalysisRunning:
		return next == AnalysisCompleted || next == AnalysisFailed
	default:
		return false
	}
}

// Analysis is one run of the pipeline, persisted.
type Analysis struct {
	ID            string         `db:"id" json:"id"`
	ProjectID     string         `db:"project_id" json:"project_id"`
	LogFilePath   string         `db:"log_file_path" json:"log_file_path,omitempty"`
	Provider      string         `db:"provider" json:"provider"`
	Level         string         `db:"level" json:"level"`
	Status        AnalysisStatus `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	StartedAt     *time.Time     `db:"started_at" json:"started_at,omitempty"`
	CompletedAt   *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	ErrorMessage  string         `db:"error_message" json:"error_message,omitempty"`
	Metadata      []byte         `db:"metadata" json:"-"`
}

// AnalysisResult is the persisted report content for a Completed analysis.
type AnalysisResult struct {
	AnalysisID       string `db:"analysis_id" json:"analysis_id"`
	Summary          string `db:"summary" json:"summary"`
	FullReport       []byte `db:"full_report" json:"full_report"`
	PatternsDetected []byte `db:"patterns_detected" json:"patterns_detected"`
	IssuesFound      int    `db:"issues_found" json:"issues_found"`
	Metadata         []byte `db:"metadata" json:"metadata,omitempty"`
}

// AnalysisFormat selects how much of a result get_analysis returns.
type AnalysisFormat string

const (
	FormatSummary    AnalysisFormat = "summary"
	FormatFull       AnalysisFormat = "full"
	FormatStructured AnalysisFormat = "structured"
)
