// Package registry implements the project registry described in spec.md
// §4.G: a single JSON document mapping project id to its location,
// persisted with the atomic temp-file+rename discipline the log-capture
// teacher uses for checkpoint snapshots (pkg/positions/checkpoint_manager.go),
// adapted here for one whole-document snapshot per mutation rather than
// periodic interval-based ones.
package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/pkg/apperr"
)

// Entry is one registry record.
type Entry struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	RootPath           string    `json:"root_path"`
	LoglensConfigPath  string    `json:"loglens_config_path"`
	LastAccessed       time.Time `json:"last_accessed"`
}

// Issue is one validation finding against an entry.
type Issue string

const (
	IssueRootMissing     Issue = "RootMissing"
	IssueConfigMissing   Issue = "ConfigMissing"
	IssueIDMismatch      Issue = "IdMismatch"
	IssueMetadataInvalid Issue = "MetadataInvalid"
)

// ValidationReport pairs a project id with its findings.
type ValidationReport struct {
	ProjectID string
	Issues    []Issue
}

// projectMetadata is the on-disk per-project file the registry
// cross-checks during validate/repair.
type projectMetadata struct {
	ProjectID string `json:"project_id"`
}

// Registry is a single-process-safe, file-backed project index. No
// cross-process locking is implemented; per spec.md §4.G this is
// documented as single-user.
type Registry struct {
	path   string
	logger *logrus.Logger

	mu      sync.Mutex
	entries map[string]Entry
}

// Open loads the registry document at path, treating an absent or empty
// file as an empty mapping.
func Open(path string, logger *logrus.Logger) (*Registry, error) {
	r := &Registry{path: path, logger: logger, entries: make(map[string]Entry)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, apperr.New(apperr.IO, "registry", "Open", "read registry file").Wrap(err)
	}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r.entries); err != nil {
		return nil, apperr.New(apperr.IO, "registry", "Open", "parse registry file").Wrap(err)
	}
	return r, nil
}

// persist writes the full entry map atomically: a temp file in the same
// directory, fsynced, then renamed over the target. Either the new
// document lands whole or the old one remains, per spec.md §4.G.
func (r *Registry) persist() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return apperr.New(apperr.Internal, "registry", "persist", "marshal registry").Wrap(err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.New(apperr.IO, "registry", "persist", "create registry dir").Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, ".projects-*.json.tmp")
	if err != nil {
		return apperr.New(apperr.IO, "registry", "persist", "create temp file").Wrap(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.New(apperr.IO, "registry", "persist", "write temp file").Wrap(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperr.New(apperr.IO, "registry", "persist", "sync temp file").Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.New(apperr.IO, "registry", "persist", "close temp file").Wrap(err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		return apperr.New(apperr.IO, "registry", "persist", "rename temp file").Wrap(err)
	}
	return nil
}

// Register adds or replaces an entry and persists the registry.
func (r *Registry) Register(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.LastAccessed = time.Now().UTC()
	r.entries[e.ID] = e
	return r.persist()
}

// Unregister removes an entry, if present, and persists the registry.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return apperr.New(apperr.NotFound, "registry", "Unregister", "no such project: "+id)
	}
	delete(r.entries, id)
	return r.persist()
}

// LookupByID returns the entry for id, bumping its last-accessed time.
func (r *Registry) LookupByID(ctx context.Context, id string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, apperr.New(apperr.NotFound, "registry", "LookupByID", "no such project: "+id)
	}
	e.LastAccessed = time.Now().UTC()
	r.entries[id] = e
	if err := r.persist(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// LookupByPath returns the entry whose root path matches path.
func (r *Registry) LookupByPath(ctx context.Context, path string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.RootPath == path {
			return e, nil
		}
	}
	return Entry{}, apperr.New(apperr.NotFound, "registry", "LookupByPath", "no project rooted at: "+path)
}

// List returns every entry ordered by last-accessed descending.
func (r *Registry) List(ctx context.Context) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out
}

// Validate walks every entry and reports the issues found against its
// on-disk state. It never mutates the registry.
func (r *Registry) Validate(ctx context.Context) []ValidationReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reports []ValidationReport
	for id, e := range r.entries {
		var issues []Issue
		if _, err := os.Stat(e.RootPath); err != nil {
			issues = append(issues, IssueRootMissing)
		}

		data, err := os.ReadFile(e.LoglensConfigPath)
		switch {
		case err != nil:
			issues = append(issues, IssueConfigMissing)
		default:
			var meta projectMetadata
			if err := json.Unmarshal(data, &meta); err != nil {
				issues = append(issues, IssueMetadataInvalid)
			} else if meta.ProjectID != id {
				issues = append(issues, IssueIDMismatch)
			}
		}

		if len(issues) > 0 {
			reports = append(reports, ValidationReport{ProjectID: id, Issues: issues})
		}
	}
	return reports
}

// Repair removes entries with RootMissing, ConfigMissing, or
// MetadataInvalid findings. IdMismatch is never auto-resolved; it is
// surfaced for manual intervention and the entry is left untouched.
func (r *Registry) Repair(ctx context.Context) ([]ValidationReport, error) {
	reports := r.Validate(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	var remaining []ValidationReport
	changed := false
	for _, rep := range reports {
		removable := false
		manual := false
		for _, issue := range rep.Issues {
			switch issue {
			case IssueRootMissing, IssueConfigMissing, IssueMetadataInvalid:
				removable = true
			case IssueIDMismatch:
				manual = true
			}
		}
		if removable && !manual {
			delete(r.entries, rep.ProjectID)
			changed = true
		} else if manual {
			remaining = append(remaining, rep)
		}
	}

	if changed {
		if err := r.persist(); err != nil {
			return nil, err
		}
	}
	return remaining, nil
}
