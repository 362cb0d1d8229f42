package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMetadata(t *testing.T, dir, projectID string) string {
	t.Helper()
	path := filepath.Join(dir, "loglens.json")
	data, err := json.Marshal(projectMetadata{ProjectID: projectID})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRegister_ThenValidateReportsNoIssues(t *testing.T) {
	dir := t.TempDir()
	projectRoot := filepath.Join(dir, "proj")
	require.NoError(t, os.MkdirAll(projectRoot, 0o755))
	configPath := writeMetadata(t, projectRoot, "p1")

	r, err := Open(filepath.Join(dir, "projects.json"), nil)
	require.NoError(t, err)
	require.NoError(t, r.Register(context.Background(), Entry{ID: "p1", Name: "demo", RootPath: projectRoot, LoglensConfigPath: configPath}))

	assert.Empty(t, r.Validate(context.Background()))
}

func TestValidate_ConfigMissingThenRepairRemoves(t *testing.T) {
	dir := t.TempDir()
	projectRoot := filepath.Join(dir, "proj")
	require.NoError(t, os.MkdirAll(projectRoot, 0o755))
	configPath := filepath.Join(projectRoot, "loglens.json") // never written

	r, err := Open(filepath.Join(dir, "projects.json"), nil)
	require.NoError(t, err)
	require.NoError(t, r.Register(context.Background(), Entry{ID: "p1", Name: "demo", RootPath: projectRoot, LoglensConfigPath: configPath}))

	reports := r.Validate(context.Background())
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Issues, IssueConfigMissing)

	remaining, err := r.Repair(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = r.LookupByID(context.Background(), "p1")
	require.Error(t, err)
}

func TestValidate_IdMismatchIsNeverAutoRemoved(t *testing.T) {
	dir := t.TempDir()
	projectRoot := filepath.Join(dir, "proj")
	require.NoError(t, os.MkdirAll(projectRoot, 0o755))
	configPath := writeMetadata(t, projectRoot, "different-id")

	r, err := Open(filepath.Join(dir, "projects.json"), nil)
	require.NoError(t, err)
	require.NoError(t, r.Register(context.Background(), Entry{ID: "p1", Name: "demo", RootPath: projectRoot, LoglensConfigPath: configPath}))

	remaining, err := r.Repair(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "p1", remaining[0].ProjectID)

	_, err = r.LookupByID(context.Background(), "p1")
	require.NoError(t, err)
}

func TestList_OrderedByLastAccessedDesc(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(filepath.Join(dir, "projects.json"), nil)
	require.NoError(t, err)

	require.NoError(t, r.Register(context.Background(), Entry{ID: "a", RootPath: "/a"}))
	require.NoError(t, r.Register(context.Background(), Entry{ID: "b", RootPath: "/b"}))
	_, err = r.LookupByID(context.Background(), "a")
	require.NoError(t, err)

	list := r.List(context.Background())
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
}

func TestOpen_AbsentFileIsEmptyMapping(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(filepath.Join(dir, "missing.json"), nil)
	require.NoError(t, err)
	assert.Empty(t, r.List(context.Background()))
}
