package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens/internal/aiprovider"
	"github.com/loglens/loglens/internal/analysis"
	"github.com/loglens/loglens/internal/pipeline"
	"github.com/loglens/loglens/internal/store"
	"github.com/loglens/loglens/pkg/types"
)

func newTestServer(t *testing.T) (*Server, Deps) {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := analysis.New(db, func(string) (*pipeline.Orchestrator, error) {
		return pipeline.New(&aiprovider.Mock{}), nil
	}, nil)

	deps := Deps{Store: db, Analysis: svc}
	return New(deps, nil), deps
}

func rpcLine(t *testing.T, method string, id, params any) string {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "method": method}
	if id != nil {
		raw, err := json.Marshal(id)
		require.NoError(t, err)
		req["id"] = json.RawMessage(raw)
	}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		req["params"] = json.RawMessage(raw)
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	return string(raw) + "\n"
}

func TestServe_HandshakeThenToolCall(t *testing.T) {
	s, deps := newTestServer(t)

	projectDir := t.TempDir()
	logPath := filepath.Join(projectDir, "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte("2024-01-01 ERROR boom\n"), 0o644))

	p, err := deps.Store.CreateProject(context.Background(), types.Project{ID: "P1", Name: "demo", RootPath: projectDir})
	require.NoError(t, err)

	var in bytes.Buffer
	in.WriteString(rpcLine(t, "initialize", 1, map[string]any{"protocolVersion": ProtocolVersion, "capabilities": map[string]any{}, "clientInfo": map[string]any{"name": "test", "version": "0"}}))
	in.WriteString(rpcLine(t, "notifications/initialized", nil, nil))
	in.WriteString(rpcLine(t, "tools/call", 2, map[string]any{"name": "analyze_file", "arguments": map[string]any{"project_id": p.ID, "file_id": logPath}}))

	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), &in, &out))

	lines := splitLines(t, out.String())
	require.Len(t, lines, 2, "notification must produce no response line")

	var initResp Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &initResp))
	require.Nil(t, initResp.Error)

	var callResp Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &callResp))
	require.Nil(t, callResp.Error)

	var callResult toolsCallResult
	require.NoError(t, json.Unmarshal(callResp.Result, &callResult))
	require.False(t, callResult.IsError)

	var payload struct {
		AnalysisID string `json:"analysis_id"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(callResult.Content[0].Text), &payload))
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}$`), payload.AnalysisID)
	assert.Equal(t, "pending", payload.Status)
}

func TestServe_ToolsCallBeforeInitializedIsRejected(t *testing.T) {
	s, _ := newTestServer(t)

	var in bytes.Buffer
	in.WriteString(rpcLine(t, "tools/list", 1, nil))
	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), &in, &out))

	var resp Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
}

func TestServe_MissingRequiredParamReturnsInvalidParams(t *testing.T) {
	s, _ := newTestServer(t)

	var in bytes.Buffer
	in.WriteString(rpcLine(t, "initialize", 1, map[string]any{}))
	in.WriteString(rpcLine(t, "notifications/initialized", nil, nil))
	in.WriteString(rpcLine(t, "tools/call", 2, map[string]any{"name": "get_project", "arguments": map[string]any{}}))

	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), &in, &out))

	lines := splitLines(t, out.String())
	require.Len(t, lines, 2)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestServe_UnknownMethodReturnsMethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	var in bytes.Buffer
	in.WriteString(rpcLine(t, "bogus/method", 1, nil))
	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), &in, &out))

	var resp Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func splitLines(t *testing.T, s string) []string {
	t.Helper()
	var out []string
	scanner := bufio.NewScanner(bytes.NewBufferString(s))
	for scanner.Scan() {
		if scanner.Text() != "" {
			out = append(out, scanner.Text())
		}
	}
	return out
}
