package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loglens/loglens/internal/analysis"
	"github.com/loglens/loglens/internal/store"
	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// Deps are the services a Server dispatches tool calls into.
type Deps struct {
	Store    *store.DB
	Analysis *analysis.Service
}

// handler validates args against its declared schema shape and returns the
// tool's structured result (marshalled as the sole text content block, per
// this server's convention) or an *Error for a schema/apperr failure.
type handler func(ctx context.Context, deps Deps, args map[string]any) (any, *Error)

type registeredTool struct {
	def     toolDef
	handler handler
}

func paramsSchema(required []string, props map[string]any) json.RawMessage {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	raw, _ := json.Marshal(schema)
	return raw
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func integerProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func invalidParam(field, reason string) *Error {
	return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid parameter %q: %s", field, reason)}
}

func internalErr(err error) *Error {
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

func stringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intArg(args map[string]any, name string, def int) (int, bool) {
	v, ok := args[name]
	if !ok {
		return def, true
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func buildTools() []registeredTool {
	return []registeredTool{
		{
			def: toolDef{
				Name:        "list_projects",
				Description: "List every registered project with aggregated analysis counts.",
				InputSchema: paramsSchema(nil, map[string]any{
					"name_filter": stringProp("optional substring filter on project name"),
				}),
			},
			handler: handleListProjects,
		},
		{
			def: toolDef{
				Name:        "get_project",
				Description: "Fetch one project by id, with timestamps and analysis counts.",
				InputSchema: paramsSchema([]string{"project_id"}, map[string]any{
					"project_id": stringProp("project id"),
				}),
			},
			handler: handleGetProject,
		},
		{
			def: toolDef{
				Name:        "list_analyses",
				Description: "List analyses for a project, newest-first.",
				InputSchema: paramsSchema([]string{"project_id"}, map[string]any{
					"project_id": stringProp("project id"),
					"limit":      integerProp("max rows to return, capped at 200 (default 50)"),
					"offset":     integerProp("rows to skip (default 0)"),
				}),
			},
			handler: handleListAnalyses,
		},
		{
			def: toolDef{
				Name:        "get_analysis",
				Description: "Fetch one analysis by id. Returns status only if not completed.",
				InputSchema: paramsSchema([]string{"analysis_id"}, map[string]any{
					"analysis_id": stringProp("analysis id"),
					"format":      stringProp("one of summary, full, structured (default full)"),
				}),
			},
			handler: handleGetAnalysis,
		},
		{
			def: toolDef{
				Name:        "get_analysis_status",
				Description: "Poll an analysis's lifecycle status and progress.",
				InputSchema: paramsSchema([]string{"analysis_id"}, map[string]any{
					"analysis_id": stringProp("analysis id"),
				}),
			},
			handler: handleGetAnalysisStatus,
		},
		{
			def: toolDef{
				Name:        "analyze_file",
				Description: "Create and asynchronously trigger an analysis of a log file.",
				InputSchema: paramsSchema([]string{"project_id", "file_id"}, map[string]any{
					"project_id": stringProp("project id"),
					"file_id":    stringProp("log file path (or file id) to analyze"),
					"provider":   stringProp("AI provider name (default configured provider)"),
					"level":      stringProp("minimum severity threshold (default info)"),
				}),
			},
			handler: handleAnalyzeFile,
		},
	}
}

func handleListProjects(ctx context.Context, deps Deps, args map[string]any) (any, *Error) {
	nameFilter, _ := stringArg(args, "name_filter")

	projects, err := deps.Store.ListProjects(ctx)
	if err != nil {
		return nil, internalErr(err)
	}

	type summary struct {
		types.Project
		AnalysisCount int `json:"analysis_count"`
	}
	out := make([]summary, 0, len(projects))
	for _, p := range projects {
		if nameFilter != "" && !containsFold(p.Name, nameFilter) {
			continue
		}
		count, err := deps.Store.CountAnalyses(ctx, p.ID)
		if err != nil {
			return nil, internalErr(err)
		}
		out = append(out, summary{Project: p, AnalysisCount: count})
	}
	return map[string]any{"projects": out}, nil
}

func handleGetProject(ctx context.Context, deps Deps, args map[string]any) (any, *Error) {
	projectID, ok := stringArg(args, "project_id")
	if !ok || projectID == "" {
		return nil, invalidParam("project_id", "required non-empty string")
	}

	p, err := deps.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, errFromApp(err)
	}
	count, err := deps.Store.CountAnalyses(ctx, projectID)
	if err != nil {
		return nil, internalErr(err)
	}
	return map[string]any{
		"project":        p,
		"analysis_count": count,
	}, nil
}

func handleListAnalyses(ctx context.Context, deps Deps, args map[string]any) (any, *Error) {
	projectID, ok := stringArg(args, "project_id")
	if !ok || projectID == "" {
		return nil, invalidParam("project_id", "required non-empty string")
	}
	limit, ok := intArg(args, "limit", 50)
	if !ok {
		return nil, invalidParam("limit", "must be an integer")
	}
	if limit > 200 {
		return nil, invalidParam("limit", "must be <= 200")
	}
	offset, ok := intArg(args, "offset", 0)
	if !ok || offset < 0 {
		return nil, invalidParam("offset", "must be a non-negative integer")
	}

	total, err := deps.Store.CountAnalyses(ctx, projectID)
	if err != nil {
		return nil, internalErr(err)
	}

	page, err := deps.Analysis.QueryAnalyses(ctx, store.QueryAnalysesFilter{ProjectID: projectID, Limit: offset + limit})
	if err != nil {
		return nil, internalErr(err)
	}
	start := offset
	if start > len(page) {
		start = len(page)
	}
	end := start + limit
	if end > len(page) {
		end = len(page)
	}
	return map[string]any{
		"analyses": page[start:end],
		"total":    total,
	}, nil
}

func handleGetAnalysis(ctx context.Context, deps Deps, args map[string]any) (any, *Error) {
	analysisID, ok := stringArg(args, "analysis_id")
	if !ok || analysisID == "" {
		return nil, invalidParam("analysis_id", "required non-empty string")
	}
	format := types.FormatFull
	if f, ok := stringArg(args, "format"); ok && f != "" {
		switch types.AnalysisFormat(f) {
		case types.FormatSummary, types.FormatFull, types.FormatStructured:
			format = types.AnalysisFormat(f)
		default:
			return nil, invalidParam("format", "must be one of summary, full, structured")
		}
	}

	a, result, err := deps.Analysis.GetAnalysis(ctx, analysisID, format)
	if err != nil {
		return nil, errFromApp(err)
	}
	if a.Status != types.AnalysisCompleted {
		return map[string]any{"analysis": a}, nil
	}
	return map[string]any{"analysis": a, "result": result}, nil
}

func handleGetAnalysisStatus(ctx context.Context, deps Deps, args map[string]any) (any, *Error) {
	analysisID, ok := stringArg(args, "analysis_id")
	if !ok || analysisID == "" {
		return nil, invalidParam("analysis_id", "required non-empty string")
	}

	a, _, err := deps.Analysis.GetAnalysis(ctx, analysisID, types.FormatSummary)
	if err != nil {
		return nil, errFromApp(err)
	}
	return map[string]any{
		"id":            a.ID,
		"status":        a.Status,
		"progress":      progressFor(a.Status),
		"error_message": a.ErrorMessage,
	}, nil
}

// progressFor approximates a 0..100 progress value from the analysis
// lifecycle status; the pipeline's finer-grained stage progress is only
// observable through its in-process sink, not persisted per-row.
func progressFor(status types.AnalysisStatus) int {
	switch status {
	case types.AnalysisPending:
		return 0
	case types.AnalysisRunning:
		return 50
	case types.AnalysisCompleted, types.AnalysisFailed:
		return 100
	default:
		return 0
	}
}

func handleAnalyzeFile(ctx context.Context, deps Deps, args map[string]any) (any, *Error) {
	projectID, ok := stringArg(args, "project_id")
	if !ok || projectID == "" {
		return nil, invalidParam("project_id", "required non-empty string")
	}
	fileID, ok := stringArg(args, "file_id")
	if !ok || fileID == "" {
		return nil, invalidParam("file_id", "required non-empty string (log file path)")
	}
	provider, _ := stringArg(args, "provider")
	level, ok := stringArg(args, "level")
	if !ok || level == "" {
		level = types.SeverityInfo.String()
	}

	analysisID, err := deps.Analysis.CreateAnalysis(ctx, projectID, fileID, provider, level)
	if err != nil {
		return nil, errFromApp(err)
	}
	if _, err := deps.Analysis.TriggerAnalysis(ctx, analysisID); err != nil {
		return nil, errFromApp(err)
	}
	return map[string]any{
		"analysis_id": analysisID,
		"status":      "pending",
	}, nil
}

// errFromApp maps an *apperr.Error's Kind to the closest JSON-RPC error
// code: NotFound (including sql.ErrNoRows surfaced as apperr.NotFound),
// InvalidInput and Conflict are reported as invalid params since they
// almost always trace back to a caller-supplied id; every other Kind, and
// any error that is not an *apperr.Error, is reported as internal.
func errFromApp(err error) *Error {
	appErr, ok := apperr.As(err)
	if !ok {
		return internalErr(err)
	}
	switch appErr.Kind {
	case apperr.NotFound, apperr.InvalidInput, apperr.Conflict:
		return &Error{Code: CodeInvalidParams, Message: appErr.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: appErr.Error()}
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
