package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/internal/metrics"
)

// Server dispatches JSON-RPC requests to the declared tool set. It is
// transport-agnostic: Serve drives a line-delimited stdio loop, HTTPHandler
// (http.go) serves one JSON-RPC request per HTTP POST; no server-sent event
// stream is offered. Both share the same tool handlers.
type Server struct {
	deps   Deps
	logger *logrus.Logger
	tools  map[string]registeredTool

	mu          sync.Mutex
	initialized bool
}

// New builds a Server. logger must never be configured to write to stdout
// or stderr when the server is driven over stdio (see Serve) — route it to
// a file sink instead, per spec.md §4.J's strict output discipline.
func New(deps Deps, logger *logrus.Logger) *Server {
	s := &Server{deps: deps, logger: logger, tools: make(map[string]registeredTool)}
	for _, t := range buildTools() {
		s.tools[t.def.Name] = t
	}
	return s
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.WithField("component", "mcp").Debugf(format, args...)
	}
}

// Serve runs the stdio transport: exactly one JSON-RPC message per line on
// both stdin and stdout. It returns when in is exhausted or ctx is done.
// Nothing but protocol responses is ever written to out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var writeMu sync.Mutex
	write := func(resp Response) {
		raw, err := json.Marshal(resp)
		if err != nil {
			s.logf("failed to marshal response: %v", err)
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		out.Write(raw)
		out.Write([]byte("\n"))
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			write(errResponse(nil, CodeParseError, "invalid JSON", err.Error()))
			continue
		}
		if req.JSONRPC != "2.0" || req.Method == "" {
			write(errResponse(req.ID, CodeInvalidRequest, "missing jsonrpc/method", nil))
			continue
		}

		resp, isNotification := s.dispatch(ctx, req)
		if isNotification {
			continue
		}
		write(resp)
	}
	return scanner.Err()
}

// dispatch handles one request in-process (stdio transport is strictly
// sequential: one message read, one handled, one written, per spec.md
// §4.J's framing invariant). The HTTP transport reuses dispatch per request.
func (s *Server) dispatch(ctx context.Context, req Request) (resp Response, isNotification bool) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req), req.isNotification()
	case "notifications/initialized":
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		return Response{}, true
	case "tools/list":
		if !s.requireInitialized() {
			return errResponse(req.ID, CodeInvalidRequest, "server not initialized", nil), req.isNotification()
		}
		return s.handleToolsList(req), req.isNotification()
	case "tools/call":
		if !s.requireInitialized() {
			return errResponse(req.ID, CodeInvalidRequest, "server not initialized", nil), req.isNotification()
		}
		return s.handleToolsCall(ctx, req), req.isNotification()
	default:
		return errResponse(req.ID, CodeMethodNotFound, "unknown method: "+req.Method, nil), req.isNotification()
	}
}

func (s *Server) requireInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *Server) handleInitialize(req Request) Response {
	var params initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, "malformed initialize params", err.Error())
		}
	}
	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      serverInfo{Name: ServerName, Version: ServerVersion},
	})
}

func (s *Server) handleToolsList(req Request) Response {
	defs := make([]toolDef, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.def)
	}
	return resultResponse(req.ID, toolsListResult{Tools: defs})
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, "malformed tools/call params", err.Error())
	}

	tool, ok := s.tools[params.Name]
	if !ok {
		return errResponse(req.ID, CodeMethodNotFound, "unknown tool: "+params.Name, nil)
	}

	callStart := time.Now()
	result, callErr := tool.handler(ctx, s.deps, params.Arguments)
	if callErr != nil {
		if callErr.Code == CodeInvalidParams {
			metrics.RecordMCPToolCall(params.Name, "invalid_params", time.Since(callStart))
			return errResponse(req.ID, callErr.Code, callErr.Message, callErr.Data)
		}
		metrics.RecordMCPToolCall(params.Name, "error", time.Since(callStart))
		return resultResponse(req.ID, toolsCallResult{
			Content: []toolContent{{Type: "text", Text: callErr.Message}},
			IsError: true,
		})
	}

	text, err := json.Marshal(result)
	if err != nil {
		metrics.RecordMCPToolCall(params.Name, "marshal_error", time.Since(callStart))
		return errResponse(req.ID, CodeInternalError, "failed to marshal tool result", err.Error())
	}
	metrics.RecordMCPToolCall(params.Name, "success", time.Since(callStart))
	return resultResponse(req.ID, toolsCallResult{Content: []toolContent{{Type: "text", Text: string(text)}}})
}
