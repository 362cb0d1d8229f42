package mcp

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// HTTPHandler builds the HTTP transport variant (spec.md §4.J): a single
// POST endpoint carrying one JSON-RPC request/response pair per call. It
// does not open a server-sent event stream. Unlike
// the stdio transport, logging here is unrestricted — Server.logf already
// routes through the injected logrus logger regardless of transport.
func (s *Server) HTTPHandler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/mcp", s.serveHTTPRPC).Methods(http.MethodPost)
	return router
}

func (s *Server) serveHTTPRPC(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeHTTPResponse(w, errResponse(nil, CodeParseError, "invalid JSON", err.Error()))
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeHTTPResponse(w, errResponse(req.ID, CodeInvalidRequest, "missing jsonrpc/method", nil))
		return
	}

	resp, isNotification := s.dispatch(r.Context(), req)
	if isNotification {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeHTTPResponse(w, resp)
}

func writeHTTPResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	if resp.Error != nil {
		w.WriteHeader(http.StatusOK) // JSON-RPC errors are still transport-level 200s
	}
	_ = json.NewEncoder(w).Encode(resp)
}
