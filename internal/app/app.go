// Package app wires LogLens's collaborators into one long-running
// process: the project store, the project registry, the AI-provider
// factory, the analysis service, the streaming source manager, the MCP
// tool server, the metrics server, and the tracing manager. Grounded on
// the teacher's internal/app/app.go App struct and its sequential
// initializeComponents -> Start -> Run(blocks on SIGINT/SIGTERM) ->
// Stop lifecycle, rebuilt around LogLens's own collaborator set instead
// of the teacher's monitor/dispatcher/sink pipeline.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/internal/aiprovider"
	"github.com/loglens/loglens/internal/analysis"
	"github.com/loglens/loglens/internal/config"
	"github.com/loglens/loglens/internal/mcp"
	"github.com/loglens/loglens/internal/metrics"
	"github.com/loglens/loglens/internal/pipeline"
	"github.com/loglens/loglens/internal/registry"
	"github.com/loglens/loglens/internal/store"
	"github.com/loglens/loglens/internal/streaming"
	"github.com/loglens/loglens/internal/tracing"
)

// App coordinates every long-lived collaborator LogLens's daemon needs.
// Stdio-only consumers (cmd/loglens-mcp) also go through App, via
// RunStdioOnly, which skips the metrics server and MCP HTTP transport.
type App struct {
	config *config.Config
	logger *logrus.Logger

	db       *store.DB
	registry *registry.Registry
	analysis *analysis.Service
	streams  *streaming.Manager
	mcp      *mcp.Server
	metrics  *metrics.Server
	tracer   *tracing.Manager

	mcpHTTPServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New loads configFile, builds every collaborator, and returns a
// fully-wired but not-yet-started App.
func New(configFile string) (*App, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logrus.New()
	if level, parseErr := logrus.ParseLevel(cfg.App.LogLevel); parseErr == nil {
		logger.SetLevel(level)
	}
	if cfg.App.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	// Diagnostics go to a file under the data directory, never to
	// stdout/stderr, since both binaries serve MCP over stdio.
	if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.Store.DataDir, "loglens.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(logFile)

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{config: cfg, logger: logger, ctx: ctx, cancel: cancel}

	if err := a.initStore(); err != nil {
		cancel()
		return nil, err
	}
	if err := a.initRegistry(); err != nil {
		cancel()
		return nil, err
	}
	if err := a.initTracing(); err != nil {
		cancel()
		return nil, err
	}
	a.initAnalysis()
	a.initStreaming()
	a.initMCP()

	return a, nil
}

func (a *App) initStore() error {
	if err := os.MkdirAll(a.config.Store.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(a.config.Store.DataDir, "loglens.db")
	db, err := store.Open(a.ctx, dbPath, a.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.db = db
	return nil
}

func (a *App) initRegistry() error {
	if err := os.MkdirAll(filepath.Dir(a.config.Store.RegistryPath), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	reg, err := registry.Open(a.config.Store.RegistryPath, a.logger)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	a.registry = reg
	return nil
}

func (a *App) initTracing() error {
	tm, err := tracing.New(tracing.Config{
		Enabled:     a.config.Tracing.Enabled,
		Endpoint:    a.config.Tracing.Endpoint,
		ServiceName: a.config.Tracing.ServiceName,
		SampleRatio: a.config.Tracing.SampleRatio,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracer = tm
	return nil
}

// orchestratorFor resolves an analysis row's provider name into a
// configured pipeline.Orchestrator, building the AI provider fresh per
// call so credential rotation in the config needs no process restart.
func (a *App) orchestratorFor(providerName string) (*pipeline.Orchestrator, error) {
	providerCfg := aiprovider.Config{
		OpenRouter: aiprovider.OpenRouterConfig{
			APIKey: a.config.AI.OpenRouter.APIKey, BaseURL: a.config.AI.OpenRouter.BaseURL, Model: a.config.AI.OpenRouter.Model,
		},
		OpenAI: aiprovider.OpenAIConfig{
			APIKey: a.config.AI.OpenAI.APIKey, BaseURL: a.config.AI.OpenAI.BaseURL, Model: a.config.AI.OpenAI.Model,
		},
		Claude: aiprovider.ClaudeConfig{
			APIKey: a.config.AI.Claude.APIKey, BaseURL: a.config.AI.Claude.BaseURL, Model: a.config.AI.Claude.Model,
		},
		Gemini: aiprovider.GeminiConfig{
			APIKey: a.config.AI.Gemini.APIKey, BaseURL: a.config.AI.Gemini.BaseURL, Model: a.config.AI.Gemini.Model,
		},
	}
	name := providerName
	if name == "" {
		name = a.config.AI.DefaultProvider
	}
	provider, err := aiprovider.New(name, providerCfg, http.DefaultClient, a.logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(provider), nil
}

func (a *App) initAnalysis() {
	a.analysis = analysis.New(a.db, a.orchestratorFor, a.logger)
}

func (a *App) initStreaming() {
	a.streams = streaming.NewManager(a.db, a.config.Streaming.HTTPSinkAddr, a.config.Streaming.RingBufferSize, a.logger)
}

func (a *App) initMCP() {
	a.mcp = mcp.New(mcp.Deps{Store: a.db, Analysis: a.analysis}, a.logger)
}

// Start launches every background service (metrics HTTP server, MCP HTTP
// transport if enabled) but does not block. Use ServeStdio to drive the
// stdio MCP transport, typically on the main goroutine.
func (a *App) Start() error {
	a.logger.Info("starting loglens")

	if a.config.Metrics.Enabled {
		a.metrics = metrics.NewServer(a.config.Metrics.Addr, a.config.Metrics.Path, a.logger)
		a.metrics.Start()
	}

	if a.config.MCP.HTTPEnabled {
		a.mcpHTTPServer = &http.Server{Addr: a.config.MCP.HTTPAddr, Handler: a.mcp.HTTPHandler()}
		go func() {
			if err := a.mcpHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.WithError(err).Error("MCP HTTP server stopped")
			}
		}()
	}

	return nil
}

// ServeStdio drives the MCP stdio transport on in/out until it returns
// (EOF, or ctx cancellation via Stop). This is typically the last call a
// cmd/ main makes.
func (a *App) ServeStdio(in *os.File, out *os.File) error {
	return a.mcp.Serve(a.ctx, in, out)
}

// Stop gracefully shuts down every started service.
func (a *App) Stop() error {
	a.logger.Info("stopping loglens")
	a.cancel()

	if a.mcpHTTPServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.mcpHTTPServer.Shutdown(ctx)
	}
	if a.metrics != nil {
		if err := a.metrics.Stop(); err != nil {
			a.logger.WithError(err).Error("failed to stop metrics server")
		}
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Error("failed to shutdown tracing manager")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).Error("failed to close store")
		}
	}

	a.logger.Info("loglens stopped")
	return nil
}

// RunStdioOnly serves only the MCP stdio transport, skipping the metrics
// server and MCP HTTP transport entirely — the shape a client that spawns
// one process per session wants (cmd/loglens-mcp).
func (a *App) RunStdioOnly() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.ServeStdio(os.Stdin, os.Stdout) }()

	select {
	case <-sigChan:
		a.logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			a.logger.WithError(err).Error("MCP stdio transport stopped")
		}
	}
	return a.Stop()
}

// Run starts every background service, serves the MCP stdio transport on
// stdin/stdout, and blocks until stdin closes or a shutdown signal
// arrives, then stops everything.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.ServeStdio(os.Stdin, os.Stdout) }()

	select {
	case <-sigChan:
		a.logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			a.logger.WithError(err).Error("MCP stdio transport stopped")
		}
	}
	return a.Stop()
}
