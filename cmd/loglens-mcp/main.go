// Command loglens-mcp is a thin MCP stdio server: one process per client
// session, no background metrics or MCP-HTTP transport. Clients that
// prefer a long-running daemon with those extras should use cmd/loglens
// instead.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/loglens/loglens/internal/app"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "", "path to YAML config file")
	flag.Parse()

	if configFile == "" {
		configFile = os.Getenv("LOGLENS_CONFIG_FILE")
	}

	application, err := app.New(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create loglens-mcp application: %v\n", err)
		os.Exit(1)
	}

	if err := application.RunStdioOnly(); err != nil {
		fmt.Fprintf(os.Stderr, "loglens-mcp application error: %v\n", err)
		os.Exit(1)
	}
}
