// Command loglens runs the LogLens daemon: it serves the MCP tool server
// over stdio (the transport an MCP client spawns the process for), and
// optionally starts the MCP HTTP transport and the Prometheus metrics
// endpoint in the background, per the loaded config.
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
		fmt.Fprintf(os.Stderr, "failed to create loglens application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "loglens application error: %v\n", err)
		os.Exit(1)
	}
}
