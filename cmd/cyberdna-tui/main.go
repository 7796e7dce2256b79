// Command cyberdna-tui is an interactive terminal browser for a workflow
// legend, its router and the function registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/cyberdna/pkg/config"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/registry"
	"github.com/dd0wney/cyberdna/pkg/workspace"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	mapPath := flag.String("map", "", "workflow map file")
	registryPath := flag.String("registry", "", "function registry file (default registry.path)")
	logPath := flag.String("log", "", "write JSON logs to this file")
	flag.Parse()

	if err := run(*configPath, *mapPath, *registryPath, *logPath); err != nil {
		fmt.Fprintf(os.Stderr, "cyberdna-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, mapPath, registryPath, logPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// the alternate screen owns stderr, so logs go to a file or nowhere
	logger := logging.NewNopLogger()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = logging.NewJSONLogger(f, logging.ParseLevel(cfg.Log.Level))
	}

	ws := workspace.New(cfg, workspace.Options{Logger: logger})
	if mapPath != "" {
		if _, err := ws.LoadFile(context.Background(), mapPath); err != nil {
			return err
		}
	}

	if registryPath == "" {
		registryPath = cfg.Registry.Path
	}
	reg, err := registry.Open(registryPath, logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(initialModel(ws, reg), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
