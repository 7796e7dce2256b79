// Command cyberdna-server serves a workflow legend and its router over
// GraphQL, with health and Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cyberdna/pkg/config"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/server"
	cdtls "github.com/dd0wney/cyberdna/pkg/tls"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	mapPath := flag.String("map", "", "workflow map to load at startup")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := logging.NewStderrLogger(logging.ParseLevel(cfg.Log.Level))
	logging.SetDefaultLogger(logger)

	if err := serve(cfg, *mapPath, logger); err != nil {
		logger.Error("server stopped", logging.Error(err))
		os.Exit(1)
	}
}

func serve(cfg *config.Config, mapPath string, logger logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer a.Close()

	if mapPath != "" {
		if _, err := a.ws.LoadFile(ctx, mapPath); err != nil {
			return fmt.Errorf("load %s: %w", mapPath, err)
		}
	} else {
		logger.Warn("no workflow map given; queries fail until one is loaded")
	}

	tlsConfig, err := cdtls.Load(cfg.Server.TLS)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}

	srv := server.NewGracefulServer(cfg.Server.Addr, a.handler, cfg.Server.ShutdownTimeout, logger)
	srv.SetTLSConfig(tlsConfig)
	srv.SetReloadFunc(func(ctx context.Context) error {
		_, err := a.ws.Reload(ctx)
		return err
	})

	go a.collectSystemMetrics(ctx, 15*time.Second)

	return srv.Run(ctx)
}
