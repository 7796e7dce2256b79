package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dd0wney/cyberdna/pkg/audit"
	"github.com/dd0wney/cyberdna/pkg/auth"
	"github.com/dd0wney/cyberdna/pkg/config"
	"github.com/dd0wney/cyberdna/pkg/events"
	"github.com/dd0wney/cyberdna/pkg/graphql"
	"github.com/dd0wney/cyberdna/pkg/health"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/metrics"
	"github.com/dd0wney/cyberdna/pkg/server"
	"github.com/dd0wney/cyberdna/pkg/store"
	"github.com/dd0wney/cyberdna/pkg/workspace"
)

// app wires the workspace to its store, event bus and HTTP surface
type app struct {
	ws      *workspace.Workspace
	store   store.Store
	bus     *events.Bus
	audit   *audit.Trail
	metrics *metrics.Registry
	health  *health.HealthChecker
	handler http.Handler
	logger  logging.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*app, error) {
	reg := metrics.NewRegistry()

	st, err := store.Open(ctx, cfg.Store, reg, logger)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var remote events.Publisher
	if cfg.Events.URL != "" {
		remote, err = events.NewPublisher(cfg.Events.Transport, cfg.Events.URL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("events: %w", err)
		}
		logger.Info("publishing events",
			logging.String("transport", cfg.Events.Transport),
			logging.String("url", cfg.Events.URL),
		)
	}
	bus := events.NewBus(events.BusOptions{Remote: remote, Metrics: reg, Logger: logger})

	ws := workspace.New(cfg, workspace.Options{
		Logger:  logger,
		Metrics: reg,
		Store:   st,
		Bus:     bus,
	})

	a := &app{
		ws:      ws,
		store:   st,
		bus:     bus,
		metrics: reg,
		health:  health.NewHealthChecker(),
		logger:  logger,
	}
	fail := func(what string, err error) (*app, error) {
		a.Close()
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	var sink audit.Sink
	if cfg.Audit.Path != "" {
		fs, err := audit.OpenFileSink(cfg.Audit.Path)
		if err != nil {
			return fail("audit", err)
		}
		sink = fs
	}
	a.audit = audit.NewTrail(cfg.Audit.Buffer, sink, logger)

	var jwtManager *auth.JWTManager
	if cfg.Server.JWTSecret != "" {
		jwtManager, err = auth.NewJWTManager(cfg.Server.JWTSecret, auth.DefaultTokenDuration)
		if err != nil {
			return fail("auth", err)
		}
	}

	schema, err := graphql.NewSchema(ws, graphql.SchemaOptions{
		RequireOperator: jwtManager != nil,
		Audit:           a.audit,
	})
	if err != nil {
		return fail("graphql schema", err)
	}

	a.registerChecks()

	a.handler = server.NewRouter(server.Routes{
		GraphQL: graphql.NewHandler(schema, graphql.DefaultMaxDepth, logger),
		Health:  a.health,
		Metrics: reg,
		JWT:     jwtManager,
		Logger:  logger,
	})
	return a, nil
}

func (a *app) registerChecks() {
	legendCheck := health.LegendCheck(func() (string, int, error) {
		snap, err := a.ws.Snapshot()
		if err != nil {
			return "", 0, err
		}
		return snap.Legend.Metadata().SnapshotID, snap.Legend.Len(), nil
	})
	a.health.RegisterCheck("legend", legendCheck)
	a.health.RegisterReadinessCheck("legend", legendCheck)

	a.health.RegisterCheck("graph", health.GraphCheck(func() (int, error) {
		snap, err := a.ws.Snapshot()
		if err != nil {
			return 0, err
		}
		return len(snap.Graph.DetectCycles()), nil
	}))

	a.health.RegisterReadinessCheck("store", health.StoreCheck(a.store.Backend(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(ctx, a.store)
	}))
}

func (a *app) collectSystemMetrics(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		a.metrics.UpdateSystemMetrics()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close shuts down the event bus, the audit sink and the store
func (a *app) Close() error {
	var auditErr error
	if a.audit != nil {
		auditErr = a.audit.Close()
	}
	return errors.Join(a.bus.Shutdown(), auditErr, a.store.Close())
}
