// Package workspace wires the pipeline together: parse, categorize,
// place on the helix, build the legend and dependency graph, then serve
// queries from an immutable snapshot that rebuilds swap atomically.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cyberdna/pkg/cache"
	"github.com/dd0wney/cyberdna/pkg/categorize"
	"github.com/dd0wney/cyberdna/pkg/config"
	"github.com/dd0wney/cyberdna/pkg/events"
	"github.com/dd0wney/cyberdna/pkg/legend"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/metrics"
	"github.com/dd0wney/cyberdna/pkg/parser"
	"github.com/dd0wney/cyberdna/pkg/router"
	"github.com/dd0wney/cyberdna/pkg/store"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

var (
	// ErrNotLoaded is returned by queries before the first build
	ErrNotLoaded = errors.New("workspace has no workflow map loaded")
	// ErrNoStore is returned by Save and Restore without a store
	ErrNoStore = errors.New("workspace has no legend store")
	// ErrNoSource is returned by Reload when nothing was loaded from a file
	ErrNoSource = errors.New("workspace was not loaded from a file")
)

// Snapshot is one consistent build. It is never modified after Build
// returns and may be shared between goroutines.
type Snapshot struct {
	Map       *workflow.CategorizedMap
	Legend    *legend.Legend
	Graph     *router.Graph
	Router    *router.Router
	Workflows *categorize.Workflows
	Source    string
	BuiltAt   time.Time
}

// Options configures a Workspace. Nil fields get no-op defaults.
type Options struct {
	Logger      logging.Logger
	Metrics     *metrics.Registry
	Store       store.Store
	Bus         *events.Bus
	Categorizer *categorize.Categorizer
}

// Workspace owns the current snapshot
type Workspace struct {
	cfg         *config.Config
	logger      logging.Logger
	metrics     *metrics.Registry
	store       store.Store
	bus         *events.Bus
	categorizer *categorize.Categorizer
	cache       *cache.Cache

	// rebuildMu serialises builds; readers never take it
	rebuildMu sync.Mutex
	current   atomic.Pointer[Snapshot]
}

// New creates an empty workspace. A nil cfg uses config.Default().
func New(cfg *config.Config, opts Options) *Workspace {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	cat := opts.Categorizer
	if cat == nil {
		cat = categorize.New()
	}
	return &Workspace{
		cfg:         cfg,
		logger:      logger.With(logging.Component("workspace")),
		metrics:     opts.Metrics,
		store:       opts.Store,
		bus:         opts.Bus,
		categorizer: cat,
		cache:       cache.New(nil, opts.Metrics),
	}
}

// Config returns the workspace configuration
func (w *Workspace) Config() *config.Config { return w.cfg }

// Snapshot returns the current snapshot
func (w *Workspace) Snapshot() (*Snapshot, error) {
	snap := w.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Router returns the router of the current snapshot
func (w *Workspace) Router() (*router.Router, error) {
	snap, err := w.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Router, nil
}

// LoadFile parses path with the configured notation and rebuilds
func (w *Workspace) LoadFile(ctx context.Context, path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workflow map: %w", err)
	}
	defer f.Close()
	return w.Load(ctx, f, path)
}

// Load parses r with the configured notation and rebuilds. source is
// recorded on the snapshot; Reload re-reads it when it names a file.
func (w *Workspace) Load(ctx context.Context, r io.Reader, source string) (*Snapshot, error) {
	switch w.cfg.Parser.Notation {
	case "arrows":
		cmap, points, err := parser.ParseArrows(r)
		if err != nil {
			return nil, err
		}
		return w.build(ctx, cmap, points, source)
	default:
		cmap, err := parser.New(parser.Options{Strict: w.cfg.Parser.Strict, Logger: w.logger}).Parse(r)
		if err != nil {
			return nil, err
		}
		return w.Build(ctx, cmap, source)
	}
}

// Reload re-reads the file the current snapshot was loaded from
func (w *Workspace) Reload(ctx context.Context) (*Snapshot, error) {
	snap := w.current.Load()
	if snap == nil || snap.Source == "" {
		return nil, ErrNoSource
	}
	return w.LoadFile(ctx, snap.Source)
}

// Build categorizes cmap, places it on the configured helix and swaps in
// the resulting snapshot
func (w *Workspace) Build(ctx context.Context, cmap *workflow.CategorizedMap, source string) (*Snapshot, error) {
	return w.build(ctx, cmap, nil, source)
}

// build uses points when given, otherwise spiral coordinates
func (w *Workspace) build(ctx context.Context, cmap *workflow.CategorizedMap, points []workflow.SpiralPoint, source string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.rebuildMu.Lock()
	defer w.rebuildMu.Unlock()

	began := time.Now()
	categorized, workflows := w.categorizer.Categorize(cmap)
	if points == nil {
		points = w.cfg.SpiralGenerator().ForMap(categorized)
	}

	l, err := legend.Build(categorized, points, legend.Options{
		SpiralBase: w.cfg.Spiral.Base,
		Catalog:    workflows,
		Colors:     w.cfg.ColorTable(),
		Logger:     w.logger,
	})
	w.metrics.RecordLegendBuild(err, time.Since(began), l.Len(), categorized.Len())
	if err != nil {
		return nil, err
	}

	strategy, err := router.StrategyByName(w.cfg.Router.Strategy)
	if err != nil {
		return nil, err
	}
	g := router.BuildGraph(categorized, strategy)

	snap := &Snapshot{
		Map:       categorized,
		Legend:    l,
		Graph:     g,
		Workflows: workflows,
		Source:    source,
		BuiltAt:   time.Now().UTC(),
	}
	// The cache outlives snapshots; entries of removed addresses stay
	// until evicted.
	snap.Router = router.New(l, g, router.Options{
		Logger:  w.logger,
		Metrics: w.metrics,
		Cache:   w.cache,
	})
	w.current.Store(snap)

	meta := l.Metadata()
	w.logger.Info("workspace rebuilt",
		logging.Snapshot(meta.SnapshotID),
		logging.Count(l.Len()),
		logging.Int("edges", g.EdgeCount()),
		logging.String("strategy", g.Strategy()),
		logging.Latency(time.Since(began)),
	)
	w.publish(events.TopicLegendRebuilt, meta.SnapshotID, map[string]any{
		"processes":   meta.TotalProcesses,
		"located":     l.Len(),
		"edges":       g.EdgeCount(),
		"fingerprint": meta.Fingerprint,
		"source":      source,
	})
	if cycles := g.DetectCycles(); len(cycles) > 0 {
		w.publish(events.TopicCycleDetected, meta.SnapshotID, map[string]any{
			"cycles": len(cycles),
			"first":  cycles[0],
		})
	}

	return snap, nil
}

// ClearCacheByCategory evicts cached results of one category
func (w *Workspace) ClearCacheByCategory(category string) (int, error) {
	snap, err := w.Snapshot()
	if err != nil {
		return 0, err
	}
	n := snap.Router.ClearCacheByCategory(category)
	w.publish(events.TopicCacheEvicted, snap.Legend.Metadata().SnapshotID, map[string]any{
		"category": category,
		"evicted":  n,
	})
	return n, nil
}

// Save persists the current legend under name
func (w *Workspace) Save(ctx context.Context, name string) error {
	if w.store == nil {
		return ErrNoStore
	}
	snap, err := w.Snapshot()
	if err != nil {
		return err
	}
	if err := w.store.Save(ctx, name, snap.Legend.Document()); err != nil {
		return err
	}
	w.publish(events.TopicLegendSaved, snap.Legend.Metadata().SnapshotID, map[string]any{
		"name":    name,
		"backend": w.store.Backend(),
	})
	return nil
}

// Restore loads a persisted legend. The current snapshot is not replaced:
// a restored legend carries no map to rebuild the graph from.
func (w *Workspace) Restore(ctx context.Context, name string) (*legend.Legend, error) {
	if w.store == nil {
		return nil, ErrNoStore
	}
	doc, err := w.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return legend.FromDocument(doc)
}

// SavedLegends lists the names in the store
func (w *Workspace) SavedLegends(ctx context.Context) ([]string, error) {
	if w.store == nil {
		return nil, ErrNoStore
	}
	return w.store.List(ctx)
}

func (w *Workspace) publish(topic, snapshotID string, data map[string]any) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(events.New(topic, snapshotID, data))
}
