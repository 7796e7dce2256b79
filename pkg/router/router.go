// Package router infers a dependency graph over a categorized workflow
// map and answers path, route and execution-order queries against it.
package router

import (
	"errors"
	"time"

	"github.com/dd0wney/cyberdna/pkg/cache"
	"github.com/dd0wney/cyberdna/pkg/legend"
	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/metrics"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Path is a forward route between two addresses. Length counts edges.
type Path struct {
	Addresses   []workflow.Address    `json:"path"`
	Length      int                   `json:"length"`
	Coordinates []workflow.Coordinate `json:"coordinates"`
}

// Route describes how to reach and run a single address
type Route struct {
	Target               workflow.Address    `json:"target"`
	Coordinates          workflow.Coordinate `json:"coordinates"`
	NavigationPath       string              `json:"navigation_path"`
	RequiredDependencies []workflow.Address  `json:"required_dependencies"`
	Category             string              `json:"category"`
	ExecutionOrder       []workflow.Address  `json:"execution_order"`
}

// Options configures a Router
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
	// Cache is shared across rebuilds; a fresh one is created when nil
	Cache *cache.Cache
}

// Router answers queries over one legend and graph snapshot. The legend
// is borrowed, never modified.
type Router struct {
	legend  *legend.Legend
	graph   *Graph
	cache   *cache.Cache
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates a router over the given snapshots
func New(l *legend.Legend, g *Graph, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := opts.Cache
	if c == nil {
		c = cache.New(l, opts.Metrics)
	} else {
		c.SetLocator(l)
	}
	opts.Metrics.UpdateGraphSize(g.NodeCount(), g.EdgeCount())

	return &Router{
		legend:  l,
		graph:   g,
		cache:   c,
		logger:  logger.With(logging.Component("router")),
		metrics: opts.Metrics,
	}
}

// Graph returns the dependency graph snapshot
func (r *Router) Graph() *Graph { return r.graph }

// Legend returns the legend snapshot the router reads coordinates from
func (r *Router) Legend() *legend.Legend { return r.legend }

// Cache returns the result cache
func (r *Router) Cache() *cache.Cache { return r.cache }

// FindOptimalPath returns the shortest path from start to target along
// RequiredBy edges. Addresses without a legend coordinate are placed at
// the origin.
func (r *Router) FindOptimalPath(start, target workflow.Address) (*Path, bool) {
	began := time.Now()
	addrs, ok := r.graph.ForwardPath(start, target)
	r.metrics.RecordRouterQuery("path", ok, nil, time.Since(began))

	if !ok {
		r.logger.Debug("no forward path",
			logging.String("start", string(start)),
			logging.String("target", string(target)),
		)
		return nil, false
	}

	coords := make([]workflow.Coordinate, len(addrs))
	for i, addr := range addrs {
		coords[i] = r.legend.CoordinateOrOrigin(addr)
	}
	return &Path{
		Addresses:   addrs,
		Length:      len(addrs) - 1,
		Coordinates: coords,
	}, true
}

// DirectRoute assembles the route to target. It fails with ErrNotFound
// when target has no legend coordinate and with a *CycleError when its
// dependencies are cyclic.
func (r *Router) DirectRoute(target workflow.Address) (*Route, error) {
	began := time.Now()

	loc, ok := r.legend.Location(target)
	if !ok {
		r.metrics.RecordRouterQuery("route", false, nil, time.Since(began))
		return nil, ErrNotFound
	}

	order, err := r.ExecutionOrder(target)
	if err != nil {
		r.metrics.RecordRouterQuery("route", false, err, time.Since(began))
		return nil, err
	}

	route := &Route{
		Target:               target,
		Coordinates:          loc.Coordinates3D,
		NavigationPath:       loc.NavigationPath,
		RequiredDependencies: r.graph.DependsOn(target),
		Category:             loc.Category,
		ExecutionOrder:       order,
	}
	r.metrics.RecordRouterQuery("route", true, nil, time.Since(began))
	return route, nil
}

// ExecutionOrder returns target's dependencies followed by target
func (r *Router) ExecutionOrder(target workflow.Address) ([]workflow.Address, error) {
	order, err := r.graph.ExecutionOrder(target)
	if err != nil {
		var cycle *CycleError
		if errors.As(err, &cycle) {
			r.metrics.RecordCycle()
			r.logger.Warn("dependency cycle",
				logging.Address(target),
				logging.Any("cycle", cycle.Cycle),
			)
		}
		return nil, err
	}
	return order, nil
}

// CacheResult stores a computed result for addr
func (r *Router) CacheResult(addr workflow.Address, result any) cache.Entry {
	return r.cache.Put(addr, result)
}

// CachedResult returns the cached entry for addr
func (r *Router) CachedResult(addr workflow.Address) (cache.Entry, bool) {
	return r.cache.Get(addr)
}

// ClearCacheByCategory evicts cached results whose address belongs to
// category and returns how many were removed
func (r *Router) ClearCacheByCategory(category string) int {
	n := r.cache.EvictCategory(category)
	if n > 0 {
		r.logger.Debug("cache evicted", logging.Category(category), logging.Count(n))
	}
	return n
}
