package graphql

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cyberdna/pkg/router"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Unknown addresses resolve to null rather than an error.

func (r *resolver) legend(graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	return metadataView(snap), nil
}

func (r *resolver) location(p graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	loc, ok := snap.Legend.Location(addressArgument(p, "address"))
	if !ok {
		return nil, nil
	}
	return locationView(loc), nil
}

func (r *resolver) locations(p graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	category, _ := p.Args["category"].(string)

	out := []map[string]any{}
	for _, addr := range snap.Legend.Addresses() {
		loc, _ := snap.Legend.Location(addr)
		if category != "" && loc.Category != category {
			continue
		}
		out = append(out, locationView(loc))
	}
	return out, nil
}

func (r *resolver) findByLocation(p graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	coord := workflow.Coordinate{
		floatArgument(p, "x", 0),
		floatArgument(p, "y", 0),
		floatArgument(p, "z", 0),
	}
	_, loc, ok := snap.Legend.FindByLocation(coord, floatArgument(p, "tolerance", r.ws.Config().Legend.Tolerance))
	if !ok {
		return nil, nil
	}
	return locationView(loc), nil
}

func (r *resolver) nearby(p graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	found := snap.Legend.Nearby(addressArgument(p, "address"), floatArgument(p, "radius", r.ws.Config().Legend.Radius))
	out := make([]map[string]any, len(found))
	for i, n := range found {
		out[i] = nearbyView(n)
	}
	return out, nil
}

func (r *resolver) categories(graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	names := snap.Legend.CategoryNames()
	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		g, _ := snap.Legend.Category(name)
		out = append(out, categoryView(name, g))
	}
	return out, nil
}

func (r *resolver) navigation(graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	return navigationView(snap.Legend.Navigation()), nil
}

func (r *resolver) path(p graphql.ResolveParams) (any, error) {
	rt, err := r.ws.Router()
	if err != nil {
		return nil, err
	}
	path, ok := rt.FindOptimalPath(addressArgument(p, "start"), addressArgument(p, "target"))
	if !ok {
		return nil, nil
	}
	return pathView(path), nil
}

func (r *resolver) route(p graphql.ResolveParams) (any, error) {
	rt, err := r.ws.Router()
	if err != nil {
		return nil, err
	}
	route, err := rt.DirectRoute(addressArgument(p, "target"))
	if errors.Is(err, router.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return routeView(route), nil
}

func (r *resolver) executionOrder(p graphql.ResolveParams) (any, error) {
	rt, err := r.ws.Router()
	if err != nil {
		return nil, err
	}
	order, err := rt.ExecutionOrder(addressArgument(p, "target"))
	if err != nil {
		return nil, err
	}
	return addressStrings(order), nil
}

func (r *resolver) topologicalOrder(graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	order, err := snap.Graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	return addressStrings(order), nil
}

func (r *resolver) cycles(graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	found := snap.Graph.DetectCycles()
	out := make([][]string, len(found))
	for i, c := range found {
		out[i] = addressStrings(c)
	}
	return out, nil
}

func (r *resolver) dependency(p graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Snapshot()
	if err != nil {
		return nil, err
	}
	n, ok := snap.Graph.Node(addressArgument(p, "address"))
	if !ok {
		return nil, nil
	}
	return nodeView(n), nil
}

func (r *resolver) cached(p graphql.ResolveParams) (any, error) {
	rt, err := r.ws.Router()
	if err != nil {
		return nil, err
	}
	addr := addressArgument(p, "address")
	entry, ok := rt.CachedResult(addr)
	if !ok {
		return nil, nil
	}
	return cacheEntryView(addr, entry), nil
}

func (r *resolver) reload(p graphql.ResolveParams) (any, error) {
	snap, err := r.ws.Reload(p.Context)
	if err != nil {
		return nil, err
	}
	return metadataView(snap), nil
}

func (r *resolver) cacheResult(p graphql.ResolveParams) (any, error) {
	rt, err := r.ws.Router()
	if err != nil {
		return nil, err
	}
	addr := addressArgument(p, "address")
	result, _ := p.Args["result"].(string)
	return cacheEntryView(addr, rt.CacheResult(addr, result)), nil
}

func (r *resolver) clearCache(p graphql.ResolveParams) (any, error) {
	category, _ := p.Args["category"].(string)
	return r.ws.ClearCacheByCategory(category)
}

func (r *resolver) save(p graphql.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	if err := r.ws.Save(p.Context, name); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *resolver) auditLog(p graphql.ResolveParams) (any, error) {
	if _, err := r.authorize(p); err != nil {
		return nil, err
	}
	if r.opts.Audit == nil {
		return []map[string]any{}, nil
	}
	limit, _ := p.Args["limit"].(int)
	events := r.opts.Audit.Recent(limit)
	out := make([]map[string]any, len(events))
	for i, e := range events {
		out[i] = auditEventView(e)
	}
	return out, nil
}
