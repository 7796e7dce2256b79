package graphql

import (
	"fmt"

	"github.com/dd0wney/cyberdna/pkg/audit"
	"github.com/dd0wney/cyberdna/pkg/cache"
	"github.com/dd0wney/cyberdna/pkg/legend"
	"github.com/dd0wney/cyberdna/pkg/router"
	"github.com/dd0wney/cyberdna/pkg/workflow"
	"github.com/dd0wney/cyberdna/pkg/workspace"
)

// The resolvers hand graphql-go plain maps and slices so field names
// follow the schema rather than the Go structs.

func addressStrings(addrs []workflow.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = string(a)
	}
	return out
}

func coordView(c workflow.Coordinate) []float64 {
	return c.Slice()
}

func metadataView(snap *workspace.Snapshot) map[string]any {
	meta := snap.Legend.Metadata()
	return map[string]any{
		"totalProcesses": meta.TotalProcesses,
		"located":        snap.Legend.Len(),
		"spiralBase":     meta.SpiralBase,
		"categories":     meta.Categories,
		"snapshotId":     meta.SnapshotID,
		"fingerprint":    meta.Fingerprint,
		"generatedAt":    meta.GeneratedAt,
		"strategy":       snap.Graph.Strategy(),
		"edges":          snap.Graph.EdgeCount(),
	}
}

func locationView(loc legend.LocationEntry) map[string]any {
	return map[string]any{
		"address":     string(loc.Address),
		"command":     loc.Command,
		"category":    loc.Category,
		"coordinates": coordView(loc.Coordinates3D),
		"spiralPosition": map[string]any{
			"strand":   loc.SpiralPosition.Strand,
			"basePair": loc.SpiralPosition.BasePair,
			"angle":    loc.SpiralPosition.Angle,
			"index":    loc.SpiralPosition.Index,
		},
		"parent":         string(loc.WorkflowInfo.Parent),
		"depth":          loc.WorkflowInfo.Depth,
		"subprocesses":   addressStrings(loc.WorkflowInfo.Subprocesses),
		"navigationPath": loc.NavigationPath,
	}
}

func nearbyView(n legend.NearbyProcess) map[string]any {
	return map[string]any{
		"address":  string(n.Address),
		"distance": n.Distance,
		"location": locationView(n.Location),
	}
}

func categoryView(name string, g legend.CategoryGroup) map[string]any {
	return map[string]any{
		"name":          name,
		"processes":     addressStrings(g.Processes),
		"subcategories": g.Subcategories,
		"color":         g.ColorCode,
	}
}

func shortcutsView(list []legend.Shortcut) []map[string]any {
	out := make([]map[string]any, len(list))
	for i, s := range list {
		out[i] = map[string]any{
			"address":  string(s.Address),
			"category": s.Category,
			"path":     s.Path,
		}
	}
	return out
}

func navigationView(nav legend.Navigation) map[string]any {
	return map[string]any{
		"entryPoints":   shortcutsView(nav.EntryPoints),
		"criticalPaths": shortcutsView(nav.CriticalPaths),
		"errorHandlers": shortcutsView(nav.ErrorHandlers),
		"dataFlows":     shortcutsView(nav.DataFlows),
	}
}

func pathView(p *router.Path) map[string]any {
	coords := make([][]float64, len(p.Coordinates))
	for i, c := range p.Coordinates {
		coords[i] = coordView(c)
	}
	return map[string]any{
		"addresses":   addressStrings(p.Addresses),
		"length":      p.Length,
		"coordinates": coords,
	}
}

func routeView(r *router.Route) map[string]any {
	return map[string]any{
		"target":               string(r.Target),
		"coordinates":          coordView(r.Coordinates),
		"navigationPath":       r.NavigationPath,
		"requiredDependencies": addressStrings(r.RequiredDependencies),
		"category":             r.Category,
		"executionOrder":       addressStrings(r.ExecutionOrder),
	}
}

func nodeView(n router.Node) map[string]any {
	return map[string]any{
		"address":    string(n.Address),
		"category":   n.Category,
		"dependsOn":  addressStrings(n.DependsOn),
		"requiredBy": addressStrings(n.RequiredBy),
		"inferred":   n.Inferred,
	}
}

func cacheEntryView(addr workflow.Address, e cache.Entry) map[string]any {
	return map[string]any{
		"address":     string(addr),
		"result":      fmt.Sprint(e.Result),
		"timestamp":   e.Timestamp,
		"coordinates": coordView(e.Coordinate),
	}
}

func auditEventView(e *audit.Event) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"timestamp":  e.Timestamp,
		"subject":    e.Subject,
		"role":       e.Role,
		"action":     string(e.Action),
		"resource":   e.Resource,
		"status":     string(e.Status),
		"error":      e.ErrorMessage,
		"snapshotId": e.SnapshotID,
	}
}
