package legend

import (
	"strings"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// NavigationPath builds "/{category}[/{parent}]/{address}".
// Segments are not escaped, so addresses containing "/" produce
// ambiguous paths.
func NavigationPath(addr workflow.Address, details workflow.ProcessDetails) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(details.Category)
	if details.HasParent() {
		b.WriteString("/")
		b.WriteString(string(details.Parent))
	}
	b.WriteString("/")
	b.WriteString(string(addr))
	return b.String()
}

// buildNavigation classifies every map address into the shortcut buckets.
// Buckets are independent; one address may appear in several.
func buildNavigation(cmap *workflow.CategorizedMap) Navigation {
	nav := Navigation{
		EntryPoints:   []Shortcut{},
		CriticalPaths: []Shortcut{},
		ErrorHandlers: []Shortcut{},
		DataFlows:     []Shortcut{},
	}

	for addr, d := range cmap.All() {
		path := NavigationPath(addr, d)

		if d.Depth == 0 {
			nav.EntryPoints = append(nav.EntryPoints, Shortcut{Address: addr, Path: path})
		}

		switch d.Category {
		case workflow.CategoryComputation, workflow.CategoryCrypto:
			nav.CriticalPaths = append(nav.CriticalPaths, Shortcut{Address: addr, Category: d.Category, Path: path})
		case workflow.CategoryError:
			nav.ErrorHandlers = append(nav.ErrorHandlers, Shortcut{Address: addr, Path: path})
		case workflow.CategoryData:
			nav.DataFlows = append(nav.DataFlows, Shortcut{Address: addr, Path: path})
		}
	}

	return nav
}
