package legend

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Build generates a new legend from a categorized map and the spiral
// points produced for it. The i-th map entry is paired with the i-th
// point: surplus points are ignored and addresses beyond the last point
// get no location entry. Navigation shortcuts cover the whole map.
func Build(cmap *workflow.CategorizedMap, points []workflow.SpiralPoint, opts Options) (*Legend, error) {
	if cmap.Len() == 0 {
		return nil, ErrEmptyMap
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timer := logging.StartTimer(logger, "legend generated", logging.Component("legend"))

	colors := opts.Colors
	if colors.Colors == nil {
		colors = DefaultColorTable()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = newMapCatalog(cmap)
	}

	l := &Legend{
		locations:  make(map[workflow.Address]LocationEntry, cmap.Len()),
		coords:     make(map[workflow.Address]workflow.Coordinate, cmap.Len()),
		order:      make([]workflow.Address, 0, cmap.Len()),
		categories: make(map[string]CategoryGroup),
	}

	i := 0
	for addr, details := range cmap.All() {
		if i >= len(points) {
			break
		}
		point := points[i]
		i++

		l.locations[addr] = LocationEntry{
			Address:       addr,
			Command:       details.Command,
			Category:      details.Category,
			Coordinates3D: point.Coords,
			SpiralPosition: SpiralPosition{
				Strand:   point.Strand,
				BasePair: point.BasePairID,
				Angle:    point.Angle,
				Index:    point.Index,
			},
			WorkflowInfo: WorkflowInfo{
				Parent:       details.Parent,
				Depth:        details.Depth,
				Subprocesses: nonNil(details.Subprocesses),
			},
			NavigationPath: NavigationPath(addr, details),
		}
		l.coords[addr] = point.Coords
		l.order = append(l.order, addr)
	}

	if skipped := cmap.Len() - len(l.order); skipped > 0 {
		logger.Debug("addresses without coordinates skipped",
			logging.Component("legend"),
			logging.Count(skipped),
		)
	}

	for _, category := range catalog.Categories() {
		l.categories[category] = CategoryGroup{
			Processes:     nonNil(catalog.Processes(category)),
			Subcategories: nonNilStrings(catalog.Subcategories(category)),
			ColorCode:     colors.ColorFor(category),
		}
		l.categoryOrder = append(l.categoryOrder, category)
	}

	l.navigation = buildNavigation(cmap)

	l.metadata = Metadata{
		TotalProcesses: cmap.Len(),
		SpiralBase:     opts.SpiralBase,
		Categories:     append([]string(nil), l.categoryOrder...),
		AddressOrder:   append([]workflow.Address(nil), l.order...),
		SnapshotID:     uuid.NewString(),
		Fingerprint:    workflow.Fingerprint(cmap),
		GeneratedAt:    time.Now().UTC(),
	}

	timer.End(logging.Count(len(l.order)))
	return l, nil
}

func nonNil(in []workflow.Address) []workflow.Address {
	if in == nil {
		return []workflow.Address{}
	}
	return append([]workflow.Address(nil), in...)
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

// mapCatalog groups the map's own categories when no categorizer is supplied
type mapCatalog struct {
	order   []string
	members map[string][]workflow.Address
}

func newMapCatalog(cmap *workflow.CategorizedMap) *mapCatalog {
	c := &mapCatalog{members: make(map[string][]workflow.Address)}
	for _, cat := range workflow.KnownCategories {
		c.order = append(c.order, cat)
		c.members[cat] = []workflow.Address{}
	}
	for addr, d := range cmap.All() {
		if _, ok := c.members[d.Category]; !ok {
			c.order = append(c.order, d.Category)
		}
		c.members[d.Category] = append(c.members[d.Category], addr)
	}
	return c
}

func (c *mapCatalog) Categories() []string                     { return c.order }
func (c *mapCatalog) Processes(cat string) []workflow.Address { return c.members[cat] }
func (c *mapCatalog) Subcategories(string) []string            { return nil }
