package legend

import (
	"sort"

	"github.com/dd0wney/cyberdna/pkg/vector"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

func distance(a, b workflow.Coordinate) float64 {
	d, _ := vector.EuclideanDistance(a.Slice(), b.Slice()) // both are 3-D
	return d
}

// FindByLocation returns the first indexed address, in map order, whose
// coordinate lies within tolerance of coord. The first match wins even if
// a later address is closer.
func (l *Legend) FindByLocation(coord workflow.Coordinate, tolerance float64) (workflow.Address, LocationEntry, bool) {
	if l == nil {
		return "", LocationEntry{}, false
	}
	for _, addr := range l.order {
		if distance(coord, l.coords[addr]) <= tolerance {
			return addr, l.locations[addr].clone(), true
		}
	}
	return "", LocationEntry{}, false
}

// Nearby returns the other indexed addresses within radius (inclusive) of
// addr, nearest first. Equal distances keep map order. An unknown addr
// yields an empty result.
func (l *Legend) Nearby(addr workflow.Address, radius float64) []NearbyProcess {
	nearby := []NearbyProcess{}
	if l == nil {
		return nearby
	}
	center, ok := l.coords[addr]
	if !ok {
		return nearby
	}

	for _, other := range l.order {
		if other == addr {
			continue
		}
		d := distance(center, l.coords[other])
		if d <= radius {
			nearby = append(nearby, NearbyProcess{
				Address:  other,
				Distance: d,
				Location: l.locations[other].clone(),
			})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})
	return nearby
}

// AddressLookup projects the legend into a compact per-address table
func (l *Legend) AddressLookup() map[workflow.Address]LookupEntry {
	lookup := make(map[workflow.Address]LookupEntry)
	if l == nil {
		return lookup
	}
	for addr, loc := range l.locations {
		lookup[addr] = LookupEntry{
			Coords:   loc.Coordinates3D,
			Category: loc.Category,
			Path:     loc.NavigationPath,
			BasePair: loc.SpiralPosition.BasePair,
		}
	}
	return lookup
}

// Coordinate returns the indexed coordinate of addr
func (l *Legend) Coordinate(addr workflow.Address) (workflow.Coordinate, bool) {
	if l == nil {
		return workflow.Coordinate{}, false
	}
	c, ok := l.coords[addr]
	return c, ok
}

// CoordinateOrOrigin returns the coordinate of addr or the origin
func (l *Legend) CoordinateOrOrigin(addr workflow.Address) workflow.Coordinate {
	if c, ok := l.Coordinate(addr); ok {
		return c
	}
	return workflow.Origin
}

// Location returns the location entry of addr
func (l *Legend) Location(addr workflow.Address) (LocationEntry, bool) {
	if l == nil {
		return LocationEntry{}, false
	}
	loc, ok := l.locations[addr]
	if !ok {
		return LocationEntry{}, false
	}
	return loc.clone(), true
}

// CategoryOf returns the category recorded for a located address
func (l *Legend) CategoryOf(addr workflow.Address) (string, bool) {
	if l == nil {
		return "", false
	}
	loc, ok := l.locations[addr]
	if !ok {
		return "", false
	}
	return loc.Category, true
}

// Addresses returns the located addresses in map order
func (l *Legend) Addresses() []workflow.Address {
	if l == nil {
		return nil
	}
	return append([]workflow.Address(nil), l.order...)
}

// Len returns the number of location entries
func (l *Legend) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Metadata returns the legend metadata
func (l *Legend) Metadata() Metadata {
	if l == nil {
		return Metadata{}
	}
	m := l.metadata
	m.Categories = append([]string(nil), l.metadata.Categories...)
	m.AddressOrder = append([]workflow.Address(nil), l.metadata.AddressOrder...)
	return m
}

// CategoryNames returns the category names in catalog order
func (l *Legend) CategoryNames() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.categoryOrder...)
}

// Category returns the group for one category
func (l *Legend) Category(name string) (CategoryGroup, bool) {
	if l == nil {
		return CategoryGroup{}, false
	}
	g, ok := l.categories[name]
	if !ok {
		return CategoryGroup{}, false
	}
	return cloneGroup(g), true
}

// Navigation returns the navigation shortcuts
func (l *Legend) Navigation() Navigation {
	if l == nil {
		return Navigation{}
	}
	return Navigation{
		EntryPoints:   append([]Shortcut{}, l.navigation.EntryPoints...),
		CriticalPaths: append([]Shortcut{}, l.navigation.CriticalPaths...),
		ErrorHandlers: append([]Shortcut{}, l.navigation.ErrorHandlers...),
		DataFlows:     append([]Shortcut{}, l.navigation.DataFlows...),
	}
}

func cloneGroup(g CategoryGroup) CategoryGroup {
	return CategoryGroup{
		Processes:     append([]workflow.Address{}, g.Processes...),
		Subcategories: append([]string{}, g.Subcategories...),
		ColorCode:     g.ColorCode,
	}
}
