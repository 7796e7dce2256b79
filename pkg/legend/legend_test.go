package legend

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

func sampleMap() *workflow.CategorizedMap {
	m := workflow.NewCategorizedMap()
	m.Set("R1", workflow.ProcessDetails{Command: "load config", Category: workflow.CategoryData, Subprocesses: []workflow.Address{"R1.1"}})
	m.Set("R1.1", workflow.ProcessDetails{Command: "parse yaml", Category: workflow.CategoryData, Parent: "R1", Depth: 1})
	m.Set("R2", workflow.ProcessDetails{Command: "hash payload", Category: workflow.CategoryCrypto})
	m.Set("R3", workflow.ProcessDetails{Command: "recover panic", Category: workflow.CategoryError})
	m.Set("R4", workflow.ProcessDetails{Command: "sum totals", Category: workflow.CategoryComputation})
	return m
}

func linePoints(n int) []workflow.SpiralPoint {
	pts := make([]workflow.SpiralPoint, n)
	for i := range pts {
		pts[i] = workflow.SpiralPoint{
			Coords:     workflow.Coordinate{float64(i), 0, 0},
			Strand:     i % 2,
			BasePairID: i / 2,
			Angle:      float64(i/2) * math.Pi / 5,
			Index:      i,
		}
	}
	return pts
}

func buildSample(t *testing.T, n int) *Legend {
	t.Helper()
	l, err := Build(sampleMap(), linePoints(n), Options{SpiralBase: 10})
	require.NoError(t, err)
	return l
}

func TestBuild_EmptyMap(t *testing.T) {
	_, err := Build(workflow.NewCategorizedMap(), nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyMap)
}

func TestBuild_Locations(t *testing.T) {
	l := buildSample(t, 5)

	assert.Equal(t, 5, l.Len())
	loc, ok := l.Location("R1.1")
	require.True(t, ok)
	assert.Equal(t, "parse yaml", loc.Command)
	assert.Equal(t, workflow.Coordinate{1, 0, 0}, loc.Coordinates3D)
	assert.Equal(t, SpiralPosition{Strand: 1, BasePair: 0, Angle: 0, Index: 1}, loc.SpiralPosition)
	assert.Equal(t, workflow.Address("R1"), loc.WorkflowInfo.Parent)
	assert.Equal(t, 1, loc.WorkflowInfo.Depth)
	assert.Equal(t, "/data/R1/R1.1", loc.NavigationPath)

	md := l.Metadata()
	assert.Equal(t, 5, md.TotalProcesses)
	assert.Equal(t, 10, md.SpiralBase)
	assert.Equal(t, workflow.KnownCategories, md.Categories)
	assert.Equal(t, []workflow.Address{"R1", "R1.1", "R2", "R3", "R4"}, md.AddressOrder)
	assert.NotEmpty(t, md.SnapshotID)
	assert.Equal(t, workflow.Fingerprint(sampleMap()), md.Fingerprint)
}

func TestBuild_TruncatesToPoints(t *testing.T) {
	l := buildSample(t, 3)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 5, l.Metadata().TotalProcesses)
	_, ok := l.Coordinate("R3")
	assert.False(t, ok)
	assert.Equal(t, workflow.Origin, l.CoordinateOrOrigin("R4"))

	// navigation still covers the whole map
	assert.Len(t, l.Navigation().ErrorHandlers, 1)
}

func TestBuild_ExtraPointsIgnored(t *testing.T) {
	l := buildSample(t, 12)
	assert.Equal(t, 5, l.Len())
}

func TestBuild_Categories(t *testing.T) {
	l := buildSample(t, 5)

	data, ok := l.Category(workflow.CategoryData)
	require.True(t, ok)
	assert.Equal(t, []workflow.Address{"R1", "R1.1"}, data.Processes)
	assert.Equal(t, "#3B82F6", data.ColorCode)
	assert.Empty(t, data.Subcategories)

	ui, ok := l.Category(workflow.CategoryUI)
	require.True(t, ok, "known categories are listed even without members")
	assert.Empty(t, ui.Processes)
}

type staticCatalog map[string][]workflow.Address

func (s staticCatalog) Categories() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
func (s staticCatalog) Processes(cat string) []workflow.Address { return s[cat] }
func (s staticCatalog) Subcategories(cat string) []string       { return []string{"sub-" + cat} }

func TestBuild_CatalogAndColors(t *testing.T) {
	colors := DefaultColorTable().Merge(map[string]string{"custom": "#000000"})
	l, err := Build(sampleMap(), linePoints(5), Options{
		Catalog: staticCatalog{"custom": {"R2"}, "mystery": {"R3"}},
		Colors:  colors,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"custom", "mystery"}, l.CategoryNames())
	custom, _ := l.Category("custom")
	assert.Equal(t, "#000000", custom.ColorCode)
	assert.Equal(t, []string{"sub-custom"}, custom.Subcategories)
	mystery, _ := l.Category("mystery")
	assert.Equal(t, DefaultColor, mystery.ColorCode)
}

func TestColorTable(t *testing.T) {
	table := DefaultColorTable()
	assert.Equal(t, "#8B5CF6", table.ColorFor(workflow.CategoryCrypto))
	assert.Equal(t, DefaultColor, table.ColorFor("unknown"))
	assert.Equal(t, "#111111", ColorTable{Default: "#111111"}.ColorFor("x"))
	assert.Equal(t, DefaultColor, ColorTable{}.ColorFor("x"))

	merged := table.Merge(map[string]string{workflow.CategoryCrypto: "#FFFFFF"})
	assert.Equal(t, "#FFFFFF", merged.ColorFor(workflow.CategoryCrypto))
	assert.Equal(t, "#8B5CF6", table.ColorFor(workflow.CategoryCrypto), "merge must not mutate the base table")
}

func TestNavigation(t *testing.T) {
	nav := buildSample(t, 5).Navigation()

	entry := make([]workflow.Address, 0)
	for _, s := range nav.EntryPoints {
		entry = append(entry, s.Address)
	}
	assert.Equal(t, []workflow.Address{"R1", "R2", "R3", "R4"}, entry)

	assert.Equal(t, []Shortcut{
		{Address: "R2", Category: workflow.CategoryCrypto, Path: "/crypto/R2"},
		{Address: "R4", Category: workflow.CategoryComputation, Path: "/computation/R4"},
	}, nav.CriticalPaths)
	assert.Equal(t, []Shortcut{{Address: "R3", Path: "/error/R3"}}, nav.ErrorHandlers)
	assert.Len(t, nav.DataFlows, 2)
}

func TestNavigationPath(t *testing.T) {
	assert.Equal(t, "/io/W1", NavigationPath("W1", workflow.ProcessDetails{Category: "io"}))
	assert.Equal(t, "/io/W1/W1.2", NavigationPath("W1.2", workflow.ProcessDetails{Category: "io", Parent: "W1"}))
}

func TestFindByLocation(t *testing.T) {
	l := buildSample(t, 5)

	addr, loc, ok := l.FindByLocation(workflow.Coordinate{2, 0, 0}, 0)
	require.True(t, ok)
	assert.Equal(t, workflow.Address("R2"), addr)
	assert.Equal(t, "hash payload", loc.Command)

	_, _, ok = l.FindByLocation(workflow.Coordinate{2.5, 0, 0}, 0.1)
	assert.False(t, ok)

	// first match in map order wins even though R3 is closer
	addr, _, ok = l.FindByLocation(workflow.Coordinate{2.9, 0, 0}, 1.0)
	require.True(t, ok)
	assert.Equal(t, workflow.Address("R2"), addr)
}

func TestNearby(t *testing.T) {
	l := buildSample(t, 5)

	near := l.Nearby("R2", 1.5)
	require.Len(t, near, 2)
	assert.Equal(t, workflow.Address("R1.1"), near[0].Address, "ties keep map order")
	assert.Equal(t, workflow.Address("R3"), near[1].Address)
	assert.Equal(t, 1.0, near[0].Distance)
	assert.Equal(t, "recover panic", near[1].Location.Command)

	assert.Empty(t, l.Nearby("missing", 100))
	assert.Len(t, l.Nearby("R1", 100), 4)
}

func TestAddressLookup(t *testing.T) {
	lookup := buildSample(t, 5).AddressLookup()
	require.Len(t, lookup, 5)
	assert.Equal(t, LookupEntry{
		Coords:   workflow.Coordinate{4, 0, 0},
		Category: workflow.CategoryComputation,
		Path:     "/computation/R4",
		BasePair: 2,
	}, lookup["R4"])

	var empty *Legend
	assert.Empty(t, empty.AddressLookup())
	assert.Equal(t, 0, empty.Len())
}

func TestDocumentRoundTrip(t *testing.T) {
	l := buildSample(t, 4)

	var buf bytes.Buffer
	require.NoError(t, l.Document().WriteJSON(&buf))

	doc, err := ReadDocument(&buf)
	require.NoError(t, err)
	restored, err := FromDocument(doc)
	require.NoError(t, err)

	orig := l.Document()
	back := restored.Document()
	assert.Equal(t, orig.Locations, back.Locations)
	assert.Equal(t, orig.Categories, back.Categories)
	assert.Equal(t, orig.Navigation, back.Navigation)
	assert.Equal(t, l.Addresses(), restored.Addresses())
	assert.Equal(t, l.CategoryNames(), restored.CategoryNames())
	assert.Equal(t, orig.Metadata.SnapshotID, back.Metadata.SnapshotID)
	assert.True(t, orig.Metadata.GeneratedAt.Equal(back.Metadata.GeneratedAt))
}

func TestFromDocument_Invalid(t *testing.T) {
	_, err := FromDocument(nil)
	assert.ErrorIs(t, err, ErrNoLegend)

	doc := buildSample(t, 3).Document()
	doc.Metadata.AddressOrder = doc.Metadata.AddressOrder[:2]
	_, err = FromDocument(doc)
	assert.Error(t, err)

	doc = buildSample(t, 3).Document()
	doc.Metadata.AddressOrder[0] = "nope"
	_, err = FromDocument(doc)
	assert.Error(t, err)
}

func TestReadDocument_Malformed(t *testing.T) {
	_, err := ReadDocument(bytes.NewBufferString("{"))
	assert.Error(t, err)
}

// mapFromCoords builds a map with one address per three values of xs
func mapFromCoords(xs []float64) (*workflow.CategorizedMap, []workflow.SpiralPoint) {
	m := workflow.NewCategorizedMap()
	var pts []workflow.SpiralPoint
	for i := 0; i+2 < len(xs); i += 3 {
		addr := workflow.Address(fmt.Sprintf("P%d", i/3))
		m.Set(addr, workflow.ProcessDetails{Command: "noop", Category: workflow.CategoryGeneral})
		pts = append(pts, workflow.SpiralPoint{
			Coords: workflow.Coordinate{xs[i], xs[i+1], xs[i+2]},
			Index:  i / 3,
		})
	}
	return m, pts
}

func TestLegendProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	coordsGen := gen.SliceOfN(30, gen.Float64Range(-10, 10))

	properties.Property("every address gets the coordinate at its index", prop.ForAll(
		func(xs []float64, extra int) bool {
			m, pts := mapFromCoords(xs)
			for i := 0; i < extra; i++ {
				pts = append(pts, workflow.SpiralPoint{Coords: workflow.Coordinate{99, 99, 99}})
			}
			l, err := Build(m, pts, Options{})
			if err != nil {
				return m.Len() == 0
			}
			if l.Len() != m.Len() {
				return false
			}
			for i, addr := range m.Addresses() {
				c, ok := l.Coordinate(addr)
				if !ok || c != pts[i].Coords {
					return false
				}
			}
			return true
		},
		coordsGen,
		gen.IntRange(0, 5),
	))

	properties.Property("find by location matches iff a coordinate is within tolerance", prop.ForAll(
		func(xs []float64, qx, qy, qz, tol float64) bool {
			m, pts := mapFromCoords(xs)
			l, err := Build(m, pts, Options{})
			if err != nil {
				return true
			}
			q := workflow.Coordinate{qx, qy, qz}
			want := false
			for _, p := range pts {
				if distance(q, p.Coords) <= tol {
					want = true
					break
				}
			}
			addr, _, ok := l.FindByLocation(q, tol)
			if ok != want {
				return false
			}
			if ok {
				c, _ := l.Coordinate(addr)
				return distance(q, c) <= tol
			}
			return true
		},
		coordsGen,
		gen.Float64Range(-10, 10),
		gen.Float64Range(-10, 10),
		gen.Float64Range(-10, 10),
		gen.Float64Range(0, 8),
	))

	properties.Property("exact lookup at tolerance zero", prop.ForAll(
		func(xs []float64, idx int) bool {
			m, pts := mapFromCoords(xs)
			l, err := Build(m, pts, Options{})
			if err != nil || idx >= len(pts) {
				return true
			}
			addr, _, ok := l.FindByLocation(pts[idx].Coords, 0)
			if !ok {
				return false
			}
			c, _ := l.Coordinate(addr)
			return c == pts[idx].Coords
		},
		coordsGen,
		gen.IntRange(0, 9),
	))

	properties.Property("nearby is sorted, bounded and excludes the centre", prop.ForAll(
		func(xs []float64, idx int, radius float64) bool {
			m, pts := mapFromCoords(xs)
			l, err := Build(m, pts, Options{})
			if err != nil || idx >= len(pts) {
				return true
			}
			center := m.Addresses()[idx]
			near := l.Nearby(center, radius)
			for i, n := range near {
				if n.Address == center || n.Distance > radius {
					return false
				}
				if i > 0 && near[i-1].Distance > n.Distance {
					return false
				}
			}
			return true
		},
		coordsGen,
		gen.IntRange(0, 9),
		gen.Float64Range(0, 20),
	))

	properties.TestingRun(t)
}
