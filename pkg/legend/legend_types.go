package legend

import (
	"errors"
	"time"

	"github.com/dd0wney/cyberdna/pkg/logging"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

var (
	ErrEmptyMap = errors.New("categorized map is empty")
	ErrNoLegend = errors.New("legend has not been generated")
)

// Metadata summarises a generated legend
type Metadata struct {
	TotalProcesses int                `json:"total_processes"`
	SpiralBase     int                `json:"spiral_base"`
	Categories     []string           `json:"categories"`
	AddressOrder   []workflow.Address `json:"address_order"`
	SnapshotID     string             `json:"snapshot_id"`
	Fingerprint    string             `json:"fingerprint"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// SpiralPosition is the generator metadata attached to a location
type SpiralPosition struct {
	Strand   int     `json:"strand"`
	BasePair int     `json:"base_pair"`
	Angle    float64 `json:"angle"`
	Index    int     `json:"index"`
}

// WorkflowInfo carries the hierarchy of a location
type WorkflowInfo struct {
	Parent       workflow.Address   `json:"parent,omitempty"`
	Depth        int                `json:"depth"`
	Subprocesses []workflow.Address `json:"subprocesses"`
}

// LocationEntry is the legend record for one located address
type LocationEntry struct {
	Address        workflow.Address    `json:"address"`
	Command        string              `json:"command"`
	Category       string              `json:"category"`
	Coordinates3D  workflow.Coordinate `json:"coordinates_3d"`
	SpiralPosition SpiralPosition      `json:"spiral_position"`
	WorkflowInfo   WorkflowInfo        `json:"workflow_info"`
	NavigationPath string              `json:"navigation_path"`
}

func (e LocationEntry) clone() LocationEntry {
	c := e
	c.WorkflowInfo.Subprocesses = append([]workflow.Address{}, e.WorkflowInfo.Subprocesses...)
	return c
}

// CategoryGroup lists the members of one workflow category
type CategoryGroup struct {
	Processes     []workflow.Address `json:"processes"`
	Subcategories []string           `json:"subcategories"`
	ColorCode     string             `json:"color_code"`
}

// Shortcut is one navigation shortcut entry. Category is only set for
// critical paths.
type Shortcut struct {
	Address  workflow.Address `json:"address"`
	Category string           `json:"category,omitempty"`
	Path     string           `json:"path"`
}

// Navigation holds the shortcut buckets computed at generation time
type Navigation struct {
	EntryPoints   []Shortcut `json:"entry_points"`
	CriticalPaths []Shortcut `json:"critical_paths"`
	ErrorHandlers []Shortcut `json:"error_handlers"`
	DataFlows     []Shortcut `json:"data_flows"`
}

// NearbyProcess is one result of a proximity query
type NearbyProcess struct {
	Address  workflow.Address `json:"address"`
	Distance float64          `json:"distance"`
	Location LocationEntry    `json:"location_data"`
}

// LookupEntry is the compact per-address projection of the legend
type LookupEntry struct {
	Coords   workflow.Coordinate `json:"coords"`
	Category string              `json:"category"`
	Path     string              `json:"path"`
	BasePair int                 `json:"base_pair"`
}

// Catalog supplies the known workflow categories and their members.
// The legend groups addresses from the catalog, not from the map.
type Catalog interface {
	Categories() []string
	Processes(category string) []workflow.Address
	Subcategories(category string) []string
}

// Options configures legend generation
type Options struct {
	SpiralBase int
	Catalog    Catalog
	Colors     ColorTable
	Logger     logging.Logger
}

// Legend is an immutable snapshot of the spatial registry. All accessors
// return copies; a Legend may be shared between goroutines.
type Legend struct {
	metadata      Metadata
	locations     map[workflow.Address]LocationEntry
	coords        map[workflow.Address]workflow.Coordinate
	order         []workflow.Address
	categories    map[string]CategoryGroup
	categoryOrder []string
	navigation    Navigation
}
