package workflow

// Address identifies a process entry in a workflow map.
// Addresses are flat keys; hierarchy is carried by ProcessDetails.Parent.
type Address string

// Well-known categories produced by the categorizer
const (
	CategoryData        = "data"
	CategoryComputation = "computation"
	CategoryIO          = "io"
	CategoryControl     = "control"
	CategoryCrypto      = "crypto"
	CategoryNetwork     = "network"
	CategoryUI          = "ui"
	CategoryError       = "error"
	CategoryGeneral     = "general"
)

// KnownCategories lists the categories in their canonical order
var KnownCategories = []string{
	CategoryData,
	CategoryComputation,
	CategoryIO,
	CategoryControl,
	CategoryCrypto,
	CategoryNetwork,
	CategoryUI,
	CategoryError,
	CategoryGeneral,
}

// ProcessDetails describes a single process in a categorized map
type ProcessDetails struct {
	Command      string    `json:"command"`
	Category     string    `json:"category"`
	Parent       Address   `json:"parent,omitempty"`
	Depth        int       `json:"depth"`
	Subprocesses []Address `json:"subprocesses"`
	Direction    string    `json:"direction,omitempty"`
}

// HasParent reports whether the process is a subprocess of another address
func (d ProcessDetails) HasParent() bool {
	return d.Parent != ""
}

// Clone returns a deep copy of the details
func (d ProcessDetails) Clone() ProcessDetails {
	c := d
	if d.Subprocesses != nil {
		c.Subprocesses = append([]Address(nil), d.Subprocesses...)
	}
	return c
}

// Coordinate is a point in 3-D space
type Coordinate [3]float64

// Origin is the fallback coordinate for addresses without a location
var Origin = Coordinate{0, 0, 0}

// Slice returns the coordinate as a slice for distance helpers
func (c Coordinate) Slice() []float64 {
	return []float64{c[0], c[1], c[2]}
}

// SpiralPoint is one coordinate emitted by the spiral generator together
// with its position metadata. Metadata is passed through the legend as-is.
type SpiralPoint struct {
	Coords     Coordinate `json:"coords"`
	Strand     int        `json:"strand"`
	BasePairID int        `json:"base_pair_id"`
	Angle      float64    `json:"angle"`
	Index      int        `json:"index"`
}
