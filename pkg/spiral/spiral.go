// Package spiral lays workflow addresses out on a double helix.
package spiral

import (
	"math"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

const (
	DefaultBase   = 10
	DefaultRadius = 1.0
	DefaultRise   = 0.34
)

// Generator produces helix coordinates. Consecutive indices alternate
// strands; each pair of indices shares a base pair.
type Generator struct {
	Base   int     // base pairs per full turn
	Radius float64
	Rise   float64 // z distance between base pairs
}

// New returns a generator with the default geometry
func New() Generator {
	return Generator{Base: DefaultBase, Radius: DefaultRadius, Rise: DefaultRise}
}

// Point returns the spiral point for index i
func (g Generator) Point(i int) workflow.SpiralPoint {
	base := g.Base
	if base <= 0 {
		base = DefaultBase
	}
	strand := i % 2
	basePair := i / 2
	angle := float64(basePair) * 2 * math.Pi / float64(base)
	phase := angle + math.Pi*float64(strand)

	return workflow.SpiralPoint{
		Coords: workflow.Coordinate{
			g.Radius * math.Cos(phase),
			g.Radius * math.Sin(phase),
			float64(basePair) * g.Rise,
		},
		Strand:     strand,
		BasePairID: basePair,
		Angle:      angle,
		Index:      i,
	}
}

// Points returns the first n points
func (g Generator) Points(n int) []workflow.SpiralPoint {
	if n <= 0 {
		return []workflow.SpiralPoint{}
	}
	pts := make([]workflow.SpiralPoint, n)
	for i := range pts {
		pts[i] = g.Point(i)
	}
	return pts
}

// ForMap returns one point per address of cmap, in map order
func (g Generator) ForMap(cmap *workflow.CategorizedMap) []workflow.SpiralPoint {
	return g.Points(cmap.Len())
}
