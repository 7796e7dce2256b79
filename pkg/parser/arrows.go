package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Arrow is one step of the arrow notation
type Arrow struct {
	Name  string
	Delta workflow.Coordinate
}

// Arrows maps arrow runes to their direction
var Arrows = map[rune]Arrow{
	'↑': {"up", workflow.Coordinate{0, 1, 0}},
	'↓': {"down", workflow.Coordinate{0, -1, 0}},
	'→': {"right", workflow.Coordinate{1, 0, 0}},
	'←': {"left", workflow.Coordinate{-1, 0, 0}},
	'↗': {"up-right", workflow.Coordinate{1, 1, 0}},
	'↘': {"down-right", workflow.Coordinate{1, -1, 0}},
	'↙': {"down-left", workflow.Coordinate{-1, -1, 0}},
	'↖': {"up-left", workflow.Coordinate{-1, 1, 0}},
	'⇡': {"ascend", workflow.Coordinate{0, 0, 1}},
	'⇣': {"descend", workflow.Coordinate{0, 0, -1}},
}

// Step is the result of walking one arrow line
type Step struct {
	Position  workflow.Coordinate `json:"position"`
	Command   string              `json:"command"`
	Direction string              `json:"direction"`
}

// Walker moves a cursor through arrow-notation lines, starting at the
// origin
type Walker struct {
	pos workflow.Coordinate
}

// Step applies one line. Lines that do not start with an arrow leave the
// cursor unchanged and report false.
func (w *Walker) Step(line string) (Step, bool) {
	line = strings.TrimSpace(line)
	r, size := utf8.DecodeRuneInString(line)
	arrow, ok := Arrows[r]
	if !ok {
		return Step{}, false
	}
	for i := range w.pos {
		w.pos[i] += arrow.Delta[i]
	}
	return Step{
		Position:  w.pos,
		Command:   strings.TrimSpace(line[size:]),
		Direction: arrow.Name,
	}, true
}

// Position returns the current cursor
func (w *Walker) Position() workflow.Coordinate { return w.pos }

// Reset returns the cursor to the origin
func (w *Walker) Reset() { w.pos = workflow.Origin }

// ParseArrows walks every arrow line of r. Steps are addressed S1, S2, ...
// and their cursor positions are returned as points aligned with the map,
// so the result can be fed straight into a legend.
func ParseArrows(r io.Reader) (*workflow.CategorizedMap, []workflow.SpiralPoint, error) {
	cmap := workflow.NewCategorizedMap()
	var points []workflow.SpiralPoint
	var w Walker

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		step, ok := w.Step(scanner.Text())
		if !ok {
			continue
		}
		i := len(points)
		cmap.Set(workflow.Address(fmt.Sprintf("S%d", i+1)), workflow.ProcessDetails{
			Command:      step.Command,
			Subprocesses: []workflow.Address{},
			Direction:    step.Direction,
		})
		points = append(points, workflow.SpiralPoint{Coords: step.Position, Index: i})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read arrow map: %w", err)
	}
	return cmap, points, nil
}
