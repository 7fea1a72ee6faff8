package layout

import (
	"fmt"
	"strconv"
)

// Degree is the suffix the vendor application uses on angle labels.
const Degree = "°"

// DefaultMeridianStep covers horizontals and verticals.
const DefaultMeridianStep = 90

// DefaultParallelStep can be 2.5, 5 or 10 degrees.
const DefaultParallelStep = 5.0

// Grid is the static set of (meridian, parallel) angles to export. It is
// derived purely from the two step constants and never depends on GLL
// content.
type Grid struct {
	MeridianStep int
	ParallelStep float64
}

// DefaultGrid returns the grid used for spinorama extraction.
func DefaultGrid() Grid {
	return Grid{MeridianStep: DefaultMeridianStep, ParallelStep: DefaultParallelStep}
}

// NewGrid builds a grid from settings values, falling back to defaults for
// non-positive steps.
func NewGrid(meridianStep int, parallelStep float64) Grid {
	g := Grid{MeridianStep: meridianStep, ParallelStep: parallelStep}
	if g.MeridianStep <= 0 {
		g.MeridianStep = DefaultMeridianStep
	}
	if g.ParallelStep <= 0 {
		g.ParallelStep = DefaultParallelStep
	}
	return g
}

// Meridians returns the meridian labels over 0-360° exclusive, formatted the
// way the vendor combo box displays them.
func (g Grid) Meridians() []string {
	labels := make([]string, 0, 360/g.MeridianStep)
	for v := 0; v < 360; v += g.MeridianStep {
		labels = append(labels, strconv.Itoa(v)+Degree)
	}
	return labels
}

// Parallels returns the parallel labels over 0-180° inclusive. Angles are
// accumulated in tenths of a degree so a 2.5° step stays exact.
func (g Grid) Parallels() []string {
	stepTenths := int(g.ParallelStep*10 + 0.5)
	labels := make([]string, 0, 1800/stepTenths+1)
	for v := 0; v <= 1800; v += stepTenths {
		labels = append(labels, formatTenths(v)+Degree)
	}
	return labels
}

// Size returns the number of (meridian, parallel) pairs in the grid.
func (g Grid) Size() int {
	return len(g.Meridians()) * len(g.Parallels())
}

// formatTenths renders tenths of a degree without a trailing ".0".
func formatTenths(v int) string {
	if v%10 == 0 {
		return strconv.Itoa(v / 10)
	}
	return fmt.Sprintf("%d.%d", v/10, v%10)
}
