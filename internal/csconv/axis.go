package csconv

import (
	"strings"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/wkt"
)

// quadrantFromAxes reads a pair of AXIS elements. Anything that is not a
// recognizable pair yields the default quadrant.
func quadrantFromAxes(axes []wkt.Node) model.Quadrant {
	if len(axes) < 2 {
		return model.DefaultQuadrant
	}
	east, north, swapped := true, true, false
	seenEW, seenNS := false, false
	for i, a := range axes[:2] {
		switch strings.ToUpper(strings.TrimSpace(a.Text(0))) {
		case "EAST":
			seenEW = true
		case "WEST":
			east, seenEW = false, true
		case "NORTH":
			seenNS = true
			swapped = swapped || i == 0
		case "SOUTH":
			north, seenNS = false, true
			swapped = swapped || i == 0
		}
	}
	if !seenEW || !seenNS {
		return model.DefaultQuadrant
	}
	var q model.Quadrant
	switch {
	case east && north:
		q = 1
	case !east && north:
		q = 2
	case !east && !north:
		q = 3
	default:
		q = 4
	}
	if swapped {
		q = -q
	}
	return q
}

// axesFor builds the AXIS pair for a non-default quadrant, or nil.
func axesFor(q model.Quadrant, geographic bool) []*wkt.Builder {
	if q.IsDefault() {
		return nil
	}
	xName, yName := "Easting", "Northing"
	if geographic {
		xName, yName = "Lon", "Lat"
	}
	abs := q
	if abs < 0 {
		abs = -abs
	}
	xDir, yDir := "EAST", "NORTH"
	switch abs {
	case 2:
		xDir = "WEST"
	case 3:
		xDir, yDir = "WEST", "SOUTH"
	case 4:
		yDir = "SOUTH"
	}
	x := wkt.New(wkt.Axis, xName).Word(xDir)
	y := wkt.New(wkt.Axis, yName).Word(yDir)
	if q < 0 {
		return []*wkt.Builder{y, x}
	}
	return []*wkt.Builder{x, y}
}

