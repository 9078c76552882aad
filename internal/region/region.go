// Package region invokes the external region-selection tool and parses its
// output into a screen rectangle.
package region

import (
	"fmt"
	"strings"
)

// Region is a screen rectangle, or the full-output sentinel when Full is set.
type Region struct {
	X, Y int
	W, H int
	Full bool
}

// FullOutput is the sentinel for capturing the whole output.
var FullOutput = Region{Full: true}

// Parse parses the selector's stdout, formatted as "X,Y WxH".
func Parse(s string) (Region, error) {
	s = strings.TrimSpace(s)
	var r Region
	n, err := fmt.Sscanf(s, "%d,%d %dx%d", &r.X, &r.Y, &r.W, &r.H)
	if err != nil || n != 4 {
		return Region{}, fmt.Errorf("malformed region %q (want \"X,Y WxH\")", s)
	}
	if r.W <= 0 || r.H <= 0 {
		return Region{}, fmt.Errorf("region %q has non-positive dimensions", s)
	}
	return r, nil
}

// Geometry formats the region the way the capture tool expects ("WxH+X+Y").
// It must not be called for the full-output sentinel.
func (r Region) Geometry() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y)
}

func (r Region) String() string {
	if r.Full {
		return "full output"
	}
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.W, r.H)
}
