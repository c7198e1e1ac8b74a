package chart

import (
	"fmt"
	"math"
	"strings"

	"tracker/internal/core"
)

// ArcPath returns the SVG path of one ring segment. Angle 0 points up; the
// ring is drawn clockwise.
func ArcPath(cx, cy, rOuter, rInner float64, s core.Slice) string {
	start := s.StartAngle - math.Pi/2
	end := s.EndAngle - math.Pi/2
	largeArc := 0
	if end-start > math.Pi {
		largeArc = 1
	}
	sxO, syO := cx+rOuter*math.Cos(start), cy+rOuter*math.Sin(start)
	exO, eyO := cx+rOuter*math.Cos(end), cy+rOuter*math.Sin(end)
	sxI, syI := cx+rInner*math.Cos(end), cy+rInner*math.Sin(end)
	exI, eyI := cx+rInner*math.Cos(start), cy+rInner*math.Sin(start)

	return strings.Join([]string{
		fmt.Sprintf("M %.3f %.3f", sxO, syO),
		fmt.Sprintf("A %.3f %.3f 0 %d 1 %.3f %.3f", rOuter, rOuter, largeArc, exO, eyO),
		fmt.Sprintf("L %.3f %.3f", sxI, syI),
		fmt.Sprintf("A %.3f %.3f 0 %d 0 %.3f %.3f", rInner, rInner, largeArc, exI, eyI),
		"Z",
	}, " ")
}

// RenderSVG draws the donut for slices in a size×size box.
//
// A single arc cannot describe a full turn, so a slice sweeping the whole
// ring, or a ring with no angles at all, is drawn as a circle.
func RenderSVG(slices []core.Slice, size float64) string {
	outer := size * 0.36
	inner := outer * 0.6
	cx, cy := size/2, size/2

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`, size, size, size, size)
	b.WriteString("<g>")
	for _, s := range slices {
		sweep := s.Sweep()
		switch {
		case sweep <= 0 && len(slices) == 1:
			fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="%s"/>`, cx, cy, outer, s.Color)
		case sweep <= 0:
			continue
		case sweep >= 2*math.Pi-1e-9:
			fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="%s"/>`, cx, cy, outer, s.Color)
		default:
			fmt.Fprintf(&b, `<path d="%s" fill="%s"/>`, ArcPath(cx, cy, outer, inner, s), s.Color)
		}
	}
	fmt.Fprintf(&b, `<circle cx="%g" cy="%g" r="%g" fill="#FFFFFF"/>`, cx, cy, inner)
	b.WriteString("</g></svg>")
	return b.String()
}
