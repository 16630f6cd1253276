// Package geo parametrizes single track segments (straights and arcs) along a
// normalized path parameter t in [0, 1]. Angles are degrees in [0, 360).
package geo

import (
	"fmt"
	"math"
)

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(w Vec) Vec       { return Vec{v.X + w.X, v.Y + w.Y} }
func (v Vec) Sub(w Vec) Vec       { return Vec{v.X - w.X, v.Y - w.Y} }
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

func (v Vec) Dist(w Vec) float64 {
	return math.Hypot(v.X-w.X, v.Y-w.Y)
}

func (v Vec) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// Rotate rotates v about the origin by deg degrees (counterclockwise).
func (v Vec) Rotate(deg float64) Vec {
	r := deg * math.Pi / 180
	s, c := math.Sin(r), math.Cos(r)
	return Vec{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// RotateAbout rotates v about pivot by deg degrees.
func (v Vec) RotateAbout(pivot Vec, deg float64) Vec {
	return v.Sub(pivot).Rotate(deg).Add(pivot)
}

// Heading is a unit vector pointing in the direction deg.
func Heading(deg float64) Vec {
	r := deg * math.Pi / 180
	return Vec{math.Cos(r), math.Sin(r)}
}

// NormDeg normalizes deg into [0, 360).
func NormDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// DiffDeg returns the signed smallest difference a−b in (−180, 180].
func DiffDeg(a, b float64) float64 {
	d := NormDeg(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}

type Kind int

const (
	Straight Kind = iota + 1
	Arc
)

func (k Kind) String() string {
	switch k {
	case Straight:
		return "straight"
	case Arc:
		return "arc"
	default:
		return fmt.Sprintf("kind-%d", int(k))
	}
}

// Geometry is a tagged variant: a straight between Start and End, or an arc
// around Center with Radius from StartAngle to EndAngle (degrees).
// The signed sweep (EndAngle − StartAngle) selects the traversal direction.
type Geometry struct {
	Kind Kind `json:"kind"`

	Start Vec `json:"start,omitempty"`
	End   Vec `json:"end,omitempty"`

	Center     Vec     `json:"center,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	StartAngle float64 `json:"startAngle,omitempty"`
	EndAngle   float64 `json:"endAngle,omitempty"`
}

func StraightBetween(a, b Vec) Geometry {
	return Geometry{Kind: Straight, Start: a, End: b}
}

// ArcAround builds an arc geometry. radius must be positive.
func ArcAround(center Vec, radius, startAngle, endAngle float64) Geometry {
	if radius <= 0 {
		panic(fmt.Sprintf("arc with non-positive radius %f", radius))
	}
	return Geometry{Kind: Arc, Center: center, Radius: radius, StartAngle: startAngle, EndAngle: endAngle}
}

// Sweep is the signed angular span in degrees. Zero for straights.
func (g Geometry) Sweep() float64 {
	if g.Kind != Arc {
		return 0
	}
	return g.EndAngle - g.StartAngle
}

func (g Geometry) Length() float64 {
	switch g.Kind {
	case Straight:
		return g.Start.Dist(g.End)
	case Arc:
		return g.Radius * math.Abs(g.Sweep()) * math.Pi / 180
	default:
		panic(fmt.Sprintf("unknown geometry kind %d", g.Kind))
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func (g Geometry) PositionAt(t float64) Vec {
	t = clamp01(t)
	switch g.Kind {
	case Straight:
		return g.Start.Add(g.End.Sub(g.Start).Scale(t))
	case Arc:
		a := g.StartAngle + g.Sweep()*t
		return g.Center.Add(Heading(a).Scale(g.Radius))
	default:
		panic(fmt.Sprintf("unknown geometry kind %d", g.Kind))
	}
}

// TangentAt is the direction of travel at t, in degrees in [0, 360).
// For arcs this is perpendicular to the radius, on the side selected by the
// sweep sign.
func (g Geometry) TangentAt(t float64) float64 {
	t = clamp01(t)
	switch g.Kind {
	case Straight:
		d := g.End.Sub(g.Start)
		return NormDeg(math.Atan2(d.Y, d.X) * 180 / math.Pi)
	case Arc:
		a := g.StartAngle + g.Sweep()*t
		if g.Sweep() >= 0 {
			return NormDeg(a + 90)
		}
		return NormDeg(a - 90)
	default:
		panic(fmt.Sprintf("unknown geometry kind %d", g.Kind))
	}
}

// ParamAtDistance converts an arc-length distance (clamped to [0, Length])
// into the normalized parameter t.
func (g Geometry) ParamAtDistance(d float64) float64 {
	l := g.Length()
	if l == 0 {
		return 0
	}
	if d < 0 {
		d = 0
	}
	if d > l {
		d = l
	}
	return d / l
}

func (g Geometry) Bounds() Box {
	switch g.Kind {
	case Straight:
		return BoxOf(g.Start).Extend(g.End)
	case Arc:
		b := BoxOf(g.PositionAt(0)).Extend(g.PositionAt(1))
		// axis extremes covered by the sweep also bound the arc
		lo, hi := g.StartAngle, g.EndAngle
		if lo > hi {
			lo, hi = hi, lo
		}
		for a := math.Floor(lo/90) * 90; a <= hi; a += 90 {
			if a < lo {
				continue
			}
			b = b.Extend(g.Center.Add(Heading(a).Scale(g.Radius)))
		}
		return b
	default:
		panic(fmt.Sprintf("unknown geometry kind %d", g.Kind))
	}
}

// RederiveArc rebuilds an arc between two known endpoints, preserving the
// intrinsic radius and signed sweep. Only the start/end angles move; the
// sweep magnitude is invariant. Falls back to a straight when the chord is
// longer than the diameter (degenerate after aggressive merges).
func RederiveArc(start, end Vec, radius, sweep float64) Geometry {
	chord := start.Dist(end)
	if chord > 2*radius || sweep == 0 {
		return StraightBetween(start, end)
	}
	mid := start.Add(end).Scale(0.5)
	h := math.Sqrt(radius*radius - (chord/2)*(chord/2))
	d := end.Sub(start)
	n := Vec{-d.Y, d.X}
	if chord != 0 {
		n = n.Scale(1 / chord)
	}
	// sweep sign selects which side of the chord the center sits on;
	// major arcs (|sweep| > 180) put it on the opposite side
	side := 1.0
	if sweep < 0 {
		side = -side
	}
	if math.Abs(sweep) > 180 {
		side = -side
	}
	center := mid.Add(n.Scale(side * h))
	sa := math.Atan2(start.Y-center.Y, start.X-center.X) * 180 / math.Pi
	return Geometry{
		Kind:       Arc,
		Center:     center,
		Radius:     radius,
		StartAngle: sa,
		EndAngle:   sa + sweep,
	}
}
