// Package catalog is the read-only track part catalog: geometry parameters,
// cost, and connector templates for each part. Dimensions follow the KATO
// Unitrack series the same way the real sets are sold (lengths in layout
// units, angles in degrees).
package catalog

import (
	"fmt"

	"github.com/chayuto/panic-on-rails/geo"
)

type PartKind int

const (
	KindStraight PartKind = iota + 1
	KindCurve
	KindSwitch
	KindCrossing
)

func (k PartKind) String() string {
	switch k {
	case KindStraight:
		return "straight"
	case KindCurve:
		return "curve"
	case KindSwitch:
		return "switch"
	case KindCrossing:
		return "crossing"
	default:
		return fmt.Sprintf("part-kind-%d", int(k))
	}
}

// ConnectorNode is a mating point on a part, in part-local space. LocalFacade
// is the outward direction in degrees; two connectors mate when their world
// facades are ~180° apart. MaxConns is how many external mates the connector
// accepts (1 or 2); part-internal edges come on top of it.
type ConnectorNode struct {
	LocalID     string
	LocalPos    geo.Vec
	LocalFacade float64
	MaxConns    int
}

// Part describes one catalog entry. Only the fields for its kind are set.
type Part struct {
	ID   string
	Kind PartKind
	Cost int

	// KindStraight, and the straight leg of KindSwitch / both legs of
	// KindCrossing.
	Length float64

	// KindCurve.
	Radius float64
	Sweep  float64 // signed degrees; sign selects curve direction

	// KindSwitch diverging leg. A curved diverge (BranchRadius > 0) is
	// preferred; otherwise a straight diverge of BranchLength at
	// BranchAngle is used.
	BranchRadius float64
	BranchSweep  float64
	BranchAngle  float64
	BranchLength float64

	// KindCrossing.
	CrossAngle float64
}

// Connectors derives the part's connector template. The part occupies local
// space starting at the origin heading +x; the primary connector is always
// the first one returned.
func (p Part) Connectors() []ConnectorNode {
	switch p.Kind {
	case KindStraight:
		return []ConnectorNode{
			{LocalID: "a", LocalPos: geo.Vec{}, LocalFacade: 180, MaxConns: 1},
			{LocalID: "b", LocalPos: geo.Vec{X: p.Length}, LocalFacade: 0, MaxConns: 1},
		}
	case KindCurve:
		g := p.CurveGeometry()
		return []ConnectorNode{
			{LocalID: "a", LocalPos: geo.Vec{}, LocalFacade: 180, MaxConns: 1},
			{LocalID: "b", LocalPos: g.PositionAt(1), LocalFacade: g.TangentAt(1), MaxConns: 1},
		}
	case KindSwitch:
		g := p.BranchGeometry()
		return []ConnectorNode{
			{LocalID: "entry", LocalPos: geo.Vec{}, LocalFacade: 180, MaxConns: 1},
			{LocalID: "main", LocalPos: geo.Vec{X: p.Length}, LocalFacade: 0, MaxConns: 1},
			{LocalID: "branch", LocalPos: g.PositionAt(1), LocalFacade: g.TangentAt(1), MaxConns: 1},
		}
	case KindCrossing:
		half := p.Length / 2
		center := geo.Vec{X: half}
		d := geo.Heading(p.CrossAngle).Scale(half)
		return []ConnectorNode{
			{LocalID: "a", LocalPos: geo.Vec{}, LocalFacade: 180, MaxConns: 1},
			{LocalID: "b", LocalPos: geo.Vec{X: p.Length}, LocalFacade: 0, MaxConns: 1},
			{LocalID: "c", LocalPos: center.Sub(d), LocalFacade: geo.NormDeg(p.CrossAngle + 180), MaxConns: 1},
			{LocalID: "d", LocalPos: center.Add(d), LocalFacade: geo.NormDeg(p.CrossAngle), MaxConns: 1},
		}
	default:
		panic(fmt.Sprintf("unknown part kind %d", p.Kind))
	}
}

// CurveGeometry is the local-space geometry of a KindCurve part, starting at
// the origin heading +x.
func (p Part) CurveGeometry() geo.Geometry {
	return localArc(geo.Vec{}, p.Radius, p.Sweep)
}

// BranchGeometry is the local-space geometry of a switch's diverging leg.
func (p Part) BranchGeometry() geo.Geometry {
	if p.BranchRadius > 0 {
		return localArc(geo.Vec{}, p.BranchRadius, p.BranchSweep)
	}
	end := geo.Heading(p.BranchAngle).Scale(p.BranchLength)
	return geo.StraightBetween(geo.Vec{}, end)
}

// localArc builds an arc starting at from, heading +x, turning by sweep.
func localArc(from geo.Vec, radius, sweep float64) geo.Geometry {
	if sweep >= 0 {
		center := from.Add(geo.Vec{Y: radius})
		return geo.ArcAround(center, radius, -90, -90+sweep)
	}
	center := from.Add(geo.Vec{Y: -radius})
	return geo.ArcAround(center, radius, 90, 90+sweep)
}
