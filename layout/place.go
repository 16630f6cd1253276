package layout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chayuto/panic-on-rails/geo"
	"github.com/chayuto/panic-on-rails/layout/catalog"
)

// Placement is the atomically-created group of graph objects for one part.
type Placement struct {
	PartID  string
	Group   string
	Nodes   []NodeID
	Edges   []EdgeID
	Primary NodeID
}

// worldGeom transforms part-local geometry by a placement rotation and
// translation. Arc radius and sweep are rotation-invariant; only the angles
// shift.
func worldGeom(local geo.Geometry, pos geo.Vec, rot float64) geo.Geometry {
	switch local.Kind {
	case geo.Straight:
		return geo.StraightBetween(
			pos.Add(local.Start.Rotate(rot)),
			pos.Add(local.End.Rotate(rot)),
		)
	case geo.Arc:
		return geo.Geometry{
			Kind:       geo.Arc,
			Center:     pos.Add(local.Center.Rotate(rot)),
			Radius:     local.Radius,
			StartAngle: local.StartAngle + rot,
			EndAngle:   local.EndAngle + rot,
		}
	default:
		panic(fmt.Sprintf("unknown geometry kind %d", local.Kind))
	}
}

// worldConnector places a part-local connector into world space.
func worldConnector(c catalog.ConnectorNode, pos geo.Vec, rot float64) (geo.Vec, float64) {
	return pos.Add(c.LocalPos.Rotate(rot)), geo.NormDeg(c.LocalFacade + rot)
}

// Place instantiates a catalog part at a world position and rotation:
// one node per connector and one edge per path segment (straight/curve 1,
// switch 2 sharing the entry node, crossing 2 topologically unconnected).
// An unknown part id fails without mutating anything.
func (net *Network) Place(partID string, pos geo.Vec, rot float64) (*Placement, error) {
	part, ok := net.lookup(partID)
	if !ok {
		return nil, fmt.Errorf("place %q: %w", partID, ErrPartNotFound)
	}

	conns := part.Connectors()
	nodes := make([]*Node, len(conns))
	for i, c := range conns {
		wp, wf := worldConnector(c, pos, rot)
		nodes[i] = &Node{
			ID:     NodeID(uuid.New().String()),
			Pos:    wp,
			Facade: wf,
			Kind:   NodeEndpoint,
		}
	}

	group := uuid.New().String()
	newEdge := func(from, to *Node, local geo.Geometry) *Edge {
		g := worldGeom(local, pos, rot)
		e := &Edge{
			ID:        EdgeID(uuid.New().String()),
			PartID:    partID,
			Group:     group,
			StartNode: from.ID,
			EndNode:   to.ID,
			Geom:      g,
			Length:    g.Length(),
			Intrinsic: local,
		}
		from.Conns = append(from.Conns, e.ID)
		to.Conns = append(to.Conns, e.ID)
		return e
	}

	var edges []*Edge
	switch part.Kind {
	case catalog.KindStraight:
		edges = []*Edge{newEdge(nodes[0], nodes[1],
			geo.StraightBetween(geo.Vec{}, geo.Vec{X: part.Length}))}
	case catalog.KindCurve:
		edges = []*Edge{newEdge(nodes[0], nodes[1], part.CurveGeometry())}
	case catalog.KindSwitch:
		entry, main, branch := nodes[0], nodes[1], nodes[2]
		mainEdge := newEdge(entry, main,
			geo.StraightBetween(geo.Vec{}, geo.Vec{X: part.Length}))
		branchEdge := newEdge(entry, branch, part.BranchGeometry())
		entry.Kind = NodeSwitch
		entry.SwitchState = SwitchMain
		entry.SwitchBranches = [2]EdgeID{mainEdge.ID, branchEdge.ID}
		edges = []*Edge{mainEdge, branchEdge}
	case catalog.KindCrossing:
		half := part.Length / 2
		center := geo.Vec{X: half}
		d := geo.Heading(part.CrossAngle).Scale(half)
		edges = []*Edge{
			newEdge(nodes[0], nodes[1],
				geo.StraightBetween(geo.Vec{}, geo.Vec{X: part.Length})),
			newEdge(nodes[2], nodes[3],
				geo.StraightBetween(center.Sub(d), center.Add(d))),
		}
	default:
		return nil, fmt.Errorf("place %q: unsupported part kind %s", partID, part.Kind)
	}

	p := &Placement{PartID: partID, Group: group, Primary: nodes[0].ID}
	for i, n := range nodes {
		// MaxConns = internal edges already attached + external mates
		// the connector accepts. A switch entry holds two internal
		// edges and still takes one approach edge.
		n.MaxConns = len(n.Conns) + conns[i].MaxConns
		net.refreshKind(n)
		net.Nodes[n.ID] = n
		net.reindexNode(n)
		p.Nodes = append(p.Nodes, n.ID)
	}
	for _, e := range edges {
		net.Edges[e.ID] = e
		net.reindexEdge(e)
		p.Edges = append(p.Edges, e.ID)
	}
	return p, nil
}
