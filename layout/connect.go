package layout

import (
	"fmt"
	"math"

	"github.com/chayuto/panic-on-rails/geo"
	"github.com/chayuto/panic-on-rails/layout/catalog"
)

// SnapResult describes the rigid transform that mates one ghost connector
// with an open endpoint: rotate the ghost by DeltaRot about GhostPos, then
// translate GhostPos onto the target.
type SnapResult struct {
	GhostConn string
	GhostPos  geo.Vec
	Target    NodeID
	DeltaRot  float64
	Dist      float64
	AngleErr  float64
}

// Apply maps a tentative placement (pos, rot) to the snapped placement.
func (r SnapResult) Apply(net *Network, pos geo.Vec, rot float64) (geo.Vec, float64) {
	target := net.Nodes[r.Target]
	newPos := pos.RotateAbout(r.GhostPos, r.DeltaRot).Add(target.Pos.Sub(r.GhostPos))
	return newPos, rot + r.DeltaRot
}

// Snap searches the open-endpoint set for the best mate of any of the ghost
// part's connectors: distance within the snap radius, facades within the
// angle tolerance of opposition, minimum distance first and smaller angle
// error breaking ties.
func (net *Network) Snap(part catalog.Part, pos geo.Vec, rot float64) (SnapResult, bool) {
	best := SnapResult{Dist: math.Inf(1), AngleErr: math.Inf(1)}
	found := false
	for _, c := range part.Connectors() {
		wp, wf := worldConnector(c, pos, rot)
		for _, nid := range net.OpenEndpoints() {
			n := net.Nodes[nid]
			d := wp.Dist(n.Pos)
			if d > net.snapRad {
				continue
			}
			// mating requires the ghost facade ~opposite the target facade
			delta := geo.DiffDeg(n.Facade+180, wf)
			if math.Abs(delta) > net.angleTol {
				continue
			}
			if d > best.Dist || (d == best.Dist && math.Abs(delta) >= best.AngleErr) {
				continue
			}
			best = SnapResult{
				GhostConn: c.LocalID,
				GhostPos:  wp,
				Target:    nid,
				DeltaRot:  delta,
				Dist:      d,
				AngleErr:  math.Abs(delta),
			}
			found = true
		}
	}
	return best, found
}

// validateMerge applies the shared connection rules: the redundant node must
// be an open endpoint, the survivor must have spare capacity, and the two
// sides must not belong to the same part.
func (net *Network) validateMerge(redundant, survivor NodeID) (*Node, *Node, error) {
	rn, ok := net.Nodes[redundant]
	if !ok {
		return nil, nil, fmt.Errorf("connect: node %s not found", redundant)
	}
	sn, ok := net.Nodes[survivor]
	if !ok {
		return nil, nil, fmt.Errorf("connect: node %s not found", survivor)
	}
	if redundant == survivor {
		return nil, nil, fmt.Errorf("connect: node %s with itself", redundant)
	}
	if !rn.Open() {
		return nil, nil, fmt.Errorf("connect: node %s is not an open endpoint", redundant)
	}
	if len(sn.Conns)+1 > sn.MaxConns {
		return nil, nil, fmt.Errorf("connect: node %s: %w", survivor, ErrSaturated)
	}
	moved := net.Edges[rn.Conns[0]]
	if moved == nil {
		return nil, nil, fmt.Errorf("connect: node %s references missing edge %s", redundant, rn.Conns[0])
	}
	for _, eid := range sn.Conns {
		if e, ok := net.Edges[eid]; ok && e.Group == moved.Group {
			return nil, nil, fmt.Errorf("connect: %w", ErrSelfConnect)
		}
	}
	return rn, sn, nil
}

// rederive rebuilds an edge's world geometry from its endpoint node
// positions, preserving the intrinsic radius and sweep for arcs. The stored
// length follows the geometry.
func (net *Network) rederive(e *Edge) {
	start, okS := net.Nodes[e.StartNode]
	end, okE := net.Nodes[e.EndNode]
	if !okS || !okE {
		return
	}
	switch e.Intrinsic.Kind {
	case geo.Arc:
		e.Geom = geo.RederiveArc(start.Pos, end.Pos, e.Intrinsic.Radius, e.Intrinsic.Sweep())
	default:
		e.Geom = geo.StraightBetween(start.Pos, end.Pos)
	}
	e.Length = e.Geom.Length()
	net.reindexEdge(e)
}

// ConnectNodes merges the redundant node produced by a new placement into
// the surviving target node. The moved edge's geometry is rewritten to the
// survivor's position, and the survivor becomes a junction once it holds two
// or more connections. On error nothing is mutated.
func (net *Network) ConnectNodes(redundant, survivor NodeID) error {
	rn, sn, err := net.validateMerge(redundant, survivor)
	if err != nil {
		return err
	}
	moved := net.Edges[rn.Conns[0]]
	if moved.StartNode == redundant {
		moved.StartNode = survivor
	} else {
		moved.EndNode = survivor
	}
	sn.Conns = append(sn.Conns, moved.ID)
	delete(net.Nodes, redundant)
	net.nodeIndex.Remove(string(redundant))
	net.refreshKind(sn)
	net.rederive(moved)
	return nil
}

// ConnectNetworks joins two track subgraphs: the whole connected component
// of the moving endpoint is rigidly rotated about it and translated so it
// lands exactly on the target, and every moved edge is re-derived from its
// updated endpoints. When both endpoints already share a component (closing
// a loop), no transform is applied and the nodes are simply merged.
func (net *Network) ConnectNetworks(moving, target NodeID) error {
	mn, tn, err := net.validateMerge(moving, target)
	if err != nil {
		return err
	}
	nodes, edges := net.component(moving)
	sameComponent := false
	for _, nid := range nodes {
		if nid == target {
			sameComponent = true
			break
		}
	}
	if !sameComponent {
		deltaRot := geo.DiffDeg(tn.Facade+180, mn.Facade)
		pivot := mn.Pos
		shift := tn.Pos.Sub(pivot)
		for _, nid := range nodes {
			n := net.Nodes[nid]
			n.Pos = n.Pos.RotateAbout(pivot, deltaRot).Add(shift)
			n.Facade = geo.NormDeg(n.Facade + deltaRot)
			net.reindexNode(n)
		}
		for _, eid := range edges {
			net.rederive(net.Edges[eid])
		}
	}
	return net.ConnectNodes(moving, target)
}

// PlaceConnected places a part at a tentative pose, snapping and merging
// onto an open endpoint when one is in range. This is the one-call placement
// the builder UI uses.
func (net *Network) PlaceConnected(partID string, pos geo.Vec, rot float64) (*Placement, error) {
	part, ok := net.lookup(partID)
	if !ok {
		return nil, fmt.Errorf("place %q: %w", partID, ErrPartNotFound)
	}
	snap, snapped := net.Snap(part, pos, rot)
	if snapped {
		pos, rot = snap.Apply(net, pos, rot)
	}
	p, err := net.Place(partID, pos, rot)
	if err != nil {
		return nil, err
	}
	if !snapped {
		return p, nil
	}
	// the ghost connector's node is redundant now; fold it into the target.
	// A switch entry carries two internal edges and is never open, so there
	// the old open endpoint is the redundant side and the entry survives.
	for i, nid := range p.Nodes {
		n := net.Nodes[nid]
		if n.Pos.Dist(net.Nodes[snap.Target].Pos) > 1e-6 {
			continue
		}
		if n.Open() {
			if err := net.ConnectNodes(nid, snap.Target); err != nil {
				return p, nil // placement stands, unconnected
			}
			p.Nodes = append(p.Nodes[:i], p.Nodes[i+1:]...)
		} else {
			if err := net.ConnectNodes(snap.Target, nid); err != nil {
				return p, nil
			}
		}
		break
	}
	return p, nil
}
