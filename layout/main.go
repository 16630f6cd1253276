// Package layout owns the track network graph: nodes and edges in id-keyed
// maps, mutated only through its API. Relationships are looked up by id,
// never held as direct references, so the graph serializes cleanly and
// cannot form ownership cycles.
package layout

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/chayuto/panic-on-rails/config"
	"github.com/chayuto/panic-on-rails/geo"
	"github.com/chayuto/panic-on-rails/layout/catalog"
	"github.com/chayuto/panic-on-rails/spatial"
)

type NodeID string
type EdgeID string

type NodeKind int

const (
	NodeEndpoint NodeKind = iota + 1
	NodeJunction
	NodeSwitch
)

func (k NodeKind) String() string {
	switch k {
	case NodeEndpoint:
		return "endpoint"
	case NodeJunction:
		return "junction"
	case NodeSwitch:
		return "switch"
	default:
		return fmt.Sprintf("node-kind-%d", int(k))
	}
}

// SwitchState selects which branch of a switch the router follows.
// The zero value selects the main branch, so plain nodes need no setup.
type SwitchState int

const (
	SwitchMain   SwitchState = 0
	SwitchBranch SwitchState = 1
)

type Node struct {
	ID  NodeID  `json:"id"`
	Pos geo.Vec `json:"pos"`
	// Facade is the outward direction of the node's free end, degrees.
	Facade   float64 `json:"facade"`
	MaxConns int     `json:"maxConns"`
	// Conns is the unordered, duplicate-free set of incident edges.
	// Exactly one entry means this is an open endpoint.
	Conns []EdgeID `json:"conns"`
	Kind  NodeKind `json:"kind"`
	// Below: switch nodes only. Both branches are always present in Conns.
	SwitchState    SwitchState `json:"switchState,omitempty"`
	SwitchBranches [2]EdgeID   `json:"switchBranches,omitempty"`
}

// Open reports whether n is an open endpoint (eligible snap target).
func (n *Node) Open() bool {
	return len(n.Conns) == 1
}

type Edge struct {
	ID        EdgeID `json:"id"`
	PartID    string `json:"partId"`
	// Group ties together the edges created by one placement, so a
	// two-edge part (switch, crossing) is costed once.
	Group     string       `json:"group"`
	StartNode NodeID       `json:"startNode"`
	EndNode   NodeID       `json:"endNode"`
	Geom      geo.Geometry `json:"geom"`
	Length    float64      `json:"length"`
	// Intrinsic is the catalog-local, rotation-independent geometry,
	// kept for re-deriving Geom after merges and network moves.
	Intrinsic geo.Geometry `json:"intrinsic"`
}

// Other returns the node on the far side of the edge from n, and whether n
// is one of the edge's endpoints at all.
func (e *Edge) Other(n NodeID) (NodeID, bool) {
	switch n {
	case e.StartNode:
		return e.EndNode, true
	case e.EndNode:
		return e.StartNode, true
	default:
		return "", false
	}
}

var (
	ErrPartNotFound = errors.New("part not found in catalog")
	ErrSaturated    = errors.New("target node saturated")
	ErrSelfConnect  = errors.New("same part on both sides")
)

// Network is the single mutable track graph aggregate. It is not
// goroutine-safe by itself; the simulator serializes all access.
type Network struct {
	Nodes map[NodeID]*Node
	Edges map[EdgeID]*Edge

	edgeIndex *spatial.Grid
	nodeIndex *spatial.Grid

	lookup   func(string) (catalog.Part, bool)
	snapRad  float64
	angleTol float64
}

func New(cfg config.Config) *Network {
	return NewWithLookup(cfg, catalog.Get)
}

// NewWithLookup builds a network against a custom part lookup service.
func NewWithLookup(cfg config.Config, lookup func(string) (catalog.Part, bool)) *Network {
	return &Network{
		Nodes:     map[NodeID]*Node{},
		Edges:     map[EdgeID]*Edge{},
		edgeIndex: spatial.NewGrid(cfg.CellSize),
		nodeIndex: spatial.NewGrid(cfg.CellSize),
		lookup:    lookup,
		snapRad:   cfg.SnapRadius,
		angleTol:  cfg.SnapAngleTolerance,
	}
}

// nodeBoxHalf sizes the box a node occupies in the spatial index.
const nodeBoxHalf = 4

func (net *Network) reindexEdge(e *Edge) {
	net.edgeIndex.Insert(string(e.ID), e.Geom.Bounds())
}

func (net *Network) reindexNode(n *Node) {
	net.nodeIndex.Insert(string(n.ID), geo.BoxAround(n.Pos, nodeBoxHalf))
}

// QueryEdges returns the edges whose bounds intersect view.
func (net *Network) QueryEdges(view geo.Box) []EdgeID {
	raw := net.edgeIndex.Query(view)
	ids := make([]EdgeID, len(raw))
	for i, s := range raw {
		ids[i] = EdgeID(s)
	}
	return ids
}

// QueryNodes returns the nodes inside view.
func (net *Network) QueryNodes(view geo.Box) []NodeID {
	raw := net.nodeIndex.Query(view)
	ids := make([]NodeID, len(raw))
	for i, s := range raw {
		ids[i] = NodeID(s)
	}
	return ids
}

// OpenEndpoints lists every node with exactly one connection, sorted by id
// for deterministic iteration.
func (net *Network) OpenEndpoints() []NodeID {
	ids := make([]NodeID, 0)
	for id, n := range net.Nodes {
		if n.Open() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Remove deletes an edge; endpoint nodes left with zero connections are
// garbage-collected. Reports whether the edge existed.
func (net *Network) Remove(id EdgeID) bool {
	e, ok := net.Edges[id]
	if !ok {
		return false
	}
	delete(net.Edges, id)
	net.edgeIndex.Remove(string(id))
	for _, nid := range []NodeID{e.StartNode, e.EndNode} {
		n, ok := net.Nodes[nid]
		if !ok {
			continue
		}
		if i := slices.Index(n.Conns, id); i != -1 {
			n.Conns = slices.Delete(n.Conns, i, i+1)
		}
		if len(n.Conns) == 0 {
			delete(net.Nodes, nid)
			net.nodeIndex.Remove(string(nid))
			continue
		}
		if n.Kind == NodeSwitch && (n.SwitchBranches[0] == id || n.SwitchBranches[1] == id) {
			// half a switch is just plain track
			n.SwitchBranches = [2]EdgeID{}
			n.SwitchState = SwitchMain
			n.Kind = NodeEndpoint
		}
		net.refreshKind(n)
	}
	return true
}

// refreshKind keeps the endpoint/junction distinction in sync with the
// connection count. Switch nodes keep their kind.
func (net *Network) refreshKind(n *Node) {
	if n.Kind == NodeSwitch {
		return
	}
	if len(n.Conns) >= 2 {
		n.Kind = NodeJunction
	} else {
		n.Kind = NodeEndpoint
	}
}

// ToggleSwitch flips a switch between its main and branch state. Calling it
// on a non-switch node (or an unknown id) is a no-op, so UI code may call it
// speculatively.
func (net *Network) ToggleSwitch(id NodeID) {
	n, ok := net.Nodes[id]
	if !ok || n.Kind != NodeSwitch {
		return
	}
	n.SwitchState = 1 - n.SwitchState
}

// SetSwitch forces a switch to a specific state; no-op on non-switches.
func (net *Network) SetSwitch(id NodeID, s SwitchState) {
	n, ok := net.Nodes[id]
	if !ok || n.Kind != NodeSwitch {
		return
	}
	n.SwitchState = s
}

// component walks the connected subgraph containing start.
func (net *Network) component(start NodeID) (nodes []NodeID, edges []EdgeID) {
	seenN := map[NodeID]bool{start: true}
	seenE := map[EdgeID]bool{}
	queue := []NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		nodes = append(nodes, cur)
		n, ok := net.Nodes[cur]
		if !ok {
			continue
		}
		for _, eid := range n.Conns {
			e, ok := net.Edges[eid]
			if !ok || seenE[eid] {
				continue
			}
			seenE[eid] = true
			edges = append(edges, eid)
			if other, ok := e.Other(cur); ok && !seenN[other] {
				seenN[other] = true
				queue = append(queue, other)
			}
		}
	}
	return nodes, edges
}

// TotalCost sums catalog cost over placements (a multi-edge part counts
// once). Parts missing from the catalog cost nothing.
func (net *Network) TotalCost() int {
	seen := map[string]bool{}
	total := 0
	for _, e := range net.Edges {
		if seen[e.Group] {
			continue
		}
		seen[e.Group] = true
		if p, ok := net.lookup(e.PartID); ok {
			total += p.Cost
		}
	}
	return total
}

// Clear drops the whole graph and both spatial indexes.
func (net *Network) Clear() {
	maps.Clear(net.Nodes)
	maps.Clear(net.Edges)
	net.edgeIndex.Clear()
	net.nodeIndex.Clear()
}
