package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/chayuto/panic-on-rails/config"
	"github.com/chayuto/panic-on-rails/geo"
)

func testNetwork() *Network {
	return New(config.Default())
}

// checkSync asserts the geometry/node position sync invariant on every edge.
func checkSync(t *testing.T, net *Network) {
	t.Helper()
	for id, e := range net.Edges {
		start := net.Nodes[e.StartNode]
		end := net.Nodes[e.EndNode]
		if start == nil || end == nil {
			t.Fatalf("edge %s: dangling endpoint", id)
		}
		if e.Geom.PositionAt(0).Dist(start.Pos) > 1e-6 {
			t.Fatalf("edge %s: geometry start %s != node %s", id, e.Geom.PositionAt(0), start.Pos)
		}
		if e.Geom.PositionAt(1).Dist(end.Pos) > 1e-6 {
			t.Fatalf("edge %s: geometry end %s != node %s", id, e.Geom.PositionAt(1), end.Pos)
		}
	}
}

func TestPlaceStraight(t *testing.T) {
	net := testNetwork()
	p, err := net.Place("S124", geo.Vec{X: 100, Y: 100}, 0)
	if err != nil {
		t.Fatalf("place: %s", err)
	}
	if len(net.Nodes) != 2 || len(net.Edges) != 1 {
		t.Fatalf("expected 2 nodes / 1 edge, got %d / %d", len(net.Nodes), len(net.Edges))
	}
	end := net.Nodes[p.Nodes[1]]
	if end.Pos.Dist(geo.Vec{X: 224, Y: 100}) > 1e-6 {
		t.Fatalf("end node at %s", end.Pos)
	}
	checkSync(t, net)
}

func TestPlaceUnknownPartMutatesNothing(t *testing.T) {
	net := testNetwork()
	_, err := net.Place("S9999", geo.Vec{}, 0)
	if !errors.Is(err, ErrPartNotFound) {
		t.Fatalf("expected ErrPartNotFound, got %v", err)
	}
	if len(net.Nodes) != 0 || len(net.Edges) != 0 {
		t.Fatal("failed placement mutated the graph")
	}
}

func TestPlaceSwitch(t *testing.T) {
	net := testNetwork()
	p, err := net.Place("EP481-15L", geo.Vec{}, 0)
	if err != nil {
		t.Fatalf("place: %s", err)
	}
	if len(net.Nodes) != 3 || len(net.Edges) != 2 {
		t.Fatalf("expected 3 nodes / 2 edges, got %d / %d", len(net.Nodes), len(net.Edges))
	}
	entry := net.Nodes[p.Primary]
	if entry.Kind != NodeSwitch {
		t.Fatalf("entry kind %s", entry.Kind)
	}
	if entry.SwitchState != SwitchMain {
		t.Fatalf("switch state defaults to %d", entry.SwitchState)
	}
	if len(entry.Conns) != 2 {
		t.Fatalf("entry has %d conns", len(entry.Conns))
	}
	for _, b := range entry.SwitchBranches {
		if _, ok := net.Edges[b]; !ok {
			t.Fatalf("branch %s missing", b)
		}
	}
	checkSync(t, net)
}

func TestPlaceCrossing(t *testing.T) {
	net := testNetwork()
	_, err := net.Place("X90", geo.Vec{}, 0)
	if err != nil {
		t.Fatalf("place: %s", err)
	}
	if len(net.Nodes) != 4 || len(net.Edges) != 2 {
		t.Fatalf("expected 4 nodes / 2 edges, got %d / %d", len(net.Nodes), len(net.Edges))
	}
	// crossing legs share no nodes
	for _, n := range net.Nodes {
		if len(n.Conns) != 1 {
			t.Fatalf("crossing node with %d conns", len(n.Conns))
		}
	}
	checkSync(t, net)
}

func TestConnectNodes(t *testing.T) {
	net := testNetwork()
	a, _ := net.Place("S124", geo.Vec{}, 0)
	b, _ := net.Place("S124", geo.Vec{X: 124}, 0)
	if len(net.Nodes) != 4 {
		t.Fatalf("expected 4 nodes before connect, got %d", len(net.Nodes))
	}
	survivor := a.Nodes[1] // end of first straight, at (124, 0)
	before := len(net.Nodes[survivor].Conns)
	if err := net.ConnectNodes(b.Nodes[0], survivor); err != nil {
		t.Fatalf("connect: %s", err)
	}
	if len(net.Nodes) != 3 {
		t.Fatalf("connect must remove exactly one node, have %d", len(net.Nodes))
	}
	sn := net.Nodes[survivor]
	if len(sn.Conns) != before+1 {
		t.Fatalf("survivor conns %d, expected %d", len(sn.Conns), before+1)
	}
	if sn.Kind != NodeJunction {
		t.Fatalf("survivor kind %s, expected junction", sn.Kind)
	}
	checkSync(t, net)
}

func TestConnectRejectsSamePart(t *testing.T) {
	net := testNetwork()
	p, _ := net.Place("S124", geo.Vec{}, 0)
	err := net.ConnectNodes(p.Nodes[0], p.Nodes[1])
	if !errors.Is(err, ErrSelfConnect) {
		t.Fatalf("expected ErrSelfConnect, got %v", err)
	}
	if len(net.Nodes) != 2 {
		t.Fatal("rejected connect mutated the graph")
	}
}

func TestConnectRejectsSaturated(t *testing.T) {
	net := testNetwork()
	a, _ := net.Place("S124", geo.Vec{}, 0)
	b, _ := net.Place("S124", geo.Vec{X: 124}, 0)
	if err := net.ConnectNodes(b.Nodes[0], a.Nodes[1]); err != nil {
		t.Fatalf("connect: %s", err)
	}
	c, _ := net.Place("S62", geo.Vec{X: 124, Y: 50}, 90)
	err := net.ConnectNodes(c.Nodes[0], a.Nodes[1])
	if !errors.Is(err, ErrSaturated) {
		t.Fatalf("expected ErrSaturated, got %v", err)
	}
}

func TestRemoveTrack(t *testing.T) {
	net := testNetwork()
	a, _ := net.Place("S124", geo.Vec{}, 0)
	b, _ := net.Place("S124", geo.Vec{X: 124}, 0)
	if err := net.ConnectNodes(b.Nodes[0], a.Nodes[1]); err != nil {
		t.Fatalf("connect: %s", err)
	}
	if !net.Remove(b.Edges[0]) {
		t.Fatal("remove reported missing edge")
	}
	// the far endpoint of b is orphaned and collected; the shared node
	// drops back to an open endpoint
	if len(net.Nodes) != 2 || len(net.Edges) != 1 {
		t.Fatalf("after remove: %d nodes / %d edges", len(net.Nodes), len(net.Edges))
	}
	shared := net.Nodes[a.Nodes[1]]
	if shared == nil || shared.Kind != NodeEndpoint || !shared.Open() {
		t.Fatalf("shared node not demoted: %+v", shared)
	}
	if net.Remove(b.Edges[0]) {
		t.Fatal("double remove reported success")
	}
	checkSync(t, net)
}

func TestRemoveSwitchBranchDemotes(t *testing.T) {
	net := testNetwork()
	p, _ := net.Place("EP481-15L", geo.Vec{}, 0)
	entry := net.Nodes[p.Primary]
	net.Remove(entry.SwitchBranches[1])
	entry = net.Nodes[p.Primary]
	if entry.Kind == NodeSwitch {
		t.Fatal("switch kept kind after losing a branch")
	}
	if entry.SwitchBranches != ([2]EdgeID{}) {
		t.Fatalf("stale branches %v", entry.SwitchBranches)
	}
}

func TestToggleSwitchInvolutive(t *testing.T) {
	net := testNetwork()
	p, _ := net.Place("EP481-15R", geo.Vec{}, 0)
	entry := p.Primary
	orig := net.Nodes[entry].SwitchState
	net.ToggleSwitch(entry)
	if net.Nodes[entry].SwitchState == orig {
		t.Fatal("toggle did nothing")
	}
	net.ToggleSwitch(entry)
	if net.Nodes[entry].SwitchState != orig {
		t.Fatal("double toggle did not restore state")
	}
	// non-switch and unknown ids are tolerated
	net.ToggleSwitch(p.Nodes[1])
	net.ToggleSwitch("nope")
}

func TestOpenEndpoints(t *testing.T) {
	net := testNetwork()
	a, _ := net.Place("S124", geo.Vec{}, 0)
	b, _ := net.Place("S124", geo.Vec{X: 124}, 0)
	if got := len(net.OpenEndpoints()); got != 4 {
		t.Fatalf("expected 4 open endpoints, got %d", got)
	}
	net.ConnectNodes(b.Nodes[0], a.Nodes[1])
	if got := len(net.OpenEndpoints()); got != 2 {
		t.Fatalf("expected 2 open endpoints after connect, got %d", got)
	}
}

func TestTotalCost(t *testing.T) {
	net := testNetwork()
	net.Place("S124", geo.Vec{}, 0)            // 3
	net.Place("EP481-15L", geo.Vec{Y: 500}, 0) // 12, two edges one part
	if got := net.TotalCost(); got != 15 {
		t.Fatalf("total cost %d, expected 15", got)
	}
}

func TestQueryEdges(t *testing.T) {
	net := testNetwork()
	p, _ := net.Place("S248", geo.Vec{}, 0)
	net.Place("S248", geo.Vec{X: 5000, Y: 5000}, 0)
	got := net.QueryEdges(geo.Box{Min: geo.Vec{X: -10, Y: -10}, Max: geo.Vec{X: 300, Y: 10}})
	if len(got) != 1 || got[0] != p.Edges[0] {
		t.Fatalf("viewport query got %v", got)
	}
}

func TestCurvePlacementLength(t *testing.T) {
	net := testNetwork()
	p, _ := net.Place("R249-45", geo.Vec{X: 30, Y: -10}, 30)
	e := net.Edges[p.Edges[0]]
	want := 249 * math.Pi / 4
	if math.Abs(e.Length-want) > 1e-6 {
		t.Fatalf("curve length %f, expected %f", e.Length, want)
	}
	checkSync(t, net)
}
