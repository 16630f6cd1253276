package layout

import (
	"math"
	"testing"

	"github.com/chayuto/panic-on-rails/geo"
	"github.com/chayuto/panic-on-rails/layout/catalog"
)

func TestSnapFindsNearbyEndpoint(t *testing.T) {
	net := testNetwork()
	a, _ := net.Place("S124", geo.Vec{}, 0)
	part, _ := catalog.Get("S124")

	// a ghost hovering just off the open end at (124, 0), slightly rotated
	snap, ok := net.Snap(part, geo.Vec{X: 126, Y: 2}, 1)
	if !ok {
		t.Fatal("expected a snap candidate")
	}
	if snap.Target != a.Nodes[1] {
		t.Fatalf("snapped to %s, expected %s", snap.Target, a.Nodes[1])
	}
	if snap.GhostConn != "a" {
		t.Fatalf("ghost connector %s", snap.GhostConn)
	}
	pos, rot := snap.Apply(net, geo.Vec{X: 126, Y: 2}, 1)
	if pos.Dist(geo.Vec{X: 124}) > 1e-6 {
		t.Fatalf("snapped pos %s", pos)
	}
	if math.Abs(geo.DiffDeg(rot, 0)) > 1e-6 {
		t.Fatalf("snapped rot %f", rot)
	}
}

func TestSnapRespectsRadiusAndAngle(t *testing.T) {
	net := testNetwork()
	net.Place("S124", geo.Vec{}, 0)
	part, _ := catalog.Get("S124")

	if _, ok := net.Snap(part, geo.Vec{X: 200, Y: 200}, 0); ok {
		t.Fatal("snap beyond radius")
	}
	// in range but facing the wrong way
	if _, ok := net.Snap(part, geo.Vec{X: 126}, 90); ok {
		t.Fatal("snap despite facade mismatch")
	}
}

func TestSnapPrefersCloserEndpoint(t *testing.T) {
	net := testNetwork()
	near, _ := net.Place("S124", geo.Vec{}, 0)          // open end at (124, 0)
	net.Place("S124", geo.Vec{X: 10, Y: 0}, 0)          // open end at (134, 0)
	part, _ := catalog.Get("S124")
	snap, ok := net.Snap(part, geo.Vec{X: 125, Y: 0}, 0)
	if !ok {
		t.Fatal("expected a snap candidate")
	}
	if snap.Target != near.Nodes[1] {
		t.Fatal("closer endpoint did not win")
	}
}

func TestPlaceConnected(t *testing.T) {
	net := testNetwork()
	net.Place("S124", geo.Vec{}, 0)
	p, err := net.PlaceConnected("S124", geo.Vec{X: 127, Y: 1}, 0)
	if err != nil {
		t.Fatalf("place connected: %s", err)
	}
	if len(net.Nodes) != 3 || len(net.Edges) != 2 {
		t.Fatalf("expected merged 3 nodes / 2 edges, got %d / %d", len(net.Nodes), len(net.Edges))
	}
	if len(p.Nodes) != 1 {
		t.Fatalf("placement should have lost its merged node, has %d", len(p.Nodes))
	}
	checkSync(t, net)
}

func TestPlaceConnectedSwitchEntry(t *testing.T) {
	net := testNetwork()
	a, _ := net.Place("S124", geo.Vec{}, 0)
	// the switch's entry connector snaps onto the open end; the old open
	// endpoint is the redundant side, the entry survives with 3 conns
	p, err := net.PlaceConnected("EP481-15L", geo.Vec{X: 126, Y: 1}, 0)
	if err != nil {
		t.Fatalf("place connected: %s", err)
	}
	if len(net.Nodes) != 4 || len(net.Edges) != 3 {
		t.Fatalf("expected 4 nodes / 3 edges, got %d / %d", len(net.Nodes), len(net.Edges))
	}
	entry := net.Nodes[p.Primary]
	if entry == nil {
		t.Fatal("entry node gone")
	}
	if entry.Kind != NodeSwitch {
		t.Fatalf("entry kind %s", entry.Kind)
	}
	if len(entry.Conns) != 3 {
		t.Fatalf("entry has %d conns, want 3", len(entry.Conns))
	}
	if _, ok := net.Nodes[a.Nodes[1]]; ok {
		t.Fatal("old open endpoint survived the merge")
	}
	checkSync(t, net)
}

func TestConnectNetworksRigidMove(t *testing.T) {
	net := testNetwork()
	// component A: two straights along +x, open end at (248, 0)
	a1, _ := net.Place("S124", geo.Vec{}, 0)
	a2, _ := net.Place("S124", geo.Vec{X: 124}, 0)
	if err := net.ConnectNodes(a2.Nodes[0], a1.Nodes[1]); err != nil {
		t.Fatalf("build A: %s", err)
	}
	// component B: straight + curve far away, rotated
	b1, _ := net.Place("S124", geo.Vec{X: 1000, Y: 500}, 90)
	b2, _ := net.Place("R481-15", geo.Vec{X: 1000, Y: 624}, 90)
	if err := net.ConnectNodes(b2.Nodes[0], b1.Nodes[1]); err != nil {
		t.Fatalf("build B: %s", err)
	}

	lenBefore := map[EdgeID]float64{}
	for id, e := range net.Edges {
		lenBefore[id] = e.Length
	}

	anchor := a2.Nodes[1] // open end of A at (248, 0), facade 0
	if err := net.ConnectNetworks(b1.Nodes[0], anchor); err != nil {
		t.Fatalf("connect networks: %s", err)
	}

	// pivot landed exactly on the anchor
	an := net.Nodes[anchor]
	if an.Pos.Dist(geo.Vec{X: 248}) > 1e-6 {
		t.Fatalf("anchor moved to %s", an.Pos)
	}
	if an.Kind != NodeJunction {
		t.Fatalf("anchor kind %s", an.Kind)
	}
	// the rigid move preserves every edge length (arc sweep invariant)
	for id, e := range net.Edges {
		if math.Abs(e.Length-lenBefore[id]) > 1e-6 {
			t.Fatalf("edge %s length changed: %f -> %f", id, lenBefore[id], e.Length)
		}
	}
	// B's straight now continues along +x
	moved := net.Edges[b1.Edges[0]]
	far := net.Nodes[moved.EndNode]
	if far.Pos.Dist(geo.Vec{X: 372}) > 1e-6 {
		t.Fatalf("moved straight ends at %s", far.Pos)
	}
	checkSync(t, net)
}

func TestConnectNetworksSameComponent(t *testing.T) {
	net := testNetwork()
	a, _ := net.Place("S124", geo.Vec{}, 0)
	b, _ := net.Place("S124", geo.Vec{X: 124}, 0)
	net.ConnectNodes(b.Nodes[0], a.Nodes[1])
	// joining the two free ends of the same component must not move anything
	posBefore := net.Nodes[a.Nodes[0]].Pos
	if err := net.ConnectNetworks(b.Nodes[1], a.Nodes[0]); err != nil {
		t.Fatalf("close loop: %s", err)
	}
	if net.Nodes[a.Nodes[0]].Pos.Dist(posBefore) > 1e-9 {
		t.Fatal("same-component join moved the survivor")
	}
	if len(net.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(net.Nodes))
	}
	checkSync(t, net)
}
