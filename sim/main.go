// Package sim advances trains over the track network: per-tick traversal,
// switch resolution, dead-end reversal, collisions, and the sensor/wire
// logic layer. All graph mutation and the tick are serialized behind one
// mutex so state is never observed half-updated.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/chayuto/panic-on-rails/config"
	"github.com/chayuto/panic-on-rails/geo"
	"github.com/chayuto/panic-on-rails/layout"
	"github.com/chayuto/panic-on-rails/notify"
)

type TrainID string

type Train struct {
	ID     TrainID       `json:"id"`
	EdgeID layout.EdgeID `json:"edgeId"`
	// Dist is the distance along the current edge, in [0, edge.Length].
	Dist float64 `json:"dist"`
	// Dir is +1 towards the edge's end node, -1 towards its start node.
	Dir       int     `json:"dir"`
	Speed     float64 `json:"speed"`
	Carriages int     `json:"carriages"`
	// Crashed trains stay addressable until removed.
	Crashed   bool      `json:"crashed"`
	CrashedAt time.Time `json:"crashedAt,omitempty"`
	BouncedAt time.Time `json:"bouncedAt,omitempty"`
}

// maxHops bounds edge transitions within one tick, so a huge delta on a tiny
// loop cannot spin forever.
const maxHops = 16

type Simulator struct {
	mu  sync.Mutex
	net *layout.Network
	cfg config.Config

	trains    map[TrainID]*Train
	histories map[TrainID]*History
	sensors   map[SensorID]*Sensor
	sensorOn  map[SensorID]bool
	wires     []Wire

	eventsS   *notify.Sender[Event]
	Events    *notify.Mux[Event]
	snapshotS *notify.Sender[Snapshot]
	Snapshots *notify.Mux[Snapshot]
}

func New(net *layout.Network, cfg config.Config) *Simulator {
	s := &Simulator{
		net:       net,
		cfg:       cfg,
		trains:    map[TrainID]*Train{},
		histories: map[TrainID]*History{},
		sensors:   map[SensorID]*Sensor{},
		sensorOn:  map[SensorID]bool{},
	}
	s.eventsS, s.Events = notify.NewMux[Event]("sim events")
	s.snapshotS, s.Snapshots = notify.NewMux[Snapshot]("sim snapshots")
	return s
}

// Network exposes the underlying graph for read-only inspection in tests and
// observers. Mutate it only through the Simulator.
func (s *Simulator) Network() *layout.Network {
	return s.net
}

// SpawnTrain places a train at the given distance along an edge.
func (s *Simulator) SpawnTrain(edge layout.EdgeID, dist, speed float64, carriages int) (TrainID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.net.Edges[edge]
	if !ok {
		return "", fmt.Errorf("spawn train: edge %s not found", edge)
	}
	if dist < 0 || dist > e.Length {
		return "", fmt.Errorf("spawn train: distance %f outside [0, %f]", dist, e.Length)
	}
	id := TrainID(uuid.New().String())
	s.trains[id] = &Train{
		ID:        id,
		EdgeID:    edge,
		Dist:      dist,
		Dir:       1,
		Speed:     speed,
		Carriages: carriages,
	}
	s.histories[id] = &History{}
	return id, nil
}

// RemoveTrain deletes a train (crashed or not); reports whether it existed.
func (s *Simulator) RemoveTrain(id TrainID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trains[id]; !ok {
		return false
	}
	delete(s.trains, id)
	delete(s.histories, id)
	return true
}

// Train returns a copy of one train's state.
func (s *Simulator) Train(id TrainID) (Train, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trains[id]
	if !ok {
		return Train{}, false
	}
	return *t, true
}

// Trains returns copies of every train, sorted by id.
func (s *Simulator) Trains() []Train {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trainsLocked()
}

func (s *Simulator) trainsLocked() []Train {
	out := make([]Train, 0, len(s.trains))
	for _, id := range s.sortedTrainIDs() {
		out = append(out, *s.trains[id])
	}
	return out
}

func (s *Simulator) sortedTrainIDs() []TrainID {
	ids := make([]TrainID, 0, len(s.trains))
	for id := range s.trains {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AddTrack places a part (snapping onto an open endpoint when in range) and
// returns the first created edge.
func (s *Simulator) AddTrack(partID string, pos geo.Vec, rot float64) (layout.EdgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.net.PlaceConnected(partID, pos, rot)
	if err != nil {
		return "", err
	}
	return p.Edges[0], nil
}

func (s *Simulator) RemoveTrack(id layout.EdgeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Remove(id)
}

func (s *Simulator) ConnectNodes(redundant, survivor layout.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.ConnectNodes(redundant, survivor)
}

func (s *Simulator) ConnectNetworks(moving, target layout.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.ConnectNetworks(moving, target)
}

func (s *Simulator) ToggleSwitch(id layout.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net.ToggleSwitch(id)
	if n, ok := s.net.Nodes[id]; ok && n.Kind == layout.NodeSwitch {
		s.eventsS.Send(EventSwitch{Node: id, State: n.SwitchState})
	}
}

// GetLayout snapshots the track network document.
func (s *Simulator) GetLayout() layout.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Document()
}

// LoadLayout atomically replaces the graph; trains keep running and stall on
// edges that no longer exist.
func (s *Simulator) LoadLayout(d layout.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.LoadDocument(d)
}

func (s *Simulator) ClearLayout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net.Clear()
}

// History returns a copy of a train's movement history.
func (s *Simulator) History(id TrainID) (History, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[id]
	if !ok {
		return History{}, false
	}
	return History{Spans: slices.Clone(h.Spans)}, true
}

// Snapshot captures the simulation state after a tick.
type Snapshot struct {
	Time      time.Time                   `json:"time"`
	Trains    []Train                     `json:"trains"`
	Sensors   map[SensorID]bool           `json:"sensors"`
	Occupancy map[layout.EdgeID][]TrainID `json:"occupancy"`
	SpeedEst  map[TrainID]float64         `json:"speedEst,omitempty"`
}

func (s *Simulator) snapshotLocked(now time.Time) Snapshot {
	snap := Snapshot{
		Time:      now,
		Trains:    s.trainsLocked(),
		Sensors:   map[SensorID]bool{},
		Occupancy: map[layout.EdgeID][]TrainID{},
		SpeedEst:  map[TrainID]float64{},
	}
	for id, on := range s.sensorOn {
		snap.Sensors[id] = on
	}
	for _, id := range s.sortedTrainIDs() {
		t := s.trains[id]
		snap.Occupancy[t.EdgeID] = append(snap.Occupancy[t.EdgeID], id)
		if est, ok := s.histories[id].SpeedEstimate(); ok {
			snap.SpeedEst[id] = est
		}
	}
	return snap
}

// Snapshot returns the current simulation state.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(time.Now())
}

// Tick advances the whole simulation by dt (capped at the configured
// maximum). It never panics on graph states reachable through the public
// API: anomalies degrade to per-train stalls.
func (s *Simulator) Tick(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dt > s.cfg.TickCap {
		dt = s.cfg.TickCap
	}
	now := time.Now()
	sec := dt.Seconds()
	for _, id := range s.sortedTrainIDs() {
		t := s.trains[id]
		if t.Crashed {
			continue
		}
		s.advance(t, sec, now)
	}
	s.detectCollisions(now)
	// sensor/wire effects apply after routing, so they steer the next tick
	s.evalSensors()
	s.snapshotS.Send(s.snapshotLocked(now))
}

// advance moves one train, resolving node transitions, dead-end reflection,
// and residual carry-over.
func (s *Simulator) advance(t *Train, sec float64, now time.Time) {
	e, ok := s.net.Edges[t.EdgeID]
	if !ok {
		s.stall(t, "edge missing")
		return
	}
	nd := t.Dist + t.Speed*float64(t.Dir)*sec
	prevCum := s.histories[t.ID].Cum()
	moved := 0.0
	for hop := 0; hop < maxHops; hop++ {
		var overshoot float64
		var nodeID layout.NodeID
		switch {
		case t.Dir > 0 && nd > e.Length:
			overshoot = nd - e.Length
			nodeID = e.EndNode
			moved += e.Length - t.Dist
			t.Dist = e.Length
		case t.Dir < 0 && nd < 0:
			overshoot = -nd
			nodeID = e.StartNode
			moved += t.Dist
			t.Dist = 0
		default:
			moved += (nd - t.Dist) * float64(t.Dir)
			t.Dist = clampDist(nd, e.Length)
			s.histories[t.ID].Add(Span{Time: now, Edge: t.EdgeID, Dist: t.Dist, Cum: prevCum + moved})
			return
		}

		n, ok := s.net.Nodes[nodeID]
		if !ok {
			s.stall(t, fmt.Sprintf("node %s missing", nodeID))
			return
		}
		next, ok := s.nextEdge(n, t.EdgeID)
		if !ok {
			// dead end: elastic reflection, not a crash
			t.Dir = -t.Dir
			t.BouncedAt = now
			if nodeID == e.EndNode {
				nd = e.Length - overshoot
			} else {
				nd = overshoot
			}
			s.eventsS.Send(EventBounce{Train: t.ID, Node: nodeID})
			continue
		}
		ne, ok := s.net.Edges[next]
		if !ok {
			s.stall(t, fmt.Sprintf("next edge %s missing", next))
			return
		}
		from := t.EdgeID
		// entry side decides direction and residual distance
		if ne.StartNode == nodeID {
			t.Dir = 1
			t.Dist = 0
			nd = overshoot
		} else {
			t.Dir = -1
			t.Dist = ne.Length
			nd = ne.Length - overshoot
		}
		t.EdgeID = next
		e = ne
		s.eventsS.Send(EventTransit{Train: t.ID, From: from, To: next})
	}
	t.Dist = clampDist(nd, e.Length)
	s.histories[t.ID].Add(Span{Time: now, Edge: t.EdgeID, Dist: t.Dist, Cum: prevCum + moved})
}

// nextEdge picks the connection a train leaves a node through: the selected
// branch for switches (falling back to the first other connection when the
// topology is malformed), the first other connection for junctions, nothing
// for dead ends.
func (s *Simulator) nextEdge(n *layout.Node, current layout.EdgeID) (layout.EdgeID, bool) {
	others := make([]layout.EdgeID, 0, len(n.Conns))
	for _, eid := range n.Conns {
		if eid != current {
			others = append(others, eid)
		}
	}
	if len(others) == 0 {
		return "", false
	}
	if n.Kind == layout.NodeSwitch {
		want := n.SwitchBranches[n.SwitchState]
		if slices.Contains(others, want) {
			return want, true
		}
	}
	return others[0], true
}

func (s *Simulator) stall(t *Train, why string) {
	zap.S().Warnw("train stalled this tick",
		"train", t.ID,
		"edge", t.EdgeID,
		"reason", why)
	s.eventsS.Send(EventStall{Train: t.ID, Edge: t.EdgeID})
}

func clampDist(d, length float64) float64 {
	if d < 0 {
		return 0
	}
	if d > length {
		return length
	}
	return d
}

// detectCollisions runs the pairwise checks among live trains: overlap on a
// shared edge within the crash distance, or opposite-direction convergence
// onto a shared node. A crash is terminal until the train is removed.
func (s *Simulator) detectCollisions(now time.Time) {
	ids := s.sortedTrainIDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := s.trains[ids[i]], s.trains[ids[j]]
			if a.Crashed || b.Crashed {
				continue
			}
			if !s.colliding(a, b) {
				continue
			}
			for _, t := range []*Train{a, b} {
				t.Crashed = true
				t.Speed = 0
				t.CrashedAt = now
			}
			s.eventsS.Send(EventCrash{A: a.ID, B: b.ID})
		}
	}
}

func (s *Simulator) colliding(a, b *Train) bool {
	if a.EdgeID == b.EdgeID {
		gap := a.Dist - b.Dist
		if gap < 0 {
			gap = -gap
		}
		return gap <= s.cfg.CrashDistance
	}
	// head-on across a shared node
	ae, aok := s.net.Edges[a.EdgeID]
	be, bok := s.net.Edges[b.EdgeID]
	if !aok || !bok {
		return false
	}
	aNode, aGap := headingTowards(a, ae)
	bNode, bGap := headingTowards(b, be)
	return aNode != "" && aNode == bNode && aGap+bGap <= s.cfg.CrashDistance
}

// headingTowards returns the node a train is moving at and its remaining
// distance to it.
func headingTowards(t *Train, e *layout.Edge) (layout.NodeID, float64) {
	if t.Dir > 0 {
		return e.EndNode, e.Length - t.Dist
	}
	return e.StartNode, t.Dist
}
