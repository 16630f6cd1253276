package sim

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chayuto/panic-on-rails/layout"
)

type SensorID string

// Sensor is a strip of track that reports "on" while any live train is
// within half its length of its position on the bound edge.
type Sensor struct {
	ID     SensorID      `json:"id"`
	EdgeID layout.EdgeID `json:"edgeId"`
	Pos    float64       `json:"pos"`
	Length float64       `json:"length"`
}

type WireAction int

const (
	ActionToggle WireAction = iota + 1
	ActionSetMain
	ActionSetBranch
)

// Wire triggers a switch action on a sensor's off->on transition. Effects
// apply strictly after routing, so they steer the next tick, never the one
// that tripped the sensor.
type Wire struct {
	Sensor SensorID      `json:"sensor"`
	Action WireAction    `json:"action"`
	Target layout.NodeID `json:"target"`
}

// AddSensor binds a sensor to an edge position.
func (s *Simulator) AddSensor(edge layout.EdgeID, pos, length float64) (SensorID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.net.Edges[edge]; !ok {
		return "", fmt.Errorf("add sensor: edge %s not found", edge)
	}
	id := SensorID(uuid.New().String())
	s.sensors[id] = &Sensor{ID: id, EdgeID: edge, Pos: pos, Length: length}
	s.sensorOn[id] = false
	return id, nil
}

// AddWire connects a sensor to a switch action.
func (s *Simulator) AddWire(sensor SensorID, action WireAction, target layout.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sensors[sensor]; !ok {
		return fmt.Errorf("add wire: sensor %s not found", sensor)
	}
	s.wires = append(s.wires, Wire{Sensor: sensor, Action: action, Target: target})
	return nil
}

// evalSensors recomputes every sensor and fires wires on rising edges.
// Callers hold the simulator lock; this runs after routing for the tick.
func (s *Simulator) evalSensors() {
	var rose []SensorID
	for id, sensor := range s.sensors {
		on := false
		for _, t := range s.trains {
			if t.Crashed || t.EdgeID != sensor.EdgeID {
				continue
			}
			gap := t.Dist - sensor.Pos
			if gap < 0 {
				gap = -gap
			}
			if gap <= sensor.Length/2 {
				on = true
				break
			}
		}
		if on != s.sensorOn[id] {
			s.sensorOn[id] = on
			s.eventsS.Send(EventSensor{Sensor: id, On: on})
			if on {
				rose = append(rose, id)
			}
		}
	}
	for _, id := range rose {
		s.fireWires(id)
	}
}

func (s *Simulator) fireWires(sensor SensorID) {
	for _, w := range s.wires {
		if w.Sensor != sensor {
			continue
		}
		switch w.Action {
		case ActionToggle:
			s.net.ToggleSwitch(w.Target)
		case ActionSetMain:
			s.net.SetSwitch(w.Target, layout.SwitchMain)
		case ActionSetBranch:
			s.net.SetSwitch(w.Target, layout.SwitchBranch)
		}
		if n, ok := s.net.Nodes[w.Target]; ok && n.Kind == layout.NodeSwitch {
			s.eventsS.Send(EventSwitch{Node: w.Target, State: n.SwitchState})
		}
	}
}
