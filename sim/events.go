package sim

import (
	"fmt"

	"github.com/chayuto/panic-on-rails/layout"
)

// Event is anything the simulator reports to observers.
type Event interface {
	fmt.Stringer
}

// EventTransit fires when a train crosses from one edge to another.
type EventTransit struct {
	Train    TrainID
	From, To layout.EdgeID
}

func (e EventTransit) String() string {
	return fmt.Sprintf("train %s: %s -> %s", e.Train, e.From, e.To)
}

// EventBounce fires on dead-end reflection.
type EventBounce struct {
	Train TrainID
	Node  layout.NodeID
}

func (e EventBounce) String() string {
	return fmt.Sprintf("train %s bounced at %s", e.Train, e.Node)
}

// EventCrash fires once per colliding pair; both trains are terminal.
type EventCrash struct {
	A, B TrainID
}

func (e EventCrash) String() string {
	return fmt.Sprintf("trains %s and %s crashed", e.A, e.B)
}

// EventStall fires when a dangling reference degrades a train to a no-op
// for the tick.
type EventStall struct {
	Train TrainID
	Edge  layout.EdgeID
}

func (e EventStall) String() string {
	return fmt.Sprintf("train %s stalled on %s", e.Train, e.Edge)
}

// EventSensor fires on sensor state transitions.
type EventSensor struct {
	Sensor SensorID
	On     bool
}

func (e EventSensor) String() string {
	verb := map[bool]string{true: "on", false: "off"}[e.On]
	return fmt.Sprintf("sensor %s %s", e.Sensor, verb)
}

// EventSwitch fires when a switch is thrown, by hand or by wire.
type EventSwitch struct {
	Node  layout.NodeID
	State layout.SwitchState
}

func (e EventSwitch) String() string {
	return fmt.Sprintf("switch %s set to %d", e.Node, e.State)
}
