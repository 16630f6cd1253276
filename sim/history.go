package sim

import (
	"time"

	"github.com/openacid/slimarray/polyfit"

	"github.com/chayuto/panic-on-rails/layout"
)

// historyCap bounds the spans kept per train.
const historyCap = 512

// speedFitWindow is how many recent spans feed the speed estimate.
const speedFitWindow = 32

// Span is one recorded train position.
type Span struct {
	Time time.Time     `json:"time"`
	Edge layout.EdgeID `json:"edge"`
	Dist float64       `json:"dist"`
	// Cum is the absolute path length travelled since spawn, monotonic
	// across edge transitions and bounces.
	Cum float64 `json:"cum"`
}

// History records where a train has been.
type History struct {
	Spans []Span
}

func (h *History) Add(s Span) {
	h.Spans = append(h.Spans, s)
	if len(h.Spans) > historyCap {
		h.Spans = h.Spans[len(h.Spans)-historyCap:]
	}
}

// Cum is the latest cumulative distance, zero for a fresh history.
func (h *History) Cum() float64 {
	if len(h.Spans) == 0 {
		return 0
	}
	return h.Spans[len(h.Spans)-1].Cum
}

// SpeedEstimate fits a line over the recent cumulative-distance spans and
// returns its slope in units per second. It reports false until there are
// at least two spans spread over a non-zero interval.
func (h *History) SpeedEstimate() (float64, bool) {
	spans := h.Spans
	if len(spans) > speedFitWindow {
		spans = spans[len(spans)-speedFitWindow:]
	}
	if len(spans) < 2 {
		return 0, false
	}
	start := spans[0].Time
	if !spans[len(spans)-1].Time.After(start) {
		return 0, false
	}
	xs := make([]float64, len(spans))
	ys := make([]float64, len(spans))
	for i, sp := range spans {
		xs[i] = sp.Time.Sub(start).Seconds()
		ys[i] = sp.Cum
	}
	fit := polyfit.NewFit(xs, ys, 1)
	coeffs := fit.Solve()
	return coeffs[1], true
}
