package monitor

import (
	"net/http"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/chayuto/panic-on-rails/sim"
)

// handleChart renders one train's movement history as a PNG: cumulative path
// length over elapsed milliseconds, colored by distance.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := sim.TrainID(r.URL.Query().Get("train"))
	h, ok := s.sim.History(id)
	if !ok {
		http.Error(w, "unknown train", http.StatusNotFound)
		return
	}
	if len(h.Spans) < 2 {
		http.Error(w, "no history yet", http.StatusNotFound)
		return
	}

	viridisByY := func(xr, yr chart.Range, index int, x, y float64) drawing.Color {
		return chart.Viridis(y, yr.GetMin(), yr.GetMax())
	}

	start := h.Spans[0].Time
	xValues := make([]float64, 0, len(h.Spans))
	yValues := make([]float64, 0, len(h.Spans))
	for _, span := range h.Spans {
		xValues = append(xValues, float64(span.Time.Sub(start).Milliseconds()))
		yValues = append(yValues, span.Cum)
	}

	graph := chart.Chart{
		Height: 400,
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeWidth:      chart.Disabled,
					DotWidth:         5,
					DotColorProvider: viridisByY,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	w.Header().Set("Content-Type", "image/png")
	if err := graph.Render(chart.PNG, w); err != nil {
		zap.S().Errorw("monitor: render chart", "train", id, "err", err)
	}
}
