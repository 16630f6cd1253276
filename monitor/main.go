// Package monitor serves the simulation over HTTP: a server-sent-event
// stream of per-tick snapshots and events, an HTML status page, and rendered
// train history charts.
package monitor

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"

	"github.com/chayuto/panic-on-rails/sim"
)

//go:embed index.html
var templates embed.FS

// eventLogCap bounds the recent-event ring shown on the index page.
const eventLogCap = 64

type Server struct {
	sim *sim.Simulator
	s   *sse.Server
	sm  *http.ServeMux
	t   *template.Template

	mu     sync.Mutex
	latest sim.Snapshot
	events []string
}

func NewServer(simulator *sim.Simulator) *Server {
	s := &Server{
		sim: simulator,
		s:   sse.New(),
		sm:  http.NewServeMux(),
	}
	s.t = template.Must(template.New("index").Funcs(sprig.FuncMap()).Funcs(template.FuncMap{
		"dist": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64)
		},
	}).ParseFS(templates, "*.html"))
	s.sm.HandleFunc("/", s.handleIndex)
	s.sm.HandleFunc("/chart", s.handleChart)
	s.sm.Handle("/sse", s.s)
	go s.forwardSnapshots()
	go s.forwardEvents()
	return s
}

func (s *Server) forwardSnapshots() {
	s.s.CreateStream("snapshot")
	defer s.s.RemoveStream("snapshot")
	ch := make(chan sim.Snapshot)
	s.sim.Snapshots.Subscribe("monitor", ch)
	defer s.sim.Snapshots.Unsubscribe(ch)
	for snap := range ch {
		s.mu.Lock()
		s.latest = snap
		s.mu.Unlock()
		data, err := json.Marshal(snap)
		if err != nil {
			zap.S().Errorw("monitor: marshal snapshot", "err", err)
			continue
		}
		s.s.TryPublish("snapshot", &sse.Event{Data: data})
	}
}

func (s *Server) forwardEvents() {
	s.s.CreateStream("events")
	defer s.s.RemoveStream("events")
	ch := make(chan sim.Event)
	s.sim.Events.Subscribe("monitor", ch)
	defer s.sim.Events.Unsubscribe(ch)
	for ev := range ch {
		line := time.Now().Format("15:04:05") + " " + ev.String()
		s.mu.Lock()
		s.events = append(s.events, line)
		if len(s.events) > eventLogCap {
			s.events = s.events[len(s.events)-eventLogCap:]
		}
		s.mu.Unlock()
		s.s.TryPublish("events", &sse.Event{Data: []byte(ev.String())})
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.latest
	events := append([]string(nil), s.events...)
	s.mu.Unlock()
	if snap.Time.IsZero() {
		snap = s.sim.Snapshot()
	}
	err := s.t.ExecuteTemplate(w, "index", map[string]interface{}{
		"snap":   snap,
		"events": events,
		"now":    time.Now().Format("15:04:05"),
	})
	if err != nil {
		zap.S().Errorw("monitor: render index", "err", err)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.sm.ServeHTTP(w, r)
}
