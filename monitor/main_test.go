package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chayuto/panic-on-rails/config"
	"github.com/chayuto/panic-on-rails/geo"
	"github.com/chayuto/panic-on-rails/layout"
	"github.com/chayuto/panic-on-rails/sim"
)

func testSim(t *testing.T) (*sim.Simulator, sim.TrainID) {
	t.Helper()
	cfg := config.Default()
	cfg.TickCap = time.Second
	s := sim.New(layout.New(cfg), cfg)
	edge, err := s.AddTrack("S248", geo.Vec{}, 0)
	if err != nil {
		t.Fatalf("add track: %s", err)
	}
	id, err := s.SpawnTrain(edge, 0, 40, 1)
	if err != nil {
		t.Fatalf("spawn: %s", err)
	}
	return s, id
}

func TestIndexRenders(t *testing.T) {
	s, id := testSim(t)
	srv := NewServer(s)
	s.Tick(100 * time.Millisecond)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("index status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "panic-on-rails") {
		t.Fatal("index missing title")
	}
	if !strings.Contains(body, string(id)[:8]) {
		t.Fatalf("index missing train %s", id)
	}
}

func TestChart(t *testing.T) {
	s, id := testSim(t)
	srv := NewServer(s)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart?train=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown train status %d", rec.Code)
	}

	// two ticks give the chart something to plot
	s.Tick(100 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	s.Tick(100 * time.Millisecond)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart?train="+string(id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("chart status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("chart content type %s", ct)
	}
}
