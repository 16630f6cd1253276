package main

import (
	"flag"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chayuto/panic-on-rails/config"
	"github.com/chayuto/panic-on-rails/layout"
	"github.com/chayuto/panic-on-rails/monitor"
	"github.com/chayuto/panic-on-rails/sim"
	"github.com/chayuto/panic-on-rails/store"
)

var (
	configPath string
	dbPath     string
	layoutName string
	listen     string
	hz         int
)

func main() {
	defer zap.S().Sync()
	level := zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	flag.StringVar(&configPath, "config", "", "path to config JSON (built-in defaults when empty)")
	flag.StringVar(&dbPath, "db-path", "./layouts.db", "path to layout database")
	flag.StringVar(&layoutName, "layout", "", "named layout to load from the database")
	flag.StringVar(&listen, "listen", "0.0.0.0:8080", "monitor listen address")
	flag.IntVar(&hz, "hz", 60, "simulation tick rate")
	flag.Parse()
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(*level)
	dev, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)

	cfg := config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			zap.S().Fatalf("load config: %s", err)
		}
	}

	s := sim.New(layout.New(cfg), cfg)

	if layoutName != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			zap.S().Fatalf("open store: %s", err)
		}
		doc, err := st.Load(layoutName)
		if err != nil {
			zap.S().Fatalf("load layout: %s", err)
		}
		st.Close()
		if err := s.LoadLayout(doc); err != nil {
			zap.S().Fatalf("apply layout: %s", err)
		}
		zap.S().Infow("loaded layout",
			"name", layoutName,
			"nodes", len(doc.Nodes),
			"edges", len(doc.Edges))
	}

	for _, seed := range cfg.Trains {
		id, err := s.SpawnTrain(layout.EdgeID(seed.Edge), 0, seed.Speed, seed.Carriages)
		if err != nil {
			zap.S().Warnw("skipping seed train", "edge", seed.Edge, "err", err)
			continue
		}
		zap.S().Infow("spawned train", "train", id, "edge", seed.Edge, "speed", seed.Speed)
	}

	m := monitor.NewServer(s)
	go func() {
		zap.S().Infow("monitor listening", "addr", listen)
		zap.S().Fatalf("monitor: %s", http.ListenAndServe(listen, m))
	}()

	ticker := time.NewTicker(time.Second / time.Duration(hz))
	last := time.Now()
	for now := range ticker.C {
		s.Tick(now.Sub(last))
		last = now
	}
}
