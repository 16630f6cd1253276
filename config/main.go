// Package config holds the tunables of the track builder and simulator.
// The crash distance and snap thresholds are deliberately configuration, not
// constants; defaults come from Default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type Config struct {
	// SnapRadius is the maximum distance between a ghost connector and an
	// open endpoint for a snap candidate, in layout units.
	SnapRadius float64 `json:"snap-radius"`
	// SnapAngleTolerance is the maximum facade mismatch for a snap
	// candidate, in degrees.
	SnapAngleTolerance float64 `json:"snap-angle-tolerance"`
	// CrashDistance is the pairwise crash trigger distance along an edge.
	CrashDistance float64 `json:"crash-distance"`
	// TickCap bounds a single simulation step's delta, so a suspended host
	// doesn't produce one huge jump.
	TickCap time.Duration `json:"tick-cap"`
	// CellSize is the spatial index cell size.
	CellSize float64 `json:"cell-size"`

	Trains []Train `json:"trains"`
}

// Train seeds one train at startup.
type Train struct {
	// Edge is an edge id in the layout document.
	Edge      string  `json:"edge"`
	Speed     float64 `json:"speed"`
	Carriages int     `json:"carriages"`
}

func Default() Config {
	return Config{
		SnapRadius:         24,
		SnapAngleTolerance: 15,
		CrashDistance:      16,
		TickCap:            100 * time.Millisecond,
		CellSize:           256,
	}
}

// Load reads a JSON config file, filling unset tunables from Default.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if c.SnapRadius <= 0 || c.CrashDistance < 0 || c.CellSize <= 0 {
		return Config{}, fmt.Errorf("config %s: non-positive tunable", path)
	}
	return c, nil
}
