// Package spatial is a hash grid over bounding boxes for constant-time
// viewport queries. It is kept in sync by every graph mutation and consumed
// by rendering; nothing in here understands track semantics.
package spatial

import (
	"math"

	"golang.org/x/exp/maps"

	"github.com/chayuto/panic-on-rails/geo"
)

type cellKey struct {
	X, Y int
}

type Grid struct {
	cell  float64
	cells map[cellKey]map[string]struct{}
	boxes map[string]geo.Box
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		panic("cell size must be positive")
	}
	return &Grid{
		cell:  cellSize,
		cells: map[cellKey]map[string]struct{}{},
		boxes: map[string]geo.Box{},
	}
}

func (g *Grid) keysFor(b geo.Box) []cellKey {
	x0 := int(math.Floor(b.Min.X / g.cell))
	y0 := int(math.Floor(b.Min.Y / g.cell))
	x1 := int(math.Floor(b.Max.X / g.cell))
	y1 := int(math.Floor(b.Max.Y / g.cell))
	keys := make([]cellKey, 0, (x1-x0+1)*(y1-y0+1))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			keys = append(keys, cellKey{x, y})
		}
	}
	return keys
}

// Insert registers id under b, replacing any previous registration.
func (g *Grid) Insert(id string, b geo.Box) {
	if _, ok := g.boxes[id]; ok {
		g.Remove(id)
	}
	g.boxes[id] = b
	for _, k := range g.keysFor(b) {
		c, ok := g.cells[k]
		if !ok {
			c = map[string]struct{}{}
			g.cells[k] = c
		}
		c[id] = struct{}{}
	}
}

func (g *Grid) Remove(id string) {
	b, ok := g.boxes[id]
	if !ok {
		return
	}
	delete(g.boxes, id)
	for _, k := range g.keysFor(b) {
		c := g.cells[k]
		delete(c, id)
		if len(c) == 0 {
			delete(g.cells, k)
		}
	}
}

// Query returns the ids whose boxes intersect view (order unspecified).
func (g *Grid) Query(view geo.Box) []string {
	seen := map[string]struct{}{}
	for _, k := range g.keysFor(view) {
		for id := range g.cells[k] {
			if _, dup := seen[id]; dup {
				continue
			}
			if g.boxes[id].Intersects(view) {
				seen[id] = struct{}{}
			}
		}
	}
	return maps.Keys(seen)
}

func (g *Grid) Clear() {
	maps.Clear(g.cells)
	maps.Clear(g.boxes)
}

func (g *Grid) Len() int {
	return len(g.boxes)
}
