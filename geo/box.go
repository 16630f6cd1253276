package geo

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec `json:"min"`
	Max Vec `json:"max"`
}

func BoxOf(v Vec) Box {
	return Box{Min: v, Max: v}
}

func BoxAround(center Vec, half float64) Box {
	return Box{
		Min: Vec{center.X - half, center.Y - half},
		Max: Vec{center.X + half, center.Y + half},
	}
}

func (b Box) Extend(v Vec) Box {
	if v.X < b.Min.X {
		b.Min.X = v.X
	}
	if v.Y < b.Min.Y {
		b.Min.Y = v.Y
	}
	if v.X > b.Max.X {
		b.Max.X = v.X
	}
	if v.Y > b.Max.Y {
		b.Max.Y = v.Y
	}
	return b
}

func (b Box) Union(o Box) Box {
	return b.Extend(o.Min).Extend(o.Max)
}

func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y
}

func (b Box) Contains(v Vec) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X && v.Y >= b.Min.Y && v.Y <= b.Max.Y
}
