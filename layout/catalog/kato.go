package catalog

// Preset parts modelled on the KATO Unitrack series. Lengths are in layout
// units (1 unit = 1 mm of track), curve radii likewise, sweeps in degrees.
// Cost is in shop credits, tuned for gameplay rather than street price.
var parts = map[string]Part{
	"S62":  {ID: "S62", Kind: KindStraight, Length: 62, Cost: 2},
	"S124": {ID: "S124", Kind: KindStraight, Length: 124, Cost: 3},
	"S186": {ID: "S186", Kind: KindStraight, Length: 186, Cost: 4},
	"S248": {ID: "S248", Kind: KindStraight, Length: 248, Cost: 5},

	"R249-45": {ID: "R249-45", Kind: KindCurve, Radius: 249, Sweep: 45, Cost: 5},
	"R282-45": {ID: "R282-45", Kind: KindCurve, Radius: 282, Sweep: 45, Cost: 5},
	"R481-15": {ID: "R481-15", Kind: KindCurve, Radius: 481, Sweep: 15, Cost: 4},
	// mirrored variants curve the other way
	"L249-45": {ID: "L249-45", Kind: KindCurve, Radius: 249, Sweep: -45, Cost: 5},
	"L282-45": {ID: "L282-45", Kind: KindCurve, Radius: 282, Sweep: -45, Cost: 5},

	// EP481-15 turnouts: straight leg 126, curved diverge on a 481 radius
	"EP481-15L": {ID: "EP481-15L", Kind: KindSwitch, Length: 126, BranchRadius: 481, BranchSweep: 15, Cost: 12},
	"EP481-15R": {ID: "EP481-15R", Kind: KindSwitch, Length: 126, BranchRadius: 481, BranchSweep: -15, Cost: 12},
	// WX310 has a straight diverge
	"WX310-15": {ID: "WX310-15", Kind: KindSwitch, Length: 310, BranchAngle: 15, BranchLength: 310, Cost: 14},

	"X90": {ID: "X90", Kind: KindCrossing, Length: 124, CrossAngle: 90, Cost: 8},
	"X15": {ID: "X15", Kind: KindCrossing, Length: 186, CrossAngle: 15, Cost: 9},
}

// Get looks a part up by catalog id.
func Get(id string) (Part, bool) {
	p, ok := parts[id]
	return p, ok
}

// IDs lists every catalog id (order unspecified).
func IDs() []string {
	ids := make([]string, 0, len(parts))
	for id := range parts {
		ids = append(ids, id)
	}
	return ids
}
