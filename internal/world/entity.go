package world

// Enemy is a hazard drifting toward the player.
type Enemy struct {
	X, Y   float64
	VX, VY float64
	Type   int // 0-3, affects size only
	Size   float64
	Active bool
}

// Radius is the collision radius.
func (e *Enemy) Radius() float64 { return e.Size / 2 }

// PowerUp is a collectible worth a flat score bonus.
type PowerUp struct {
	X, Y   float64
	Type   int // 0-2
	Active bool
	Pulse  float64 // animation phase, seconds
}

// CircleHit reports whether two circles overlap. Touching circles do not.
func CircleHit(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x1 - x2
	dy := y1 - y2
	rr := r1 + r2
	return dx*dx+dy*dy < rr*rr
}

// compactEnemies drops inactive enemies in place, keeping survivor order.
func compactEnemies(in []Enemy) []Enemy {
	out := in[:0]
	for _, e := range in {
		if e.Active {
			out = append(out, e)
		}
	}
	clear(in[len(out):])
	return out
}

func compactPowerUps(in []PowerUp) []PowerUp {
	out := in[:0]
	for _, p := range in {
		if p.Active {
			out = append(out, p)
		}
	}
	clear(in[len(out):])
	return out
}
