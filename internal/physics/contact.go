package physics

import "math"

// Contact describes one collision found during a tick.
type Contact struct {
	Collider ColliderID `json:"collider" msgpack:"collider"`
	Kind     Kind       `json:"kind" msgpack:"kind"`
	Normal   Vector2    `json:"normal" msgpack:"normal"`
	// ImpactSpeed is the approach speed along the normal before resolution,
	// zero when the ball was already separating.
	ImpactSpeed float64 `json:"impact_speed" msgpack:"impact_speed"`
	Landed      bool    `json:"landed" msgpack:"landed"`
}

// collide resolves a detected contact against surface with outward normal n.
// The normal part of the relative velocity loses energy through Contract;
// when nothing is left and n points up, the ball comes to rest on surface.
func (b *Ball) collide(surface Collider, n Vector2) Contact {
	c := Contact{Collider: surface.ID(), Kind: surface.Kind(), Normal: n}

	sv := surface.Velocity()
	rel := b.velocity.Minus(sv)
	if rel.Dot(n) > 0 {
		return c
	}

	normalPart := rel.Project(n)
	tangential := rel.Minus(normalPart)
	c.ImpactSpeed = normalPart.Magnitude()

	// Negated normal velocity, contracted toward rest: points along +n.
	resolved := Contract(normalPart.Invert(), Zero, b.params.ContactScale, b.params.ContactOffset)

	if resolved.IsZero() && n == Up {
		b.land(surface)
		c.Landed = true
	}

	b.velocity = sv.Plus(tangential).Plus(resolved)

	if w, ok := surface.(*Wall); ok {
		b.unstickWall(w)
	}
	return c
}

// unstickWall keeps a ball that touches a wall from jittering against it.
// A grounded ball inside the wall is placed flush with it; an airborne one
// past the allowed penetration gets a push that grows with the square of the
// excess. The push only ever raises the separating speed.
func (b *Ball) unstickWall(w *Wall) {
	depth := w.penetration(b)
	if b.grounded {
		if depth > 0 {
			b.position.X = w.flushX(b.radius)
		}
		return
	}

	allowed := b.params.WallAllowedPenetration
	if depth <= allowed {
		return
	}
	over := depth - allowed
	repel := b.params.WallRepulsion * over * over
	if w.facing == FacingLeft {
		b.velocity.X = math.Min(b.velocity.X, -repel)
	} else {
		b.velocity.X = math.Max(b.velocity.X, repel)
	}
}
