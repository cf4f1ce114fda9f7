package physics

// applyFriction couples the ball's tangential velocity with its rim speed
// against a surface moving at sv with normal n.
//
// Both quantities are kept relative to the surface and along the surface
// tangent t. relLin is the surface speed minus the ball speed; rim is the
// velocity of the contact point relative to the centre. Rolling without
// slipping is relLin == rim. Sliding friction pulls both toward their average
// times times; rolling resistance then pulls both toward zero once.
func (b *Ball) applyFriction(sv, n Vector2, times int) {
	t := n.Perpendicular().Unit()

	vt := b.velocity.Dot(t)
	vn := b.velocity.Minus(t.Times(vt))
	su := sv.Dot(t)

	relLin := t.Times(su - vt)
	rim := t.Times(-b.angularVelocity * b.radius)

	p := b.params
	for i := 0; i < times; i++ {
		relLin, rim = slideStep(relLin, rim, p.SlidingScale, p.SlidingOffset)
	}
	relLin, rim = rollStep(relLin, rim, p.RollingScale, p.RollingOffset)

	b.velocity = vn.Plus(t.Times(su - relLin.Dot(t)))
	b.angularVelocity = -rim.Dot(t) / b.radius
}

// slideStep pulls a and b toward their common average.
func slideStep(a, b Vector2, scale, offset float64) (Vector2, Vector2) {
	avg := a.Plus(b).Times(0.5)
	return Contract(a, avg, scale, offset), Contract(b, avg, scale, offset)
}

// rollStep pulls a and b toward rest.
func rollStep(a, b Vector2, scale, offset float64) (Vector2, Vector2) {
	return Contract(a, Zero, scale, offset), Contract(b, Zero, scale, offset)
}
