package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlideStepShrinksDifferenceWithoutFlip(t *testing.T) {
	p := DefaultParams()
	pairs := [][2]Vector2{
		{{X: 10, Y: 0}, {X: -4, Y: 0}},
		{{X: 0, Y: 300}, {X: 0, Y: 0}},
		{{X: -0.2, Y: 0}, {X: 0.3, Y: 0}},
		{{X: 120, Y: 0}, {X: 119, Y: 0}},
	}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		before := a.Minus(b)
		na, nb := slideStep(a, b, p.SlidingScale, p.SlidingOffset)
		after := na.Minus(nb)

		assert.LessOrEqual(t, after.Magnitude(), before.Magnitude(), "difference grew: %s -> %s", before, after)
		assert.GreaterOrEqual(t, after.Dot(before), 0.0, "difference flipped sign: %s -> %s", before, after)
	}
}

func TestRollStepMovesTowardRest(t *testing.T) {
	p := DefaultParams()
	a, b := rollStep(Vector2{X: 10, Y: 0}, Vector2{X: 0, Y: 0.01}, p.RollingScale, p.RollingOffset)
	assert.InDelta(t, 9.85, a.X, 1e-12)
	assert.True(t, b.IsZero(), "tiny b should reach rest, got %s", b)
}

func TestFrictionReachesRolling(t *testing.T) {
	b := newTestBall(t, 0, -20, 20)
	b.velocity = Vector2{X: 100, Y: 0}

	b.applyFriction(Zero, Up, 60)

	vx := b.Velocity().X
	require.True(t, vx > 0 && vx < 100, "vx = %v, want between 0 and 100", vx)
	assert.Equal(t, 0.0, b.Velocity().Y, "friction on the ground changed vy")
	// Rolling without slipping: the contact point is at rest.
	assert.InDelta(t, vx, b.AngularVelocity()*b.Radius(), 1e-9)
}

func TestFrictionOnMovingSurfaceMatchesItsSpeed(t *testing.T) {
	b := newTestBall(t, 0, -20, 20)
	sv := Vector2{X: 120, Y: 0}
	for i := 0; i < 2000; i++ {
		b.applyFriction(sv, Up, 1)
	}
	assert.InDelta(t, 120, b.Velocity().X, 1e-9)
	assert.Equal(t, 0.0, b.AngularVelocity())
}

func TestFrictionNeverAddsEnergyRelativeToSurface(t *testing.T) {
	b := newTestBall(t, 0, -20, 20)
	b.velocity = Vector2{X: -40, Y: 0}
	b.angularVelocity = 3

	slip := func() float64 {
		return math.Abs(b.Velocity().X) + math.Abs(b.AngularVelocity()*b.Radius())
	}
	prev := slip()
	for i := 0; i < 500; i++ {
		b.applyFriction(Zero, Up, 1)
		cur := slip()
		require.LessOrEqual(t, cur, prev+1e-9, "tick %d: slip grew", i)
		prev = cur
	}
}
