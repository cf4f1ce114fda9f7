package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBall(t *testing.T, x, y, r float64) *Ball {
	t.Helper()
	b, err := NewBall(Vector2{X: x, Y: y}, r, DefaultParams())
	require.NoError(t, err)
	return b
}

func mustGround(t *testing.T, id ColliderID, y float64) *Ground {
	t.Helper()
	g, err := NewGround(id, y)
	require.NoError(t, err)
	return g
}

func mustWall(t *testing.T, id ColliderID, x float64, f Facing) *Wall {
	t.Helper()
	w, err := NewWall(id, x, f)
	require.NoError(t, err)
	return w
}

func mustSlab(t *testing.T, id ColliderID, cx, cy, w, h, vx float64) *Slab {
	t.Helper()
	s, err := NewSlab(id, Vector2{X: cx, Y: cy}, Vector2{X: w, Y: h}, vx)
	require.NoError(t, err)
	return s
}

func TestGroundNoFalsePositiveAtSeparation(t *testing.T) {
	g := mustGround(t, 1, 50)
	// Centre 100 above the ground, radius 20.
	b := newTestBall(t, 0, -50, 20)
	n, hit := g.CheckCollision(b)
	assert.False(t, hit, "unexpected ground collision, normal %s", n)
}

func TestGroundTouchCounts(t *testing.T) {
	g := mustGround(t, 1, 50)
	b := newTestBall(t, 0, 30, 20)
	n, hit := g.CheckCollision(b)
	require.True(t, hit, "touching ball should collide with ground")
	assert.Equal(t, Up, n)
}

func TestWallCollisionByFacing(t *testing.T) {
	right := mustWall(t, 1, 480, FacingLeft)
	left := mustWall(t, 2, 0, FacingRight)

	far := newTestBall(t, 240, 0, 20)
	_, hit := right.CheckCollision(far)
	assert.False(t, hit, "far ball collided with right wall")
	_, hit = left.CheckCollision(far)
	assert.False(t, hit, "far ball collided with left wall")

	n, hit := right.CheckCollision(newTestBall(t, 461, 0, 20))
	assert.True(t, hit)
	assert.Equal(t, Vector2{X: -1, Y: 0}, n)

	n, hit = left.CheckCollision(newTestBall(t, 20, 0, 20))
	assert.True(t, hit)
	assert.Equal(t, Vector2{X: 1, Y: 0}, n)
}

func TestSlabSideBands(t *testing.T) {
	// left 100, right 300, top 190, bottom 210
	s := mustSlab(t, 1, 200, 200, 200, 20, 0)

	cases := []struct {
		name   string
		x, y   float64
		normal Vector2
	}{
		{"top", 150, 175, Vector2{X: 0, Y: -1}},
		{"bottom", 150, 225, Vector2{X: 0, Y: 1}},
		{"left", 85, 195, Vector2{X: -1, Y: 0}},
		{"right", 315, 205, Vector2{X: 1, Y: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, hit := s.CheckCollision(newTestBall(t, tc.x, tc.y, 20))
			require.True(t, hit)
			assert.Equal(t, tc.normal, n)
		})
	}
}

func TestSlabTopWinsOverSide(t *testing.T) {
	s := mustSlab(t, 1, 200, 200, 200, 20, 0)
	// Exactly on the left edge and inside the top band: the top test runs first.
	n, hit := s.CheckCollision(newTestBall(t, 100, 195, 20))
	require.True(t, hit)
	assert.Equal(t, Up, n)
}

func TestSlabCornerNormalIsRaw(t *testing.T) {
	s := mustSlab(t, 1, 200, 200, 200, 20, 0)
	// 6 left and 8 above the top-left corner (100, 190): distance 10.
	n, hit := s.CheckCollision(newTestBall(t, 94, 182, 20))
	require.True(t, hit, "expected corner collision")
	assert.Equal(t, Vector2{X: -6, Y: -8}, n)
	assert.InDelta(t, 10, n.Magnitude(), 1e-12)
}

func TestSlabNoFalsePositive(t *testing.T) {
	s := mustSlab(t, 1, 200, 200, 200, 20, 0)
	for _, p := range []Vector2{{X: 200, Y: 100}, {X: 200, Y: 300}, {X: 50, Y: 200}, {X: 350, Y: 200}, {X: 80, Y: 170}} {
		n, hit := s.CheckCollision(newTestBall(t, p.X, p.Y, 20))
		assert.False(t, hit, "ball at %s collided with normal %s", p, n)
	}
}

func TestSlabAdvanceAndOnGround(t *testing.T) {
	s := mustSlab(t, 1, 200, 200, 200, 20, 120)
	s.Advance(0.5)
	assert.Equal(t, 260.0, s.Center().X)
	assert.Equal(t, 190.0, s.SurfaceY())

	assert.True(t, s.OnGround(newTestBall(t, 360, 170, 20)), "ball above right edge should be supported")
	assert.False(t, s.OnGround(newTestBall(t, 361, 170, 20)), "ball past right edge should not be supported")
}

func TestColliderConstructorsValidate(t *testing.T) {
	_, err := NewGround(1, math.NaN())
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = NewWall(1, math.Inf(1), FacingLeft)
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = NewWall(1, 0, Facing(9))
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewSlab(1, Zero, Vector2{X: 0, Y: 10}, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
