package physics

import (
	"fmt"
	"math"
)

// Vector2 is an immutable 2D value. Components are expected to stay finite;
// NewVector2 is the checked entry point for values coming from outside.
type Vector2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

var (
	Zero = Vector2{}
	Up   = Vector2{X: 0, Y: -1}
)

// NewVector2 rejects NaN and Inf components.
func NewVector2(x, y float64) (Vector2, error) {
	v := Vector2{X: x, Y: y}
	if !v.IsFinite() {
		return Vector2{}, fmt.Errorf("vector (%v, %v): %w", x, y, ErrNonFinite)
	}
	return v, nil
}

func (v Vector2) Plus(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2) Minus(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2) Times(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

func (v Vector2) Div(s float64) Vector2 {
	return Vector2{X: v.X / s, Y: v.Y / s}
}

// Dot is the scalar product.
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector2) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vector2) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Unit returns v scaled to length 1. Calling it on a zero vector is a bug in
// the caller and panics.
func (v Vector2) Unit() Vector2 {
	m := v.Magnitude()
	if m == 0 {
		panic("physics: unit vector of zero vector")
	}
	return v.Div(m)
}

// Project returns the component of v along onto. onto need not be unit length.
func (v Vector2) Project(onto Vector2) Vector2 {
	d := onto.MagnitudeSquared()
	if d == 0 {
		return Vector2{}
	}
	return onto.Times(v.Dot(onto) / d)
}

// Perpendicular rotates v by 90 degrees: (x, y) -> (-y, x).
func (v Vector2) Perpendicular() Vector2 {
	return Vector2{X: -v.Y, Y: v.X}
}

func (v Vector2) Invert() Vector2 {
	return Vector2{X: -v.X, Y: -v.Y}
}

func (v Vector2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vector2) IsFinite() bool {
	return finite(v.X) && finite(v.Y)
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}

// Contract moves v toward center: the distance is multiplied by scale and then
// reduced by offset. A distance that would drop to zero or below yields center
// exactly. A zero difference returns center without normalising.
func Contract(v, center Vector2, scale, offset float64) Vector2 {
	d := v.Minus(center)
	if d.IsZero() {
		return center
	}
	m := d.Magnitude()*scale - offset
	if m <= 0 {
		return center
	}
	return center.Plus(d.Unit().Times(m))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
