package physics

import (
	"fmt"
	"math"
)

// ColliderID is a stable handle for a collider, assigned by whoever owns it.
// The ball keeps only this handle for its support surface.
type ColliderID uint32

// NoCollider is the zero handle; owners never assign it.
const NoCollider ColliderID = 0

// Kind identifies one of the three collider variants.
type Kind uint8

const (
	KindGround Kind = iota + 1
	KindWall
	KindSlab
)

func (k Kind) String() string {
	switch k {
	case KindGround:
		return "ground"
	case KindWall:
		return "wall"
	case KindSlab:
		return "slab"
	default:
		return "unknown"
	}
}

// Collider is a static or kinematic surface the ball can touch. The set of
// implementations is closed: *Ground, *Wall and *Slab.
type Collider interface {
	ID() ColliderID
	Kind() Kind
	// CheckCollision returns the outward normal when the ball touches or
	// overlaps the collider at its current position.
	CheckCollision(b *Ball) (Vector2, bool)
	Velocity() Vector2
	// SupportNormal is the normal used for friction while resting on it.
	SupportNormal() Vector2
	SurfaceY() float64
	SurfaceX() float64
	// OnGround reports whether the collider still supports a grounded ball.
	OnGround(b *Ball) bool

	sealed()
}

// Ground is an infinite horizontal plane.
type Ground struct {
	id ColliderID
	y  float64
}

func NewGround(id ColliderID, y float64) (*Ground, error) {
	if !finite(y) {
		return nil, fmt.Errorf("ground y: %w", ErrNonFinite)
	}
	return &Ground{id: id, y: y}, nil
}

func (g *Ground) ID() ColliderID         { return g.id }
func (g *Ground) Kind() Kind             { return KindGround }
func (g *Ground) Velocity() Vector2      { return Zero }
func (g *Ground) SupportNormal() Vector2 { return Up }
func (g *Ground) SurfaceY() float64      { return g.y }
func (g *Ground) SurfaceX() float64      { return 0 }
func (g *Ground) OnGround(*Ball) bool    { return true }
func (g *Ground) sealed()                {}

func (g *Ground) CheckCollision(b *Ball) (Vector2, bool) {
	if g.y <= b.position.Y+b.radius {
		return Up, true
	}
	return Zero, false
}

// Facing says which way a wall's solid side faces.
type Facing uint8

const (
	// FacingLeft: the solid is on the right and blocks motion toward +x.
	FacingLeft Facing = iota + 1
	// FacingRight: the solid is on the left and blocks motion toward -x.
	FacingRight
)

func (f Facing) String() string {
	if f == FacingLeft {
		return "left"
	}
	return "right"
}

// Wall is an infinite vertical plane.
type Wall struct {
	id     ColliderID
	x      float64
	facing Facing
}

func NewWall(id ColliderID, x float64, facing Facing) (*Wall, error) {
	if !finite(x) {
		return nil, fmt.Errorf("wall x: %w", ErrNonFinite)
	}
	if facing != FacingLeft && facing != FacingRight {
		return nil, fmt.Errorf("wall facing %d: %w", facing, ErrInvalidParams)
	}
	return &Wall{id: id, x: x, facing: facing}, nil
}

func (w *Wall) ID() ColliderID      { return w.id }
func (w *Wall) Kind() Kind          { return KindWall }
func (w *Wall) Velocity() Vector2   { return Zero }
func (w *Wall) SurfaceY() float64   { return 0 }
func (w *Wall) SurfaceX() float64   { return w.x }
func (w *Wall) Facing() Facing      { return w.facing }
func (w *Wall) OnGround(*Ball) bool { return false }
func (w *Wall) sealed()             {}

func (w *Wall) SupportNormal() Vector2 {
	if w.facing == FacingLeft {
		return Vector2{X: -1, Y: 0}
	}
	return Vector2{X: 1, Y: 0}
}

func (w *Wall) CheckCollision(b *Ball) (Vector2, bool) {
	if w.penetration(b) >= 0 {
		return w.SupportNormal(), true
	}
	return Zero, false
}

// penetration is how far the ball's leading edge is past the plane.
func (w *Wall) penetration(b *Ball) float64 {
	if w.facing == FacingLeft {
		return b.position.X + b.radius - w.x
	}
	return w.x - (b.position.X - b.radius)
}

// flushX is the centre x that puts the ball exactly against the wall.
func (w *Wall) flushX(radius float64) float64 {
	if w.facing == FacingLeft {
		return w.x - radius
	}
	return w.x + radius
}

// Slab is an axis-aligned rectangle translating horizontally at a constant
// speed. Its owner advances it; the ball only reads it.
type Slab struct {
	id     ColliderID
	center Vector2
	size   Vector2
	vx     float64
}

func NewSlab(id ColliderID, center, size Vector2, vx float64) (*Slab, error) {
	if !center.IsFinite() || !size.IsFinite() || !finite(vx) {
		return nil, fmt.Errorf("slab %d: %w", id, ErrNonFinite)
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("slab %d size %s: %w", id, size, ErrInvalidSize)
	}
	return &Slab{id: id, center: center, size: size, vx: vx}, nil
}

func (s *Slab) ID() ColliderID         { return s.id }
func (s *Slab) Kind() Kind             { return KindSlab }
func (s *Slab) Velocity() Vector2      { return Vector2{X: s.vx, Y: 0} }
func (s *Slab) SupportNormal() Vector2 { return Up }
func (s *Slab) SurfaceY() float64      { return s.center.Y - s.size.Y/2 }
func (s *Slab) SurfaceX() float64      { return 0 }
func (s *Slab) Center() Vector2        { return s.center }
func (s *Slab) Size() Vector2          { return s.size }
func (s *Slab) sealed()                {}

// Bounds returns left, top, right, bottom.
func (s *Slab) Bounds() (left, top, right, bottom float64) {
	hw, hh := s.size.X/2, s.size.Y/2
	return s.center.X - hw, s.center.Y - hh, s.center.X + hw, s.center.Y + hh
}

// Advance moves the slab by its own velocity.
func (s *Slab) Advance(dt float64) {
	s.center.X += s.vx * dt
}

// SetVelocityX is used by the owner to turn a slab around.
func (s *Slab) SetVelocityX(vx float64) {
	s.vx = vx
}

func (s *Slab) OnGround(b *Ball) bool {
	left, _, right, _ := s.Bounds()
	return left <= b.position.X && b.position.X <= right
}

// CheckCollision tests the four side bands in the order top, bottom, left,
// right and takes the first match. Otherwise the nearest corner within the
// radius wins, and the returned normal is the raw corner-to-centre vector.
func (s *Slab) CheckCollision(b *Ball) (Vector2, bool) {
	left, top, right, bottom := s.Bounds()
	p, r := b.position, b.radius
	inX := left <= p.X && p.X <= right
	inY := top <= p.Y && p.Y <= bottom

	switch {
	case inX && top-r <= p.Y && p.Y <= s.center.Y:
		return Up, true
	case inX && s.center.Y < p.Y && p.Y <= bottom+r:
		return Vector2{X: 0, Y: 1}, true
	case inY && left-r <= p.X && p.X <= s.center.X:
		return Vector2{X: -1, Y: 0}, true
	case inY && s.center.X < p.X && p.X <= right+r:
		return Vector2{X: 1, Y: 0}, true
	}

	best := math.Inf(1)
	var normal Vector2
	hit := false
	for _, cx := range [2]float64{left, right} {
		for _, cy := range [2]float64{top, bottom} {
			d := p.Minus(Vector2{X: cx, Y: cy})
			dist := d.Magnitude()
			if dist <= r && dist < best && !d.IsZero() {
				best, normal, hit = dist, d, true
			}
		}
	}
	return normal, hit
}

var (
	_ Collider = (*Ground)(nil)
	_ Collider = (*Wall)(nil)
	_ Collider = (*Slab)(nil)
)
