package physics

import (
	"fmt"
	"math"
)

// Ball is the only moving body. It is owned by the game-level aggregate and
// replaced wholesale on restart.
type Ball struct {
	position        Vector2
	velocity        Vector2
	angle           float64
	angularVelocity float64
	radius          float64

	// support is a handle into the caller's collider snapshot, never the
	// collider itself. It is NoCollider whenever grounded is false.
	grounded    bool
	support     ColliderID
	supportKind Kind

	params Params
}

// BallState is a read-only copy of the ball for renderers and persistence.
type BallState struct {
	Position        Vector2    `json:"position" msgpack:"p"`
	Velocity        Vector2    `json:"velocity" msgpack:"v"`
	Angle           float64    `json:"angle" msgpack:"a"`
	AngularVelocity float64    `json:"angular_velocity" msgpack:"w"`
	Radius          float64    `json:"radius" msgpack:"r"`
	Grounded        bool       `json:"grounded" msgpack:"g"`
	Support         ColliderID `json:"support,omitempty" msgpack:"s"`
}

// TickReport lists what happened during one tick.
type TickReport struct {
	Contacts   []Contact `json:"contacts,omitempty"`
	Landed     bool      `json:"landed"`
	Bounced    bool      `json:"bounced"`
	LeftGround bool      `json:"left_ground"`
}

func NewBall(position Vector2, radius float64, params Params) (*Ball, error) {
	if !position.IsFinite() {
		return nil, fmt.Errorf("ball position %s: %w", position, ErrNonFinite)
	}
	if !finite(radius) {
		return nil, fmt.Errorf("ball radius: %w", ErrNonFinite)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("ball radius %v: %w", radius, ErrInvalidRadius)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Ball{position: position, radius: radius, params: params}, nil
}

// Tick advances the ball by dt against the collider snapshot. The order of
// the steps is part of the model and must not change:
//
//  1. integrate position and angle
//  2. re-validate the support surface
//  3. airborne: gravity; grounded: friction, then the optional bounce
//  4. resolve every new contact, each followed by settle friction
func (b *Ball) Tick(dt float64, colliders []Collider, bounce bool) TickReport {
	var report TickReport

	b.position = b.position.Plus(b.velocity.Times(dt))
	b.angle += b.angularVelocity * dt

	var support Collider
	if b.grounded {
		support = findCollider(colliders, b.support)
		if !b.stillSupported(support) {
			b.leaveGround()
			report.LeftGround = true
		}
	}

	if !b.grounded {
		b.velocity.Y += b.params.Gravity * dt
	} else {
		b.applyFriction(support.Velocity(), support.SupportNormal(), 1)
		if bounce && b.Bounce() {
			report.Bounced = true
		}
	}

	for _, c := range colliders {
		if b.grounded && c.ID() == b.support {
			continue
		}
		n, hit := c.CheckCollision(b)
		if !hit {
			continue
		}
		contact := b.collide(c, n)
		b.applyFriction(c.Velocity(), n, b.params.FrictionSettleRepeats)
		report.Contacts = append(report.Contacts, contact)
		if contact.Landed {
			report.Landed = true
		}
	}

	return report
}

// Bounce kicks a grounded ball upward and makes it airborne. It does nothing
// in the air.
func (b *Ball) Bounce() bool {
	if !b.grounded {
		return false
	}
	b.leaveGround()
	b.velocity.Y -= b.params.BounceSpeed
	return true
}

// stillSupported checks the support is present and still under the ball. A
// ball drifting away from its support along the normal is released; one
// drifting into it is held on the surface.
func (b *Ball) stillSupported(support Collider) bool {
	if support == nil || !support.OnGround(b) {
		return false
	}
	n := support.SupportNormal()
	s := b.velocity.Minus(support.Velocity()).Dot(n)
	if s > 0 {
		return false
	}
	if s < 0 {
		b.velocity = b.velocity.Minus(n.Times(s))
		b.position.Y = support.SurfaceY() - b.radius
	}
	return true
}

func (b *Ball) land(surface Collider) {
	b.grounded = true
	b.support = surface.ID()
	b.supportKind = surface.Kind()
	b.position.Y = surface.SurfaceY() - b.radius
}

func (b *Ball) leaveGround() {
	b.support = NoCollider
	b.supportKind = 0
	b.grounded = false
}

func findCollider(colliders []Collider, id ColliderID) Collider {
	if id == NoCollider {
		return nil
	}
	for _, c := range colliders {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

func (b *Ball) Position() Vector2        { return b.position }
func (b *Ball) Velocity() Vector2        { return b.velocity }
func (b *Ball) AngleRadians() float64    { return b.angle }
func (b *Ball) AngleDegrees() float64    { return b.angle * 180 / math.Pi }
func (b *Ball) AngularVelocity() float64 { return b.angularVelocity }
func (b *Ball) Radius() float64          { return b.radius }
func (b *Ball) Grounded() bool           { return b.grounded }
func (b *Ball) SupportID() ColliderID    { return b.support }
func (b *Ball) Params() Params           { return b.params }

// GroundInfo describes the current contact for debug overlays.
func (b *Ball) GroundInfo() string {
	if !b.grounded {
		return "airborne"
	}
	return fmt.Sprintf("%s#%d", b.supportKind, b.support)
}

func (b *Ball) Snapshot() BallState {
	return BallState{
		Position:        b.position,
		Velocity:        b.velocity,
		Angle:           b.angle,
		AngularVelocity: b.angularVelocity,
		Radius:          b.radius,
		Grounded:        b.grounded,
		Support:         b.support,
	}
}
