package game

import (
	"fmt"

	"github.com/playmatatu/bouncer/internal/physics"
)

// Field dimensions and fixed collider handles.
const (
	FieldWidth  = 480.0
	FieldHeight = 640.0

	BallRadius  = 20.0
	StartHeight = 200.0 // gap between the ball and the ground at start

	GroundID    physics.ColliderID = 1
	LeftWallID  physics.ColliderID = 2
	RightWallID physics.ColliderID = 3

	firstSlabID physics.ColliderID = 16
)

// Field is the static part of the playfield: the ground along the bottom edge
// and a wall on each side.
type Field struct {
	Width     float64
	Height    float64
	Ground    *physics.Ground
	LeftWall  *physics.Wall
	RightWall *physics.Wall
}

func NewField(width, height float64) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("field %vx%v: %w", width, height, physics.ErrInvalidSize)
	}
	ground, err := physics.NewGround(GroundID, height)
	if err != nil {
		return nil, err
	}
	left, err := physics.NewWall(LeftWallID, 0, physics.FacingRight)
	if err != nil {
		return nil, err
	}
	right, err := physics.NewWall(RightWallID, width, physics.FacingLeft)
	if err != nil {
		return nil, err
	}
	return &Field{Width: width, Height: height, Ground: ground, LeftWall: left, RightWall: right}, nil
}

// StartPosition centres the ball horizontally, gap above the ground.
func (f *Field) StartPosition(radius, gap float64) physics.Vector2 {
	return physics.Vector2{X: f.Width / 2, Y: f.Height - gap - radius}
}

// HeightOf is how far the bottom of the ball is above the ground.
func (f *Field) HeightOf(b physics.BallState) float64 {
	return f.Height - (b.Position.Y + b.Radius)
}
