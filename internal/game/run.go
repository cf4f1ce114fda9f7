package game

import (
	"github.com/playmatatu/bouncer/internal/physics"
)

// Points per distinct slab landing; height adds one point per field unit.
const LandingPoints = 100

type RunConfig struct {
	Seed        uint64
	Width       float64
	Height      float64
	BallRadius  float64
	StartHeight float64
	Params      physics.Params
	Spawn       SpawnConfig
}

func DefaultRunConfig(seed uint64, params physics.Params) RunConfig {
	return RunConfig{
		Seed:        seed,
		Width:       FieldWidth,
		Height:      FieldHeight,
		BallRadius:  BallRadius,
		StartHeight: StartHeight,
		Params:      params,
		Spawn:       DefaultSpawnConfig(),
	}
}

type Stats struct {
	Ticks     int     `json:"ticks" msgpack:"ticks"`
	Landings  int     `json:"landings" msgpack:"landings"`
	Bounces   int     `json:"bounces" msgpack:"bounces"`
	MaxHeight float64 `json:"max_height" msgpack:"max_height"`
	Score     int     `json:"score" msgpack:"score"`
}

type SlabState struct {
	ID physics.ColliderID `json:"id" msgpack:"id"`
	X  float64            `json:"x" msgpack:"x"`
	Y  float64            `json:"y" msgpack:"y"`
	W  float64            `json:"w" msgpack:"w"`
	H  float64            `json:"h" msgpack:"h"`
	VX float64            `json:"vx" msgpack:"vx"`
}

// Frame is what a renderer or spectator needs to draw one tick.
type Frame struct {
	Tick   int               `json:"tick" msgpack:"t"`
	Ball   physics.BallState `json:"ball" msgpack:"b"`
	Slabs  []SlabState       `json:"slabs" msgpack:"s"`
	Score  int               `json:"score" msgpack:"sc"`
	Ground string            `json:"ground" msgpack:"g"`
}

// Run is one play session: the field, the slabs and the ball, advanced one
// fixed tick at a time. A Run is not safe for concurrent use.
type Run struct {
	cfg     RunConfig
	field   *Field
	spawner *SlabSpawner
	ball    *physics.Ball

	tick      int
	stats     Stats
	lastSlab  physics.ColliderID
	colliders []physics.Collider
}

func NewRun(cfg RunConfig) (*Run, error) {
	field, err := NewField(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	spawner, err := NewSlabSpawner(cfg.Seed, field, cfg.Spawn)
	if err != nil {
		return nil, err
	}
	ball, err := physics.NewBall(field.StartPosition(cfg.BallRadius, cfg.StartHeight), cfg.BallRadius, cfg.Params)
	if err != nil {
		return nil, err
	}
	return &Run{
		cfg:       cfg,
		field:     field,
		spawner:   spawner,
		ball:      ball,
		colliders: make([]physics.Collider, 0, 3+cfg.Spawn.MaxSlabs),
	}, nil
}

// Step advances the slabs, then ticks the ball against the fresh snapshot
// (ground, left wall, right wall, slabs).
func (r *Run) Step(bounce bool) (physics.TickReport, error) {
	if err := r.spawner.Advance(physics.DefaultDT, r.ball); err != nil {
		return physics.TickReport{}, err
	}

	r.colliders = append(r.colliders[:0], r.field.Ground, r.field.LeftWall, r.field.RightWall)
	for _, s := range r.spawner.Slabs() {
		r.colliders = append(r.colliders, s)
	}

	report := r.ball.Tick(physics.DefaultDT, r.colliders, bounce)
	r.tick++
	r.record(report)
	return report, nil
}

func (r *Run) record(report physics.TickReport) {
	if report.Bounced {
		r.stats.Bounces++
	}
	for _, c := range report.Contacts {
		if c.Landed && c.Kind == physics.KindSlab && c.Collider != r.lastSlab {
			r.stats.Landings++
			r.lastSlab = c.Collider
		}
	}
	if h := r.field.HeightOf(r.ball.Snapshot()); h > r.stats.MaxHeight {
		r.stats.MaxHeight = h
	}
	r.stats.Ticks = r.tick
	r.stats.Score = r.stats.Landings*LandingPoints + int(r.stats.MaxHeight)
}

func (r *Run) Frame() Frame {
	slabs := r.spawner.Slabs()
	states := make([]SlabState, len(slabs))
	for i, s := range slabs {
		c, size := s.Center(), s.Size()
		states[i] = SlabState{ID: s.ID(), X: c.X, Y: c.Y, W: size.X, H: size.Y, VX: s.Velocity().X}
	}
	return Frame{
		Tick:   r.tick,
		Ball:   r.ball.Snapshot(),
		Slabs:  states,
		Score:  r.stats.Score,
		Ground: r.ball.GroundInfo(),
	}
}

func (r *Run) Stats() Stats           { return r.stats }
func (r *Run) Tick() int              { return r.tick }
func (r *Run) Ball() *physics.Ball    { return r.ball }
func (r *Run) Field() *Field          { return r.field }
func (r *Run) Slabs() []*physics.Slab { return r.spawner.Slabs() }
