package game

import (
	"fmt"

	"github.com/playmatatu/bouncer/internal/physics"
)

// SpawnConfig controls the moving slabs. Slabs live in fixed rows counted
// upward from the ground; each row holds one slab at a time.
type SpawnConfig struct {
	MaxSlabs      int     `yaml:"max_slabs" json:"max_slabs"`
	LifetimeTicks int     `yaml:"lifetime_ticks" json:"lifetime_ticks"`
	MinWidth      float64 `yaml:"min_width" json:"min_width"`
	MaxWidth      float64 `yaml:"max_width" json:"max_width"`
	Thickness     float64 `yaml:"thickness" json:"thickness"`
	MinSpeed      float64 `yaml:"min_speed" json:"min_speed"`
	MaxSpeed      float64 `yaml:"max_speed" json:"max_speed"`
	LowestRow     float64 `yaml:"lowest_row" json:"lowest_row"`
	RowGap        float64 `yaml:"row_gap" json:"row_gap"`
	// EdgeGap keeps slabs this far from the walls so the ball always fits
	// between a slab and a wall.
	EdgeGap       float64 `yaml:"edge_gap" json:"edge_gap"`
}

func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		MaxSlabs:      4,
		LifetimeTicks: 6 * physics.DefaultTickRate,
		MinWidth:      80,
		MaxWidth:      160,
		Thickness:     16,
		MinSpeed:      40,
		MaxSpeed:      140,
		LowestRow:     130,
		RowGap:        120,
		EdgeGap:       2*BallRadius + 4,
	}
}

// xorshift64* keeps slab layouts reproducible from the replay seed alone.
type rng struct{ s uint64 }

func newRNG(seed uint64) *rng {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &rng{s: seed}
}

func (r *rng) next() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

// float returns a value in [0, 1).
func (r *rng) float() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

func (r *rng) between(lo, hi float64) float64 {
	return lo + (hi-lo)*r.float()
}

type slabSlot struct {
	slab *physics.Slab
	row  int
	age  int
}

// SlabSpawner owns the slabs and their kinematics: constant horizontal speed,
// reversal near the field edges and recycling after LifetimeTicks. A recycled
// slab gets a fresh ColliderID so a ball resting on the old one loses its
// support.
type SlabSpawner struct {
	cfg    SpawnConfig
	field  *Field
	rng    *rng
	nextID physics.ColliderID
	slots  []slabSlot
}

func NewSlabSpawner(seed uint64, field *Field, cfg SpawnConfig) (*SlabSpawner, error) {
	if cfg.MaxSlabs < 0 || cfg.LifetimeTicks <= 0 {
		return nil, fmt.Errorf("spawn config: %w", physics.ErrInvalidParams)
	}
	if cfg.MinWidth <= 0 || cfg.MaxWidth < cfg.MinWidth || cfg.Thickness <= 0 || cfg.EdgeGap < 0 ||
		cfg.MaxWidth > field.Width-2*cfg.EdgeGap {
		return nil, fmt.Errorf("spawn slab size: %w", physics.ErrInvalidSize)
	}
	if cfg.MinSpeed < 0 || cfg.MaxSpeed < cfg.MinSpeed {
		return nil, fmt.Errorf("spawn slab speed: %w", physics.ErrInvalidParams)
	}
	if top := field.Height - cfg.LowestRow - float64(cfg.MaxSlabs-1)*cfg.RowGap; cfg.MaxSlabs > 0 && top-cfg.Thickness/2 <= 0 {
		return nil, fmt.Errorf("spawn rows above the field: %w", physics.ErrInvalidSize)
	}

	s := &SlabSpawner{
		cfg:    cfg,
		field:  field,
		rng:    newRNG(seed),
		nextID: firstSlabID,
		slots:  make([]slabSlot, 0, cfg.MaxSlabs),
	}
	for row := 0; row < cfg.MaxSlabs; row++ {
		slab, err := s.spawn(row, nil)
		if err != nil {
			return nil, err
		}
		// Stagger ages so rows do not all recycle on the same tick.
		age := row * cfg.LifetimeTicks / cfg.MaxSlabs
		s.slots = append(s.slots, slabSlot{slab: slab, row: row, age: age})
	}
	return s, nil
}

func (s *SlabSpawner) rowY(row int) float64 {
	return s.field.Height - s.cfg.LowestRow - float64(row)*s.cfg.RowGap
}

// spawnAttempts bounds how often a recycled slab re-rolls its position to
// stay off the ball.
const spawnAttempts = 8

// spawn places a new slab in row. With a ball given, a slab that would cover
// it is re-rolled; after spawnAttempts misses spawn returns nil and the
// caller retries on a later tick.
func (s *SlabSpawner) spawn(row int, ball *physics.Ball) (*physics.Slab, error) {
	w := s.rng.between(s.cfg.MinWidth, s.cfg.MaxWidth)
	y := s.rowY(row)
	lo, hi := s.cfg.EdgeGap+w/2, s.field.Width-s.cfg.EdgeGap-w/2
	cx := s.rng.between(lo, hi)
	for i := 1; covers(cx, y, w, s.cfg.Thickness, ball); i++ {
		if i == spawnAttempts {
			return nil, nil
		}
		cx = s.rng.between(lo, hi)
	}
	speed := s.rng.between(s.cfg.MinSpeed, s.cfg.MaxSpeed)
	if s.rng.next()&1 == 1 {
		speed = -speed
	}
	id := s.nextID
	s.nextID++
	return physics.NewSlab(id,
		physics.Vector2{X: cx, Y: y},
		physics.Vector2{X: w, Y: s.cfg.Thickness},
		speed)
}

// covers reports whether ball would start inside a w x h slab centred at
// (cx, cy). A ball exactly touching an edge, such as one resting on the
// slab's top, is not covered.
func covers(cx, cy, w, h float64, ball *physics.Ball) bool {
	if ball == nil {
		return false
	}
	p, r := ball.Position(), ball.Radius()
	return cx-w/2-r < p.X && p.X < cx+w/2+r &&
		cy-h/2-r < p.Y && p.Y < cy+h/2+r
}

// Advance moves every slab by one step and recycles the expired ones. A
// recycled slab never appears on top of ball, which may be nil.
func (s *SlabSpawner) Advance(dt float64, ball *physics.Ball) error {
	for i := range s.slots {
		slot := &s.slots[i]
		slot.slab.Advance(dt)

		left, _, right, _ := slot.slab.Bounds()
		vx := slot.slab.Velocity().X
		if (left < s.cfg.EdgeGap && vx < 0) || (right > s.field.Width-s.cfg.EdgeGap && vx > 0) {
			slot.slab.SetVelocityX(-vx)
		}

		slot.age++
		if slot.age >= s.cfg.LifetimeTicks {
			slab, err := s.spawn(slot.row, ball)
			if err != nil {
				return err
			}
			if slab == nil {
				continue
			}
			slot.slab = slab
			slot.age = 0
		}
	}
	return nil
}

// Slabs returns the live slabs ordered by row, lowest first.
func (s *SlabSpawner) Slabs() []*physics.Slab {
	out := make([]*physics.Slab, len(s.slots))
	for i, slot := range s.slots {
		out[i] = slot.slab
	}
	return out
}
