package physics

import "fmt"

// Tick rate the game layer drives the core at.
const (
	DefaultTickRate = 360
	DefaultDT       = 1.0 / DefaultTickRate
)

// Params holds the tunable constants of the ball model. Units are field units
// (pixels) and seconds.
type Params struct {
	Gravity     float64 `yaml:"gravity" json:"gravity"`
	BounceSpeed float64 `yaml:"bounce_speed" json:"bounce_speed"`

	// Inelastic contact along the normal.
	ContactScale  float64 `yaml:"contact_scale" json:"contact_scale"`
	ContactOffset float64 `yaml:"contact_offset" json:"contact_offset"`

	// Sliding friction pulls linear and rim speed toward their average.
	SlidingScale  float64 `yaml:"sliding_scale" json:"sliding_scale"`
	SlidingOffset float64 `yaml:"sliding_offset" json:"sliding_offset"`

	// Rolling resistance pulls both toward rest.
	RollingScale  float64 `yaml:"rolling_scale" json:"rolling_scale"`
	RollingOffset float64 `yaml:"rolling_offset" json:"rolling_offset"`

	// Friction repetitions right after a fresh contact.
	FrictionSettleRepeats int `yaml:"friction_settle_repeats" json:"friction_settle_repeats"`

	WallAllowedPenetration float64 `yaml:"wall_allowed_penetration" json:"wall_allowed_penetration"`
	WallRepulsion          float64 `yaml:"wall_repulsion" json:"wall_repulsion"`
}

func DefaultParams() Params {
	return Params{
		Gravity:                2000,
		BounceSpeed:            900,
		ContactScale:           0.6,
		ContactOffset:          15,
		SlidingScale:           0.92,
		SlidingOffset:          0.5,
		RollingScale:           0.99,
		RollingOffset:          0.05,
		FrictionSettleRepeats:  3,
		WallAllowedPenetration: 0.5,
		WallRepulsion:          400,
	}
}

// Validate checks that every constant is finite and that the contraction
// constants cannot add energy.
func (p Params) Validate() error {
	values := map[string]float64{
		"gravity":                  p.Gravity,
		"bounce_speed":             p.BounceSpeed,
		"contact_scale":            p.ContactScale,
		"contact_offset":           p.ContactOffset,
		"sliding_scale":            p.SlidingScale,
		"sliding_offset":           p.SlidingOffset,
		"rolling_scale":            p.RollingScale,
		"rolling_offset":           p.RollingOffset,
		"wall_allowed_penetration": p.WallAllowedPenetration,
		"wall_repulsion":           p.WallRepulsion,
	}
	for name, v := range values {
		if !finite(v) {
			return fmt.Errorf("%s: %w", name, ErrNonFinite)
		}
		if v < 0 {
			return fmt.Errorf("%s must not be negative: %w", name, ErrInvalidParams)
		}
	}
	for name, s := range map[string]float64{
		"contact_scale": p.ContactScale,
		"sliding_scale": p.SlidingScale,
		"rolling_scale": p.RollingScale,
	} {
		if s > 1 {
			return fmt.Errorf("%s must be at most 1: %w", name, ErrInvalidParams)
		}
	}
	if p.FrictionSettleRepeats < 1 {
		return fmt.Errorf("friction_settle_repeats must be at least 1: %w", ErrInvalidParams)
	}
	return nil
}
