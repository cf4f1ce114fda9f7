package game

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/playmatatu/bouncer/internal/physics"
)

// MaxReplayTicks caps a replay at thirty minutes of play.
const MaxReplayTicks = physics.DefaultTickRate * 60 * 30

var (
	ErrInvalidReplay  = errors.New("game: invalid replay")
	ErrReplayMismatch = errors.New("game: replay does not match claimed result")
)

// Replay is everything needed to reproduce a run bit for bit: the slab seed,
// the run length and the ticks on which the player asked for a bounce.
type Replay struct {
	Seed    uint64   `json:"seed" msgpack:"seed"`
	Ticks   int      `json:"ticks" msgpack:"ticks"`
	Bounces []uint32 `json:"bounces" msgpack:"bounces"`
}

func (rp Replay) Validate(maxTicks int) error {
	if maxTicks <= 0 || maxTicks > MaxReplayTicks {
		maxTicks = MaxReplayTicks
	}
	if rp.Ticks <= 0 {
		return fmt.Errorf("%w: ticks must be positive", ErrInvalidReplay)
	}
	if rp.Ticks > maxTicks {
		return fmt.Errorf("%w: %d ticks exceeds limit %d", ErrInvalidReplay, rp.Ticks, maxTicks)
	}
	for i, b := range rp.Bounces {
		if int(b) >= rp.Ticks {
			return fmt.Errorf("%w: bounce at tick %d after end", ErrInvalidReplay, b)
		}
		if i > 0 && b <= rp.Bounces[i-1] {
			return fmt.Errorf("%w: bounce ticks must be strictly increasing", ErrInvalidReplay)
		}
	}
	return nil
}

type Result struct {
	Stats
	Final  physics.BallState `json:"final"`
	Digest string            `json:"digest"`
}

// Playback steps a run through a replay.
type Playback struct {
	replay Replay
	run    *Run
	next   int
}

func NewPlayback(rp Replay, params physics.Params) (*Playback, error) {
	if err := rp.Validate(MaxReplayTicks); err != nil {
		return nil, err
	}
	run, err := NewRun(DefaultRunConfig(rp.Seed, params))
	if err != nil {
		return nil, err
	}
	return &Playback{replay: rp, run: run}, nil
}

// Done reports whether every tick of the replay has been played.
func (p *Playback) Done() bool { return p.run.Tick() >= p.replay.Ticks }

func (p *Playback) Run() *Run { return p.run }

// Ticks is the length of the replay being played.
func (p *Playback) Ticks() int { return p.replay.Ticks }

// Advance plays up to n ticks and returns how many were played.
func (p *Playback) Advance(n int) (int, error) {
	played := 0
	for ; played < n && !p.Done(); played++ {
		tick := p.run.Tick()
		bounce := false
		if p.next < len(p.replay.Bounces) && int(p.replay.Bounces[p.next]) == tick {
			bounce = true
			p.next++
		}
		if _, err := p.run.Step(bounce); err != nil {
			return played, err
		}
	}
	return played, nil
}

func (p *Playback) Result() *Result {
	final := p.run.Ball().Snapshot()
	stats := p.run.Stats()
	return &Result{Stats: stats, Final: final, Digest: Digest(final, stats)}
}

// Simulate plays the whole replay and returns the outcome.
func Simulate(rp Replay, params physics.Params) (*Result, error) {
	p, err := NewPlayback(rp, params)
	if err != nil {
		return nil, err
	}
	if _, err := p.Advance(rp.Ticks); err != nil {
		return nil, err
	}
	return p.Result(), nil
}

// Verify re-simulates a replay and compares it with what the client claimed.
// An empty claimed digest only checks the score.
func Verify(rp Replay, params physics.Params, claimedScore int, claimedDigest string) (*Result, error) {
	res, err := Simulate(rp, params)
	if err != nil {
		return nil, err
	}
	if res.Score != claimedScore {
		return res, fmt.Errorf("%w: score %d, claimed %d", ErrReplayMismatch, res.Score, claimedScore)
	}
	if claimedDigest != "" && claimedDigest != res.Digest {
		return res, fmt.Errorf("%w: digest %s, claimed %s", ErrReplayMismatch, res.Digest, claimedDigest)
	}
	return res, nil
}

// Frames plays the replay and samples a frame every `every` ticks, always
// including the first and the last.
func Frames(rp Replay, params physics.Params, every int) ([]Frame, *Result, error) {
	if every <= 0 {
		every = 1
	}
	p, err := NewPlayback(rp, params)
	if err != nil {
		return nil, nil, err
	}
	frames := make([]Frame, 0, rp.Ticks/every+2)
	frames = append(frames, p.run.Frame())
	for !p.Done() {
		if _, err := p.Advance(every); err != nil {
			return nil, nil, err
		}
		frames = append(frames, p.run.Frame())
	}
	return frames, p.Result(), nil
}

// Digest hashes the exact bits of the final ball state and the stats, so two
// simulations agree only if they agree bit for bit.
func Digest(b physics.BallState, s Stats) string {
	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	for _, f := range []float64{
		b.Position.X, b.Position.Y,
		b.Velocity.X, b.Velocity.Y,
		b.Angle, b.AngularVelocity, b.Radius,
		s.MaxHeight,
	} {
		put(math.Float64bits(f))
	}
	grounded := uint64(0)
	if b.Grounded {
		grounded = 1
	}
	put(grounded)
	put(uint64(b.Support))
	put(uint64(s.Ticks))
	put(uint64(s.Landings))
	put(uint64(s.Bounces))
	put(uint64(s.Score))
	return fmt.Sprintf("%016x", h.Sum64())
}
