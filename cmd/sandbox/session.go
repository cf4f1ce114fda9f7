package main

import (
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/playmatatu/bouncer/internal/physics"
)

// session is one interactive run plus the replay that reproduces it.
type session struct {
	run     *game.Run
	replay  game.Replay
	pending bool
}

func newSession(seed uint64, params physics.Params) (*session, error) {
	run, err := game.NewRun(game.DefaultRunConfig(seed, params))
	if err != nil {
		return nil, err
	}
	return &session{run: run, replay: game.Replay{Seed: seed}}, nil
}

// requestBounce asks for a bounce on the next tick.
func (s *session) requestBounce() { s.pending = true }

// step advances one tick, consuming a pending bounce request.
func (s *session) step() (physics.TickReport, error) {
	bounce := s.pending
	s.pending = false
	if bounce {
		s.replay.Bounces = append(s.replay.Bounces, uint32(s.run.Tick()))
	}
	report, err := s.run.Step(bounce)
	if err != nil {
		return report, err
	}
	s.replay.Ticks = s.run.Tick()
	return report, nil
}

// Replay returns the replay recorded so far.
func (s *session) Replay() game.Replay {
	rp := s.replay
	rp.Bounces = append([]uint32(nil), s.replay.Bounces...)
	return rp
}
