package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// chime is a decaying sine, one short blip per event.
type chime struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

func newChime(sr beep.SampleRate, freq float64) *chime {
	return &chime{sr: sr, freq: freq}
}

func (g *chime) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		v := 0.25 * math.Sin(2*math.Pi*g.freq*t) * math.Exp(-t*18)
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *chime) Err() error { return nil }

// sounds plays event chimes. A zero value is silent.
type sounds struct {
	enabled bool
}

// newSounds opens the speaker. Audio is optional: on failure the sandbox
// runs silent.
func newSounds(mute bool) (*sounds, error) {
	if mute {
		return &sounds{}, nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return &sounds{}, err
	}
	return &sounds{enabled: true}, nil
}

func (s *sounds) play(freq float64, d time.Duration) {
	if !s.enabled {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), newChime(sampleRate, freq)))
}

func (s *sounds) landing() { s.play(880, 120*time.Millisecond) }
func (s *sounds) bounce()  { s.play(440, 80*time.Millisecond) }

func (s *sounds) close() {
	if s.enabled {
		speaker.Close()
	}
}
