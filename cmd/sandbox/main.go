// Command sandbox plays the game in a terminal.
//
// Space bounces, r restarts with the next seed, q or Esc quits. On exit the
// recorded replay is written as JSON so it can be submitted or re-simulated
// with cmd/replay.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/physics"
)

var (
	seedFlag    = flag.Uint64("seed", uint64(time.Now().UnixNano()), "slab spawner seed")
	physicsFlag = flag.String("physics", "", "physics tuning YAML (defaults when empty)")
	muteFlag    = flag.Bool("mute", false, "disable sound")
	outFlag     = flag.String("out", "", "write the replay JSON here instead of stdout")
	fpsFlag     = flag.Int("fps", 30, "screen refresh rate")
)

func main() {
	flag.Parse()

	params, err := config.LoadPhysics(*physicsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal even if the game panics.
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "sandbox crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	snd, err := newSounds(*muteFlag)
	if err != nil {
		// Keep going without audio.
		snd = &sounds{}
	}
	defer snd.close()

	sess, err := play(screen, snd, *seedFlag, params, *fpsFlag)
	screen.Fini()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}

	if err := writeReplay(sess, *outFlag); err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}
}

// play runs the interactive loop until the player quits and returns the last
// session.
func play(screen tcell.Screen, snd *sounds, seed uint64, params physics.Params, fps int) (*session, error) {
	if fps <= 0 {
		fps = 30
	}
	sess, err := newSession(seed, params)
	if err != nil {
		return nil, err
	}

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	defer close(quit)

	frame := time.NewTicker(time.Second / time.Duration(fps))
	defer frame.Stop()
	ticksPerFrame := physics.DefaultTickRate / fps
	if ticksPerFrame < 1 {
		ticksPerFrame = 1
	}

	w, h := screen.Size()
	cv := newCanvas(w, h)

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
					return sess, nil
				case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
					sess.requestBounce()
				case ev.Key() == tcell.KeyRune && ev.Rune() == 'r':
					seed++
					if sess, err = newSession(seed, params); err != nil {
						return nil, err
					}
				}
			case *tcell.EventResize:
				w, h = screen.Size()
				cv = newCanvas(w, h)
				screen.Sync()
			}
		case <-frame.C:
			for i := 0; i < ticksPerFrame; i++ {
				report, err := sess.step()
				if err != nil {
					return sess, err
				}
				if report.Bounced {
					snd.bounce()
				}
				for _, c := range report.Contacts {
					if c.Landed && c.Kind == physics.KindSlab {
						snd.landing()
					}
				}
			}
			draw(cv, sess.run)
			blit(screen, cv)
			screen.Show()
		}
	}
}

func writeReplay(sess *session, path string) error {
	data, err := json.MarshalIndent(sess.Replay(), "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
