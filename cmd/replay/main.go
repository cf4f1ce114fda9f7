// Command replay re-simulates a recorded run offline and prints the result.
//
//	replay [-physics tuning.yaml] [-score N] [-digest hex] [-frames out.msgpack -every 12] run.json
//
// The input is the replay JSON a client submits ({"seed":..,"ticks":..,"bounces":[..]}),
// or a submission body with the replay under "replay". "-" reads stdin.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/playmatatu/bouncer/internal/config"
	"github.com/playmatatu/bouncer/internal/game"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	physicsFlag = flag.String("physics", "", "physics tuning YAML (defaults when empty)")
	scoreFlag   = flag.Int("score", -1, "claimed score to verify (-1 skips verification)")
	digestFlag  = flag.String("digest", "", "claimed digest to verify")
	framesFlag  = flag.String("frames", "", "write sampled frames as a msgpack stream to this file")
	everyFlag   = flag.Int("every", 12, "ticks between sampled frames")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [flags] run.json|-")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		if errors.Is(err, game.ErrReplayMismatch) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(path string, out io.Writer) error {
	params, err := config.LoadPhysics(*physicsFlag)
	if err != nil {
		return err
	}
	rp, err := readReplay(path)
	if err != nil {
		return err
	}

	var res *game.Result
	if *framesFlag != "" {
		var frames []game.Frame
		frames, res, err = game.Frames(rp, params, *everyFlag)
		if err != nil {
			return err
		}
		if err := writeFrames(*framesFlag, frames); err != nil {
			return err
		}
	} else {
		res, err = game.Simulate(rp, params)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}

	if *scoreFlag >= 0 {
		if _, err := game.Verify(rp, params, *scoreFlag, *digestFlag); err != nil {
			return err
		}
		fmt.Fprintln(out, "verified")
	}
	return nil
}

func readReplay(path string) (game.Replay, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return game.Replay{}, err
	}

	var wrapped struct {
		Replay *game.Replay `json:"replay"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Replay != nil {
		return *wrapped.Replay, nil
	}
	var rp game.Replay
	if err := json.Unmarshal(data, &rp); err != nil {
		return game.Replay{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return rp, nil
}

func writeFrames(path string, frames []game.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := msgpack.NewEncoder(f)
	for i := range frames {
		if err := enc.Encode(&frames[i]); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
