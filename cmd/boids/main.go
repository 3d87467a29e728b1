package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Flock-Sense/internal/flock"
	"github.com/Garsondee/Flock-Sense/internal/game"
)

// maxWindowSide caps the initial window; ebiten scales the world to fit.
const maxWindowSide = 960

func main() {
	fs := flag.NewFlagSet("boids", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "record per-tick statistics in the sim log")
	p, err := flock.LoadParams(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	sim, err := flock.New(p, flock.WithVerbose(*verbose))
	if err != nil {
		log.Fatal(err)
	}

	w, h := windowSize(p.Width, p.Height)
	ebiten.SetWindowTitle("Boids")
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	g := game.New(sim)
	err = ebiten.RunGame(g)
	g.Finish()
	if *verbose {
		log.Print("\n" + sim.SimLog.Format())
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("stopped at T=%d (%s)", sim.Tick, sim.Stopped())
}

func windowSize(w, h float64) (int, int) {
	scale := min(1, maxWindowSide/max(w, h))
	return int(w * scale), int(h * scale)
}
