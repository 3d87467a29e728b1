package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Flock-Sense/internal/flock"
	"github.com/Garsondee/Flock-Sense/internal/term"
)

func main() {
	fs := flag.NewFlagSet("boids-term", flag.ExitOnError)
	interval := fs.Duration("interval", 50*time.Millisecond, "time between ticks")
	p, err := flock.LoadParams(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	sim, err := flock.New(p)
	if err != nil {
		log.Fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}

	err = term.Run(context.Background(), screen, sim, *interval)
	screen.Fini()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("stopped at T=%d (%s)", sim.Tick, sim.Stopped())
}
