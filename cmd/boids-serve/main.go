package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Garsondee/Flock-Sense/internal/flock"
	"github.com/Garsondee/Flock-Sense/internal/stream"
)

func main() {
	fs := flag.NewFlagSet("boids-serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "server listen address")
	interval := fs.Duration("interval", time.Second/30, "time between ticks")
	logEvery := fs.Int("log-every", 300, "ticks between flock statistics log lines (0 disables)")
	p, err := flock.LoadParams(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	var reporter *flock.Reporter
	if *logEvery > 0 {
		reporter = flock.NewReporter(0, *logEvery)
	}
	sim, err := flock.New(p, flock.WithReporter(reporter))
	if err != nil {
		log.Fatal(err)
	}
	hub := stream.NewHub(p)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/ws/poses", hub.Handler())
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	runErr := make(chan error, 1)
	go func() {
		lastLogged := -1
		runErr <- sim.Run(ctx, *interval, func(f flock.Frame) {
			hub.Broadcast(f)
			if reporter != nil {
				if s := reporter.Latest(); s != nil && s.Tick != lastLogged {
					lastLogged = s.Tick
					log.Printf("%s clients=%d", s, hub.Clients())
				}
			}
		})
	}()

	go func() {
		log.Printf("streaming poses on ws://localhost%v/ws/poses", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	err = <-runErr
	hub.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	log.Printf("stopped at T=%d (%s)", sim.Tick, sim.Stopped())
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
