package flock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Sim owns one run: its Params, the committed State and the heading buffer.
// Ticks run strictly one after another; renderers only see State between ticks.
type Sim struct {
	Params   Params
	State    *State
	SimLog   *SimLog
	Reporter *Reporter // optional; sampled every Reporter.Due tick
	Tick     int

	rng     *rand.Rand
	next    []Vec2
	poses   []Pose
	err     error  // sticky once a tick fails
	stopped string // reason recorded in SimLog, empty while running
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra  optionKind = iota // logging and reporting, applied first
	optAgents                   // explicit placement, applied before random init
)

// Option is a builder function applied to a Sim during construction.
type Option struct {
	kind optionKind
	fn   func(*Sim) error
}

// WithVerbose enables per-tick statistics in the SimLog.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(s *Sim) error {
		s.SimLog = NewSimLog(v)
		return nil
	}}
}

// WithSimLog records events into sl.
func WithSimLog(sl *SimLog) Option {
	return Option{optInfra, func(s *Sim) error {
		s.SimLog = sl
		return nil
	}}
}

// WithReporter samples flock statistics into r.
func WithReporter(r *Reporter) Option {
	return Option{optInfra, func(s *Sim) error {
		s.Reporter = r
		return nil
	}}
}

// WithAgents places agents explicitly instead of at random. The agent count
// overrides Params.Num.
func WithAgents(pos, vel []Vec2) Option {
	return Option{optAgents, func(s *Sim) error {
		st, err := NewStateFrom(s.Params, pos, vel)
		if err != nil {
			return err
		}
		s.State = st
		s.Params.Num = st.Len()
		return nil
	}}
}

// New validates p and builds a Sim in two passes: infrastructure options, then
// agent placement. Without WithAgents the flock is seeded from p.Seed.
func New(p Params, opts ...Option) (*Sim, error) {
	s := &Sim{
		Params: p,
		SimLog: NewSimLog(false),
		rng:    rand.New(rand.NewSource(p.Seed)), // #nosec G404 -- reproducible placement
	}
	for _, kind := range []optionKind{optInfra, optAgents} {
		for _, o := range opts {
			if o.kind != kind {
				continue
			}
			if err := o.fn(s); err != nil {
				return nil, err
			}
		}
	}
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}
	if s.State == nil {
		s.State = NewState(s.Params, s.rng)
	}
	s.next = make([]Vec2, s.State.Len())

	s.SimLog.Add(0, NoAgent, "run", "start",
		fmt.Sprintf("agents=%d world=%gx%g seed=%d threads=%d", s.State.Len(), s.Params.Width, s.Params.Height, s.Params.Seed, s.Params.Threads),
		float64(s.State.Len()))
	s.sample()
	return s, nil
}

// Step runs one tick: compute every new heading from the committed state,
// then move every agent and commit the new velocities. A failed tick leaves
// the state as it was and stops the run; every later Step returns the same error.
func (s *Sim) Step() error {
	if s.err != nil {
		return s.err
	}
	if err := Headings(s.Params, s.State, s.next); err != nil {
		return s.fail(err)
	}
	prev, err := Advance(s.Params, s.State, s.next)
	if err != nil {
		return s.fail(err)
	}
	s.next = prev
	s.Tick++
	s.sample()
	return nil
}

// sample records statistics when the log is verbose or the reporter is due.
func (s *Sim) sample() {
	due := s.Reporter != nil && s.Reporter.Due(s.Tick)
	if !s.SimLog.Verbose() && !due {
		return
	}
	snap := Measure(s.Params, s.State)
	snap.Tick = s.Tick
	if due {
		s.Reporter.Collect(snap)
	}
	s.SimLog.AddVerbose(s.Tick, NoAgent, "tick", "polarization", fmt.Sprintf("%.3f", snap.Polarization), snap.Polarization)
	s.SimLog.AddVerbose(s.Tick, NoAgent, "tick", "min_separation", fmt.Sprintf("%.2f", snap.MinSeparation), snap.MinSeparation)
	s.SimLog.AddVerbose(s.Tick, NoAgent, "tick", "neighbors", fmt.Sprintf("%.2f", snap.MeanNeighbors), snap.MeanNeighbors)
}

func (s *Sim) fail(err error) error {
	key := "error"
	switch {
	case errors.Is(err, ErrNonFinite):
		key = "non_finite"
	case errors.Is(err, ErrDegenerate):
		key = "degenerate"
	}
	agent := NoAgent
	var ae *AgentError
	if errors.As(err, &ae) {
		agent = AgentLabel(ae.Agent)
	}
	s.err = fmt.Errorf("tick %d: %w", s.Tick+1, err)
	s.SimLog.Add(s.Tick+1, agent, "fault", key, err.Error(), 0)
	s.Stop("fault")
	return s.err
}

// Stop records why the run ended. Only the first call is logged.
func (s *Sim) Stop(reason string) {
	if s.stopped != "" {
		return
	}
	s.stopped = reason
	s.SimLog.Add(s.Tick, NoAgent, "run", "stop", reason, float64(s.Tick))
}

// Stopped returns the reason the run ended, or "" while it is running.
func (s *Sim) Stopped() string { return s.stopped }

// Err returns the error that stopped the run, if any.
func (s *Sim) Err() error { return s.err }

// Done reports whether the configured number of steps has elapsed.
func (s *Sim) Done() bool {
	return s.Params.Steps > 0 && s.Tick >= s.Params.Steps
}

// Frame is the per-tick output handed to renderers.
type Frame struct {
	Tick  int
	Poses []Pose
}

// Frame returns the current poses. The slice is reused by the next call;
// renderers that keep it across ticks must copy it.
func (s *Sim) Frame() Frame {
	s.poses = s.State.Poses(s.poses)
	return Frame{Tick: s.Tick, Poses: s.poses}
}

// RunTicks advances up to n ticks, stopping early when Steps is reached.
func (s *Sim) RunTicks(n int) error {
	for i := 0; i < n && !s.Done(); i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	if s.Done() {
		s.Stop("steps")
	}
	return nil
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (s *Sim) RunUntil(predicate func(*Sim) bool, maxTicks int) (int, error) {
	defer func() {
		if s.Done() {
			s.Stop("steps")
		}
	}()
	for i := 0; i < maxTicks && !s.Done(); i++ {
		if err := s.Step(); err != nil {
			return -1, err
		}
		if predicate(s) {
			return s.Tick, nil
		}
	}
	return -1, nil
}

// Run ticks until Steps elapse, ctx is cancelled, or a tick fails. With a
// positive interval ticks are paced by a ticker; otherwise they run back to
// back. report, if non-nil, receives every frame after its tick commits.
// Cancellation is only observed between ticks.
func (s *Sim) Run(ctx context.Context, interval time.Duration, report func(Frame)) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for !s.Done() {
		if err := ctx.Err(); err != nil {
			s.Stop("cancelled")
			return err
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				s.Stop("cancelled")
				return ctx.Err()
			case <-tick:
			}
		}

		if err := s.Step(); err != nil {
			return err
		}
		if report != nil {
			report(s.Frame())
		}
	}
	s.Stop("steps")
	return nil
}
