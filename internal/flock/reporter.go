package flock

import (
	"fmt"
	"math"
	"strings"
)

// reportWindowTicks is the default sliding window for recent-behaviour reports.
const reportWindowTicks = 600

// Reporter collects periodic snapshots of a run and summarizes them over a
// sliding window of ticks.
type Reporter struct {
	history     []Snapshot
	windowTicks int
	sampleEvery int
}

// NewReporter creates a reporter that samples every sampleEvery ticks and
// summarizes the last windowTicks ticks. Non-positive values pick defaults.
func NewReporter(windowTicks, sampleEvery int) *Reporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	if sampleEvery <= 0 {
		sampleEvery = 60
	}
	return &Reporter{
		windowTicks: windowTicks,
		sampleEvery: sampleEvery,
	}
}

// Due reports whether tick should be sampled.
func (r *Reporter) Due(tick int) bool {
	return tick%r.sampleEvery == 0
}

// Collect records snap.
func (r *Reporter) Collect(snap Snapshot) {
	r.history = append(r.history, snap)

	// Prune old history beyond 2x window to prevent unbounded growth.
	maxKeep := 2*(r.windowTicks/r.sampleEvery) + 2
	if len(r.history) > maxKeep {
		r.history = r.history[len(r.history)-maxKeep:]
	}
}

// Latest returns the most recent snapshot, or nil if none has been collected.
func (r *Reporter) Latest() *Snapshot {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns the retained snapshots, oldest first.
func (r *Reporter) History() []Snapshot {
	return r.history
}

// WindowReport aggregates the snapshots of the most recent window.
type WindowReport struct {
	FromTick    int
	ToTick      int
	SampleCount int

	AvgPolarization   float64
	MinPolarization   float64
	MaxPolarization   float64
	AvgSpeed          float64
	AvgNeighbors      float64
	MinSeparation     float64 // smallest separation seen in the window
	PolarizationTrend float64 // last minus first polarization in the window
}

// WindowSummary summarizes the snapshots within the window ending at the
// latest sample, or returns nil if nothing was collected.
func (r *Reporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}

	latestTick := r.history[len(r.history)-1].Tick
	cutoff := latestTick - r.windowTicks
	var window []Snapshot
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Tick < cutoff {
			break
		}
		window = append(window, r.history[i])
	}

	n := float64(len(window))
	wr := &WindowReport{
		FromTick:          window[len(window)-1].Tick,
		ToTick:            window[0].Tick,
		SampleCount:       len(window),
		MinPolarization:   math.Inf(1),
		MaxPolarization:   math.Inf(-1),
		MinSeparation:     math.Inf(1),
		PolarizationTrend: window[0].Polarization - window[len(window)-1].Polarization,
	}
	for _, s := range window {
		wr.AvgPolarization += s.Polarization
		wr.AvgSpeed += s.MeanSpeed
		wr.AvgNeighbors += s.MeanNeighbors
		wr.MinPolarization = math.Min(wr.MinPolarization, s.Polarization)
		wr.MaxPolarization = math.Max(wr.MaxPolarization, s.Polarization)
		wr.MinSeparation = math.Min(wr.MinSeparation, s.MinSeparation)
	}
	wr.AvgPolarization /= n
	wr.AvgSpeed /= n
	wr.AvgNeighbors /= n
	return wr
}

// Format renders the window report as aligned text lines.
func (wr *WindowReport) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "window T=%d..%d samples=%d\n", wr.FromTick, wr.ToTick, wr.SampleCount)
	fmt.Fprintf(&sb, "  polarization avg=%.3f min=%.3f max=%.3f trend=%+.3f (%s)\n",
		wr.AvgPolarization, wr.MinPolarization, wr.MaxPolarization, wr.PolarizationTrend,
		OrderLabel(wr.AvgPolarization))
	fmt.Fprintf(&sb, "  speed avg=%.3f  neighbors avg=%.2f  min separation=%.2f\n",
		wr.AvgSpeed, wr.AvgNeighbors, wr.MinSeparation)
	return sb.String()
}

// OrderLabel names the flock's collective state from its polarization.
func OrderLabel(p float64) string {
	switch {
	case p >= 0.9:
		return "aligned"
	case p >= 0.5:
		return "flocking"
	case p >= 0.2:
		return "milling"
	default:
		return "disordered"
	}
}
