package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

func smallParams() flock.Params {
	p := flock.DefaultParams()
	p.Width, p.Height = 200, 200
	p.Num = 40
	p.Seed = 3
	return p
}

func TestFirstSampleAtLeast(t *testing.T) {
	history := []flock.Snapshot{
		{Tick: 0, Polarization: 0.1},
		{Tick: 30, Polarization: 0.6},
		{Tick: 60, Polarization: 0.95},
	}
	if got := firstSampleAtLeast(history, 0.5); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := firstSampleAtLeast(history, 0.99); got != -1 {
		t.Fatalf("expected -1 when never reached, got %d", got)
	}
}

func TestDetectCrowding_TrueWhenAgentsOverlap(t *testing.T) {
	p := smallParams()
	rs := runStats{windowSummary: &flock.WindowReport{MinSeparation: 1}}
	crowded, reason := detectCrowding(rs, p)
	if !crowded {
		t.Fatalf("expected crowding=true, got false (reason=%s)", reason)
	}
	if !strings.Contains(reason, "rvoid/2") {
		t.Fatalf("expected reason to mention rvoid/2, got: %s", reason)
	}
}

func TestDetectCrowding_FalseWhenSpread(t *testing.T) {
	rs := runStats{windowSummary: &flock.WindowReport{MinSeparation: 12}}
	if crowded, reason := detectCrowding(rs, smallParams()); crowded {
		t.Fatalf("expected crowding=false (reason=%s)", reason)
	}
}

func TestDetectCrowding_NoSamples(t *testing.T) {
	if crowded, reason := detectCrowding(runStats{}, smallParams()); crowded || reason != "no_samples" {
		t.Fatalf("expected no_samples, got %v %s", crowded, reason)
	}
}

func TestAvgTickString(t *testing.T) {
	if got := avgTickString(nil); got != "n/a" {
		t.Fatalf("expected n/a, got %s", got)
	}
	if got := avgTickString([]int{10, 20}); got != "15.0" {
		t.Fatalf("expected 15.0, got %s", got)
	}
}

func TestRunOnce_CollectsStats(t *testing.T) {
	rs := runOnce(1, smallParams(), options{ticks: 90, window: 60, sampleEvery: 30})
	if rs.err != nil {
		t.Fatal(rs.err)
	}
	if rs.ticks != 90 || rs.stopReason != "ticks" {
		t.Fatalf("expected 90 ticks stopped by tick budget, got %d (%s)", rs.ticks, rs.stopReason)
	}
	if rs.final.Agents != 40 || rs.final.Tick != 90 {
		t.Fatalf("unexpected final snapshot %+v", rs.final)
	}
	if rs.windowSummary == nil || rs.windowSummary.ToTick != 90 {
		t.Fatalf("expected window ending at T=90, got %+v", rs.windowSummary)
	}
	if !strings.Contains(rs.logSummary, "Summary at T=090") || !strings.Contains(rs.logSummary, "Faults: none") {
		t.Fatalf("unexpected log summary:\n%s", rs.logSummary)
	}
	if rs.faultTrace != "" {
		t.Fatalf("expected no fault trace, got:\n%s", rs.faultTrace)
	}
}

func TestRunOnce_StepsCapTicks(t *testing.T) {
	p := smallParams()
	p.Steps = 20
	rs := runOnce(1, p, options{ticks: 90, window: 60, sampleEvery: 10})
	if rs.ticks != 20 || rs.stopReason != "steps" {
		t.Fatalf("expected stop at steps=20, got %d (%s)", rs.ticks, rs.stopReason)
	}
}

func TestRunOnce_WritesPSDump(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	p := smallParams()
	p.PSDump = true
	rs := runOnce(1, p, options{ticks: 5, window: 60, sampleEvery: 5})
	if rs.dumpPath != "boids-3.eps" {
		t.Fatalf("expected dump boids-3.eps, got %q", rs.dumpPath)
	}
	if _, err := os.Stat(filepath.Join(dir, rs.dumpPath)); err != nil {
		t.Fatalf("expected dump file: %v", err)
	}
}
