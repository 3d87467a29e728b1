package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Garsondee/Flock-Sense/internal/flock"
	"github.com/Garsondee/Flock-Sense/internal/psdump"
)

// alignedThreshold is the polarization at which a flock counts as aligned.
const alignedThreshold = 0.9

type runStats struct {
	runIndex int
	seed     int64
	ticks    int
	elapsed  time.Duration

	stopReason string
	err        error

	firstFlockingTick int // first sample with polarization >= 0.5
	firstAlignedTick  int // first sample with polarization >= alignedThreshold

	final         flock.Snapshot
	windowSummary *flock.WindowReport
	dumpPath      string

	logSummary string // SimLog summary at the final tick
	faultTrace string // SimLog entries around a failed tick
}

// traceTicks is how many ticks of log lead up to a fault in the trace.
const traceTicks = 3

type options struct {
	runs        int
	ticks       int
	seedStep    int64
	window      int
	sampleEvery int
}

func main() {
	var opt options
	fs := flag.NewFlagSet("headless-report", flag.ExitOnError)
	fs.IntVar(&opt.runs, "runs", 5, "number of headless simulation runs")
	fs.IntVar(&opt.ticks, "ticks", 3000, "ticks per run (capped by -steps)")
	fs.Int64Var(&opt.seedStep, "seed-step", 1, "seed increment between runs; run 1 uses -seed")
	fs.IntVar(&opt.window, "window", 600, "reporting window in ticks")
	fs.IntVar(&opt.sampleEvery, "sample", 30, "ticks between statistics samples")
	p, err := flock.LoadParams(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opt.runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if opt.ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}

	fmt.Printf("=== Headless Flock Report ===\n")
	fmt.Printf("agents=%d world=%gx%g runs=%d ticks=%d seed_base=%d seed_step=%d threads=%d invert=%v\n\n",
		p.Num, p.Width, p.Height, opt.runs, opt.ticks, p.Seed, opt.seedStep, p.Threads, p.Invert)

	all := make([]runStats, 0, opt.runs)
	failed := false
	for i := 0; i < opt.runs; i++ {
		rp := p
		rp.Seed = p.Seed + int64(i)*opt.seedStep
		rs := runOnce(i+1, rp, opt)
		all = append(all, rs)
		printRun(rs, rp)
		failed = failed || rs.err != nil
	}

	printAggregate(all)
	if failed {
		os.Exit(1)
	}
}

func runOnce(runIndex int, p flock.Params, opt options) runStats {
	rs := runStats{runIndex: runIndex, seed: p.Seed, firstFlockingTick: -1, firstAlignedTick: -1}

	reporter := flock.NewReporter(opt.window, opt.sampleEvery)
	sim, err := flock.New(p, flock.WithReporter(reporter))
	if err != nil {
		rs.err = err
		return rs
	}

	start := time.Now()
	rs.err = sim.RunTicks(opt.ticks)
	rs.elapsed = time.Since(start)
	rs.ticks = sim.Tick
	if sim.Stopped() == "" {
		sim.Stop("ticks")
	}
	rs.stopReason = sim.Stopped()

	rs.final = flock.Measure(sim.Params, sim.State)
	rs.final.Tick = sim.Tick
	rs.firstFlockingTick = firstSampleAtLeast(reporter.History(), 0.5)
	rs.firstAlignedTick = firstSampleAtLeast(reporter.History(), alignedThreshold)
	rs.windowSummary = reporter.WindowSummary()
	rs.logSummary = sim.SimLog.Summary(sim.Tick, rs.final)
	if rs.err != nil {
		rs.faultTrace = sim.SimLog.FormatRange(sim.Tick-traceTicks, sim.Tick+1)
	}

	if p.PSDump && rs.err == nil {
		rs.dumpPath = psdump.FileName(p.Seed)
		if err := psdump.WriteFile(rs.dumpPath, sim.Frame(), sim.Params); err != nil {
			log.Printf("psdump: %v", err)
			rs.dumpPath = ""
		}
	}
	return rs
}

// firstSampleAtLeast returns the tick of the first sample whose polarization
// reaches threshold, or -1.
func firstSampleAtLeast(history []flock.Snapshot, threshold float64) int {
	for _, s := range history {
		if s.Polarization >= threshold {
			return s.Tick
		}
	}
	return -1
}

// detectCrowding reports whether agents were packed closer than half the
// avoidance radius during the window, which means avoidance is too weak
// for the configured density.
func detectCrowding(rs runStats, p flock.Params) (bool, string) {
	if rs.windowSummary == nil {
		return false, "no_samples"
	}
	limit := p.RVoid / 2
	if rs.windowSummary.MinSeparation < limit {
		return true, fmt.Sprintf("min_separation=%.2f<rvoid/2=%.2f", rs.windowSummary.MinSeparation, limit)
	}
	return false, fmt.Sprintf("min_separation=%.2f", rs.windowSummary.MinSeparation)
}

func printRun(rs runStats, p flock.Params) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	if rs.err != nil {
		fmt.Printf("error: %v\n", rs.err)
		fmt.Print(rs.faultTrace)
		fmt.Println()
		return
	}
	tps := 0.0
	if rs.elapsed > 0 {
		tps = float64(rs.ticks) / rs.elapsed.Seconds()
	}
	fmt.Printf("ticks=%d stop=%s elapsed=%s ticks_per_sec=%.1f\n", rs.ticks, rs.stopReason, rs.elapsed.Round(time.Millisecond), tps)
	fmt.Printf("phase_markers: first_flocking=%d first_aligned=%d\n", rs.firstFlockingTick, rs.firstAlignedTick)
	fmt.Printf("final: %s (%s)\n", rs.final, flock.OrderLabel(rs.final.Polarization))
	if rs.windowSummary != nil {
		fmt.Print(rs.windowSummary.Format())
	}
	crowded, reason := detectCrowding(rs, p)
	fmt.Printf("crowding=%v reason=%s\n", crowded, reason)
	if rs.dumpPath != "" {
		fmt.Printf("psdump=%s\n", rs.dumpPath)
	}
	fmt.Print(rs.logSummary)
	fmt.Println()
}

func printAggregate(all []runStats) {
	var polSum, sepSum, nbrSum float64
	ok := 0
	flockingTicks := make([]int, 0, len(all))
	alignedTicks := make([]int, 0, len(all))
	labels := map[string]int{}

	for _, rs := range all {
		if rs.err != nil {
			continue
		}
		ok++
		polSum += rs.final.Polarization
		sepSum += rs.final.MinSeparation
		nbrSum += rs.final.MeanNeighbors
		labels[flock.OrderLabel(rs.final.Polarization)]++
		if rs.firstFlockingTick >= 0 {
			flockingTicks = append(flockingTicks, rs.firstFlockingTick)
		}
		if rs.firstAlignedTick >= 0 {
			alignedTicks = append(alignedTicks, rs.firstAlignedTick)
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d ok=%d failed=%d\n", len(all), ok, len(all)-ok)
	if ok == 0 {
		return
	}
	fmt.Printf("avg_final: polarization=%.3f min_separation=%.2f neighbors=%.2f\n",
		polSum/float64(ok), sepSum/float64(ok), nbrSum/float64(ok))
	fmt.Printf("phase_marker_avg_ticks: first_flocking=%s first_aligned=%s\n",
		avgTickString(flockingTicks), avgTickString(alignedTicks))
	fmt.Printf("final_states: aligned=%d flocking=%d milling=%d disordered=%d\n",
		labels["aligned"], labels["flocking"], labels["milling"], labels["disordered"])
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
