package game

import (
	"fmt"
	"image/color"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

// hudRefreshTicks is how often the HUD statistics are recomputed. Measure is
// O(N²), so it is not run every frame.
const hudRefreshTicks = 30

// statusFrames is how long a one-line status message stays on screen.
const statusFrames = 120

// simSpeeds are the selectable tick rates per frame; 0 is paused.
var simSpeeds = []float64{0, 0.25, 0.5, 1, 2, 4, 8}

var (
	backgroundColor = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	agentColor      = color.RGBA{R: 0, G: 255, B: 255, A: 255}
)

// Game is the ebiten front end of a flock.Sim. It owns the pacing of ticks;
// the Sim itself knows nothing about drawing.
type Game struct {
	sim    *flock.Sim
	width  int // world extent, also the logical screen size
	height int

	showHUD bool

	// Simulation speed control.
	simSpeed  float64 // ticks per frame: 0=paused
	tickAccum float64 // fractional tick accumulator for sub-1x speeds
	stepOnce  bool    // single step requested while paused

	snap       flock.Snapshot
	snapTick   int
	status     string
	statusLeft int

	copyText func(string) error
}

// New wraps sim in an ebiten game. The logical screen matches the world extent.
func New(sim *flock.Sim) *Game {
	g := &Game{
		sim:      sim,
		width:    int(sim.Params.Width),
		height:   int(sim.Params.Height),
		showHUD:  true,
		simSpeed: 1,
		snapTick: -1,
		copyText: clipboard.WriteAll,
	}
	g.refreshStats()
	return g
}

// Sim returns the simulation driven by g.
func (g *Game) Sim() *flock.Sim { return g.sim }

// Finish records the window closing once RunGame has returned. A run that
// already ended keeps its first reason.
func (g *Game) Finish() {
	g.sim.Stop("closed")
}

func (g *Game) Update() error {
	// Handle input every frame regardless of sim speed.
	if err := g.handleInput(); err != nil {
		return err
	}
	return g.advance()
}

// advance runs the ticks owed for this frame. It returns ebiten.Termination
// once the configured number of steps has elapsed, and the tick error if the
// run faulted.
func (g *Game) advance() error {
	if g.sim.Done() {
		g.sim.Stop("steps")
		return ebiten.Termination
	}
	if g.statusLeft > 0 {
		g.statusLeft--
	}

	if g.simSpeed <= 0 {
		if !g.stepOnce {
			return nil
		}
		g.stepOnce = false
		return g.step()
	}

	// For speeds > 1 run multiple sim ticks per frame.
	// For speeds < 1 accumulate fractions.
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 && !g.sim.Done() {
		g.tickAccum -= 1.0
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) step() error {
	if err := g.sim.Step(); err != nil {
		return err
	}
	if g.sim.Tick-g.snapTick >= hudRefreshTicks {
		g.refreshStats()
	}
	return nil
}

func (g *Game) refreshStats() {
	g.snap = flock.Measure(g.sim.Params, g.sim.State)
	g.snap.Tick = g.sim.Tick
	g.snapTick = g.sim.Tick
}

// handleInput processes keypresses (edge-triggered).
func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.sim.Stop("closed")
		return ebiten.Termination
	}

	// H: toggle HUD.
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster, Space=step.
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyComma) {
		g.simSpeed = slower(g.simSpeed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		g.simSpeed = faster(g.simSpeed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && g.simSpeed == 0 {
		g.stepOnce = true
	}

	// C: copy the active configuration and latest statistics.
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyConfig()
	}
	return nil
}

func (g *Game) copyConfig() {
	g.refreshStats()
	if err := g.copyText(exportText(g.sim.Params, g.snap)); err != nil {
		g.setStatus("clipboard: " + err.Error())
		return
	}
	g.setStatus(fmt.Sprintf("copied config at T=%d", g.sim.Tick))
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusLeft = statusFrames
}

// slower returns the next lower entry of simSpeeds.
func slower(cur float64) float64 {
	for i := len(simSpeeds) - 1; i >= 0; i-- {
		if simSpeeds[i] < cur {
			return simSpeeds[i]
		}
	}
	return simSpeeds[0]
}

// faster returns the next higher entry of simSpeeds.
func faster(cur float64) float64 {
	for _, s := range simSpeeds {
		if s > cur {
			return s
		}
	}
	return simSpeeds[len(simSpeeds)-1]
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	length := float32(g.sim.Params.Len * g.sim.Params.Mag)
	w, h := float32(g.width), float32(g.height)
	for _, pose := range g.sim.Frame().Poses {
		drawArrow(screen, pose, length, w, h, agentColor)
	}

	if g.showHUD {
		g.drawHUD(screen)
	}
	if g.statusLeft > 0 {
		ebitenutil.DebugPrintAt(screen, g.status, 6, g.height-18)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
