package game

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

func testSim(t *testing.T, steps int) *flock.Sim {
	t.Helper()
	p := flock.DefaultParams()
	p.Width, p.Height = 200, 100
	p.Num = 12
	p.Seed = 7
	p.Steps = steps
	s, err := flock.New(p)
	if err != nil {
		t.Fatalf("new sim: %v", err)
	}
	return s
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestToScreen_OriginAtCentreYUp(t *testing.T) {
	x, y := toScreen(0, 0, 200, 100)
	if x != 100 || y != 50 {
		t.Fatalf("expected world origin at (100,50), got (%v,%v)", x, y)
	}
	x, y = toScreen(-100, 50, 200, 100)
	if x != 0 || y != 0 {
		t.Fatalf("expected top-left corner at (0,0), got (%v,%v)", x, y)
	}
	_, y = toScreen(0, 10, 200, 100)
	if y >= 50 {
		t.Fatalf("expected positive world y to move up the screen, got %v", y)
	}
}

func TestArrowSegments_PointsAlongHeading(t *testing.T) {
	segs := arrowSegments(flock.Pose{X: 0, Y: 0, Heading: 0}, 20, 200, 100)
	shaft := segs[0]
	if !near(shaft.x0, 90) || !near(shaft.x1, 110) || !near(shaft.y0, 50) || !near(shaft.y1, 50) {
		t.Fatalf("expected horizontal shaft 90..110 at y=50, got %+v", shaft)
	}
	// Barbs trail back from the tip.
	for _, b := range segs[1:] {
		if b.x0 != shaft.x1 || b.x1 >= b.x0 {
			t.Fatalf("expected barb to start at tip and point back, got %+v", b)
		}
	}

	up := arrowSegments(flock.Pose{Heading: 90}, 20, 200, 100)[0]
	if !near(up.x0, up.x1) || up.y1 >= up.y0 {
		t.Fatalf("expected heading 90 to point up the screen, got %+v", up)
	}
}

func TestArrowSegments_BarbsSymmetric(t *testing.T) {
	segs := arrowSegments(flock.Pose{Heading: 0}, 30, 200, 100)
	a, b := segs[1], segs[2]
	if !near(a.x1, b.x1) || !near(a.y1-50, 50-b.y1) {
		t.Fatalf("expected mirrored barbs, got %+v and %+v", a, b)
	}
}

func TestSpeedSteps(t *testing.T) {
	if got := faster(1); got != 2 {
		t.Fatalf("expected 2 after 1, got %v", got)
	}
	if got := faster(8); got != 8 {
		t.Fatalf("expected top speed to stay 8, got %v", got)
	}
	if got := slower(1); got != 0.5 {
		t.Fatalf("expected 0.5 below 1, got %v", got)
	}
	if got := slower(0); got != 0 {
		t.Fatalf("expected pause to stay paused, got %v", got)
	}
	if got := slower(3); got != 2 {
		t.Fatalf("expected off-grid speed to snap down to 2, got %v", got)
	}
}

func TestHUDLines(t *testing.T) {
	p := flock.DefaultParams()
	p.Invert = true
	p.Steps = 500
	lines := hudLines(42, 0, p, flock.Snapshot{Agents: 1024, Polarization: 0.5})
	all := strings.Join(lines, "\n")
	for _, want := range []string{"T=42", "PAUSED", "agents=1024", "polarization=0.500", "INVERTED", "steps: 42/500"} {
		if !strings.Contains(all, want) {
			t.Errorf("expected HUD to contain %q, got:\n%s", want, all)
		}
	}
}

func TestExportText_ParsesBackAsConfig(t *testing.T) {
	p := flock.DefaultParams()
	p.Num = 33
	p.WCent = 0.7
	out := exportText(p, flock.Snapshot{Tick: 9, Agents: 33})
	if !strings.HasPrefix(out, "# T=9") {
		t.Fatalf("expected stats comment first, got %q", out)
	}
	path := filepath.Join(t.TempDir(), "copy.toml")
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := flock.ParseParams(path)
	if err != nil {
		t.Fatalf("parse exported text: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}

func TestAdvance_RunsTicksAtSpeed(t *testing.T) {
	g := New(testSim(t, 0))
	g.simSpeed = 4
	if err := g.advance(); err != nil {
		t.Fatal(err)
	}
	if g.sim.Tick != 4 {
		t.Fatalf("expected 4 ticks at 4x, got %d", g.sim.Tick)
	}

	g.simSpeed = 0.5
	_ = g.advance()
	_ = g.advance()
	if g.sim.Tick != 5 {
		t.Fatalf("expected one tick per two frames at 0.5x, got tick %d", g.sim.Tick)
	}
}

func TestAdvance_PausedStepsOnlyOnRequest(t *testing.T) {
	g := New(testSim(t, 0))
	g.simSpeed = 0
	_ = g.advance()
	if g.sim.Tick != 0 {
		t.Fatalf("expected no tick while paused, got %d", g.sim.Tick)
	}
	g.stepOnce = true
	_ = g.advance()
	_ = g.advance()
	if g.sim.Tick != 1 {
		t.Fatalf("expected exactly one single-step tick, got %d", g.sim.Tick)
	}
}

func TestAdvance_TerminatesAtSteps(t *testing.T) {
	g := New(testSim(t, 3))
	g.simSpeed = 8
	if err := g.advance(); err != nil {
		t.Fatal(err)
	}
	if g.sim.Tick != 3 {
		t.Fatalf("expected to stop at 3 ticks, got %d", g.sim.Tick)
	}
	if err := g.advance(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("expected ebiten.Termination, got %v", err)
	}
	if g.Sim().Stopped() != "steps" {
		t.Fatalf("expected stop reason steps, got %q", g.Sim().Stopped())
	}
}

func TestAdvance_FaultEndsRun(t *testing.T) {
	g := New(testSim(t, 0))
	g.sim.State.Vel[3] = flock.Vec2{X: math.NaN(), Y: 0}
	err := g.advance()
	if !errors.Is(err, flock.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
}

func TestFinish_RecordsWindowClose(t *testing.T) {
	g := New(testSim(t, 0))
	if err := g.advance(); err != nil {
		t.Fatal(err)
	}
	g.Finish()
	if g.Sim().Stopped() != "closed" {
		t.Fatalf("expected stop reason closed, got %q", g.Sim().Stopped())
	}

	g = New(testSim(t, 1))
	_ = g.advance()
	if err := g.advance(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("expected ebiten.Termination, got %v", err)
	}
	g.Finish()
	if g.Sim().Stopped() != "steps" {
		t.Fatalf("expected steps to stay the reason, got %q", g.Sim().Stopped())
	}
}

func TestCopyConfig_UsesClipboard(t *testing.T) {
	g := New(testSim(t, 0))
	var copied string
	g.copyText = func(s string) error {
		copied = s
		return nil
	}
	g.copyConfig()
	if !strings.Contains(copied, "num = 12") {
		t.Fatalf("expected config in clipboard, got %q", copied)
	}
	if !strings.Contains(g.status, "copied") || g.statusLeft == 0 {
		t.Fatalf("expected status message, got %q", g.status)
	}

	g.copyText = func(string) error { return errors.New("no clipboard") }
	g.copyConfig()
	if !strings.Contains(g.status, "no clipboard") {
		t.Fatalf("expected clipboard error in status, got %q", g.status)
	}
}
