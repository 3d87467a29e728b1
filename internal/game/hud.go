package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

// hudFace is the fixed-width face used for all HUD text.
var hudFace = text.NewGoXFace(basicfont.Face7x13)

const (
	hudLineH = 14
	hudCharW = 7
	hudPadX  = 6
	hudPadY  = 4
)

func speedLabel(speed float64) string {
	switch speed {
	case 0:
		return "PAUSED"
	case 1, 2, 4, 8:
		return fmt.Sprintf("%.0fx", speed)
	default:
		return fmt.Sprintf("%.2fx", speed)
	}
}

// hudLines returns the HUD text for the current run state.
func hudLines(tick int, speed float64, p flock.Params, snap flock.Snapshot) []string {
	lines := []string{
		fmt.Sprintf("T=%d  SIM: %s  P=pause  ,/. speed  Space=step", tick, speedLabel(speed)),
		fmt.Sprintf("agents=%d  world=%gx%g  seed=%d  threads=%d", snap.Agents, p.Width, p.Height, p.Seed, p.Threads),
		fmt.Sprintf("polarization=%.3f  neighbors=%.2f  min sep=%.2f", snap.Polarization, snap.MeanNeighbors, snap.MinSeparation),
	}
	if p.Invert {
		lines = append(lines, "rules: INVERTED")
	}
	if p.Steps > 0 {
		lines = append(lines, fmt.Sprintf("steps: %d/%d", tick, p.Steps))
	}
	lines = append(lines, "[H] toggle HUD  [C] copy config  [Esc] quit")
	return lines
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := hudLines(g.sim.Tick, g.simSpeed, g.sim.Params, g.snap)

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*hudCharW + hudPadX*2)
	boxH := float32(len(lines)*hudLineH + hudPadY*2)
	bx, by := float32(4), float32(4)

	// Panel background.
	vector.FillRect(screen, bx, by, boxW, boxH, color.RGBA{R: 6, G: 10, B: 16, A: 200}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH, 1.0, color.RGBA{R: 40, G: 120, B: 140, A: 180}, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(bx+hudPadX), float64(by+hudPadY))
	op.ColorScale.ScaleWithColor(color.RGBA{R: 200, G: 240, B: 240, A: 255})
	op.LineSpacing = hudLineH
	text.Draw(screen, strings.Join(lines, "\n"), hudFace, op)
}

// exportText renders the active configuration with the latest statistics as
// a TOML document suitable for pasting into a config file.
func exportText(p flock.Params, snap flock.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", snap.String())
	sb.WriteString(p.TOML())
	return sb.String()
}
