// Package term draws a flock in a terminal with tcell.
package term

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

// arrows are indexed by heading octant, counter-clockwise from +x.
var arrows = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

// arrowRune returns the arrow closest to heading (degrees).
func arrowRune(heading float64) rune {
	i := int(math.Floor((heading+22.5)/45)) % 8
	if i < 0 {
		i += 8
	}
	return arrows[i]
}

// cellFor maps a world position onto a cols×rows grid, origin at the centre
// and y up. Row 0 of the returned grid is the top of the world.
func cellFor(x, y float64, p flock.Params, cols, rows int) (int, int) {
	cx := int(math.Floor((x + p.Width/2) / p.Width * float64(cols)))
	cy := int(math.Floor((p.Height/2 - y) / p.Height * float64(rows)))
	return min(max(cx, 0), cols-1), min(max(cy, 0), rows-1)
}

// Renderer draws frames onto a tcell screen. The top line is a status bar.
type Renderer struct {
	screen tcell.Screen
	agent  tcell.Style
	status tcell.Style
}

// NewRenderer draws onto an initialized screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		agent:  tcell.StyleDefault.Foreground(tcell.ColorAqua),
		status: tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorTeal),
	}
}

// Draw clears the screen and draws one arrow per pose plus the status line.
func (r *Renderer) Draw(f flock.Frame, p flock.Params, status string) {
	r.screen.Clear()
	cols, rows := r.screen.Size()
	if cols < 1 || rows < 2 {
		r.screen.Show()
		return
	}

	for _, pose := range f.Poses {
		x, y := cellFor(pose.X, pose.Y, p, cols, rows-1)
		r.screen.SetContent(x, y+1, arrowRune(pose.Heading), nil, r.agent)
	}

	line := fmt.Sprintf(" T=%d agents=%d %s  q=quit", f.Tick, len(f.Poses), status)
	for x := 0; x < cols; x++ {
		ch := ' '
		if x < len(line) {
			ch = rune(line[x])
		}
		r.screen.SetContent(x, 0, ch, nil, r.status)
	}
	r.screen.Show()
}

// isQuit reports whether ev asks to leave: q, Esc or Ctrl-C.
func isQuit(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return key.Rune() == 'q' || key.Rune() == 'Q'
	}
	return false
}

// Run drives sim on screen, one frame per tick, until Steps elapse, the user
// quits, or ctx is cancelled. Quitting is not an error. The caller owns the
// screen and must Fini it afterwards.
func Run(ctx context.Context, screen tcell.Screen, sim *flock.Sim, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}
			if isQuit(ev) {
				close(quit)
				cancel()
				return
			}
		}
	}()

	r := NewRenderer(screen)
	r.Draw(sim.Frame(), sim.Params, "")
	err := sim.Run(ctx, interval, func(f flock.Frame) {
		r.Draw(f, sim.Params, "")
	})
	if errors.Is(err, context.Canceled) {
		select {
		case <-quit:
			return nil
		default:
		}
	}
	return err
}
