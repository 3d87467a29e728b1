package game

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

// arrowHeadAngle is the angle in degrees between the shaft and each barb.
const arrowHeadAngle = 150.0

type segment struct {
	x0, y0, x1, y1 float32
}

// toScreen maps world coordinates (origin at the centre, y up) to screen
// pixels (origin top-left, y down).
func toScreen(x, y float64, w, h float32) (float32, float32) {
	return float32(x) + w/2, h/2 - float32(y)
}

// arrowSegments returns the shaft and the two barbs of an arrow of the given
// length centred on the pose and pointing along its heading.
func arrowSegments(pose flock.Pose, length, w, h float32) [3]segment {
	cx, cy := toScreen(pose.X, pose.Y, w, h)
	rad := pose.Heading * math.Pi / 180
	// Screen y grows downward.
	dx, dy := float32(math.Cos(rad)), -float32(math.Sin(rad))

	half := length / 2
	tipX, tipY := cx+dx*half, cy+dy*half
	tailX, tailY := cx-dx*half, cy-dy*half

	barb := length / 3
	out := [3]segment{{tailX, tailY, tipX, tipY}}
	for i, side := range []float64{1, -1} {
		a := rad + side*arrowHeadAngle*math.Pi/180
		bx := tipX + float32(math.Cos(a))*barb
		by := tipY - float32(math.Sin(a))*barb
		out[i+1] = segment{tipX, tipY, bx, by}
	}
	return out
}

func drawArrow(screen *ebiten.Image, pose flock.Pose, length, w, h float32, c color.Color) {
	for _, s := range arrowSegments(pose, length, w, h) {
		vector.StrokeLine(screen, s.x0, s.y0, s.x1, s.y1, 1.0, c, true)
	}
}
