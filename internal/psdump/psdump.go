// Package psdump writes a flock frame as an Encapsulated PostScript picture.
package psdump

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

// FileName returns the conventional dump name for a run seeded with seed.
func FileName(seed int64) string {
	return fmt.Sprintf("boids-%d.eps", seed)
}

// Write renders f as one cyan arrow per agent on a black page the size of
// the world. PostScript's y axis points up like the world's, so poses are
// only shifted by half the extent.
func Write(w io.Writer, f flock.Frame, p flock.Params) error {
	bw := bufio.NewWriter(w)
	width, height := math.Ceil(p.Width), math.Ceil(p.Height)

	length := p.Len * p.Mag
	half := length / 2
	barb := length / 3
	bx := half + barb*math.Cos(150*math.Pi/180)
	by := barb * math.Sin(150*math.Pi/180)

	bw.WriteString("%!PS-Adobe-3.0 EPSF-3.0\n")
	fmt.Fprintf(bw, "%%%%BoundingBox: 0 0 %.0f %.0f\n", width, height)
	fmt.Fprintf(bw, "%%%%Title: boids seed=%d T=%d agents=%d\n", p.Seed, f.Tick, len(f.Poses))
	bw.WriteString("%%EndComments\n")
	fmt.Fprintf(bw, "0 setgray 0 0 %.0f %.0f rectfill\n", width, height)
	bw.WriteString("0 1 1 setrgbcolor 0.5 setlinewidth 1 setlinecap\n")
	// x y heading a
	fmt.Fprintf(bw, "/a { gsave 3 1 roll translate rotate newpath %.3f 0 moveto %.3f 0 lineto %.3f %.3f moveto %.3f 0 lineto %.3f %.3f lineto stroke grestore } bind def\n",
		-half, half, bx, by, half, bx, -by)

	for _, pose := range f.Poses {
		fmt.Fprintf(bw, "%.2f %.2f %.2f a\n", pose.X+p.Width/2, pose.Y+p.Height/2, pose.Heading)
	}
	bw.WriteString("showpage\n%%EOF\n")
	return bw.Flush()
}

// WriteFile writes the picture to path, replacing any existing file.
func WriteFile(path string, f flock.Frame, p flock.Params) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(out, f, p)
}
