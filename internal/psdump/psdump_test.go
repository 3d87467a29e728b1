package psdump

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Garsondee/Flock-Sense/internal/flock"
)

func TestWrite_HeaderAndOneArrowPerAgent(t *testing.T) {
	p := flock.DefaultParams()
	p.Width, p.Height = 300, 200
	p.Seed = 4
	f := flock.Frame{Tick: 10, Poses: []flock.Pose{
		{X: 0, Y: 0, Heading: 90},
		{X: -150, Y: 99, Heading: 0},
	}}

	var buf bytes.Buffer
	if err := Write(&buf, f, p); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%!PS-Adobe-3.0 EPSF-3.0\n") {
		t.Fatalf("expected EPS header, got %q", out[:40])
	}
	for _, want := range []string{
		"%%BoundingBox: 0 0 300 200",
		"seed=4 T=10 agents=2",
		"150.00 100.00 90.00 a\n",
		"0.00 199.00 0.00 a\n",
		"showpage",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if n := strings.Count(out, " a\n"); n != 2 {
		t.Fatalf("expected 2 arrow calls, got %d", n)
	}
	if !strings.HasSuffix(out, "%%EOF\n") {
		t.Fatal("expected %%EOF trailer")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_ReportsWriterError(t *testing.T) {
	err := Write(failingWriter{}, flock.Frame{}, flock.DefaultParams())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(12))
	if filepath.Base(path) != "boids-12.eps" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	if err := WriteFile(path, flock.Frame{Poses: []flock.Pose{{}}}, flock.DefaultParams()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("512.00 512.00 0.00 a")) {
		t.Fatalf("expected centred agent in dump, got:\n%s", data)
	}
}
