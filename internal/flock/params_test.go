package flock

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultParams_Valid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestDefaultParams_Values(t *testing.T) {
	p := DefaultParams()
	if p.Width != 1024 || p.Height != 1024 || p.Num != 1024 {
		t.Fatalf("unexpected world defaults: %+v", p)
	}
	if p.RVoid != 15 || p.RCent != 30 || p.RViso != 40 || p.RCopy != 80 {
		t.Fatalf("unexpected radius defaults: %+v", p)
	}
	if p.DT != 3.0 || p.DDT != 0.95 || p.MinV != 0.5 || p.Steps != 100000000 {
		t.Fatalf("unexpected integration defaults: %+v", p)
	}
}

func TestValidate_RejectsEveryBadKnob(t *testing.T) {
	p := DefaultParams()
	p.Num = 0
	p.Width = -1
	p.RVoid = 100
	p.Threads = 0

	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	for _, want := range []string{"num", "width", "radii out of order", "threads"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestValidate_RejectsStrideLargerThanWorld(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 100, 100
	p.RCopy, p.RCent, p.RViso = 20, 20, 20
	p.RVoid = 5
	p.DT = 200
	if err := p.Validate(); err == nil || !strings.Contains(err.Error(), "stride") {
		t.Fatalf("expected stride error, got %v", err)
	}
}

func TestValidate_RejectsNegativeWeight(t *testing.T) {
	p := DefaultParams()
	p.WVoid = -1
	if err := p.Validate(); err == nil {
		t.Fatal("expected negative wvoid to be rejected")
	}
}

func TestSpeed_FloorAboveUnit(t *testing.T) {
	p := DefaultParams()
	if p.Speed() != 1 {
		t.Fatalf("expected unit speed when minv < 1, got %v", p.Speed())
	}
	p.MinV = 2.5
	if p.Speed() != 2.5 {
		t.Fatalf("expected speed 2.5 when minv > 1, got %v", p.Speed())
	}
}

func TestParseParams_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boids.toml")
	body := "num = 64\nrvoid = 10.5\ninvert = true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := ParseParams(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Num != 64 || p.RVoid != 10.5 || !p.Invert {
		t.Fatalf("expected file values applied, got %+v", p)
	}
	if p.Width != 1024 || p.WCent != 0.4 {
		t.Fatalf("expected untouched keys to keep defaults, got %+v", p)
	}
}

func TestParseParams_MissingFile(t *testing.T) {
	if _, err := ParseParams(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTOML_RoundTrip(t *testing.T) {
	p := DefaultParams()
	p.Num = 7
	p.Seed = 99
	p.Invert = true
	path := filepath.Join(t.TempDir(), "out.toml")
	if err := os.WriteFile(path, []byte(p.TOML()), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := ParseParams(path)
	if err != nil {
		t.Fatalf("parse rendered TOML: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}

func TestLoadParams_FlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boids.toml")
	if err := os.WriteFile(path, []byte("num = 64\nseed = 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	runs := fs.Int("runs", 1, "")
	p, err := LoadParams(fs, []string{"-runs", "3", "-config", path, "-seed", "11"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Num != 64 {
		t.Fatalf("expected num from config file, got %d", p.Num)
	}
	if p.Seed != 11 {
		t.Fatalf("expected -seed to override config, got %d", p.Seed)
	}
	if *runs != 3 {
		t.Fatalf("expected command flag parsed, got %d", *runs)
	}
}

func TestLoadParams_InvalidRejected(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := LoadParams(fs, []string{"-num", "0"}); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
}
