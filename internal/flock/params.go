package flock

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalidParams is wrapped by every error returned from Params.Validate.
var ErrInvalidParams = errors.New("invalid parameters")

// Params holds the configuration of one run. It is fixed once the run starts
// and is passed by value into the solver and integrator.
type Params struct {
	Width  float64 `toml:"width"`  // world extent along x
	Height float64 `toml:"height"` // world extent along y
	Num    int     `toml:"num"`    // agent count
	Len    float64 `toml:"len"`    // glyph length (renderers only)
	Mag    float64 `toml:"mag"`    // glyph velocity scale (renderers only)
	Seed   int64   `toml:"seed"`   // RNG seed for initial placement
	Invert bool    `toml:"invert"` // negate alignment and cohesion
	Steps  int     `toml:"steps"`  // max ticks, 0 = unbounded
	PSDump bool    `toml:"psdump"` // write a PostScript snapshot at the end of a headless run

	Angle  float64 `toml:"angle"`  // field of view, full width in degrees
	VAngle float64 `toml:"vangle"` // view-blocking cone, full width in degrees
	MinV   float64 `toml:"minv"`   // speed floor
	DDT    float64 `toml:"ddt"`    // weight of the previous velocity (damping)
	DT     float64 `toml:"dt"`     // integration time step

	RCopy float64 `toml:"rcopy"` // alignment radius
	RCent float64 `toml:"rcent"` // cohesion radius
	RViso float64 `toml:"rviso"` // visibility horizon and view-blocking radius
	RVoid float64 `toml:"rvoid"` // avoidance radius

	WCopy float64 `toml:"wcopy"`
	WCent float64 `toml:"wcent"`
	WViso float64 `toml:"wviso"`
	WVoid float64 `toml:"wvoid"`

	Threads int `toml:"threads"` // workers for the neighbor scan
}

// DefaultParams returns the stock configuration.
func DefaultParams() Params {
	return Params{
		Width:   1024,
		Height:  1024,
		Num:     1024,
		Len:     20,
		Mag:     1,
		Seed:    0,
		Invert:  false,
		Steps:   100000000,
		PSDump:  false,
		Angle:   270.0,
		VAngle:  90,
		MinV:    0.5,
		DDT:     0.95,
		DT:      3.0,
		RCopy:   80,
		RCent:   30,
		RViso:   40,
		RVoid:   15,
		WCopy:   0.2,
		WCent:   0.4,
		WViso:   0.8,
		WVoid:   1.0,
		Threads: 1,
	}
}

// Speed is the magnitude every velocity is given after a tick.
func (p Params) Speed() float64 {
	return math.Max(1, p.MinV)
}

// Validate reports every violated configuration rule at once.
func (p Params) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidParams}, args...)...))
	}

	if p.Num < 1 {
		bad("num must be >= 1, got %d", p.Num)
	}
	if !(p.Width > 0) || math.IsInf(p.Width, 0) {
		bad("width must be positive and finite, got %v", p.Width)
	}
	if !(p.Height > 0) || math.IsInf(p.Height, 0) {
		bad("height must be positive and finite, got %v", p.Height)
	}
	for _, r := range []struct {
		name string
		v    float64
	}{{"rvoid", p.RVoid}, {"rcopy", p.RCopy}, {"rcent", p.RCent}, {"rviso", p.RViso}} {
		if !(r.v >= 0) || math.IsInf(r.v, 0) {
			bad("%s must be >= 0 and finite, got %v", r.name, r.v)
		}
	}
	if p.RVoid >= p.RCopy || p.RVoid >= p.RCent || p.RVoid >= p.RViso {
		bad("radii out of order: rvoid (%v) must be smaller than rcopy (%v), rcent (%v) and rviso (%v)",
			p.RVoid, p.RCopy, p.RCent, p.RViso)
	}
	if !(p.DT > 0) || math.IsInf(p.DT, 0) {
		bad("dt must be positive and finite, got %v", p.DT)
	}
	if !(p.DDT >= 0 && p.DDT <= 1) {
		bad("ddt must be in [0, 1], got %v", p.DDT)
	}
	if !(p.MinV > 0) || math.IsInf(p.MinV, 0) {
		bad("minv must be positive and finite, got %v", p.MinV)
	}
	if !(p.Angle > 0 && p.Angle <= 360) {
		bad("angle must be in (0, 360], got %v", p.Angle)
	}
	if !(p.VAngle >= 0 && p.VAngle <= p.Angle) {
		bad("vangle must be in [0, angle], got %v", p.VAngle)
	}
	for _, w := range []struct {
		name string
		v    float64
	}{{"wvoid", p.WVoid}, {"wcopy", p.WCopy}, {"wcent", p.WCent}, {"wviso", p.WViso}} {
		if !(w.v >= 0) || math.IsInf(w.v, 0) {
			bad("%s must be >= 0 and finite, got %v", w.name, w.v)
		}
	}
	if p.Threads < 1 {
		bad("threads must be >= 1, got %d", p.Threads)
	}
	if p.Steps < 0 {
		bad("steps must be >= 0, got %d", p.Steps)
	}
	if stride := p.DT * p.Speed(); p.Width > 0 && p.Height > 0 && stride >= math.Min(p.Width, p.Height) {
		bad("per-tick stride dt*speed (%v) must be smaller than the world (%vx%v)", stride, p.Width, p.Height)
	}
	return errors.Join(errs...)
}

// ParseParams parses the TOML config file whose path is provided.
// Keys absent from the file keep their default values.
func ParseParams(path string) (Params, error) {
	p := DefaultParams()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// TOML renders p as a TOML document that ParseParams accepts.
func (p Params) TOML() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		// Params holds only scalars; encoding cannot fail.
		panic(err)
	}
	return buf.String()
}

// BindFlags registers one flag per knob on fs, writing into p. Defaults shown
// in -help are p's current values, so callers load a config file first.
func BindFlags(fs *flag.FlagSet, p *Params) {
	fs.Float64Var(&p.Width, "width", p.Width, "world width")
	fs.Float64Var(&p.Height, "height", p.Height, "world height")
	fs.IntVar(&p.Num, "num", p.Num, "number of boids")
	fs.Float64Var(&p.Len, "len", p.Len, "glyph length")
	fs.Float64Var(&p.Mag, "mag", p.Mag, "glyph velocity scale")
	fs.Int64Var(&p.Seed, "seed", p.Seed, "random seed")
	fs.BoolVar(&p.Invert, "invert", p.Invert, "negate alignment and cohesion")
	fs.IntVar(&p.Steps, "steps", p.Steps, "maximum ticks (0 = unbounded)")
	fs.BoolVar(&p.PSDump, "psdump", p.PSDump, "write a PostScript snapshot of the final frame")
	fs.Float64Var(&p.Angle, "angle", p.Angle, "field of view in degrees")
	fs.Float64Var(&p.VAngle, "vangle", p.VAngle, "view-blocking cone in degrees")
	fs.Float64Var(&p.MinV, "minv", p.MinV, "minimum speed")
	fs.Float64Var(&p.DDT, "ddt", p.DDT, "velocity damping factor")
	fs.Float64Var(&p.DT, "dt", p.DT, "time step")
	fs.Float64Var(&p.RCopy, "rcopy", p.RCopy, "alignment radius")
	fs.Float64Var(&p.RCent, "rcent", p.RCent, "cohesion radius")
	fs.Float64Var(&p.RViso, "rviso", p.RViso, "visibility radius")
	fs.Float64Var(&p.RVoid, "rvoid", p.RVoid, "avoidance radius")
	fs.Float64Var(&p.WCopy, "wcopy", p.WCopy, "alignment weight")
	fs.Float64Var(&p.WCent, "wcent", p.WCent, "cohesion weight")
	fs.Float64Var(&p.WViso, "wviso", p.WViso, "view-blocking weight")
	fs.Float64Var(&p.WVoid, "wvoid", p.WVoid, "avoidance weight")
	fs.IntVar(&p.Threads, "threads", p.Threads, "worker goroutines for the neighbor scan")
}

// LoadParams builds Params for a command line: defaults, then the TOML file
// named by -config (if any), then explicit flags. Command-specific flags must
// already be registered on fs.
func LoadParams(fs *flag.FlagSet, args []string) (Params, error) {
	p := DefaultParams()
	if path := configArg(args); path != "" {
		var err error
		if p, err = ParseParams(path); err != nil {
			return p, err
		}
	}
	fs.String("config", "", "path to a TOML config file")
	BindFlags(fs, &p)
	if err := fs.Parse(args); err != nil {
		return p, err
	}
	return p, p.Validate()
}

// configArg finds the value of -config in args without parsing the rest.
func configArg(args []string) string {
	for i, a := range args {
		if a == "--" || !strings.HasPrefix(a, "-") {
			continue
		}
		name, val, hasVal := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if name != "config" {
			continue
		}
		if hasVal {
			return val
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
