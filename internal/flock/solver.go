package flock

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNonFinite means a NaN or infinity reached the agent arrays.
	ErrNonFinite = errors.New("non-finite value")

	// ErrDegenerate means a velocity lost its direction.
	ErrDegenerate = errors.New("degenerate velocity")
)

// Zones is the set of behavioral bands a neighbor falls into.
type Zones uint8

const (
	ZoneVoid Zones = 1 << iota // avoidance
	ZoneCopy                   // alignment
	ZoneCent                   // cohesion
	ZoneViso                   // blocking the forward view
)

// Has reports whether z contains all of o.
func (z Zones) Has(o Zones) bool { return z&o == o }

func (z Zones) String() string {
	if z == 0 {
		return "none"
	}
	s := ""
	for _, n := range []struct {
		z    Zones
		name string
	}{{ZoneVoid, "void"}, {ZoneCopy, "copy"}, {ZoneCent, "cent"}, {ZoneViso, "viso"}} {
		if z.Has(n.z) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// Observation is what agent i makes of neighbor j during one scan.
type Observation struct {
	Delta Vec2    // toroidal displacement from i to j
	Dist  float64 // |Delta|
	Zones Zones   // empty when j is invisible to i
}

// Observe classifies the neighbor at pj as seen by an agent at pi heading vi.
// Neighbors at distance zero or beyond RViso are invisible. Inside RVoid a
// neighbor counts only for avoidance and is sensed in every direction; further
// out it must also lie inside the Angle cone.
func Observe(p *Params, pi, vi, pj Vec2) Observation {
	delta := Displacement(pi, pj, p.Width, p.Height)
	obs := Observation{Delta: delta, Dist: delta.Len()}
	if obs.Dist == 0 || obs.Dist > p.RViso {
		return obs
	}
	if obs.Dist <= p.RVoid {
		if p.WVoid != 0 {
			obs.Zones |= ZoneVoid
		}
		return obs
	}

	bearing := angleBetween(vi, delta)
	if p.Angle < 360 && bearing > p.Angle/2 {
		return obs
	}
	if obs.Dist <= p.RCopy {
		obs.Zones |= ZoneCopy
	}
	if obs.Dist <= p.RCent {
		obs.Zones |= ZoneCent
	}
	if bearing <= p.VAngle/2 {
		obs.Zones |= ZoneViso
	}
	return obs
}

// Headings computes every agent's velocity for the next tick into out, reading
// only the committed State. The scan over agents is split across p.Threads
// goroutines; each one writes a disjoint range of out.
func Headings(p Params, st *State, out []Vec2) error {
	n := st.Len()
	if len(out) != n {
		return fmt.Errorf("heading buffer holds %d agents, state has %d", len(out), n)
	}
	if err := checkState(st); err != nil {
		return err
	}

	workers := min(p.Threads, n)
	if workers <= 1 {
		return headingRange(&p, st, out, 0, n)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return headingRange(&p, st, out, lo, hi)
		})
	}
	return g.Wait()
}

func headingRange(p *Params, st *State, out []Vec2, lo, hi int) error {
	for i := lo; i < hi; i++ {
		v, err := heading(p, st, i)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

// heading blends the zone rules for agent i. Any neighbor in the avoidance
// zone pre-empts the other rules; see avoidHeading.
func heading(p *Params, st *State, i int) (Vec2, error) {
	pi, vi := st.Pos[i], st.Vel[i]

	var avoid, align, cent, viso Vec2
	var nCopy, nCent, nViso int
	var nearBuf [8]Vec2
	near := nearBuf[:0]
	for j, pj := range st.Pos {
		if j == i {
			continue
		}
		obs := Observe(p, pi, vi, pj)
		if obs.Zones == 0 {
			continue
		}
		away := obs.Delta.Scale(-1 / obs.Dist)
		if obs.Zones.Has(ZoneVoid) {
			// Closer neighbors push harder.
			avoid = avoid.Add(away.Scale(p.RVoid / obs.Dist))
			near = append(near, away.Scale(-1))
		}
		if obs.Zones.Has(ZoneCopy) {
			align = align.Add(st.Vel[j])
			nCopy++
		}
		if obs.Zones.Has(ZoneCent) {
			cent = cent.Add(obs.Delta)
			nCent++
		}
		if obs.Zones.Has(ZoneViso) {
			viso = viso.Add(away)
			nViso++
		}
	}

	speed := p.Speed()
	if len(near) > 0 {
		u, ok := avoidHeading(avoid, vi, near)
		if !ok {
			return Vec2{}, &AgentError{Agent: i, Err: fmt.Errorf("%w: velocity %v", ErrDegenerate, vi)}
		}
		return u.Scale(speed), nil
	}

	sign := 1.0
	if p.Invert {
		sign = -1
	}
	var steer Vec2
	if nCopy > 0 {
		avg := align.Scale(1 / float64(nCopy))
		steer = steer.Add(avg.Sub(vi).Scale(sign * p.WCopy))
	}
	if nCent > 0 {
		if u, ok := Normalize(cent); ok {
			steer = steer.Add(u.Scale(sign * p.WCent))
		}
	}
	if nViso > 0 {
		if u, ok := Normalize(viso); ok {
			steer = steer.Add(u.Scale(p.WViso))
		}
	}

	raw := vi.Scale(p.DDT).Add(steer.Scale(p.DT))
	if u, ok := Normalize(raw); ok {
		return u.Scale(speed), nil
	}
	return keepHeading(vi, speed, i)
}

// avoidHeading picks the unit heading for an agent with neighbors inside
// rvoid. toward holds the unit directions to those neighbors and push their
// weighted sum pointing away. The result never has a positive component
// toward any of them when such a direction exists: push itself if it
// qualifies, otherwise the qualifying direction closest to push (or to the
// old heading vi when push cancels). The closest such direction is either the
// preferred one or lies on the edge of some neighbor's half-plane, so the
// perpendiculars of toward are the only other candidates. An agent boxed in
// on every side takes the candidate with the smallest approach.
func avoidHeading(push, vi Vec2, toward []Vec2) (Vec2, bool) {
	want, ok := Normalize(push)
	if !ok {
		if want, ok = Normalize(vi); !ok {
			return Vec2{}, false
		}
	}

	best, bestWorst, bestScore := want, approach(want, toward), 1.0
	if bestWorst <= clearTol {
		return want, true
	}
	for _, u := range toward {
		for _, c := range [2]Vec2{{-u.Y, u.X}, {u.Y, -u.X}} {
			worst, score := approach(c, toward), c.Dot(want)
			clear, bestClear := worst <= clearTol, bestWorst <= clearTol
			switch {
			case clear && !bestClear,
				clear && bestClear && score > bestScore,
				!clear && !bestClear && worst < bestWorst:
				best, bestWorst, bestScore = c, worst, score
			}
		}
	}
	return best, true
}

// clearTol absorbs rounding in the perpendicular candidates.
const clearTol = 1e-12

// approach is the largest component of unit heading c toward any of toward.
func approach(c Vec2, toward []Vec2) float64 {
	worst := math.Inf(-1)
	for _, u := range toward {
		worst = max(worst, c.Dot(u))
	}
	return worst
}

func keepHeading(v Vec2, speed float64, i int) (Vec2, error) {
	u, ok := Normalize(v)
	if !ok {
		return Vec2{}, &AgentError{Agent: i, Err: fmt.Errorf("%w: velocity %v", ErrDegenerate, v)}
	}
	return u.Scale(speed), nil
}

// AgentError ties a tick failure to the agent that caused it.
type AgentError struct {
	Agent int
	Err   error
}

func (e *AgentError) Error() string { return fmt.Sprintf("agent %d: %v", e.Agent, e.Err) }

func (e *AgentError) Unwrap() error { return e.Err }

// checkState rejects a State holding NaN, infinities or zero velocities.
func checkState(st *State) error {
	if len(st.Vel) != len(st.Pos) {
		return fmt.Errorf("state has %d positions but %d velocities", len(st.Pos), len(st.Vel))
	}
	for i := range st.Pos {
		if !st.Pos[i].Finite() {
			return &AgentError{Agent: i, Err: fmt.Errorf("%w: position %v", ErrNonFinite, st.Pos[i])}
		}
		if !st.Vel[i].Finite() {
			return &AgentError{Agent: i, Err: fmt.Errorf("%w: velocity %v", ErrNonFinite, st.Vel[i])}
		}
		if st.Vel[i].IsZero() {
			return &AgentError{Agent: i, Err: fmt.Errorf("%w: zero velocity", ErrDegenerate)}
		}
	}
	return nil
}
