package flock

import (
	"fmt"
	"math/rand"
)

// State holds the positions and velocities of every agent. Index i is agent
// i's identity for the whole run. Velocities are replaced wholesale by
// Advance once a tick's new headings are known; nothing writes them mid-scan.
type State struct {
	Pos []Vec2
	Vel []Vec2
}

// Len returns the number of agents.
func (st *State) Len() int { return len(st.Pos) }

// NewState places p.Num agents uniformly over the world with random unit
// velocities drawn from rng.
func NewState(p Params, rng *rand.Rand) *State {
	st := &State{
		Pos: make([]Vec2, p.Num),
		Vel: make([]Vec2, p.Num),
	}
	for i := range st.Pos {
		st.Pos[i] = Vec2{
			X: Wrap(randomRange(rng, -p.Width/2, p.Width/2), p.Width),
			Y: Wrap(randomRange(rng, -p.Height/2, p.Height/2), p.Height),
		}
		// Redraw until the velocity has a direction.
		for {
			v, ok := Normalize(Vec2{randomRange(rng, -1, 1), randomRange(rng, -1, 1)})
			if ok {
				st.Vel[i] = v
				break
			}
		}
	}
	return st
}

// NewStateFrom builds a State from explicit positions and velocities.
// Positions are wrapped into the world; velocities must be finite and non-zero.
func NewStateFrom(p Params, pos, vel []Vec2) (*State, error) {
	if len(pos) != len(vel) {
		return nil, fmt.Errorf("%w: %d positions but %d velocities", ErrInvalidParams, len(pos), len(vel))
	}
	if len(pos) == 0 {
		return nil, fmt.Errorf("%w: no agents", ErrInvalidParams)
	}
	st := &State{
		Pos: make([]Vec2, len(pos)),
		Vel: make([]Vec2, len(vel)),
	}
	for i := range pos {
		if !pos[i].Finite() {
			return nil, fmt.Errorf("%w: agent %d position %v", ErrNonFinite, i, pos[i])
		}
		if !vel[i].Finite() {
			return nil, fmt.Errorf("%w: agent %d velocity %v", ErrNonFinite, i, vel[i])
		}
		if vel[i].IsZero() {
			return nil, fmt.Errorf("%w: agent %d has zero velocity", ErrDegenerate, i)
		}
		st.Pos[i] = Vec2{Wrap(pos[i].X, p.Width), Wrap(pos[i].Y, p.Height)}
		st.Vel[i] = vel[i]
	}
	return st, nil
}

// Clone returns a deep copy of st.
func (st *State) Clone() *State {
	return &State{
		Pos: append([]Vec2(nil), st.Pos...),
		Vel: append([]Vec2(nil), st.Vel...),
	}
}

// Pose is what a renderer needs to draw one agent.
type Pose struct {
	X, Y    float64
	Heading float64 // degrees from +x, [0, 360)
}

// Poses writes every agent's pose into dst (reallocating if it is too short)
// and returns it.
func (st *State) Poses(dst []Pose) []Pose {
	if cap(dst) < len(st.Pos) {
		dst = make([]Pose, len(st.Pos))
	}
	dst = dst[:len(st.Pos)]
	for i, pos := range st.Pos {
		dst[i] = Pose{X: pos.X, Y: pos.Y, Heading: HeadingAngle(st.Vel[i])}
	}
	return dst
}

func randomRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
