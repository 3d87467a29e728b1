package flock

import (
	"fmt"
	"math"
)

// Advance applies one tick of motion: every position moves by next*dt and is
// wrapped back into the world, then next becomes the committed velocity. Speeds
// below MinV are raised to it. On error st is left untouched.
//
// The swap hands the previous velocity slice back so the caller can reuse it
// as the next tick's heading buffer.
func Advance(p Params, st *State, next []Vec2) ([]Vec2, error) {
	n := st.Len()
	if len(next) != n {
		return next, fmt.Errorf("velocity buffer holds %d agents, state has %d", len(next), n)
	}

	// Validate and clamp every velocity before touching positions.
	for i, v := range next {
		if !v.Finite() {
			return next, &AgentError{Agent: i, Err: fmt.Errorf("%w: new velocity %v", ErrNonFinite, v)}
		}
		speed := v.Len()
		if speed == 0 {
			return next, &AgentError{Agent: i, Err: fmt.Errorf("%w: new velocity is zero", ErrDegenerate)}
		}
		if speed < p.MinV {
			next[i] = v.Scale(p.MinV / speed)
		}
		if pos := st.Pos[i].Add(next[i].Scale(p.DT)); !pos.Finite() {
			return next, &AgentError{Agent: i, Err: fmt.Errorf("%w: position %v", ErrNonFinite, pos)}
		}
	}

	for i, v := range next {
		pos := st.Pos[i].Add(v.Scale(p.DT))
		st.Pos[i] = Vec2{Wrap(pos.X, p.Width), Wrap(pos.Y, p.Height)}
	}

	prev := st.Vel
	st.Vel = next
	return prev, nil
}

// InWorld reports whether pos lies inside [-w/2, w/2) x [-h/2, h/2).
func InWorld(pos Vec2, width, height float64) bool {
	return pos.X >= -width/2 && pos.X < width/2 && pos.Y >= -height/2 && pos.Y < height/2 &&
		!math.IsNaN(pos.X) && !math.IsNaN(pos.Y)
}
