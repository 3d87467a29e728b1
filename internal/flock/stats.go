package flock

import (
	"fmt"
	"math"
)

// Snapshot summarizes the flock at one tick.
type Snapshot struct {
	Tick          int
	Agents        int
	Polarization  float64 // |mean unit velocity|: 0 disordered, 1 all aligned
	MeanSpeed     float64
	MeanNeighbors float64 // agents within rviso, averaged over the flock
	MinSeparation float64 // smallest toroidal distance between two agents, +Inf for one agent
}

// Measure computes a Snapshot of st. It is O(N²) like the heading scan.
func Measure(p Params, st *State) Snapshot {
	n := st.Len()
	snap := Snapshot{Agents: n, MinSeparation: math.Inf(1)}
	if n == 0 {
		return snap
	}

	var heading Vec2
	var speed float64
	for _, v := range st.Vel {
		speed += v.Len()
		if u, ok := Normalize(v); ok {
			heading = heading.Add(u)
		}
	}
	snap.Polarization = heading.Len() / float64(n)
	snap.MeanSpeed = speed / float64(n)

	neighbors := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Displacement(st.Pos[i], st.Pos[j], p.Width, p.Height).Len()
			if d < snap.MinSeparation {
				snap.MinSeparation = d
			}
			if d <= p.RViso {
				// Counted once for each end of the pair.
				neighbors += 2
			}
		}
	}
	snap.MeanNeighbors = float64(neighbors) / float64(n)
	return snap
}

func (s Snapshot) String() string {
	return fmt.Sprintf("T=%d agents=%d polarization=%.3f speed=%.3f neighbors=%.2f min_sep=%.2f",
		s.Tick, s.Agents, s.Polarization, s.MeanSpeed, s.MeanNeighbors, s.MinSeparation)
}
