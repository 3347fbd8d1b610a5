package game

import "sort"

// Group is a connected component of calm ducks. Groups are rebuilt every
// tick; ID is the lowest member duck id.
type Group struct {
	ID        DuckID
	Members   []DuckID
	Centroid  Vec
	Vel       Vec
	Size      int
	Target    DuckID // zero when the group has nothing to chase
	LockUntil int64
}

type groupMemory struct {
	vel       Vec
	target    DuckID
	lockUntil int64
}

// BuildGroups flood fills ducks into components linked by the stick
// radius. Only components of two or more ducks are returned. ducks must be
// sorted by id.
func BuildGroups(ducks []*Duck, stickRadius float64) []*Group {
	visited := make([]bool, len(ducks))
	var groups []*Group
	stack := make([]int, 0, len(ducks))
	for i := range ducks {
		if visited[i] {
			continue
		}
		visited[i] = true
		stack = append(stack[:0], i)
		var members []int
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, cur)
			for j := range ducks {
				if visited[j] {
					continue
				}
				if ducks[cur].Pos.Dist(ducks[j].Pos) <= stickRadius {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		g := &Group{Size: len(members), Members: make([]DuckID, 0, len(members))}
		for _, m := range members {
			g.Members = append(g.Members, ducks[m].ID)
			g.Centroid = g.Centroid.Add(ducks[m].Pos)
		}
		g.Centroid = g.Centroid.Scale(1 / float64(len(members)))
		g.ID = g.Members[0]
		groups = append(groups, g)
	}
	return groups
}

// targetGroups picks, for every unlocked group, the nearest other group at
// least as large and steers toward it.
func (s *State) targetGroups(groups []*Group, now int64) {
	t := s.Tuning
	for _, g := range groups {
		if mem, ok := s.groupMemo[g.ID]; ok && now < mem.lockUntil {
			g.Vel, g.Target, g.LockUntil = mem.vel, mem.target, mem.lockUntil
			continue
		}
		var best *Group
		bestDist := 0.0
		for _, o := range groups {
			if o == g || o.Size < g.Size {
				continue
			}
			d := g.Centroid.Dist(o.Centroid)
			if best == nil || d < bestDist-epsilon || (d <= bestDist+epsilon && preferTarget(o, best)) {
				best, bestDist = o, d
			}
		}
		if best == nil {
			g.Vel, g.Target, g.LockUntil = Vec{}, 0, 0
			continue
		}
		speed := t.GroupSpeedEqual
		if best.Size > g.Size {
			speed = t.GroupSpeedLarger
		}
		dir, _ := best.Centroid.Sub(g.Centroid).Normalize()
		g.Vel = dir.Scale(speed)
		g.Target = best.ID
		g.LockUntil = now + t.MergeLockMs
	}

	for id := range s.groupMemo {
		delete(s.groupMemo, id)
	}
	for _, g := range groups {
		s.groupMemo[g.ID] = groupMemory{vel: g.Vel, target: g.Target, lockUntil: g.LockUntil}
	}
}

func preferTarget(a, b *Group) bool {
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	return a.ID < b.ID
}

// seekSolo pulls calm ungrouped ducks toward the nearest calm duck or group
// centroid.
func (s *State) seekSolo(calm []*Duck, groups []*Group) {
	t := s.Tuning
	grouped := make(map[DuckID]bool)
	for _, g := range groups {
		for _, id := range g.Members {
			grouped[id] = true
		}
	}
	for _, d := range calm {
		if grouped[d.ID] {
			continue
		}
		var target Vec
		found := false
		bestDist := 0.0
		for _, o := range calm {
			if o == d {
				continue
			}
			if dist := d.Pos.Dist(o.Pos); !found || dist < bestDist {
				target, bestDist, found = o.Pos, dist, true
			}
		}
		for _, g := range groups {
			if dist := d.Pos.Dist(g.Centroid); !found || dist < bestDist {
				target, bestDist, found = g.Centroid, dist, true
			}
		}
		desired := Vec{}
		if found {
			if dir, ok := target.Sub(d.Pos).Normalize(); ok {
				desired = dir.Scale(t.SoloSpeed)
			}
		}
		d.Vel = d.Vel.Approach(desired, t.SoloAccel)
	}
}

func (s *State) applyGroupVelocity(groups []*Group) {
	for _, g := range groups {
		for _, id := range g.Members {
			if d, ok := s.Ducks[id]; ok {
				d.Vel = d.Vel.Approach(g.Vel, s.Tuning.GroupAccel)
			}
		}
	}
}
