package engine

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/danielgoncalves/evacsim/components"
)

// PedestrianSet is the ECS-backed collection of pedestrians (spec.md §3
// "Pedestrian", §2 "Pedestrian set"): a single-component ark world storing
// one components.Pedestrian per entity, plus the id->entity lookup the
// conflict resolver and commit phase need to go from a pedestrian id back
// to its entity.
type PedestrianSet struct {
	world   *ecs.World
	pedMap  *ecs.Map1[components.Pedestrian]
	filter  *ecs.Filter1[components.Pedestrian]
	byID    map[uint32]ecs.Entity
	nextID  uint32
	deadCnt int
}

// NewPedestrianSet creates an empty pedestrian set backed by a fresh ark
// world.
func NewPedestrianSet() *PedestrianSet {
	world := ecs.NewWorld()
	pedMap := ecs.NewMap1[components.Pedestrian](world)
	filter := ecs.NewFilter1[components.Pedestrian](world)
	return &PedestrianSet{
		world:  world,
		pedMap: pedMap,
		filter: filter,
		byID:   make(map[uint32]ecs.Entity),
		nextID: 1,
	}
}

// Reset removes every pedestrian and resets id allocation and the dead
// count, for the per-simulation lifecycle (spec.md §3 "Lifecycles").
func (s *PedestrianSet) Reset() {
	query := s.filter.Query()
	var toRemove []ecs.Entity
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, e := range toRemove {
		s.pedMap.Remove(e)
	}
	s.byID = make(map[uint32]ecs.Entity)
	s.nextID = 1
	s.deadCnt = 0
}

// Spawn creates a new pedestrian at loc with a fresh dense id starting
// at 1 (spec.md §9 "Pedestrian identity").
func (s *PedestrianSet) Spawn(loc components.Location) *components.Pedestrian {
	id := s.nextID
	s.nextID++

	ped := components.Pedestrian{
		ID:       id,
		State:    components.Moving,
		Origin:   loc,
		Previous: loc,
		Current:  loc,
		Target:   loc,
	}
	entity := s.pedMap.NewEntity(&ped)
	s.byID[id] = entity

	return s.pedMap.Get(entity)
}

// Count returns the number of pedestrians currently tracked (including
// stopped, leaving, dead, and got-out ones still held in the set).
func (s *PedestrianSet) Count() int {
	return len(s.byID)
}

// DeadCount returns the number of pedestrians that have transitioned to
// Dead since the last Reset.
func (s *PedestrianSet) DeadCount() int { return s.deadCnt }

// ByID returns the pedestrian with the given id, or nil if it is not
// known to this set.
func (s *PedestrianSet) ByID(id uint32) *components.Pedestrian {
	entity, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.pedMap.Get(entity)
}

// Each calls fn once for every pedestrian, in an unspecified order; the
// caller must not rely on iteration order for anything observable (spec.md
// §5 "ordering between independent pedestrians is not observable"). Use
// EachOrdered for passes that require id order (conflict scan, movement
// commit).
func (s *PedestrianSet) Each(fn func(*components.Pedestrian)) {
	query := s.filter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

// EachOrdered calls fn once for every pedestrian in ascending id order, as
// required by the target-conflict scan (spec.md §4.7) and movement commit
// (spec.md §4.8).
func (s *PedestrianSet) EachOrdered(fn func(*components.Pedestrian)) {
	ids := make([]uint32, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	insertionSortUint32(ids)
	for _, id := range ids {
		fn(s.pedMap.Get(s.byID[id]))
	}
}

// Active reports whether any pedestrian is still in a live state
// (Moving, Stopped, or Leaving); the driver's main loop runs "while
// !is_environment_empty()" (spec.md §4.9), i.e. while Active is true.
func (s *PedestrianSet) Active() bool {
	active := false
	s.Each(func(p *components.Pedestrian) {
		if p.State.Active() {
			active = true
		}
	})
	return active
}

// KillByFire transitions every pedestrian standing on a fire cell to
// Dead and increments the dead count (spec.md §4.8 "the fire is checked:
// any pedestrian on a FIRE cell transitions to DEAD").
func (s *PedestrianSet) KillByFire(fire *IntGrid) {
	s.Each(func(p *components.Pedestrian) {
		if !p.State.Active() {
			return
		}
		if fire.Get(p.Current) == components.CellFire {
			p.State = components.Dead
			s.deadCnt++
		}
	})
}

// ResetTransientState resets every pedestrian not in GotOut, Leaving, or
// Dead back to Moving, for the next step (spec.md §4.8).
func (s *PedestrianSet) ResetTransientState() {
	s.Each(func(p *components.Pedestrian) {
		switch p.State {
		case components.GotOut, components.Leaving, components.Dead:
			return
		default:
			p.State = components.Moving
		}
	})
}

// StopAllLive transitions every Moving or Stopped pedestrian to Stopped,
// for a caller that has determined no exit can ever be reached again this
// simulation (spec.md §8 Scenario 3: an exit set with every exit blocked
// by fire admits no further progress, so the run must end rather than
// have ResetTransientState cycle these pedestrians back to Moving
// forever).
func (s *PedestrianSet) StopAllLive() {
	s.Each(func(p *components.Pedestrian) {
		if p.State == components.Moving || p.State == components.Stopped {
			p.State = components.Stopped
		}
	})
}

// RebuildPositionGrid rebuilds g from scratch using the current position
// of every non-GotOut, non-Dead pedestrian, and increments heatmap at
// each such cell (spec.md §4.8).
func (s *PedestrianSet) RebuildPositionGrid(g, heatmap *IntGrid) {
	g.Fill(components.CellEmpty)
	s.Each(func(p *components.Pedestrian) {
		if p.State == components.GotOut || p.State == components.Dead {
			return
		}
		g.Set(p.Current, int(p.ID))
		heatmap.Set(p.Current, heatmap.Get(p.Current)+1)
	})
}

// insertionSortUint32 sorts small id slices without pulling in sort's
// interface overhead for a pass run every single step.
func insertionSortUint32(ids []uint32) {
	for i := 1; i < len(ids); i++ {
		v := ids[i]
		j := i - 1
		for j >= 0 && ids[j] > v {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = v
	}
}
