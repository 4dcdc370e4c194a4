package runner

import (
	"fmt"
	"sort"
)

// EntityState holds the per-entity phase flags the runner consults to skip
// entities in later phases.
type EntityState struct {
	Exported    bool
	Cleared     bool
	NoOpenItems bool
}

// States tracks the phase flags of every entity in a run. The key set is
// fixed when the rules are loaded: touching an unknown entity is a
// programming error and panics rather than failing softly.
type States struct {
	m map[string]*EntityState
}

// NewStates creates a tracker with all flags false for the given entities.
func NewStates(entities []string) *States {
	s := &States{m: make(map[string]*EntityState, len(entities))}
	for _, e := range entities {
		s.m[e] = &EntityState{}
	}
	return s
}

func (s *States) get(entity string) *EntityState {
	st, ok := s.m[entity]
	if !ok {
		panic(fmt.Sprintf("runner: entity %q not in state tracker", entity))
	}
	return st
}

// Get returns a copy of an entity's current state.
func (s *States) Get(entity string) EntityState {
	return *s.get(entity)
}

// SetExported records the outcome of the export phase.
func (s *States) SetExported(entity string, v bool) {
	s.get(entity).Exported = v
}

// SetCleared records the outcome of the clearing phase.
func (s *States) SetCleared(entity string, v bool) {
	s.get(entity).Cleared = v
}

// SetNoOpenItems records that the export found nothing to reconcile.
func (s *States) SetNoOpenItems(entity string, v bool) {
	s.get(entity).NoOpenItems = v
}

// Entities returns the tracked entity codes in stable order.
func (s *States) Entities() []string {
	codes := make([]string, 0, len(s.m))
	for e := range s.m {
		codes = append(codes, e)
	}
	sort.Strings(codes)
	return codes
}
