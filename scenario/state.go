package scenario

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Key names a fixture value shared between scenarios.
type Key string

// State holds fixture values and tracks which fixtures currently exist in the
// application under test. Values are seeded once; scenarios establish keys by
// producing the entity and prune them by deleting it.
type State struct {
	values      map[Key]string
	established map[Key]bool

	mu sync.RWMutex
}

// NewState creates a state seeded with fixture values. Seeded keys are not
// established until a scenario produces them.
func NewState(seed map[Key]string) *State {
	values := make(map[Key]string, len(seed))
	maps.Copy(values, seed)
	return &State{
		values:      values,
		established: make(map[Key]bool),
	}
}

// Value returns the value of a key or "" if unknown.
func (s *State) Value(k Key) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[k]
}

func (s *State) Lookup(k Key) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[k]
	return v, ok
}

// Set records a value discovered at run time and marks it established.
func (s *State) Set(k Key, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[k] = v
	s.established[k] = true
}

// Establish marks keys as existing in the application.
func (s *State) Establish(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.established[k] = true
	}
}

// Established reports whether a key was produced and not removed since.
func (s *State) Established(k Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.established[k]
}

// Prune removes keys whose entities were deleted. The seeded value is
// dropped as well, so later lookups fail instead of using a stale name.
func (s *State) Prune(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
		delete(s.established, k)
	}
}

// Missing returns the keys that are not established.
func (s *State) Missing(keys []Key) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var missing []Key
	for _, k := range keys {
		if !s.established[k] {
			missing = append(missing, k)
		}
	}
	return missing
}

// Snapshot returns a copy of all values.
func (s *State) Snapshot() map[Key]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Keys returns all known keys in sorted order.
func (s *State) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Fixtures is the seed file format.
type Fixtures struct {
	Values map[Key]string `yaml:"values"`
	// Preexisting keys are treated as established, for runs against an
	// application that was prepared by an earlier run.
	Preexisting []Key `yaml:"preexisting"`
	// StrictPermissions fails role creation when a permission checkbox is missing.
	StrictPermissions bool `yaml:"strictPermissions"`
}

// LoadFixtures decodes a YAML fixtures document.
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Fixtures{}, fmt.Errorf("decoding fixtures: %w", err)
	}
	if len(f.Values) == 0 {
		return Fixtures{}, fmt.Errorf("decoding fixtures: no values")
	}
	return f, nil
}

// Merge overlays other on f. Values in other win.
func (f Fixtures) Merge(other Fixtures) Fixtures {
	merged := Fixtures{
		Values:            maps.Clone(f.Values),
		Preexisting:       slices.Concat(f.Preexisting, other.Preexisting),
		StrictPermissions: f.StrictPermissions || other.StrictPermissions,
	}
	if merged.Values == nil {
		merged.Values = make(map[Key]string)
	}
	maps.Copy(merged.Values, other.Values)
	return merged
}

// NewState creates the run state from the fixtures.
func (f Fixtures) NewState() *State {
	s := NewState(f.Values)
	s.Establish(f.Preexisting...)
	return s
}
