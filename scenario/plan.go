package scenario

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Scenario is one end-to-end workflow. Dependencies between scenarios are
// declared through the fixture keys they require, produce and remove.
type Scenario struct {
	// Order is the default position, used as tie-break between independent scenarios.
	Order       int
	Name        string
	Description string

	Requires []Key
	Produces []Key
	// Removes lists keys whose entities the scenario deletes. It runs after
	// every other scenario requiring them.
	Removes []Key

	Run func(ctx context.Context, env *Env) error
}

var (
	ErrCycle     = errors.New("scenario dependency cycle")
	ErrDuplicate = errors.New("duplicate scenario")
	ErrUnknown   = errors.New("unknown scenario")
)

// MissingProducerError is returned when a required key has no producer.
type MissingProducerError struct {
	Scenario string
	Key      Key
}

func (e *MissingProducerError) Error() string {
	return fmt.Sprintf("scenario %s requires %q which no scenario produces", e.Scenario, e.Key)
}

// Registry holds the scenario catalog.
type Registry struct {
	scenarios []Scenario
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a scenario. Names and orders must be unique.
func (r *Registry) Register(s Scenario) error {
	for _, existing := range r.scenarios {
		if existing.Name == s.Name {
			return fmt.Errorf("%w: name %q", ErrDuplicate, s.Name)
		}
		if existing.Order == s.Order {
			return fmt.Errorf("%w: order %d used by %s and %s", ErrDuplicate, s.Order, existing.Name, s.Name)
		}
	}
	if s.Run == nil {
		return fmt.Errorf("scenario %s has no run function", s.Name)
	}
	r.scenarios = append(r.scenarios, s)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(s Scenario) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Scenarios returns the registered scenarios by order.
func (r *Registry) Scenarios() []Scenario {
	sorted := slices.Clone(r.scenarios)
	slices.SortFunc(sorted, func(a, b Scenario) int { return cmp.Compare(a.Order, b.Order) })
	return sorted
}

// Lookup returns a scenario by name.
func (r *Registry) Lookup(name string) (Scenario, bool) {
	return lo.Find(r.scenarios, func(s Scenario) bool { return s.Name == name })
}

// Plan orders all scenarios so that producers of a key run before scenarios
// requiring it, and removers run after them. Independent scenarios keep their
// declared Order. Keys in available are satisfied without a producer.
func (r *Registry) Plan(available ...Key) ([]Scenario, error) {
	scenarios := r.Scenarios()
	n := len(scenarios)

	producers := make(map[Key][]int)
	consumers := make(map[Key][]int)
	for i, s := range scenarios {
		for _, k := range s.Produces {
			producers[k] = append(producers[k], i)
		}
		for _, k := range s.Requires {
			consumers[k] = append(consumers[k], i)
		}
	}

	edges := make([][]int, n)
	indegree := make([]int, n)
	seen := make(map[[2]int]bool)
	addEdge := func(from, to int) {
		if from == to || seen[[2]int{from, to}] {
			return
		}
		seen[[2]int{from, to}] = true
		edges[from] = append(edges[from], to)
		indegree[to]++
	}

	for i, s := range scenarios {
		for _, k := range s.Requires {
			ps := producers[k]
			if len(ps) == 0 && !slices.Contains(available, k) {
				return nil, &MissingProducerError{Scenario: s.Name, Key: k}
			}
			for _, p := range ps {
				addEdge(p, i)
			}
		}
		for _, k := range s.Removes {
			for _, c := range consumers[k] {
				addEdge(c, i)
			}
		}
	}

	// Kahn's algorithm, always taking the ready scenario with the lowest Order.
	// Scenarios are sorted by Order, so the lowest index is the lowest Order.
	var ready []int
	for i := range scenarios {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	plan := make([]Scenario, 0, n)
	for len(ready) > 0 {
		slices.Sort(ready)
		next := ready[0]
		ready = ready[1:]
		plan = append(plan, scenarios[next])
		for _, to := range edges[next] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(plan) < n {
		var stuck []string
		for i, s := range scenarios {
			if indegree[i] > 0 {
				stuck = append(stuck, s.Name)
			}
		}
		return nil, fmt.Errorf("%w between %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return plan, nil
}

// Select filters a plan to the named scenarios, keeping plan order.
func Select(plan []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return plan, nil
	}
	for _, name := range names {
		if !lo.ContainsBy(plan, func(s Scenario) bool { return s.Name == name }) {
			return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
		}
	}
	return lo.Filter(plan, func(s Scenario, _ int) bool {
		return slices.Contains(names, s.Name)
	}), nil
}
