package scenario_test

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/networkteam/surveyprobe/scenario"
)

func noop(context.Context, *scenario.Env) error { return nil }

func names(plan []scenario.Scenario) []string {
	return lo.Map(plan, func(s scenario.Scenario, _ int) string { return s.Name })
}

func TestPlan_UsesOrderWhenIndependent(t *testing.T) {
	r := scenario.NewRegistry()
	r.MustRegister(scenario.Scenario{Order: 3, Name: "c", Run: noop})
	r.MustRegister(scenario.Scenario{Order: 1, Name: "a", Run: noop})
	r.MustRegister(scenario.Scenario{Order: 2, Name: "b", Run: noop})

	plan, err := r.Plan()

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(plan))
}

func TestPlan_ProducerRunsBeforeConsumerRegardlessOfOrder(t *testing.T) {
	r := scenario.NewRegistry()
	r.MustRegister(scenario.Scenario{Order: 1, Name: "assign-role", Requires: []scenario.Key{"role"}, Run: noop})
	r.MustRegister(scenario.Scenario{Order: 2, Name: "login", Run: noop})
	r.MustRegister(scenario.Scenario{Order: 3, Name: "create-role", Produces: []scenario.Key{"role"}, Run: noop})

	plan, err := r.Plan()

	require.NoError(t, err)
	assert.Equal(t, []string{"login", "create-role", "assign-role"}, names(plan))
}

func TestPlan_RemoverRunsAfterConsumers(t *testing.T) {
	r := scenario.NewRegistry()
	r.MustRegister(scenario.Scenario{Order: 1, Name: "create", Produces: []scenario.Key{"survey"}, Run: noop})
	r.MustRegister(scenario.Scenario{Order: 2, Name: "delete", Requires: []scenario.Key{"survey"}, Removes: []scenario.Key{"survey"}, Run: noop})
	r.MustRegister(scenario.Scenario{Order: 3, Name: "publish", Requires: []scenario.Key{"survey"}, Run: noop})

	plan, err := r.Plan()

	require.NoError(t, err)
	assert.Equal(t, []string{"create", "publish", "delete"}, names(plan))
}

func TestPlan_Cycle(t *testing.T) {
	r := scenario.NewRegistry()
	r.MustRegister(scenario.Scenario{Order: 1, Name: "a", Requires: []scenario.Key{"y"}, Produces: []scenario.Key{"x"}, Run: noop})
	r.MustRegister(scenario.Scenario{Order: 2, Name: "b", Requires: []scenario.Key{"x"}, Produces: []scenario.Key{"y"}, Run: noop})

	_, err := r.Plan()

	assert.ErrorIs(t, err, scenario.ErrCycle)
	assert.ErrorContains(t, err, "a, b")
}

func TestPlan_MissingProducer(t *testing.T) {
	r := scenario.NewRegistry()
	r.MustRegister(scenario.Scenario{Order: 1, Name: "a", Requires: []scenario.Key{"team"}, Run: noop})

	_, err := r.Plan()
	var missing *scenario.MissingProducerError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, scenario.Key("team"), missing.Key)

	_, err = r.Plan("team")
	assert.NoError(t, err, "preexisting keys need no producer")
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	r := scenario.NewRegistry()
	require.NoError(t, r.Register(scenario.Scenario{Order: 1, Name: "a", Run: noop}))

	assert.ErrorIs(t, r.Register(scenario.Scenario{Order: 2, Name: "a", Run: noop}), scenario.ErrDuplicate)
	assert.ErrorIs(t, r.Register(scenario.Scenario{Order: 1, Name: "b", Run: noop}), scenario.ErrDuplicate)
	assert.Error(t, r.Register(scenario.Scenario{Order: 3, Name: "c"}))
}

func TestSelect(t *testing.T) {
	r := scenario.NewRegistry()
	r.MustRegister(scenario.Scenario{Order: 1, Name: "a", Run: noop})
	r.MustRegister(scenario.Scenario{Order: 2, Name: "b", Run: noop})
	r.MustRegister(scenario.Scenario{Order: 3, Name: "c", Run: noop})
	plan, err := r.Plan()
	require.NoError(t, err)

	selected, err := scenario.Select(plan, []string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(selected), "selection keeps plan order")

	_, err = scenario.Select(plan, []string{"nope"})
	assert.ErrorIs(t, err, scenario.ErrUnknown)

	all, err := scenario.Select(plan, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// Random DAGs: every producer precedes its consumers, and when the declared
// orders already respect the dependencies the plan is exactly the declared order.
func TestPlan_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		consistent := rapid.Bool().Draw(t, "consistent")

		orders := make([]int, n)
		for i := range orders {
			orders[i] = i + 1
		}
		if !consistent {
			orders = rapid.Permutation(orders).Draw(t, "orders")
		}

		type edge struct{ from, to int }
		var edges []edge
		scenarios := make([]scenario.Scenario, n)
		for i := range scenarios {
			scenarios[i] = scenario.Scenario{
				Order:    orders[i],
				Name:     fmt.Sprintf("s%d", i),
				Produces: []scenario.Key{scenario.Key(fmt.Sprintf("k%d", i))},
				Run:      noop,
			}
			for j := 0; j < i; j++ {
				if rapid.Bool().Draw(t, fmt.Sprintf("edge %d->%d", j, i)) {
					scenarios[i].Requires = append(scenarios[i].Requires, scenario.Key(fmt.Sprintf("k%d", j)))
					edges = append(edges, edge{j, i})
				}
			}
		}

		r := scenario.NewRegistry()
		for _, s := range scenarios {
			if err := r.Register(s); err != nil {
				t.Fatal(err)
			}
		}

		plan, err := r.Plan()
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		got := names(plan)
		if len(got) != n {
			t.Fatalf("plan has %d scenarios, want %d", len(got), n)
		}
		for _, e := range edges {
			from := slices.Index(got, fmt.Sprintf("s%d", e.from))
			to := slices.Index(got, fmt.Sprintf("s%d", e.to))
			if from > to {
				t.Fatalf("s%d must run before s%d: %v", e.from, e.to, got)
			}
		}
		if consistent {
			for i, name := range got {
				if name != fmt.Sprintf("s%d", i) {
					t.Fatalf("declared order not kept: %v", got)
				}
			}
		}
	})
}
