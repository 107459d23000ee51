package lift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levelworks/rlistic/internal/graded"
	"github.com/levelworks/rlistic/internal/level"
)

func TestBuildLiftOrder(t *testing.T) {
	d := testDomain(t)
	specs := map[string]ClassSpec{
		"C": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy, DependsOn: []string{"A", "B"}},
		"B": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy, DependsOn: []string{"A"}},
		"A": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy},
	}

	p, err := Build(d, specs)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, p.Order())
	assert.Len(t, p.Descriptors(), 3)
}

func TestBuildOrderIsDeterministic(t *testing.T) {
	d := testDomain(t)
	specs := map[string]ClassSpec{
		"Zeta":  {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy},
		"Alpha": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy},
		"Mid":   {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy},
	}

	// Independent classes come out in name order, every time.
	for i := 0; i < 10; i++ {
		p, err := Build(d, specs)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, p.Order())
	}
}

func TestBuildCycleFails(t *testing.T) {
	d := testDomain(t)
	specs := map[string]ClassSpec{
		"A": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy, DependsOn: []string{"B"}},
		"B": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy, DependsOn: []string{"A"}},
	}

	_, err := Build(d, specs)
	require.ErrorIs(t, err, ErrCyclicDependency)
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

func TestBuildRejectsUnknownDependency(t *testing.T) {
	d := testDomain(t)
	specs := map[string]ClassSpec{
		"A": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy, DependsOn: []string{"Ghost"}},
	}

	_, err := Build(d, specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ghost")
}

func TestBuildRejectsForeignDomainPlan(t *testing.T) {
	d := testDomain(t)
	other, err := level.Chain("no", "yes")
	require.NoError(t, err)

	specs := map[string]ClassSpec{
		"A": {Class: accountClass(), Plan: accountPlan(other), Strategy: StrategyProxy},
	}
	_, err = Build(d, specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different level domain")
}

func TestProgramNewInstanceUnknownClass(t *testing.T) {
	d := testDomain(t)
	p, err := Build(d, map[string]ClassSpec{
		"A": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy},
	})
	require.NoError(t, err)

	_, err = p.NewInstance("Ghost", nil)
	require.Error(t, err)

	_, err = p.NewInstanceWithGrade("A", nil, "elsewhere")
	require.Error(t, err)
}

func TestProgramEvaluateNormalizes(t *testing.T) {
	d := testDomain(t)
	p, err := Build(d, map[string]ClassSpec{
		"A": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy},
	})
	require.NoError(t, err)

	inst, err := p.NewInstanceWithGrade("A", map[string]any{"balance": 1}, "medium")
	require.NoError(t, err)

	// Planned member: graded value passes through.
	v, err := p.Evaluate(Call{Receiver: inst, Method: "Add", Args: []any{2}})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Crisp)
	assert.Equal(t, level.Level("medium"), v.Grade)

	// Unplanned member: crisp result is wrapped at the maximum.
	v, err = p.Evaluate(Call{Receiver: inst, Method: "Plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain", v.Crisp)
	assert.Equal(t, level.Level("high"), v.Grade)

	_, err = p.Evaluate(Call{Method: "Add"})
	require.Error(t, err)
	_, err = p.Evaluate(Call{Receiver: inst})
	require.Error(t, err)
}

// TestStrategiesObservablyEquivalent drives the same plan through all three
// strategies and expects identical graded results.
func TestStrategiesObservablyEquivalent(t *testing.T) {
	d := testDomain(t)

	results := make(map[Strategy]graded.Value, 3)
	for _, strategy := range []Strategy{StrategyStatic, StrategyRuntime, StrategyProxy} {
		p, err := Build(d, map[string]ClassSpec{
			"Account": {Class: accountClass(), Plan: accountPlan(d), Strategy: strategy},
		})
		require.NoError(t, err)

		inst, err := p.NewInstanceWithGrade("Account", map[string]any{"balance": 10}, "medium")
		require.NoError(t, err)

		v, err := p.Evaluate(Call{
			Receiver: inst,
			Method:   "Add",
			Args:     []any{graded.Value{Crisp: 5, Grade: "low"}},
		})
		require.NoError(t, err, strategy.String())
		results[strategy] = v
	}

	assert.Equal(t, results[StrategyStatic], results[StrategyRuntime])
	assert.Equal(t, results[StrategyRuntime], results[StrategyProxy])
	assert.Equal(t, 15, results[StrategyProxy].Crisp)
	assert.Equal(t, level.Level("low"), results[StrategyProxy].Grade)
}

func TestProgramClassLookup(t *testing.T) {
	d := testDomain(t)
	p, err := Build(d, map[string]ClassSpec{
		"Static": {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyStatic},
		"Proxy":  {Class: accountClass(), Plan: accountPlan(d), Strategy: StrategyProxy},
	})
	require.NoError(t, err)

	cls, ok := p.Class("Static")
	require.True(t, ok)
	assert.Equal(t, "GradedAccount", cls.Name())

	cls, ok = p.Class("Proxy")
	require.True(t, ok)
	assert.Equal(t, "Account", cls.Name())

	_, ok = p.Class("Ghost")
	assert.False(t, ok)
}
