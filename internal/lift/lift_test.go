package lift

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/levelworks/rlistic/internal/graded"
	"github.com/levelworks/rlistic/internal/level"
)

func testDomain(t *testing.T) *level.Domain {
	t.Helper()
	d, err := level.Chain("low", "medium", "high")
	require.NoError(t, err)
	return d
}

// accountClass is the shared crisp fixture: one method per derivation plus
// an unplanned one.
func accountClass() *graded.Class {
	table := graded.NewMethodTable()
	table.Define("Add", func(self *graded.Object, args ...any) (any, error) {
		current, err := self.GetMember("balance")
		if err != nil {
			return nil, err
		}
		n, _ := current.(int)
		x, _ := args[0].(int)
		return n + x, nil
	})
	table.Define("Rate", func(self *graded.Object, args ...any) (any, error) {
		return 42, nil
	})
	table.Define("Audit", func(self *graded.Object, args ...any) (any, error) {
		return "audited", nil
	})
	table.Define("Trust", func(self *graded.Object, args ...any) (any, error) {
		return level.Level("medium"), nil
	})
	table.Define("Plain", func(self *graded.Object, args ...any) (any, error) {
		return "plain", nil
	})
	return graded.NewClass("Account", table, "balance")
}

func accountPlan(d *level.Domain) *graded.Plan {
	return graded.NewPlan(d, map[string]graded.Rule{
		"Add":   {Derive: graded.DeriveSequence},
		"Rate":  {Derive: graded.DeriveConstant, Constant: "medium"},
		"Audit": {Derive: graded.DeriveCaller},
		"Trust": {Derive: graded.DeriveResult},
	})
}
