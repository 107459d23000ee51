package lift

import (
	"go.uber.org/zap"

	"github.com/levelworks/rlistic/internal/graded"
)

// Strategy names one of the three lifting strategies.
type Strategy int

const (
	StrategyStatic Strategy = iota
	StrategyRuntime
	StrategyProxy
)

func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "static"
	case StrategyRuntime:
		return "runtime"
	case StrategyProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

// Descriptor records one class lift: which members are graded, the
// strategy used, and a back-reference to the crisp class. Immutable;
// re-lifting produces a new descriptor.
type Descriptor struct {
	ClassName string
	Strategy  Strategy
	Members   []string
	Source    *graded.Class
}

// Static produces a brand-new graded class from a crisp class. Planned
// methods are wrapped to unwrap arguments, delegate to the original
// implementation, grade the result, and return a graded value; unplanned
// members carry over unchanged. The crisp class is never modified, so
// multiple lifted variants of it can coexist.
func Static(class *graded.Class, plan *graded.Plan) (*graded.Class, Descriptor, error) {
	if err := plan.Validate(class); err != nil {
		return nil, Descriptor{}, err
	}

	table := class.Table().Clone()
	for _, name := range plan.MemberNames() {
		orig, ok := table.Lookup(name)
		if !ok {
			// Planned field, not a method: graded reads are the proxy
			// strategy's concern, nothing to wrap here.
			continue
		}
		table.Swap(name, gradedMethod(plan, name, orig))
	}

	lifted := graded.NewClass("Graded"+class.Name(), table, class.Fields()...)
	desc := Descriptor{
		ClassName: class.Name(),
		Strategy:  StrategyStatic,
		Members:   plan.MemberNames(),
		Source:    class,
	}
	zap.L().Debug("lift: static",
		zap.String("class", class.Name()),
		zap.Strings("members", desc.Members),
	)
	return lifted, desc, nil
}
