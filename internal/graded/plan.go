package graded

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/levelworks/rlistic/internal/level"
)

// Derivation selects how a planned member's result grade is computed.
type Derivation int

const (
	// DeriveSequence folds the receiver's identity grade and every graded
	// argument's grade with Sequence. The default.
	DeriveSequence Derivation = iota
	// DeriveConstant grades every result with the rule's Constant.
	DeriveConstant
	// DeriveCaller takes the grade from the call site: the caller appends
	// it as the final argument and the wrapper strips it before delegating.
	DeriveCaller
	// DeriveResult reads the grade off the crisp result itself, which must
	// be a level.Level; it is then sequenced with receiver and argument
	// grades. Used when the crisp computation is the judgment.
	DeriveResult
)

func (d Derivation) String() string {
	switch d {
	case DeriveSequence:
		return "sequence"
	case DeriveConstant:
		return "constant"
	case DeriveCaller:
		return "caller"
	case DeriveResult:
		return "result"
	default:
		return "unknown"
	}
}

// Rule is the grading rule for one planned member.
type Rule struct {
	Derive   Derivation
	Constant level.Level
}

// Plan maps member names to grading rules within one level domain. A nil
// entry set leaves every member unplanned (pure pass-through lift).
type Plan struct {
	Domain  *level.Domain
	Members map[string]Rule
}

// NewPlan builds a plan over the given domain.
func NewPlan(d *level.Domain, members map[string]Rule) *Plan {
	return &Plan{Domain: d, Members: members}
}

// Rule returns the grading rule for a member and whether one is planned.
func (p *Plan) Rule(name string) (Rule, bool) {
	r, ok := p.Members[name]
	return r, ok
}

// MemberNames returns the planned member names, sorted.
func (p *Plan) MemberNames() []string {
	out := make([]string, 0, len(p.Members))
	for name := range p.Members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks the plan against a class before any lift applies it:
// every planned member must be defined by the class, and every constant
// grade must belong to the plan's domain. Lifters call this first so a bad
// plan never partially applies.
func (p *Plan) Validate(c *Class) error {
	if p.Domain == nil {
		return eris.New("graded: plan has no level domain")
	}
	for _, name := range p.MemberNames() {
		if !c.Defines(name) {
			return eris.Wrapf(ErrUnknownMember, "plan names %q, which class %s does not define", name, c.Name())
		}
		rule := p.Members[name]
		if rule.Derive == DeriveConstant && !p.Domain.Contains(rule.Constant) {
			return eris.Errorf("graded: constant grade %q for member %q is not in the domain", rule.Constant, name)
		}
	}
	return nil
}
