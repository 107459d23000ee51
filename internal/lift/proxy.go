package lift

import (
	"github.com/rotisserie/eris"

	"github.com/levelworks/rlistic/internal/graded"
	"github.com/levelworks/rlistic/internal/level"
)

// PlanResolver maps a class name to the grading plan that should govern
// objects of that class when the proxy lifter wraps them recursively. A
// nil resolver (or a nil result) falls back to the parent proxy's plan.
type PlanResolver func(className string) *graded.Plan

// Proxy is a non-mutating delegate over a crisp object. Planned member
// access goes through the unwrap-call-grade-wrap sequence; unplanned
// access forwards to the target unchanged, with object-like results
// wrapped recursively so graduality propagates through member chains.
// Neither the target nor its class is ever modified, and independent
// proxies over the same object do not interfere.
type Proxy struct {
	target  graded.Proxyable
	plan    *graded.Plan
	resolve PlanResolver
}

// Wrap builds a proxy over target governed by plan.
func Wrap(target graded.Proxyable, plan *graded.Plan) *Proxy {
	return &Proxy{target: target, plan: plan}
}

// WrapResolved builds a proxy that consults resolve when wrapping objects
// returned from forwarded calls, so a chain crossing into another class
// picks up that class's plan. The program lifter wraps with this.
func WrapResolved(target graded.Proxyable, plan *graded.Plan, resolve PlanResolver) *Proxy {
	return &Proxy{target: target, plan: plan, resolve: resolve}
}

// Target returns the wrapped crisp object.
func (p *Proxy) Target() graded.Proxyable { return p.target }

// ClassName implements Proxyable by reporting the target's class.
func (p *Proxy) ClassName() string { return p.target.ClassName() }

// Grade surfaces the target's identity grade so proxies compose with
// grade-aware callers the same way bare objects do.
func (p *Proxy) Grade() level.Level {
	if g, ok := p.target.(graded.Grader); ok {
		return g.Grade()
	}
	return ""
}

// Invoke intercepts a method call. Planned methods are graded; unplanned
// ones forward unchanged and have their results inspected for rewrapping.
func (p *Proxy) Invoke(name string, args ...any) (any, error) {
	rule, planned := p.plan.Rule(name)
	if !planned {
		out, err := p.target.Invoke(name, args...)
		if err != nil {
			return nil, err
		}
		return p.intercept(out).value, nil
	}

	d := p.plan.Domain
	callArgs := args
	var caller level.Level
	if rule.Derive == graded.DeriveCaller {
		var err error
		callArgs, caller, err = splitCallerGrade(d, name, args)
		if err != nil {
			return nil, err
		}
	}
	crisp, argGrades := unwrapArgs(d, callArgs)
	out, err := p.target.Invoke(name, crisp...)
	if err != nil {
		return nil, eris.Wrapf(err, "lift: call %s", name)
	}
	g, err := resultGrade(d, name, rule, receiverGrade(d, p.target), argGrades, caller, out)
	if err != nil {
		return nil, err
	}
	return graded.Value{Crisp: out, Grade: g}, nil
}

// GetMember intercepts attribute access. Planned members come back graded;
// unplanned ones forward exactly as the target would answer, except that
// object-like values are wrapped recursively.
func (p *Proxy) GetMember(name string) (any, error) {
	attr, err := p.target.GetMember(name)
	if err != nil {
		return nil, err
	}
	rule, planned := p.plan.Rule(name)
	if !planned {
		return p.intercept(attr).value, nil
	}
	v, err := gradedAttr(p.plan.Domain, name, rule, receiverGrade(p.plan.Domain, p.target), attr)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// interceptKind tags the outcome of inspecting a forwarded result: either
// it passes through plainly or it requires a proxy of its own.
type interceptKind int

const (
	plainResult interceptKind = iota
	requiresProxy
)

type interception struct {
	kind  interceptKind
	value any
}

// intercept decides whether a forwarded result needs recursive wrapping.
// The decision is an explicit branch on the Proxyable capability, not
// implicit type inspection scattered through the call sites.
func (p *Proxy) intercept(v any) interception {
	child, ok := v.(graded.Proxyable)
	if !ok {
		return interception{kind: plainResult, value: v}
	}
	plan := p.plan
	if p.resolve != nil {
		if resolved := p.resolve(child.ClassName()); resolved != nil {
			plan = resolved
		}
	}
	return interception{kind: requiresProxy, value: WrapResolved(child, plan, p.resolve)}
}

var _ graded.Proxyable = (*Proxy)(nil)
var _ graded.Grader = (*Proxy)(nil)
