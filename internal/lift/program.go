package lift

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/levelworks/rlistic/internal/graded"
	"github.com/levelworks/rlistic/internal/level"
)

// ErrCyclicDependency reports that the declared class dependencies admit
// no lifting order. The message names the offending cycle.
var ErrCyclicDependency = eris.New("lift: cyclic dependency")

// ClassSpec declares one crisp class inside a program lift: its plan, the
// strategy to lift it with, and the classes its grading depends on.
type ClassSpec struct {
	Class     *graded.Class
	Plan      *graded.Plan
	Strategy  Strategy
	DependsOn []string
}

// Program is the graded program handle produced by Build. It routes
// instance construction and evaluation through the lifted classes; the
// shape of the values it returns is identical regardless of which strategy
// lifted the class involved.
type Program struct {
	domain      *level.Domain
	specs       map[string]ClassSpec
	lifted      map[string]*graded.Class
	order       []string
	descriptors []Descriptor
	runtime     *Runtime
}

// Build lifts the given classes in dependency order using the strategy
// each spec requests. Every plan must be drawn over the program's domain.
func Build(domain *level.Domain, specs map[string]ClassSpec) (*Program, error) {
	if domain == nil {
		return nil, eris.New("lift: program requires a level domain")
	}
	for name, spec := range specs {
		if spec.Class == nil || spec.Plan == nil {
			return nil, eris.Errorf("lift: class %q is missing its class or plan", name)
		}
		if spec.Plan.Domain != domain {
			return nil, eris.Errorf("lift: class %q plan uses a different level domain", name)
		}
		for _, dep := range spec.DependsOn {
			if _, ok := specs[dep]; !ok {
				return nil, eris.Errorf("lift: class %q depends on unknown class %q", name, dep)
			}
		}
	}

	order, err := liftOrder(specs)
	if err != nil {
		return nil, err
	}

	p := &Program{
		domain:  domain,
		specs:   specs,
		lifted:  make(map[string]*graded.Class, len(specs)),
		order:   order,
		runtime: NewRuntime(),
	}

	for _, name := range order {
		spec := specs[name]
		switch spec.Strategy {
		case StrategyStatic:
			cls, desc, err := Static(spec.Class, spec.Plan)
			if err != nil {
				return nil, err
			}
			p.lifted[name] = cls
			p.descriptors = append(p.descriptors, desc)
		case StrategyRuntime:
			desc, err := p.runtime.LiftClass(spec.Class, spec.Plan)
			if err != nil {
				return nil, err
			}
			p.lifted[name] = spec.Class
			p.descriptors = append(p.descriptors, desc)
		case StrategyProxy:
			// Nothing mutates at build time; instances are wrapped on
			// construction. Validate now so a bad plan fails the build.
			if err := spec.Plan.Validate(spec.Class); err != nil {
				return nil, err
			}
			p.lifted[name] = spec.Class
			p.descriptors = append(p.descriptors, Descriptor{
				ClassName: spec.Class.Name(),
				Strategy:  StrategyProxy,
				Members:   spec.Plan.MemberNames(),
				Source:    spec.Class,
			})
		default:
			return nil, eris.Errorf("lift: class %q requests unknown strategy %d", name, spec.Strategy)
		}
	}

	zap.L().Info("lift: program built",
		zap.Int("classes", len(specs)),
		zap.Strings("order", order),
	)
	return p, nil
}

// liftOrder runs Kahn's algorithm over the declared dependencies,
// visiting ready classes in name order for determinism.
func liftOrder(specs map[string]ClassSpec) ([]string, error) {
	indegree := make(map[string]int, len(specs))
	dependents := make(map[string][]string, len(specs))
	for name, spec := range specs {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for _, dep := range spec.DependsOn {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(specs))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		next := append([]string(nil), dependents[name]...)
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
	}

	if len(order) != len(specs) {
		var cycle []string
		for name, deg := range indegree {
			if deg > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, eris.Wrapf(ErrCyclicDependency, "among %v", cycle)
	}
	return order, nil
}

// Domain returns the program's level domain.
func (p *Program) Domain() *level.Domain { return p.domain }

// Order returns the class names in the order they were lifted.
func (p *Program) Order() []string { return append([]string(nil), p.order...) }

// Descriptors returns the lift records, one per class, in lift order.
func (p *Program) Descriptors() []Descriptor {
	return append([]Descriptor(nil), p.descriptors...)
}

// Class returns the class instances of name are built from: the generated
// graded class for the static strategy, the (mutated) original otherwise.
func (p *Program) Class(name string) (*graded.Class, bool) {
	c, ok := p.lifted[name]
	return c, ok
}

// planFor resolves a class name to its plan, for recursive proxy wrapping.
func (p *Program) planFor(className string) *graded.Plan {
	for name, spec := range p.specs {
		if spec.Class.Name() == className || name == className {
			return spec.Plan
		}
	}
	return nil
}

// NewInstance constructs a graded instance of the named class: a plain
// instance for static and runtime strategies (their tables already grade),
// a wrapped proxy for the proxy strategy.
func (p *Program) NewInstance(className string, attrs map[string]any) (graded.Proxyable, error) {
	return p.NewInstanceWithGrade(className, attrs, "")
}

// NewInstanceWithGrade additionally attaches an identity grade to the
// underlying object before any wrapping.
func (p *Program) NewInstanceWithGrade(className string, attrs map[string]any, grade level.Level) (graded.Proxyable, error) {
	spec, ok := p.specs[className]
	if !ok {
		return nil, eris.Errorf("lift: program has no class %q", className)
	}
	if grade != "" && !p.domain.Contains(grade) {
		return nil, eris.Errorf("lift: identity grade %q is not in the domain", grade)
	}

	cls := p.lifted[className]
	obj, err := cls.New(attrs)
	if err != nil {
		return nil, err
	}
	if grade != "" {
		obj.SetGrade(grade)
	}
	if spec.Strategy == StrategyProxy {
		return WrapResolved(obj, spec.Plan, p.planFor), nil
	}
	return obj, nil
}

// Call names one graded invocation routed through the program.
type Call struct {
	Receiver graded.Proxyable
	Method   string
	Args     []any
}

// Evaluate runs a call through the lifted program and normalizes the
// result into a graded value: already-graded results pass through, crisp
// ones (from unplanned members) are wrapped at the domain maximum.
func (p *Program) Evaluate(call Call) (graded.Value, error) {
	if call.Receiver == nil {
		return graded.Value{}, eris.New("lift: evaluate requires a receiver")
	}
	if call.Method == "" {
		return graded.Value{}, eris.New("lift: evaluate requires a method name")
	}
	out, err := call.Receiver.Invoke(call.Method, call.Args...)
	if err != nil {
		return graded.Value{}, eris.Wrapf(err, "lift: evaluate %s.%s", call.Receiver.ClassName(), call.Method)
	}
	return graded.ValueOf(out, p.domain.Maximum()), nil
}
