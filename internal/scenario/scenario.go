// Package scenario loads declarative grouping scenarios: a level domain,
// entities with optional identity grades, a pairwise compatibility table,
// and a selection policy. A loaded scenario carries everything a graded
// search needs: the lifted program, the evaluator, and the generator.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/levelworks/rlistic/internal/graded"
	"github.com/levelworks/rlistic/internal/level"
	"github.com/levelworks/rlistic/internal/lift"
	"github.com/levelworks/rlistic/internal/model"
	"github.com/levelworks/rlistic/internal/search"
)

// memberClass is the crisp class scenarios instantiate per entity.
const memberClass = "Member"

// compatMethod is the planned pairwise method driving group scores.
const compatMethod = "CompatibleWith"

// File is the on-disk scenario shape.
type File struct {
	Name     string `yaml:"name"`
	Strategy string `yaml:"strategy"`
	Domain   struct {
		Levels []string `yaml:"levels"`
	} `yaml:"domain"`
	Entities []struct {
		Name  string `yaml:"name"`
		Grade string `yaml:"grade"`
	} `yaml:"entities"`
	Compatibility struct {
		Default string `yaml:"default"`
		Pairs   []struct {
			A     string `yaml:"a"`
			B     string `yaml:"b"`
			Grade string `yaml:"grade"`
		} `yaml:"pairs"`
	} `yaml:"compatibility"`
	Groups struct {
		MinSize int `yaml:"min_size"`
		MaxSize int `yaml:"max_size"`
	} `yaml:"groups"`
	Policy struct {
		Kind      string `yaml:"kind"`
		K         int    `yaml:"k"`
		Threshold string `yaml:"threshold"`
	} `yaml:"policy"`
}

// Scenario is a fully wired grouping problem.
type Scenario struct {
	Name      string
	Domain    *level.Domain
	Program   *lift.Program
	Evaluator *search.GroupEvaluator
	Policy    search.Policy
	Entities  []string

	minSize int
	maxSize int
}

// Generator returns a fresh partition generator over the scenario's
// entities; each search run needs its own.
func (s *Scenario) Generator() search.Generator {
	return search.Partitions(s.Entities, s.minSize, s.maxSize)
}

// PolicyString renders the policy for run records.
func (s *Scenario) PolicyString() string {
	if s.Policy.Kind == search.Threshold {
		return fmt.Sprintf("threshold:%s", s.Policy.Threshold)
	}
	return fmt.Sprintf("top:%d", s.Policy.K)
}

// Load reads and wires a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read %s", path)
	}
	return Parse(data)
}

// Parse wires a scenario from its YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "scenario: parse yaml")
	}

	if len(f.Domain.Levels) == 0 {
		return nil, eris.New("scenario: domain.levels is required")
	}
	labels := make([]level.Level, len(f.Domain.Levels))
	for i, l := range f.Domain.Levels {
		labels[i] = level.Level(l)
	}
	domain, err := level.Chain(labels...)
	if err != nil {
		return nil, err
	}

	if len(f.Entities) == 0 {
		return nil, eris.New("scenario: at least one entity is required")
	}
	names := make([]string, 0, len(f.Entities))
	seen := make(map[string]bool, len(f.Entities))
	for _, e := range f.Entities {
		if e.Name == "" {
			return nil, eris.New("scenario: entity without a name")
		}
		if seen[e.Name] {
			return nil, eris.Errorf("scenario: duplicate entity %q", e.Name)
		}
		seen[e.Name] = true
		names = append(names, e.Name)
	}

	compat, err := compatTable(domain, &f, seen)
	if err != nil {
		return nil, err
	}

	class := memberClassDef(compat)
	plan := graded.NewPlan(domain, map[string]graded.Rule{
		compatMethod: {Derive: graded.DeriveResult},
	})
	strategy, err := parseStrategy(f.Strategy)
	if err != nil {
		return nil, err
	}

	prog, err := lift.Build(domain, map[string]lift.ClassSpec{
		memberClass: {Class: class, Plan: plan, Strategy: strategy},
	})
	if err != nil {
		return nil, err
	}

	members := make(map[string]graded.Proxyable, len(f.Entities))
	for _, e := range f.Entities {
		grade := level.Level(e.Grade)
		if e.Grade != "" && !domain.Contains(grade) {
			return nil, eris.Errorf("scenario: entity %q has unknown grade %q", e.Name, e.Grade)
		}
		inst, err := prog.NewInstanceWithGrade(memberClass, map[string]any{"name": e.Name}, grade)
		if err != nil {
			return nil, err
		}
		members[e.Name] = inst
	}

	policy, err := parsePolicy(domain, &f)
	if err != nil {
		return nil, err
	}

	name := f.Name
	if name == "" {
		name = "unnamed"
	}
	return &Scenario{
		Name:      name,
		Domain:    domain,
		Program:   prog,
		Evaluator: search.NewGroupEvaluator(prog, compatMethod, members),
		Policy:    policy,
		Entities:  names,
		minSize:   f.Groups.MinSize,
		maxSize:   f.Groups.MaxSize,
	}, nil
}

// compatTable builds the symmetric pair-to-grade lookup. Pairs not listed
// fall back to the default grade, or the domain minimum when none is set.
func compatTable(d *level.Domain, f *File, entities map[string]bool) (func(a, b string) level.Level, error) {
	fallback := d.Minimum()
	if f.Compatibility.Default != "" {
		fallback = level.Level(f.Compatibility.Default)
		if !d.Contains(fallback) {
			return nil, eris.Errorf("scenario: unknown default grade %q", f.Compatibility.Default)
		}
	}

	table := make(map[string]level.Level, len(f.Compatibility.Pairs))
	for _, p := range f.Compatibility.Pairs {
		if !entities[p.A] || !entities[p.B] {
			return nil, eris.Errorf("scenario: compatibility pair (%s, %s) references an unknown entity", p.A, p.B)
		}
		grade := level.Level(p.Grade)
		if !d.Contains(grade) {
			return nil, eris.Errorf("scenario: pair (%s, %s) has unknown grade %q", p.A, p.B, p.Grade)
		}
		table[pairKey(p.A, p.B)] = grade
	}

	return func(a, b string) level.Level {
		if g, ok := table[pairKey(a, b)]; ok {
			return g
		}
		return fallback
	}, nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// memberClassDef defines the crisp entity class: a name field and the
// pairwise compatibility method, which computes the compatibility grade
// as its crisp result.
func memberClassDef(compat func(a, b string) level.Level) *graded.Class {
	table := graded.NewMethodTable()
	table.Define(compatMethod, func(self *graded.Object, args ...any) (any, error) {
		if len(args) != 1 {
			return nil, eris.Errorf("%s expects one argument", compatMethod)
		}
		other, ok := args[0].(*graded.Object)
		if !ok {
			return nil, eris.Errorf("%s expects a member, got %T", compatMethod, args[0])
		}
		a, err := self.GetMember("name")
		if err != nil {
			return nil, err
		}
		b, err := other.GetMember("name")
		if err != nil {
			return nil, err
		}
		return compat(a.(string), b.(string)), nil
	})
	table.Define("Name", func(self *graded.Object, args ...any) (any, error) {
		return self.GetMember("name")
	})
	return graded.NewClass(memberClass, table, "name")
}

func parseStrategy(s string) (lift.Strategy, error) {
	switch strings.ToLower(s) {
	case "", "proxy":
		return lift.StrategyProxy, nil
	case "static":
		return lift.StrategyStatic, nil
	case "runtime":
		return lift.StrategyRuntime, nil
	default:
		return 0, eris.Errorf("scenario: unknown strategy %q", s)
	}
}

func parsePolicy(d *level.Domain, f *File) (search.Policy, error) {
	switch strings.ToLower(f.Policy.Kind) {
	case "", "top":
		k := f.Policy.K
		if k <= 0 {
			k = 1
		}
		return search.Policy{Kind: search.TopK, K: k}, nil
	case "threshold":
		thr := level.Level(f.Policy.Threshold)
		if !d.Contains(thr) {
			return search.Policy{}, eris.Errorf("scenario: unknown threshold grade %q", f.Policy.Threshold)
		}
		return search.Policy{Kind: search.Threshold, Threshold: thr}, nil
	default:
		return search.Policy{}, eris.Errorf("scenario: unknown policy kind %q", f.Policy.Kind)
	}
}

// Results flattens ranked search output into persistable records.
func Results(ranked []search.Ranked) []model.RankedResult {
	out := make([]model.RankedResult, len(ranked))
	for i, r := range ranked {
		g, _ := r.Candidate.(search.Grouping)
		out[i] = model.RankedResult{
			Rank:   i + 1,
			Groups: g.Groups,
			Grade:  string(r.Grade),
		}
	}
	return out
}
