// Package lift implements the three graduality-lifting strategies (static,
// runtime, proxy) over the graded object model, plus the program-level
// composition layer that applies them across interacting classes.
//
// All three strategies funnel through the same grading core in this file,
// which is what makes their results observably equivalent.
package lift

import (
	"github.com/rotisserie/eris"

	"github.com/levelworks/rlistic/internal/graded"
	"github.com/levelworks/rlistic/internal/level"
)

// receiverGrade reads the identity grade off a receiver, defaulting to the
// domain maximum for ungraded receivers.
func receiverGrade(d *level.Domain, recv any) level.Level {
	if g, ok := recv.(graded.Grader); ok {
		if lvl := g.Grade(); lvl != "" {
			return lvl
		}
	}
	return d.Maximum()
}

// unwrapArgs splits arguments into crisp payloads and the grades they carry.
// Graded values unwrap to their payload; graded objects and proxies pass
// through as receivers-to-be but contribute their identity grade; plain
// crisp arguments contribute the maximum (the sequence identity).
func unwrapArgs(d *level.Domain, args []any) ([]any, []level.Level) {
	crisp := make([]any, len(args))
	grades := make([]level.Level, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case graded.Value:
			crisp[i] = a.Crisp
			grades[i] = a.Grade
		case *Proxy:
			crisp[i] = a.Target()
			grades[i] = receiverGrade(d, a)
		default:
			crisp[i] = arg
			grades[i] = receiverGrade(d, arg)
		}
		if grades[i] == "" || !d.Contains(grades[i]) {
			grades[i] = d.Maximum()
		}
	}
	return crisp, grades
}

// splitCallerGrade strips the trailing grade argument mandated by the
// caller-supplied derivation.
func splitCallerGrade(d *level.Domain, member string, args []any) ([]any, level.Level, error) {
	if len(args) == 0 {
		return nil, "", eris.Errorf("lift: %s expects a trailing grade argument", member)
	}
	g, ok := args[len(args)-1].(level.Level)
	if !ok {
		return nil, "", eris.Errorf("lift: %s expects a trailing level.Level, got %T", member, args[len(args)-1])
	}
	if !d.Contains(g) {
		return nil, "", eris.Errorf("lift: caller grade %q for %s is not in the domain", g, member)
	}
	return args[:len(args)-1], g, nil
}

// resultGrade computes the grade of a planned call's result.
func resultGrade(d *level.Domain, member string, rule graded.Rule, recv level.Level, argGrades []level.Level, caller level.Level, crisp any) (level.Level, error) {
	switch rule.Derive {
	case graded.DeriveConstant:
		return rule.Constant, nil
	case graded.DeriveCaller:
		return caller, nil
	case graded.DeriveResult:
		lvl, ok := crisp.(level.Level)
		if !ok {
			return "", eris.Errorf("lift: %s is planned to derive its grade from the result, but returned %T", member, crisp)
		}
		if !d.Contains(lvl) {
			return "", eris.Errorf("lift: %s returned grade %q, which is not in the domain", member, lvl)
		}
		return d.Sequence(d.MeetAll(argGrades...), d.Sequence(recv, lvl)), nil
	default: // DeriveSequence
		return d.Sequence(recv, d.MeetAll(argGrades...)), nil
	}
}

// gradedMethod wraps a crisp method so every invocation unwraps graded
// arguments, delegates to the original implementation, computes the result
// grade per the plan, and returns a graded value.
func gradedMethod(plan *graded.Plan, name string, orig graded.Method) graded.Method {
	rule, _ := plan.Rule(name)
	d := plan.Domain
	return func(self *graded.Object, args ...any) (any, error) {
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
		out, err := orig(self, crisp...)
		if err != nil {
			return nil, eris.Wrapf(err, "lift: call %s", name)
		}
		g, err := resultGrade(d, name, rule, receiverGrade(d, self), argGrades, caller, out)
		if err != nil {
			return nil, err
		}
		return graded.Value{Crisp: out, Grade: g}, nil
	}
}

// gradedAttr grades a planned attribute read. Attribute access has no
// arguments, so the caller-supplied derivation falls back to the
// receiver's identity grade.
func gradedAttr(d *level.Domain, name string, rule graded.Rule, recv level.Level, attr any) (graded.Value, error) {
	switch rule.Derive {
	case graded.DeriveConstant:
		return graded.Value{Crisp: attr, Grade: rule.Constant}, nil
	case graded.DeriveResult:
		lvl, ok := attr.(level.Level)
		if !ok {
			return graded.Value{}, eris.Errorf("lift: attribute %s is planned to derive its grade from its value, but holds %T", name, attr)
		}
		if !d.Contains(lvl) {
			return graded.Value{}, eris.Errorf("lift: attribute %s holds grade %q, which is not in the domain", name, lvl)
		}
		return graded.Value{Crisp: attr, Grade: d.Sequence(recv, lvl)}, nil
	default:
		return graded.Value{Crisp: attr, Grade: recv}, nil
	}
}
