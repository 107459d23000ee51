package search

import (
	"github.com/rotisserie/eris"

	"github.com/levelworks/rlistic/internal/graded"
	"github.com/levelworks/rlistic/internal/level"
	"github.com/levelworks/rlistic/internal/lift"
)

// GroupEvaluator scores candidate groupings through a graded program: each
// group's grade is the meet of the graded pairwise interactions between
// its members, singleton groups sit at the domain maximum (nothing to
// violate), and the grouping's aggregate is the meet across groups.
type GroupEvaluator struct {
	prog    *lift.Program
	method  string
	members map[string]graded.Proxyable
}

// NewGroupEvaluator builds an evaluator that invokes the named pairwise
// method on graded member instances.
func NewGroupEvaluator(prog *lift.Program, method string, members map[string]graded.Proxyable) *GroupEvaluator {
	return &GroupEvaluator{prog: prog, method: method, members: members}
}

// Score implements Evaluator for Grouping candidates.
func (e *GroupEvaluator) Score(c Candidate) (level.Level, error) {
	g, ok := c.(Grouping)
	if !ok {
		return "", eris.Errorf("search: group evaluator expects a Grouping, got %T", c)
	}
	d := e.prog.Domain()

	total := d.Maximum()
	for _, group := range g.Groups {
		grade, err := e.groupGrade(d, group)
		if err != nil {
			return "", err
		}
		total = d.Meet(total, grade)
	}
	return total, nil
}

func (e *GroupEvaluator) groupGrade(d *level.Domain, group []string) (level.Level, error) {
	if len(group) == 1 {
		return d.Maximum(), nil
	}
	grade := d.Maximum()
	for i := 0; i < len(group); i++ {
		a, ok := e.members[group[i]]
		if !ok {
			return "", eris.Errorf("search: unknown entity %q", group[i])
		}
		for j := i + 1; j < len(group); j++ {
			b, ok := e.members[group[j]]
			if !ok {
				return "", eris.Errorf("search: unknown entity %q", group[j])
			}
			v, err := e.prog.Evaluate(lift.Call{Receiver: a, Method: e.method, Args: []any{b}})
			if err != nil {
				return "", eris.Wrapf(err, "search: evaluate pair %q, %q", group[i], group[j])
			}
			grade = d.Meet(grade, v.Grade)
		}
	}
	return grade, nil
}
