// Package graded holds the data model flowing through lifted programs:
// graded values, the explicit crisp class/object model, and grading plans.
package graded

import (
	"fmt"

	"github.com/levelworks/rlistic/internal/level"
)

// Value pairs a crisp payload with the grade attached to it. It is the
// atomic unit every lifted member emits.
type Value struct {
	Crisp any
	Grade level.Level
}

func (v Value) String() string {
	return fmt.Sprintf("%v@%s", v.Crisp, v.Grade)
}

// ValueOf normalizes v into a Value: already-graded values pass through,
// crisp ones are wrapped at the given grade.
func ValueOf(v any, grade level.Level) Value {
	if gv, ok := v.(Value); ok {
		return gv
	}
	return Value{Crisp: v, Grade: grade}
}

// Grader is implemented by receivers and arguments whose identity carries
// a grade. A zero Level means "ungraded" and is treated as the domain
// maximum by the lifters.
type Grader interface {
	Grade() level.Level
}
