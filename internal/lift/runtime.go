package lift

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/levelworks/rlistic/internal/graded"
)

// ErrNotLifted reports a restore attempt against a target this lifter has
// not lifted (or has already restored).
var ErrNotLifted = eris.New("lift: target not lifted")

// Runtime rewrites method tables in place so every existing and future
// instance of the target observes graded behavior. It snapshots original
// tables so lifts can be undone. Callers must serialize access during a
// lift; the lifter assumes it is the only writer.
type Runtime struct {
	classes map[*graded.Class]*graded.MethodTable
	objects map[*graded.Object]*graded.MethodTable
}

// NewRuntime returns a lifter with empty restore records.
func NewRuntime() *Runtime {
	return &Runtime{
		classes: make(map[*graded.Class]*graded.MethodTable),
		objects: make(map[*graded.Object]*graded.MethodTable),
	}
}

// LiftClass swaps every planned method on the class's live table for a
// graded wrapper that closes over the original implementation, so
// re-entrant calls still reach the original logic. The whole plan is
// validated before the first swap: a bad plan mutates nothing.
func (r *Runtime) LiftClass(class *graded.Class, plan *graded.Plan) (Descriptor, error) {
	if err := plan.Validate(class); err != nil {
		return Descriptor{}, err
	}

	table := class.Table()
	if _, lifted := r.classes[class]; !lifted {
		// First lift wins the snapshot; restore always returns to the
		// true original.
		r.classes[class] = table.Clone()
	}
	swapPlanned(table, plan)

	desc := Descriptor{
		ClassName: class.Name(),
		Strategy:  StrategyRuntime,
		Members:   plan.MemberNames(),
		Source:    class,
	}
	zap.L().Debug("lift: runtime class",
		zap.String("class", class.Name()),
		zap.Strings("members", desc.Members),
	)
	return desc, nil
}

// LiftObject installs a graded per-object method table on a single live
// object, leaving its class and every other instance untouched.
func (r *Runtime) LiftObject(obj *graded.Object, plan *graded.Plan) (Descriptor, error) {
	if err := plan.Validate(obj.Class()); err != nil {
		return Descriptor{}, err
	}

	if _, lifted := r.objects[obj]; !lifted {
		r.objects[obj] = obj.Override()
	}
	table := obj.Class().Table().Clone()
	if prev := obj.Override(); prev != nil {
		table = prev.Clone()
	}
	swapPlanned(table, plan)
	obj.SetOverride(table)

	desc := Descriptor{
		ClassName: obj.ClassName(),
		Strategy:  StrategyRuntime,
		Members:   plan.MemberNames(),
		Source:    obj.Class(),
	}
	zap.L().Debug("lift: runtime object",
		zap.String("class", obj.ClassName()),
		zap.Strings("members", desc.Members),
	)
	return desc, nil
}

// RestoreClass puts the class's original method table back, in place.
// A second restore of the same class fails with ErrNotLifted.
func (r *Runtime) RestoreClass(class *graded.Class) error {
	snapshot, ok := r.classes[class]
	if !ok {
		return eris.Wrapf(ErrNotLifted, "class %s", class.Name())
	}
	class.Table().CopyFrom(snapshot)
	delete(r.classes, class)
	zap.L().Debug("lift: restored class", zap.String("class", class.Name()))
	return nil
}

// RestoreObject removes the per-object table installed by LiftObject,
// returning the object to whatever override state it had before.
func (r *Runtime) RestoreObject(obj *graded.Object) error {
	snapshot, ok := r.objects[obj]
	if !ok {
		return eris.Wrapf(ErrNotLifted, "object of class %s", obj.ClassName())
	}
	obj.SetOverride(snapshot)
	delete(r.objects, obj)
	zap.L().Debug("lift: restored object", zap.String("class", obj.ClassName()))
	return nil
}

// swapPlanned replaces every planned method on the table. Planned fields
// have no table entry and are skipped.
func swapPlanned(table *graded.MethodTable, plan *graded.Plan) {
	for _, name := range plan.MemberNames() {
		orig, ok := table.Lookup(name)
		if !ok {
			continue
		}
		table.Swap(name, gradedMethod(plan, name, orig))
	}
}
