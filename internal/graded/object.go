package graded

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/levelworks/rlistic/internal/level"
)

// ErrUnknownMember reports access to a member the class does not define.
var ErrUnknownMember = eris.New("graded: unknown member")

// Method is a crisp method implementation. Arguments and result are crisp
// payloads; lifted wrappers handle grading around the call.
type Method func(self *Object, args ...any) (any, error)

// MethodTable is the explicit dispatch table owned by a class. It is the
// only mutable shared state in the system; Swap and CopyFrom are the
// documented mutation points the runtime lifter goes through.
type MethodTable struct {
	methods map[string]Method
}

// NewMethodTable returns an empty table.
func NewMethodTable() *MethodTable {
	return &MethodTable{methods: make(map[string]Method)}
}

// Define adds or replaces an entry and returns the table for chaining.
func (t *MethodTable) Define(name string, m Method) *MethodTable {
	t.methods[name] = m
	return t
}

// Lookup returns the entry for name.
func (t *MethodTable) Lookup(name string) (Method, bool) {
	m, ok := t.methods[name]
	return m, ok
}

// Names returns all entry names, sorted.
func (t *MethodTable) Names() []string {
	out := make([]string, 0, len(t.methods))
	for name := range t.methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the table.
func (t *MethodTable) Clone() *MethodTable {
	out := NewMethodTable()
	for name, m := range t.methods {
		out.methods[name] = m
	}
	return out
}

// Swap replaces a single entry atomically and returns the previous
// implementation. The entry must already exist: a swap never grows the
// table, it only replaces behavior.
func (t *MethodTable) Swap(name string, m Method) (Method, bool) {
	prev, ok := t.methods[name]
	if !ok {
		return nil, false
	}
	t.methods[name] = m
	return prev, true
}

// CopyFrom replaces the table's contents with those of src, in place, so
// every holder of the table pointer observes the restored state.
func (t *MethodTable) CopyFrom(src *MethodTable) {
	t.methods = make(map[string]Method, len(src.methods))
	for name, m := range src.methods {
		t.methods[name] = m
	}
}

// Class describes a crisp class: a name, declared fields, and a method
// table. Instances share the table pointer, which is what lets the runtime
// lifter affect every existing and future instance at once.
type Class struct {
	name   string
	fields map[string]struct{}
	table  *MethodTable
}

// NewClass constructs a class over the given table and declared fields.
func NewClass(name string, table *MethodTable, fields ...string) *Class {
	fs := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		fs[f] = struct{}{}
	}
	if table == nil {
		table = NewMethodTable()
	}
	return &Class{name: name, fields: fs, table: table}
}

func (c *Class) Name() string { return c.name }

// Table returns the live method table. Callers other than the runtime
// lifter must treat it as read-only.
func (c *Class) Table() *MethodTable { return c.table }

// Fields returns the declared field names, sorted.
func (c *Class) Fields() []string {
	out := make([]string, 0, len(c.fields))
	for f := range c.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Defines reports whether the class declares the member as a method or
// field.
func (c *Class) Defines(member string) bool {
	if _, ok := c.fields[member]; ok {
		return true
	}
	_, ok := c.table.Lookup(member)
	return ok
}

// New instantiates the class. Every attribute must be a declared field.
func (c *Class) New(attrs map[string]any) (*Object, error) {
	o := &Object{class: c, attrs: make(map[string]any, len(attrs))}
	for name, v := range attrs {
		if _, ok := c.fields[name]; !ok {
			return nil, eris.Wrapf(ErrUnknownMember, "class %s has no field %q", c.name, name)
		}
		o.attrs[name] = v
	}
	return o, nil
}

// Object is an instance of a Class. It satisfies Proxyable and optionally
// carries an identity grade.
type Object struct {
	class    *Class
	attrs    map[string]any
	override *MethodTable
	grade    level.Level
}

func (o *Object) Class() *Class { return o.class }

// ClassName implements Proxyable.
func (o *Object) ClassName() string { return o.class.name }

// Grade returns the object's identity grade; zero means ungraded.
func (o *Object) Grade() level.Level { return o.grade }

// SetGrade attaches an identity grade to the object.
func (o *Object) SetGrade(g level.Level) { o.grade = g }

// Override returns the per-object method table installed by the runtime
// lifter, or nil when the object dispatches through its class.
func (o *Object) Override() *MethodTable { return o.override }

// SetOverride installs (or clears, with nil) a per-object method table.
func (o *Object) SetOverride(t *MethodTable) { o.override = t }

// GetMember implements Proxyable for attribute access.
func (o *Object) GetMember(name string) (any, error) {
	if _, ok := o.class.fields[name]; !ok {
		return nil, eris.Wrapf(ErrUnknownMember, "class %s has no field %q", o.class.name, name)
	}
	return o.attrs[name], nil
}

// SetMember assigns a declared field.
func (o *Object) SetMember(name string, v any) error {
	if _, ok := o.class.fields[name]; !ok {
		return eris.Wrapf(ErrUnknownMember, "class %s has no field %q", o.class.name, name)
	}
	o.attrs[name] = v
	return nil
}

// Invoke implements Proxyable for method calls. Dispatch goes through the
// per-object override when one is installed, else the class table.
func (o *Object) Invoke(name string, args ...any) (any, error) {
	table := o.class.table
	if o.override != nil {
		table = o.override
	}
	m, ok := table.Lookup(name)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownMember, "class %s has no method %q", o.class.name, name)
	}
	return m(o, args...)
}

// Proxyable is the capability set lifting requires of an object: anything
// that can name its class, surface members, and take calls can be lifted
// by delegation.
type Proxyable interface {
	ClassName() string
	GetMember(name string) (any, error)
	Invoke(name string, args ...any) (any, error)
}

var _ Proxyable = (*Object)(nil)
var _ Grader = (*Object)(nil)
