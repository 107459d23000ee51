// Package level defines the domain of grade labels that graded computations
// draw from: a finite partially ordered set with designated minimum and
// maximum elements and total meet/join combinators.
package level

import (
	"sort"

	"github.com/rotisserie/eris"
)

// ErrInvalidDomain reports a malformed level domain at construction time.
// No partial domain is ever returned alongside it.
var ErrInvalidDomain = eris.New("level: invalid domain")

// Level is a single grade label. The zero value is not a member of any
// domain and marks "no grade attached".
type Level string

// Ordering is the outcome of comparing two levels. Incomparable is a
// legitimate result in a partial order, not an error.
type Ordering int

const (
	Less Ordering = iota
	Equal
	Greater
	Incomparable
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "incomparable"
	}
}

// CombineFunc combines two levels into one. Used to override the derived
// meet/join when the order alone does not determine them.
type CombineFunc func(a, b Level) Level

// Spec describes a domain to construct. Order lists pairs (a, b) meaning
// a <= b; reflexivity is implied and the transitive closure is taken.
// Meet and Join are optional: when nil they are derived from the order as
// greatest lower / least upper bounds, which must exist for every pair.
type Spec struct {
	Elements []Level
	Order    [][2]Level
	Minimum  Level
	Maximum  Level
	Meet     CombineFunc
	Join     CombineFunc
}

// Domain is an immutable set of grade labels with a partial order and total
// meet/join operators. Safe to share by reference without locking.
type Domain struct {
	elements []Level
	index    map[Level]int
	leq      [][]bool
	meet     [][]Level
	join     [][]Level
	min, max Level
}

// New validates the spec and constructs a Domain. The order must be a
// partial order with Minimum below and Maximum above every element, and
// meet/join (derived or supplied) must be total and satisfy the lattice
// laws. Any violation fails with ErrInvalidDomain.
func New(spec Spec) (*Domain, error) {
	n := len(spec.Elements)
	if n == 0 {
		return nil, eris.Wrap(ErrInvalidDomain, "no elements")
	}

	index := make(map[Level]int, n)
	for i, e := range spec.Elements {
		if e == "" {
			return nil, eris.Wrap(ErrInvalidDomain, "empty level label")
		}
		if _, dup := index[e]; dup {
			return nil, eris.Wrapf(ErrInvalidDomain, "duplicate element %q", e)
		}
		index[e] = i
	}

	if _, ok := index[spec.Minimum]; !ok {
		return nil, eris.Wrapf(ErrInvalidDomain, "minimum %q is not an element", spec.Minimum)
	}
	if _, ok := index[spec.Maximum]; !ok {
		return nil, eris.Wrapf(ErrInvalidDomain, "maximum %q is not an element", spec.Maximum)
	}

	leq := make([][]bool, n)
	for i := range leq {
		leq[i] = make([]bool, n)
		leq[i][i] = true
	}
	for _, pair := range spec.Order {
		a, ok := index[pair[0]]
		if !ok {
			return nil, eris.Wrapf(ErrInvalidDomain, "order references unknown element %q", pair[0])
		}
		b, ok := index[pair[1]]
		if !ok {
			return nil, eris.Wrapf(ErrInvalidDomain, "order references unknown element %q", pair[1])
		}
		leq[a][b] = true
	}

	// Transitive closure.
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !leq[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if leq[k][j] {
					leq[i][j] = true
				}
			}
		}
	}

	// Antisymmetry: two distinct elements must not sit below each other.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if leq[i][j] && leq[j][i] {
				return nil, eris.Wrapf(ErrInvalidDomain, "order is not antisymmetric: %q and %q",
					spec.Elements[i], spec.Elements[j])
			}
		}
	}

	lo, hi := index[spec.Minimum], index[spec.Maximum]
	for i := 0; i < n; i++ {
		if !leq[lo][i] {
			return nil, eris.Wrapf(ErrInvalidDomain, "minimum %q is not below %q", spec.Minimum, spec.Elements[i])
		}
		if !leq[i][hi] {
			return nil, eris.Wrapf(ErrInvalidDomain, "maximum %q is not above %q", spec.Maximum, spec.Elements[i])
		}
	}

	d := &Domain{
		elements: append([]Level(nil), spec.Elements...),
		index:    index,
		leq:      leq,
		min:      spec.Minimum,
		max:      spec.Maximum,
	}

	var err error
	if d.meet, err = d.combineTable(spec.Meet, "meet", d.glb); err != nil {
		return nil, err
	}
	if d.join, err = d.combineTable(spec.Join, "join", d.lub); err != nil {
		return nil, err
	}
	if err := d.checkLaws(); err != nil {
		return nil, err
	}
	return d, nil
}

// Chain constructs a totally ordered domain from labels in ascending order:
// the first label is the minimum, the last the maximum.
func Chain(labels ...Level) (*Domain, error) {
	if len(labels) == 0 {
		return nil, eris.Wrap(ErrInvalidDomain, "no elements")
	}
	order := make([][2]Level, 0, len(labels)-1)
	for i := 0; i+1 < len(labels); i++ {
		order = append(order, [2]Level{labels[i], labels[i+1]})
	}
	return New(Spec{
		Elements: labels,
		Order:    order,
		Minimum:  labels[0],
		Maximum:  labels[len(labels)-1],
	})
}

// combineTable materializes a total combine table either from the supplied
// function or from the derive fallback (glb/lub).
func (d *Domain) combineTable(fn CombineFunc, name string, derive func(i, j int) (Level, bool)) ([][]Level, error) {
	n := len(d.elements)
	table := make([][]Level, n)
	for i := 0; i < n; i++ {
		table[i] = make([]Level, n)
		for j := 0; j < n; j++ {
			var out Level
			if fn != nil {
				out = fn(d.elements[i], d.elements[j])
				if !d.Contains(out) {
					return nil, eris.Wrapf(ErrInvalidDomain, "%s(%q, %q) = %q is not an element",
						name, d.elements[i], d.elements[j], out)
				}
			} else {
				var ok bool
				out, ok = derive(i, j)
				if !ok {
					return nil, eris.Wrapf(ErrInvalidDomain, "%s of %q and %q is not defined by the order",
						name, d.elements[i], d.elements[j])
				}
			}
			table[i][j] = out
		}
	}
	return table, nil
}

// glb returns the greatest lower bound of elements i and j, if unique.
func (d *Domain) glb(i, j int) (Level, bool) {
	return d.bound(i, j, func(a, b int) bool { return d.leq[a][b] })
}

// lub returns the least upper bound of elements i and j, if unique.
func (d *Domain) lub(i, j int) (Level, bool) {
	return d.bound(i, j, func(a, b int) bool { return d.leq[b][a] })
}

// bound finds the extremum of the common bounds of i and j under the given
// direction: below(a, b) reads "a is at least as extreme as b".
func (d *Domain) bound(i, j int, below func(a, b int) bool) (Level, bool) {
	n := len(d.elements)
	var bounds []int
	for c := 0; c < n; c++ {
		if below(c, i) && below(c, j) {
			bounds = append(bounds, c)
		}
	}
	for _, cand := range bounds {
		best := true
		for _, other := range bounds {
			if !below(other, cand) {
				best = false
				break
			}
		}
		if best {
			return d.elements[cand], true
		}
	}
	return "", false
}

// checkLaws verifies commutativity, idempotence, identity and absorption
// for both combinators, and associativity over all triples. Domains are
// small, so the cubic sweep is cheap and only runs once.
func (d *Domain) checkLaws() error {
	for _, a := range d.elements {
		if d.Meet(a, a) != a || d.Join(a, a) != a {
			return eris.Wrapf(ErrInvalidDomain, "combinators are not idempotent at %q", a)
		}
		if d.Meet(a, d.max) != a {
			return eris.Wrapf(ErrInvalidDomain, "maximum is not the meet identity at %q", a)
		}
		if d.Meet(a, d.min) != d.min {
			return eris.Wrapf(ErrInvalidDomain, "minimum is not meet-absorbing at %q", a)
		}
		if d.Join(a, d.min) != a {
			return eris.Wrapf(ErrInvalidDomain, "minimum is not the join identity at %q", a)
		}
		if d.Join(a, d.max) != d.max {
			return eris.Wrapf(ErrInvalidDomain, "maximum is not join-absorbing at %q", a)
		}
		for _, b := range d.elements {
			if d.Meet(a, b) != d.Meet(b, a) || d.Join(a, b) != d.Join(b, a) {
				return eris.Wrapf(ErrInvalidDomain, "combinators are not commutative at %q, %q", a, b)
			}
			for _, c := range d.elements {
				if d.Meet(a, d.Meet(b, c)) != d.Meet(d.Meet(a, b), c) {
					return eris.Wrapf(ErrInvalidDomain, "meet is not associative at %q, %q, %q", a, b, c)
				}
				if d.Join(a, d.Join(b, c)) != d.Join(d.Join(a, b), c) {
					return eris.Wrapf(ErrInvalidDomain, "join is not associative at %q, %q, %q", a, b, c)
				}
			}
		}
	}
	return nil
}

// Elements returns the domain's labels in construction order.
func (d *Domain) Elements() []Level {
	return append([]Level(nil), d.elements...)
}

// Contains reports whether l is a member of the domain.
func (d *Domain) Contains(l Level) bool {
	_, ok := d.index[l]
	return ok
}

// Minimum is the "no confidence" element.
func (d *Domain) Minimum() Level { return d.min }

// Maximum is the "full confidence" element.
func (d *Domain) Maximum() Level { return d.max }

// Compare orders a against b. Both must be members of the domain; unknown
// labels compare as Incomparable to everything but themselves.
func (d *Domain) Compare(a, b Level) Ordering {
	if a == b {
		return Equal
	}
	i, oki := d.index[a]
	j, okj := d.index[b]
	if !oki || !okj {
		return Incomparable
	}
	switch {
	case d.leq[i][j]:
		return Less
	case d.leq[j][i]:
		return Greater
	default:
		return Incomparable
	}
}

// Meet combines a and b conjunctively.
func (d *Domain) Meet(a, b Level) Level { return d.combine(d.meet, a, b) }

// Join combines a and b disjunctively.
func (d *Domain) Join(a, b Level) Level { return d.combine(d.join, a, b) }

// Sequence is the grade of "do something with grade a, then something with
// grade b". Confidence cannot increase through composition, so it is Meet.
func (d *Domain) Sequence(a, b Level) Level { return d.Meet(a, b) }

// MeetAll folds Meet over the given levels. With no arguments it returns
// the maximum, the meet identity.
func (d *Domain) MeetAll(levels ...Level) Level {
	out := d.max
	for _, l := range levels {
		out = d.Meet(out, l)
	}
	return out
}

// JoinAll folds Join over the given levels. With no arguments it returns
// the minimum, the join identity.
func (d *Domain) JoinAll(levels ...Level) Level {
	out := d.min
	for _, l := range levels {
		out = d.Join(out, l)
	}
	return out
}

func (d *Domain) combine(table [][]Level, a, b Level) Level {
	i, oki := d.index[a]
	j, okj := d.index[b]
	if !oki || !okj {
		// Foreign labels never occur through the public lifters, which
		// validate grades on the way in. Degrade safely if one slips by.
		return d.min
	}
	return table[i][j]
}

// Sorted returns the levels ordered descending (maximum first) with
// incomparable runs kept in construction order. Used for stable display.
func (d *Domain) Sorted() []Level {
	out := d.Elements()
	sort.SliceStable(out, func(i, j int) bool {
		return d.Compare(out[i], out[j]) == Greater
	})
	return out
}
