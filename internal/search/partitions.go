package search

import "strings"

// Grouping is a candidate partition of entities into groups. Groups and
// members keep first-appearance order, which makes Key canonical for the
// enumeration below.
type Grouping struct {
	Groups [][]string
}

// Key implements Candidate.
func (g Grouping) Key() string {
	parts := make([]string, len(g.Groups))
	for i, group := range g.Groups {
		parts[i] = strings.Join(group, ",")
	}
	return strings.Join(parts, "|")
}

func (g Grouping) String() string {
	parts := make([]string, len(g.Groups))
	for i, group := range g.Groups {
		parts[i] = "{" + strings.Join(group, " ") + "}"
	}
	return strings.Join(parts, " ")
}

// PartitionGenerator lazily enumerates every partition of a set of
// entities via restricted growth sequences, optionally filtered by group
// size bounds. Enumeration order is deterministic.
type PartitionGenerator struct {
	entities []string
	minSize  int
	maxSize  int
	rgs      []int
	maxes    []int
	done     bool
}

// Partitions enumerates all partitions of entities whose groups have at
// least minSize and, when maxSize > 0, at most maxSize members. The first
// candidate is the single all-together group; the last is all singletons.
func Partitions(entities []string, minSize, maxSize int) *PartitionGenerator {
	if minSize < 1 {
		minSize = 1
	}
	return &PartitionGenerator{
		entities: append([]string(nil), entities...),
		minSize:  minSize,
		maxSize:  maxSize,
		done:     len(entities) == 0,
	}
}

// Next implements Generator.
func (p *PartitionGenerator) Next() (Candidate, bool) {
	for !p.done {
		if !p.step() {
			break
		}
		g := p.grouping(p.rgs)
		if p.admissible(g) {
			return g, true
		}
	}
	return nil, false
}

// step advances to the next restricted growth sequence: the rightmost
// position that can grow is incremented and the suffix reset to zero.
// Returns false once the space is exhausted.
func (p *PartitionGenerator) step() bool {
	n := len(p.entities)
	if p.rgs == nil {
		p.rgs = make([]int, n)
		p.maxes = make([]int, n)
		return true
	}
	for i := n - 1; i > 0; i-- {
		if p.rgs[i] <= p.maxes[i-1] {
			p.rgs[i]++
			if p.rgs[i] > p.maxes[i] {
				p.maxes[i] = p.rgs[i]
			}
			for j := i + 1; j < n; j++ {
				p.rgs[j] = 0
				p.maxes[j] = p.maxes[i]
			}
			return true
		}
	}
	p.done = true
	return false
}

func (p *PartitionGenerator) grouping(rgs []int) Grouping {
	blocks := 0
	for _, b := range rgs {
		if b+1 > blocks {
			blocks = b + 1
		}
	}
	groups := make([][]string, blocks)
	for i, b := range rgs {
		groups[b] = append(groups[b], p.entities[i])
	}
	return Grouping{Groups: groups}
}

func (p *PartitionGenerator) admissible(g Grouping) bool {
	for _, group := range g.Groups {
		if len(group) < p.minSize {
			return false
		}
		if p.maxSize > 0 && len(group) > p.maxSize {
			return false
		}
	}
	return true
}
