// Package search enumerates candidate combinatorial assignments, scores
// each through a graded program, and returns the best-ranked ones.
package search

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/levelworks/rlistic/internal/level"
)

// ErrEmptyCandidateSpace reports a generator that yielded zero candidates.
var ErrEmptyCandidateSpace = eris.New("search: empty candidate space")

// Candidate is one assignment under evaluation. Key identifies it for
// memoization within a single search call.
type Candidate interface {
	Key() string
}

// Generator produces a lazy, finite sequence of candidates.
type Generator interface {
	Next() (Candidate, bool)
}

// Evaluator scores one candidate, typically by driving a graded program
// and folding the resulting grades with meet. Scoring must be free of side
// effects: the runner may score candidates concurrently.
type Evaluator interface {
	Score(c Candidate) (level.Level, error)
}

// PolicyKind selects how scored candidates are filtered.
type PolicyKind int

const (
	// TopK keeps the K best-ranked candidates.
	TopK PolicyKind = iota
	// Threshold keeps every candidate at or above the threshold grade.
	Threshold
)

// Policy is the selection policy applied after ranking.
type Policy struct {
	Kind      PolicyKind
	K         int
	Threshold level.Level
}

// Ranked pairs a candidate with its aggregate grade. Index is the
// candidate's generation order and breaks ties deterministically.
type Ranked struct {
	Candidate Candidate
	Grade     level.Level
	Index     int
}

type options struct {
	parallelism int
}

// Option tunes a search run.
type Option func(*options)

// WithParallelism scores up to n candidates concurrently. Candidates are
// independent, and every result lands in its generation slot before
// ranking, so the output order stays deterministic.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// Run drains the generator, scores each distinct candidate once, ranks the
// results by grade descending with generation order as the tie-break, and
// applies the selection policy. A generator with no candidates fails with
// ErrEmptyCandidateSpace.
func Run(d *level.Domain, eval Evaluator, gen Generator, pol Policy, opts ...Option) ([]Ranked, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	var candidates []Candidate
	firstSeen := make(map[string]int)
	for {
		c, ok := gen.Next()
		if !ok {
			break
		}
		if _, seen := firstSeen[c.Key()]; seen {
			continue
		}
		firstSeen[c.Key()] = len(candidates)
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil, ErrEmptyCandidateSpace
	}

	grades := make([]level.Level, len(candidates))
	if o.parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(o.parallelism)
		for i, c := range candidates {
			i, c := i, c
			g.Go(func() error {
				lvl, err := eval.Score(c)
				if err != nil {
					return eris.Wrapf(err, "search: score candidate %d", i)
				}
				grades[i] = lvl
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, c := range candidates {
			lvl, err := eval.Score(c)
			if err != nil {
				return nil, eris.Wrapf(err, "search: score candidate %d", i)
			}
			grades[i] = lvl
		}
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Candidate: c, Grade: grades[i], Index: i}
	}
	// Only a strict Greater moves a candidate up; equal and incomparable
	// pairs keep generation order, which makes the ranking deterministic
	// even over a partial order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return d.Compare(ranked[i].Grade, ranked[j].Grade) == level.Greater
	})

	selected := applyPolicy(d, ranked, pol)
	zap.L().Info("search: complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return selected, nil
}

func applyPolicy(d *level.Domain, ranked []Ranked, pol Policy) []Ranked {
	switch pol.Kind {
	case Threshold:
		var out []Ranked
		for _, r := range ranked {
			switch d.Compare(r.Grade, pol.Threshold) {
			case level.Greater, level.Equal:
				out = append(out, r)
			}
		}
		return out
	default:
		k := pol.K
		if k <= 0 || k > len(ranked) {
			k = len(ranked)
		}
		return ranked[:k]
	}
}
