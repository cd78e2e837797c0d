// Package symbolic implements belief states, conditions and operators as
// binary decision diagrams.
//
// Every finite-domain variable is binary-encoded on ceil(log2(|domain|))
// BDD levels. Each level has a primed twin placed right after it, so a
// transition relation can relate the current value of a variable to its
// next value. The image of a belief state under an operator is
//
//	next := Replace(Exist(relation & belief, current), primed -> current)
//
// Decision diagram nodes are owned by the BeliefState or Condition that
// created them. Free releases that ownership; a freed value panics with a
// *state.FreedError when touched again, and Clone returns an independent
// owner of the same formula.
package symbolic

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/dalzilio/rudd"
)

// ErrBDD wraps failures reported by the decision diagram library.
var ErrBDD = errors.New("symbolic: decision diagram failure")

// Manager owns the decision diagram and the variable encoding shared by all
// symbolic values of one problem.
type Manager struct {
	bdd    *rudd.BDD
	domain []int
	cur    [][]int
	next   [][]int

	curSet    rudd.Node
	toCurrent rudd.Replacer
	valid     rudd.Node
}

// ManagerOption tunes the size of the decision diagram tables.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	nodes int
	cache int
}

// WithNodeTableSize sets the initial number of diagram nodes.
func WithNodeTableSize(n int) ManagerOption {
	return func(c *managerConfig) { c.nodes = n }
}

// WithCacheSize sets the initial operation cache size.
func WithCacheSize(n int) ManagerOption {
	return func(c *managerConfig) { c.cache = n }
}

// NewManager encodes variables with the given domain sizes.
func NewManager(domain []int, opts ...ManagerOption) (*Manager, error) {
	cfg := managerConfig{nodes: 10000, cache: 5000}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager{
		domain: append([]int(nil), domain...),
		cur:    make([][]int, len(domain)),
		next:   make([][]int, len(domain)),
	}
	level := 0
	var curLevels, nextLevels []int
	for v, d := range domain {
		if d < 1 {
			return nil, fmt.Errorf("symbolic: variable v%d has an empty domain", v)
		}
		for k := 0; k < width(d); k++ {
			m.cur[v] = append(m.cur[v], level)
			m.next[v] = append(m.next[v], level+1)
			curLevels = append(curLevels, level)
			nextLevels = append(nextLevels, level+1)
			level += 2
		}
	}

	b, err := rudd.New(level, rudd.Nodesize(cfg.nodes), rudd.Cachesize(cfg.cache))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBDD, err)
	}
	m.bdd = b
	m.curSet = b.Makeset(curLevels)
	m.toCurrent, err = b.NewReplacer(nextLevels, curLevels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBDD, err)
	}

	m.valid = b.True()
	for v, d := range domain {
		if d == 1<<width(d) {
			continue
		}
		inRange := b.False()
		for val := 0; val < d; val++ {
			inRange = b.Or(inRange, m.fact(v, val, false))
		}
		m.valid = b.And(m.valid, inRange)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return m, nil
}

// width is the number of bits needed to encode d values.
func width(d int) int {
	if d <= 1 {
		return 1
	}
	return bits.Len(uint(d - 1))
}

func (m *Manager) check() error {
	if m.bdd.Errored() {
		return fmt.Errorf("%w: %s", ErrBDD, m.bdd.Error())
	}
	return nil
}

// NumVars returns the number of encoded finite-domain variables.
func (m *Manager) NumVars() int { return len(m.domain) }

// fact returns the formula v = val over current (or primed) levels.
func (m *Manager) fact(v, val int, primed bool) rudd.Node {
	levels := m.cur[v]
	if primed {
		levels = m.next[v]
	}
	n := m.bdd.True()
	for k, lvl := range levels {
		if val>>k&1 == 1 {
			n = m.bdd.And(n, m.bdd.Ithvar(lvl))
		} else {
			n = m.bdd.And(n, m.bdd.NIthvar(lvl))
		}
	}
	return n
}

// frame keeps v unchanged across a transition.
func (m *Manager) frame(v int) rudd.Node {
	n := m.bdd.True()
	for k := range m.cur[v] {
		c, p := m.bdd.Ithvar(m.cur[v][k]), m.bdd.Ithvar(m.next[v][k])
		same := m.bdd.Or(m.bdd.And(c, p), m.bdd.And(m.bdd.Not(c), m.bdd.Not(p)))
		n = m.bdd.And(n, same)
	}
	return n
}

// conjunction builds the formula of a set of facts over current levels.
func (m *Manager) conjunction(facts map[int]int) (rudd.Node, error) {
	n := m.bdd.True()
	for v, val := range facts {
		if v < 0 || v >= len(m.domain) || val < 0 || val >= m.domain[v] {
			return nil, fmt.Errorf("symbolic: fact v%d=%d out of range", v, val)
		}
		n = m.bdd.And(n, m.fact(v, val, false))
	}
	return n, nil
}

// varsExcept returns the current-level varset of every variable not kept.
func (m *Manager) varsExcept(keep func(int) bool) rudd.Node {
	var levels []int
	for v := range m.domain {
		if !keep(v) {
			levels = append(levels, m.cur[v]...)
		}
	}
	return m.bdd.Makeset(levels)
}

func (m *Manager) isFalse(n rudd.Node) bool {
	return m.bdd.Equal(n, m.bdd.False())
}

// worlds enumerates the assignments of n, stopping after limit when limit
// is positive.
func (m *Manager) worlds(n rudd.Node, limit int) [][]int {
	var out [][]int
	values := make([]int, len(m.domain))
	var walk func(v int, rest rudd.Node) bool
	walk = func(v int, rest rudd.Node) bool {
		if v == len(m.domain) {
			out = append(out, append([]int(nil), values...))
			return limit <= 0 || len(out) < limit
		}
		for val := 0; val < m.domain[v]; val++ {
			branch := m.bdd.And(rest, m.fact(v, val, false))
			if m.isFalse(branch) {
				continue
			}
			values[v] = val
			if !walk(v+1, branch) {
				return false
			}
		}
		return true
	}
	walk(0, n)
	return out
}
