package graph

import (
	"fmt"
	"strings"
)

// Algorithm selects the search variant.
type Algorithm string

const (
	// AlgorithmDFS runs one unbounded AND-OR depth-first attempt.
	AlgorithmDFS Algorithm = "DFS"

	// AlgorithmIterativeDFS escalates the bound to the smallest deferred
	// cost after every failed round.
	AlgorithmIterativeDFS Algorithm = "ITERATIVE_DFS"

	// AlgorithmIterativeDFSPruning adds a one-step look-ahead on h and a
	// per-round non-promising map.
	AlgorithmIterativeDFSPruning Algorithm = "ITERATIVE_DFS_PRUNING"

	// AlgorithmIterativeDFSLearning refines h from connector evaluations
	// and keeps the learned values across rounds.
	AlgorithmIterativeDFSLearning Algorithm = "ITERATIVE_DFS_LEARNING"
)

// ActionSelection orders the outgoing connectors of a node.
type ActionSelection string

const (
	SelectNone                      ActionSelection = "NONE"
	SelectMinH                      ActionSelection = "MIN_H"
	SelectMinHTimesChildrenSize     ActionSelection = "MIN_H_TIMES_CHILDREN_SIZE"
	SelectMinHPowerChildrenSize     ActionSelection = "MIN_H_POWER_CHILDREN_SIZE"
	SelectMinSumH                   ActionSelection = "MIN_SUM_H"
	SelectMinSumHTimesChildrenSize  ActionSelection = "MIN_SUM_H_TIMES_CHILDREN_SIZE"
	SelectMinSumHPowerChildrenSize  ActionSelection = "MIN_SUM_H_POWER_CHILDREN_SIZE"
	SelectMinMaxH                   ActionSelection = "MIN_MAX_H"
	SelectMaxH                      ActionSelection = "MAX_H"
	SelectMinMaxHTimesChildrenSize  ActionSelection = "MIN_MAX_H_TIMES_CHILDREN_SIZE"
	SelectMinMaxHPowerChildrenSize  ActionSelection = "MIN_MAX_H_POWER_CHILDREN_SIZE"
	SelectMeanH                     ActionSelection = "MEAN_H"
	SelectMinSumHEstimatedBranching ActionSelection = "MIN_SUM_H_ESTIMATED_BRANCHING_FACTOR"
	SelectMaxAvgHValue              ActionSelection = "MAX_AVG_H_VALUE"
)

// EvaluationCriterion picks the connector term compared against the bound.
type EvaluationCriterion string

const (
	CriterionMax EvaluationCriterion = "MAX"
	CriterionMin EvaluationCriterion = "MIN"
)

// SuccessorOrder orders the children of a connector.
type SuccessorOrder string

const (
	// OrderSort explores children by ascending h.
	OrderSort SuccessorOrder = "SORT"

	// OrderReverse explores children by descending h.
	OrderReverse SuccessorOrder = "REVERSE"

	// OrderRandom shuffles children with the engine seed.
	OrderRandom SuccessorOrder = "RANDOM"
)

// TieBreak orders connectors whose selection values are equal.
type TieBreak string

const (
	TieBreakNone            TieBreak = "NONE"
	TieBreakMinSum          TieBreak = "MIN_SUM"
	TieBreakMaxSum          TieBreak = "MAX_SUM"
	TieBreakMinOutcomesSize TieBreak = "MIN_OUTCOMES_SIZE"
	TieBreakMaxOutcomesSize TieBreak = "MAX_OUTCOMES_SIZE"
)

// Algorithms lists the accepted Algorithm values.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmDFS, AlgorithmIterativeDFS, AlgorithmIterativeDFSPruning, AlgorithmIterativeDFSLearning}
}

// ActionSelections lists the accepted ActionSelection values.
func ActionSelections() []ActionSelection {
	return []ActionSelection{
		SelectNone, SelectMinH, SelectMinHTimesChildrenSize, SelectMinHPowerChildrenSize,
		SelectMinSumH, SelectMinSumHTimesChildrenSize, SelectMinSumHPowerChildrenSize,
		SelectMinMaxH, SelectMaxH, SelectMinMaxHTimesChildrenSize, SelectMinMaxHPowerChildrenSize,
		SelectMeanH, SelectMinSumHEstimatedBranching, SelectMaxAvgHValue,
	}
}

// EvaluationCriteria lists the accepted EvaluationCriterion values.
func EvaluationCriteria() []EvaluationCriterion {
	return []EvaluationCriterion{CriterionMax, CriterionMin}
}

// SuccessorOrders lists the accepted SuccessorOrder values.
func SuccessorOrders() []SuccessorOrder {
	return []SuccessorOrder{OrderSort, OrderReverse, OrderRandom}
}

// TieBreaks lists the accepted TieBreak values.
func TieBreaks() []TieBreak {
	return []TieBreak{TieBreakNone, TieBreakMinSum, TieBreakMaxSum, TieBreakMinOutcomesSize, TieBreakMaxOutcomesSize}
}

func (a Algorithm) valid() bool           { return contains(Algorithms(), a) }
func (s ActionSelection) valid() bool     { return contains(ActionSelections(), s) }
func (c EvaluationCriterion) valid() bool { return contains(EvaluationCriteria(), c) }
func (o SuccessorOrder) valid() bool      { return contains(SuccessorOrders(), o) }
func (t TieBreak) valid() bool            { return contains(TieBreaks(), t) }

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) { return parseEnum("algorithm", name, Algorithms()) }

// ParseActionSelection resolves a case-insensitive action selection name.
func ParseActionSelection(name string) (ActionSelection, error) {
	return parseEnum("action selection", name, ActionSelections())
}

// ParseEvaluationCriterion resolves a case-insensitive criterion name.
func ParseEvaluationCriterion(name string) (EvaluationCriterion, error) {
	return parseEnum("evaluation criterion", name, EvaluationCriteria())
}

// ParseSuccessorOrder resolves a case-insensitive successor order name.
func ParseSuccessorOrder(name string) (SuccessorOrder, error) {
	return parseEnum("successor order", name, SuccessorOrders())
}

// ParseTieBreak resolves a case-insensitive tie break name.
func ParseTieBreak(name string) (TieBreak, error) { return parseEnum("tie break", name, TieBreaks()) }

func parseEnum[T ~string](kind, name string, valid []T) (T, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for _, v := range valid {
		if string(v) == want {
			return v, nil
		}
	}
	return "", invalidOption("unknown %s %q (want one of %v)", kind, name, valid)
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (a Algorithm) iterative() bool { return a != AlgorithmDFS }

func (a Algorithm) String() string { return string(a) }

// describe renders the ordering configuration for events.
func (o Options) describe() string {
	return fmt.Sprintf("%s/%s/%s/%s", o.ActionSelection, o.EvaluationCriterion, o.SuccessorOrder, o.TieBreak)
}
