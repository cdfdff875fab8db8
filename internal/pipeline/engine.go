// Package pipeline implements the compliance-gated recommendation workflow:
// a directed graph of stages threaded by an accumulator state, with a single
// conditional edge after compliance screening.
package pipeline

import (
	"context"
	"fmt"
)

// StageFunc runs one stage against the current state and returns a partial
// state (delta) holding only the fields the stage produced. Stages report
// failures by appending to the delta's Errors instead of returning an error,
// so the engine can always complete the merge and evaluate termination.
type StageFunc[S any] func(ctx context.Context, s S) S

// Reducer merges a stage's delta into the previous state. Merge semantics
// are per field: the reducer decides which fields overwrite and which append.
type Reducer[S any] func(prev, delta S) S

// Predicate evaluates a condition over the current state.
type Predicate[S any] func(s S) bool

type stage[S any] struct {
	name string
	fn   StageFunc[S]
}

type edge[S any] struct {
	from string
	to   string
	when Predicate[S] // nil means unconditional
}

// Engine executes named stages connected by edges. Execution is strictly
// sequential: a stage only starts after the previous stage's delta has been
// merged. After every merge the halt predicate is checked; once it fires the
// graph terminates regardless of remaining edges. Stages are never retried.
type Engine[S any] struct {
	reducer Reducer[S]
	halt    Predicate[S]
	stages  map[string]stage[S]
	edges   []edge[S]
	start   string
}

// NewEngine creates an engine with the given merge semantics and halt
// predicate. halt may be nil, in which case only edge routing ends a run.
func NewEngine[S any](reducer Reducer[S], halt Predicate[S]) *Engine[S] {
	return &Engine[S]{
		reducer: reducer,
		halt:    halt,
		stages:  make(map[string]stage[S]),
	}
}

// Add registers a named stage.
func (e *Engine[S]) Add(name string, fn StageFunc[S]) error {
	if name == "" {
		return fmt.Errorf("stage name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("stage %q: func cannot be nil", name)
	}
	if _, exists := e.stages[name]; exists {
		return fmt.Errorf("duplicate stage %q", name)
	}
	e.stages[name] = stage[S]{name: name, fn: fn}
	return nil
}

// StartAt sets the entry stage.
func (e *Engine[S]) StartAt(name string) error {
	if _, exists := e.stages[name]; !exists {
		return fmt.Errorf("start stage %q does not exist", name)
	}
	e.start = name
	return nil
}

// Connect adds an edge. A nil predicate makes the edge unconditional. Edges
// are evaluated in registration order and the first match wins; when no edge
// matches, the run terminates at the current stage.
func (e *Engine[S]) Connect(from, to string, when Predicate[S]) error {
	if from == "" || to == "" {
		return fmt.Errorf("edge endpoints cannot be empty")
	}
	e.edges = append(e.edges, edge[S]{from: from, to: to, when: when})
	return nil
}

// Run executes the graph from the start stage and returns the final state.
// The returned error covers engine misuse and context cancellation only;
// stage-level failures live in the state's error accumulator.
func (e *Engine[S]) Run(ctx context.Context, initial S) (S, error) {
	state := initial
	if e.start == "" {
		return state, fmt.Errorf("start stage not set")
	}

	current := e.start
	// Edges form a DAG; the guard catches a miswired graph rather than
	// supporting loops.
	for steps := 0; steps <= len(e.stages); steps++ {
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		default:
		}

		st, exists := e.stages[current]
		if !exists {
			return state, fmt.Errorf("stage %q does not exist", current)
		}

		delta := st.fn(ctx, state)
		state = e.reducer(state, delta)

		if e.halt != nil && e.halt(state) {
			return state, nil
		}

		next := e.nextStage(current, state)
		if next == "" {
			return state, nil
		}
		current = next
	}

	return state, fmt.Errorf("stage graph did not terminate (cycle through %q?)", current)
}

func (e *Engine[S]) nextStage(from string, state S) string {
	for _, ed := range e.edges {
		if ed.from != from {
			continue
		}
		if ed.when == nil || ed.when(state) {
			return ed.to
		}
	}
	return ""
}
