package series

import (
	"context"
	"sort"
)

// ComputeFunc is a transformer's compute step. It receives the head-row
// values of the transformer's declared input columns, in declared order.
// Computes may block (e.g. wrap an external indicator service); the graph
// waits for each compute to finish before evaluating the next transformer.
type ComputeFunc func(ctx context.Context, args []any) (any, error)

// Output routes a compute result into columns: either one key for the whole
// result, or a destination key per field of a map-valued result.
type Output struct {
	key  string
	keys map[string]string
}

// ToKey stores the whole result under a single column key.
func ToKey(key string) Output {
	return Output{key: key}
}

// ToKeys routes each field of a map[string]any result to its own column.
// Every field the compute produces must have a destination.
func ToKeys(keys map[string]string) Output {
	return Output{keys: keys}
}

type transformer struct {
	inputs []string
	fn     ComputeFunc
	out    Output
}

// Graph is a Series that recomputes derived columns. Transformers declare
// the input columns they need; whenever a row gains columns the graph
// re-scans the registered transformers in registration order and runs every
// newly eligible one, repeating until a fixpoint. A transformer runs at
// most once per row, so B may depend on a column produced by A without any
// ordering declaration between them.
type Graph struct {
	*Series
	transformers []*transformer
	executed     map[*transformer]bool
}

func NewGraph() *Graph {
	return &Graph{
		Series:   New(),
		executed: make(map[*transformer]bool),
	}
}

// AddTransformer registers a transformer. inputs may be empty: a zero-input
// transformer becomes eligible as soon as a row starts, before any data is
// merged, which supports stateful carry-over columns.
func (g *Graph) AddTransformer(inputs []string, fn ComputeFunc, out Output) error {
	if fn == nil {
		return &ValidationError{Reason: "transformer compute must not be nil"}
	}
	if out.key == "" && out.keys == nil {
		return &ValidationError{Reason: "transformer output key or key mapping is required"}
	}
	if out.key != "" && out.keys != nil {
		return &ValidationError{Reason: "transformer output must be a single key or a key mapping, not both"}
	}
	in := make([]string, len(inputs))
	copy(in, inputs)
	g.transformers = append(g.transformers, &transformer{inputs: in, fn: fn, out: out})
	return nil
}

// Add starts a new row and evaluates transformers against it.
func (g *Graph) Add(ctx context.Context, row *Row) error {
	g.Series.Add(row)
	g.executed = make(map[*transformer]bool)
	return g.evaluate(ctx)
}

// Set merges columns into the head row and evaluates newly eligible
// transformers.
func (g *Graph) Set(ctx context.Context, partial *Row) error {
	if err := g.Series.Set(partial); err != nil {
		return err
	}
	return g.evaluate(ctx)
}

// evaluate is the work-list loop: after every column write, re-scan for the
// first transformer (registration order) that has not run this row and
// whose inputs are all present, run it, write its output, repeat. The loop
// terminates because each transformer runs at most once per row.
func (g *Graph) evaluate(ctx context.Context) error {
	for {
		t := g.nextEligible()
		if t == nil {
			return nil
		}
		g.executed[t] = true

		head, _ := g.Current()
		args := make([]any, len(t.inputs))
		for i, key := range t.inputs {
			v, _ := head.Get(key)
			args[i] = v
		}

		result, err := t.fn(ctx, args)
		if err != nil {
			return err
		}
		if err := g.writeOutput(t.out, result); err != nil {
			return err
		}
	}
}

func (g *Graph) nextEligible() *transformer {
	head, hasHead := g.Current()
	for _, t := range g.transformers {
		if g.executed[t] {
			continue
		}
		if len(t.inputs) == 0 {
			return t
		}
		if !hasHead {
			continue
		}
		ready := true
		for _, key := range t.inputs {
			if !head.Has(key) {
				ready = false
				break
			}
		}
		if ready {
			return t
		}
	}
	return nil
}

func (g *Graph) writeOutput(out Output, result any) error {
	if out.key != "" {
		row := NewRow()
		row.Set(out.key, result) //nolint:errcheck // fresh row, single key
		return g.Series.Set(row)
	}

	fields, ok := result.(map[string]any)
	if !ok {
		return &ValidationError{Reason: "transformer with an output key mapping must return map[string]any"}
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, ok := out.keys[name]; !ok {
			return &MissingOutputKeyError{Field: name}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	row := NewRow()
	for _, name := range names {
		if err := row.Set(out.keys[name], fields[name]); err != nil {
			return err
		}
	}
	return g.Series.Set(row)
}
