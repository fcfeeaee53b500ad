package lang

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"
)

// Environment maps names to values. It is not safe for concurrent use.
type Environment struct {
	vars map[string]Value
}

// NewEnvironment returns an empty environment.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]Value)}
}

// Lookup returns the value bound to name.
func (e *Environment) Lookup(name string) (Value, bool) {
	v, ok := e.vars[name]

	return v, ok
}

// Resolve returns the value bound to name, binding it to [Unbound] first if
// it has no binding. It reports whether the binding already existed.
func (e *Environment) Resolve(name string) (Value, bool) {
	v, ok := e.vars[name]
	if !ok {
		e.vars[name] = Value{}
	}

	return v, ok
}

// Bind binds name to v, replacing any previous binding.
func (e *Environment) Bind(name string, v Value) {
	e.vars[name] = v
}

// Define binds name to a builtin implemented by fn.
func (e *Environment) Define(name string, fn BuiltinFunc) {
	e.vars[name] = CallableValue(&Builtin{Name: name, Fn: fn})
}

// Clone returns a shallow copy of e. Bindings added to the copy are not
// visible in e.
func (e *Environment) Clone() *Environment {
	return &Environment{vars: maps.Clone(e.vars)}
}

// Len returns the number of bindings.
func (e *Environment) Len() int { return len(e.vars) }

// Names returns the bound names in sorted order.
func (e *Environment) Names() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// All returns an iterator over the bindings in name order.
func (e *Environment) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range e.Names() {
			if !yield(name, e.vars[name]) {
				return
			}
		}
	}
}

// Callable is a value that can be invoked with arguments.
type Callable interface {
	Call(ev *Evaluator, args []Value) (Value, error)
	String() string
}

// BuiltinFunc implements a builtin callable.
type BuiltinFunc func(ctx context.Context, args []Value) (Value, error)

// Builtin is a callable implemented in Go and supplied through a seed
// environment.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

// Call invokes the builtin.
func (b *Builtin) Call(ev *Evaluator, args []Value) (Value, error) {
	return b.Fn(ev.Context(), args)
}

func (b *Builtin) String() string { return "<builtin " + b.Name + ">" }

// Function is a user-defined function. Scope is the environment in which
// the function was defined, held by reference: a call observes the state
// of Scope at call time.
type Function struct {
	Name   string
	Params []string
	Body   *Block
	Scope  *Environment
}

// Call runs the function body in a copy of Scope with the parameters bound
// to args.
func (f *Function) Call(ev *Evaluator, args []Value) (Value, error) {
	if len(args) != len(f.Params) {
		return Value{}, ErrArgumentCount.With(
			slog.String("function", f.Name),
			slog.Int("expected", len(f.Params)),
			slog.Int("got", len(args)),
		)
	}

	if err := ev.enter(f.Name); err != nil {
		return Value{}, err
	}
	defer ev.leave()

	scope := f.Scope.Clone()
	for i, name := range f.Params {
		scope.Bind(name, args[i])
	}

	res, err := f.Body.Evaluate(ev, scope)
	if err != nil {
		return Value{}, err
	}

	if res.Flow == FlowReturn {
		return res.Value, nil
	}

	return Value{}, nil
}

func (f *Function) String() string { return "<def " + f.Name + ">" }
