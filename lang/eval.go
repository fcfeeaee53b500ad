package lang

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/ardnew/bthn/log"
)

// Evaluator holds the state of one interpretation pass: the context that
// can interrupt it, the call depth and the collected diagnostics.
type Evaluator struct {
	ctx      context.Context
	logger   log.Logger
	maxDepth int
	depth    int
	diags    []error
}

// NewEvaluator returns an evaluator bound to ctx.
func NewEvaluator(ctx context.Context, opts ...Option) *Evaluator {
	o := makeOptions(opts...)

	return &Evaluator{
		ctx:      ctx,
		logger:   o.logger,
		maxDepth: o.maxDepth,
	}
}

// Context returns the context of the evaluation pass.
func (ev *Evaluator) Context() context.Context { return ev.ctx }

// Logger returns the logger of the evaluation pass.
func (ev *Evaluator) Logger() log.Logger { return ev.logger }

// Diagnostics returns the non-fatal unbound-reference reports collected so
// far.
func (ev *Evaluator) Diagnostics() []error { return slices.Clone(ev.diags) }

func (ev *Evaluator) enter(name string) error {
	if ev.depth >= ev.maxDepth {
		return ErrMaxDepthExceeded.With(
			slog.String("function", name),
			slog.Int("max_depth", ev.maxDepth),
		)
	}

	ev.depth++

	return nil
}

func (ev *Evaluator) leave() { ev.depth-- }

func (ev *Evaluator) interrupted() error {
	if ev.ctx.Err() == nil {
		return nil
	}

	return ErrInterrupted.Wrap(context.Cause(ev.ctx))
}

func (ev *Evaluator) unbound(name string, pos Position) {
	err := ErrUnboundReference.WithPosition(pos).With(slog.String("name", name))
	ev.diags = append(ev.diags, err)
	ev.logger.DebugContext(ev.ctx, "unbound name materialized", slog.Any("error", err))
}

func (ev *Evaluator) value(n Node, env *Environment) (Value, error) {
	res, err := n.Evaluate(ev, env)

	return res.Value, err
}

func (ev *Evaluator) number(n Node, env *Environment, role string) (float64, error) {
	v, err := ev.value(n, env)
	if err != nil {
		return 0, err
	}

	f, ok := v.numeric()
	if !ok {
		return 0, ErrOperandType.WithPosition(n.Pos()).With(
			slog.String("operand", role),
			slog.String("type", v.Type().String()),
		)
	}

	return f, nil
}

// statements runs stmts with definitions hoisted. It stops at the first
// return signal and passes it on. Otherwise the result carries the value of
// the last non-blank statement.
func (ev *Evaluator) statements(stmts []Node, env *Environment) (Result, error) {
	last := normal(Value{})

	for stmt := range hoisted(stmts) {
		res, err := stmt.Evaluate(ev, env)
		if err != nil {
			return Result{}, err
		}

		if res.Flow == FlowReturn {
			return res, nil
		}

		if _, blank := stmt.(*Blank); !blank {
			last = res
		}
	}

	return last, nil
}

func (n *Program) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	return ev.statements(n.Statements, env)
}

func (n *Block) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	return ev.statements(n.Statements, env)
}

func (*Blank) Evaluate(*Evaluator, *Environment) (Result, error) {
	return normal(Value{}), nil
}

// run evaluates the condition and, if truthy, the body. It reports whether
// the body ran.
func (n *If) run(ev *Evaluator, env *Environment) (bool, Result, error) {
	cond, err := ev.value(n.Cond, env)
	if err != nil {
		return false, Result{}, err
	}

	if !cond.Truthy() {
		return false, normal(Value{}), nil
	}

	res, err := n.Body.Evaluate(ev, env)

	return true, res, err
}

func (n *If) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	_, res, err := n.run(ev, env)

	return res, err
}

func (n *IfElse) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	ran, res, err := n.If.run(ev, env)
	if err != nil || ran {
		return res, err
	}

	return n.Else.Evaluate(ev, env)
}

func (n *Def) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	env.Bind(n.Name, CallableValue(&Function{
		Name:   n.Name,
		Params: n.Params,
		Body:   n.Body,
		Scope:  env,
	}))

	ev.logger.TraceContext(ev.ctx, "function defined",
		slog.String("name", n.Name),
		slog.Int("param_count", len(n.Params)))

	return normal(Value{}), nil
}

func (n *Set) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	v, err := ev.value(n.Expr, env)
	if err != nil {
		return Result{}, err
	}

	env.Bind(n.Name, v)

	return normal(v), nil
}

// Evaluate iterates over the half-open range from the current value of the
// loop variable (0 if unbound) toward stop. A step that does not move
// toward stop yields no iterations.
func (n *Loop) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	step, err := ev.number(n.Step, env, "step")
	if err != nil {
		return Result{}, err
	}

	stop, err := ev.number(n.Stop, env, "stop")
	if err != nil {
		return Result{}, err
	}

	var start float64

	cur, bound := env.Resolve(n.Var)
	if !bound {
		ev.unbound(n.Var, n.At)
	}

	if !cur.IsUnbound() {
		f, ok := cur.numeric()
		if !ok {
			return Result{}, ErrOperandType.WithPosition(n.At).With(
				slog.String("operand", "start"),
				slog.String("type", cur.Type().String()),
			)
		}

		start = f
	}

	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		if err := ev.interrupted(); err != nil {
			return Result{}, err
		}

		env.Bind(n.Var, NumberValue(i))

		res, err := n.Body.Evaluate(ev, env)
		if err != nil {
			return Result{}, err
		}

		if res.Flow == FlowReturn {
			return res, nil
		}
	}

	return normal(Value{}), nil
}

func (n *Return) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	if n.Expr == nil {
		return Result{Flow: FlowReturn}, nil
	}

	v, err := ev.value(n.Expr, env)
	if err != nil {
		return Result{}, err
	}

	return Result{Flow: FlowReturn, Value: v}, nil
}

func (n *ExpressionStatement) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	v, err := ev.value(n.Expr, env)
	if err != nil {
		return Result{}, err
	}

	return normal(v), nil
}

// Evaluate invokes the bound value if it is callable. Otherwise the
// arguments are ignored and the value is returned, except that arguments
// applied to a name without a value fail with [ErrUndefinedFunction].
func (n *Call) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	v, bound := env.Resolve(n.Name)
	if !bound {
		ev.unbound(n.Name, n.At)
	}

	fn, ok := v.AsCallable()
	if !ok {
		if len(n.Args) > 0 {
			if v.IsUnbound() {
				return Result{}, ErrUndefinedFunction.WithPosition(n.At).
					With(slog.String("name", n.Name))
			}

			ev.logger.TraceContext(ev.ctx, "arguments ignored",
				slog.String("name", n.Name),
				slog.String("type", v.Type().String()))
		}

		return normal(v), nil
	}

	if err := ev.interrupted(); err != nil {
		return Result{}, err
	}

	args := make([]Value, len(n.Args))

	for i, arg := range n.Args {
		a, err := ev.value(arg, env)
		if err != nil {
			return Result{}, err
		}

		args[i] = a
	}

	out, err := fn.Call(ev, args)
	if err != nil {
		return Result{}, err
	}

	return normal(out), nil
}

func (n *VariableReference) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	v, bound := env.Resolve(n.Name)
	if !bound {
		ev.unbound(n.Name, n.At)
	}

	return normal(v), nil
}

func (n *NumberLiteral) Evaluate(*Evaluator, *Environment) (Result, error) {
	return normal(NumberValue(n.Value)), nil
}

func (n *StringLiteral) Evaluate(*Evaluator, *Environment) (Result, error) {
	return normal(StringValue(Unescape(n.Raw))), nil
}

func (n *BoolLiteral) Evaluate(*Evaluator, *Environment) (Result, error) {
	return normal(BoolValue(n.Value)), nil
}

func (n *Group) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	v, err := ev.value(n.Expr, env)

	return normal(v), err
}

func (n *Not) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	v, err := ev.value(n.Expr, env)
	if err != nil {
		return Result{}, err
	}

	return normal(BoolValue(!v.Truthy())), nil
}

// Evaluate applies the operator. And, Or, Nand and Nor skip the right
// operand once the left one decides the result.
func (n *Binary) Evaluate(ev *Evaluator, env *Environment) (Result, error) {
	left, err := ev.value(n.Left, env)
	if err != nil {
		return Result{}, err
	}

	switch {
	case (n.Op == OpAnd || n.Op == OpNand) && !left.Truthy():
		return normal(BoolValue(n.Op == OpNand)), nil
	case (n.Op == OpOr || n.Op == OpNor) && left.Truthy():
		return normal(BoolValue(n.Op == OpOr)), nil
	}

	right, err := ev.value(n.Right, env)
	if err != nil {
		return Result{}, err
	}

	v, opErr := apply(n.Op, left, right)
	if opErr != nil {
		return Result{}, opErr.WithPosition(n.At)
	}

	return normal(v), nil
}

func apply(op Operator, left, right Value) (Value, *Error) {
	switch op {
	case OpAnd:
		return BoolValue(left.Truthy() && right.Truthy()), nil
	case OpOr:
		return BoolValue(left.Truthy() || right.Truthy()), nil
	case OpXor:
		return BoolValue(left.Truthy() != right.Truthy()), nil
	case OpNand:
		return BoolValue(!(left.Truthy() && right.Truthy())), nil
	case OpNor:
		return BoolValue(!(left.Truthy() || right.Truthy())), nil
	case OpXnor:
		return BoolValue(left.Truthy() == right.Truthy()), nil
	case OpEqual:
		return BoolValue(left.Equal(right)), nil
	case OpPlus:
		if ls, ok := left.AsString(); ok {
			if rs, ok := right.AsString(); ok {
				return StringValue(ls + rs), nil
			}
		}
	}

	a, aok := left.numeric()
	b, bok := right.numeric()

	if !aok || !bok {
		return Value{}, ErrOperandType.With(
			slog.String("operator", op.String()),
			slog.String("left", left.Type().String()),
			slog.String("right", right.Type().String()),
		)
	}

	switch op {
	case OpPlus:
		return NumberValue(a + b), nil
	case OpMinus:
		return NumberValue(a - b), nil
	case OpMul:
		return NumberValue(a * b), nil
	case OpDiv:
		if b == 0 {
			return Value{}, ErrArithmetic.With(slog.String("issue", "division by zero"))
		}

		return NumberValue(a / b), nil
	case OpMod:
		if b == 0 {
			return Value{}, ErrArithmetic.With(slog.String("issue", "modulo by zero"))
		}

		return NumberValue(floorMod(a, b)), nil
	default:
		return power(a, b)
	}
}

// floorMod returns the remainder of a/b with the sign of b.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}

	return r
}

func power(a, b float64) (Value, *Error) {
	if a == 0 && b < 0 {
		return Value{}, ErrArithmetic.With(slog.String("issue", "zero raised to a negative power"))
	}

	r := math.Pow(a, b)
	if math.IsNaN(r) && !math.IsNaN(a) && !math.IsNaN(b) {
		return Value{}, ErrArithmetic.With(slog.String("issue", "complex result"))
	}

	return NumberValue(r), nil
}
