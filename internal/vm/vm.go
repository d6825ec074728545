// Package vm implements DarkVM's execution engine: a tree-walking
// evaluator over the linearized value stream produced by package code,
// with an operand stack, a call-frame stack, lexically-chained variable
// stores, absolute/relative jumps, truthiness-based conditional jumps,
// and uniform recursive evaluation of instruction operands, collapsed
// into one dispatch loop.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/hacker007/darkvm/internal/code"
	"github.com/hacker007/darkvm/internal/dverr"
	"github.com/hacker007/darkvm/internal/trace"
	"github.com/hacker007/darkvm/internal/value"
)

// DefaultMaxCallDepth bounds the call stack; exceeding it is a fatal
// StackOverflow runtime error rather than an unbounded native-stack
// recursion.
const DefaultMaxCallDepth = 512

// VM holds the engine's exclusively-owned mutable state: the linearized
// program, the operand stack, and the call-frame stack.
type VM struct {
	Code    *code.Code
	Operand *Stack[value.Value]
	Frames  []*Frame

	maxCallDepth int
	out          io.Writer
	tracer       *trace.Tracer
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput redirects Print/Printn output away from os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.out = w }
}

// WithMaxCallDepth overrides DefaultMaxCallDepth.
func WithMaxCallDepth(n int) Option {
	return func(v *VM) { v.maxCallDepth = n }
}

// WithTracer attaches an execution tracer.
func WithTracer(t *trace.Tracer) Option {
	return func(v *VM) { v.tracer = t }
}

// New creates a VM over c, with the initial call stack containing a
// single frame named "main" with CallerIndex 0.
func New(c *code.Code, opts ...Option) *VM {
	v := &VM{
		Code:         c,
		Operand:      NewStack[value.Value](),
		Frames:       []*Frame{NewFrame(0, "main", nil)},
		maxCallDepth: DefaultMaxCallDepth,
		out:          os.Stdout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VM) currentFrame() *Frame {
	return v.Frames[len(v.Frames)-1]
}

func (v *VM) isFinished() bool {
	return v.Code.IsFinished() || len(v.Frames) == 0
}

// SetOutput redirects subsequent Print/Printn output, for front-ends
// (the GUI debugger) that need to attach a writer after construction.
func (v *VM) SetOutput(w io.Writer) {
	v.out = w
}

// IsFinished reports whether the engine has run the program to
// completion, for front-ends (the debugger's run loop) that drive
// Step themselves instead of calling Run.
func (v *VM) IsFinished() bool {
	return v.isFinished()
}

// LookupVariable resolves name against the current frame's store chain
// without raising UndefinedVariable, for the debugger's print command
// and watchpoint evaluation.
func (v *VM) LookupVariable(name string) (value.Value, bool) {
	val, err := v.currentFrame().Store.Get(name, 0)
	if err != nil {
		return value.Value{}, false
	}
	return val, true
}

// CurrentFrame exposes the active call frame, for the debugger's
// backtrace and store-inspection commands.
func (v *VM) CurrentFrame() *Frame {
	return v.currentFrame()
}

// Step dispatches exactly one instruction and reports the value it
// produced (if any) and whether the program is now finished. It is the
// single-step primitive the debugger's step/next/continue commands are
// built on, reusing the same evaluate dispatch Run drives internally.
func (v *VM) Step() (*value.Value, bool, error) {
	if v.isFinished() {
		return nil, true, nil
	}

	next, ok := v.Code.Next()
	if !ok {
		return nil, true, nil
	}

	if v.tracer != nil {
		v.tracer.Record(trace.Entry{
			Pointer:      v.Code.Pointer - 1,
			Mnemonic:     next.Kind.String(),
			OperandDepth: v.Operand.Len(),
			FrameDepth:   len(v.Frames),
		})
	}

	result, err := v.evaluate(next)
	if err != nil {
		return nil, false, err
	}

	// A value-producing instruction reached as a top-level statement (as
	// opposed to someone else's inline argument, which consumes the
	// result directly) deposits its value onto the operand stack — the
	// same place an explicit "push" would have put it. This is what lets
	// "push A push B add printn pop" retrieve add's result: Push is the
	// only instruction that places a value on the operand stack
	// explicitly, everything else that produces one does so implicitly
	// when dispatched at this level.
	if result != nil {
		v.Operand.Push(*result)
	}
	return result, v.isFinished(), nil
}

// Run executes the program to completion, returning the final value if
// the last dispatched instruction was value-producing and the program
// then finished, or the first error encountered.
func (v *VM) Run() (*value.Value, error) {
	for {
		result, finished, err := v.Step()
		if err != nil {
			return nil, err
		}
		if finished {
			return result, nil
		}
	}
}

// evaluate dispatches on val's kind. It is the single recursion point
// that lets any instruction appear inline as an argument to another.
func (v *VM) evaluate(val value.Value) (*value.Value, error) {
	switch val.Kind {
	case value.Void, value.Any:
		return nil, nil

	case value.Int, value.Float, value.Bool, value.String:
		return &val, nil

	case value.Identifier:
		resolved, err := v.currentFrame().Store.Get(val.S, val.Pos)
		if err != nil {
			return nil, err
		}
		return &resolved, nil

	case value.Label:
		return nil, v.skipLabel(val)

	case value.End:
		return nil, v.doEnd(val.Pos)

	case value.Push:
		return nil, v.doPush(val.Pos)
	case value.Pop:
		return v.doPop(val.Pos)
	case value.Peek:
		return v.doPeek(val.Pos)

	case value.Add, value.Sub, value.Mul, value.Div, value.Mod:
		return v.doArithmetic(val)

	case value.Lt, value.Lte, value.Gt, value.Gte, value.Eq, value.Neq:
		return v.doComparison(val)

	case value.Jmp:
		return nil, v.doJump(val.Pos)
	case value.Rjmp:
		return nil, v.doRelativeJump(val.Pos)
	case value.JmpT:
		return nil, v.doConditionalJump(val.Pos, true, false)
	case value.JmpF:
		return nil, v.doConditionalJump(val.Pos, false, false)
	case value.RjmpT:
		return nil, v.doConditionalJump(val.Pos, true, true)
	case value.RjmpF:
		return nil, v.doConditionalJump(val.Pos, false, true)

	case value.Print:
		return nil, v.doPrint(val.Pos, false)
	case value.Printn:
		return nil, v.doPrint(val.Pos, true)

	case value.Set:
		return nil, v.doSet(val.Pos)

	case value.Call:
		return nil, v.doCall(val.Pos)

	default:
		return nil, dverr.New(dverr.ValueMismatch, val.Pos, "cannot evaluate %s as a value", val.Kind)
	}
}

// nextRaw reads the next value from the stream without evaluating it,
// failing ExpectedArgs if the stream is exhausted.
func (v *VM) nextRaw(pos int) (value.Value, error) {
	next, ok := v.Code.Next()
	if !ok {
		return value.Value{}, dverr.New(dverr.ExpectedArgs, pos, "expected an argument but found none")
	}
	return next, nil
}

// arg reads and recursively evaluates the next value, failing
// ExpectedArgs if the stream is exhausted or ValueMismatch if the
// argument evaluates to no value (a void-returning instruction used
// where a value is required).
func (v *VM) arg(pos int) (value.Value, error) {
	next, err := v.nextRaw(pos)
	if err != nil {
		return value.Value{}, err
	}
	result, err := v.evaluate(next)
	if err != nil {
		return value.Value{}, err
	}
	if result == nil {
		return value.Value{}, dverr.New(dverr.ValueMismatch, next.Pos, "expected a value-producing argument, got %s", next.Kind)
	}
	return *result, nil
}

func (v *VM) argInt(pos int) (int64, error) {
	arg, err := v.arg(pos)
	if err != nil {
		return 0, err
	}
	if arg.Kind != value.Int {
		return 0, dverr.New(dverr.ValueMismatch, arg.Pos, "expected an integer, got %s", arg.TypeName())
	}
	return arg.I, nil
}

// -- stack instructions --

func (v *VM) doPush(pos int) error {
	arg, err := v.arg(pos)
	if err != nil {
		return err
	}
	v.Operand.Push(arg)
	return nil
}

func (v *VM) doPop(pos int) (*value.Value, error) {
	popped, err := v.Operand.Pop(pos)
	if err != nil {
		return nil, err
	}
	return &popped, nil
}

func (v *VM) doPeek(pos int) (*value.Value, error) {
	top, ok := v.Operand.Peek()
	if !ok {
		void := value.NewVoid(pos)
		return &void, nil
	}
	return &top, nil
}

// -- arithmetic (operates on the operand stack; see popTwo for operand
// order) --

func (v *VM) doArithmetic(val value.Value) (*value.Value, error) {
	left, right, err := v.popTwo(val.Pos)
	if err != nil {
		return nil, err
	}

	var result value.Value
	switch val.Kind {
	case value.Add:
		result, err = left.Add(right, val.Pos)
	case value.Sub:
		result, err = left.Sub(right, val.Pos)
	case value.Mul:
		result, err = left.Mul(right, val.Pos)
	case value.Div:
		result, err = left.Div(right, val.Pos)
	case value.Mod:
		result, err = left.Mod(right, val.Pos)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// popTwo pops the operand stack twice: the stack top (most recently
// pushed) is the right operand, the value beneath it (pushed earlier)
// is the left operand. This is the RPN-calculator convention — "push A
// push B op" computes "A op B" — and it is what makes string
// concatenation of two pushed operands come out in push order.
func (v *VM) popTwo(pos int) (value.Value, value.Value, error) {
	right, err := v.Operand.Pop(pos)
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	left, err := v.Operand.Pop(pos)
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	return left, right, nil
}

// -- comparisons (read two inline args; first = left) --

func (v *VM) doComparison(val value.Value) (*value.Value, error) {
	left, err := v.arg(val.Pos)
	if err != nil {
		return nil, err
	}
	right, err := v.arg(val.Pos)
	if err != nil {
		return nil, err
	}

	var result value.Value
	switch val.Kind {
	case value.Lt:
		result, err = left.Lt(right, val.Pos)
	case value.Lte:
		result, err = left.Lte(right, val.Pos)
	case value.Gt:
		result, err = left.Gt(right, val.Pos)
	case value.Gte:
		result, err = left.Gte(right, val.Pos)
	case value.Eq:
		result = left.Eq(right, val.Pos)
	case value.Neq:
		result = left.Neq(right, val.Pos)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// -- jumps --

func (v *VM) doJump(pos int) error {
	target, err := v.argInt(pos)
	if err != nil {
		return err
	}
	return v.Code.JumpAbsolute(int(target), pos)
}

func (v *VM) doRelativeJump(pos int) error {
	delta, err := v.argInt(pos)
	if err != nil {
		return err
	}
	return v.Code.JumpRelative(int(delta), pos)
}

// doConditionalJump implements jmpt/jmpf/rjmpt/rjmpf uniformly. The
// target/delta argument is always evaluated (consumed) regardless of
// which way the branch goes, so the instruction stream never
// desynchronizes. The branch condition itself pops the operand stack.
func (v *VM) doConditionalJump(pos int, wantTruthy bool, relative bool) error {
	cond, err := v.Operand.Pop(pos)
	if err != nil {
		return err
	}

	if relative {
		delta, err := v.argInt(pos)
		if err != nil {
			return err
		}
		if cond.IsTruthy() == wantTruthy {
			return v.Code.JumpRelative(int(delta), pos)
		}
		return nil
	}

	target, err := v.argInt(pos)
	if err != nil {
		return err
	}
	if cond.IsTruthy() == wantTruthy {
		return v.Code.JumpAbsolute(int(target), pos)
	}
	return nil
}

// -- print --

func (v *VM) doPrint(pos int, newline bool) error {
	arg, err := v.arg(pos)
	if err != nil {
		return err
	}
	if newline {
		fmt.Fprintln(v.out, arg.String())
	} else {
		fmt.Fprint(v.out, arg.String())
	}
	return nil
}

// -- set --

func (v *VM) doSet(pos int) error {
	nameTok, err := v.nextRaw(pos)
	if err != nil {
		return err
	}
	if nameTok.Kind != value.Identifier {
		return dverr.New(dverr.ValueMismatch, nameTok.Pos, "expected an identifier after 'set', got %s", nameTok.Kind)
	}

	val, err := v.arg(nameTok.Pos)
	if err != nil {
		return err
	}

	v.currentFrame().Store.Define(nameTok.S, val)
	return nil
}

// -- call / end --

func (v *VM) doCall(pos int) error {
	nameTok, err := v.nextRaw(pos)
	if err != nil {
		return err
	}
	if nameTok.Kind != value.Identifier {
		return dverr.New(dverr.ValueMismatch, nameTok.Pos, "expected a label name after 'call', got %s", nameTok.Kind)
	}

	target, ok := v.Code.Labels[nameTok.S]
	if !ok {
		return dverr.New(dverr.UndefinedLabel, nameTok.Pos, "undefined label %q", nameTok.S)
	}

	if len(v.Frames) >= v.maxCallDepth {
		return dverr.New(dverr.StackOverflow, pos, "call stack exceeded maximum depth of %d", v.maxCallDepth)
	}

	callerIndex := v.Code.Pointer

	var parentStore *Store
	caller := v.currentFrame()
	if callerSpan, ok := v.Code.Labels[caller.Name]; ok {
		if callerSpan.Start < target.Start && target.End < callerSpan.End {
			parentStore = caller.Store
		}
	}

	v.Frames = append(v.Frames, NewFrame(callerIndex, nameTok.S, parentStore))
	return v.Code.JumpAbsolute(target.Start+1, pos)
}

func (v *VM) doEnd(pos int) error {
	frame := v.Frames[len(v.Frames)-1]
	v.Frames = v.Frames[:len(v.Frames)-1]
	return v.Code.JumpAbsolute(frame.CallerIndex, pos)
}

// skipLabel implements the "Label(name): skip forward until matching end
// is consumed" dispatch rule for labels reached by straight-line fall
// through rather than call.
func (v *VM) skipLabel(val value.Value) error {
	entry, ok := v.Code.Labels[val.S]
	if !ok {
		return dverr.New(dverr.UndefinedLabel, val.Pos, "undefined label %q", val.S)
	}
	return v.Code.JumpAbsolute(entry.End+1, val.Pos)
}

