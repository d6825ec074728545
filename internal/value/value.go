// Package value implements DarkVM's Value schema: a structural projection
// of Token (position + tagged kind) shared throughout the linearized
// program stream, plus the immutable arithmetic/comparison/truthiness
// methods defined over literal values.
package value

import (
	"fmt"
	"strconv"

	"github.com/hacker007/darkvm/internal/dverr"
	"github.com/hacker007/darkvm/internal/token"
)

// Kind mirrors token.Kind: literal and instruction variants are a 1:1
// projection, and Kind is an alias of token.Kind rather than a distinct
// type.
type Kind = token.Kind

// Re-exported for readability at call sites (value.Void instead of
// token.Void, etc.) without duplicating the enum.
const (
	Void           = token.Void
	Any            = token.Any
	Int            = token.IntegerLiteral
	Float          = token.FloatLiteral
	Bool           = token.BooleanLiteral
	String         = token.StringLiteral
	Identifier     = token.Identifier
	Label          = token.Label
	End            = token.End
	Push           = token.Push
	Pop            = token.Pop
	Peek           = token.Peek
	Add            = token.Add
	Sub            = token.Sub
	Mul            = token.Mul
	Div            = token.Div
	Mod            = token.Mod
	Lt             = token.Lt
	Lte            = token.Lte
	Gt             = token.Gt
	Gte            = token.Gte
	Eq             = token.Eq
	Neq            = token.Neq
	Jmp            = token.Jmp
	Rjmp           = token.Rjmp
	JmpT           = token.JmpT
	JmpF           = token.JmpF
	RjmpT          = token.RjmpT
	RjmpF          = token.RjmpF
	Print          = token.Print
	Printn         = token.Printn
	Set            = token.Set
	Call           = token.Call
)

// epsilon is the tolerance used for float equality and for the
// division-by-zero check on float divisors, an EPSILON-scale comparison
// rather than exact float equality. Float truthiness does not use it.
const epsilon = 1e-9

// Value is a shared, immutable position-tagged datum. Arithmetic and
// comparison methods never mutate their receiver or argument; they
// produce a fresh Value.
type Value struct {
	Pos    int
	Kind   Kind
	I      int64
	F      float64
	B      bool
	S      string
	Params []string
}

// FromToken projects a Token into a Value. Literal and instruction kinds
// are carried through unchanged as a straight projection between the
// lexer's output and the loader's indexed stream.
func FromToken(t token.Token) Value {
	return Value{
		Pos:    t.Pos,
		Kind:   t.Kind,
		I:      t.Int,
		F:      t.Float,
		B:      t.Bool,
		S:      t.Str,
		Params: t.Params,
	}
}

func NewInt(pos int, v int64) Value     { return Value{Pos: pos, Kind: Int, I: v} }
func NewFloat(pos int, v float64) Value { return Value{Pos: pos, Kind: Float, F: v} }
func NewBool(pos int, v bool) Value     { return Value{Pos: pos, Kind: Bool, B: v} }
func NewString(pos int, v string) Value { return Value{Pos: pos, Kind: String, S: v} }
func NewVoid(pos int) Value             { return Value{Pos: pos, Kind: Void} }

// TypeName returns a short lower-case name for the value's kind, used in
// UnsupportedOperation / ValueMismatch diagnostics.
func (v Value) TypeName() string {
	switch v.Kind {
	case Void:
		return "void"
	case Any:
		return "any"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Identifier:
		return "identifier"
	case Label:
		return "label"
	default:
		return v.Kind.String()
	}
}

// String renders the value's canonical textual form, used both by
// Print/Printn and by Add's mixed-type string-concatenation rule.
func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Float:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case Bool:
		if v.B {
			return "true"
		}
		return "false"
	case String:
		return v.S
	case Void:
		return "void"
	case Any:
		return "any"
	case Identifier:
		return v.S
	default:
		return v.Kind.String()
	}
}

func unsupported(op string, a, b Value, pos int) error {
	return dverr.New(dverr.UnsupportedOperation, pos,
		"unsupported operation %s between %s and %s", op, a.TypeName(), b.TypeName())
}

// Add implements the promotion rule: string+string concatenates; a
// string paired with any non-Void value stringifies the other operand
// first; numeric pairs promote int/float to float when mixed.
func (a Value) Add(b Value, pos int) (Value, error) {
	switch {
	case a.Kind == String && b.Kind == String:
		return NewString(pos, a.S+b.S), nil
	case b.Kind == String && a.Kind != Void:
		return NewString(pos, a.String()+b.S), nil
	case a.Kind == String && b.Kind != Void:
		return NewString(pos, a.S+b.String()), nil
	case a.Kind == Int && b.Kind == Int:
		return NewInt(pos, a.I+b.I), nil
	case a.Kind == Int && b.Kind == Float:
		return NewFloat(pos, float64(a.I)+b.F), nil
	case a.Kind == Float && b.Kind == Int:
		return NewFloat(pos, a.F+float64(b.I)), nil
	case a.Kind == Float && b.Kind == Float:
		return NewFloat(pos, a.F+b.F), nil
	default:
		return Value{}, unsupported("add", a, b, pos)
	}
}

// Sub implements numeric-only subtraction with int/float promotion.
func (a Value) Sub(b Value, pos int) (Value, error) {
	switch {
	case a.Kind == Int && b.Kind == Int:
		return NewInt(pos, a.I-b.I), nil
	case a.Kind == Int && b.Kind == Float:
		return NewFloat(pos, float64(a.I)-b.F), nil
	case a.Kind == Float && b.Kind == Int:
		return NewFloat(pos, a.F-float64(b.I)), nil
	case a.Kind == Float && b.Kind == Float:
		return NewFloat(pos, a.F-b.F), nil
	default:
		return Value{}, unsupported("sub", a, b, pos)
	}
}

// Mul implements numeric promotion like Add, plus string repetition when
// one operand is a string and the other an int (repeat count = abs(int)).
func (a Value) Mul(b Value, pos int) (Value, error) {
	switch {
	case a.Kind == String && b.Kind == Int:
		return NewString(pos, repeat(a.S, b.I)), nil
	case a.Kind == Int && b.Kind == String:
		return NewString(pos, repeat(b.S, a.I)), nil
	case a.Kind == Int && b.Kind == Int:
		return NewInt(pos, a.I*b.I), nil
	case a.Kind == Int && b.Kind == Float:
		return NewFloat(pos, float64(a.I)*b.F), nil
	case a.Kind == Float && b.Kind == Int:
		return NewFloat(pos, a.F*float64(b.I)), nil
	case a.Kind == Float && b.Kind == Float:
		return NewFloat(pos, a.F*b.F), nil
	default:
		return Value{}, unsupported("mul", a, b, pos)
	}
}

func repeat(s string, count int64) string {
	n := count
	if n < 0 {
		n = -n
	}
	out := make([]byte, 0, len(s)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

// Div implements numeric division with int/float promotion; division by
// a value of (near-)zero magnitude is DivisionByZero rather than a
// language-level infinity/NaN.
func (a Value) Div(b Value, pos int) (Value, error) {
	switch {
	case a.Kind == Int && b.Kind == Int:
		if b.I == 0 {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewInt(pos, a.I/b.I), nil
	case a.Kind == Int && b.Kind == Float:
		if magnitude(b.F) < epsilon {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewFloat(pos, float64(a.I)/b.F), nil
	case a.Kind == Float && b.Kind == Int:
		if b.I == 0 {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewFloat(pos, a.F/float64(b.I)), nil
	case a.Kind == Float && b.Kind == Float:
		if magnitude(b.F) < epsilon {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewFloat(pos, a.F/b.F), nil
	default:
		return Value{}, unsupported("div", a, b, pos)
	}
}

// Mod follows Div's promotion and zero-check rules but yields a
// remainder.
func (a Value) Mod(b Value, pos int) (Value, error) {
	switch {
	case a.Kind == Int && b.Kind == Int:
		if b.I == 0 {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewInt(pos, a.I%b.I), nil
	case a.Kind == Int && b.Kind == Float:
		if magnitude(b.F) < epsilon {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewFloat(pos, fmod(float64(a.I), b.F)), nil
	case a.Kind == Float && b.Kind == Int:
		if b.I == 0 {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewFloat(pos, fmod(a.F, float64(b.I))), nil
	case a.Kind == Float && b.Kind == Float:
		if magnitude(b.F) < epsilon {
			return Value{}, dverr.New(dverr.DivisionByZero, pos, "division by zero")
		}
		return NewFloat(pos, fmod(a.F, b.F)), nil
	default:
		return Value{}, unsupported("mod", a, b, pos)
	}
}

func magnitude(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func fmod(a, b float64) float64 {
	return a - b*float64(int64(a/b))
}

// Lt, Lte, Gt, Gte are defined only on same-type pairs of int, float, or
// string (lexicographic); anything else is UnsupportedOperation.
func (a Value) Lt(b Value, pos int) (Value, error) {
	return a.compare("lt", b, pos,
		func() bool { return a.I < b.I },
		func() bool { return a.F < b.F },
		func() bool { return a.S < b.S })
}

func (a Value) Lte(b Value, pos int) (Value, error) {
	return a.compare("lte", b, pos,
		func() bool { return a.I <= b.I },
		func() bool { return a.F <= b.F },
		func() bool { return a.S <= b.S })
}

func (a Value) Gt(b Value, pos int) (Value, error) {
	return a.compare("gt", b, pos,
		func() bool { return a.I > b.I },
		func() bool { return a.F > b.F },
		func() bool { return a.S > b.S })
}

func (a Value) Gte(b Value, pos int) (Value, error) {
	return a.compare("gte", b, pos,
		func() bool { return a.I >= b.I },
		func() bool { return a.F >= b.F },
		func() bool { return a.S >= b.S })
}

func (a Value) compare(op string, b Value, pos int, onInt, onFloat, onString func() bool) (Value, error) {
	switch {
	case a.Kind == Int && b.Kind == Int:
		return NewBool(pos, onInt()), nil
	case a.Kind == Float && b.Kind == Float:
		return NewBool(pos, onFloat()), nil
	case a.Kind == String && b.Kind == String:
		return NewBool(pos, onString()), nil
	default:
		return Value{}, unsupported(op, a, b, pos)
	}
}

// Eq is total: same-type pairs compare structurally (floats within
// epsilon), any cross-type pair is simply false. It never errors.
func (a Value) Eq(b Value, pos int) Value {
	switch {
	case a.Kind == Int && b.Kind == Int:
		return NewBool(pos, a.I == b.I)
	case a.Kind == Float && b.Kind == Float:
		return NewBool(pos, magnitude(a.F-b.F) < epsilon)
	case a.Kind == Bool && b.Kind == Bool:
		return NewBool(pos, a.B == b.B)
	case a.Kind == String && b.Kind == String:
		return NewBool(pos, a.S == b.S)
	default:
		return NewBool(pos, false)
	}
}

// Neq is Eq's total complement.
func (a Value) Neq(b Value, pos int) Value {
	eq := a.Eq(b, pos)
	return NewBool(pos, !eq.B)
}

// IsTruthy reports whether v counts as true in a conditional jump.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case Int:
		return v.I != 0
	case Float:
		return !isNaN(v.F) && !isInf(v.F) && v.F != 0
	case Bool:
		return v.B
	case String:
		return v.S != ""
	default:
		return false
	}
}

func isNaN(f float64) bool { return f != f }
func isInf(f float64) bool { return f > maxFloat || f < -maxFloat }

const maxFloat = 1.7976931348623157e+308

// GoString supports debug dumping (e.g. the -m machine-state flag).
func (v Value) GoString() string {
	return fmt.Sprintf("Value{Kind:%s, %s}", v.Kind, v.String())
}
