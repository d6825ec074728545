package value

import (
	"testing"

	"github.com/hacker007/darkvm/internal/dverr"
)

func TestAddIntInt(t *testing.T) {
	v, err := NewInt(0, 2).Add(NewInt(0, 3), 0)
	if err != nil || v.I != 5 {
		t.Fatalf("2+3 = %+v, err=%v", v, err)
	}
}

func TestAddIntFloatPromotes(t *testing.T) {
	v, err := NewInt(0, 2).Add(NewFloat(0, 1.5), 0)
	if err != nil || v.Kind != Float || v.F != 3.5 {
		t.Fatalf("2+1.5 = %+v, err=%v", v, err)
	}
}

func TestAddStringConcat(t *testing.T) {
	v, err := NewString(0, "foo").Add(NewString(0, "bar"), 0)
	if err != nil || v.S != "foobar" {
		t.Fatalf("concat = %+v, err=%v", v, err)
	}
}

func TestAddStringWithNonString(t *testing.T) {
	v, err := NewString(0, "x=").Add(NewInt(0, 7), 0)
	if err != nil || v.S != "x=7" {
		t.Fatalf("string+int = %+v, err=%v", v, err)
	}
	v, err = NewInt(0, 7).Add(NewString(0, "=x"), 0)
	if err != nil || v.S != "7=x" {
		t.Fatalf("int+string = %+v, err=%v", v, err)
	}
}

func TestAddUnsupported(t *testing.T) {
	_, err := NewBool(0, true).Add(NewInt(0, 1), 0)
	derr, ok := err.(*dverr.Error)
	if !ok || derr.Kind != dverr.UnsupportedOperation {
		t.Fatalf("expected UnsupportedOperation, got %v", err)
	}
}

func TestMulStringRepeat(t *testing.T) {
	v, err := NewString(0, "ab").Mul(NewInt(0, 3), 0)
	if err != nil || v.S != "ababab" {
		t.Fatalf("ab*3 = %+v, err=%v", v, err)
	}
	v, err = NewInt(0, -2).Mul(NewString(0, "z"), 0)
	if err != nil || v.S != "zz" {
		t.Fatalf("-2*z (abs repeat) = %+v, err=%v", v, err)
	}
}

func TestDivByZero(t *testing.T) {
	_, err := NewInt(0, 1).Div(NewInt(0, 0), 0)
	derr, ok := err.(*dverr.Error)
	if !ok || derr.Kind != dverr.DivisionByZero {
		t.Fatalf("expected DivisionByZero, got %v", err)
	}
}

func TestDivFloatNearZero(t *testing.T) {
	_, err := NewFloat(0, 1.0).Div(NewFloat(0, 1e-12), 0)
	derr, ok := err.(*dverr.Error)
	if !ok || derr.Kind != dverr.DivisionByZero {
		t.Fatalf("expected DivisionByZero for near-zero divisor, got %v", err)
	}
}

func TestMod(t *testing.T) {
	v, err := NewInt(0, 7).Mod(NewInt(0, 3), 0)
	if err != nil || v.I != 1 {
		t.Fatalf("7%%3 = %+v, err=%v", v, err)
	}
}

func TestComparisons(t *testing.T) {
	v, err := NewInt(0, 1).Lt(NewInt(0, 2), 0)
	if err != nil || !v.B {
		t.Fatalf("1<2 = %+v, err=%v", v, err)
	}
	v, err = NewString(0, "a").Lt(NewString(0, "b"), 0)
	if err != nil || !v.B {
		t.Fatalf("a<b = %+v, err=%v", v, err)
	}
	_, err = NewInt(0, 1).Lt(NewString(0, "b"), 0)
	derr, ok := err.(*dverr.Error)
	if !ok || derr.Kind != dverr.UnsupportedOperation {
		t.Fatalf("expected UnsupportedOperation for cross-type compare, got %v", err)
	}
}

func TestEqIsTotal(t *testing.T) {
	if !NewInt(0, 1).Eq(NewInt(0, 1), 0).B {
		t.Error("1 == 1 should be true")
	}
	if NewInt(0, 1).Eq(NewString(0, "1"), 0).B {
		t.Error("cross-type Eq should be false, not an error")
	}
	if NewBool(0, true).Neq(NewBool(0, false), 0).B != true {
		t.Error("true != false should be true")
	}
}

func TestEqFloatEpsilon(t *testing.T) {
	if !NewFloat(0, 1.0).Eq(NewFloat(0, 1.0+1e-12), 0).B {
		t.Error("floats within epsilon should compare equal")
	}
}

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{NewInt(0, 0), false},
		{NewInt(0, 1), true},
		{NewFloat(0, 0), false},
		{NewFloat(0, 0.1), true},
		{NewBool(0, true), true},
		{NewBool(0, false), false},
		{NewString(0, ""), false},
		{NewString(0, "x"), true},
		{NewVoid(0), false},
	}
	for _, c := range cases {
		if got := c.v.IsTruthy(); got != c.want {
			t.Errorf("IsTruthy(%+v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestString(t *testing.T) {
	if NewInt(0, 42).String() != "42" {
		t.Error("int String")
	}
	if NewBool(0, true).String() != "true" {
		t.Error("bool String")
	}
	if NewString(0, "hi").String() != "hi" {
		t.Error("string String")
	}
	if NewVoid(0).String() != "void" {
		t.Error("void String")
	}
}

func TestTypeName(t *testing.T) {
	if NewInt(0, 1).TypeName() != "int" {
		t.Error("int TypeName")
	}
	if NewString(0, "").TypeName() != "string" {
		t.Error("string TypeName")
	}
}
