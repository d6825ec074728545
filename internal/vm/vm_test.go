package vm

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/hacker007/darkvm/internal/code"
	"github.com/hacker007/darkvm/internal/dverr"
	"github.com/hacker007/darkvm/internal/lexer"
)

func build(t *testing.T, src string) *code.Code {
	t.Helper()
	toks, err := lexer.New().Lex(src)
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	c, err := code.Load(toks)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return c
}

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	machine := New(build(t, src), WithOutput(&buf))
	_, err := machine.Run()
	return buf.String(), err
}

func TestRunPushPrint(t *testing.T) {
	out, err := run(t, "@main push 42 print pop end")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "42" {
		t.Errorf("output = %q, want 42", out)
	}
}

func TestRunArithmetic(t *testing.T) {
	out, err := run(t, "@main push 2 push 3 print add end")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "5" {
		t.Errorf("output = %q, want 5", out)
	}
}

func TestRunSetAndIdentifierLookup(t *testing.T) {
	out, err := run(t, "@main set x 10 push x printn pop end")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "10\n" {
		t.Errorf("output = %q, want 10\\n", out)
	}
}

func TestRunConditionalJumpNotTaken(t *testing.T) {
	src := `
@main
  push false
  jmpt 999
  print 111
end
`
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "111" {
		t.Errorf("output = %q, want 111 (branch not taken, target arg still consumed)", out)
	}
}

func TestRunJumpToEndOfProgram(t *testing.T) {
	// The jump target is computed from the assembled token count so the
	// test never hard-codes a stream index.
	placeholder := build(t, "@main jmp 0 print 999 end")
	target := len(placeholder.Values)
	src := fmt.Sprintf("@main jmp %d print 999 end", target)

	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty (jump past print)", out)
	}
}

func TestRunCallAndEnd(t *testing.T) {
	src := `
@main
  call helper
  print 1
  end
@helper
  print 0
end
`
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "01" {
		t.Errorf("output = %q, want 01", out)
	}
}

func TestRunUndefinedVariable(t *testing.T) {
	_, err := run(t, "@main push nosuch print end")
	derr, ok := err.(*dverr.Error)
	if !ok || derr.Kind != dverr.UndefinedVariable {
		t.Fatalf("expected UndefinedVariable, got %v", err)
	}
}

func TestRunDivisionByZero(t *testing.T) {
	// The right operand is whatever was pushed last (the stack top), so
	// push 1 then 0 to divide 1 by the zero pushed second.
	_, err := run(t, "@main push 1 push 0 print div end")
	derr, ok := err.(*dverr.Error)
	if !ok || derr.Kind != dverr.DivisionByZero {
		t.Fatalf("expected DivisionByZero, got %v", err)
	}
}

func TestRunStackOverflowFromDeepRecursion(t *testing.T) {
	src := `
@main
  call loop
  end
@loop
  call loop
end
`
	machine := New(build(t, src), WithOutput(&bytes.Buffer{}), WithMaxCallDepth(8))
	_, err := machine.Run()
	derr, ok := err.(*dverr.Error)
	if !ok || derr.Kind != dverr.StackOverflow {
		t.Fatalf("expected StackOverflow, got %v", err)
	}
}

func TestStepSingleInstruction(t *testing.T) {
	machine := New(build(t, "@main push 1 push 2 add end"), WithOutput(&bytes.Buffer{}))

	for i := 0; i < 2; i++ {
		_, finished, err := machine.Step()
		if err != nil {
			t.Fatalf("unexpected step error: %v", err)
		}
		if finished {
			t.Fatalf("program finished too early at step %d", i)
		}
	}

	if machine.Operand.Len() != 2 {
		t.Errorf("operand stack depth = %d, want 2 after two pushes", machine.Operand.Len())
	}
}

func TestLookupVariable(t *testing.T) {
	machine := New(build(t, "@main set y 5 end"), WithOutput(&bytes.Buffer{}))
	if _, _, err := machine.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	v, ok := machine.LookupVariable("y")
	if !ok || v.I != 5 {
		t.Fatalf("LookupVariable(y) = %+v, ok=%v", v, ok)
	}

	if _, ok := machine.LookupVariable("nope"); ok {
		t.Error("LookupVariable should report false for an undefined name")
	}
}

func TestCurrentFrameStartsAsMain(t *testing.T) {
	machine := New(build(t, "@main end"))
	if machine.CurrentFrame().Name != "main" {
		t.Errorf("initial frame name = %q, want main", machine.CurrentFrame().Name)
	}
}

func TestIsFinishedAfterRun(t *testing.T) {
	machine := New(build(t, "@main end"), WithOutput(&bytes.Buffer{}))
	if machine.IsFinished() {
		t.Error("should not be finished before running")
	}
	if _, err := machine.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !machine.IsFinished() {
		t.Error("should be finished after Run completes")
	}
}
