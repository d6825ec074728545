package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hacker007/darkvm/internal/value"
	"github.com/hacker007/darkvm/internal/vm"
)

// ExpressionEvaluator evaluates the small expression language accepted
// by breakpoint conditions, watch expressions, and the print command:
// variable names, int/float/bool/string literals, and the four
// arithmetic operators over them. It keeps a history of evaluated
// results addressable as $1, $2, ....
type ExpressionEvaluator struct {
	history []value.Value
}

// NewExpressionEvaluator creates an empty evaluator.
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// EvaluateExpression evaluates expr and records the result in history.
func (e *ExpressionEvaluator) EvaluateExpression(expr string, machine *vm.VM) (value.Value, error) {
	result, err := e.evaluate(expr, machine)
	if err != nil {
		return value.Value{}, err
	}
	e.history = append(e.history, result)
	return result, nil
}

// Evaluate evaluates expr as a breakpoint/watch condition and reports
// its truthiness per value.Value.IsTruthy.
func (e *ExpressionEvaluator) Evaluate(expr string, machine *vm.VM) (bool, error) {
	result, err := e.evaluate(expr, machine)
	if err != nil {
		return false, err
	}
	return result.IsTruthy(), nil
}

// GetValue returns a recorded history value by its 1-based $-number.
func (e *ExpressionEvaluator) GetValue(number int) (value.Value, error) {
	if number < 1 || number > len(e.history) {
		return value.Value{}, fmt.Errorf("value $%d not in history", number)
	}
	return e.history[number-1], nil
}

// evaluate is the main evaluation entry point: try a simple atom first,
// then fall back to a single binary operator split via a
// whitespace-delimited search rather than a real tokenizer, since the
// expressions the debugger accepts are short.
func (e *ExpressionEvaluator) evaluate(expr string, machine *vm.VM) (value.Value, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return value.Value{}, fmt.Errorf("empty expression")
	}

	if val, err := e.trySimpleEval(expr, machine); err == nil {
		return val, nil
	}

	for _, op := range []string{"+", "-", "*", "/"} {
		for _, pattern := range []string{" " + op + " ", " " + op, op + " "} {
			idx := strings.Index(expr, pattern)
			if idx < 0 {
				continue
			}
			opPos := idx
			if pattern[0] == ' ' {
				opPos++
			}
			left := strings.TrimSpace(expr[:opPos])
			right := strings.TrimSpace(expr[opPos+len(op):])
			if left == "" || right == "" {
				continue
			}

			leftVal, err := e.evaluate(left, machine)
			if err != nil {
				continue
			}
			rightVal, err := e.evaluate(right, machine)
			if err != nil {
				continue
			}
			return e.applyOperator(leftVal, rightVal, op)
		}
	}

	return value.Value{}, fmt.Errorf("invalid expression: %s", expr)
}

// trySimpleEval evaluates expr as a single atom: a history reference,
// a variable in the current frame's store, or a literal.
func (e *ExpressionEvaluator) trySimpleEval(expr string, machine *vm.VM) (value.Value, error) {
	expr = strings.TrimSpace(expr)

	if strings.HasPrefix(expr, "$") {
		num, err := strconv.Atoi(expr[1:])
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid value reference: %s", expr)
		}
		return e.GetValue(num)
	}

	if expr == "top" || expr == "peek" {
		if top, ok := machine.Operand.Peek(); ok {
			return top, nil
		}
		return value.Value{}, fmt.Errorf("operand stack is empty")
	}

	if val, ok := machine.LookupVariable(expr); ok {
		return val, nil
	}

	return parseLiteral(expr)
}

// parseLiteral parses expr as an int, float, bool, or quoted string
// literal, in that order.
func parseLiteral(expr string) (value.Value, error) {
	switch expr {
	case "true":
		return value.NewBool(0, true), nil
	case "false":
		return value.NewBool(0, false), nil
	}

	if strings.HasPrefix(expr, `"`) && strings.HasSuffix(expr, `"`) && len(expr) >= 2 {
		return value.NewString(0, expr[1:len(expr)-1]), nil
	}

	if i, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return value.NewInt(0, i), nil
	}

	if f, err := strconv.ParseFloat(expr, 64); err == nil {
		return value.NewFloat(0, f), nil
	}

	return value.Value{}, fmt.Errorf("unknown identifier: %s", expr)
}

func (e *ExpressionEvaluator) applyOperator(left, right value.Value, op string) (value.Value, error) {
	switch op {
	case "+":
		return left.Add(right, 0)
	case "-":
		return left.Sub(right, 0)
	case "*":
		return left.Mul(right, 0)
	case "/":
		return left.Div(right, 0)
	default:
		return value.Value{}, fmt.Errorf("unknown operator: %s", op)
	}
}

// Reset clears the evaluator's value history.
func (e *ExpressionEvaluator) Reset() {
	e.history = e.history[:0]
}
