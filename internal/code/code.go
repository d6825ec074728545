// Package code implements the program loader: a single pass over the
// token sequence that resolves the "@label ... end" bracketing
// discipline, builds a label-name -> (start, end, parameters) table,
// detects duplicate labels and unbalanced end markers, and selects the
// entry point, over DarkVM's flat, index-addressable value stream.
package code

import (
	"github.com/hacker007/darkvm/internal/dverr"
	"github.com/hacker007/darkvm/internal/token"
	"github.com/hacker007/darkvm/internal/value"
)

// LabelEntry records a label's span in the value stream and its
// declared parameters, currently unconsumed at call sites.
type LabelEntry struct {
	Start      int
	End        int
	Parameters []string
}

// Code holds the linearized, index-addressable program and its label
// table, plus the evaluator's current instruction index.
type Code struct {
	Values  []value.Value
	Labels  map[string]LabelEntry
	Pointer int
}

type pendingLabel struct {
	start int
	pos   int
	name  string
}

// Load resolves tokens into a Code ready for normal execution: it
// requires exactly one "main" label and positions Pointer just past
// "@main".
func Load(tokens []token.Token) (*Code, error) {
	c, err := build(tokens)
	if err != nil {
		return nil, err
	}

	main, ok := c.Labels["main"]
	if !ok {
		return nil, dverr.NewNoPos(dverr.NoMainLabel, "no 'main' label found")
	}
	c.Pointer = main.Start + 1
	return c, nil
}

// LoadREPL performs the same validation as Load but does not require a
// "main" label and starts execution at the beginning of the stream —
// the variant a REPL front-end uses to run a bare sequence of
// instructions with no enclosing label.
func LoadREPL(tokens []token.Token) (*Code, error) {
	c, err := build(tokens)
	if err != nil {
		return nil, err
	}
	c.Pointer = 0
	return c, nil
}

// build performs the shared single pass over tokens that both Load and
// LoadREPL rely on: resolving label spans and validating bracketing.
func build(tokens []token.Token) (*Code, error) {
	c := &Code{
		Labels: make(map[string]LabelEntry),
	}

	var pending []pendingLabel

	for i, t := range tokens {
		v := value.FromToken(t)

		switch t.Kind {
		case token.Label:
			pending = append(pending, pendingLabel{start: i, pos: t.Pos, name: t.Str})
			c.Values = append(c.Values, v)

		case token.End:
			if len(pending) == 0 {
				return nil, dverr.New(dverr.EndWithoutLabel, t.Pos, "'end' without a matching label")
			}
			top := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			if _, exists := c.Labels[top.name]; exists {
				return nil, dverr.New(dverr.DuplicateLabel, top.pos, "duplicate label %q", top.name)
			}
			c.Labels[top.name] = LabelEntry{Start: top.start, End: i, Parameters: tokens[top.start].Params}
			c.Values = append(c.Values, v)

		default:
			c.Values = append(c.Values, v)
		}
	}

	if len(pending) > 0 {
		outer := pending[0]
		return nil, dverr.New(dverr.NoEndOfLabel, outer.pos, "label %q has no matching 'end'", outer.name)
	}

	return c, nil
}

// Next returns the value at Pointer and advances Pointer by one, or
// reports false if the stream is exhausted.
func (c *Code) Next() (value.Value, bool) {
	if c.Pointer >= len(c.Values) {
		return value.Value{}, false
	}
	v := c.Values[c.Pointer]
	c.Pointer++
	return v, true
}

// IsFinished reports whether the instruction pointer has run off the end
// of the value stream.
func (c *Code) IsFinished() bool {
	return c.Pointer >= len(c.Values)
}

// JumpAbsolute validates and performs an absolute jump: 0 <= target <= len.
func (c *Code) JumpAbsolute(target int, pos int) error {
	if target < 0 || target > len(c.Values) {
		return dverr.New(dverr.OutOfBounds, pos, "jump target %d out of bounds [0, %d]", target, len(c.Values))
	}
	c.Pointer = target
	return nil
}

// JumpRelative validates and performs a relative jump from the current
// pointer: -current <= delta <= len-current.
func (c *Code) JumpRelative(delta int, pos int) error {
	current := c.Pointer
	lo := -current
	hi := len(c.Values) - current
	if delta < lo || delta > hi {
		return dverr.New(dverr.OutOfBounds, pos, "relative jump delta %d out of bounds [%d, %d]", delta, lo, hi)
	}
	c.Pointer = current + delta
	return nil
}
