// Package dverr defines DarkVM's tagged error taxonomy and the
// pretty-printer that renders a position-carrying error against its
// original source text.
package dverr

import "fmt"

// Kind enumerates the error taxonomy from the lex, load, runtime, and
// driver groups.
type Kind int

const (
	// Lex
	UnknownCharacter Kind = iota
	InvalidNumberFormat
	InvalidLabelName
	UnterminatedString

	// Load
	DuplicateLabel
	NoMainLabel
	EndWithoutLabel
	NoEndOfLabel

	// Runtime
	EmptyStack
	ExpectedArgs
	ValueMismatch
	UnsupportedOperation
	DivisionByZero
	OutOfBounds
	UndefinedVariable
	UndefinedLabel
	StackOverflow

	// Driver
	UnrecognizedArgument
)

var kindNames = map[Kind]string{
	UnknownCharacter:      "UnknownCharacter",
	InvalidNumberFormat:   "InvalidNumberFormat",
	InvalidLabelName:      "InvalidLabelName",
	UnterminatedString:    "UnterminatedString",
	DuplicateLabel:        "DuplicateLabel",
	NoMainLabel:           "NoMainLabel",
	EndWithoutLabel:       "EndWithoutLabel",
	NoEndOfLabel:          "NoEndOfLabel",
	EmptyStack:            "EmptyStack",
	ExpectedArgs:          "ExpectedArgs",
	ValueMismatch:         "ValueMismatch",
	UnsupportedOperation:  "UnsupportedOperation",
	DivisionByZero:        "DivisionByZero",
	OutOfBounds:           "OutOfBounds",
	UndefinedVariable:     "UndefinedVariable",
	UndefinedLabel:        "UndefinedLabel",
	StackOverflow:         "StackOverflow",
	UnrecognizedArgument:  "UnrecognizedArgument",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a DarkVM diagnostic: a tagged Kind, a human-readable Message,
// and an optional source position. Errors without a position (e.g.
// NoMainLabel, UnrecognizedArgument) render as a plain message.
type Error struct {
	Kind    Kind
	Message string
	Pos     int
	HasPos  bool
}

func (e *Error) Error() string {
	if !e.HasPos {
		return e.Message
	}
	return fmt.Sprintf("%s (at offset %d)", e.Message, e.Pos)
}

// New creates a positioned error.
func New(kind Kind, pos int, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		HasPos:  true,
	}
}

// NewNoPos creates an error with no source position.
func NewNoPos(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}
