// Package token defines the lexical token schema produced by the lexer:
// a tagged union of literal kinds, identifiers, labels, end markers, and
// one variant per instruction mnemonic, each carrying a 1-based source
// position for diagnostics.
package token

import "fmt"

// Kind discriminates the tagged union of token variants.
type Kind int

const (
	Void Kind = iota
	Any
	IntegerLiteral
	FloatLiteral
	BooleanLiteral
	StringLiteral
	Identifier
	Label
	End

	// Instruction mnemonics, one variant each.
	Push
	Pop
	Peek
	Add
	Sub
	Mul
	Div
	Mod
	Lt
	Lte
	Gt
	Gte
	Eq
	Neq
	Jmp
	Rjmp
	JmpT
	JmpF
	RjmpT
	RjmpF
	Print
	Printn
	Set
	Call
)

var kindNames = map[Kind]string{
	Void:           "void",
	Any:            "any",
	IntegerLiteral: "integer literal",
	FloatLiteral:   "float literal",
	BooleanLiteral: "boolean literal",
	StringLiteral:  "string literal",
	Identifier:     "identifier",
	Label:          "label",
	End:            "end",
	Push:           "push",
	Pop:            "pop",
	Peek:           "peek",
	Add:            "add",
	Sub:            "sub",
	Mul:            "mul",
	Div:            "div",
	Mod:            "mod",
	Lt:             "lt",
	Lte:            "lte",
	Gt:             "gt",
	Gte:            "gte",
	Eq:             "eq",
	Neq:            "neq",
	Jmp:            "jmp",
	Rjmp:           "rjmp",
	JmpT:           "jmpt",
	JmpF:           "jmpf",
	RjmpT:          "rjmpt",
	RjmpF:          "rjmpf",
	Print:          "print",
	Printn:         "printn",
	Set:            "set",
	Call:           "call",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// mnemonics maps a lower-cased word to its instruction Kind. Identifiers,
// "void", "any", "true"/"false" and "end" are classified separately by the
// lexer and never appear here.
var mnemonics = map[string]Kind{
	"push":   Push,
	"pop":    Pop,
	"peek":   Peek,
	"add":    Add,
	"sub":    Sub,
	"mul":    Mul,
	"div":    Div,
	"mod":    Mod,
	"lt":     Lt,
	"lte":    Lte,
	"gt":     Gt,
	"gte":    Gte,
	"eq":     Eq,
	"neq":    Neq,
	"jmp":    Jmp,
	"rjmp":   Rjmp,
	"jmpt":   JmpT,
	"jmpf":   JmpF,
	"rjmpt":  RjmpT,
	"rjmpf":  RjmpF,
	"print":  Print,
	"printn": Printn,
	"set":    Set,
	"call":   Call,
}

// LookupMnemonic returns the instruction Kind for a lower-cased word, if any.
func LookupMnemonic(lowerWord string) (Kind, bool) {
	k, ok := mnemonics[lowerWord]
	return k, ok
}

// Token is a positioned, kind-tagged lexeme. Only the fields relevant to
// Kind are meaningful; e.g. Int is only valid when Kind == IntegerLiteral.
type Token struct {
	Pos    int // 1-based character offset of the first character of the token
	Kind   Kind
	Int    int64
	Float  float64
	Bool   bool
	Str    string   // StringLiteral contents (without quotes), Identifier/Label name
	Params []string // Label parameter names, declared but not yet bound at call sites
}

func New(pos int, kind Kind) Token {
	return Token{Pos: pos, Kind: kind}
}
