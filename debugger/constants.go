package debugger

// DisplayUpdateFrequency controls how often the TUI display refreshes
// during continuous execution (every N dispatched instructions), to
// keep the terminal responsive without redrawing on every step.
const DisplayUpdateFrequency = 100

// Code view context constants: how many surrounding values to show
// around the instruction pointer in the TUI's code panel.
const (
	CodeContextBefore        = 20
	CodeContextAfter         = 80
	CodeContextBeforeCompact = 5
	CodeContextAfterCompact  = 10
)

// OperandDisplayDepth is the number of operand stack entries shown in
// the TUI's stack panel.
const OperandDisplayDepth = 16

// FrameDisplayRows is the fixed height of the call-frame panel.
const FrameDisplayRows = 9
