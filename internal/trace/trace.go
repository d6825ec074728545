// Package trace implements DarkVM's execution tracer: an optional,
// newline-delimited JSON record of each dispatched instruction.
package trace

import (
	"encoding/json"
	"io"
)

// Entry is one traced dispatch step.
type Entry struct {
	Pointer      int    `json:"pointer"`
	Mnemonic     string `json:"mnemonic"`
	OperandDepth int    `json:"operand_depth"`
	FrameDepth   int    `json:"frame_depth"`
}

// Tracer writes Entry records as newline-delimited JSON to an underlying
// writer. A nil *Tracer is valid and silently discards records, so
// callers need not branch on whether tracing is enabled.
type Tracer struct {
	enc *json.Encoder
}

// New wraps w as a Tracer. Pass nil to get a no-op tracer.
func New(w io.Writer) *Tracer {
	if w == nil {
		return nil
	}
	return &Tracer{enc: json.NewEncoder(w)}
}

// Record writes one entry. It is safe to call on a nil *Tracer.
func (t *Tracer) Record(e Entry) {
	if t == nil {
		return
	}
	// Trace output is best-effort diagnostics; a write failure must not
	// abort program execution.
	_ = t.enc.Encode(e)
}
