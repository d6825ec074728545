// Package debugger implements an interactive front-end over
// internal/vm.VM: a command-driven debugger core (debugger.go,
// commands.go) plus a tview TUI (tui.go) and a fyne GUI (gui.go),
// built around DarkVM's operand stack, call frames, and
// lexically-scoped variable stores.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hacker007/darkvm/internal/vm"
)

// Debugger holds the interactive debugging session state layered over
// a running VM.
type Debugger struct {
	VM     *vm.VM
	Source string

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Running  bool
	StepMode StepMode

	// StepOverFrameDepth records the call-frame depth to step back down
	// to when StepMode is StepOver or StepOut.
	StepOverFrameDepth int

	LastCommand string
	Output      strings.Builder
}

// StepMode controls when the front-ends' run loops (CLI, TUI, GUI) stop
// advancing the VM, as checked by ShouldBreak.
type StepMode int

const (
	StepNone   StepMode = iota
	StepSingle          // stop after exactly one dispatched instruction
	StepOver            // stop once the frame stack returns to StepOverFrameDepth
	StepOut             // stop once the frame stack depth drops below StepOverFrameDepth
)

// NewDebugger wraps machine in a debugging session. source is the
// original program text, kept for error rendering and listings.
func NewDebugger(machine *vm.VM, source string) *Debugger {
	return &Debugger{
		VM:          machine,
		Source:      source,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		Evaluator:   NewExpressionEvaluator(),
		StepMode:    StepNone,
	}
}

// ResolveTarget resolves a label name or a bare instruction pointer
// index to a pointer index in the program's value stream.
func (d *Debugger) ResolveTarget(s string) (int, error) {
	if entry, ok := d.VM.Code.Labels[s]; ok {
		return entry.Start, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a label or pointer index: %s", s)
	}
	return n, nil
}

// ExecuteCommand parses and dispatches one command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)

	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "watch", "w":
		return d.cmdWatch(args)
	case "rwatch":
		return d.cmdRWatch(args)
	case "awatch":
		return d.cmdAWatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "backtrace", "bt", "where":
		return d.cmdBacktrace(args)
	case "list", "l":
		return d.cmdList(args)

	case "set":
		return d.cmdSet(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak reports whether execution should pause at the VM's
// current instruction pointer, checking step mode, breakpoints, and
// watchpoints in that order.
func (d *Debugger) ShouldBreak() (bool, string) {
	pointer := d.VM.Code.Pointer

	switch d.StepMode {
	case StepSingle:
		d.StepMode = StepNone
		return true, "single step"

	case StepOver:
		if len(d.VM.Frames) <= d.StepOverFrameDepth {
			d.StepMode = StepNone
			return true, "step over complete"
		}

	case StepOut:
		if len(d.VM.Frames) < d.StepOverFrameDepth {
			d.StepMode = StepNone
			return true, "step out complete"
		}
	}

	if bp := d.Breakpoints.GetBreakpoint(pointer); bp != nil {
		if !bp.Enabled {
			return false, ""
		}

		if bp.Condition != "" {
			result, err := d.Evaluator.Evaluate(bp.Condition, d.VM)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !result {
				return false, ""
			}
		}

		bp.HitCount++
		if bp.Temporary {
			_ = d.Breakpoints.DeleteBreakpoint(bp.ID)
		}

		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.VM); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

// GetOutput returns and clears the accumulated output buffer.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}

// SetStepOver configures stepping over the call about to execute: it
// records the current frame depth so ShouldBreak can detect the
// matching return.
func (d *Debugger) SetStepOver() {
	d.StepOverFrameDepth = len(d.VM.Frames)
	d.StepMode = StepOver
	d.Running = true
}

// SetStepOut configures stepping out of the current frame.
func (d *Debugger) SetStepOut() {
	d.StepOverFrameDepth = len(d.VM.Frames) - 1
	d.StepMode = StepOut
	d.Running = true
}
