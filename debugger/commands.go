package debugger

import (
	"fmt"
	"strconv"
	"strings"
)

// cmdContinue resumes execution until a breakpoint, watchpoint, or
// program completion.
func (d *Debugger) cmdContinue(args []string) error {
	if d.VM.IsFinished() {
		return fmt.Errorf("program is not running")
	}

	d.StepMode = StepNone
	d.Running = true
	d.Println("Continuing...")
	return nil
}

// cmdStep executes a single dispatched instruction.
func (d *Debugger) cmdStep(args []string) error {
	d.StepMode = StepSingle
	d.Running = true
	return nil
}

// cmdNext steps over a call instruction rather than descending into it.
func (d *Debugger) cmdNext(args []string) error {
	d.SetStepOver()
	return nil
}

// cmdFinish runs until the current call frame returns.
func (d *Debugger) cmdFinish(args []string) error {
	d.SetStepOut()
	return nil
}

// cmdBreak sets a breakpoint at a label or pointer index, optionally
// guarded by "if <condition>".
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <label|pointer> [if <condition>]")
	}

	target, err := d.ResolveTarget(args[0])
	if err != nil {
		return err
	}

	var condition string
	if len(args) > 1 && strings.EqualFold(args[1], "if") {
		condition = strings.Join(args[2:], " ")
	}

	bp := d.Breakpoints.AddBreakpoint(target, false, condition)
	if condition != "" {
		d.Printf("Breakpoint %d at %d (condition: %s)\n", bp.ID, target, condition)
	} else {
		d.Printf("Breakpoint %d at %d\n", bp.ID, target)
	}

	return nil
}

// cmdTBreak sets a breakpoint that deletes itself after its first hit.
func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <label|pointer>")
	}

	target, err := d.ResolveTarget(args[0])
	if err != nil {
		return err
	}

	bp := d.Breakpoints.AddBreakpoint(target, true, "")
	d.Printf("Temporary breakpoint %d at %d\n", bp.ID, target)
	return nil
}

// cmdDelete deletes one breakpoint by ID, or all if no ID is given.
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}
	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdWatch sets a watchpoint on a named variable.
func (d *Debugger) cmdWatch(args []string) error {
	return d.addWatch(args, WatchWrite, "Watchpoint")
}

func (d *Debugger) cmdRWatch(args []string) error {
	return d.addWatch(args, WatchRead, "Read watchpoint")
}

func (d *Debugger) cmdAWatch(args []string) error {
	return d.addWatch(args, WatchReadWrite, "Access watchpoint")
}

func (d *Debugger) addWatch(args []string, kind WatchType, label string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <variable>")
	}

	expression := strings.Join(args, " ")
	wp := d.Watchpoints.AddWatchpoint(kind, expression)
	if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.VM); err != nil {
		_ = d.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	d.Printf("%s %d: %s\n", label, wp.ID, expression)
	return nil
}

// cmdPrint evaluates an expression against the current frame and
// prints its value, recording it in the evaluator's $-history.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}

	expression := strings.Join(args, " ")
	result, err := d.Evaluator.EvaluateExpression(expression, d.VM)
	if err != nil {
		return err
	}

	d.Printf("$%d = %s\n", len(d.Evaluator.history), result.String())
	return nil
}

// cmdInfo displays breakpoints, watchpoints, the operand stack, or the
// call stack.
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <breakpoints|watchpoints|stack|frames>")
	}

	switch strings.ToLower(args[0]) {
	case "breakpoints", "break", "b":
		return d.showBreakpoints()
	case "watchpoints", "watch", "w":
		return d.showWatchpoints()
	case "stack", "s":
		return d.showStack()
	case "frames", "f":
		return d.cmdBacktrace(nil)
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

func (d *Debugger) showBreakpoints() error {
	breakpoints := d.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		d.Println("No breakpoints")
		return nil
	}

	d.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}
		condition := ""
		if bp.Condition != "" {
			condition = fmt.Sprintf(" if %s", bp.Condition)
		}
		d.Printf("  %d: pointer %d %s%s%s (hit %d times)\n",
			bp.ID, bp.Pointer, status, temp, condition, bp.HitCount)
	}

	return nil
}

func (d *Debugger) showWatchpoints() error {
	watchpoints := d.Watchpoints.GetAllWatchpoints()
	if len(watchpoints) == 0 {
		d.Println("No watchpoints")
		return nil
	}

	d.Println("Watchpoints:")
	for _, wp := range watchpoints {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}

		last := "<unset>"
		if wp.LastValue != nil {
			last = wp.LastValue.String()
		}

		d.Printf("  %d: %s %s (hit %d times, last value: %s)\n",
			wp.ID, wp.Expression, status, wp.HitCount, last)
	}

	return nil
}

// showStack displays the operand stack, top first.
func (d *Debugger) showStack() error {
	items := d.VM.Operand.Items()
	d.Printf("Operand stack (%d):\n", len(items))
	for i := len(items) - 1; i >= 0; i-- {
		d.Printf("  [%d] %s\n", i, items[i].String())
	}
	return nil
}

// cmdBacktrace shows the call-frame stack, innermost first.
func (d *Debugger) cmdBacktrace(args []string) error {
	d.Println("Call stack:")
	for i := len(d.VM.Frames) - 1; i >= 0; i-- {
		f := d.VM.Frames[i]
		d.Printf("  #%d  %s (returns to pointer %d)\n", len(d.VM.Frames)-1-i, f.Name, f.CallerIndex)
	}
	return nil
}

// cmdList shows the mnemonic stream around the current pointer.
func (d *Debugger) cmdList(args []string) error {
	pointer := d.VM.Code.Pointer
	values := d.VM.Code.Values

	lo := pointer - CodeContextBeforeCompact
	if lo < 0 {
		lo = 0
	}
	hi := pointer + CodeContextAfterCompact
	if hi > len(values) {
		hi = len(values)
	}

	for i := lo; i < hi; i++ {
		marker := "  "
		if i == pointer {
			marker = "=>"
		}
		d.Printf("%s %4d: %s\n", marker, i, values[i].Kind.String())
	}

	return nil
}

// cmdSet defines or overwrites a variable in the current frame's store.
func (d *Debugger) cmdSet(args []string) error {
	if len(args) < 3 || args[1] != "=" {
		return fmt.Errorf("usage: set <variable> = <expression>")
	}

	name := args[0]
	expression := strings.Join(args[2:], " ")

	val, err := d.Evaluator.EvaluateExpression(expression, d.VM)
	if err != nil {
		return err
	}

	d.VM.CurrentFrame().Store.Define(name, val)
	d.Printf("%s set to %s\n", name, val.String())
	return nil
}

// cmdHelp prints the command reference.
func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("DarkVM debugger commands:")
	d.Println()
	d.Println("Execution control:")
	d.Println("  continue (c)      - Resume execution")
	d.Println("  step (s, si)      - Execute a single instruction")
	d.Println("  next (n)          - Step over a call instruction")
	d.Println("  finish (fin)      - Run until the current frame returns")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <target>       - Set a breakpoint")
	d.Println("  tbreak (tb) <target>     - Set a one-shot breakpoint")
	d.Println("  delete (d) [id]          - Delete breakpoint(s)")
	d.Println("  enable/disable <id>      - Toggle a breakpoint")
	d.Println()
	d.Println("Watchpoints:")
	d.Println("  watch (w) <variable>     - Watch a variable for changes")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <expression>   - Evaluate an expression")
	d.Println("  info (i) <what>          - Show breakpoints/watchpoints/stack/frames")
	d.Println("  backtrace (bt)           - Show the call stack")
	d.Println("  list (l)                 - List instructions near the pointer")
	d.Println()
	d.Println("Modification:")
	d.Println("  set <variable> = <expr>  - Define or overwrite a variable")
	d.Println()
	d.Println("  help (h, ?)              - Show this help")

	return nil
}

func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <label|pointer> [if <condition>]\n  Set a breakpoint. An optional condition is evaluated on every hit.",
		"step":  "step\n  Execute a single instruction.",
		"next":  "next\n  Step over a call instruction instead of descending into it.",
		"print": "print <expression>\n  Evaluate and print an expression: variables, literals, top/peek, and + - * /.",
		"info":  "info <breakpoints|watchpoints|stack|frames>\n  Display debugger and VM state.",
	}

	if help, exists := helpText[cmd]; exists {
		d.Println(help)
		return nil
	}

	return fmt.Errorf("no help available for command: %s", cmd)
}
