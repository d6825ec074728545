package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the terminal front-end over a Debugger, built with tview:
// panels show DarkVM's source, operand stack, call frames, and store.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	SourceView      *tview.TextView
	OperandView     *tview.TextView
	FramesView      *tview.TextView
	StoreView       *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI builds a TUI over debugger, ready to Run.
func NewTUI(debugger *Debugger) *TUI {
	return newTUI(debugger, nil)
}

// NewTUIWithScreen builds a TUI backed by an explicit tcell.Screen,
// letting tests drive it against a tcell.SimulationScreen instead of a
// real terminal.
func NewTUIWithScreen(debugger *Debugger, screen tcell.Screen) *TUI {
	return newTUI(debugger, screen)
}

func newTUI(debugger *Debugger, screen tcell.Screen) *TUI {
	tui := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication(),
	}
	if screen != nil {
		tui.App.SetScreen(screen)
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	return tui
}

func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Code ")

	t.OperandView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.OperandView.SetBorder(true).SetTitle(" Operand Stack ")

	t.FramesView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.FramesView.SetBorder(true).SetTitle(" Call Frames ")

	t.StoreView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StoreView.SetBorder(true).SetTitle(" Store ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.FramesView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.OperandView, 0, 2, false).
		AddItem(t.StoreView, 0, 2, false).
		AddItem(t.BreakpointsView, 0, 2, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()

	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	if t.Debugger.Running {
		t.runUntilStop()
	}

	t.RefreshAll()
}

// runUntilStop single-steps the VM until ShouldBreak fires or the
// program finishes, driving the same run loop the TUI's F5/F10/F11
// keys and "continue"/"next"/"step" commands all feed into.
func (t *TUI) runUntilStop() {
	steps := 0
	for t.Debugger.Running {
		if shouldBreak, reason := t.Debugger.ShouldBreak(); shouldBreak {
			t.Debugger.Running = false
			t.WriteOutput(fmt.Sprintf("Stopped: %s\n", reason))
			break
		}

		_, finished, err := t.Debugger.VM.Step()
		if err != nil {
			t.Debugger.Running = false
			t.WriteOutput(fmt.Sprintf("[red]Runtime error:[white] %v\n", err))
			break
		}
		if finished {
			t.Debugger.Running = false
			t.WriteOutput("Program finished\n")
			break
		}

		steps++
		if steps%DisplayUpdateFrequency == 0 {
			t.RefreshAll()
		}
	}
}

func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

func (t *TUI) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateOperandView()
	t.UpdateFramesView()
	t.UpdateStoreView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateSourceView shows the instruction stream around the pointer,
// marking the current instruction and any breakpoint on it.
func (t *TUI) UpdateSourceView() {
	t.SourceView.Clear()

	machine := t.Debugger.VM
	pointer := machine.Code.Pointer
	values := machine.Code.Values

	lo := pointer - CodeContextBefore
	if lo < 0 {
		lo = 0
	}
	hi := pointer + CodeContextAfter
	if hi > len(values) {
		hi = len(values)
	}

	var lines []string
	for i := lo; i < hi; i++ {
		marker := "  "
		color := "white"
		if i == pointer {
			marker = "->"
			color = "yellow"
		}
		if t.Debugger.Breakpoints.GetBreakpoint(i) != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s %4d: %s[white]", color, marker, i, values[i].Kind.String()))
	}

	t.SourceView.SetText(strings.Join(lines, "\n"))
}

// UpdateOperandView shows the operand stack, top first.
func (t *TUI) UpdateOperandView() {
	t.OperandView.Clear()

	items := t.Debugger.VM.Operand.Items()
	var lines []string
	for i := len(items) - 1; i >= 0; i-- {
		lines = append(lines, fmt.Sprintf("[%d] %s", i, items[i].String()))
	}
	if len(lines) == 0 {
		lines = append(lines, "[yellow](empty)[white]")
	}

	t.OperandView.SetText(strings.Join(lines, "\n"))
}

// UpdateFramesView shows the call-frame stack, innermost first.
func (t *TUI) UpdateFramesView() {
	t.FramesView.Clear()

	frames := t.Debugger.VM.Frames
	var lines []string
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		marker := "  "
		if i == len(frames)-1 {
			marker = "->"
		}
		lines = append(lines, fmt.Sprintf("%s #%d %s (returns to %d)", marker, len(frames)-1-i, f.Name, f.CallerIndex))
	}

	t.FramesView.SetText(strings.Join(lines, "\n"))
}

// UpdateStoreView shows the locally-defined variables in the current
// frame's store.
func (t *TUI) UpdateStoreView() {
	t.StoreView.Clear()

	frame := t.Debugger.VM.CurrentFrame()
	var lines []string
	for _, name := range frame.Store.Names() {
		val, ok := t.Debugger.VM.LookupVariable(name)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s = %s", name, val.String()))
	}
	if len(lines) == 0 {
		lines = append(lines, "[yellow](no locals)[white]")
	}

	t.StoreView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView shows all breakpoints and watchpoints.
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status, color := "enabled", "green"
			if !bp.Enabled {
				status, color = "disabled", "red"
			}
			line := fmt.Sprintf("  %d: [%s]%s[white] pointer %d", bp.ID, color, status, bp.Pointer)
			if bp.Condition != "" {
				line += fmt.Sprintf(" if %s", bp.Condition)
			}
			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)
			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			last := "<unset>"
			if wp.LastValue != nil {
				last = wp.LastValue.String()
			}
			lines = append(lines, fmt.Sprintf("  %d: %s = %s", wp.ID, wp.Expression, last))
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI event loop.
func (t *TUI) Run() error {
	t.RefreshAll()

	t.WriteOutput("[green]DarkVM Debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F10 to step over, F11 to step\n")
	t.WriteOutput("Type 'help' for the full command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the TUI event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}
