package debugger

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// GUI is the fyne-based graphical front-end over a Debugger: panels
// arranged around a toolbar and console showing DarkVM's code stream,
// operand stack, call frames, and store.
type GUI struct {
	Debugger *Debugger
	App      fyne.App
	Window   fyne.Window

	SourceView      *widget.TextGrid
	OperandView     *widget.TextGrid
	FramesView      *widget.TextGrid
	StoreView       *widget.TextGrid
	BreakpointsList *widget.List
	ConsoleOutput   *widget.TextGrid
	StatusLabel     *widget.Label

	Toolbar *widget.Toolbar

	breakpoints []string

	consoleBuffer strings.Builder
	consoleMutex  sync.Mutex
}

// guiWriter redirects VM Print/Printn output to the GUI's console.
type guiWriter struct {
	gui *GUI
}

func (w *guiWriter) Write(p []byte) (int, error) {
	w.gui.consoleMutex.Lock()
	defer w.gui.consoleMutex.Unlock()

	w.gui.consoleBuffer.Write(p)
	w.gui.updateConsole()
	return len(p), nil
}

// RunGUI runs the fyne GUI debugger over dbg, blocking until the
// window is closed.
func RunGUI(dbg *Debugger) error {
	gui := newGUI(dbg)
	gui.Window.ShowAndRun()
	return nil
}

func newGUI(debugger *Debugger) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("DarkVM Debugger")

	gui := &GUI{
		Debugger: debugger,
		App:      myApp,
		Window:   myWindow,
	}

	gui.initializeViews()
	gui.buildLayout()
	gui.setupToolbar()

	debugger.VM.SetOutput(&guiWriter{gui: gui})

	myWindow.Resize(fyne.NewSize(1200, 800))

	return gui
}

func (g *GUI) initializeViews() {
	g.SourceView = widget.NewTextGrid()
	g.updateSource()

	g.OperandView = widget.NewTextGrid()
	g.updateOperand()

	g.FramesView = widget.NewTextGrid()
	g.updateFrames()

	g.StoreView = widget.NewTextGrid()
	g.updateStore()

	g.breakpoints = []string{}
	g.BreakpointsList = widget.NewList(
		func() int { return len(g.breakpoints) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(g.breakpoints[id])
		},
	)

	g.ConsoleOutput = widget.NewTextGrid()
	g.ConsoleOutput.SetText("")

	g.StatusLabel = widget.NewLabel("Ready")
}

func (g *GUI) buildLayout() {
	sourcePanel := container.NewBorder(widget.NewLabel("Code"), nil, nil, nil, container.NewScroll(g.SourceView))
	operandPanel := container.NewBorder(widget.NewLabel("Operand Stack"), nil, nil, nil, container.NewScroll(g.OperandView))
	framesPanel := container.NewBorder(widget.NewLabel("Call Frames"), nil, nil, nil, container.NewScroll(g.FramesView))
	storePanel := container.NewBorder(widget.NewLabel("Store"), nil, nil, nil, container.NewScroll(g.StoreView))
	breakpointsPanel := container.NewBorder(widget.NewLabel("Breakpoints"), nil, nil, nil, container.NewScroll(g.BreakpointsList))
	consolePanel := container.NewBorder(widget.NewLabel("Console Output"), nil, nil, nil, container.NewScroll(g.ConsoleOutput))

	leftPanel := container.NewMax(sourcePanel)

	rightTop := container.NewVSplit(operandPanel, framesPanel)
	rightTop.SetOffset(0.5)

	bottomTabs := container.NewAppTabs(
		container.NewTabItem("Store", storePanel),
		container.NewTabItem("Breakpoints", breakpointsPanel),
		container.NewTabItem("Console", consolePanel),
	)

	rightPanel := container.NewVSplit(rightTop, bottomTabs)
	rightPanel.SetOffset(0.5)

	mainSplit := container.NewHSplit(leftPanel, rightPanel)
	mainSplit.SetOffset(0.55)

	statusBar := container.NewBorder(nil, nil, nil, nil, g.StatusLabel)

	content := container.NewBorder(g.Toolbar, statusBar, nil, nil, mainSplit)
	g.Window.SetContent(content)
}

func (g *GUI) setupToolbar() {
	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() { g.stepProgram() }),
		widget.NewToolbarAction(theme.MediaFastForwardIcon(), func() { g.continueProgram() }),
		widget.NewToolbarAction(theme.MediaStopIcon(), func() { g.stopProgram() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentAddIcon(), func() { g.addBreakpoint() }),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() { g.clearBreakpoints() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() { g.refreshViews() }),
	)
}

func (g *GUI) updateViews() {
	g.updateSource()
	g.updateOperand()
	g.updateFrames()
	g.updateStore()
	g.updateBreakpoints()
	g.updateConsole()
}

func (g *GUI) updateSource() {
	machine := g.Debugger.VM
	pointer := machine.Code.Pointer
	values := machine.Code.Values

	lo := pointer - CodeContextBeforeCompact
	if lo < 0 {
		lo = 0
	}
	hi := pointer + CodeContextAfterCompact
	if hi > len(values) {
		hi = len(values)
	}

	var sb strings.Builder
	for i := lo; i < hi; i++ {
		prefix := "  "
		if i == pointer {
			prefix = "> "
		}
		sb.WriteString(fmt.Sprintf("%s%4d: %s\n", prefix, i, values[i].Kind.String()))
	}
	g.SourceView.SetText(sb.String())
}

func (g *GUI) updateOperand() {
	var sb strings.Builder
	items := g.Debugger.VM.Operand.Items()
	for i := len(items) - 1; i >= 0; i-- {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i, items[i].String()))
	}
	g.OperandView.SetText(sb.String())
}

func (g *GUI) updateFrames() {
	var sb strings.Builder
	frames := g.Debugger.VM.Frames
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		sb.WriteString(fmt.Sprintf("#%d %s (returns to %d)\n", len(frames)-1-i, f.Name, f.CallerIndex))
	}
	g.FramesView.SetText(sb.String())
}

func (g *GUI) updateStore() {
	var sb strings.Builder
	frame := g.Debugger.VM.CurrentFrame()
	for _, name := range frame.Store.Names() {
		if val, ok := g.Debugger.VM.LookupVariable(name); ok {
			sb.WriteString(fmt.Sprintf("%s = %s\n", name, val.String()))
		}
	}
	g.StoreView.SetText(sb.String())
}

func (g *GUI) updateBreakpoints() {
	breakpoints := g.Debugger.Breakpoints.GetAllBreakpoints()
	g.breakpoints = make([]string, 0, len(breakpoints))

	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		g.breakpoints = append(g.breakpoints, fmt.Sprintf("pointer %d (%s)", bp.Pointer, status))
	}

	g.BreakpointsList.Refresh()
}

func (g *GUI) updateConsole() {
	g.consoleMutex.Lock()
	defer g.consoleMutex.Unlock()

	g.ConsoleOutput.SetText(g.consoleBuffer.String())
}

func (g *GUI) stepProgram() {
	if g.Debugger.VM.IsFinished() {
		g.StatusLabel.SetText("Program has finished")
		return
	}

	_, finished, err := g.Debugger.VM.Step()
	if err != nil {
		g.StatusLabel.SetText(fmt.Sprintf("Error: %v", err))
		return
	}

	if finished {
		g.StatusLabel.SetText("Program finished")
	} else {
		g.StatusLabel.SetText(fmt.Sprintf("Stepped to pointer %d", g.Debugger.VM.Code.Pointer))
	}

	g.updateViews()
}

// continueProgram runs the VM in a goroutine, stepping until a
// breakpoint fires, the program ends, or Running is cleared.
func (g *GUI) continueProgram() {
	g.StatusLabel.SetText("Running...")
	g.Debugger.Running = true

	go func() {
		for g.Debugger.Running {
			if shouldBreak, reason := g.Debugger.ShouldBreak(); shouldBreak {
				g.Debugger.Running = false
				g.StatusLabel.SetText(fmt.Sprintf("Stopped: %s at pointer %d", reason, g.Debugger.VM.Code.Pointer))
				g.updateViews()
				return
			}

			_, finished, err := g.Debugger.VM.Step()
			if err != nil {
				g.Debugger.Running = false
				g.StatusLabel.SetText(fmt.Sprintf("Error: %v", err))
				g.updateViews()
				return
			}
			if finished {
				g.Debugger.Running = false
				g.StatusLabel.SetText("Program finished")
				g.updateViews()
				return
			}
		}
	}()
}

func (g *GUI) stopProgram() {
	g.Debugger.Running = false
	g.StatusLabel.SetText("Stopped")
	g.updateViews()
}

func (g *GUI) addBreakpoint() {
	pointer := g.Debugger.VM.Code.Pointer
	g.Debugger.Breakpoints.AddBreakpoint(pointer, false, "")
	g.updateBreakpoints()
	g.StatusLabel.SetText(fmt.Sprintf("Breakpoint added at pointer %d", pointer))
}

func (g *GUI) clearBreakpoints() {
	g.Debugger.Breakpoints.Clear()
	g.updateBreakpoints()
	g.StatusLabel.SetText("All breakpoints cleared")
}

func (g *GUI) refreshViews() {
	g.updateViews()
	g.StatusLabel.SetText("Views refreshed")
}
