package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	jeebie "github.com/arlojames/pocketgb/gb"
	"github.com/arlojames/pocketgb/gb/input"
	"github.com/arlojames/pocketgb/gb/input/action"
	"github.com/arlojames/pocketgb/gb/input/event"
)

const (
	width  = 160
	height = 144

	frameTime = time.Second / 60

	gameAreaWidth  = width
	gameAreaHeight = height
	registerHeight = 7
	minTermWidth   = 100
	minTermHeight  = 20
)

var shadeChars = []rune{'█', '▓', '▒', '░'}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// TerminalRenderer drives the emulator inside a tcell terminal screen,
// rendering the LCD as shaded block characters and a small register panel.
type TerminalRenderer struct {
	screen   tcell.Screen
	emulator *jeebie.Emulator
	input    *input.Manager
	running  bool
}

func NewTerminalRenderer(emu *jeebie.Emulator) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}

	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}

	t := &TerminalRenderer{
		screen:   screen,
		emulator: emu,
		input:    input.NewManager(emu.GetMMU()),
		running:  true,
	}
	t.bindEmulatorActions()

	return t, nil
}

// bindEmulatorActions wires the non-joypad actions (pause, stepping, quit)
// to the emulator's debugger controls. Game Boy button actions need no
// binding: the Manager sends those straight to the MMU's joypad register.
func (t *TerminalRenderer) bindEmulatorActions() {
	t.input.On(action.EmulatorPauseToggle, event.Press, func() {
		if t.emulator.GetDebuggerState() == jeebie.DebuggerPaused {
			t.emulator.DebuggerResume()
		} else {
			t.emulator.DebuggerPause()
		}
	})
	t.input.On(action.EmulatorStepInstruction, event.Press, t.emulator.DebuggerStepInstruction)
	t.input.On(action.EmulatorStepFrame, event.Press, t.emulator.DebuggerStepFrame)
	t.input.On(action.EmulatorQuit, event.Press, func() { t.running = false })
}

// tcellKeyName maps a tcell key event to the string names used by
// input.DefaultKeyMap.
func tcellKeyName(ev *tcell.EventKey) (string, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return "Up", true
	case tcell.KeyDown:
		return "Down", true
	case tcell.KeyLeft:
		return "Left", true
	case tcell.KeyRight:
		return "Right", true
	case tcell.KeyEnter:
		return "Enter", true
	case tcell.KeyEscape:
		return "Escape", true
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return "Space", true
		}
		return string(ev.Rune()), true
	default:
		return "", false
	}
}

func (t *TerminalRenderer) Run() error {
	defer func() {
		slog.Info("Finishing terminal")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	go t.handleInput()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for t.running {
		select {
		case <-ticker.C:
			t.emulator.RunUntilFrame()
			t.render()
			t.screen.Show()

		case <-signals:
			t.running = false
			slog.Info("Received signal to stop")
			return nil
		}
	}

	return nil
}

func (t *TerminalRenderer) handleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				t.running = false
				return
			}

			name, ok := tcellKeyName(ev)
			if !ok {
				continue
			}
			act, ok := input.GetDefaultMapping(name)
			if !ok {
				continue
			}

			// Terminals report key-down only; treat every key event as a
			// tap (press immediately followed by release).
			t.input.Trigger(act, event.Press)
			t.input.Trigger(act, event.Release)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *TerminalRenderer) render() {
	termWidth, termHeight := t.screen.Size()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		t.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	t.screen.Clear()
	t.drawBorders(termWidth, termHeight)
	t.drawGameBoy()
	t.drawRegisters(termWidth, termHeight)
}

func (t *TerminalRenderer) drawBorders(termWidth, termHeight int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	borderX := min(gameAreaWidth+1, termWidth/2)
	if borderX >= termWidth-10 {
		borderX = termWidth - 10
	}

	for y := 0; y < termHeight; y++ {
		if borderX < termWidth {
			t.screen.SetContent(borderX, y, '│', nil, borderStyle)
		}
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, ch := range " Game Boy " {
		t.screen.SetContent(1+i, 0, ch, nil, titleStyle)
	}
	for i, ch := range " CPU Registers " {
		t.screen.SetContent(borderX+2+i, 0, ch, nil, titleStyle)
	}

	if termHeight > 10 {
		helpStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
		helpText := "Debug: SPACE/P/R=pause/resume N=step F=step-frame"
		maxWidth := min(len(helpText), termWidth-2)
		for i, ch := range helpText[:maxWidth] {
			t.screen.SetContent(1+i, termHeight-1, ch, nil, helpStyle)
		}
	}
}

func (t *TerminalRenderer) drawGameBoy() {
	fb := t.emulator.GetCurrentFrame()
	frame := fb.ToSlice()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixel := frame[y*width+x]

			shade := 0
			switch pixel {
			case 0x000000FF:
				shade = 0
			case 0x4C4C4CFF:
				shade = 1
			case 0x989898FF:
				shade = 2
			case 0xFFFFFFFF:
				shade = 3
			}

			style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
			t.screen.SetContent(x, y+1, shadeChars[shade], nil, style)
		}
	}
}

func (t *TerminalRenderer) drawRegisters(termWidth, termHeight int) {
	cpu := t.emulator.GetCPU()
	startX := gameAreaWidth + 3
	startY := 1

	regStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)

	debugState := t.emulator.GetDebuggerState()
	debugStatus := ""
	debugStyle := regStyle
	switch debugState {
	case jeebie.DebuggerRunning:
		debugStatus = "RUNNING"
		debugStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case jeebie.DebuggerPaused:
		debugStatus = "PAUSED"
		debugStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case jeebie.DebuggerStep:
		debugStatus = "STEP"
		debugStyle = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	case jeebie.DebuggerStepFrame:
		debugStatus = "FRAME"
		debugStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
	}

	registers := []string{
		fmt.Sprintf("Status: %s", debugStatus),
		fmt.Sprintf("A: 0x%02X  F: 0x%02X [%s]", cpu.GetA(), cpu.GetF(), cpu.GetFlagString()),
		fmt.Sprintf("B: 0x%02X  C: 0x%02X", cpu.GetB(), cpu.GetC()),
		fmt.Sprintf("D: 0x%02X  E: 0x%02X", cpu.GetD(), cpu.GetE()),
		fmt.Sprintf("H: 0x%02X  L: 0x%02X", cpu.GetH(), cpu.GetL()),
		fmt.Sprintf("SP: 0x%04X  PC: 0x%04X", cpu.GetSP(), cpu.GetPC()),
		fmt.Sprintf("Frame: %d  Instr: %d", t.emulator.GetFrameCount(), t.emulator.GetInstructionCount()),
	}

	for i, reg := range registers {
		if startY+i >= registerHeight+1 || startY+i >= termHeight {
			break
		}

		style := regStyle
		if i == 0 {
			style = debugStyle
		}

		x := startX
		for _, ch := range reg {
			if x >= termWidth {
				break
			}
			t.screen.SetContent(x, startY+i, ch, nil, style)
			x++
		}
	}
}
