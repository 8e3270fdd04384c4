// Package jeebie wires the CPU, MMU and GPU into a runnable Game Boy,
// and drives them one frame at a time.
package jeebie

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arlojames/pocketgb/gb/cpu"
	"github.com/arlojames/pocketgb/gb/memory"
	"github.com/arlojames/pocketgb/gb/video"
)

// cyclesPerFrame is the number of T-cycles in one 59.7Hz DMG frame:
// 154 scanlines * 456 T-cycles/scanline.
const cyclesPerFrame = 154 * 456

// DebuggerState represents the current debugger mode.
type DebuggerState int

const (
	DebuggerRunning   DebuggerState = iota // Normal execution
	DebuggerPaused                         // Paused, waiting for commands
	DebuggerStep                           // Execute one instruction then pause
	DebuggerStepFrame                      // Execute one frame then pause
)

// Emulator is the root struct and entry point for running the emulation.
type Emulator struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64

	savePath string
}

func (e *Emulator) init(mem *memory.MMU) {
	mem.LoadBootROM(DefaultBootROM())
	e.cpu = cpu.New(mem)
	e.gpu = video.NewGpu(mem)
	e.mem = mem
}

// New creates a new emulator instance with no cartridge loaded.
func New() *Emulator {
	e := &Emulator{}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))
	return e
}

// NewWithFile creates a new emulator instance, loads the ROM file at path,
// and loads a same-named .sav file beside it if one exists.
func NewWithFile(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ROM data", "size", len(data))

	e := &Emulator{}
	e.init(memory.NewWithCartridge(memory.NewCartridgeWithData(data)))
	e.savePath = savePathFor(path)

	if saveData, err := os.ReadFile(e.savePath); err == nil {
		if loadErr := e.mem.LoadRAM(saveData); loadErr != nil {
			return nil, fmt.Errorf("loading save file %s: %w", e.savePath, loadErr)
		}
		slog.Info("Loaded save RAM", "path", e.savePath, "size", len(saveData))
	}

	return e, nil
}

// savePathFor derives the <rom-base-name>.sav path for a ROM file.
func savePathFor(romPath string) string {
	base := filepath.Base(romPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(romPath), base+".sav")
}

// SaveGame writes the cartridge's battery-backed RAM to its .sav file, if
// the cartridge has one and RAM access is not currently enabled. It is a
// no-op, not an error, for cartridges with no battery.
func (e *Emulator) SaveGame() error {
	data, err := e.mem.SaveRAM()
	if err != nil {
		slog.Debug("Skipping save", "reason", err)
		return nil
	}
	if err := os.WriteFile(e.savePath, data, 0644); err != nil {
		return fmt.Errorf("writing save file %s: %w", e.savePath, err)
	}
	slog.Info("Saved game RAM", "path", e.savePath, "size", len(data))
	return nil
}

// step executes a single CPU instruction and ticks the rest of the
// system (GPU, APU) by the cycles it took. The MMU is already ticked
// internally by cpu.Step, so it isn't ticked again here.
func (e *Emulator) step() int {
	cycles := e.cpu.Step()
	e.gpu.Tick(cycles)
	e.mem.APU.Tick(cycles)
	e.instructionCount++
	return cycles
}

// RunUntilFrame advances emulation by exactly one frame, honoring the
// current debugger state.
func (e *Emulator) RunUntilFrame() {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	switch state {
	case DebuggerPaused:
		return

	case DebuggerStep:
		e.debuggerMutex.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.debuggerMutex.Unlock()

		if !requested {
			return
		}

		oldPC := e.cpu.GetPC()
		e.step()
		slog.Debug("Step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
		e.SetDebuggerState(DebuggerPaused)
		return

	case DebuggerStepFrame:
		e.debuggerMutex.Lock()
		requested := e.frameRequested
		e.frameRequested = false
		e.debuggerMutex.Unlock()

		if !requested {
			return
		}

		e.runFrame()
		e.SetDebuggerState(DebuggerPaused)
		return

	default: // DebuggerRunning
		e.runFrame()
	}
}

func (e *Emulator) runFrame() {
	total := 0
	for total < cyclesPerFrame {
		total += e.step()
	}
	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("Frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
	}
}

func (e *Emulator) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

func (e *Emulator) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

func (e *Emulator) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

func (e *Emulator) GetCPU() *cpu.CPU { return e.cpu }
func (e *Emulator) GetMMU() *memory.MMU { return e.mem }

func (e *Emulator) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("Debugger state changed", "state", state)
}

func (e *Emulator) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *Emulator) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
}

func (e *Emulator) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
}

func (e *Emulator) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
}

func (e *Emulator) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
}

func (e *Emulator) GetInstructionCount() uint64 { return e.instructionCount }
func (e *Emulator) GetFrameCount() uint64       { return e.frameCount }
