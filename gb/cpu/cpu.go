package cpu

import "github.com/arlojames/pocketgb/gb/addr"

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// ImeState tracks the interrupt master enable flag. EI takes effect only
// after the instruction following it has executed, hence the Pending state.
type ImeState int

const (
	ImeDisabled ImeState = iota
	ImeEnabled
	ImePending
)

// Bus is the contract the CPU needs from the rest of the system. Read and
// Write reach memory-mapped registers and cartridge/RAM; Tick advances the
// timer, serial port and OAM DMA by the given number of T-cycles.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	Tick(cycles int)
}

// CPU is the main struct holding Sharp LR35902 state.
type CPU struct {
	bus Bus

	a, b, c, d, e, h, l uint8
	f                    Flag
	sp, pc               uint16

	ime      ImeState
	halted   bool
	haltBug  bool
	stopped  bool

	currentOpcode uint16

	// accessCycles accumulates the T-cycles already spent by cycleRead/
	// cycleWrite/cycle during the instruction in progress, so Step can tick
	// only whatever's left instead of double-charging the bus.
	accessCycles int
}

// New returns a CPU wired to the given bus, with registers at their
// power-on values (pre-boot-ROM; the boot ROM overwrites these as it runs).
func New(bus Bus) *CPU {
	return &CPU{
		bus: bus,
		sp:  0xFFFE,
	}
}

func (c *CPU) GetPC() uint16 { return c.pc }
func (c *CPU) SetPC(pc uint16) { c.pc = pc }
func (c *CPU) IsHalted() bool { return c.halted }

func (c *CPU) GetA() uint8  { return c.a }
func (c *CPU) GetF() uint8  { return uint8(c.f) }
func (c *CPU) GetB() uint8  { return c.b }
func (c *CPU) GetC() uint8  { return c.c }
func (c *CPU) GetD() uint8  { return c.d }
func (c *CPU) GetE() uint8  { return c.e }
func (c *CPU) GetH() uint8  { return c.h }
func (c *CPU) GetL() uint8  { return c.l }
func (c *CPU) GetSP() uint16 { return c.sp }

// GetFlagString renders the Z/N/H/C flags as four letters, lowercase when clear.
func (c *CPU) GetFlagString() string {
	flags := [4]struct {
		flag Flag
		ch   byte
	}{
		{zeroFlag, 'Z'},
		{subFlag, 'N'},
		{halfCarryFlag, 'H'},
		{carryFlag, 'C'},
	}

	out := make([]byte, 4)
	for i, f := range flags {
		if c.isSetFlag(f.flag) {
			out[i] = f.ch
		} else {
			out[i] = f.ch | 0x20
		}
	}
	return string(out)
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= flag
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= flag
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&flag != 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

// flagToBit returns 1 if the flag is set, 0 otherwise. Used by RL/RR/ADC/SBC
// to fold the carry flag into an arithmetic value.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) getAF() uint16 {
	return uint16(c.a)<<8 | uint16(c.f)
}

func (c *CPU) setAF(value uint16) {
	c.a = uint8(value >> 8)
	c.f = Flag(value & 0xF0)
}

func (c *CPU) getBC() uint16 {
	return uint16(c.b)<<8 | uint16(c.c)
}

func (c *CPU) setBC(value uint16) {
	c.b = uint8(value >> 8)
	c.c = uint8(value)
}

func (c *CPU) getDE() uint16 {
	return uint16(c.d)<<8 | uint16(c.e)
}

func (c *CPU) setDE(value uint16) {
	c.d = uint8(value >> 8)
	c.e = uint8(value)
}

func (c *CPU) getHL() uint16 {
	return uint16(c.h)<<8 | uint16(c.l)
}

func (c *CPU) setHL(value uint16) {
	c.h = uint8(value >> 8)
	c.l = uint8(value)
}

// cycleRead performs a bus read and immediately ticks the bus one M-cycle,
// modeling the suspension point spec.md's bus/peripheral coupling calls for:
// every byte the CPU moves across the bus lets the timer/serial/DMA advance
// before the next one, instead of the whole instruction running against a
// frozen snapshot of memory.
func (c *CPU) cycleRead(address uint16) uint8 {
	value := c.bus.Read(address)
	c.bus.Tick(4)
	c.accessCycles += 4
	return value
}

// cycleWrite performs a bus write and immediately ticks the bus one M-cycle.
func (c *CPU) cycleWrite(address uint16, value uint8) {
	c.bus.Write(address, value)
	c.bus.Tick(4)
	c.accessCycles += 4
}

// cycle spends one M-cycle with no bus access, for instructions that hold
// the bus idle for part of their timing (e.g. the extra internal cycle in
// 16-bit PUSH/CALL/RST).
func (c *CPU) cycle() {
	c.bus.Tick(4)
	c.accessCycles += 4
}

// readImmediate reads the byte at PC and advances PC past it.
func (c *CPU) readImmediate() uint8 {
	value := c.cycleRead(c.pc)
	c.pc++
	return value
}

// readImmediateWord reads a little-endian word at PC and advances PC past it.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return uint16(high)<<8 | uint16(low)
}

// readSignedImmediate reads a signed byte at PC and advances PC past it,
// used by JR and the SP-relative load/add instructions.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// peekImmediate and peekImmediateWord behave identically to their read
// counterparts (they also advance PC); jp reads its absolute target
// through peekImmediateWord.
func (c *CPU) peekImmediate() uint8 {
	return c.readImmediate()
}

func (c *CPU) peekImmediateWord() uint16 {
	return c.readImmediateWord()
}

// Step executes exactly one instruction (or, if halted, one idle M-cycle),
// services a pending interrupt if one is latched, and returns the number
// of T-cycles consumed.
func (c *CPU) Step() int {
	if serviced, cycles := c.handleInterrupts(); serviced {
		return cycles
	}

	if c.halted {
		c.bus.Tick(4)
		return 4
	}

	if c.ime == ImePending {
		c.ime = ImeEnabled
	}

	c.accessCycles = 0
	opcode := uint16(c.readImmediate())
	if c.haltBug {
		// The HALT bug: the byte after HALT has just been fetched as the
		// opcode, but PC fails to advance past it, so the next read from PC
		// reads that same byte again.
		c.pc--
		c.haltBug = false
	}
	if opcode == 0xCB {
		opcode = 0xCB00 | uint16(c.readImmediate())
	}
	c.currentOpcode = opcode

	cycles := decode(opcode)(c)
	// Every byte decode() itself moved across the bus already ticked the
	// bus as it happened, via cycleRead/cycleWrite/cycle; only whatever
	// cycles remain unaccounted for (internal-only timing the instruction
	// body didn't spend on an access) still needs a bulk catch-up tick.
	if remaining := cycles - c.accessCycles; remaining > 0 {
		c.bus.Tick(remaining)
	}
	return cycles
}

// handleInterrupts checks IE & IF and, if IME permits it, dispatches the
// highest-priority pending interrupt. It also wakes the CPU from HALT
// regardless of IME, since any pending interrupt ends the halted state.
func (c *CPU) handleInterrupts() (bool, int) {
	ie := c.bus.Read(addr.IE)
	iflag := c.bus.Read(addr.IF)
	pending := ie & iflag & 0x1F

	if pending == 0 {
		return false, 0
	}

	if c.halted {
		c.halted = false
	}

	if c.ime != ImeEnabled {
		return false, 0
	}

	c.ime = ImeDisabled
	c.bus.Tick(4)
	c.bus.Tick(4)

	c.sp--
	c.bus.Write(c.sp, uint8(c.pc>>8))
	c.bus.Tick(4)

	// IF is re-sampled here: a handler that clears its own flag between the
	// high and low byte pushes (or one that reprioritizes) is honored.
	iflag = c.bus.Read(addr.IF)
	irq := lowestSetBit(ie & iflag & 0x1F)

	c.sp--
	c.bus.Write(c.sp, uint8(c.pc))
	c.bus.Tick(4)

	if irq != 0 {
		c.bus.Write(addr.IF, iflag&^irq)
		c.pc = interruptVector(irq)
	} else {
		c.pc = 0
	}
	c.bus.Tick(4)

	return true, 20
}

func lowestSetBit(bits uint8) uint8 {
	if bits == 0 {
		return 0
	}
	return bits & (^bits + 1)
}

func interruptVector(irq uint8) uint16 {
	switch irq {
	case uint8(addr.VBlankInterrupt):
		return 0x0040
	case uint8(addr.LCDSTATInterrupt):
		return 0x0048
	case uint8(addr.TimerInterrupt):
		return 0x0050
	case uint8(addr.SerialInterrupt):
		return 0x0058
	case uint8(addr.JoypadInterrupt):
		return 0x0060
	default:
		return 0
	}
}
