package memory

import (
	"testing"

	"github.com/arlojames/pocketgb/gb/addr"
)

// setSTATMode writes the PPU mode bits directly into STAT, the way GPU's
// setMode does on every real transition, without needing the video package
// (which already imports memory, so memory can't import it back).
func setSTATMode(m *MMU, mode byte) {
	m.Write(addr.STAT, mode)
}

func TestVRAMBlockedDuringPixelTransfer(t *testing.T) {
	mmu := New()
	setSTATMode(mmu, 0) // HBlank: writable
	mmu.Write(0x8000, 0x42)
	if got := mmu.Read(0x8000); got != 0x42 {
		t.Fatalf("VRAM read during mode 0 = 0x%02X; want 0x42", got)
	}

	setSTATMode(mmu, 3) // PixelTransfer
	if got := mmu.Read(0x8000); got != 0xFF {
		t.Errorf("VRAM read during mode 3 = 0x%02X; want 0xFF", got)
	}
	mmu.Write(0x8000, 0x99)
	setSTATMode(mmu, 0)
	if got := mmu.Read(0x8000); got != 0x42 {
		t.Errorf("VRAM write during mode 3 should be ignored; read back 0x%02X, want unchanged 0x42", got)
	}
}

func TestOAMBlockedDuringScanAndPixelTransfer(t *testing.T) {
	for _, mode := range []byte{2, 3} {
		mmu := New()
		setSTATMode(mmu, 0)
		mmu.Write(0xFE00, 0x11)

		setSTATMode(mmu, mode)
		if got := mmu.Read(0xFE00); got != 0xFF {
			t.Errorf("mode %d: OAM read = 0x%02X; want 0xFF", mode, got)
		}
		mmu.Write(0xFE00, 0x22)
		setSTATMode(mmu, 0)
		if got := mmu.Read(0xFE00); got != 0x11 {
			t.Errorf("mode %d: OAM write should be ignored; read back 0x%02X, want unchanged 0x11", mode, got)
		}
	}
}

func TestOAMReadableDuringHBlankAndVBlank(t *testing.T) {
	for _, mode := range []byte{0, 1} {
		mmu := New()
		setSTATMode(mmu, mode)
		mmu.Write(0xFE10, 0x55)
		if got := mmu.Read(0xFE10); got != 0x55 {
			t.Errorf("mode %d: OAM should be accessible, got 0x%02X want 0x55", mode, got)
		}
	}
}

// TestOAMDMATimingScenario exercises spec.md's scenario 5: writing the DMA
// source page blocks CPU-visible OAM access on a delay, and the transfer
// copies one byte per M-cycle from the written source page.
func TestOAMDMATimingScenario(t *testing.T) {
	mmu := New()
	setSTATMode(mmu, 0)

	for i := uint16(0); i < 160; i++ {
		mmu.memory[0xC000+i] = byte(i + 1)
	}
	mmu.memory[0xFE00] = 0xAA

	// T=0: the write to 0xFF46 itself; dmaRequested goes high, nothing has
	// transferred or blocked yet.
	mmu.Write(addr.DMA, 0xC0)

	// T=1: one M-cycle later, OAM is still showing its prior contents -
	// the request->pending promotion hasn't reached "blocked" territory.
	mmu.Tick(4)
	if got := mmu.Read(0xFE00); got != 0xAA {
		t.Fatalf("T=1: OAM read = 0x%02X; want unchanged 0xAA (prior contents)", got)
	}

	// T=2: OAM reads start returning 0xFF, and byte 0 has been copied.
	mmu.Tick(4)
	if got := mmu.Read(0xFE00); got != 0xFF {
		t.Errorf("T=2: OAM read = 0x%02X; want 0xFF (DMA active)", got)
	}
	if got := mmu.memory[0xFE00]; got != 1 {
		t.Errorf("T=2: OAM[0] = 0x%02X; want 0x01 (copied from 0xC000)", got)
	}

	// Drive the remaining 159 M-cycles of the transfer.
	for i := 0; i < 159; i++ {
		mmu.Tick(4)
	}

	// T=161: the DMA is done, OAM holds the full source block and is
	// readable again by the CPU.
	for i := uint16(0); i < 160; i++ {
		if got := mmu.memory[0xFE00+i]; got != byte(i+1) {
			t.Fatalf("OAM[%d] = 0x%02X; want 0x%02X", i, got, byte(i+1))
		}
	}
	if got := mmu.Read(0xFE00); got != 0x01 {
		t.Errorf("after DMA completes, OAM read = 0x%02X; want 0x01 (readable again)", got)
	}
}

// TestOAMDMAWriteDuringSingleInstruction verifies the CPU-facing bus ticks
// the DMA pipeline one step per M-cycle rather than collapsing every cycle
// of the triggering instruction into one advance: writing 0xFF46 and then
// ticking the bus for the rest of that same write instruction's own cycles
// must not already show a copied byte before a later, separate instruction's
// cycles elapse.
func TestOAMDMAWriteDuringSingleInstruction(t *testing.T) {
	mmu := New()
	setSTATMode(mmu, 0)
	mmu.memory[0xC000] = 0x77
	mmu.memory[0xFE00] = 0xAA

	// Simulate LD (nn),A writing the DMA register: the write happens, then
	// the CPU ticks only the one M-cycle belonging to that access (a
	// per-access-ticked CPU never attributes more than one M-cycle to the
	// write itself).
	mmu.Write(addr.DMA, 0xC0)
	mmu.Tick(4)

	if mmu.dmaIndex != 0 {
		t.Fatalf("after only the write's own M-cycle, dmaIndex = %d; want 0 (still in the startup delay)", mmu.dmaIndex)
	}
}

func TestOAMNotBlockedBeforeDMARequestTakesEffect(t *testing.T) {
	mmu := New()
	setSTATMode(mmu, 0)
	mmu.memory[0xFE00] = 0x11

	if mmu.oamBlocked() {
		t.Fatal("OAM should not be blocked before any DMA request or PPU mode 2/3")
	}
}
