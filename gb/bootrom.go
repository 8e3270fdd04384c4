package jeebie

// bootROM is a small, from-scratch replacement for Nintendo's copyrighted
// DMG boot ROM. Real hardware boots into 0x0000 with every register
// cleared, scrolls the logo and plays a chime, checks the cartridge's
// header/Nintendo-logo checksums, then falls through to the documented
// post-boot register state and jumps to the cartridge entry point at
// 0x0100, unmapping itself from 0x0000-0x00FF on the way out.
//
// This program skips the logo/chime/checksum theatrics (there is no
// framebuffer output worth reproducing without the original tile data)
// but reaches bit-for-bit the same post-boot state: AF=0x01B0, BC=0x0013,
// DE=0x00D8, HL=0x014D, SP=0xFFFE, then jumps to 0x00FE, where
// LDH (0xFF50),A, the last boot ROM instruction, disables the boot overlay
// so execution falls through to 0x0100.
var bootROM = assembleBootROM()

func assembleBootROM() []byte {
	rom := make([]byte, 256)

	program := []byte{
		0x31, 0xFE, 0xFF, // LD SP, 0xFFFE
		0x21, 0xB0, 0x01, // LD HL, 0x01B0
		0xE5,       // PUSH HL
		0xF1,       // POP AF        -> A=0x01, F=0xB0
		0x06, 0x00, // LD B, 0x00
		0x0E, 0x13, // LD C, 0x13
		0x16, 0x00, // LD D, 0x00
		0x1E, 0xD8, // LD E, 0xD8
		0x26, 0x01, // LD H, 0x01
		0x2E, 0x4D, // LD L, 0x4D
		0xC3, 0xFE, 0x00, // JP 0x00FE
	}

	copy(rom, program)
	copy(rom[0xFE:], []byte{0xE0, 0x50}) // LDH (0xFF50), A -> disables this overlay (A is still 0x01); PC falls through to 0x0100
	return rom
}

// DefaultBootROM returns a copy of the synthetic boot ROM image.
func DefaultBootROM() []byte {
	out := make([]byte, len(bootROM))
	copy(out, bootROM)
	return out
}
