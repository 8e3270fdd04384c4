package memory

import "log/slog"

const titleLength = 16

const (
	entryPointAddress      = 0x100
	logoAddress            = 0x104
	titleAddress           = 0x134
	cgbFlagAddress         = 0x143
	cartridgeTypeAddress   = 0x147
	romSizeAddress         = 0x148
	ramSizeAddress         = 0x149
	headerChecksumAddress  = 0x14D
	globalChecksumAddress  = 0x14E
)

// MBCType identifies which memory bank controller a cartridge's header
// declares, collapsing the many MBC1/MBC3/MBC5 header variants (with or
// without RAM, battery, rumble, timer) down to the controller that matters
// for emulation; RAM/battery/RTC/rumble are tracked as separate flags.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// Cartridge holds the raw ROM image plus the header fields needed to build
// the right MBC and size its RAM.
type Cartridge struct {
	data []byte

	title          string
	headerChecksum uint16
	globalChecksum uint16

	mbcType      MBCType
	hasBattery   bool
	hasRTC       bool
	hasRumble    bool
	ramBankCount uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x8000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a ROM file's bytes,
// parsing the header fields documented at 0x0100-0x014F.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	cart := &Cartridge{
		data: make([]byte, len(bytes)),
	}
	copy(cart.data, bytes)

	if len(bytes) > titleAddress+titleLength {
		cart.title = cleanGameboyTitle(bytes[titleAddress : titleAddress+titleLength])
	}
	if len(bytes) > globalChecksumAddress+1 {
		cart.headerChecksum = uint16(bytes[headerChecksumAddress])
		cart.globalChecksum = uint16(bytes[globalChecksumAddress])<<8 | uint16(bytes[globalChecksumAddress+1])

		var sum uint16
		for i, b := range bytes {
			if i != globalChecksumAddress && i != globalChecksumAddress+1 {
				sum += uint16(b)
			}
		}
		if sum != cart.globalChecksum {
			slog.Warn("Global checksum mismatch", "header", cart.globalChecksum, "computed", sum)
		}
	}

	cartType := byte(0)
	if len(bytes) > cartridgeTypeAddress {
		cartType = bytes[cartridgeTypeAddress]
	}
	cart.mbcType, cart.hasBattery, cart.hasRTC, cart.hasRumble = decodeCartridgeType(cartType)

	ramSizeCode := byte(0)
	if len(bytes) > ramSizeAddress {
		ramSizeCode = bytes[ramSizeAddress]
	}
	cart.ramBankCount = decodeRAMBankCount(ramSizeCode)
	if cart.mbcType == MBC2Type {
		// MBC2's RAM is built into the chip, not declared by the header.
		cart.ramBankCount = 1
	}

	return cart
}

// Title returns the cleaned-up cartridge title from the header.
func (c *Cartridge) Title() string { return c.title }

// decodeCartridgeType maps the 0x147 header byte to a controller family and
// the feature flags (battery, RTC, rumble) that ride along with some of its
// variants. Unlisted values fall back to treating the cartridge as MBC5,
// the most common unlisted controller in practice (MBC6/MBC7/camera/etc.
// are out of scope).
func decodeCartridgeType(value byte) (mbcType MBCType, battery, rtc, rumble bool) {
	switch value {
	case 0x00:
		return NoMBCType, false, false, false
	case 0x01, 0x02:
		return MBC1Type, false, false, false
	case 0x03:
		return MBC1Type, true, false, false
	case 0x05:
		return MBC2Type, false, false, false
	case 0x06:
		return MBC2Type, true, false, false
	case 0x0F:
		return MBC3Type, true, true, false
	case 0x10:
		return MBC3Type, true, true, false
	case 0x11, 0x12:
		return MBC3Type, false, false, false
	case 0x13:
		return MBC3Type, true, false, false
	case 0x19, 0x1A:
		return MBC5Type, false, false, false
	case 0x1B:
		return MBC5Type, true, false, false
	case 0x1C, 0x1D:
		return MBC5Type, false, false, true
	case 0x1E:
		return MBC5Type, true, false, true
	default:
		return MBC5Type, false, false, false
	}
}

func decodeRAMBankCount(value byte) uint8 {
	switch value {
	case 0x00:
		return 0
	case 0x02:
		return 1
	case 0x03:
		return 4
	case 0x04:
		return 16
	case 0x05:
		return 8
	default:
		return 0
	}
}
