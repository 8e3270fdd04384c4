package memory

import "testing"

func newBatteryBackedMBC5ROM() []byte {
	rom := make([]byte, 0x8000)
	rom[cartridgeTypeAddress] = 0x1B // MBC5+RAM+BATTERY
	rom[ramSizeAddress] = 0x03       // 4 banks, 32KB
	return rom
}

func TestSaveRAMRoundTrip(t *testing.T) {
	mmu := NewWithCartridge(NewCartridgeWithData(newBatteryBackedMBC5ROM()))

	// enable RAM and write a recognizable pattern through the bus
	mmu.Write(0x0000, 0x0A)
	for i := uint16(0); i < 16; i++ {
		mmu.Write(0xA000+i, uint8(i+1))
	}

	// SaveRAM refuses while RAM is still enabled
	if _, err := mmu.SaveRAM(); err == nil {
		t.Fatal("SaveRAM should fail while cartridge RAM is enabled")
	}

	mmu.Write(0x0000, 0x00) // disable RAM
	data, err := mmu.SaveRAM()
	if err != nil {
		t.Fatalf("SaveRAM returned unexpected error: %v", err)
	}
	for i := uint16(0); i < 16; i++ {
		if data[i] != uint8(i+1) {
			t.Errorf("SaveRAM byte %d = 0x%02X; want 0x%02X", i, data[i], i+1)
		}
	}

	fresh := NewWithCartridge(NewCartridgeWithData(newBatteryBackedMBC5ROM()))
	if err := fresh.LoadRAM(data); err != nil {
		t.Fatalf("LoadRAM returned unexpected error: %v", err)
	}

	fresh.Write(0x0000, 0x0A) // enable RAM to read it back
	for i := uint16(0); i < 16; i++ {
		got := fresh.Read(0xA000 + i)
		if got != uint8(i+1) {
			t.Errorf("Read(0xA000+%d) after LoadRAM = 0x%02X; want 0x%02X", i, got, i+1)
		}
	}
}

func TestSaveRAMNoBattery(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[cartridgeTypeAddress] = 0x19 // MBC5, no battery
	mmu := NewWithCartridge(NewCartridgeWithData(rom))

	if _, err := mmu.SaveRAM(); err == nil {
		t.Fatal("SaveRAM should fail for a cartridge with no battery")
	}
}

func TestLoadRAMSizeMismatch(t *testing.T) {
	mmu := NewWithCartridge(NewCartridgeWithData(newBatteryBackedMBC5ROM()))

	if err := mmu.LoadRAM(make([]byte, 4)); err == nil {
		t.Fatal("LoadRAM should reject data that doesn't match the cartridge's RAM size")
	}
}
