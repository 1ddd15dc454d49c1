package cartridge

import "testing"

func newTestMMC3(prgBanks, chrBanks int) *mmc3 {
	cart := &Cartridge{
		PRGROM: make([]uint8, prgBanks*0x2000),
		CHRROM: make([]uint8, chrBanks*0x400),
		mirror: MirrorHorizontal,
	}
	for bank := 0; bank < prgBanks; bank++ {
		for i := 0; i < 0x2000; i++ {
			cart.PRGROM[bank*0x2000+i] = uint8(bank)
		}
	}
	return newMMC3(cart)
}

func TestMMC3PRGFixedBanks(t *testing.T) {
	m := newTestMMC3(8, 8)
	if got := m.Peek(0xE000); got != 7 {
		t.Errorf("Peek(0xE000) = %d, want fixed last bank (7)", got)
	}
	// bank select in mode 0: $8000-$9FFF is R6.
	m.Poke(0x8000, 0x06, 0) // select R6
	m.Poke(0x8001, 3, 0)    // R6 = bank 3
	if got := m.Peek(0x8000); got != 3 {
		t.Errorf("Peek(0x8000) = %d, want bank 3 via R6", got)
	}
	if got := m.Peek(0xC000); got != 6 {
		t.Errorf("Peek(0xC000) = %d, want fixed second-last bank (6)", got)
	}
}

// simulateScanlineA12 raises then lowers A12 once, as rendering does on
// real hardware when it switches from sprite-pattern fetches to
// background-pattern fetches (or vice versa) once per scanline.
func simulateScanlineA12(m *mmc3) {
	m.ClockA12(0x0000) // A12 low
	m.ClockA12(0x1000) // A12 rises
}

func TestMMC3ScanlineIRQTiming(t *testing.T) {
	m := newTestMMC3(8, 8)
	const latch = 4
	m.Poke(0xC000, latch, 0) // IRQ latch
	m.Poke(0xC001, 0, 0)     // IRQ reload
	m.Poke(0xE001, 0, 0)     // IRQ enable

	scanlines := 0
	for !m.CheckIRQ() && scanlines < 20 {
		simulateScanlineA12(m)
		scanlines++
	}
	if scanlines != latch+1 {
		t.Errorf("IRQ fired after %d scanlines, want %d", scanlines, latch+1)
	}
}

func TestMMC3IRQDisableClearsPending(t *testing.T) {
	m := newTestMMC3(8, 8)
	m.Poke(0xC000, 0, 0)
	m.Poke(0xC001, 0, 0)
	m.Poke(0xE001, 0, 0)
	simulateScanlineA12(m)
	if !m.CheckIRQ() {
		t.Fatal("expected IRQ pending with latch=0")
	}
	m.Poke(0xE000, 0, 0) // disable
	if m.CheckIRQ() {
		t.Error("IRQ disable should clear pending flag")
	}
}

func TestMMC3MirroringWrite(t *testing.T) {
	m := newTestMMC3(8, 8)
	m.Poke(0xA000, 0, 0)
	if m.mirror != MirrorVertical {
		t.Errorf("mirror = %v, want vertical", m.mirror)
	}
	m.Poke(0xA000, 1, 0)
	if m.mirror != MirrorHorizontal {
		t.Errorf("mirror = %v, want horizontal", m.mirror)
	}
}
