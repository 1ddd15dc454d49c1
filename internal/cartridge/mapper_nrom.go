package cartridge

// nrom implements iNES mapper 0 (NROM): no bank switching. 16KiB PRG-ROM
// is mirrored across $8000-$FFFF; 32KiB is mapped directly. CHR is either
// 8KiB of ROM or RAM. Grounded on andrewthecodertx-go-nes-emulator's
// Mapper0/Mapper1 layout, generalized onto this module's Mapper interface.
type nrom struct {
	cart *Cartridge
	vramBank
	prgMirrored bool
}

func newNROM(cart *Cartridge) *nrom {
	return &nrom{
		cart:        cart,
		vramBank:    vramBank{mirror: cart.mirror},
		prgMirrored: len(cart.PRGROM) <= 16384,
	}
}

func (m *nrom) ID() uint8 { return 0 }

func (m *nrom) Peek(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		offset := addr - 0x8000
		if m.prgMirrored {
			offset &= 0x3FFF
		}
		if int(offset) < len(m.cart.PRGROM) {
			return m.cart.PRGROM[offset]
		}
		return 0
	case addr >= 0x6000:
		return m.cart.prgRAM[addr-0x6000]
	default:
		return 0
	}
}

func (m *nrom) Poke(addr uint16, value uint8, cycle uint64) {
	if addr >= 0x6000 && addr < 0x8000 {
		m.cart.prgRAM[addr-0x6000] = value
	}
}

func (m *nrom) PPUPeek(addr uint16) uint8 {
	if addr < 0x2000 {
		return m.cart.CHRROM[addr]
	}
	return m.read(addr)
}

func (m *nrom) PPUPoke(addr uint16, value uint8) {
	if addr < 0x2000 {
		if m.cart.chrIsRAM {
			m.cart.CHRROM[addr] = value
		}
		return
	}
	m.write(addr, value)
}

func (m *nrom) ClockA12(addr uint16) {}
func (m *nrom) CheckIRQ() bool       { return false }
