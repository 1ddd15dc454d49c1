package cartridge

// mmc1 implements iNES mapper 1 (MMC1 / SxROM): a 5-bit serial shift
// register loaded one bit per write to $8000-$FFFF selects one of four
// internal registers (control, CHR0, CHR1, PRG) once five bits have
// accumulated. Grounded on andrewthecodertx-go-nes-emulator's Mapper1,
// generalized onto this module's Mapper interface and vramBank base.
type mmc1 struct {
	cart *Cartridge
	vramBank

	shift      uint8
	shiftCount uint8
	lastWriteCycle uint64
	haveLastWrite  bool

	control uint8 // mirror(2) | prgMode(2) | chrMode(1)
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgBanks uint8
	chrBanks uint8
}

func newMMC1(cart *Cartridge) *mmc1 {
	m := &mmc1{
		cart:     cart,
		vramBank: vramBank{mirror: cart.mirror},
		control:  0x0C, // power-on: PRG mode 3 (fix last bank)
		prgBanks: uint8(len(cart.PRGROM) / 0x4000),
		chrBanks: uint8(len(cart.CHRROM) / 0x1000),
	}
	if m.chrBanks == 0 {
		m.chrBanks = 1
	}
	return m
}

func (m *mmc1) ID() uint8 { return 1 }

func (m *mmc1) mirrorMode() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleLower
	case 1:
		return MirrorSingleUpper
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *mmc1) prgMode() uint8 { return (m.control >> 2) & 0x03 }
func (m *mmc1) chrMode() uint8 { return (m.control >> 4) & 0x01 }

func (m *mmc1) Peek(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		var bank uint8
		switch m.prgMode() {
		case 0, 1:
			bank = (m.prgBank &^ 1) | boolBank(addr >= 0xC000)
		case 2:
			if addr < 0xC000 {
				bank = 0
			} else {
				bank = m.prgBank
			}
		default: // 3
			if addr < 0xC000 {
				bank = m.prgBank
			} else {
				bank = m.prgBanks - 1
			}
		}
		offset := uint32(bank)*0x4000 + uint32(addr&0x3FFF)
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

func boolBank(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (m *mmc1) Poke(addr uint16, value uint8, cycle uint64) {
	if addr < 0x6000 {
		return
	}
	if addr < 0x8000 {
		m.cart.prgRAM[addr-0x6000] = value
		return
	}

	// Ignore the second write of a same-cycle-adjacent pair (the classic
	// RMW-instruction double-write quirk).
	if m.haveLastWrite && cycle == m.lastWriteCycle+1 {
		m.lastWriteCycle = cycle
		return
	}
	m.lastWriteCycle = cycle
	m.haveLastWrite = true

	if value&0x80 != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		return
	}

	m.shift = (m.shift >> 1) | ((value & 1) << 4)
	m.shiftCount++
	if m.shiftCount < 5 {
		return
	}

	switch {
	case addr < 0xA000:
		m.control = m.shift & 0x1F
		m.mirror = m.mirrorMode()
	case addr < 0xC000:
		m.chrBank0 = m.shift & 0x1F
	case addr < 0xE000:
		m.chrBank1 = m.shift & 0x1F
	default:
		m.prgBank = m.shift & 0x0F
	}
	m.shift = 0
	m.shiftCount = 0
}

func (m *mmc1) chrOffset(addr uint16) (uint32, bool) {
	var bank uint8
	var offset uint32
	if m.chrMode() == 0 {
		bank = m.chrBank0 & 0x1E
		if addr >= 0x1000 {
			bank |= 1
		}
		offset = uint32(bank)*0x1000 + uint32(addr&0x0FFF)
	} else if addr < 0x1000 {
		bank = m.chrBank0
		offset = uint32(bank)*0x1000 + uint32(addr)
	} else {
		bank = m.chrBank1
		offset = uint32(bank)*0x1000 + uint32(addr-0x1000)
	}
	return offset, int(offset) < len(m.cart.CHRROM)
}

func (m *mmc1) PPUPeek(addr uint16) uint8 {
	if addr < 0x2000 {
		if offset, ok := m.chrOffset(addr); ok {
			return m.cart.CHRROM[offset]
		}
		return 0
	}
	return m.read(addr)
}

func (m *mmc1) PPUPoke(addr uint16, value uint8) {
	if addr < 0x2000 {
		if m.cart.chrIsRAM {
			if offset, ok := m.chrOffset(addr); ok {
				m.cart.CHRROM[offset] = value
			}
		}
		return
	}
	m.write(addr, value)
}

func (m *mmc1) ClockA12(addr uint16) {}
func (m *mmc1) CheckIRQ() bool       { return false }
