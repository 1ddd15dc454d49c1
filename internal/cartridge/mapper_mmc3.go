package cartridge

// mmc3 implements iNES mapper 4 (MMC3 / TxROM): a bank-select/bank-data
// register pair chooses eight banks (R0-R7) mapped onto four 8KiB PRG
// slots and eight 1KiB CHR slots, plus a scanline IRQ counter clocked by
// rising edges of the PPU's A12 address line. Grounded on
// andrewthecodertx-go-nes-emulator's Mapper4, generalized onto this
// module's Mapper interface and vramBank base.
type mmc3 struct {
	cart *Cartridge
	vramBank

	bankSelect uint8
	prgMode    uint8
	chrMode    uint8
	regs       [8]uint8

	prgRAMEnabled      bool
	prgRAMWriteProtect bool

	irqLatch      uint8
	irqCounter    uint8
	irqEnabled    bool
	irqPending    bool
	irqReload     bool

	lastA12 bool

	prgBanks uint8
}

func newMMC3(cart *Cartridge) *mmc3 {
	return &mmc3{
		cart:          cart,
		vramBank:      vramBank{mirror: cart.mirror},
		prgRAMEnabled: true,
		prgBanks:      uint8(len(cart.PRGROM) / 0x2000),
	}
}

func (m *mmc3) ID() uint8 { return 4 }

func (m *mmc3) Peek(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		var bank uint8
		switch {
		case addr < 0xA000:
			if m.prgMode == 0 {
				bank = m.regs[6]
			} else {
				bank = m.prgBanks - 2
			}
		case addr < 0xC000:
			bank = m.regs[7]
		case addr < 0xE000:
			if m.prgMode == 0 {
				bank = m.prgBanks - 2
			} else {
				bank = m.regs[6]
			}
		default:
			bank = m.prgBanks - 1
		}
		offset := uint32(bank)*0x2000 + uint32(addr&0x1FFF)
		if int(offset) < len(m.cart.PRGROM) {
			return m.cart.PRGROM[offset]
		}
		return 0
	case addr >= 0x6000:
		if m.prgRAMEnabled {
			return m.cart.prgRAM[addr-0x6000]
		}
		return 0
	default:
		return 0
	}
}

func (m *mmc3) Poke(addr uint16, value uint8, cycle uint64) {
	switch {
	case addr < 0x6000:
		return
	case addr < 0x8000:
		if m.prgRAMEnabled && !m.prgRAMWriteProtect {
			m.cart.prgRAM[addr-0x6000] = value
		}
	case addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = value & 0x07
			m.prgMode = (value >> 6) & 0x01
			m.chrMode = (value >> 7) & 0x01
		} else {
			m.regs[m.bankSelect] = value
		}
	case addr < 0xC000:
		if addr&1 == 0 {
			if value&1 == 0 {
				m.mirror = MirrorVertical
			} else {
				m.mirror = MirrorHorizontal
			}
		} else {
			m.prgRAMWriteProtect = value&0x40 != 0
			m.prgRAMEnabled = value&0x80 != 0
		}
	case addr < 0xE000:
		if addr&1 == 0 {
			m.irqLatch = value
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}
	default:
		if addr&1 == 0 {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

func (m *mmc3) chrOffset(addr uint16) uint32 {
	var bank uint8
	var base uint16
	if m.chrMode == 0 {
		switch {
		case addr < 0x0800:
			bank, base = m.regs[0]&0xFE, 0x0000
		case addr < 0x1000:
			bank, base = m.regs[1]&0xFE, 0x0800
		case addr < 0x1400:
			bank, base = m.regs[2], 0x1000
		case addr < 0x1800:
			bank, base = m.regs[3], 0x1400
		case addr < 0x1C00:
			bank, base = m.regs[4], 0x1800
		default:
			bank, base = m.regs[5], 0x1C00
		}
	} else {
		switch {
		case addr < 0x0400:
			bank, base = m.regs[2], 0x0000
		case addr < 0x0800:
			bank, base = m.regs[3], 0x0400
		case addr < 0x0C00:
			bank, base = m.regs[4], 0x0800
		case addr < 0x1000:
			bank, base = m.regs[5], 0x0C00
		case addr < 0x1800:
			bank, base = m.regs[0]&0xFE, 0x1000
		default:
			bank, base = m.regs[1]&0xFE, 0x1800
		}
	}
	return uint32(bank)*0x400 + uint32(addr-base)
}

func (m *mmc3) PPUPeek(addr uint16) uint8 {
	if addr < 0x2000 {
		offset := m.chrOffset(addr)
		if int(offset) < len(m.cart.CHRROM) {
			return m.cart.CHRROM[offset]
		}
		return 0
	}
	return m.read(addr)
}

func (m *mmc3) PPUPoke(addr uint16, value uint8) {
	if addr < 0x2000 {
		if m.cart.chrIsRAM {
			offset := m.chrOffset(addr)
			if int(offset) < len(m.cart.CHRROM) {
				m.cart.CHRROM[offset] = value
			}
		}
		return
	}
	m.write(addr, value)
}

// ClockA12 is called by the PPU for every pattern-table address fetch. The
// IRQ counter decrements on each rising edge of line A12 (address bit 12),
// per spec.md §4.5.
func (m *mmc3) ClockA12(addr uint16) {
	a12 := addr&0x1000 != 0
	if a12 && !m.lastA12 {
		if m.irqCounter == 0 || m.irqReload {
			m.irqCounter = m.irqLatch
			m.irqReload = false
		} else {
			m.irqCounter--
		}
		if m.irqCounter == 0 && m.irqEnabled {
			m.irqPending = true
		}
	}
	m.lastA12 = a12
}

func (m *mmc3) CheckIRQ() bool { return m.irqPending }
