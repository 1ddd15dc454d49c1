package cpu

// computeADC returns A+M+C and updates the carry/overflow flags.
func (c *CPU) computeADC(data uint8) uint8 {
	a := uint16(c.A)
	b := uint16(data)
	cc := uint16(0)
	if c.StatusC {
		cc = 1
	}
	result := a + b + cc
	c.StatusC = result > 0xFF
	c.StatusV = (a^b)&0x80 == 0 && (a^result)&0x80 != 0
	return uint8(result & 0xFF)
}

// computeSBC returns A-M-(1-C) and updates the carry/overflow flags.
func (c *CPU) computeSBC(data uint8) uint8 {
	a := int16(c.A)
	b := int16(data)
	cc := int16(0)
	if c.StatusC {
		cc = 1
	}
	result := a - b - (1 - cc)
	c.StatusC = result >= 0
	c.StatusV = (a^b)&0x80 != 0 && (a^result)&0x80 != 0
	return uint8(result & 0xFF)
}

func (c *CPU) computeBIT(data uint8) {
	c.StatusZ = c.A&data == 0
	c.StatusV = data&0x40 != 0
	c.StatusN = data&0x80 != 0
}

func (c *CPU) computeCMP(z, m uint8) {
	c.StatusC = z >= m
	c.StatusZ = z == m
	c.StatusN = (z-m)&0x80 != 0
}

func (c *CPU) computeLSR(data uint8) uint8 {
	c.StatusC = data&1 != 0
	return data >> 1
}

func (c *CPU) computeASL(data uint8) uint8 {
	c.StatusC = data&0x80 != 0
	return data << 1
}

func (c *CPU) computeROL(data uint8) uint8 {
	var carryIn uint8
	if c.StatusC {
		carryIn = 1
	}
	result := data<<1 | carryIn
	c.StatusC = data&0x80 != 0
	return result
}

func (c *CPU) computeROR(data uint8) uint8 {
	var carryIn uint8
	if c.StatusC {
		carryIn = 0x80
	}
	result := data>>1 | carryIn
	c.StatusC = data&0x1 != 0
	return result
}

// fetch-mode addressing helpers used by instructions that only read an
// operand (ADC, AND, CMP, EOR, LDA/X/Y, ORA, SBC, BIT).
func (c *CPU) loadZero() uint8               { return c.read(c.addressZeroPage()) }
func (c *CPU) loadZeroIndexed(idx uint8) uint8 { return c.read(c.addressZeroPageIndexed(idx)) }
func (c *CPU) loadAbs() uint8                { return c.read(c.addressAbsolute()) }
func (c *CPU) loadAbsIndexed(idx uint8) uint8 {
	initial, fixed := c.addressAbsoluteIndexed(idx)
	return c.readIndexed(initial, fixed)
}
func (c *CPU) loadIndirectX() uint8 { return c.read(c.addressIndexedIndirect()) }
func (c *CPU) loadIndirectY() uint8 {
	initial, fixed := c.addressIndirectIndexed()
	return c.readIndexed(initial, fixed)
}

// store-mode addressing: the indexed forms always dummy-read the
// un-fixed-up address before the real write, regardless of page cross.
func (c *CPU) storeZero(value uint8)               { c.write(c.addressZeroPage(), value) }
func (c *CPU) storeZeroIndexed(idx, value uint8)     { c.write(c.addressZeroPageIndexed(idx), value) }
func (c *CPU) storeAbs(value uint8)                { c.write(c.addressAbsolute(), value) }
func (c *CPU) storeAbsIndexed(idx, value uint8) {
	initial, fixed := c.addressAbsoluteIndexed(idx)
	c.read(initial)
	c.write(fixed, value)
}
func (c *CPU) storeIndirectX(value uint8) { c.write(c.addressIndexedIndirect(), value) }
func (c *CPU) storeIndirectY(value uint8) {
	initial, fixed := c.addressIndirectIndexed()
	c.read(initial)
	c.write(fixed, value)
}

// modifyAcc/modifyZero/... implement the read-modify-write addressing
// families, including the dummy writes real hardware performs.
func (c *CPU) modifyAcc(f func(uint8) uint8) {
	c.read(c.PC) // dummy read
	c.A = c.setStatusLoad(f(c.A))
}

func (c *CPU) modifyZero(f func(uint8) uint8) {
	addr := c.addressZeroPage()
	data := c.read(addr)
	c.Cycles++ // dummy write
	result := f(data)
	c.write(addr, result)
	c.setStatusLoad(result)
}

func (c *CPU) modifyZeroIndexed(idx uint8, f func(uint8) uint8) {
	addr := c.addressZeroPageIndexed(idx)
	data := c.read(addr)
	c.Cycles++ // dummy write
	result := f(data)
	c.write(addr, result)
	c.setStatusLoad(result)
}

func (c *CPU) modifyAbs(f func(uint8) uint8) {
	addr := c.addressAbsolute()
	data := c.read(addr)
	c.write(addr, data) // dummy write of the original value
	result := f(data)
	c.write(addr, result)
	c.setStatusLoad(result)
}

func (c *CPU) modifyAbsIndexed(idx uint8, f func(uint8) uint8) {
	initial, fixed := c.addressAbsoluteIndexed(idx)
	c.read(initial)
	data := c.read(fixed)
	c.write(fixed, data) // dummy write of the original value
	result := f(data)
	c.write(fixed, result)
	c.setStatusLoad(result)
}

// execute dispatches a single fetched opcode. Addressing, cycle, and flag
// semantics mirror the canonical 6502/2A03 instruction set exactly,
// including the undocumented NOP encodings cartridges rely on.
func (c *CPU) execute(opcode uint8) {
	switch opcode {
	// ADC
	case 0x69:
		c.A = c.setStatusLoad(c.computeADC(c.addressImmediate()))
	case 0x65:
		c.A = c.setStatusLoad(c.computeADC(c.loadZero()))
	case 0x75:
		c.A = c.setStatusLoad(c.computeADC(c.loadZeroIndexed(c.X)))
	case 0x6D:
		c.A = c.setStatusLoad(c.computeADC(c.loadAbs()))
	case 0x7D:
		c.A = c.setStatusLoad(c.computeADC(c.loadAbsIndexed(c.X)))
	case 0x79:
		c.A = c.setStatusLoad(c.computeADC(c.loadAbsIndexed(c.Y)))
	case 0x61:
		c.A = c.setStatusLoad(c.computeADC(c.loadIndirectX()))
	case 0x71:
		c.A = c.setStatusLoad(c.computeADC(c.loadIndirectY()))

	// AND
	case 0x29:
		c.A = c.setStatusLoad(c.A & c.addressImmediate())
	case 0x25:
		c.A = c.setStatusLoad(c.A & c.loadZero())
	case 0x35:
		c.A = c.setStatusLoad(c.A & c.loadZeroIndexed(c.X))
	case 0x2D:
		c.A = c.setStatusLoad(c.A & c.loadAbs())
	case 0x3D:
		c.A = c.setStatusLoad(c.A & c.loadAbsIndexed(c.X))
	case 0x39:
		c.A = c.setStatusLoad(c.A & c.loadAbsIndexed(c.Y))
	case 0x21:
		c.A = c.setStatusLoad(c.A & c.loadIndirectX())
	case 0x31:
		c.A = c.setStatusLoad(c.A & c.loadIndirectY())

	// ASL
	case 0x0A:
		c.modifyAcc(c.computeASL)
	case 0x06:
		c.modifyZero(c.computeASL)
	case 0x16:
		c.modifyZeroIndexed(c.X, c.computeASL)
	case 0x0E:
		c.modifyAbs(c.computeASL)
	case 0x1E:
		c.modifyAbsIndexed(c.X, c.computeASL)

	// Branches
	case 0x90:
		c.doBranch(!c.StatusC)
	case 0xB0:
		c.doBranch(c.StatusC)
	case 0xF0:
		c.doBranch(c.StatusZ)
	case 0x30:
		c.doBranch(c.StatusN)
	case 0xD0:
		c.doBranch(!c.StatusZ)
	case 0x10:
		c.doBranch(!c.StatusN)
	case 0x50:
		c.doBranch(!c.StatusV)
	case 0x70:
		c.doBranch(c.StatusV)

	// BIT
	case 0x24:
		c.computeBIT(c.loadZero())
	case 0x2C:
		c.computeBIT(c.loadAbs())

	// BRK
	case 0x00:
		c.read(c.PC)
		c.PC++
		c.stackPush(uint8(c.PC >> 8))
		c.stackPush(uint8(c.PC & 0xFF))
		c.stackPush(c.statusPack(true))
		c.StatusI = true
		c.PC = c.vectorBRK()

	// Flag ops
	case 0x18:
		c.read(c.PC)
		c.StatusC = false
	case 0xD8:
		c.read(c.PC)
		c.StatusD = false
	case 0x58:
		c.read(c.PC)
		c.StatusI = false
	case 0xB8:
		c.read(c.PC)
		c.StatusV = false
	case 0x38:
		c.read(c.PC)
		c.StatusC = true
	case 0xF8:
		c.read(c.PC)
		c.StatusD = true
	case 0x78:
		c.read(c.PC)
		c.StatusI = true

	// CMP
	case 0xC9:
		c.computeCMP(c.A, c.addressImmediate())
	case 0xC5:
		c.computeCMP(c.A, c.loadZero())
	case 0xD5:
		c.computeCMP(c.A, c.loadZeroIndexed(c.X))
	case 0xCD:
		c.computeCMP(c.A, c.loadAbs())
	case 0xDD:
		c.computeCMP(c.A, c.loadAbsIndexed(c.X))
	case 0xD9:
		c.computeCMP(c.A, c.loadAbsIndexed(c.Y))
	case 0xC1:
		c.computeCMP(c.A, c.loadIndirectX())
	case 0xD1:
		c.computeCMP(c.A, c.loadIndirectY())

	// CPX
	case 0xE0:
		c.computeCMP(c.X, c.addressImmediate())
	case 0xE4:
		c.computeCMP(c.X, c.loadZero())
	case 0xEC:
		c.computeCMP(c.X, c.loadAbs())

	// CPY
	case 0xC0:
		c.computeCMP(c.Y, c.addressImmediate())
	case 0xC4:
		c.computeCMP(c.Y, c.loadZero())
	case 0xCC:
		c.computeCMP(c.Y, c.loadAbs())

	// DEC
	case 0xC6:
		c.modifyZero(func(v uint8) uint8 { return v - 1 })
	case 0xD6:
		c.modifyZeroIndexed(c.X, func(v uint8) uint8 { return v - 1 })
	case 0xCE:
		c.modifyAbs(func(v uint8) uint8 { return v - 1 })
	case 0xDE:
		c.modifyAbsIndexed(c.X, func(v uint8) uint8 { return v - 1 })
	case 0xCA:
		c.read(c.PC)
		c.X = c.setStatusLoad(c.X - 1)
	case 0x88:
		c.read(c.PC)
		c.Y = c.setStatusLoad(c.Y - 1)

	// EOR
	case 0x49:
		c.A = c.setStatusLoad(c.A ^ c.addressImmediate())
	case 0x45:
		c.A = c.setStatusLoad(c.A ^ c.loadZero())
	case 0x55:
		c.A = c.setStatusLoad(c.A ^ c.loadZeroIndexed(c.X))
	case 0x4D:
		c.A = c.setStatusLoad(c.A ^ c.loadAbs())
	case 0x5D:
		c.A = c.setStatusLoad(c.A ^ c.loadAbsIndexed(c.X))
	case 0x59:
		c.A = c.setStatusLoad(c.A ^ c.loadAbsIndexed(c.Y))
	case 0x41:
		c.A = c.setStatusLoad(c.A ^ c.loadIndirectX())
	case 0x51:
		c.A = c.setStatusLoad(c.A ^ c.loadIndirectY())

	// INC
	case 0xE6:
		c.modifyZero(func(v uint8) uint8 { return v + 1 })
	case 0xF6:
		c.modifyZeroIndexed(c.X, func(v uint8) uint8 { return v + 1 })
	case 0xEE:
		c.modifyAbs(func(v uint8) uint8 { return v + 1 })
	case 0xFE:
		c.modifyAbsIndexed(c.X, func(v uint8) uint8 { return v + 1 })
	case 0xE8:
		c.read(c.PC)
		c.X = c.setStatusLoad(c.X + 1)
	case 0xC8:
		c.read(c.PC)
		c.Y = c.setStatusLoad(c.Y + 1)

	// JMP
	case 0x4C:
		c.PC = c.addressAbsolute()
	case 0x6C:
		c.PC = c.addressIndirect()

	// JSR
	case 0x20:
		lo := c.read(c.PC)
		c.PC++
		c.Cycles++ // internal delay
		hi := c.read(c.PC)
		target := uint16(hi)<<8 | uint16(lo)
		returnAddr := c.PC
		c.stackPush(uint8(returnAddr >> 8))
		c.stackPush(uint8(returnAddr & 0xFF))
		c.PC = target

	// LDA
	case 0xA9:
		c.A = c.setStatusLoad(c.addressImmediate())
	case 0xA5:
		c.A = c.setStatusLoad(c.loadZero())
	case 0xB5:
		c.A = c.setStatusLoad(c.loadZeroIndexed(c.X))
	case 0xAD:
		c.A = c.setStatusLoad(c.loadAbs())
	case 0xBD:
		c.A = c.setStatusLoad(c.loadAbsIndexed(c.X))
	case 0xB9:
		c.A = c.setStatusLoad(c.loadAbsIndexed(c.Y))
	case 0xA1:
		c.A = c.setStatusLoad(c.loadIndirectX())
	case 0xB1:
		c.A = c.setStatusLoad(c.loadIndirectY())

	// LDX
	case 0xA2:
		c.X = c.setStatusLoad(c.addressImmediate())
	case 0xA6:
		c.X = c.setStatusLoad(c.loadZero())
	case 0xB6:
		c.X = c.setStatusLoad(c.loadZeroIndexed(c.Y))
	case 0xAE:
		c.X = c.setStatusLoad(c.loadAbs())
	case 0xBE:
		c.X = c.setStatusLoad(c.loadAbsIndexed(c.Y))

	// LDY
	case 0xA0:
		c.Y = c.setStatusLoad(c.addressImmediate())
	case 0xA4:
		c.Y = c.setStatusLoad(c.loadZero())
	case 0xB4:
		c.Y = c.setStatusLoad(c.loadZeroIndexed(c.X))
	case 0xAC:
		c.Y = c.setStatusLoad(c.loadAbs())
	case 0xBC:
		c.Y = c.setStatusLoad(c.loadAbsIndexed(c.X))

	// LSR
	case 0x4A:
		c.modifyAcc(c.computeLSR)
	case 0x46:
		c.modifyZero(c.computeLSR)
	case 0x56:
		c.modifyZeroIndexed(c.X, c.computeLSR)
	case 0x4E:
		c.modifyAbs(c.computeLSR)
	case 0x5E:
		c.modifyAbsIndexed(c.X, c.computeLSR)

	// NOP (documented) and the undocumented encodings the spec requires
	case 0xEA, 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA:
		c.read(c.PC)
	case 0x80, 0x89:
		c.addressImmediate()
	case 0x04, 0x44, 0x64:
		c.read(c.addressZeroPage())
	case 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4:
		c.read(c.addressZeroPageIndexed(c.X))
	case 0x0C:
		c.read(c.addressAbsolute())
	case 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC:
		c.loadAbsIndexed(c.X)

	// ORA
	case 0x09:
		c.A = c.setStatusLoad(c.A | c.addressImmediate())
	case 0x05:
		c.A = c.setStatusLoad(c.A | c.loadZero())
	case 0x15:
		c.A = c.setStatusLoad(c.A | c.loadZeroIndexed(c.X))
	case 0x0D:
		c.A = c.setStatusLoad(c.A | c.loadAbs())
	case 0x1D:
		c.A = c.setStatusLoad(c.A | c.loadAbsIndexed(c.X))
	case 0x19:
		c.A = c.setStatusLoad(c.A | c.loadAbsIndexed(c.Y))
	case 0x01:
		c.A = c.setStatusLoad(c.A | c.loadIndirectX())
	case 0x11:
		c.A = c.setStatusLoad(c.A | c.loadIndirectY())

	// Stack ops
	case 0x48:
		c.read(c.PC)
		c.stackPush(c.A)
	case 0x08:
		c.read(c.PC)
		c.stackPush(c.statusPack(true))
	case 0x68:
		c.read(c.PC)
		c.Cycles++ // dummy SP increment cycle
		c.A = c.setStatusLoad(c.stackPull())
	case 0x28:
		c.read(c.PC)
		c.Cycles++
		c.statusUnpack(c.stackPull())

	// ROL / ROR
	case 0x2A:
		c.modifyAcc(c.computeROL)
	case 0x26:
		c.modifyZero(c.computeROL)
	case 0x36:
		c.modifyZeroIndexed(c.X, c.computeROL)
	case 0x2E:
		c.modifyAbs(c.computeROL)
	case 0x3E:
		c.modifyAbsIndexed(c.X, c.computeROL)
	case 0x6A:
		c.modifyAcc(c.computeROR)
	case 0x66:
		c.modifyZero(c.computeROR)
	case 0x76:
		c.modifyZeroIndexed(c.X, c.computeROR)
	case 0x6E:
		c.modifyAbs(c.computeROR)
	case 0x7E:
		c.modifyAbsIndexed(c.X, c.computeROR)

	// RTI / RTS
	case 0x40:
		c.read(c.PC)
		c.Cycles++
		c.statusUnpack(c.stackPull())
		lo := c.stackPull()
		hi := c.stackPull()
		c.PC = uint16(hi)<<8 | uint16(lo)
	case 0x60:
		c.read(c.PC)
		c.Cycles++
		lo := c.stackPull()
		hi := c.stackPull()
		c.PC = uint16(hi)<<8 | uint16(lo)
		c.read(c.PC)
		c.PC++

	// SBC
	case 0xE9:
		c.A = c.setStatusLoad(c.computeSBC(c.addressImmediate()))
	case 0xE5:
		c.A = c.setStatusLoad(c.computeSBC(c.loadZero()))
	case 0xF5:
		c.A = c.setStatusLoad(c.computeSBC(c.loadZeroIndexed(c.X)))
	case 0xED:
		c.A = c.setStatusLoad(c.computeSBC(c.loadAbs()))
	case 0xFD:
		c.A = c.setStatusLoad(c.computeSBC(c.loadAbsIndexed(c.X)))
	case 0xF9:
		c.A = c.setStatusLoad(c.computeSBC(c.loadAbsIndexed(c.Y)))
	case 0xE1:
		c.A = c.setStatusLoad(c.computeSBC(c.loadIndirectX()))
	case 0xF1:
		c.A = c.setStatusLoad(c.computeSBC(c.loadIndirectY()))

	// STA / STX / STY
	case 0x85:
		c.storeZero(c.A)
	case 0x95:
		c.storeZeroIndexed(c.X, c.A)
	case 0x8D:
		c.storeAbs(c.A)
	case 0x9D:
		c.storeAbsIndexed(c.X, c.A)
	case 0x99:
		c.storeAbsIndexed(c.Y, c.A)
	case 0x81:
		c.storeIndirectX(c.A)
	case 0x91:
		c.storeIndirectY(c.A)
	case 0x86:
		c.storeZero(c.X)
	case 0x96:
		c.storeZeroIndexed(c.Y, c.X)
	case 0x8E:
		c.storeAbs(c.X)
	case 0x84:
		c.storeZero(c.Y)
	case 0x94:
		c.storeZeroIndexed(c.X, c.Y)
	case 0x8C:
		c.storeAbs(c.Y)

	// Register transfers
	case 0xAA:
		c.read(c.PC)
		c.X = c.setStatusLoad(c.A)
	case 0xA8:
		c.read(c.PC)
		c.Y = c.setStatusLoad(c.A)
	case 0xBA:
		c.read(c.PC)
		c.X = c.setStatusLoad(c.SP)
	case 0x8A:
		c.read(c.PC)
		c.A = c.setStatusLoad(c.X)
	case 0x9A:
		c.read(c.PC)
		c.SP = c.X
	case 0x98:
		c.read(c.PC)
		c.A = c.setStatusLoad(c.Y)

	default:
		c.illegalOpcode(opcode)
	}
}
