// Package cpu implements a cycle-exact interpreter for the NES's 6502
// (technically Ricoh 2A03) core: documented opcodes, the handful of
// undocumented NOPs real cartridges rely on, and the dummy bus accesses
// that make the cycle count bit-exact with real hardware.
package cpu

import "github.com/golang/glog"

// Interrupt identifies which vector a pending interrupt should service.
type Interrupt uint8

const (
	NoInterrupt Interrupt = iota
	InterruptReset
	InterruptIRQ
	InterruptNMI
)

// Bus is the address space the CPU executes against. Reads and writes in
// the $2000-$3FFF and $4000-$4017 ranges are expected to run a PPU/APU
// catch-up before touching the device, per the bus decode table.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// IRQSource reports the level-sensitive IRQ line driven by the cartridge
// mapper. It is polled once per instruction boundary; NMI and APU-raised
// IRQs instead set PendingInterrupt directly as edge events.
type IRQSource interface {
	CheckIRQ() bool
}

// Trace is passed to a hook installed with SetTraceHook before each
// instruction fetch.
type Trace struct {
	PC     uint16
	Opcode uint8
	A, X, Y, SP uint8
	Status uint8
	Cycles uint64
}

// CPU holds the 6502 register file plus the scheduler-visible cycle
// counter. Cycles is charged by read/write, exactly mirroring the real
// chip's bus activity; PPU and APU catch-up is driven off this counter.
type CPU struct {
	A, X, Y uint8
	PC      uint16
	SP      uint8

	StatusC, StatusZ, StatusI, StatusD, StatusV, StatusN bool

	PendingInterrupt Interrupt
	Cycles           uint64

	bus Bus
	irq IRQSource

	traceHook func(Trace)
}

// New creates a CPU wired to bus for memory access and irq for level-
// polled mapper IRQ lines. Registers are left zeroed; call Reset to bring
// the CPU to its power-on/reset state.
func New(bus Bus, irq IRQSource) *CPU {
	return &CPU{
		bus: bus,
		irq: irq,
	}
}

// SetTraceHook installs fn to be called with the machine state immediately
// before each instruction fetch. Pass nil to disable. This is a structured
// diagnostic callback, not a rendered debug overlay.
func (c *CPU) SetTraceHook(fn func(Trace)) {
	c.traceHook = fn
}

// TriggerNMI latches a non-maskable interrupt; it takes priority over any
// pending IRQ and is serviced at the next instruction boundary.
func (c *CPU) TriggerNMI() {
	c.PendingInterrupt = InterruptNMI
}

// TriggerIRQ latches an edge-sourced IRQ (frame sequencer, DMC). This is
// distinct from the mapper's level-polled IRQ line, which is read via
// IRQSource.CheckIRQ on every instruction boundary instead.
func (c *CPU) TriggerIRQ() {
	if c.PendingInterrupt == NoInterrupt {
		c.PendingInterrupt = InterruptIRQ
	}
}

// AddStallCycles charges extra bus cycles with no corresponding access,
// used to approximate the CPU stall a DMC sample fetch imposes.
func (c *CPU) AddStallCycles(n uint64) {
	c.Cycles += n
}

// Read performs a raw bus read without charging an instruction cycle,
// used by the APU's DMC channel to fetch sample bytes directly off the
// CPU bus (the stall this imposes is charged separately via
// AddStallCycles, approximating real DMA bus contention).
func (c *CPU) Read(addr uint16) uint8 {
	return c.bus.Read(addr)
}

func (c *CPU) read(addr uint16) uint8 {
	v := c.bus.Read(addr)
	c.Cycles++
	return v
}

func (c *CPU) write(addr uint16, value uint8) {
	c.bus.Write(addr, value)
	c.Cycles++
}

func (c *CPU) statusPack(statusB bool) uint8 {
	var p uint8
	if c.StatusC {
		p |= 1 << 0
	}
	if c.StatusZ {
		p |= 1 << 1
	}
	if c.StatusI {
		p |= 1 << 2
	}
	if c.StatusD {
		p |= 1 << 3
	}
	if statusB {
		p |= 1 << 4
	}
	p |= 1 << 5
	if c.StatusV {
		p |= 1 << 6
	}
	if c.StatusN {
		p |= 1 << 7
	}
	return p
}

func (c *CPU) statusUnpack(p uint8) {
	c.StatusC = p&(1<<0) != 0
	c.StatusZ = p&(1<<1) != 0
	c.StatusI = p&(1<<2) != 0
	c.StatusD = p&(1<<3) != 0
	c.StatusV = p&(1<<6) != 0
	c.StatusN = p&(1<<7) != 0
}

func (c *CPU) vectorNMI() uint16   { return uint16(c.read(0xFFFA)) | uint16(c.read(0xFFFB))<<8 }
func (c *CPU) vectorReset() uint16 { return uint16(c.read(0xFFFC)) | uint16(c.read(0xFFFD))<<8 }
func (c *CPU) vectorBRK() uint16   { return uint16(c.read(0xFFFE)) | uint16(c.read(0xFFFF))<<8 }

func (c *CPU) stackPush(data uint8) {
	c.write(0x0100|uint16(c.SP), data)
	c.SP--
}

func (c *CPU) stackPull() uint8 {
	c.SP++
	return c.read(0x0100 | uint16(c.SP))
}

// handleInterrupt services whichever interrupt is pending: two dummy PC
// reads, push PC-high/PC-low/status (B=0), set I, load PC from the vector.
func (c *CPU) handleInterrupt() {
	c.read(c.PC)
	c.read(c.PC)
	c.stackPush(uint8(c.PC >> 8))
	c.stackPush(uint8(c.PC & 0xFF))
	c.stackPush(c.statusPack(false))
	c.StatusI = true
	switch c.PendingInterrupt {
	case InterruptNMI:
		c.PC = c.vectorNMI()
	case InterruptIRQ:
		c.PC = c.vectorBRK()
	case InterruptReset:
		c.PC = c.vectorReset()
	}
	c.PendingInterrupt = NoInterrupt
}

// Reset drives the CPU through its power-on/reset sequence: this leaves
// Cycles at 7, matching the real chip (3 stack pushes that don't write,
// plus 2 dummy reads and 2 vector-byte reads).
func (c *CPU) Reset() {
	c.SP -= 3
	c.StatusI = true
	c.PendingInterrupt = NoInterrupt
	c.read(c.PC)
	c.read(c.PC)
	c.Cycles += 3 // the 3 "pushes" during reset don't touch the bus, but do cost cycles
	c.PC = c.vectorReset()
}

func (c *CPU) setStatusLoad(val uint8) uint8 {
	c.StatusZ = val == 0
	c.StatusN = val&0x80 != 0
	return val
}

// readU16Wrapped reads the lo byte from addrLo and the hi byte from
// addrLo+1, wrapping the increment within the low byte only. This
// reproduces the page-wrap bug in the original JMP ($nnnn) hardware.
func (c *CPU) readU16Wrapped(addrLo uint16) uint16 {
	addrHi := (addrLo & 0xFF00) | ((addrLo + 1) & 0x00FF)
	lo := uint16(c.read(addrLo))
	hi := uint16(c.read(addrHi))
	return hi<<8 | lo
}

func (c *CPU) addressAbsolute() uint16 {
	lo := c.read(c.PC)
	hi := c.read(c.PC + 1)
	c.PC += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) addressIndirect() uint16 {
	addr := c.addressAbsolute()
	return c.readU16Wrapped(addr)
}

func (c *CPU) addressImmediate() uint8 {
	data := c.read(c.PC)
	c.PC++
	return data
}

func (c *CPU) addressZeroPage() uint16 {
	addr := uint16(c.read(c.PC))
	c.PC++
	return addr
}

func (c *CPU) addressZeroPageIndexed(index uint8) uint16 {
	addr := uint16(c.read(c.PC))
	c.PC++
	c.Cycles++ // dummy read while the index is added
	return (addr + uint16(index)) & 0xFF
}

// addressAbsoluteIndexed returns (initial, fixed): initial is the address
// formed without carrying into the high byte, fixed is the real target.
// Callers compare the two to decide whether a page-cross penalty applies.
func (c *CPU) addressAbsoluteIndexed(index uint8) (initial, fixed uint16) {
	base := c.addressAbsolute()
	fixed = base + uint16(index)
	initial = (base & 0xFF00) | (fixed & 0xFF)
	return initial, fixed
}

func (c *CPU) addressIndexedIndirect() uint16 {
	base := uint16(c.read(c.PC))
	c.PC++
	c.Cycles++ // dummy read of base
	addr := (base + uint16(c.X)) & 0xFF
	return c.readU16Wrapped(addr)
}

func (c *CPU) addressIndirectIndexed() (initial, fixed uint16) {
	ptr := uint16(c.read(c.PC))
	c.PC++
	base := c.readU16Wrapped(ptr)
	fixed = base + uint16(c.Y)
	initial = (base & 0xFF00) | (fixed & 0xFF)
	return initial, fixed
}

func (c *CPU) doBranch(condition bool) {
	offset := int8(c.addressImmediate())
	if !condition {
		return
	}
	oldPC := c.PC
	newPC := uint16(int32(oldPC) + int32(offset))
	c.Cycles++
	if oldPC&0xFF00 != newPC&0xFF00 {
		c.Cycles++
	}
	c.PC = newPC
}

// readIndexed performs a read-mode addressing fetch for the indexed
// absolute/indirect-indexed families, charging the extra dummy read only
// when the page-crossing fixup is needed.
func (c *CPU) readIndexed(initial, fixed uint16) uint8 {
	if initial == fixed {
		return c.read(initial)
	}
	c.read(initial)
	return c.read(fixed)
}

// Step executes exactly one instruction, after first servicing any
// pending interrupt or polling the mapper's level-sensitive IRQ line.
func (c *CPU) Step() {
	if c.PendingInterrupt != NoInterrupt {
		c.handleInterrupt()
	} else if !c.StatusI && c.irq != nil && c.irq.CheckIRQ() {
		c.PendingInterrupt = InterruptIRQ
		c.handleInterrupt()
	}

	if c.traceHook != nil {
		c.traceHook(Trace{
			PC: c.PC, Opcode: c.bus.Read(c.PC),
			A: c.A, X: c.X, Y: c.Y, SP: c.SP,
			Status: c.statusPack(false), Cycles: c.Cycles,
		})
	}

	opcode := c.read(c.PC)
	c.PC++
	c.execute(opcode)
}

func (c *CPU) illegalOpcode(opcode uint8) {
	glog.Fatalf("cpu: illegal opcode %#02x at pc=%#04x", opcode, c.PC-1)
}
