// Package bus implements the NES system bus: the address-decode table that
// connects CPU, PPU, APU, cartridge mapper, and controllers, and the
// catch-up scheduling that keeps PPU/APU state correct at the instant the
// CPU touches their registers.
package bus

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

const cpuCyclesPerFrame = 29781

// Bus owns every NES component and is the cpu.Bus this core's CPU executes
// against. The cartridge mapper is handed to the CPU as the IRQSource it
// polls, and the CPU is handed to the APU as its apu.CPU for DMC sample
// fetches.
type Bus struct {
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	apu    *apu.APU
	mapper cartridge.Mapper
	cart   *cartridge.Cartridge

	controller1 *input.Controller
	controller2 *input.Controller

	ram [0x0800]uint8

	dmaPending bool
}

// New builds a Bus around cart, wiring its mapper to the PPU (CHR/nametable
// access, A12 IRQ clocking), the CPU (mapper IRQ polling), and the CPU/PPU/
// APU catch-up scheduling described in spec.md §4.1.
func New(cart *cartridge.Cartridge) (*Bus, error) {
	mapper, err := cart.NewMapper()
	if err != nil {
		return nil, fmt.Errorf("bus: %w", err)
	}

	b := &Bus{
		mapper:      mapper,
		cart:        cart,
		controller1: input.New(),
		controller2: input.New(),
	}
	b.ppu = ppu.New(mapper, b.triggerNMI)
	b.cpu = cpu.New(b, b.mapper)
	b.apu = apu.New(b.cpu)
	b.cpu.Reset()
	return b, nil
}

// LoadFromReader is a convenience constructor that parses an iNES image
// straight from r.
func LoadFromReader(r io.Reader) (*Bus, error) {
	cart, err := cartridge.Load(r)
	if err != nil {
		return nil, err
	}
	return New(cart)
}

func (b *Bus) triggerNMI() {
	b.cpu.TriggerNMI()
}

// Read implements cpu.Bus, decoding the full $0000-$FFFF CPU address space
// per spec.md §4.1. Reads into PPU/APU register space first catch those
// devices up to the CPU's current cycle count.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		b.ppu.CatchUp(b.cpu.Cycles)
		return b.ppu.ReadRegister(addr)
	case addr == 0x4015:
		b.apu.CatchUp(b.cpu.Cycles)
		return b.apu.PeekRegister()
	case addr == 0x4016:
		return b.controller1.Read()
	case addr == 0x4017:
		return b.controller2.Read() | 0x40
	case addr < 0x4018:
		return 0
	default:
		return b.mapper.Peek(addr)
	}
}

// Write implements cpu.Bus, mirroring Read's decode table.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = value
	case addr < 0x4000:
		b.ppu.CatchUp(b.cpu.Cycles)
		b.ppu.WriteRegister(addr, value)
	case addr == 0x4014:
		b.oamDMA(value)
	case addr == 0x4016:
		b.controller1.Write(value&1 != 0)
		b.controller2.Write(value&1 != 0)
	case addr == 0x4017:
		b.apu.CatchUp(b.cpu.Cycles)
		b.apu.PokeRegister(addr, value)
	case addr < 0x4018:
		b.apu.CatchUp(b.cpu.Cycles)
		b.apu.PokeRegister(addr, value)
	default:
		b.mapper.Poke(addr, value, b.cpu.Cycles)
	}
}

// oamDMA performs the 256-byte copy from page (value<<8) into OAM and
// charges the CPU the 513/514-cycle stall real hardware imposes, per
// spec.md §4.1.
func (b *Bus) oamDMA(page uint8) {
	if b.dmaPending {
		glog.Warning("bus: OAM DMA retriggered while one was already in flight")
	}
	b.dmaPending = true
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.ppu.OAMDMAWrite(b.Read(base + uint16(i)))
	}
	cycles := uint64(513)
	if b.cpu.Cycles%2 == 1 {
		cycles = 514
	}
	b.cpu.AddStallCycles(cycles)
	b.dmaPending = false
}

// Step executes exactly one CPU instruction (servicing any pending
// interrupt first) and returns the number of CPU cycles it consumed.
func (b *Bus) Step() uint64 {
	before := b.cpu.Cycles
	b.cpu.Step()
	return b.cpu.Cycles - before
}

// EmulateFrame runs the system until the PPU enters VBlank (spec.md's
// Open Question O2 resolution: a frame's boundary is PPU VBlank entry,
// not a fixed CPU cycle count), returning the completed frame buffer and
// the audio samples generated during it. A real NTSC frame is ~29781 CPU
// cycles (cpuCyclesPerFrame), but this loop runs exactly to the VBlank
// edge rather than an approximation of it.
func (b *Bus) EmulateFrame() ([]uint32, []float32) {
	b.apu.StartFrame()
	for {
		b.cpu.Step()
		b.ppu.CatchUp(b.cpu.Cycles)
		if b.ppu.TakeFrameComplete() {
			break
		}
	}
	b.apu.CatchUp(b.cpu.Cycles)
	return b.ppu.FrameBuffer(), b.apu.CompleteFrame()
}

// FrameBuffer returns the most recently completed 256x240 frame.
func (b *Bus) FrameBuffer() []uint32 { return b.ppu.FrameBuffer() }

// SetController1State replaces controller 1's held buttons, in A/B/Select/
// Start/Up/Down/Left/Right order.
func (b *Bus) SetController1State(buttons [8]bool) { b.controller1.SetButtons(buttons) }

// SetController2State replaces controller 2's held buttons.
func (b *Bus) SetController2State(buttons [8]bool) { b.controller2.SetButtons(buttons) }

// CycleCount returns the total CPU cycles executed since the last Reset.
func (b *Bus) CycleCount() uint64 { return b.cpu.Cycles }

// FrameCount returns the total frames the PPU has rendered since power-on.
func (b *Bus) FrameCount() uint64 { return b.ppu.Frames() }

// HasBattery reports whether the loaded cartridge's PRG-RAM is
// battery-backed, so a host embedding this core knows whether it should
// offer to persist PRG-RAM across runs.
func (b *Bus) HasBattery() bool { return b.cart.HasBattery() }

// SetTraceHook installs a CPU instruction trace callback, forwarded from
// cpu.CPU.SetTraceHook for diagnostic tooling built on top of this core.
func (b *Bus) SetTraceHook(fn func(cpu.Trace)) { b.cpu.SetTraceHook(fn) }
