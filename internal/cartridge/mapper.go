package cartridge

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

// Errors raised while loading a cartridge. Bus accesses at runtime never
// fail; only loading can.
var (
	ErrInvalidCartridge    = errors.New("cartridge: invalid iNES image")
	ErrUnsupportedMapper   = errors.New("cartridge: unsupported mapper id")
	ErrUnsupportedMirror   = errors.New("cartridge: unsupported mirror mode")
)

// MirrorMode is the nametable mirroring arrangement used to translate a
// $2000-$3EFF PPU address into an offset within the 2KiB of nametable VRAM.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleLower
	MirrorSingleUpper
	MirrorFourScreen
)

// Mapper is the polymorphic cartridge address translator described in
// spec.md §4.5. Every mapper owns the cartridge's PRG/CHR memory, its
// PRG-RAM, and (for mappers that don't support four-screen VRAM) the 2KiB
// of nametable VRAM backing $2000-$3EFF.
type Mapper interface {
	// Peek reads a CPU-space address in $4020-$FFFF.
	Peek(addr uint16) uint8
	// Poke writes a CPU-space address in $4020-$FFFF. cycle is the bus's
	// current CPU cycle count: MMC1's shift register ignores a write that
	// lands on the cycle immediately following the previous write it
	// received (accepted or ignored), which is how real MMC1 boards reject the double write a
	// 6502 read-modify-write instruction performs against $8000-$FFFF.
	Poke(addr uint16, value uint8, cycle uint64)
	// PPUPeek reads a PPU-space address in $0000-$3EFF (CHR or nametable).
	PPUPeek(addr uint16) uint8
	// PPUPoke writes a PPU-space address in $0000-$3EFF (CHR-RAM or nametable).
	PPUPoke(addr uint16, value uint8)
	// ClockA12 is called by the PPU whenever it puts a pattern-table
	// address on the PPU address bus, so mappers that track the A12 line
	// (MMC3) can detect rising edges.
	ClockA12(addr uint16)
	// CheckIRQ reports whether the mapper is currently asserting IRQ.
	CheckIRQ() bool
	// ID returns the iNES mapper number, so save-state mechanics (outside
	// this core) know which variant to reconstruct.
	ID() uint8
}

// vramBank is the 2KiB of nametable VRAM shared by all three mappers here,
// along with the mirroring translation spec.md §4.5 specifies.
type vramBank struct {
	vram   [0x800]uint8
	mirror MirrorMode
}

// translate maps a $2000-$3EFF PPU address onto an offset into the 2KiB
// physical nametable VRAM, per the mirroring rules in spec.md §4.5.
func (v *vramBank) translate(addr uint16) uint16 {
	addr &= 0x0FFF
	switch v.mirror {
	case MirrorHorizontal:
		return (addr & 0x3FF) | ((addr & 0x800) >> 1)
	case MirrorVertical:
		return addr & 0x7FF
	case MirrorSingleLower:
		return addr & 0x3FF
	case MirrorSingleUpper:
		return 0x400 | (addr & 0x3FF)
	default:
		return addr & 0x7FF
	}
}

func (v *vramBank) read(addr uint16) uint8  { return v.vram[v.translate(addr)] }
func (v *vramBank) write(addr uint16, val uint8) { v.vram[v.translate(addr)] = val }

// NewMapper constructs the mapper implementation matching cart.mapperID,
// following spec.md §4.5 and §7 (UnsupportedMapper for anything outside
// {0,1,4}).
func NewMapper(cart *Cartridge) (Mapper, error) {
	switch cart.mapperID {
	case 0:
		return newNROM(cart), nil
	case 1:
		return newMMC1(cart), nil
	case 4:
		return newMMC3(cart), nil
	default:
		glog.Warningf("cartridge: mapper id %d is not implemented", cart.mapperID)
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, cart.mapperID)
	}
}
