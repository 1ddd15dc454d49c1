// Package cartridge implements iNES ROM loading and the polymorphic
// mapper address translators described in spec.md §4.5.
package cartridge

import (
	"fmt"
	"io"

	"github.com/golang/glog"
)

const headerSize = 16

// Cartridge holds the parsed iNES image. PRG/CHR ownership (and nametable
// VRAM, and mapper-specific registers) belongs exclusively to the Mapper
// built on top of it — see spec.md §3 Ownership.
type Cartridge struct {
	PRGROM   []uint8
	CHRROM   []uint8
	chrIsRAM bool

	mapperID   uint8
	mirror     MirrorMode
	fourScreen bool
	hasBattery bool

	prgRAM [0x2000]uint8
}

// Load parses an iNES image per spec.md §6: a 16-byte header starting
// "NES\x1A", byte 4 = PRG size in 16KiB units, byte 5 = CHR size in 8KiB
// units (0 => 8KiB of CHR RAM), byte 6 bit 0 = mirror, bit 3 = four-screen,
// mapper id from the high nibbles of bytes 6 and 7. PRG then CHR follow
// linearly (a 512-byte trainer, if present, is skipped).
func Load(r io.Reader) (*Cartridge, error) {
	header := make([]uint8, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCartridge, err)
	}
	if string(header[0:4]) != "NES\x1A" {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidCartridge)
	}

	prgUnits := header[4]
	chrUnits := header[5]
	flags6 := header[6]
	flags7 := header[7]
	if prgUnits == 0 {
		return nil, fmt.Errorf("%w: zero PRG-ROM size", ErrInvalidCartridge)
	}

	cart := &Cartridge{
		mapperID:   (flags6 >> 4) | (flags7 & 0xF0),
		hasBattery: flags6&0x02 != 0,
		fourScreen: flags6&0x08 != 0,
	}
	if cart.fourScreen {
		cart.mirror = MirrorFourScreen
	} else if flags6&0x01 != 0 {
		cart.mirror = MirrorVertical
	} else {
		cart.mirror = MirrorHorizontal
	}

	if flags6&0x04 != 0 {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("%w: truncated trainer", ErrInvalidCartridge)
		}
	}

	cart.PRGROM = make([]uint8, int(prgUnits)*16384)
	if _, err := io.ReadFull(r, cart.PRGROM); err != nil {
		return nil, fmt.Errorf("%w: truncated PRG-ROM", ErrInvalidCartridge)
	}

	if chrUnits == 0 {
		cart.CHRROM = make([]uint8, 0x2000)
		cart.chrIsRAM = true
	} else {
		cart.CHRROM = make([]uint8, int(chrUnits)*8192)
		if _, err := io.ReadFull(r, cart.CHRROM); err != nil {
			return nil, fmt.Errorf("%w: truncated CHR-ROM", ErrInvalidCartridge)
		}
	}

	glog.Infof("cartridge: mapper=%d prg=%dKiB chr=%dKiB mirror=%v battery=%t",
		cart.mapperID, len(cart.PRGROM)/1024, len(cart.CHRROM)/1024, cart.mirror, cart.hasBattery)

	return cart, nil
}

// MapperID returns the iNES mapper number this cartridge requested.
func (c *Cartridge) MapperID() uint8 { return c.mapperID }

// MirrorMode returns the nametable mirroring mode declared by the header
// (mappers that change mirroring at runtime, like MMC1/MMC3, track their
// own current mode once constructed).
func (c *Cartridge) MirrorMode() MirrorMode { return c.mirror }

// HasBattery reports whether the cartridge's PRG-RAM is battery-backed.
// This is cartridge metadata, not a persistence mechanism — the save-state
// mechanics themselves are out of scope for this core (spec.md §1).
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

// CHRIsRAM reports whether CHR memory is writable RAM (header CHR size 0).
func (c *Cartridge) CHRIsRAM() bool { return c.chrIsRAM }

// NewMapper builds the mapper appropriate for this cartridge's mapper id,
// returning ErrUnsupportedMapper for anything outside {0,1,4} and
// ErrUnsupportedMirror if four-screen VRAM was requested against a mapper
// that can't back it (only NROM/MMC1/MMC3 are modeled; none of the three
// implement four-screen VRAM, matching spec.md §4.5's listed mirror set).
func (c *Cartridge) NewMapper() (Mapper, error) {
	if c.fourScreen {
		return nil, fmt.Errorf("%w: four-screen VRAM requested", ErrUnsupportedMirror)
	}
	return NewMapper(c)
}
