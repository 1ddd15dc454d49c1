package bus

import (
	"bytes"
	"testing"

	"gones/internal/cpu"
)

// buildNROM assembles a minimal one-bank NROM iNES image with prg placed
// at $8000 and the reset vector pointing at its start.
func buildNROM(prg []uint8) *bytes.Buffer {
	header := []uint8{'N', 'E', 'S', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	prgBank := make([]uint8, 16384)
	copy(prgBank, prg)
	prgBank[0x3FFC] = 0x00 // reset vector low -> $8000
	prgBank[0x3FFD] = 0x80
	chrBank := make([]uint8, 8192)

	buf := &bytes.Buffer{}
	buf.Write(header)
	buf.Write(prgBank)
	buf.Write(chrBank)
	return buf
}

// buildNROMWithBattery is buildNROM with header flags6 bit 1 (battery-backed
// PRG-RAM) set.
func buildNROMWithBattery(prg []uint8) *bytes.Buffer {
	b := buildNROM(prg)
	raw := b.Bytes()
	raw[6] |= 0x02
	return bytes.NewBuffer(raw)
}

func TestLoadFromReaderAndStep(t *testing.T) {
	prg := []uint8{0xA9, 0x42, 0x85, 0x10, 0x4C, 0x04, 0x80} // LDA #$42; STA $10; JMP $8004
	b, err := LoadFromReader(buildNROM(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	b.Step() // LDA
	b.Step() // STA
	if got := b.Read(0x10); got != 0x42 {
		t.Errorf("$0010 = %#02x, want 0x42", got)
	}
}

// TestPPURegisterWriteReadRoundTrip matches spec.md §8 integration
// expectations: writing palette entry $3F00 through $2006/$2007 and reading
// it back exercises the full bus-to-PPU register path.
func TestPPURegisterWriteReadRoundTrip(t *testing.T) {
	prg := []uint8{
		0xA9, 0x3F, 0x8D, 0x06, 0x20, // LDA #$3F; STA $2006
		0xA9, 0x00, 0x8D, 0x06, 0x20, // LDA #$00; STA $2006
		0xA9, 0x20, 0x8D, 0x07, 0x20, // LDA #$20; STA $2007 (universal bg = 0x20)
		0xA9, 0x3F, 0x8D, 0x06, 0x20, // LDA #$3F; STA $2006
		0xA9, 0x00, 0x8D, 0x06, 0x20, // LDA #$00; STA $2006
		0xAD, 0x07, 0x20, // LDA $2007
		0x4C, 0x17, 0x80, // JMP $8017
	}
	b, err := LoadFromReader(buildNROM(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	for i := 0; i < 11; i++ {
		b.Step()
	}
	if b.cpu.A != 0x20 {
		t.Errorf("A after LDA $2007 = %#02x, want 0x20 (palette read back)", b.cpu.A)
	}
	if got := b.Read(0x0010); got != 0 {
		t.Fatalf("unrelated RAM should be untouched, got %#02x", got)
	}
}

// TestEmulateFrameAdvancesFrameCount exercises EmulateFrame's VBlank-entry
// frame boundary (spec.md's Open Question O2). The very first call is
// shorter than a full NTSC frame, since the PPU's post-Reset state starts
// at the pre-render line rather than at a VBlank edge; the second call
// runs a full VBlank-to-VBlank span and should land close to the nominal
// 29781-cycle NTSC frame length.
func TestEmulateFrameAdvancesFrameCount(t *testing.T) {
	prg := []uint8{0x4C, 0x00, 0x80} // JMP $8000 (infinite loop)
	b, err := LoadFromReader(buildNROM(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	framesBefore := b.FrameCount()
	frame, samples := b.EmulateFrame()
	if len(frame) != 256*240 {
		t.Errorf("frame buffer length = %d, want %d", len(frame), 256*240)
	}
	if len(samples) != 800 {
		t.Errorf("audio samples length = %d, want 800", len(samples))
	}
	if b.FrameCount() != framesBefore+1 {
		t.Errorf("FrameCount() = %d, want %d after one EmulateFrame call", b.FrameCount(), framesBefore+1)
	}

	cyclesBefore := b.CycleCount()
	b.EmulateFrame()
	if b.FrameCount() != framesBefore+2 {
		t.Errorf("FrameCount() = %d, want %d after a second EmulateFrame call", b.FrameCount(), framesBefore+2)
	}
	delta := b.CycleCount() - cyclesBefore
	const tolerance = 100
	if delta < cpuCyclesPerFrame-tolerance || delta > cpuCyclesPerFrame+tolerance {
		t.Errorf("second frame's cycle delta = %d, want within %d of %d", delta, tolerance, cpuCyclesPerFrame)
	}
}

func TestOAMDMACopies256Bytes(t *testing.T) {
	prg := []uint8{
		0xA2, 0x00, // LDX #$00
		0x8E, 0x03, 0x20, // STX $2003 (oam addr = 0)
		0xA9, 0x07, // LDA #$07 (source page)
		0x8D, 0x14, 0x40, // STA $4014 (trigger DMA from $0700)
		0x4C, 0x0B, 0x80, // JMP $800B
	}
	b, err := LoadFromReader(buildNROM(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	b.ram[0x0700&0x07FF] = 0xAB
	b.ram[0x07FF] = 0xCD
	startCycles := b.CycleCount()
	for i := 0; i < 4; i++ {
		b.Step()
	}
	if b.CycleCount()-startCycles < 513 {
		t.Errorf("OAM DMA should stall the CPU by at least 513 cycles, got %d", b.CycleCount()-startCycles)
	}
	// 256 writes wrap oam_addr back to 0, so $2004 now reads OAM[0].
	if got := b.Read(0x2004); got != 0xAB {
		t.Errorf("OAM[0] after DMA = %#02x, want 0xAB", got)
	}
	b.Write(0x2003, 0xFF)
	if got := b.Read(0x2004); got != 0xCD {
		t.Errorf("OAM[255] after DMA = %#02x, want 0xCD", got)
	}
}

// TestSetTraceHookForwardsToCPU exercises the Bus-level forwarding of
// cpu.CPU's per-instruction disassembly hook (spec.md §3).
func TestSetTraceHookForwardsToCPU(t *testing.T) {
	prg := []uint8{0xA9, 0x01, 0xA9, 0x02, 0xA9, 0x03}
	b, err := LoadFromReader(buildNROM(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	var traces []cpu.Trace
	b.SetTraceHook(func(tr cpu.Trace) { traces = append(traces, tr) })
	for i := 0; i < 3; i++ {
		b.Step()
	}
	if len(traces) != 3 {
		t.Fatalf("trace hook fired %d times, want 3", len(traces))
	}
	if traces[0].PC != 0x8000 || traces[1].PC != 0x8002 || traces[2].PC != 0x8004 {
		t.Errorf("trace PCs = %#04x/%#04x/%#04x, want 0x8000/0x8002/0x8004",
			traces[0].PC, traces[1].PC, traces[2].PC)
	}
}

// TestHasBatteryReflectsHeaderFlag exercises the battery-backed PRG-RAM
// metadata surfaced through the bus (spec.md §3).
func TestHasBatteryReflectsHeaderFlag(t *testing.T) {
	prg := []uint8{0xEA} // NOP
	b, err := LoadFromReader(buildNROMWithBattery(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if !b.HasBattery() {
		t.Error("HasBattery() = false, want true for a battery-flagged cartridge")
	}

	b2, err := LoadFromReader(buildNROM(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if b2.HasBattery() {
		t.Error("HasBattery() = true, want false for a cartridge without the battery flag")
	}
}

func TestControllerStateRoundTrip(t *testing.T) {
	prg := []uint8{
		0xA9, 0x01, 0x8D, 0x16, 0x40, // LDA #$01; STA $4016 (strobe high)
		0xA9, 0x00, 0x8D, 0x16, 0x40, // LDA #$00; STA $4016 (strobe low)
		0xAD, 0x16, 0x40, // LDA $4016
		0x4C, 0x0A, 0x80, // JMP $800A
	}
	b, err := LoadFromReader(buildNROM(prg))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	b.SetController1State([8]bool{true, false, false, false, false, false, false, false})
	for i := 0; i < 3; i++ {
		b.Step()
	}
	if got := b.Read(0x4016); got&1 != 1 {
		t.Errorf("$4016 read after strobe = %#02x, want bit0 set (A held)", got)
	}
}
