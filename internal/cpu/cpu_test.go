package cpu

import "testing"

// fakeBus is a flat 64KiB RAM image with no device decode, enough to
// exercise addressing-mode and cycle-counting behavior in isolation.
type fakeBus struct {
	mem [0x10000]uint8
}

func (b *fakeBus) Read(addr uint16) uint8       { return b.mem[addr] }
func (b *fakeBus) Write(addr uint16, v uint8)   { b.mem[addr] = v }

type noIRQ struct{}

func (noIRQ) CheckIRQ() bool { return false }

func newTestCPU() (*CPU, *fakeBus) {
	bus := &fakeBus{}
	c := New(bus, noIRQ{})
	return c, bus
}

// TestResetSevenCycles matches spec.md §8 acceptance scenario 1: after
// Reset, cycles must equal 7 and PC must equal the reset vector.
func TestResetSevenCycles(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0xFFFC] = 0x00
	bus.mem[0xFFFD] = 0x80
	c.Reset()
	if c.Cycles != 7 {
		t.Errorf("Cycles after Reset = %d, want 7", c.Cycles)
	}
	if c.PC != 0x8000 {
		t.Errorf("PC after Reset = %#04x, want 0x8000", c.PC)
	}
}

func TestLDAImmediateSetsFlags(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	bus.mem[0x8000] = 0xA9 // LDA #$00
	bus.mem[0x8001] = 0x00
	c.Step()
	if !c.StatusZ {
		t.Error("Z flag should be set after loading 0")
	}
	if c.StatusN {
		t.Error("N flag should be clear after loading 0")
	}

	c.PC = 0x8002
	bus.mem[0x8002] = 0xA9 // LDA #$80
	bus.mem[0x8003] = 0x80
	c.Step()
	if !c.StatusN {
		t.Error("N flag should be set after loading 0x80")
	}
	if c.StatusZ {
		t.Error("Z flag should be clear after loading 0x80")
	}
}

// TestAbsoluteIndexedPageCrossPenalty matches spec.md §8 acceptance
// scenario 3: LDA abs,X costs 4 cycles without a page cross, 5 with one.
func TestAbsoluteIndexedPageCrossPenalty(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	c.X = 0x01
	bus.mem[0x8000] = 0xBD // LDA $20F0,X -> $20F1, same page
	bus.mem[0x8001] = 0xF0
	bus.mem[0x8002] = 0x20
	bus.mem[0x20F1] = 0x42
	before := c.Cycles
	c.Step()
	if got := c.Cycles - before; got != 4 {
		t.Errorf("LDA abs,X without page cross took %d cycles, want 4", got)
	}

	c.PC = 0x9000
	bus.mem[0x9000] = 0xBD // LDA $20FF,X -> crosses into 0x2100
	bus.mem[0x9001] = 0xFF
	bus.mem[0x9002] = 0x20
	bus.mem[0x2100] = 0x99
	before = c.Cycles
	c.Step()
	if got := c.Cycles - before; got != 5 {
		t.Errorf("LDA abs,X with page cross took %d cycles, want 5", got)
	}
}

func TestBranchTakenPageCross(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x80FD
	c.StatusZ = true
	bus.mem[0x80FD] = 0xF0 // BEQ
	bus.mem[0x80FE] = 0x02 // operand fetch leaves PC at 0x80FF; +2 crosses into page 0x81
	before := c.Cycles
	c.Step()
	if got := c.Cycles - before; got != 4 {
		t.Errorf("taken branch with page cross took %d cycles, want 4", got)
	}
	if c.PC != 0x8101 {
		t.Errorf("PC after branch = %#04x, want 0x8101", c.PC)
	}
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	bus.mem[0x8000] = 0x6C // JMP ($30FF)
	bus.mem[0x8001] = 0xFF
	bus.mem[0x8002] = 0x30
	bus.mem[0x30FF] = 0x40
	bus.mem[0x3000] = 0x80 // the real 6502 bug reads the high byte from $3000, not $3100
	bus.mem[0x3100] = 0xFF
	c.Step()
	if c.PC != 0x8040 {
		t.Errorf("PC after JMP ($30FF) = %#04x, want 0x8040 (page-wrap bug)", c.PC)
	}
}

func TestStackPushPull(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	c.A = 0x55
	sp := c.SP
	bus.mem[0x8000] = 0x48 // PHA
	c.Step()
	if c.SP != sp-1 {
		t.Errorf("SP after PHA = %#02x, want %#02x", c.SP, sp-1)
	}
	c.A = 0
	bus.mem[0x8001] = 0x68 // PLA
	c.Step()
	if c.A != 0x55 {
		t.Errorf("A after PLA = %#02x, want 0x55", c.A)
	}
	if c.SP != sp {
		t.Errorf("SP after PLA = %#02x, want %#02x", c.SP, sp)
	}
}

func TestNMITakesPriorityOverIRQ(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0x90 // NMI vector -> 0x9000
	bus.mem[0xFFFE] = 0x00
	bus.mem[0xFFFF] = 0xA0 // IRQ/BRK vector -> 0xA000
	bus.mem[0x9000] = 0xEA // NOP at the NMI vector target, so Step's post-interrupt fetch is harmless
	c.StatusI = false
	c.TriggerIRQ()
	c.TriggerNMI()
	c.Step()
	// Step services the interrupt (jumping to the NMI vector) and then
	// fetches/executes the instruction there in the same call, so PC
	// ends up one past the vector rather than at it.
	if c.PC != 0x9001 {
		t.Errorf("PC after NMI = %#04x, want 0x9001 (NMI vector 0x9000 + one NOP)", c.PC)
	}
	if c.PendingInterrupt != NoInterrupt {
		t.Error("pending interrupt should be cleared after servicing")
	}
}

// TestTraceHookFiresBeforeEachFetch matches spec.md §3's disassembly-hook
// addition: installing a hook must observe the PC/opcode/cycle state at
// the instruction boundary, before the opcode executes.
func TestTraceHookFiresBeforeEachFetch(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	c.A, c.X, c.Y = 0x11, 0x22, 0x33
	bus.mem[0x8000] = 0xA9 // LDA #$99
	bus.mem[0x8001] = 0x99

	var got []Trace
	c.SetTraceHook(func(tr Trace) { got = append(got, tr) })

	before := c.Cycles
	c.Step()

	if len(got) != 1 {
		t.Fatalf("trace hook fired %d times, want 1", len(got))
	}
	tr := got[0]
	if tr.PC != 0x8000 {
		t.Errorf("trace PC = %#04x, want 0x8000", tr.PC)
	}
	if tr.Opcode != 0xA9 {
		t.Errorf("trace Opcode = %#02x, want 0xA9", tr.Opcode)
	}
	if tr.A != 0x11 || tr.X != 0x22 || tr.Y != 0x33 {
		t.Errorf("trace registers = %#02x/%#02x/%#02x, want 0x11/0x22/0x33", tr.A, tr.X, tr.Y)
	}
	if tr.Cycles != before {
		t.Errorf("trace Cycles = %d, want %d (cycle count before the fetch)", tr.Cycles, before)
	}
	if c.A != 0x99 {
		t.Errorf("A after Step = %#02x, want 0x99 (trace must not block execution)", c.A)
	}

	c.SetTraceHook(nil)
	c.PC = 0x8002
	bus.mem[0x8002] = 0xEA // NOP
	c.Step()
	if len(got) != 1 {
		t.Errorf("trace hook fired after being cleared with nil: %d calls, want still 1", len(got))
	}
}

func TestUndocumentedNOPConsumesOperandBytes(t *testing.T) {
	c, bus := newTestCPU()
	c.PC = 0x8000
	bus.mem[0x8000] = 0x1C // NOP abs,X
	bus.mem[0x8001] = 0x00
	bus.mem[0x8002] = 0x20
	c.Step()
	if c.PC != 0x8003 {
		t.Errorf("PC after NOP $2000,X = %#04x, want 0x8003", c.PC)
	}
}
