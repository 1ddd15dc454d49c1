package apu

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

// pulseChannel implements the two pulse/square generators. pulse1 is
// distinguished only by negateOnesComplement, set true by New: on sweep
// negate, pulse1 computes period-change-amount as one's complement
// (-change-1), pulse2 as two's complement (-change).
type pulseChannel struct {
	enabled bool

	duty   uint8
	dutyPos uint8

	lengthHalt    bool
	constantVol   bool
	volume        uint8
	lengthCounter uint8

	envStart   bool
	envDecay   uint8
	envDivider uint8

	sweepEnabled bool
	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepReload  bool
	sweepDivider uint8

	negateOnesComplement bool

	timerPeriod  uint16
	timerCounter uint16
}

func (p *pulseChannel) writeControl(v uint8) {
	p.duty = (v >> 6) & 0x03
	p.lengthHalt = v&0x20 != 0
	p.constantVol = v&0x10 != 0
	p.volume = v & 0x0F
}

func (p *pulseChannel) writeSweep(v uint8) {
	p.sweepEnabled = v&0x80 != 0
	p.sweepPeriod = (v >> 4) & 0x07
	p.sweepNegate = v&0x08 != 0
	p.sweepShift = v & 0x07
	p.sweepReload = true
}

func (p *pulseChannel) writeTimerLow(v uint8) {
	p.timerPeriod = (p.timerPeriod & 0xFF00) | uint16(v)
}

func (p *pulseChannel) writeTimerHigh(v uint8) {
	p.timerPeriod = (p.timerPeriod & 0x00FF) | (uint16(v)&0x07)<<8
	p.dutyPos = 0
	p.envStart = true
	if p.enabled {
		p.lengthCounter = lengthTable[(v>>3)&0x1F]
	}
}

func (p *pulseChannel) clockTimer() {
	if p.timerCounter == 0 {
		p.timerCounter = p.timerPeriod
		p.dutyPos = (p.dutyPos + 1) % 8
	} else {
		p.timerCounter--
	}
}

func (p *pulseChannel) clockEnvelope() {
	if p.envStart {
		p.envStart = false
		p.envDecay = 15
		p.envDivider = p.volume
		return
	}
	if p.envDivider == 0 {
		p.envDivider = p.volume
		if p.envDecay > 0 {
			p.envDecay--
		} else if p.lengthHalt {
			p.envDecay = 15
		}
	} else {
		p.envDivider--
	}
}

func (p *pulseChannel) sweepTarget() uint16 {
	change := p.timerPeriod >> p.sweepShift
	if !p.sweepNegate {
		return p.timerPeriod + change
	}
	if p.negateOnesComplement {
		if change+1 > p.timerPeriod {
			return 0
		}
		return p.timerPeriod - change - 1
	}
	if change > p.timerPeriod {
		return 0
	}
	return p.timerPeriod - change
}

func (p *pulseChannel) clockLengthAndSweep(_ bool) {
	if !p.lengthHalt && p.lengthCounter > 0 {
		p.lengthCounter--
	}

	target := p.sweepTarget()
	muted := p.timerPeriod < 8 || target > 0x7FF
	if p.sweepDivider == 0 && p.sweepEnabled && p.sweepShift > 0 && !muted {
		p.timerPeriod = target
	}
	if p.sweepDivider == 0 || p.sweepReload {
		p.sweepDivider = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepDivider--
	}
}

func (p *pulseChannel) currentOutput() uint8 {
	if p.lengthCounter == 0 || p.timerPeriod < 8 {
		return 0
	}
	target := p.sweepTarget()
	if p.sweepNegate == false && target > 0x7FF {
		return 0
	}
	if dutyTable[p.duty][p.dutyPos] == 0 {
		return 0
	}
	if p.constantVol {
		return p.volume
	}
	return p.envDecay
}
