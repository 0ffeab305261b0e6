package apu

import "github.com/thelolagemann/gnuboy-go/internal/types/registers"

// Read returns the value of a sound register, after bringing the
// channel state up to date.
func (a *APU) Read(r registers.Index) uint8 {
	a.Emulate()
	return a.regs.Get(r)
}

// Write handles a write to one of the sound registers, FF10-FF3F.
// Only NR52 may be written while the sound controller is off.
func (a *APU) Write(r registers.Index, v uint8) {
	regs := a.regs
	if !regs.Test(registers.NR52, 0x80) && r != registers.NR52 {
		return
	}

	if r&0xF0 == registers.WaveRAM {
		if a.ch[2].on {
			a.Emulate()
		}
		if !a.ch[2].on {
			a.wave[r-registers.WaveRAM] = v
			regs.Set(r, v)
		}
		return
	}

	a.Emulate()

	s1, s2, s3, s4 := &a.ch[0], &a.ch[1], &a.ch[2], &a.ch[3]
	switch r {
	case registers.NR10:
		regs.Set(r, v)
		s1.sweepLen = int(v>>4&7) << 14
		s1.sweepFreq = int(regs.Get(registers.NR14)&7)<<8 + int(regs.Get(registers.NR13))
	case registers.NR11:
		regs.Set(r, v)
		s1.length = (64 - int(v&63)) << 13
	case registers.NR12:
		regs.Set(r, v)
		s1.setEnvelope(v)
	case registers.NR13:
		regs.Set(r, v)
		a.updateFrequency(0)
	case registers.NR14:
		regs.Set(r, v)
		a.updateFrequency(0)
		if v&0x80 != 0 {
			s1.sweepCount = 0
			s1.sweepFreq = int(v&7)<<8 + int(regs.Get(registers.NR13))
			a.trigger(s1, regs.Get(registers.NR12))
		}

	case registers.NR21:
		regs.Set(r, v)
		s2.length = (64 - int(v&63)) << 13
	case registers.NR22:
		regs.Set(r, v)
		s2.setEnvelope(v)
	case registers.NR23:
		regs.Set(r, v)
		a.updateFrequency(1)
	case registers.NR24:
		regs.Set(r, v)
		a.updateFrequency(1)
		if v&0x80 != 0 {
			a.trigger(s2, regs.Get(registers.NR22))
		}

	case registers.NR30:
		regs.Set(r, v)
		if v&0x80 == 0 {
			s3.on = false
		}
	case registers.NR31:
		regs.Set(r, v)
		s3.length = (256 - int(v)) << 13
	case registers.NR32:
		regs.Set(r, v)
	case registers.NR33:
		regs.Set(r, v)
		a.updateFrequency(2)
	case registers.NR34:
		regs.Set(r, v)
		a.updateFrequency(2)
		if v&0x80 != 0 {
			if !s3.on {
				s3.position = 0
			}
			s3.lengthCount = 0
			s3.on = regs.Test(registers.NR30, 0x80)
			if !s3.on {
				return
			}
			// retriggering scrambles the readable copy of wave RAM
			for i := registers.Index(0); i < 16; i++ {
				regs.Set(registers.WaveRAM+i, 0x13^regs.Get(registers.WaveRAM+i+1))
			}
		}

	case registers.NR41:
		regs.Set(r, v)
		s4.length = (64 - int(v&63)) << 13
	case registers.NR42:
		regs.Set(r, v)
		s4.setEnvelope(v)
	case registers.NR43:
		regs.Set(r, v)
		a.updateFrequency(3)
	case registers.NR44:
		regs.Set(r, v)
		if v&0x80 != 0 {
			s4.setEnvelope(regs.Get(registers.NR42))
			s4.on = true
			s4.position = 0
			s4.lengthCount = 0
			s4.envelopeCount = 0
		}

	case registers.NR50, registers.NR51:
		regs.Set(r, v)
	case registers.NR52:
		regs.Set(r, v)
		if v&0x80 == 0 {
			a.off()
		}
	}
}

// trigger restarts a square channel, reloading its envelope from
// nrx2. The phase is kept if the channel was already playing.
func (a *APU) trigger(c *channel, nrx2 uint8) {
	c.setEnvelope(nrx2)
	if !c.on {
		c.position = 0
	}
	c.on = true
	c.lengthCount = 0
	c.envelopeCount = 0
}
