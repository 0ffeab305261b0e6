package apu

import "github.com/thelolagemann/gnuboy-go/internal/types/registers"

// channel is the state of one of the four sound channels. Counters
// advance by the sample rate divisor every sample and are compared
// against lengths expressed in the same unit.
type channel struct {
	on       bool
	position uint32 // phase accumulator
	freq     int    // phase increment per sample

	length      int // length counter expiry
	lengthCount int

	volume        int
	envelopeDir   int // +1 or -1
	envelopeLen   int // 0 disables the envelope
	envelopeCount int

	// channel 1 only
	sweepLen   int
	sweepCount int
	sweepFreq  int
}

// setEnvelope loads the envelope from an NRx2 value.
func (c *channel) setEnvelope(nrx2 uint8) {
	c.volume = int(nrx2 >> 4)
	c.envelopeDir = -1
	if nrx2&0x08 != 0 {
		c.envelopeDir = 1
	}
	c.envelopeLen = int(nrx2&7) << 15
}

// stepLength turns the channel off once its length has elapsed,
// when length counting is enabled by bit 6 of control.
func (c *channel) stepLength(rate int, control uint8) {
	if control&0x40 == 0 {
		return
	}
	c.lengthCount += rate
	if c.lengthCount >= c.length {
		c.on = false
	}
}

func (c *channel) stepEnvelope(rate int) {
	if c.envelopeLen == 0 {
		return
	}
	c.envelopeCount += rate
	if c.envelopeCount < c.envelopeLen {
		return
	}
	c.envelopeCount -= c.envelopeLen
	c.volume += c.envelopeDir
	if c.volume < 0 {
		c.volume = 0
	}
	if c.volume > 15 {
		c.volume = 15
	}
}

// squareFrequency returns the phase increment of a square channel
// for the 11 bit frequency held in lo and the low bits of hi.
func squareFrequency(rate int, lo, hi uint8) int {
	d := 2048 - (int(hi&7)<<8 + int(lo))
	if rate > d<<4 {
		return 0
	}
	return (rate << 17) / d
}

func waveFrequency(rate int, lo, hi uint8) int {
	d := 2048 - (int(hi&7)<<8 + int(lo))
	if rate > d<<3 {
		return 0
	}
	return (rate << 21) / d
}

func noiseFrequency(rate int, nr43 uint8) int {
	f := (noiseDivisors[nr43&7] >> (nr43 >> 4)) * rate
	if f>>18 != 0 {
		f = 1 << 18
	}
	return f
}

func (a *APU) updateFrequency(n int) {
	r := a.regs
	switch n {
	case 0:
		a.ch[0].freq = squareFrequency(a.rate, r.Get(registers.NR13), r.Get(registers.NR14))
	case 1:
		a.ch[1].freq = squareFrequency(a.rate, r.Get(registers.NR23), r.Get(registers.NR24))
	case 2:
		a.ch[2].freq = waveFrequency(a.rate, r.Get(registers.NR33), r.Get(registers.NR34))
	case 3:
		a.ch[3].freq = noiseFrequency(a.rate, r.Get(registers.NR43))
	}
}
