// Package apu provides the sound controller. Samples are not
// produced as the CPU runs; cycles are accumulated by Tick and
// converted into samples by Emulate, which runs before any sound
// register is observed and at the end of every frame.
package apu

import (
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
)

// DefaultSampleRate is used when no sample rate is given.
const DefaultSampleRate = 44100

// APU is the sound controller. It has 4 channels: two square
// channels, the first with a frequency sweep, a wave channel playing
// 32 samples from wave RAM and a noise channel.
type APU struct {
	ch   [4]channel
	wave [16]byte

	rate   int // double speed cycles per output sample
	cycles int // cycles not yet converted into samples

	sampleRate int
	stereo     bool
	buffer     []int16
	pos        int

	cgb  bool
	regs *registers.File
	log  log.Logger
}

// Opt configures an APU.
type Opt func(*APU)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) Opt {
	return func(a *APU) {
		a.sampleRate = rate
	}
}

// WithStereo selects interleaved stereo output rather than mono.
func WithStereo(stereo bool) Opt {
	return func(a *APU) {
		a.stereo = stereo
	}
}

// WithCGB loads the Game Boy Color wave RAM pattern on reset.
func WithCGB() Opt {
	return func(a *APU) {
		a.cgb = true
	}
}

// WithLogger sets the logger used to report buffer overflows.
func WithLogger(l log.Logger) Opt {
	return func(a *APU) {
		a.log = l
	}
}

// New returns a new APU operating on regs. The sample buffer holds
// an eighth of a second of output.
func New(regs *registers.File, opts ...Opt) *APU {
	a := &APU{
		regs:       regs,
		sampleRate: DefaultSampleRate,
		stereo:     true,
		log:        log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sampleRate > 0 {
		a.buffer = make([]int16, a.sampleRate/8)
	}
	return a
}

// SampleRate returns the output sample rate in Hz.
func (a *APU) SampleRate() int { return a.sampleRate }

// Stereo reports whether samples are interleaved left and right.
func (a *APU) Stereo() bool { return a.stereo }

// Tick accumulates cycles, in double speed units.
func (a *APU) Tick(cycles int) {
	a.cycles += cycles
}

// Samples returns the samples produced since the last call to
// Flush. The slice is only valid until the next frame is emulated.
func (a *APU) Samples() []int16 {
	a.Emulate()
	return a.buffer[:a.pos]
}

// Flush discards the produced samples.
func (a *APU) Flush() {
	a.pos = 0
}

// Emulate converts the accumulated cycles into samples.
func (a *APU) Emulate() {
	if a.rate == 0 || a.cycles < a.rate {
		return
	}

	r := a.regs
	nr51 := r.Get(registers.NR51)
	for ; a.cycles >= a.rate; a.cycles -= a.rate {
		var left, right int

		if s1 := &a.ch[0]; s1.on {
			s := squareWaves[r.Get(registers.NR11)>>6][(s1.position>>18)&7] & s1.volume
			s1.position += uint32(s1.freq)
			s1.stepLength(a.rate, r.Get(registers.NR14))
			s1.stepEnvelope(a.rate)
			a.stepSweep()

			s <<= 2
			if nr51&0x01 != 0 {
				right += s
			}
			if nr51&0x10 != 0 {
				left += s
			}
		}

		if s2 := &a.ch[1]; s2.on {
			s := squareWaves[r.Get(registers.NR21)>>6][(s2.position>>18)&7] & s2.volume
			s2.position += uint32(s2.freq)
			s2.stepLength(a.rate, r.Get(registers.NR24))
			s2.stepEnvelope(a.rate)

			s <<= 2
			if nr51&0x02 != 0 {
				right += s
			}
			if nr51&0x20 != 0 {
				left += s
			}
		}

		if s3 := &a.ch[2]; s3.on {
			s := int(a.wave[(s3.position>>22)&15])
			if s3.position&(1<<21) != 0 {
				s &= 15
			} else {
				s >>= 4
			}
			s -= 8
			s3.position += uint32(s3.freq)
			s3.stepLength(a.rate, r.Get(registers.NR34))

			if level := r.Get(registers.NR32); level&0x60 != 0 {
				s <<= 3 - (level>>5)&3
			} else {
				s = 0
			}

			if nr51&0x04 != 0 {
				right += s
			}
			if nr51&0x40 != 0 {
				left += s
			}
		}

		if s4 := &a.ch[3]; s4.on {
			var s int
			bit := 7 - (s4.position>>17)&7
			if r.Get(registers.NR43)&0x08 != 0 {
				s = int(noise7[(s4.position>>20)&15]>>bit) & 1
			} else {
				s = int(noise15[(s4.position>>20)&4095]>>bit) & 1
			}
			s = -s & s4.volume
			s4.position += uint32(s4.freq)
			s4.stepLength(a.rate, r.Get(registers.NR44))
			s4.stepEnvelope(a.rate)

			s += s << 1
			if nr51&0x08 != 0 {
				right += s
			}
			if nr51&0x80 != 0 {
				left += s
			}
		}

		nr50 := r.Get(registers.NR50)
		left *= int(nr50 & 0x07)
		right *= int(nr50&0x70) >> 4
		left <<= 4
		right <<= 4

		a.output(left, right)
	}

	r.Set(registers.NR52, r.Get(registers.NR52)&0xF0|a.status())
}

// stepSweep advances the channel 1 frequency sweep. A sweep past
// the highest frequency turns the channel off.
func (a *APU) stepSweep() {
	s1 := &a.ch[0]
	if s1.sweepLen == 0 {
		return
	}
	s1.sweepCount += a.rate
	if s1.sweepCount < s1.sweepLen {
		return
	}
	s1.sweepCount -= s1.sweepLen

	nr10 := a.regs.Get(registers.NR10)
	f := s1.sweepFreq
	if nr10&0x08 != 0 {
		f -= f >> (nr10 & 7)
	} else {
		f += f >> (nr10 & 7)
	}

	if f > 2047 {
		s1.on = false
		return
	}
	s1.sweepFreq = f
	a.regs.Set(registers.NR13, uint8(f))
	a.regs.SetMasked(registers.NR14, 0x07, uint8(f>>8))
	a.updateFrequency(0)
}

func (a *APU) output(left, right int) {
	n := 1
	if a.stereo {
		n = 2
	}
	switch {
	case a.buffer == nil:
		a.log.Debugf("apu: no audio buffer")
	case a.pos+n > len(a.buffer):
		a.log.Errorf("apu: buffer overflow (length %d)", len(a.buffer))
		a.pos = 0
	case a.stereo:
		a.buffer[a.pos] = int16(left)
		a.buffer[a.pos+1] = int16(right)
		a.pos += 2
	default:
		a.buffer[a.pos] = int16((left + right) >> 1)
		a.pos++
	}
}

// status returns the channel on bits of NR52.
func (a *APU) status() uint8 {
	var s uint8
	for i := range a.ch {
		if a.ch[i].on {
			s |= 1 << i
		}
	}
	return s
}

// On reports whether channel n, 0 to 3, is playing.
func (a *APU) On(n int) bool {
	return a.ch[n].on
}

// Reset powers the sound controller on, restoring the initial wave
// RAM of the model.
func (a *APU) Reset() {
	a.ch = [4]channel{}
	if a.cgb {
		a.wave = cgbWave
	} else {
		a.wave = dmgWave
	}
	copy(a.regs.Bytes()[registers.WaveRAM:], a.wave[:])
	a.rate = 0
	if a.sampleRate > 0 {
		a.rate = int(float64(1<<21)/float64(a.sampleRate) + 0.5)
	}
	a.cycles = 0
	a.pos = 0
	a.off()
	a.regs.Set(registers.NR52, 0xF1)
}

// off silences all channels and restores the power off register
// values.
func (a *APU) off() {
	a.ch = [4]channel{}
	for _, v := range []struct {
		r registers.Index
		v uint8
	}{
		{registers.NR10, 0x80},
		{registers.NR11, 0xBF},
		{registers.NR12, 0xF3},
		{registers.NR14, 0xBF},
		{registers.NR21, 0x3F},
		{registers.NR22, 0x00},
		{registers.NR24, 0xBF},
		{registers.NR30, 0x7F},
		{registers.NR31, 0xFF},
		{registers.NR32, 0x9F},
		{registers.NR34, 0xBF},
		{registers.NR41, 0xFF},
		{registers.NR42, 0x00},
		{registers.NR43, 0x00},
		{registers.NR44, 0xBF},
		{registers.NR50, 0x77},
		{registers.NR51, 0xF3},
		{registers.NR52, 0x70},
	} {
		a.regs.Set(v.r, v.v)
	}
	a.Refresh()
}

// Refresh recomputes the channel state derived from the registers,
// after they have been replaced wholesale.
func (a *APU) Refresh() {
	r := a.regs
	s1, s2, s3, s4 := &a.ch[0], &a.ch[1], &a.ch[2], &a.ch[3]

	s1.sweepLen = int(r.Get(registers.NR10)>>4&7) << 14
	s1.length = (64 - int(r.Get(registers.NR11)&63)) << 13
	s1.setEnvelope(r.Get(registers.NR12))

	s2.length = (64 - int(r.Get(registers.NR21)&63)) << 13
	s2.setEnvelope(r.Get(registers.NR22))

	s3.length = (256 - int(r.Get(registers.NR31))) << 13

	s4.length = (64 - int(r.Get(registers.NR41)&63)) << 13
	s4.setEnvelope(r.Get(registers.NR42))

	for i := range a.ch {
		a.updateFrequency(i)
	}
}

var _ types.Stater = (*APU)(nil)

var channelTags = [4][]string{
	{"S1on", "S1p ", "S1c ", "S1ec", "S1sc", "S1sf"},
	{"S2on", "S2p ", "S2c ", "S2ec"},
	{"S3on", "S3p ", "S3c "},
	{"S4on", "S4p ", "S4c ", "S4ec"},
}

// Load implements the types.Stater interface. The derived channel
// state is rebuilt from the registers, so the register page must
// have been loaded first.
//
// The values are loaded from the following tags:
//   - snd  (uint32) pending cycles
//   - SNon SNp  SNc  (uint32) channel N on, position and length count
//   - SNec (uint32) envelope count of channels 1, 2 and 4
//   - S1sc S1sf (uint32) sweep count and frequency
//
// The wave RAM is read from a raw copy in the header.
func (a *APU) Load(s *types.State) {
	a.Refresh()
	a.cycles = s.ReadInt("snd ")
	for i, tags := range channelTags {
		c := &a.ch[i]
		c.on = s.ReadBool(tags[0])
		c.position = s.Read32(tags[1])
		c.lengthCount = s.ReadInt(tags[2])
		if len(tags) > 3 {
			c.envelopeCount = s.ReadInt(tags[3])
		}
		if len(tags) > 4 {
			c.sweepCount = s.ReadInt(tags[4])
			c.sweepFreq = s.ReadInt(tags[5])
		}
	}
	s.ReadRaw(types.StateWaveOffset, a.wave[:])
}

// Save implements the types.Stater interface.
func (a *APU) Save(s *types.State) {
	s.WriteInt("snd ", a.cycles)
	for i, tags := range channelTags {
		c := &a.ch[i]
		s.WriteBool(tags[0], c.on)
		s.Write32(tags[1], c.position)
		s.WriteInt(tags[2], c.lengthCount)
		if len(tags) > 3 {
			s.WriteInt(tags[3], c.envelopeCount)
		}
		if len(tags) > 4 {
			s.WriteInt(tags[4], c.sweepCount)
			s.WriteInt(tags[5], c.sweepFreq)
		}
	}
	s.WriteRaw(types.StateWaveOffset, a.wave[:])
}
