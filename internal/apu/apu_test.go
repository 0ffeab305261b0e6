package apu

import (
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// a sample rate of 32768Hz gives 64 cycles per sample
func newTestAPU(opts ...Opt) (*APU, *registers.File) {
	regs := &registers.File{}
	a := New(regs, append([]Opt{WithSampleRate(32768)}, opts...)...)
	a.Reset()
	return a, regs
}

func TestAPU_Reset(t *testing.T) {
	t.Run("DMG", func(t *testing.T) {
		a, regs := newTestAPU()
		if a.rate != 64 {
			t.Errorf("expected rate 64, got %d", a.rate)
		}
		if got := regs.Get(registers.NR52); got != 0xF1 {
			t.Errorf("expected NR52 0xF1, got %02X", got)
		}
		if got := regs.Get(registers.WaveRAM); got != 0xAC {
			t.Errorf("expected DMG wave RAM, got %02X", got)
		}
	})
	t.Run("CGB", func(t *testing.T) {
		_, regs := newTestAPU(WithCGB())
		if got := regs.Get(registers.WaveRAM + 1); got != 0xFF {
			t.Errorf("expected CGB wave RAM, got %02X", got)
		}
	})
}

func TestAPU_SweepOverflow(t *testing.T) {
	a, regs := newTestAPU()
	a.Write(registers.NR10, 0x11) // period 1, increase by f>>1
	a.Write(registers.NR12, 0xF0)
	a.Write(registers.NR13, 0x00)
	a.Write(registers.NR14, 0x86) // f = 0x600

	sweep := 1 << 14
	a.Tick(sweep - a.rate)
	a.Emulate()
	if !a.On(0) {
		t.Fatalf("expected channel 1 to be on before the sweep step")
	}

	a.Tick(a.rate)
	a.Emulate()
	if a.On(0) {
		t.Errorf("expected channel 1 to be disabled by the sweep overflow")
	}
	if regs.Test(registers.NR52, 0x01) {
		t.Errorf("expected NR52 to report channel 1 off, got %02X", regs.Get(registers.NR52))
	}
}

func TestAPU_SweepDecrease(t *testing.T) {
	a, regs := newTestAPU()
	a.Write(registers.NR10, 0x19) // period 1, decrease by f>>1
	a.Write(registers.NR12, 0xF0)
	a.Write(registers.NR13, 0x00)
	a.Write(registers.NR14, 0x86)

	a.Tick(1 << 14)
	a.Emulate()
	if !a.On(0) {
		t.Fatalf("expected channel 1 to stay on")
	}
	if got := int(regs.Get(registers.NR14)&7)<<8 | int(regs.Get(registers.NR13)); got != 0x300 {
		t.Errorf("expected frequency 0x300, got %03X", got)
	}
}

func TestAPU_Length(t *testing.T) {
	tests := []struct {
		name    string
		channel int
		writes  [][2]uint8
		cycles  int
	}{
		{"channel 1", 0, [][2]uint8{{0x11, 0x3F}, {0x12, 0xF0}, {0x14, 0xC0}}, 1 << 13},
		{"channel 2", 1, [][2]uint8{{0x16, 0x3F}, {0x17, 0xF0}, {0x19, 0xC0}}, 1 << 13},
		{"channel 3", 2, [][2]uint8{{0x1A, 0x80}, {0x1B, 0xFF}, {0x1E, 0xC0}}, 1 << 13},
		{"channel 4", 3, [][2]uint8{{0x20, 0x3F}, {0x21, 0xF0}, {0x23, 0xC0}}, 1 << 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAPU()
			for _, w := range tt.writes {
				a.Write(registers.Index(w[0]), w[1])
			}
			a.Tick(tt.cycles - a.rate)
			a.Emulate()
			if !a.On(tt.channel) {
				t.Fatalf("expected channel to be on before its length elapsed")
			}
			a.Tick(a.rate)
			a.Emulate()
			if a.On(tt.channel) {
				t.Errorf("expected channel to be off after its length elapsed")
			}
		})
	}
}

func TestAPU_PowerOff(t *testing.T) {
	a, regs := newTestAPU()
	a.Write(registers.NR12, 0xF0)
	a.Write(registers.NR14, 0x80)
	a.Write(registers.NR52, 0x00)

	if a.On(0) {
		t.Errorf("expected channel 1 to be off")
	}
	if got := regs.Get(registers.NR52); got != 0x70 {
		t.Errorf("expected NR52 0x70, got %02X", got)
	}
	if got := regs.Get(registers.NR10); got != 0x80 {
		t.Errorf("expected NR10 0x80, got %02X", got)
	}

	a.Write(registers.NR12, 0x55)
	if got := regs.Get(registers.NR12); got != 0xF3 {
		t.Errorf("expected write to be ignored while powered off, got %02X", got)
	}

	a.Write(registers.NR52, 0x80)
	a.Write(registers.NR12, 0x55)
	if got := regs.Get(registers.NR12); got != 0x55 {
		t.Errorf("expected write to NR12 once powered on, got %02X", got)
	}
}

func TestAPU_WaveRAM(t *testing.T) {
	a, regs := newTestAPU()
	a.Write(registers.WaveRAM, 0x12)
	if got := regs.Get(registers.WaveRAM); got != 0x12 || a.wave[0] != 0x12 {
		t.Errorf("expected wave RAM write while channel 3 is off, got %02X", got)
	}

	next := regs.Get(registers.WaveRAM + 2)
	a.Write(registers.NR30, 0x80)
	a.Write(registers.NR34, 0x80)
	if !a.On(2) {
		t.Fatalf("expected channel 3 to be on")
	}
	if got := regs.Get(registers.WaveRAM + 1); got != 0x13^next {
		t.Errorf("expected scrambled wave RAM %02X, got %02X", 0x13^next, got)
	}

	before := regs.Get(registers.WaveRAM)
	a.Write(registers.WaveRAM, 0x34)
	if got := regs.Get(registers.WaveRAM); got != before || a.wave[0] != 0x12 {
		t.Errorf("expected wave RAM write to be ignored while channel 3 is on")
	}

	a.Write(registers.NR30, 0x00)
	if a.On(2) {
		t.Errorf("expected channel 3 to be disabled with its DAC")
	}
}

func TestAPU_Output(t *testing.T) {
	t.Run("stereo", func(t *testing.T) {
		a, _ := newTestAPU()
		a.Write(registers.NR51, 0x11) // channel 1 to both sides
		a.Write(registers.NR50, 0x77)
		a.Write(registers.NR11, 0x80) // 50% duty
		a.Write(registers.NR12, 0xF0)
		a.Write(registers.NR14, 0x87)
		a.Tick(a.rate * 100)

		samples := a.Samples()
		if len(samples) != 200 {
			t.Fatalf("expected 200 interleaved samples, got %d", len(samples))
		}
		var loud bool
		for i := 0; i < len(samples); i += 2 {
			if samples[i] != samples[i+1] {
				t.Fatalf("expected equal left and right at %d, got %d and %d", i, samples[i], samples[i+1])
			}
			if samples[i] != 0 {
				loud = true
			}
		}
		if !loud {
			t.Errorf("expected non silent output")
		}
	})
	t.Run("mono", func(t *testing.T) {
		a, _ := newTestAPU(WithStereo(false))
		a.Tick(a.rate * 100)
		if got := len(a.Samples()); got != 100 {
			t.Errorf("expected 100 samples, got %d", got)
		}
		a.Flush()
		if got := len(a.Samples()); got != 0 {
			t.Errorf("expected no samples after flush, got %d", got)
		}
	})
	t.Run("overflow", func(t *testing.T) {
		a, _ := newTestAPU(WithStereo(false))
		a.Tick(a.rate * (len(a.buffer) + 10))
		a.Emulate()
		if a.pos >= len(a.buffer) {
			t.Errorf("expected the write position to wrap, got %d", a.pos)
		}
	})
}

func TestAPU_State(t *testing.T) {
	a, regs := newTestAPU()
	a.Write(registers.NR10, 0x21)
	a.Write(registers.NR12, 0xF3)
	a.Write(registers.NR14, 0x84)
	a.Tick(12345)
	a.Emulate()
	a.Tick(17)

	s := types.NewState()
	s.WriteRaw(types.StateIOOffset, regs.Bytes())
	a.Save(s)

	regs2 := &registers.File{}
	s.ReadRaw(types.StateIOOffset, regs2.Bytes())
	b := New(regs2, WithSampleRate(32768))
	b.Reset()
	s.ReadRaw(types.StateIOOffset, regs2.Bytes())
	b.Load(s)

	if b.cycles != a.cycles {
		t.Errorf("expected %d pending cycles, got %d", a.cycles, b.cycles)
	}
	if b.ch[0].on != a.ch[0].on || b.ch[0].position != a.ch[0].position || b.ch[0].sweepCount != a.ch[0].sweepCount {
		t.Errorf("expected channel 1 %+v, got %+v", a.ch[0], b.ch[0])
	}
	if b.wave != a.wave {
		t.Errorf("expected wave RAM to be restored")
	}
}
