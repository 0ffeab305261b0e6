package gameboy

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/cartridge"
	"github.com/thelolagemann/gnuboy-go/internal/joypad"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// loop is JR -2, spinning forever.
var loop = []uint8{0x18, 0xFE}

// testROM returns a 2 bank cartridge that jumps to program at 0x0150.
func testROM(typ, ramCode uint8, program ...uint8) []byte {
	rom := make([]byte, 2*cartridge.BankSize)
	copy(rom[0x100:], []uint8{0x00, 0xC3, 0x50, 0x01}) // NOP; JP 0x0150
	copy(rom[0x134:], "SESSION TEST")
	rom[0x147] = typ
	rom[0x149] = ramCode
	copy(rom[0x150:], append(program, loop...))
	return rom
}

func newTestGameBoy(t testing.TB, rom []byte, opts ...Opt) *GameBoy {
	t.Helper()
	g, err := NewGameBoy(bytes.NewReader(rom), opts...)
	if err != nil {
		t.Fatalf("expected no error creating session, got %v", err)
	}
	return g
}

func TestNewGameBoy(t *testing.T) {
	t.Run("reset", func(t *testing.T) {
		g := newTestGameBoy(t, testROM(0, 0))
		if g.CPU.PC != 0x0100 {
			t.Errorf("expected PC to be 0x0100, got 0x%04X", g.CPU.PC)
		}
		if got := g.regs.Get(registers.LCDC); got != 0x91 {
			t.Errorf("expected LCDC to be 0x91, got 0x%02X", got)
		}
		if g.Model() != types.DMG {
			t.Errorf("expected DMG, got %v", g.Model())
		}
		if len(g.Frame()) != ppu.ScreenWidth*ppu.ScreenHeight*2 {
			t.Errorf("expected a RGB565 framebuffer, got %d bytes", len(g.Frame()))
		}
	})
	t.Run("invalid rom size", func(t *testing.T) {
		rom := testROM(0, 0)
		rom[0x148] = 0x20
		if _, err := NewGameBoy(bytes.NewReader(rom)); !errors.Is(err, cartridge.ErrROMSize) {
			t.Errorf("expected ErrROMSize, got %v", err)
		}
	})
	t.Run("paletted", func(t *testing.T) {
		g := newTestGameBoy(t, testROM(0, 0), WithPixelFormat(ppu.Paletted), WithPalette(ppu.PaletteDMGreen))
		if len(g.Frame()) != ppu.ScreenWidth*ppu.ScreenHeight {
			t.Errorf("expected a paletted framebuffer, got %d bytes", len(g.Frame()))
		}
		if g.Palette() != ppu.PaletteDMGreen {
			t.Errorf("expected palette %v, got %v", ppu.PaletteDMGreen, g.Palette())
		}
	})
	t.Run("framebuffer size", func(t *testing.T) {
		short := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight)
		if _, err := NewGameBoy(bytes.NewReader(testROM(0, 0)), WithFramebuffer(short)); !errors.Is(err, ErrFramebufferSize) {
			t.Errorf("expected ErrFramebufferSize, got %v", err)
		}

		frame := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight)
		g := newTestGameBoy(t, testROM(0, 0), WithPixelFormat(ppu.Paletted), WithFramebuffer(frame))
		if err := g.RunFrame(true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if &g.Frame()[0] != &frame[0] {
			t.Errorf("expected the session to render into the given buffer")
		}
	})
}

func TestGameBoy_RunFrame(t *testing.T) {
	t.Run("vblank", func(t *testing.T) {
		calls := 0
		g := newTestGameBoy(t, testROM(0, 0), WithVBlank(func() { calls++ }))

		for i := 0; i < 3; i++ {
			if err := g.RunFrame(true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ly := g.regs.Get(registers.LY); ly != 0 {
				t.Errorf("expected frame to end on line 0, got %d", ly)
			}
		}
		if err := g.RunFrame(false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if calls != 3 {
			t.Errorf("expected 3 vblank callbacks, got %d", calls)
		}
		if g.Frames() != 4 {
			t.Errorf("expected 4 frames, got %d", g.Frames())
		}
	})
	t.Run("lcd off", func(t *testing.T) {
		g := newTestGameBoy(t, testROM(0, 0,
			0xAF,       // XOR A
			0xE0, 0x40, // LDH (LCDC), A
		))
		for i := 0; i < 2; i++ {
			if err := g.RunFrame(true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if g.regs.Test(registers.LCDC, types.Bit7) {
			t.Errorf("expected the LCD to be off")
		}
		if g.regs.Get(registers.IF)&0x03 != 0 {
			t.Errorf("expected no VBlank or STAT request with the LCD off, got IF=0x%02X", g.regs.Get(registers.IF))
		}
	})
	t.Run("audio", func(t *testing.T) {
		g := newTestGameBoy(t, testROM(0, 0), WithSampleRate(32768, false))
		if err := g.RunFrame(false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		// a frame is 1/59.7 seconds, 548 mono samples at 32768 Hz
		if n := len(g.Samples()); n < 540 || n > 555 {
			t.Errorf("expected about 548 samples, got %d", n)
		}
	})
}

func TestGameBoy_SerialOutput(t *testing.T) {
	var out bytes.Buffer
	g := newTestGameBoy(t, testROM(0, 0,
		0x3E, 'O', // LD A, 'O'
		0xE0, 0x01, // LDH (SB), A
		0x3E, 0x81, // LD A, 0x81
		0xE0, 0x02, // LDH (SC), A
		0x3E, 'K',
		0xE0, 0x01,
		0x3E, 0x81,
		0xE0, 0x02,
	), WithSerialOutput(&out))

	if err := g.RunFrame(false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.String() != "OK" {
		t.Errorf("expected serial output %q, got %q", "OK", out.String())
	}
}

func TestGameBoy_SetPad(t *testing.T) {
	g := newTestGameBoy(t, testROM(0, 0))
	g.regs.Set(registers.IE, 0)

	g.MMU.Write(0xFF00, 0x20) // select the direction keys
	g.SetPad(joypad.ButtonDown | joypad.ButtonA)
	if got := g.MMU.Read(0xFF00) & 0x0F; got != 0x07 {
		t.Errorf("expected P1 to read 0x07, got 0x%02X", got)
	}

	g.MMU.Write(0xFF00, 0x10) // select the buttons
	if got := g.MMU.Read(0xFF00) & 0x0F; got != 0x0E {
		t.Errorf("expected P1 to read 0x0E, got 0x%02X", got)
	}
}

func TestGameBoy_Reset(t *testing.T) {
	g := newTestGameBoy(t, testROM(0, 0))
	g.MMU.Write(0xC000, 0x12)
	g.CPU.PC = 0x4000

	g.Reset(false)
	if g.MMU.Read(0xC000) != 0x12 {
		t.Errorf("expected a soft reset to keep work RAM")
	}
	if g.CPU.PC != 0x0100 {
		t.Errorf("expected PC to be 0x0100, got 0x%04X", g.CPU.PC)
	}

	g.Reset(true)
	if got := g.MMU.Read(0xC000); got != 0xFF {
		t.Errorf("expected a hard reset to fill work RAM, got 0x%02X", got)
	}
}

func TestGameBoy_Time(t *testing.T) {
	g := newTestGameBoy(t, testROM(0x10, 0x02)) // MBC3+TIMER+RAM+BATTERY
	g.SetTime(10, 23, 59, 59)

	for i := 0; i < 60; i++ {
		if err := g.RunFrame(false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	d, h, m, s := g.Time()
	if d != 11 || h != 0 || m != 0 || s != 0 {
		t.Errorf("expected day 11 00:00:00, got day %d %02d:%02d:%02d", d, h, m, s)
	}
}

func TestGameBoy_State(t *testing.T) {
	rom := testROM(0x03, 0x02, // MBC1+RAM+BATTERY
		0x3E, 0x0A, // LD A, 0x0A
		0xEA, 0x00, 0x00, // LD (0x0000), A
		0x3E, 0x5A, // LD A, 0x5A
		0xEA, 0x00, 0xA0, // LD (0xA000), A
	)

	t.Run("round trip", func(t *testing.T) {
		g := newTestGameBoy(t, rom)
		for i := 0; i < 3; i++ {
			g.RunFrame(false)
		}

		var first bytes.Buffer
		if err := g.SaveState(&first); err != nil {
			t.Fatalf("expected no error saving, got %v", err)
		}

		g2 := newTestGameBoy(t, rom)
		if err := g2.LoadState(bytes.NewReader(first.Bytes())); err != nil {
			t.Fatalf("expected no error loading, got %v", err)
		}
		var second bytes.Buffer
		if err := g2.SaveState(&second); err != nil {
			t.Fatalf("expected no error saving, got %v", err)
		}
		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			t.Errorf("expected loading and saving a state to change nothing")
		}
		if g2.Cartridge.RAM()[0] != 0x5A {
			t.Errorf("expected external RAM to be restored, got 0x%02X", g2.Cartridge.RAM()[0])
		}
		if g2.CPU.PC != g.CPU.PC {
			t.Errorf("expected PC 0x%04X, got 0x%04X", g.CPU.PC, g2.CPU.PC)
		}
	})
	t.Run("short", func(t *testing.T) {
		g := newTestGameBoy(t, rom)
		var buf bytes.Buffer
		if err := g.SaveState(&buf); err != nil {
			t.Fatalf("expected no error saving, got %v", err)
		}
		err := g.LoadState(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
		if !errors.Is(err, types.ErrShortState) {
			t.Errorf("expected ErrShortState, got %v", err)
		}
	})

	// 4 banks of external RAM
	banked := testROM(0x03, 0x03,
		0x3E, 0x0A, // LD A, 0x0A
		0xEA, 0x00, 0x00, // LD (0x0000), A
		0x3E, 0x01, // LD A, 0x01
		0xEA, 0x00, 0x60, // LD (0x6000), A
		0x3E, 0x03, // LD A, 0x03
		0xEA, 0x00, 0x40, // LD (0x4000), A
		0x3E, 0xA5, // LD A, 0xA5
		0xEA, 0xFF, 0xBF, // LD (0xBFFF), A
	)
	t.Run("round trip banked ram", func(t *testing.T) {
		g := newTestGameBoy(t, banked)
		g.RunFrame(false)
		if got := g.Cartridge.RAMBankData(3)[cartridge.RAMBankSize-1]; got != 0xA5 {
			t.Fatalf("expected bank 3 to be written, got 0x%02X", got)
		}

		var buf bytes.Buffer
		if err := g.SaveState(&buf); err != nil {
			t.Fatalf("expected no error saving, got %v", err)
		}
		g2 := newTestGameBoy(t, banked)
		if err := g2.LoadState(bytes.NewReader(buf.Bytes())); err != nil {
			t.Fatalf("expected no error loading, got %v", err)
		}
		if got := g2.Cartridge.RAMBankData(3)[cartridge.RAMBankSize-1]; got != 0xA5 {
			t.Errorf("expected bank 3 to be restored, got 0x%02X", got)
		}
	})
	t.Run("short banked ram", func(t *testing.T) {
		g := newTestGameBoy(t, banked)
		var buf bytes.Buffer
		if err := g.SaveState(&buf); err != nil {
			t.Fatalf("expected no error saving, got %v", err)
		}

		g.CPU.PC = 0x1234
		g.MMU.Write(0xC000, 0x5A)
		err := g.LoadState(bytes.NewReader(buf.Bytes()[:buf.Len()-cartridge.RAMBankSize]))
		if !errors.Is(err, types.ErrShortState) {
			t.Errorf("expected ErrShortState, got %v", err)
		}
		if g.CPU.PC != 0x1234 {
			t.Errorf("expected PC to be left at 0x1234, got 0x%04X", g.CPU.PC)
		}
		if got := g.MMU.Read(0xC000); got != 0x5A {
			t.Errorf("expected WRAM to be left untouched, got 0x%02X", got)
		}
	})
}

func TestGameBoy_SRAM(t *testing.T) {
	t.Run("no battery", func(t *testing.T) {
		g := newTestGameBoy(t, testROM(0, 0))
		f, err := os.Create(filepath.Join(t.TempDir(), "test.sav"))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if err := g.SaveSRAM(f, false); !errors.Is(err, ErrNoBattery) {
			t.Errorf("expected ErrNoBattery, got %v", err)
		}
	})
	t.Run("round trip", func(t *testing.T) {
		rom := testROM(0x03, 0x02)
		path := filepath.Join(t.TempDir(), "test.sav")

		g := newTestGameBoy(t, rom)
		g.MMU.Write(0x0000, 0x0A) // enable RAM
		g.MMU.Write(0xA123, 0x42)
		if !g.SRAMDirty() {
			t.Errorf("expected SRAM to be dirty after a write")
		}

		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.SaveSRAM(f, true); err != nil {
			t.Fatalf("expected no error saving, got %v", err)
		}
		f.Close()
		if g.SRAMDirty() {
			t.Errorf("expected SRAM to be clean after saving")
		}

		g2 := newTestGameBoy(t, rom)
		f, err = os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if err := g2.LoadSRAM(f); err != nil {
			t.Fatalf("expected no error loading, got %v", err)
		}
		g2.MMU.Write(0x0000, 0x0A)
		if got := g2.MMU.Read(0xA123); got != 0x42 {
			t.Errorf("expected 0x42, got 0x%02X", got)
		}
	})
}

func BenchmarkGameBoy_RunFrame(b *testing.B) {
	g := newTestGameBoy(b, testROM(0, 0))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := g.RunFrame(true); err != nil {
			b.Fatal(err)
		}
	}
}
