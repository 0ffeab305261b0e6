package mmu

import (
	"bytes"
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/apu"
	"github.com/thelolagemann/gnuboy-go/internal/boot"
	"github.com/thelolagemann/gnuboy-go/internal/cartridge"
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/joypad"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"github.com/thelolagemann/gnuboy-go/internal/serial"
	"github.com/thelolagemann/gnuboy-go/internal/timer"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

type running struct{}

func (running) IsHalted() bool { return false }

// testROM returns an MBC1 image of 8 banks with 4 banks of RAM. The
// first byte of every bank holds its number.
func testROM(cgb bool) []byte {
	rom := make([]byte, 8*cartridge.BankSize)
	for b := 0; b < 8; b++ {
		rom[b*cartridge.BankSize] = byte(b)
	}
	copy(rom[0x134:], "MMU TEST")
	if cgb {
		rom[0x143] = 0x80
	}
	rom[0x147] = 0x03 // MBC1+RAM+BATTERY
	rom[0x148] = 0x02 // 8 banks
	rom[0x149] = 0x03 // 4 banks
	return rom
}

func newTestMMU(t *testing.T, cgb bool, opts ...Opt) *MMU {
	t.Helper()
	cart, err := cartridge.New(bytes.NewReader(testROM(cgb)))
	if err != nil {
		t.Fatalf("expected no error loading cartridge, got %v", err)
	}

	regs := &registers.File{}
	irq := interrupts.NewService(regs)
	var ppuOpts []ppu.Opt
	var apuOpts []apu.Opt
	if cgb {
		opts = append(opts, WithCGB())
		ppuOpts = append(ppuOpts, ppu.WithCGB())
		apuOpts = append(apuOpts, apu.WithCGB())
	}
	m := New(cart, regs, opts...)
	video := ppu.New(regs, irq, running{}, m, ppuOpts...)
	sound := apu.New(regs, apuOpts...)
	m.Attach(video, sound, timer.NewController(regs, irq), serial.NewController(regs, irq), joypad.New(regs, irq))

	m.Reset(true)
	video.Reset(true)
	sound.Reset()
	return m
}

func TestMMU_ROM(t *testing.T) {
	m := newTestMMU(t, false)
	if got := m.Read(0x0000); got != 0 {
		t.Errorf("expected bank 0 at 0x0000, got %d", got)
	}
	if got := m.Read(0x4000); got != 1 {
		t.Errorf("expected bank 1 at 0x4000, got %d", got)
	}

	m.Write(0x2000, 5)
	if got := m.Read(0x4000); got != 5 {
		t.Errorf("expected bank 5 at 0x4000, got %d", got)
	}

	// bank 0 selects bank 1
	m.Write(0x2000, 0)
	if got := m.Read(0x4000); got != 1 {
		t.Errorf("expected bank 1 at 0x4000, got %d", got)
	}

	m.Write(0x0000, 0xFF)
	if got := m.Read(0x0000); got != 0 {
		t.Errorf("expected ROM to be read only, got %02X", got)
	}
}

func TestMMU_WRAM(t *testing.T) {
	t.Run("echo", func(t *testing.T) {
		m := newTestMMU(t, false)
		m.Write(0xC123, 0x42)
		if got := m.Read(0xE123); got != 0x42 {
			t.Errorf("expected echo of 0xC123, got %02X", got)
		}
		m.Write(0xF456, 0x24)
		if got := m.Read(0xD456); got != 0x24 {
			t.Errorf("expected echo write to reach 0xD456, got %02X", got)
		}
	})
	t.Run("hard reset", func(t *testing.T) {
		m := newTestMMU(t, false)
		if got := m.Read(0xC000); got != 0xFF {
			t.Errorf("expected 0xFF after a hard reset, got %02X", got)
		}
	})
	t.Run("DMG ignores SVBK", func(t *testing.T) {
		m := newTestMMU(t, false)
		m.Write(0xD000, 0x11)
		m.Write(0xFF70, 0x03)
		if got := m.Read(0xFF70); got != 0xF9 {
			t.Errorf("expected SVBK to stay 0xF9, got %02X", got)
		}
		if got := m.Read(0xD000); got != 0x11 {
			t.Errorf("expected bank 1 to stay mapped, got %02X", got)
		}
	})
	t.Run("CGB banks", func(t *testing.T) {
		m := newTestMMU(t, true)
		for bank := uint8(1); bank < 8; bank++ {
			m.Write(0xFF70, bank)
			m.Write(0xD000, bank*0x10)
		}
		for bank := uint8(1); bank < 8; bank++ {
			m.Write(0xFF70, bank)
			if got := m.Read(0xD000); got != bank*0x10 {
				t.Errorf("expected %02X in bank %d, got %02X", bank*0x10, bank, got)
			}
		}
		m.Write(0xFF70, 0)
		if got := m.Read(0xD000); got != 0x10 {
			t.Errorf("expected bank 0 to select bank 1, got %02X", got)
		}
		if got := m.Read(0xFF70); got != 0xF8 {
			t.Errorf("expected SVBK 0xF8, got %02X", got)
		}
	})
}

func TestMMU_VRAM(t *testing.T) {
	m := newTestMMU(t, true)
	m.Write(0x8000, 0x12)
	m.Write(0xFF4F, 0x01)
	if got := m.Read(0x8000); got != 0 {
		t.Errorf("expected bank 1 to be empty, got %02X", got)
	}
	m.Write(0x9FFF, 0x34)
	if got := m.Video.VRAM[0x3FFF]; got != 0x34 {
		t.Errorf("expected write to bank 1, got %02X", got)
	}
	if got := m.Read(0xFF4F); got != 0xFF {
		t.Errorf("expected VBK 0xFF, got %02X", got)
	}
	m.Write(0xFF4F, 0x00)
	if got := m.Read(0x8000); got != 0x12 {
		t.Errorf("expected bank 0, got %02X", got)
	}
}

func TestMMU_ExternalRAM(t *testing.T) {
	m := newTestMMU(t, false)
	m.Write(0xA000, 0x55)
	if got := m.Read(0xA000); got != 0xFF {
		t.Errorf("expected 0xFF while RAM is disabled, got %02X", got)
	}
	if m.Cart.SRAMDirty() {
		t.Errorf("expected no dirty banks")
	}

	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x55)
	if got := m.Read(0xA000); got != 0x55 {
		t.Errorf("expected 0x55, got %02X", got)
	}
	if !m.Cart.SRAMDirty() {
		t.Errorf("expected a dirty bank")
	}

	// RAM banking mode
	m.Write(0x6000, 0x01)
	m.Write(0x4000, 0x02)
	if got := m.Read(0xA000); got != 0xFF {
		t.Errorf("expected bank 2 to be untouched, got %02X", got)
	}
}

func TestMMU_Registers(t *testing.T) {
	tests := []struct {
		name    string
		address uint16
		value   uint8
		want    uint8
	}{
		{"IF is masked", 0xFF0F, 0xFF, 0x1F},
		{"IE is masked", 0xFFFF, 0xFF, 0x1F},
		{"DIV is reset", 0xFF04, 0x80, 0x00},
		{"TMA", 0xFF06, 0xAB, 0xAB},
		{"high RAM", 0xFF80, 0x99, 0x99},
		{"OAM", 0xFE10, 0x77, 0x77},
		{"unusable", 0xFEA0, 0x77, 0xFF},
		{"LY is read only", 0xFF44, 0x77, 0x00},
		{"sound", 0xFF24, 0x35, 0x35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMMU(t, false)
			m.Write(tt.address, tt.value)
			if got := m.Read(tt.address); got != tt.want {
				t.Errorf("expected %02X, got %02X", tt.want, got)
			}
		})
	}
}

func TestMMU_KEY1(t *testing.T) {
	m := newTestMMU(t, true)
	m.regs.Set(registers.KEY1, 0x80)
	m.Write(0xFF4D, 0xFF)
	if got := m.Read(0xFF4D); got != 0x81 {
		t.Errorf("expected KEY1 0x81, got %02X", got)
	}

	d := newTestMMU(t, false)
	d.Write(0xFF4D, 0x01)
	if got := d.Read(0xFF4D); got != 0x00 {
		t.Errorf("expected KEY1 write to be ignored on DMG, got %02X", got)
	}
}

func TestMMU_CGBOnlyRegisters(t *testing.T) {
	only := []registers.Index{
		registers.VBK, registers.BCPS, registers.BCPD, registers.OCPS, registers.OCPD,
		registers.SVBK, registers.KEY1,
		registers.HDMA1, registers.HDMA2, registers.HDMA3, registers.HDMA4, registers.HDMA5,
	}
	t.Run("DMG ignores writes", func(t *testing.T) {
		m := newTestMMU(t, false)
		for _, r := range only {
			before := m.regs.Get(r)
			m.Write(0xFF00|uint16(r), 0x5A)
			if got := m.regs.Get(r); got != before {
				t.Errorf("expected register 0xFF%02X to stay 0x%02X, got 0x%02X", r, before, got)
			}
		}
		m.Write(0xFF43, 0x5A)
		if got := m.regs.Get(registers.SCX); got != 0x5A {
			t.Errorf("expected SCX to be written, got 0x%02X", got)
		}
	})
	t.Run("CGB accepts writes", func(t *testing.T) {
		m := newTestMMU(t, true)
		m.Write(0xFF51, 0x5A)
		if got := m.regs.Get(registers.HDMA1); got != 0x5A {
			t.Errorf("expected HDMA1 0x5A, got 0x%02X", got)
		}
	})
}

func TestMMU_DMA(t *testing.T) {
	m := newTestMMU(t, false)
	for i := uint16(0); i < 160; i++ {
		m.Write(0xC000+i, uint8(i))
	}
	m.Write(0xFF46, 0xC0)
	if got := m.Read(0xFE9F); got != 159 {
		t.Errorf("expected 159 at the end of OAM, got %d", got)
	}
}

func TestMMU_BootROM(t *testing.T) {
	image := make([]byte, boot.DMGSize)
	for i := range image {
		image[i] = 0x31
	}
	rom, err := boot.Load(image)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	m := newTestMMU(t, false, WithBootROM(rom))
	if got := m.Read(0x0000); got != 0x31 {
		t.Errorf("expected the boot ROM at 0x0000, got %02X", got)
	}
	if got := m.Read(0x0100); got == 0x31 {
		t.Errorf("expected the cartridge at 0x0100")
	}

	m.Write(0xFF50, 0x01)
	if got := m.Read(0x0000); got != 0 {
		t.Errorf("expected the cartridge at 0x0000 once disabled, got %02X", got)
	}
}

func TestMMU_Tick(t *testing.T) {
	m := newTestMMU(t, false)
	m.Tick(64, false)
	if got := m.Read(0xFF04); got != 1 {
		t.Errorf("expected DIV to increment after 64 cycles, got %d", got)
	}
}

func TestMMU_State(t *testing.T) {
	m := newTestMMU(t, true)
	m.Write(0xFF70, 0x05)
	m.Write(0xD123, 0xAB)
	m.Write(0xC000, 0xCD)

	s := types.NewState()
	m.Save(s)
	restored, err := types.StateFromBytes(s.Bytes())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	n := newTestMMU(t, true)
	n.Load(restored)
	n.UpdateMap()
	if err := restored.Err(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := n.Read(0xD123); got != 0xAB {
		t.Errorf("expected 0xAB in bank 5, got %02X", got)
	}
	if got := n.Read(0xC000); got != 0xCD {
		t.Errorf("expected 0xCD, got %02X", got)
	}
	if !n.regs.Test(registers.BIOS, types.Bit0) {
		t.Errorf("expected the boot ROM to be disabled after loading")
	}
}
