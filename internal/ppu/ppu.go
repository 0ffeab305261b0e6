// Package ppu provides the Game Boy's (P)ixel (P)rocessing (U)nit.
// The PPU is emulated a state at a time rather than a dot at a time:
// every line is rendered in one go when it leaves the OAM search
// state, which is accurate enough for the vast majority of games.
package ppu

import (
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

const (
	// ScreenWidth is the width of the screen in pixels.
	ScreenWidth = 160
	// ScreenHeight is the height of the screen in pixels.
	ScreenHeight = 144
)

const (
	// ModeHBlank (Mode 0) - Horizontal Blanking Period
	//
	//	- Allows CPU access to VRAM/OAM
	//	- STAT interrupt available if enabled via STAT.3
	//	- HDMA transfers 16 bytes on entry
	ModeHBlank = iota

	// ModeVBlank (Mode 1) - Vertical Blanking Period
	//
	//	- Allows full CPU access to VRAM/OAM
	//	- VBlank interrupt available if enabled via IE.0
	//	- STAT interrupt available if enabled via STAT.4
	//	- Active during LY 144-153
	ModeVBlank

	// ModeOAM (Mode 2) - OAM Scan
	//
	//	- STAT interrupt available if enabled via STAT.5
	//	- The line is rendered when leaving this mode
	ModeOAM

	// ModeVRAM (Mode 3) - Pixel Transfer
	//
	//	- No STAT interrupts available
	ModeVRAM
)

// Durations of each mode, in double speed cycles. A line always
// adds up to 228 cycles.
const (
	oamCycles    = 40
	vramCycles   = 86
	hblankCycles = 102
	lineCycles   = oamCycles + vramCycles + hblankCycles
)

// statConditions maps the mode to the STAT bit enabling its interrupt.
var statConditions = [4]uint8{types.Bit3, types.Bit4, types.Bit5, 0}

// Halter reports whether the CPU is halted.
type Halter interface {
	IsHalted() bool
}

// Bus is the memory the PPU's DMA engines copy through.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// PPU implements the Game Boy's (P)ixel (P)rocessing (U)nit.
//
// References:
//   - [Pan Docs](https://gbdev.io/pandocs/Graphics.html)
type PPU struct {
	// VRAM holds both 8 KiB banks back to back, so that bit 9 of a
	// tile number selects the bank.
	VRAM [0x4000]byte
	// OAM is the object attribute memory, 40 entries of 4 bytes.
	OAM [0x100]byte
	// Palette is the CGB palette memory, 64 bytes of background
	// palettes followed by 64 bytes of object palettes.
	Palette [128]byte

	cycles int
	hdma   uint8

	line lineState

	regs   *registers.File
	irq    *interrupts.Service
	halter Halter
	bus    Bus

	cgb              bool
	windowOffsetHack bool

	// output
	draw       bool
	frame      []byte
	format     PixelFormat
	colors     [64]uint16
	dmgMaps    [4][4]uint16
	dmgPalette DMGPalette
	colorizeID uint8
}

// Opt configures a PPU.
type Opt func(p *PPU)

// WithCGB selects Game Boy Color rendering.
func WithCGB() Opt {
	return func(p *PPU) {
		p.cgb = true
	}
}

// WithWindowOffsetHack wraps the window line counter every 12 tiles,
// which a handful of titles depend on.
func WithWindowOffsetHack() Opt {
	return func(p *PPU) {
		p.windowOffsetHack = true
	}
}

// WithColorize sets the colorization id derived from the cartridge
// title, used by the GBC palette.
func WithColorize(id uint8) Opt {
	return func(p *PPU) {
		p.colorizeID = id
	}
}

// New returns a new PPU.
func New(regs *registers.File, irq *interrupts.Service, halter Halter, bus Bus, opts ...Opt) *PPU {
	p := &PPU{
		regs:   regs,
		irq:    irq,
		halter: halter,
		bus:    bus,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFramebuffer sets the buffer lines are rendered into. The buffer
// must hold ScreenWidth*ScreenHeight pixels in the given format.
func (p *PPU) SetFramebuffer(frame []byte, format PixelFormat) {
	p.frame = frame
	p.format = format
	p.rebuildColors()
}

// Framebuffer returns the buffer lines are rendered into.
func (p *PPU) Framebuffer() []byte {
	return p.frame
}

// SetDrawing enables or disables rendering.
func (p *PPU) SetDrawing(draw bool) {
	p.draw = draw
}

// Cycles returns the number of cycles until the next state change.
func (p *PPU) Cycles() int {
	return p.cycles
}

// Tick advances the PPU by the given number of double speed cycles.
func (p *PPU) Tick(cycles int) {
	p.cycles -= cycles
	if p.cycles > 0 {
		return
	}

	if !p.regs.Test(registers.LCDC, types.Bit7) {
		// the LCD is off: step once through the short route, the
		// line counter stays at 0
		switch p.mode() {
		case ModeHBlank, ModeVBlank:
			p.statChange(ModeOAM)
			p.cycles += oamCycles
		case ModeOAM:
			p.statChange(ModeVRAM)
			p.cycles += vramCycles
		case ModeVRAM:
			p.statChange(ModeHBlank)
			if p.hdma&types.Bit7 != 0 {
				p.hdmaContinue()
			} else {
				p.cycles += hblankCycles
			}
		}
		return
	}

	for p.cycles <= 0 {
		switch p.mode() {
		case ModeHBlank:
			p.regs.Increment(registers.LY, 1)
			if p.regs.Get(registers.LY) >= ScreenHeight {
				if p.halter.IsHalted() {
					p.irq.Raise(interrupts.VBlankFlag)
					p.cycles += lineCycles
				} else {
					p.cycles += 10
				}
				p.statChange(ModeVBlank)
				break
			}

			// a STAT line held by LYC alone is dropped between lines
			if p.regs.Get(registers.STAT) == 0x48 {
				p.irq.Lower(interrupts.LCDFlag)
			}
			p.statChange(ModeOAM)
			p.cycles += oamCycles
		case ModeVBlank:
			if !p.irq.IsHigh(interrupts.VBlankFlag) {
				p.irq.Raise(interrupts.VBlankFlag)
				p.cycles += lineCycles - 10
				break
			}
			ly := p.regs.Get(registers.LY)
			if ly == 0 {
				p.line.wy = int(p.regs.Get(registers.WY))
				p.statChange(ModeOAM)
				p.cycles += oamCycles
				break
			}
			switch {
			case ly < 152:
				p.cycles += lineCycles
			case ly == 152:
				// line 153 is reported as line 0 for most of its duration
				p.cycles += 28
			default:
				p.regs.Set(registers.LY, 0xFF)
				p.cycles += 200
			}
			p.regs.Increment(registers.LY, 1)
			p.statTrigger()
		case ModeOAM:
			p.renderLine()
			p.statChange(ModeVRAM)
			p.cycles += vramCycles
		case ModeVRAM:
			p.statChange(ModeHBlank)
			if p.hdma&types.Bit7 != 0 {
				p.hdmaContinue()
			}
			p.cycles += hblankCycles
		}
	}
}

func (p *PPU) mode() uint8 {
	return p.regs.Get(registers.STAT) & 0x03
}

// statTrigger updates the coincidence flag and drives the STAT
// interrupt line from the conditions enabled in STAT.
func (p *PPU) statTrigger() {
	stat := p.regs.Get(registers.STAT)
	if p.regs.Get(registers.LY) == p.regs.Get(registers.LYC) {
		stat |= types.Bit2
	} else {
		stat &^= types.Bit2
	}
	p.regs.Set(registers.STAT, stat)

	if p.regs.Test(registers.LCDC, types.Bit7) &&
		(stat&0x44 == 0x44 || stat&statConditions[stat&3] != 0) {
		p.irq.Raise(interrupts.LCDFlag)
	} else {
		p.irq.Lower(interrupts.LCDFlag)
	}
}

// statChange enters the given mode.
func (p *PPU) statChange(mode uint8) {
	p.regs.Set(registers.STAT, p.regs.Get(registers.STAT)&0x7C|mode)
	if mode != ModeVBlank {
		p.irq.Lower(interrupts.VBlankFlag)
	}
	p.statTrigger()
}

// WriteLCDC handles a write to registers.LCDC. Turning the LCD on
// or off restarts the frame from line 0.
func (p *PPU) WriteLCDC(value uint8) {
	old := p.regs.Get(registers.LCDC)
	p.regs.Set(registers.LCDC, value)
	if (old^value)&types.Bit7 != 0 {
		p.regs.Set(registers.LY, 0)
		p.statChange(ModeOAM)
		p.cycles = oamCycles
		p.line.wy = int(p.regs.Get(registers.WY))
	}
}

// WriteSTAT handles a write to registers.STAT. Only the interrupt
// sources are writable.
func (p *PPU) WriteSTAT(value uint8) {
	stat := p.regs.Get(registers.STAT)&0x07 | value&0x78
	p.regs.Set(registers.STAT, stat)
	// writing STAT outside of modes 2 and 3 on DMG briefly enables
	// every source
	if !p.cgb && stat&types.Bit1 == 0 {
		p.irq.Raise(interrupts.LCDFlag)
	}
	p.statTrigger()
}

// WriteLYC handles a write to registers.LYC.
func (p *PPU) WriteLYC(value uint8) {
	p.regs.Set(registers.LYC, value)
	p.statTrigger()
}

var _ types.Resettable = (*PPU)(nil)

// Reset clears the render state. A hard reset also clears VRAM,
// OAM and palette memory.
func (p *PPU) Reset(hard bool) {
	if hard {
		p.VRAM = [0x4000]byte{}
		p.OAM = [0x100]byte{}
		p.Palette = [128]byte{}
	}
	p.line = lineState{wy: int(p.regs.Get(registers.WY))}
	p.hdma = 0
	p.cycles = 0
	p.rebuildColors()
}

var _ types.Stater = (*PPU)(nil)

// Load implements the types.Stater interface. VRAM is restored
// from the next memory block.
func (p *PPU) Load(s *types.State) {
	p.cycles = s.ReadInt("lcdc")
	p.hdma = s.Read8("hdma")
	s.ReadRaw(types.StatePaletteOffset, p.Palette[:])
	s.ReadRaw(types.StateOAMOffset, p.OAM[:])
	if p.cgb {
		s.ReadBlock(p.VRAM[:])
	} else {
		s.ReadBlock(p.VRAM[:0x2000])
	}
	p.line.wy = int(p.regs.Get(registers.WY))
	p.rebuildColors()
}

// Save implements the types.Stater interface.
func (p *PPU) Save(s *types.State) {
	s.WriteInt("lcdc", p.cycles)
	s.Write8("hdma", p.hdma)
	s.WriteRaw(types.StatePaletteOffset, p.Palette[:])
	s.WriteRaw(types.StateOAMOffset, p.OAM[:])
	if p.cgb {
		s.WriteBlock(p.VRAM[:])
	} else {
		s.WriteBlock(p.VRAM[:0x2000])
	}
}
