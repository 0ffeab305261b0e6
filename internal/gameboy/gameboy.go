// Package gameboy provides an emulation of a Nintendo Game Boy.
//
// A GameBoy is a single emulation session: it owns every component
// and is driven one frame at a time by RunFrame. A session must only
// be used from one goroutine.
package gameboy

import (
	"errors"
	"fmt"
	"io"

	"github.com/thelolagemann/gnuboy-go/internal/apu"
	"github.com/thelolagemann/gnuboy-go/internal/boot"
	"github.com/thelolagemann/gnuboy-go/internal/cartridge"
	"github.com/thelolagemann/gnuboy-go/internal/cpu"
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/joypad"
	"github.com/thelolagemann/gnuboy-go/internal/mmu"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"github.com/thelolagemann/gnuboy-go/internal/serial"
	"github.com/thelolagemann/gnuboy-go/internal/timer"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
)

const (
	// ClockSpeed is the clock speed of the Game Boy.
	ClockSpeed = cpu.ClockSpeed
	// CyclesPerFrame is the length of a frame in double speed cycles,
	// 154 lines of 228 cycles.
	CyclesPerFrame = 35112
	// FrameRate is the number of frames emulated per second.
	FrameRate = 59.7275

	// vblankCycles covers the 10 lines of VBlank.
	vblankCycles = 2280
	// visibleCycles covers the 144 visible lines.
	visibleCycles = 32832
)

// ErrFramebufferSize is returned by NewGameBoy when the buffer given to
// WithFramebuffer does not hold exactly one frame in the pixel format.
var ErrFramebufferSize = errors.New("gameboy: framebuffer size does not match pixel format")

// GameBoy represents a Game Boy. It contains all the components of
// the Game Boy and is the main entry point for the emulator.
type GameBoy struct {
	CPU        *cpu.CPU
	MMU        *mmu.MMU
	PPU        *ppu.PPU
	APU        *apu.APU
	Cartridge  *cartridge.Cartridge
	Joypad     *joypad.State
	Interrupts *interrupts.Service
	Timer      *timer.Controller
	Serial     *serial.Controller

	regs   *registers.File
	frames uint64

	// configuration, set by Opt before the components are built
	bootROM    *boot.ROM
	sampleRate int
	stereo     bool
	format     ppu.PixelFormat
	frame      []byte
	vblank     func()
	palette    ppu.DMGPalette
	serialOut  io.Writer
	bankLimit  int
	trace      bool
	log        log.Logger
}

// NewGameBoy loads a cartridge from rom, builds a session around it
// and performs a hard reset.
func NewGameBoy(rom io.ReadSeeker, opts ...Opt) (*GameBoy, error) {
	g := &GameBoy{
		sampleRate: apu.DefaultSampleRate,
		stereo:     true,
		format:     ppu.RGB565LE,
		log:        log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	frameSize := ppu.ScreenWidth * ppu.ScreenHeight * g.format.BytesPerPixel()
	if g.frame != nil && len(g.frame) != frameSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrFramebufferSize, len(g.frame), frameSize)
	}

	cartOpts := []cartridge.Opt{cartridge.WithLogger(g.log)}
	if g.bankLimit > 0 {
		cartOpts = append(cartOpts, cartridge.WithBankLimit(g.bankLimit))
	}
	cart, err := cartridge.New(rom, cartOpts...)
	if err != nil {
		return nil, fmt.Errorf("gameboy: loading cartridge: %w", err)
	}
	g.Cartridge = cart
	g.log.Infof("gameboy: loaded %s", cart.Header.String())

	g.regs = &registers.File{}
	g.Interrupts = interrupts.NewService(g.regs)
	g.Timer = timer.NewController(g.regs, g.Interrupts)
	g.Serial = serial.NewController(g.regs, g.Interrupts)
	if g.serialOut != nil {
		g.Serial.Attach(serial.NewWriterDevice(g.serialOut))
	}
	g.Joypad = joypad.New(g.regs, g.Interrupts)

	mmuOpts := []mmu.Opt{mmu.WithLogger(g.log)}
	cpuOpts := []cpu.Opt{cpu.WithLogger(g.log)}
	ppuOpts := []ppu.Opt{ppu.WithColorize(cart.Colorize)}
	apuOpts := []apu.Opt{
		apu.WithSampleRate(g.sampleRate),
		apu.WithStereo(g.stereo),
		apu.WithLogger(g.log),
	}
	if cart.Hardware == types.CGB {
		mmuOpts = append(mmuOpts, mmu.WithCGB())
		cpuOpts = append(cpuOpts, cpu.WithCGB())
		ppuOpts = append(ppuOpts, ppu.WithCGB())
		apuOpts = append(apuOpts, apu.WithCGB())
	}
	if g.bootROM != nil {
		mmuOpts = append(mmuOpts, mmu.WithBootROM(g.bootROM))
		cpuOpts = append(cpuOpts, cpu.WithBootROM())
	}
	if g.trace {
		cpuOpts = append(cpuOpts, cpu.WithTrace())
	}
	if cart.WindowOffsetHack {
		ppuOpts = append(ppuOpts, ppu.WithWindowOffsetHack())
	}

	g.MMU = mmu.New(cart, g.regs, mmuOpts...)
	g.CPU = cpu.NewCPU(g.MMU, g.regs, g.Interrupts, cpuOpts...)
	g.PPU = ppu.New(g.regs, g.Interrupts, g.CPU, g.MMU, ppuOpts...)
	g.APU = apu.New(g.regs, apuOpts...)
	g.MMU.Attach(g.PPU, g.APU, g.Timer, g.Serial, g.Joypad)

	if g.frame == nil {
		g.frame = make([]byte, frameSize)
	}
	g.PPU.SetFramebuffer(g.frame, g.format)
	g.PPU.SetDMGPalette(g.palette)

	g.Reset(true)
	if err := cart.Err(); err != nil {
		return nil, err
	}

	return g, nil
}

// Reset returns the machine to its power on state. A hard reset also
// clears work RAM, external RAM and the real time clock.
func (g *GameBoy) Reset(hard bool) {
	g.Interrupts.Reset()
	g.Joypad.Reset()
	g.Serial.Reset()
	g.Timer.Reset()

	g.MMU.Reset(hard)
	g.PPU.Reset(hard)
	g.APU.Reset()
	g.CPU.Reset()
}

// RunFrame emulates a single frame, from the end of one VBlank to
// the end of the next. When draw is set the visible lines are
// rendered into the framebuffer and the VBlank callback is called.
//
// An error is returned only if a ROM bank could not be read, after
// which the session should be discarded.
func (g *GameBoy) RunFrame(draw bool) error {
	g.PPU.SetDrawing(draw)
	g.APU.Flush()

	g.CPU.Run(vblankCycles)

	// visible lines
	for ly := g.regs.Get(registers.LY); ly > 0 && ly < ppu.ScreenHeight; ly = g.regs.Get(registers.LY) {
		g.CPU.Run(g.PPU.Cycles())
	}

	if draw && g.vblank != nil {
		g.vblank()
	}

	g.APU.Emulate()
	g.Cartridge.Clock.Tick()

	// with the LCD off LY never advances, run a frame's worth instead
	if !g.regs.Test(registers.LCDC, types.Bit7) {
		g.CPU.Run(visibleCycles)
	}

	// VBlank
	for g.regs.Get(registers.LY) > 0 {
		g.CPU.Run(g.PPU.Cycles())
	}

	g.frames++
	return g.Cartridge.Err()
}

// Frames returns the number of frames run since the session was
// created.
func (g *GameBoy) Frames() uint64 {
	return g.frames
}

// SetPad sets the buttons currently held down.
func (g *GameBoy) SetPad(buttons joypad.Button) {
	g.Joypad.Set(buttons)
}

// Time returns the cartridge's real time clock.
func (g *GameBoy) Time() (day, hour, minute, second int) {
	return g.Cartridge.Clock.Time()
}

// SetTime sets the cartridge's real time clock.
func (g *GameBoy) SetTime(day, hour, minute, second int) {
	g.Cartridge.Clock.SetTime(day, hour, minute, second)
}

// Palette returns the palette used for monochrome games.
func (g *GameBoy) Palette() ppu.DMGPalette {
	return g.PPU.DMGPalette()
}

// SetPalette changes the palette used for monochrome games.
func (g *GameBoy) SetPalette(p ppu.DMGPalette) {
	g.PPU.SetDMGPalette(p)
}

// Model returns the hardware being emulated.
func (g *GameBoy) Model() types.HardwareType {
	return g.Cartridge.Hardware
}

// Frame returns the framebuffer.
func (g *GameBoy) Frame() []byte {
	return g.PPU.Framebuffer()
}

// PixelFormat returns the layout of the framebuffer.
func (g *GameBoy) PixelFormat() ppu.PixelFormat {
	return g.format
}

// Colors returns the RGB565 colour of every palette index, for
// converting a Paletted framebuffer.
func (g *GameBoy) Colors() [64]uint16 {
	return g.PPU.Colors()
}

// Samples returns the audio produced during the current frame.
func (g *GameBoy) Samples() []int16 {
	return g.APU.Samples()
}

// SRAMDirty reports whether battery RAM has unsaved writes.
func (g *GameBoy) SRAMDirty() bool {
	return g.Cartridge.SRAMDirty()
}

// Disassemble returns a listing of the next n instructions.
func (g *GameBoy) Disassemble(n int) []string {
	return cpu.DisassembleN(g.MMU, g.CPU.PC, n)
}
