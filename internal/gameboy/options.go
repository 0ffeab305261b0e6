package gameboy

import (
	"io"

	"github.com/thelolagemann/gnuboy-go/internal/boot"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
)

// Opt is a function that configures a GameBoy. Options are applied
// before the components are built.
type Opt func(gb *GameBoy)

// Debug logs every executed instruction at debug level.
func Debug() Opt {
	return func(gb *GameBoy) {
		gb.trace = true
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(l log.Logger) Opt {
	return func(gb *GameBoy) {
		gb.log = l
	}
}

// WithBootROM runs the given boot ROM before the cartridge, rather
// than starting at 0x0100 with the registers the boot ROM would have
// left behind.
func WithBootROM(rom *boot.ROM) Opt {
	return func(gb *GameBoy) {
		gb.bootROM = rom
	}
}

// WithSampleRate sets the audio sample rate, and whether samples are
// interleaved stereo or mono.
func WithSampleRate(rate int, stereo bool) Opt {
	return func(gb *GameBoy) {
		gb.sampleRate = rate
		gb.stereo = stereo
	}
}

// WithPixelFormat sets the layout of the framebuffer.
func WithPixelFormat(f ppu.PixelFormat) Opt {
	return func(gb *GameBoy) {
		gb.format = f
	}
}

// WithFramebuffer renders into the given buffer, which must hold a
// full frame in the selected pixel format. NewGameBoy returns
// ErrFramebufferSize otherwise.
func WithFramebuffer(frame []byte) Opt {
	return func(gb *GameBoy) {
		gb.frame = frame
	}
}

// WithVBlank sets a function called once a drawn frame is complete.
func WithVBlank(fn func()) Opt {
	return func(gb *GameBoy) {
		gb.vblank = fn
	}
}

// WithPalette sets the palette used for monochrome games.
func WithPalette(p ppu.DMGPalette) Opt {
	return func(gb *GameBoy) {
		gb.palette = p
	}
}

// WithSerialOutput copies every byte sent over the link port to w,
// which is how most test ROMs report their results.
func WithSerialOutput(w io.Writer) Opt {
	return func(gb *GameBoy) {
		gb.serialOut = w
	}
}

// WithBankLimit limits the number of ROM banks held in memory.
func WithBankLimit(n int) Opt {
	return func(gb *GameBoy) {
		gb.bankLimit = n
	}
}
