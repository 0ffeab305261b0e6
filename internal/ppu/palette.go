package ppu

import (
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// PixelFormat is the layout of the framebuffer.
type PixelFormat int

const (
	// Paletted stores one palette index (0-63) per pixel.
	Paletted PixelFormat = iota
	// RGB565LE stores 2 bytes per pixel, little endian.
	RGB565LE
	// RGB565BE stores 2 bytes per pixel, big endian.
	RGB565BE
)

// BytesPerPixel returns the size of a pixel in the format.
func (f PixelFormat) BytesPerPixel() int {
	if f == Paletted {
		return 1
	}
	return 2
}

// DMGPalette selects the colours used for monochrome games.
type DMGPalette int

const (
	PaletteDefault DMGPalette = iota
	Palette2BGrays
	PaletteLinksAw
	PaletteNSuprGB
	PaletteNGBarne
	PaletteGrapeFr
	PaletteMegaMan
	PalettePokemon
	PaletteDMGreen
	PaletteGBC
	PaletteSGB
	PaletteCount
)

var paletteNames = [PaletteCount]string{
	"Default", "2BGrays", "LinksAw", "NSuprGB", "NGBarne",
	"GrapeFr", "MegaMan", "Pokemon", "DMGreen", "GBC", "SGB",
}

func (d DMGPalette) String() string {
	if d >= 0 && d < PaletteCount {
		return paletteNames[d]
	}
	return "invalid"
}

// ParseDMGPalette returns the palette with the given name.
func ParseDMGPalette(name string) (DMGPalette, bool) {
	for i, n := range paletteNames {
		if n == name {
			return DMGPalette(i), true
		}
	}
	return PaletteDefault, false
}

// builtinPalettes holds the four BGR555 shades, lightest first, of
// each monochrome palette. PaletteGBC uses its own entry when the
// cartridge has no colorization id.
var builtinPalettes = [PaletteCount - 1][4]uint16{
	PaletteDefault: {0x7FFF, 0x5294, 0x294A, 0x0000},
	Palette2BGrays: {0x7FFF, 0x5AD6, 0x318C, 0x0842},
	PaletteLinksAw: {0x5BFF, 0x2AF5, 0x11CA, 0x0C63},
	PaletteNSuprGB: {0x3FBF, 0x2EDD, 0x1A12, 0x0C66},
	PaletteNGBarne: {0x4BDE, 0x3318, 0x1E4F, 0x0CC6},
	PaletteGrapeFr: {0x6BFF, 0x4E7C, 0x34B6, 0x144C},
	PaletteMegaMan: {0x7F7F, 0x66B9, 0x3DB1, 0x0842},
	PalettePokemon: {0x6BDF, 0x4679, 0x2D4F, 0x0C45},
	PaletteDMGreen: {0x1ED3, 0x1A6F, 0x118A, 0x08C3},
	PaletteGBC:     {0x7FFF, 0x1BEF, 0x6180, 0x0000},
}

// SetDMGPalette selects the colours used for monochrome games.
func (p *PPU) SetDMGPalette(d DMGPalette) {
	if d < 0 || d >= PaletteCount {
		d = PaletteDefault
	}
	p.dmgPalette = d
	p.rebuildColors()
}

// DMGPalette returns the palette used for monochrome games.
func (p *PPU) DMGPalette() DMGPalette {
	return p.dmgPalette
}

// Colors returns the RGB565 colour of every palette index.
func (p *PPU) Colors() [64]uint16 {
	return p.colors
}

// updateColor converts palette memory entry i (0-63) from BGR555
// to RGB565.
func (p *PPU) updateColor(i int) {
	c := uint16(p.Palette[i<<1]) | uint16(p.Palette[i<<1|1])<<8
	r := c & 0x1F
	g := (c >> 5) & 0x1F
	b := (c >> 10) & 0x1F
	p.colors[i] = r<<11 | g<<6 | b
}

func (p *PPU) writePalette(i int, value uint8) {
	if p.Palette[i] == value {
		return
	}
	p.Palette[i] = value
	p.updateColor(i >> 1)
}

// writeDMGPalette emulates a monochrome palette register by writing
// the four shades it selects into CGB palette memory at i.
func (p *PPU) writeDMGPalette(i int, mapIndex int, value uint8) {
	shades := &p.dmgMaps[mapIndex&3]
	for j := 0; j < 8; j += 2 {
		c := shades[(value>>j)&3]
		p.writePalette(i+j, uint8(c))
		p.writePalette(i+j+1, uint8(c>>8))
	}
}

// rebuildColors recomputes every colour, and on DMG the emulated
// palette memory, from the palette registers.
func (p *PPU) rebuildColors() {
	if !p.cgb {
		selected := p.dmgPalette
		if selected == PaletteSGB {
			selected = PaletteDefault
		}
		shades := builtinPalettes[selected]
		for i := range p.dmgMaps {
			p.dmgMaps[i] = shades
		}
		if selected == PaletteGBC && p.colorizeID != 0 {
			if bg, obp0, obp1, ok := colorizeMaps(p.colorizeID); ok {
				p.dmgMaps = [4][4]uint16{bg, bg, obp0, obp1}
			}
		}

		p.writeDMGPalette(0, 0, p.regs.Get(registers.BGP))
		p.writeDMGPalette(8, 1, p.regs.Get(registers.BGP))
		p.writeDMGPalette(64, 2, p.regs.Get(registers.OBP0))
		p.writeDMGPalette(72, 3, p.regs.Get(registers.OBP1))
	}

	for i := range p.colors {
		p.updateColor(i)
	}
}

// WriteBGP handles a write to registers.BGP.
func (p *PPU) WriteBGP(value uint8) {
	p.regs.Set(registers.BGP, value)
	if !p.cgb {
		p.writeDMGPalette(0, 0, value)
		p.writeDMGPalette(8, 1, value)
	}
}

// WriteOBP handles a write to registers.OBP0 or registers.OBP1.
func (p *PPU) WriteOBP(r registers.Index, value uint8) {
	p.regs.Set(r, value)
	if p.cgb {
		return
	}
	if r == registers.OBP0 {
		p.writeDMGPalette(64, 2, value)
	} else {
		p.writeDMGPalette(72, 3, value)
	}
}

// WritePaletteIndex handles a write to registers.BCPS or
// registers.OCPS, loading the data register with the selected byte.
func (p *PPU) WritePaletteIndex(r registers.Index, value uint8) {
	p.regs.Set(r, value&0xBF)
	base, data := 0, registers.BCPD
	if r == registers.OCPS {
		base, data = 64, registers.OCPD
	}
	p.regs.Set(data, p.Palette[base+int(value&0x3F)])
}

// WritePaletteData handles a write to registers.BCPD or
// registers.OCPD, advancing the index if auto increment is set.
func (p *PPU) WritePaletteData(r registers.Index, value uint8) {
	p.regs.Set(r, value)
	base, index := 0, registers.BCPS
	if r == registers.OCPD {
		base, index = 64, registers.OCPS
	}
	spec := p.regs.Get(index)
	p.writePalette(base+int(spec&0x3F), value)
	if spec&types.Bit7 != 0 {
		p.regs.Set(index, (spec+1)&0xBF)
	}
}
