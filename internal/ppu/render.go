package ppu

import (
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// bufOrigin is the offset of pixel 0 in the line buffers, leaving
// room for a window starting up to 7 pixels left of the screen.
const bufOrigin = 8

// lineState is the scratch state used while composing a line.
type lineState struct {
	s, t, u, v     int // background tile column/row and pixel offsets
	wx, wy, wt, wv int // window x, start line, tile row and pixel row

	// bg and wnd hold the tiles of the line, and on CGB the
	// palette base of each tile following it
	bg  [64]int
	wnd [64]int

	buf [bufOrigin + 0x100]byte // palette index per pixel
	pri [bufOrigin + 0x100]byte // CGB background priority per pixel

	sprites [10]sprite
	pix     [8]byte
}

// patternRow decodes one row of a tile into 8 colour indexes.
// Bits 0-9 of tile select the tile (bit 9 is the VRAM bank),
// bit 10 flips it horizontally and bit 11 vertically.
func (p *PPU) patternRow(tile, row int) []byte {
	if tile&(1<<11) != 0 {
		row = 7 - row
	}
	addr := (tile&0x3FF)<<4 | row<<1
	lo, hi := p.VRAM[addr], p.VRAM[addr+1]

	pix := p.line.pix[:]
	if tile&(1<<10) != 0 {
		for k := 0; k < 8; k++ {
			pix[k] = (lo>>k)&1 | ((hi>>k)&1)<<1
		}
	} else {
		for k := 0; k < 8; k++ {
			pix[7-k] = (lo>>k)&1 | ((hi>>k)&1)<<1
		}
	}
	return pix
}

// mapBase returns the offset in VRAM of the tile map selected by bit.
func (p *PPU) mapBase(bit uint8) int {
	if p.regs.Test(registers.LCDC, bit) {
		return 0x1C00
	}
	return 0x1800
}

// tileNumber applies the tile data select of LCDC to a map entry.
func (p *PPU) tileNumber(entry uint8) int {
	if p.regs.Test(registers.LCDC, types.Bit4) {
		return int(entry)
	}
	return 0x100 + int(int8(entry))
}

// tileAttributes folds the bank and flip bits of a CGB attribute
// byte into a tile number, and returns the palette base.
func tileAttributes(tile int, attr uint8) (int, int) {
	tile |= int(attr&0x08)<<6 | int(attr&0x60)<<5
	return tile, int(attr&0x07) << 2
}

// fetchTiles fills the background and window tile buffers for the line.
func (p *PPU) fetchTiles() {
	l := &p.line
	row := p.mapBase(types.Bit3) + l.t<<5
	count := (l.wx+7)>>3 + 1
	for i := 0; i < count; i++ {
		addr := row + (l.s+i)&31
		tile := p.tileNumber(p.VRAM[addr])
		if p.cgb {
			tile, pal := tileAttributes(tile, p.VRAM[0x2000+addr])
			l.bg[i<<1], l.bg[i<<1|1] = tile, pal
		} else {
			l.bg[i] = tile
		}
	}

	if l.wx >= ScreenWidth {
		return
	}

	row = p.mapBase(types.Bit6) + l.wt<<5
	count = (ScreenWidth-l.wx)>>3 + 1
	for i := 0; i < count; i++ {
		addr := row + i
		tile := p.tileNumber(p.VRAM[addr])
		if p.cgb {
			tile, pal := tileAttributes(tile, p.VRAM[0x2000+addr])
			l.wnd[i<<1], l.wnd[i<<1|1] = tile, pal
		} else {
			l.wnd[i] = tile
		}
	}
}

// scanBackground draws the background up to the window into the
// line buffer. On CGB the tile palette is blended into every pixel.
func (p *PPU) scanBackground() {
	l := &p.line
	if l.wx <= 0 {
		return
	}

	stride := 1
	if p.cgb {
		stride = 2
	}
	blend := func(tile int) byte {
		if p.cgb {
			return byte(l.bg[tile*2+1])
		}
		return 0
	}

	dest := bufOrigin
	src := p.patternRow(l.bg[0], l.v)
	for i, b := 0, blend(0); i < 8-l.u; i++ {
		l.buf[dest+i] = src[l.u+i] | b
	}
	dest += 8 - l.u
	count := l.wx - (8 - l.u)

	for tile := 1; count >= 0; tile++ {
		src = p.patternRow(l.bg[tile*stride], l.v)
		b := blend(tile)
		for i := 0; i < 8; i++ {
			l.buf[dest+i] = src[i] | b
		}
		dest += 8
		count -= 8
	}
}

// scanWindow draws the window from its x position to the end of
// the line. On DMG window pixels use the second background palette.
func (p *PPU) scanWindow() {
	l := &p.line
	if l.wx >= ScreenWidth {
		return
	}

	dest := bufOrigin + l.wx
	count := ScreenWidth - l.wx
	for tile := 0; count >= 0; tile++ {
		var src []byte
		var b byte
		if p.cgb {
			src = p.patternRow(l.wnd[tile*2], l.wv)
			b = byte(l.wnd[tile*2+1])
		} else {
			src = p.patternRow(l.wnd[tile], l.wv)
		}
		for i := 0; i < 8; i++ {
			l.buf[dest+i] = src[i] | b
		}
		dest += 8
		count -= 8
	}

	if !p.cgb {
		for i := bufOrigin + l.wx; i < bufOrigin+ScreenWidth; i++ {
			l.buf[i] |= 0x04
		}
	}
}

// priorityUsed reports whether any entry of a 32 tile attribute
// row has the BG-to-OAM priority bit set.
func (p *PPU) priorityUsed(row int) bool {
	for _, attr := range p.VRAM[row : row+32] {
		if attr&0x80 != 0 {
			return true
		}
	}
	return false
}

// scanBackgroundPriority fills the priority buffer for the background.
func (p *PPU) scanBackgroundPriority() {
	l := &p.line
	if l.wx <= 0 {
		return
	}

	row := 0x2000 + p.mapBase(types.Bit3) + l.t<<5
	dest := l.pri[bufOrigin : bufOrigin+l.wx]
	if !p.priorityUsed(row) {
		clear(dest)
		return
	}

	first := 8 - l.u
	for x := range dest {
		col := l.s
		if x >= first {
			col += 1 + (x-first)>>3
		}
		dest[x] = p.VRAM[row+col&31] & 0x80
	}
}

// scanWindowPriority fills the priority buffer for the window.
func (p *PPU) scanWindowPriority() {
	l := &p.line
	if l.wx >= ScreenWidth {
		return
	}

	row := 0x2000 + p.mapBase(types.Bit6) + l.wt<<5
	dest := l.pri[bufOrigin+l.wx : bufOrigin+ScreenWidth]
	if !p.priorityUsed(row) {
		clear(dest)
		return
	}
	for x := range dest {
		dest[x] = p.VRAM[row+x>>3] & 0x80
	}
}

// renderLine composes the current line and writes it to the
// framebuffer.
func (p *PPU) renderLine() {
	if !p.draw || p.frame == nil {
		return
	}
	l := &p.line

	ly := int(p.regs.Get(registers.LY))
	scx := int(p.regs.Get(registers.SCX))
	sy := (int(p.regs.Get(registers.SCY)) + ly) & 0xFF
	wx := int(p.regs.Get(registers.WX)) - 7
	wy := l.wy

	if wy > ly || wy < 0 || wy > 143 || wx < -7 || wx > ScreenWidth || !p.regs.Test(registers.LCDC, types.Bit5) {
		wx = ScreenWidth
	}
	l.wx = wx

	l.s = scx >> 3
	l.t = sy >> 3
	l.u = scx & 7
	l.v = sy & 7
	l.wt = (ly - wy) >> 3
	l.wv = (ly - wy) & 7

	if p.windowOffsetHack && p.regs.Test(registers.LCDC, types.Bit5) {
		l.wt %= 12
	}

	n := p.enumerateSprites()
	p.fetchTiles()

	p.scanBackground()
	p.scanWindow()
	if p.cgb && n > 0 {
		p.scanBackgroundPriority()
		p.scanWindowPriority()
	}

	p.scanSprites(n)

	line := l.buf[bufOrigin : bufOrigin+ScreenWidth]
	switch p.format {
	case Paletted:
		copy(p.frame[ly*ScreenWidth:], line)
	case RGB565LE:
		dst := p.frame[ly*ScreenWidth*2:]
		for i, c := range line {
			col := p.colors[c&0x3F]
			dst[i*2], dst[i*2+1] = byte(col), byte(col>>8)
		}
	case RGB565BE:
		dst := p.frame[ly*ScreenWidth*2:]
		for i, c := range line {
			col := p.colors[c&0x3F]
			dst[i*2], dst[i*2+1] = byte(col>>8), byte(col)
		}
	}
}
