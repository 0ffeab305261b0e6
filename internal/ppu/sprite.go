package ppu

import (
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// sprite is an object visible on the current line.
type sprite struct {
	pattern  int // tile number, bank and flip bits as for patternRow
	x        int // screen x of the leftmost pixel
	row      int // row of the tile to draw
	palette  int // palette base
	behindBG bool
}

// enumerateSprites collects up to 10 objects on the current line.
// On DMG they are ordered by x, leftmost first; on CGB they keep
// their OAM order.
func (p *PPU) enumerateSprites() int {
	if !p.regs.Test(registers.LCDC, types.Bit1) {
		return 0
	}
	tall := p.regs.Test(registers.LCDC, types.Bit2)
	line := int(p.regs.Get(registers.LY))

	l := &p.line
	n := 0
	for i := 0; i < 40 && n < len(l.sprites); i++ {
		y, x := int(p.OAM[i*4]), int(p.OAM[i*4+1])
		pattern, flags := int(p.OAM[i*4+2]), p.OAM[i*4+3]

		if line >= y || line+16 < y {
			continue
		}
		if line+8 >= y && !tall {
			continue
		}

		s := &l.sprites[n]
		s.x = x - 8
		row := line - y + 16

		pattern |= int(flags&0x60) << 5
		if p.cgb {
			pattern |= int(flags&0x08) << 6
			s.palette = 32 + int(flags&0x07)<<2
		} else {
			s.palette = 32 + int(flags&0x10)>>2
		}
		s.behindBG = flags&0x80 != 0

		if tall {
			pattern &^= 1
			if row >= 8 {
				row -= 8
				pattern++
			}
			if flags&0x40 != 0 {
				pattern ^= 1
			}
		}
		s.pattern = pattern
		s.row = row
		n++
	}

	if !p.cgb {
		// selection sort by x; the first of equal x values wins
		var sorted [10]sprite
		for i := 0; i < n; i++ {
			least := 0
			x := l.sprites[0].x
			for j := 1; j < n; j++ {
				if l.sprites[j].x < x {
					least = j
					x = l.sprites[j].x
				}
			}
			sorted[i] = l.sprites[least]
			l.sprites[least].x = ScreenWidth
		}
		l.sprites = sorted
	}

	return n
}

// scanSprites draws the enumerated sprites over the line buffer,
// from the last to the first so that earlier sprites end up on top.
func (p *PPU) scanSprites(n int) {
	l := &p.line
	bg := l.buf

	for k := n - 1; k >= 0; k-- {
		s := &l.sprites[k]
		if s.x >= ScreenWidth || s.x <= -8 {
			continue
		}

		src := p.patternRow(s.pattern, s.row)
		dest := bufOrigin + s.x
		width := 8
		if s.x < 0 {
			src = src[-s.x:]
			dest = bufOrigin
			width = 8 + s.x
		} else if s.x > ScreenWidth-8 {
			width = ScreenWidth - s.x
		}

		pal := byte(s.palette)
		for i := width - 1; i >= 0; i-- {
			b := src[i]
			if b == 0 {
				continue
			}
			switch {
			case s.behindBG:
				if bg[dest+i]&3 == 0 {
					l.buf[dest+i] = pal | b
				}
			case p.cgb:
				if l.pri[dest+i] == 0 || bg[dest+i]&3 == 0 {
					l.buf[dest+i] = pal | b
				}
			default:
				l.buf[dest+i] = pal | b
			}
		}
	}
}
