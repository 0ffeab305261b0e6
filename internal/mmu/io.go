package mmu

import (
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// cgbOnly reports whether r does not exist on the DMG. Writes to such
// registers are ignored.
func cgbOnly(r registers.Index) bool {
	switch r {
	case registers.VBK, registers.BCPS, registers.OCPS, registers.BCPD, registers.OCPD,
		registers.SVBK, registers.KEY1,
		registers.HDMA1, registers.HDMA2, registers.HDMA3, registers.HDMA4, registers.HDMA5:
		return true
	}
	return false
}

// writeRegister applies a write to the I/O page (0xFF00-0xFF7F,
// excluding sound) or to registers.IE. Writes to registers that are
// not listed are dropped.
func (m *MMU) writeRegister(r registers.Index, value uint8) {
	if !m.cgb && cgbOnly(r) {
		return
	}

	switch r {
	case registers.TIMA, registers.TMA, registers.TAC,
		registers.SCY, registers.SCX, registers.WY, registers.WX,
		registers.SB, registers.HDMA1, registers.HDMA2, registers.HDMA3, registers.HDMA4:
		m.regs.Set(r, value)
	case registers.BGP:
		m.Video.WriteBGP(value)
	case registers.OBP0, registers.OBP1:
		m.Video.WriteOBP(r, value)
	case registers.IF, registers.IE:
		m.regs.Set(r, value&interrupts.Mask)
	case registers.P1:
		m.Pad.Write(value)
	case registers.SC:
		m.Serial.WriteControl(value)
	case registers.DIV:
		m.regs.Set(r, 0)
	case registers.LCDC:
		m.Video.WriteLCDC(value)
	case registers.STAT:
		m.Video.WriteSTAT(value)
	case registers.LYC:
		m.Video.WriteLYC(value)
	case registers.VBK:
		m.regs.Set(r, value|0xFE)
		m.UpdateMap()
	case registers.BCPS, registers.OCPS:
		m.Video.WritePaletteIndex(r, value)
	case registers.BCPD, registers.OCPD:
		m.Video.WritePaletteData(r, value)
	case registers.SVBK:
		m.regs.Set(r, value|0xF8)
		m.UpdateMap()
	case registers.DMA:
		m.Video.DMA(value)
	case registers.KEY1:
		m.regs.Set(r, m.regs.Get(r)&0x80|value&0x01)
	case registers.BIOS:
		m.regs.Set(r, value)
		m.UpdateMap()
	case registers.HDMA5:
		m.Video.WriteHDMA5(value)
	}
}
