package ppu

import (
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// DMA copies 160 bytes from value<<8 into OAM. The transfer is
// performed at once; the CPU keeps running during a real OAM DMA,
// so no stall is emulated.
func (p *PPU) DMA(value uint8) {
	addr := uint16(value) << 8
	for i := 0; i < 160; i++ {
		p.OAM[i] = p.bus.Read(addr + uint16(i))
	}
}

// hdmaAddresses returns the source and destination of the next
// transfer from registers.HDMA1-4.
func (p *PPU) hdmaAddresses() (src, dst uint16) {
	src = uint16(p.regs.Get(registers.HDMA1))<<8 | uint16(p.regs.Get(registers.HDMA2)&0xF0)
	dst = 0x8000 | uint16(p.regs.Get(registers.HDMA3)&0x1F)<<8 | uint16(p.regs.Get(registers.HDMA4)&0xF0)
	return src, dst
}

// copyHDMA copies n bytes and stores the advanced addresses back in
// registers.HDMA1-4.
func (p *PPU) copyHDMA(n int) {
	src, dst := p.hdmaAddresses()
	for ; n > 0; n-- {
		p.bus.Write(dst, p.bus.Read(src))
		src++
		dst++
	}
	p.regs.Set(registers.HDMA1, uint8(src>>8))
	p.regs.Set(registers.HDMA2, uint8(src)&0xF0)
	p.regs.Set(registers.HDMA3, uint8(dst>>8)&0x1F)
	p.regs.Set(registers.HDMA4, uint8(dst)&0xF0)
}

// WriteHDMA5 handles a write to registers.HDMA5. With bit 7 set (or
// while an h-blank transfer is active) it starts or cancels an
// h-blank transfer, otherwise (value+1)*16 bytes are copied at once.
func (p *PPU) WriteHDMA5(value uint8) {
	if (p.hdma|value)&types.Bit7 != 0 {
		p.hdma = value
		p.regs.Set(registers.HDMA5, value&0x7F)
		return
	}

	p.copyHDMA((int(value) + 1) << 4)
	p.regs.Set(registers.HDMA5, 0xFF)
}

// hdmaContinue copies the next 16 byte block of an h-blank transfer.
func (p *PPU) hdmaContinue() {
	p.copyHDMA(16)
	p.regs.Set(registers.HDMA5, p.regs.Get(registers.HDMA5)-1)
	p.hdma--
}
