// Package mmu provides the memory map of the Game Boy. Most of the
// address space is served from page tables of 4KiB slices that are
// rebuilt whenever a bank is switched; the remaining regions, where
// an access has side effects, go through Read and Write's slow
// path.
package mmu

import (
	"github.com/thelolagemann/gnuboy-go/internal/apu"
	"github.com/thelolagemann/gnuboy-go/internal/boot"
	"github.com/thelolagemann/gnuboy-go/internal/cartridge"
	"github.com/thelolagemann/gnuboy-go/internal/joypad"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"github.com/thelolagemann/gnuboy-go/internal/serial"
	"github.com/thelolagemann/gnuboy-go/internal/timer"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
)

const pageSize = 0x1000

// MMU is the memory map. It owns work RAM and routes every other
// access to the component that owns the address.
type MMU struct {
	// page tables, indexed by the high nibble of the address. A nil
	// entry sends the access through the slow path.
	rmap, wmap [16][]byte

	// 0xC000 - 0xDFFF - work RAM, 2 banks on DMG and 8 on CGB
	WRAM [8][pageSize]byte

	// 0x0000 - 0x00FF/0x08FF - boot ROM (optional)
	bootROM *boot.ROM

	// 0x0000 - 0x7FFF - ROM
	// 0xA000 - 0xBFFF - external RAM and RTC
	Cart *cartridge.Cartridge

	// 0x8000 - 0x9FFF - video RAM
	// 0xFE00 - 0xFE9F - OAM
	Video *ppu.PPU

	// 0xFF10 - 0xFF3F - sound registers and wave RAM
	Sound *apu.APU

	Timer  *timer.Controller
	Serial *serial.Controller
	Pad    *joypad.State

	// 0xFF00 - 0xFF7F - I/O registers
	// 0xFF80 - 0xFFFE - high RAM
	// 0xFFFF - interrupt enable register
	regs *registers.File

	cgb bool
	log log.Logger
}

// Opt configures an MMU.
type Opt func(*MMU)

// WithBootROM maps a boot ROM over the start of bank 0 until it is
// disabled through registers.BIOS.
func WithBootROM(rom *boot.ROM) Opt {
	return func(m *MMU) {
		m.bootROM = rom
	}
}

// WithCGB enables the Game Boy Color registers and banks.
func WithCGB() Opt {
	return func(m *MMU) {
		m.cgb = true
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Opt {
	return func(m *MMU) {
		m.log = l
	}
}

// New returns a new MMU for the given cartridge. The remaining
// components are attached with Attach before the first access.
func New(cart *cartridge.Cartridge, regs *registers.File, opts ...Opt) *MMU {
	m := &MMU{
		Cart: cart,
		regs: regs,
		log:  log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach connects the components that own the memory mapped
// registers.
func (m *MMU) Attach(video *ppu.PPU, sound *apu.APU, tm *timer.Controller, sr *serial.Controller, pad *joypad.State) {
	m.Video = video
	m.Sound = sound
	m.Timer = tm
	m.Serial = sr
	m.Pad = pad
}

// IsGBC reports whether the Game Boy Color banks are mapped.
func (m *MMU) IsGBC() bool {
	return m.cgb
}

// Read returns the value at the given address.
func (m *MMU) Read(address uint16) uint8 {
	if page := m.rmap[address>>12]; page != nil {
		return page[address&0xFFF]
	}
	return m.read(address)
}

// Write stores value at the given address, applying any side
// effects of the write.
func (m *MMU) Write(address uint16, value uint8) {
	if page := m.wmap[address>>12]; page != nil {
		page[address&0xFFF] = value
		return
	}
	m.write(address, value)
}

// Read16 reads a little endian word.
func (m *MMU) Read16(address uint16) uint16 {
	return uint16(m.Read(address)) | uint16(m.Read(address+1))<<8
}

// Write16 writes a little endian word.
func (m *MMU) Write16(address uint16, value uint16) {
	m.Write(address, uint8(value))
	m.Write(address+1, uint8(value>>8))
}

// Tick advances the hardware clocked alongside the CPU by cycles
// CPU cycles. Serial and the timer run on CPU cycles; the video and
// sound units count double speed cycles, so the count is doubled
// in single speed.
func (m *MMU) Tick(cycles int, doubleSpeed bool) {
	m.Serial.Step(cycles)
	m.Timer.Step(cycles)
	if !doubleSpeed {
		cycles <<= 1
	}
	m.Video.Tick(cycles)
	m.Sound.Tick(cycles)
}

// wramBank returns the bank mapped at 0xD000-0xDFFF.
func (m *MMU) wramBank() int {
	if !m.cgb {
		return 1
	}
	if bank := int(m.regs.Get(registers.SVBK) & 7); bank != 0 {
		return bank
	}
	return 1
}

func (m *MMU) bootROMMapped() bool {
	return m.bootROM != nil && !m.regs.Test(registers.BIOS, types.Bit0)
}

// UpdateMap rebuilds the page tables after a bank switch.
func (m *MMU) UpdateMap() {
	bank0 := m.Cart.Bank(0)
	bank := m.Cart.CurrentBank()
	for i := 0; i < 4; i++ {
		m.rmap[i] = bank0[i*pageSize : (i+1)*pageSize]
		m.rmap[4+i] = bank[i*pageSize : (i+1)*pageSize]
	}
	if m.bootROMMapped() {
		m.rmap[0] = nil
	}

	vram := m.Video.VRAM[int(m.regs.Get(registers.VBK)&1)*0x2000:]
	m.rmap[0x8], m.wmap[0x8] = vram[:pageSize], vram[:pageSize]
	m.rmap[0x9], m.wmap[0x9] = vram[pageSize:2*pageSize], vram[pageSize:2*pageSize]

	m.rmap[0xA], m.wmap[0xA] = nil, nil
	m.rmap[0xB], m.wmap[0xB] = nil, nil

	m.rmap[0xC], m.wmap[0xC] = m.WRAM[0][:], m.WRAM[0][:]
	d := m.WRAM[m.wramBank()][:]
	m.rmap[0xD], m.wmap[0xD] = d, d
	m.rmap[0xE], m.wmap[0xE] = m.WRAM[0][:], m.WRAM[0][:]

	m.rmap[0xF], m.wmap[0xF] = nil, nil
}

func (m *MMU) read(address uint16) uint8 {
	switch address & 0xE000 {
	case 0x0000, 0x2000:
		if address < 0x900 && m.bootROMMapped() && m.bootROM.Mapped(address) {
			return m.bootROM.Read(address)
		}
		return m.Cart.Bank(0)[address&0x3FFF]
	case 0x4000, 0x6000:
		return m.Cart.CurrentBank()[address&0x3FFF]
	case 0x8000:
		return m.Video.VRAM[int(m.regs.Get(registers.VBK)&1)*0x2000+int(address&0x1FFF)]
	case 0xA000:
		return m.Cart.ReadRAM(address)
	case 0xC000:
		if address&0xF000 == 0xC000 {
			return m.WRAM[0][address&0xFFF]
		}
		return m.WRAM[m.wramBank()][address&0xFFF]
	}

	switch {
	case address < 0xFE00:
		// echo of 0xC000-0xDDFF
		return m.WRAM[(address>>12)&1][address&0xFFF]
	case address < 0xFF00:
		if address < 0xFEA0 {
			return m.Video.OAM[address&0xFF]
		}
		return 0xFF
	case address >= 0xFF10 && address <= 0xFF3F:
		return m.Sound.Read(registers.Index(address))
	}
	return m.regs.Get(registers.Index(address))
}

func (m *MMU) write(address uint16, value uint8) {
	switch address & 0xE000 {
	case 0x0000, 0x2000, 0x4000, 0x6000:
		m.Cart.Write(address, value)
		m.UpdateMap()
		return
	case 0x8000:
		m.Video.VRAM[int(m.regs.Get(registers.VBK)&1)*0x2000+int(address&0x1FFF)] = value
		return
	case 0xA000:
		m.Cart.WriteRAM(address, value)
		return
	case 0xC000:
		if address&0xF000 == 0xC000 {
			m.WRAM[0][address&0xFFF] = value
		} else {
			m.WRAM[m.wramBank()][address&0xFFF] = value
		}
		return
	}

	switch {
	case address < 0xFE00:
		m.WRAM[(address>>12)&1][address&0xFFF] = value
	case address < 0xFF00:
		if address < 0xFEA0 {
			m.Video.OAM[address&0xFF] = value
		}
	case address >= 0xFF10 && address <= 0xFF3F:
		m.Sound.Write(registers.Index(address), value)
	case address >= 0xFF80 && address <= 0xFFFE:
		m.regs.Set(registers.Index(address), value)
	default:
		m.writeRegister(registers.Index(address), value)
	}
}

var _ types.Resettable = (*MMU)(nil)

// Reset restores the I/O registers to their power on values, resets
// the cartridge's bank controller and rebuilds the page tables. A
// hard reset also fills work RAM and external RAM with 0xFF.
func (m *MMU) Reset(hard bool) {
	m.regs.Clear()
	m.regs.Set(registers.P1, 0xFF)
	m.regs.Set(registers.LCDC, 0x91)
	m.regs.Set(registers.BGP, 0xFC)
	m.regs.Set(registers.OBP0, 0xFF)
	m.regs.Set(registers.OBP1, 0xFF)
	m.regs.Set(registers.SVBK, 0xF9)
	m.regs.Set(registers.HDMA5, 0xFF)
	m.regs.Set(registers.VBK, 0xFE)
	if m.bootROM == nil {
		// nothing to unmap, read as if the boot ROM had finished
		m.regs.Set(registers.BIOS, types.Bit0)
	}

	if hard {
		for i := range m.WRAM {
			for j := range m.WRAM[i] {
				m.WRAM[i][j] = 0xFF
			}
		}
	}
	m.Cart.Reset(hard)

	m.rmap = [16][]byte{}
	m.wmap = [16][]byte{}
	m.UpdateMap()
}

// wramBlocks returns the number of work RAM banks saved in a state.
func (m *MMU) wramBlocks() int {
	if m.cgb {
		return 8
	}
	return 2
}

var _ types.Stater = (*MMU)(nil)

// Load implements the types.Stater interface. The register file
// is restored from its raw copy in the header and work RAM from the
// next memory blocks. The boot ROM is always left disabled.
func (m *MMU) Load(s *types.State) {
	s.ReadRaw(types.StateIOOffset, m.regs.Bytes())
	m.regs.SetBits(registers.BIOS, types.Bit0)
	for i := 0; i < m.wramBlocks(); i++ {
		s.ReadBlock(m.WRAM[i][:])
	}
}

// Save implements the types.Stater interface.
func (m *MMU) Save(s *types.State) {
	s.WriteRaw(types.StateIOOffset, m.regs.Bytes())
	for i := 0; i < m.wramBlocks(); i++ {
		s.WriteBlock(m.WRAM[i][:])
	}
}
