// Package cpu implements the Sharp LR35902 interpreter. Time is kept
// in machine cycles internally and handed to the Bus in batches, so
// that the rest of the machine catches up every few instructions
// rather than on every memory access.
package cpu

import (
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
)

const (
	// ClockSpeed is the clock speed of the CPU in single speed mode.
	ClockSpeed = 4194304

	// tickBatch is the number of machine cycles accumulated before
	// the bus is ticked.
	tickBatch = 8
)

// Bus is the memory bus as seen by the CPU.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// Tick advances the rest of the machine by the given number of
	// machine cycles.
	Tick(cycles int, doubleSpeed bool)
}

// CPU represents the Game Boy CPU. It is responsible for executing
// instructions and dispatching interrupts.
type CPU struct {
	Registers

	// IME is the interrupt master enable. IMA is the value it takes
	// before the next instruction, which delays EI by one
	// instruction.
	IME, IMA bool
	// Halted is set by HALT and cleared by any enabled interrupt.
	Halted bool
	// DoubleSpeed is set once a CGB speed switch has completed.
	DoubleSpeed bool

	bus  Bus
	regs *registers.File
	irq  *interrupts.Service

	bootROM bool
	cgb     bool
	trace   bool
	log     log.Logger
}

// Opt configures a CPU.
type Opt func(*CPU)

// WithBootROM starts execution at 0x0000 rather than the cartridge
// entry point.
func WithBootROM() Opt {
	return func(c *CPU) {
		c.bootROM = true
	}
}

// WithCGB resets the CPU to the values left by the CGB boot ROM.
func WithCGB() Opt {
	return func(c *CPU) {
		c.cgb = true
	}
}

// WithTrace logs every instruction, disassembled, at debug level.
func WithTrace() Opt {
	return func(c *CPU) {
		c.trace = true
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Opt {
	return func(c *CPU) {
		c.log = l
	}
}

// NewCPU creates a new CPU attached to the given bus and interrupt
// service. The CPU registers itself to be woken by the service.
func NewCPU(bus Bus, regs *registers.File, irq *interrupts.Service, opts ...Opt) *CPU {
	c := &CPU{
		bus:  bus,
		regs: regs,
		irq:  irq,
		log:  log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	irq.AttachWaker(c)
	c.Reset()
	return c
}

// Reset puts the CPU in its power on state. Without a boot ROM the
// registers hold the values the boot ROM would have left behind.
func (c *CPU) Reset() {
	c.IME, c.IMA, c.Halted, c.DoubleSpeed = false, false, false, false
	c.PC = 0x0100
	if c.bootROM {
		c.PC = 0x0000
	}
	c.SP = 0xFFFE
	c.SetAF(0x01B0)
	if c.cgb {
		c.SetAF(0x11B0)
	}
	c.SetBC(0x0013)
	c.SetDE(0x00D8)
	c.SetHL(0x014D)
}

// Wake resumes a halted CPU. It is called by the interrupt service.
func (c *CPU) Wake() {
	c.Halted = false
}

// IsHalted reports whether the CPU is waiting for an interrupt.
func (c *CPU) IsHalted() bool {
	return c.Halted
}

// Run executes instructions for at least the given number of cycles,
// counted at the double speed rate, and returns the number actually
// consumed. The excess carries over into the next call through the
// return value.
func (c *CPU) Run(cycles int) int {
	remaining := cycles
	if !c.DoubleSpeed {
		remaining >>= 1
	}

	count := 0
	for {
		n := c.step()
		remaining -= n
		count += n
		if count >= tickBatch || remaining <= 0 {
			c.bus.Tick(count, c.DoubleSpeed)
			count = 0
		}
		if remaining <= 0 {
			break
		}
	}

	return cycles - remaining
}

// step services a pending interrupt or executes one instruction and
// returns the machine cycles taken.
func (c *CPU) step() int {
	if c.Halted {
		return 1
	}

	if c.IME {
		if flag, vector := c.irq.Next(); flag != 0 {
			c.IME, c.IMA, c.Halted = false, false, false
			c.push(c.PC)
			c.irq.Acknowledge(flag)
			c.PC = vector
			return 5
		}
	}
	c.IME = c.IMA

	if c.trace {
		c.log.Debugf("%04X  %-20s AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X",
			c.PC, Disassemble(c.bus, c.PC), c.AF(), c.BC(), c.DE(), c.HL(), c.SP)
	}

	return c.execute(c.fetch())
}

func (c *CPU) fetch() uint8 {
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	return uint16(c.fetch())<<8 | uint16(lo)
}

func (c *CPU) read16(address uint16) uint16 {
	return uint16(c.bus.Read(address)) | uint16(c.bus.Read(address+1))<<8
}

func (c *CPU) write16(address, v uint16) {
	c.bus.Write(address, uint8(v))
	c.bus.Write(address+1, uint8(v>>8))
}

func (c *CPU) push(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// switchSpeed toggles double speed mode if one has been prepared
// through registers.KEY1.
func (c *CPU) switchSpeed() {
	if !c.cgb || !c.regs.Test(registers.KEY1, types.Bit0) {
		return
	}
	c.DoubleSpeed = !c.DoubleSpeed
	v := c.regs.Get(registers.KEY1) & 0x7E
	if c.DoubleSpeed {
		v |= types.Bit7
	}
	c.regs.Set(registers.KEY1, v)
	c.log.Debugf("cpu: double speed %t", c.DoubleSpeed)
}

var _ types.Stater = (*CPU)(nil)

// Load restores the CPU from a save state.
func (c *CPU) Load(s *types.State) {
	c.PC = s.Read16("PC  ")
	c.SP = s.Read16("SP  ")
	c.SetBC(s.Read16("BC  "))
	c.SetDE(s.Read16("DE  "))
	c.SetHL(s.Read16("HL  "))
	c.SetAF(s.Read16("AF  "))
	c.IME = s.ReadBool("IME ")
	c.IMA = s.ReadBool("ima ")
	c.DoubleSpeed = s.ReadBool("spd ")
	c.Halted = s.ReadBool("halt")
}

// Save writes the CPU to a save state.
func (c *CPU) Save(s *types.State) {
	s.Write16("PC  ", c.PC)
	s.Write16("SP  ", c.SP)
	s.Write16("BC  ", c.BC())
	s.Write16("DE  ", c.DE())
	s.Write16("HL  ", c.HL())
	s.Write16("AF  ", c.AF())
	s.WriteBool("IME ", c.IME)
	s.WriteBool("ima ", c.IMA)
	s.WriteBool("spd ", c.DoubleSpeed)
	s.WriteBool("halt", c.Halted)
}
