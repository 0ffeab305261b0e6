package serial

import (
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// transferTime is the duration of an 8 bit transfer on the internal
// clock, in double speed cycles (8 * 122us).
const transferTime = 1952

// Controller is the serial controller. A transfer is started by
// writing registers.SC with bits 7 and 0 set; after transferTime
// the received byte is placed in registers.SB, bit 7 of SC is
// cleared and a serial interrupt is requested.
type Controller struct {
	countdown int
	received  uint8

	regs           *registers.File
	irq            *interrupts.Service
	AttachedDevice Device
}

// NewController creates a new Controller with nothing attached.
func NewController(regs *registers.File, irq *interrupts.Service) *Controller {
	return &Controller{regs: regs, irq: irq, AttachedDevice: nullDevice{}}
}

// Attach attaches a Device to the Controller.
func (c *Controller) Attach(d Device) {
	if d == nil {
		d = nullDevice{}
	}
	c.AttachedDevice = d
}

// WriteControl handles a write to registers.SC.
func (c *Controller) WriteControl(v uint8) {
	if v&0x81 == 0x81 {
		c.countdown = transferTime
		c.received = c.AttachedDevice.Transfer(c.regs.Get(registers.SB))
	} else {
		c.countdown = 0
	}
	c.regs.Set(registers.SC, v)
}

// Step advances a pending transfer by the given number of CPU cycles.
func (c *Controller) Step(cycles int) {
	if c.countdown <= 0 {
		return
	}
	c.countdown -= cycles << 1
	if c.countdown <= 0 {
		c.regs.Set(registers.SB, c.received)
		c.regs.ClearBits(registers.SC, types.Bit7)
		c.countdown = 0
		c.irq.Pulse(interrupts.SerialFlag)
	}
}

// Reset cancels any transfer in progress.
func (c *Controller) Reset() {
	c.countdown = 0
	c.received = 0xFF
}

var _ types.Stater = (*Controller)(nil)

// Load implements the types.Stater interface.
func (c *Controller) Load(s *types.State) {
	c.countdown = s.ReadInt("seri")
	c.received = 0xFF
}

// Save implements the types.Stater interface.
func (c *Controller) Save(s *types.State) {
	s.WriteInt("seri", c.countdown)
}
