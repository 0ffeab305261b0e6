// Package timer provides an implementation of the Game Boy
// divider and timer. Both are advanced in bulk by the number
// of CPU cycles that have elapsed, rather than cycle by cycle.
package timer

import (
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// Controller is a timer controller. It increments registers.DIV
// at 16384Hz and registers.TIMA at the rate selected by
// registers.TAC, requesting a timer interrupt when TIMA overflows.
type Controller struct {
	div   int // sub-increment remainder of DIV, in 1/256ths
	timer int // sub-increment remainder of TIMA, in 1/512ths

	regs *registers.File
	irq  *interrupts.Service
}

// NewController returns a new timer controller.
func NewController(regs *registers.File, irq *interrupts.Service) *Controller {
	return &Controller{regs: regs, irq: irq}
}

// Step advances the timer by the given number of CPU cycles.
func (c *Controller) Step(cycles int) {
	c.div += cycles << 2
	c.regs.Increment(registers.DIV, uint8(c.div>>8))
	c.div &= 0xFF

	tac := c.regs.Get(registers.TAC)
	if tac&types.Bit2 == 0 {
		return
	}

	// 00 → <<1, 01 → <<7, 10 → <<5, 11 → <<3
	c.timer += cycles << ((((-int(tac)) & 3) << 1) + 1)
	if c.timer < 512 {
		return
	}

	tima := int(c.regs.Get(registers.TIMA)) + c.timer>>9
	c.timer &= 0x1FF
	if tima >= 256 {
		c.irq.Pulse(interrupts.TimerFlag)
		tima = int(c.regs.Get(registers.TMA))
	}
	c.regs.Set(registers.TIMA, uint8(tima))
}

// Reset clears the internal counters.
func (c *Controller) Reset() {
	c.div = 0
	c.timer = 0
}

var _ types.Stater = (*Controller)(nil)

// Load implements the types.Stater interface.
//
// The values are loaded from the following tags:
//   - div  (uint32)
//   - tim  (uint32)
func (c *Controller) Load(s *types.State) {
	c.div = s.ReadInt("div ")
	c.timer = s.ReadInt("tim ")
}

// Save implements the types.Stater interface.
//
// The values are saved under the following tags:
//   - div  (uint32)
//   - tim  (uint32)
func (c *Controller) Save(s *types.State) {
	s.WriteInt("div ", c.div)
	s.WriteInt("tim ", c.timer)
}
