package interrupts

import (
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

const (
	// VBlankFlag is the VBlank interrupt flag (bit 0),
	// which is requested once per frame when the PPU
	// enters VBlank.
	VBlankFlag = types.Bit0
	// LCDFlag is the LCD STAT interrupt flag (bit 1), which
	// is requested when one of the conditions enabled in
	// registers.STAT becomes true.
	LCDFlag = types.Bit1
	// TimerFlag is the Timer interrupt flag (bit 2),
	// which is requested when registers.TIMA overflows.
	TimerFlag = types.Bit2
	// SerialFlag is the Serial interrupt flag (bit 3),
	// which is requested when a serial transfer is
	// completed.
	SerialFlag = types.Bit3
	// JoypadFlag is the Joypad interrupt Flag (bit 4),
	// which is requested when any of registers.P1 bits 0-3
	// go from high to low.
	JoypadFlag = types.Bit4

	// Mask covers every interrupt source.
	Mask = 0x1F
)

// Waker is woken whenever an enabled interrupt is requested.
type Waker interface {
	Wake()
}

// Service is the interrupt service. Peripherals drive virtual
// interrupt lines up and down; an interrupt is requested (its bit
// set in registers.IF) only when its line goes from low to high,
// so a condition that stays true does not refire.
//
// Requesting an interrupt that is also enabled in registers.IE
// wakes a halted CPU, regardless of the IME.
type Service struct {
	regs  *registers.File
	lines uint8
	waker Waker
}

// NewService returns a new Service backed by the given register file.
func NewService(regs *registers.File) *Service {
	return &Service{regs: regs}
}

// AttachWaker sets the component woken by enabled interrupts.
func (s *Service) AttachWaker(w Waker) {
	s.waker = w
}

// Raise drives the given line(s) high, requesting the interrupt
// if the line was low.
func (s *Service) Raise(flag uint8) {
	if s.lines&flag != 0 {
		return
	}
	s.lines |= flag
	s.regs.SetBits(registers.IF, flag)

	if s.regs.Test(registers.IE, flag) && s.waker != nil {
		s.waker.Wake()
	}
}

// Lower drives the given line(s) low. The request in registers.IF
// is left untouched.
func (s *Service) Lower(flag uint8) {
	s.lines &^= flag
}

// Pulse raises and immediately lowers a line, used by sources
// that have no held condition (timer, serial and joypad).
func (s *Service) Pulse(flag uint8) {
	s.Raise(flag)
	s.Lower(flag)
}

// IsHigh reports whether the given line is currently high.
func (s *Service) IsHigh(flag uint8) bool {
	return s.lines&flag != 0
}

// Pending returns the interrupts that are both requested and enabled.
func (s *Service) Pending() uint8 {
	return s.regs.Get(registers.IF) & s.regs.Get(registers.IE) & Mask
}

// Next returns the highest priority pending interrupt and its
// vector, or 0, 0 if none are pending.
func (s *Service) Next() (flag uint8, vector uint16) {
	pending := s.Pending()
	for i := uint8(0); i < 5; i++ {
		if f := uint8(1) << i; pending&f != 0 {
			return f, 0x0040 + uint16(i)*8
		}
	}
	return 0, 0
}

// Acknowledge clears the request for the given interrupt.
func (s *Service) Acknowledge(flag uint8) {
	s.regs.ClearBits(registers.IF, flag)
}

// Reset lowers every line.
func (s *Service) Reset() {
	s.lines = 0
}

var _ types.Stater = (*Service)(nil)

// Load implements the types.Stater interface.
//
// IF and IE are restored with the rest of the register file, only
// the line levels are stored separately:
//   - ints (uint8)
func (s *Service) Load(st *types.State) {
	s.lines = st.Read8("ints")
}

// Save implements the types.Stater interface.
//
// The values are saved under the following tags:
//   - ints (uint8)
func (s *Service) Save(st *types.State) {
	st.Write8("ints", s.lines)
}
