// Package joypad provides an implementation of the Game Boy
// joypad. The joypad is used to read the state of the buttons
// and the direction keys.
package joypad

import (
	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

// Button is a bitmask of one or more physical buttons. A set
// bit means the button is held down.
type Button = uint8

const (
	ButtonRight  Button = 0x01
	ButtonLeft   Button = 0x02
	ButtonUp     Button = 0x04
	ButtonDown   Button = 0x08
	ButtonA      Button = 0x10
	ButtonB      Button = 0x20
	ButtonSelect Button = 0x40
	ButtonStart  Button = 0x80
)

// State represents the state of the joypad. Select either
// action or direction buttons by writing to the register,
// and then read out bits 0-3 to get the state of the buttons.
//
//	Bit 7 - Not used
//	Bit 6 - Not used
//	Bit 5 - P15 Select Button Keys      (0=Select)
//	Bit 4 - P14 Select Direction Keys   (0=Select)
//	Bit 3 - P13 Input Down  or Start    (0=Pressed) (Read Only)
//	Bit 2 - P12 Input Up    or Select   (0=Pressed) (Read Only)
//	Bit 1 - P11 Input Left  or Button B (0=Pressed) (Read Only)
//	Bit 0 - P10 Input Right or Button A (0=Pressed) (Read Only)
type State struct {
	// Pressed holds the buttons currently held down. The lower
	// 4 bits are the direction keys, the upper 4 bits the
	// action buttons.
	Pressed Button

	regs *registers.File
	irq  *interrupts.Service
}

// New returns a new joypad state.
func New(regs *registers.File, irq *interrupts.Service) *State {
	return &State{regs: regs, irq: irq}
}

// Set replaces the set of pressed buttons and refreshes
// registers.P1.
func (s *State) Set(pressed Button) {
	s.Pressed = pressed
	s.Refresh()
}

// Write handles a write to registers.P1. Only the select bits
// are writable.
func (s *State) Write(v uint8) {
	s.regs.Set(registers.P1, v)
	s.Refresh()
}

// Refresh recomputes registers.P1 from the selected button groups,
// requesting a joypad interrupt if any input line went from high
// to low.
func (s *State) Refresh() {
	old := s.regs.Get(registers.P1)
	p1 := old&0x30 | 0xC0
	if p1&types.Bit4 == 0 {
		p1 |= s.Pressed & 0x0F
	}
	if p1&types.Bit5 == 0 {
		p1 |= s.Pressed >> 4
	}
	p1 ^= 0x0F
	s.regs.Set(registers.P1, p1)

	if old&^p1&0x0F != 0 {
		s.irq.Pulse(interrupts.JoypadFlag)
	}
}

// Reset releases every button.
func (s *State) Reset() {
	s.Pressed = 0
}

var _ types.Stater = (*State)(nil)

// Load implements the types.Stater interface.
func (s *State) Load(st *types.State) {
	s.Pressed = st.Read8("pad ")
}

// Save implements the types.Stater interface.
func (s *State) Save(st *types.State) {
	st.Write8("pad ", s.Pressed)
}
