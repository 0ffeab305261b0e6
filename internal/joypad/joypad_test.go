package joypad

import (
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

func newTestJoypad() (*State, *registers.File) {
	regs := &registers.File{}
	regs.Set(registers.P1, 0xFF)
	return New(regs, interrupts.NewService(regs)), regs
}

func TestState_Select(t *testing.T) {
	tests := []struct {
		name    string
		sel     uint8
		pressed Button
		want    uint8
	}{
		{"none selected", 0x30, ButtonA | ButtonRight, 0xFF},
		{"directions", 0x20, ButtonRight | ButtonUp, 0xEA},
		{"buttons", 0x10, ButtonA | ButtonStart, 0xD6},
		{"both", 0x00, ButtonLeft | ButtonB, 0xCD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, regs := newTestJoypad()
			s.Write(tt.sel)
			s.Set(tt.pressed)
			if got := regs.Get(registers.P1); got != tt.want {
				t.Errorf("expected P1 0x%02X, got 0x%02X", tt.want, got)
			}
		})
	}
}

func TestState_Interrupt(t *testing.T) {
	s, regs := newTestJoypad()
	s.Write(0x20)
	s.Set(ButtonDown)
	if !regs.Test(registers.IF, interrupts.JoypadFlag) {
		t.Fatalf("expected joypad interrupt on press")
	}

	regs.ClearBits(registers.IF, interrupts.JoypadFlag)
	s.Set(0)
	if regs.Test(registers.IF, interrupts.JoypadFlag) {
		t.Errorf("expected no joypad interrupt on release")
	}

	// pressing a button of the unselected group changes nothing
	s.Set(ButtonStart)
	if regs.Test(registers.IF, interrupts.JoypadFlag) {
		t.Errorf("expected no joypad interrupt for an unselected group")
	}
}
