package timer

import (
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

func newTestController() (*Controller, *registers.File) {
	regs := &registers.File{}
	return NewController(regs, interrupts.NewService(regs)), regs
}

func TestController_DIV(t *testing.T) {
	c, regs := newTestController()
	// DIV increments every 64 CPU cycles
	c.Step(63)
	if regs.Get(registers.DIV) != 0 {
		t.Errorf("expected DIV 0, got %d", regs.Get(registers.DIV))
	}
	c.Step(1)
	if regs.Get(registers.DIV) != 1 {
		t.Errorf("expected DIV 1, got %d", regs.Get(registers.DIV))
	}
	c.Step(64 * 255)
	if regs.Get(registers.DIV) != 0 {
		t.Errorf("expected DIV to wrap to 0, got %d", regs.Get(registers.DIV))
	}
}

func TestController_TIMA(t *testing.T) {
	tests := []struct {
		tac    uint8
		cycles int // CPU cycles per TIMA increment
	}{
		{0x04, 256},
		{0x05, 4},
		{0x06, 16},
		{0x07, 64},
	}
	for _, tt := range tests {
		c, regs := newTestController()
		regs.Set(registers.TAC, tt.tac)
		c.Step(tt.cycles * 10)
		if got := regs.Get(registers.TIMA); got != 10 {
			t.Errorf("TAC 0x%02X: expected TIMA 10, got %d", tt.tac, got)
		}
	}

	t.Run("disabled", func(t *testing.T) {
		c, regs := newTestController()
		regs.Set(registers.TAC, 0x01)
		c.Step(1000)
		if regs.Get(registers.TIMA) != 0 {
			t.Errorf("expected TIMA to stay 0, got %d", regs.Get(registers.TIMA))
		}
	})
	t.Run("overflow", func(t *testing.T) {
		c, regs := newTestController()
		regs.Set(registers.TAC, 0x05)
		regs.Set(registers.TIMA, 0xFF)
		regs.Set(registers.TMA, 0xAB)
		c.Step(4)
		if regs.Get(registers.TIMA) != 0xAB {
			t.Errorf("expected TIMA reload 0xAB, got 0x%02X", regs.Get(registers.TIMA))
		}
		if !regs.Test(registers.IF, interrupts.TimerFlag) {
			t.Errorf("expected timer interrupt to be requested")
		}
	})
}
