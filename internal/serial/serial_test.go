package serial

import (
	"bytes"
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/interrupts"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

func TestController_Transfer(t *testing.T) {
	regs := &registers.File{}
	c := NewController(regs, interrupts.NewService(regs))
	var out bytes.Buffer
	c.Attach(NewWriterDevice(&out))

	regs.Set(registers.SB, 'P')
	c.WriteControl(0x81)

	// 1952 double speed cycles = 976 CPU cycles
	c.Step(975)
	if regs.Test(registers.IF, interrupts.SerialFlag) {
		t.Fatalf("expected transfer to still be pending")
	}
	c.Step(1)
	if !regs.Test(registers.IF, interrupts.SerialFlag) {
		t.Errorf("expected serial interrupt to be requested")
	}
	if regs.Get(registers.SB) != 0xFF {
		t.Errorf("expected SB 0xFF, got 0x%02X", regs.Get(registers.SB))
	}
	if regs.Get(registers.SC) != 0x01 {
		t.Errorf("expected SC 0x01, got 0x%02X", regs.Get(registers.SC))
	}
	if out.String() != "P" {
		t.Errorf("expected device to receive %q, got %q", "P", out.String())
	}
}

func TestController_ExternalClock(t *testing.T) {
	regs := &registers.File{}
	c := NewController(regs, interrupts.NewService(regs))
	c.WriteControl(0x80)
	c.Step(10000)
	if regs.Test(registers.IF, interrupts.SerialFlag) {
		t.Errorf("expected no transfer without the internal clock")
	}
}
