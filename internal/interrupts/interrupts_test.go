package interrupts

import (
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/internal/types/registers"
)

type testWaker struct{ woken int }

func (w *testWaker) Wake() { w.woken++ }

func newTestService() (*Service, *registers.File, *testWaker) {
	regs := &registers.File{}
	s := NewService(regs)
	w := &testWaker{}
	s.AttachWaker(w)
	return s, regs, w
}

func TestService_Raise(t *testing.T) {
	t.Run("fires once while held", func(t *testing.T) {
		s, regs, _ := newTestService()
		s.Raise(LCDFlag)
		regs.Set(registers.IF, 0)
		s.Raise(LCDFlag)
		if regs.Get(registers.IF) != 0 {
			t.Errorf("expected held line not to refire, got IF 0x%02X", regs.Get(registers.IF))
		}
		s.Lower(LCDFlag)
		s.Raise(LCDFlag)
		if regs.Get(registers.IF) != LCDFlag {
			t.Errorf("expected line to refire after lowering, got IF 0x%02X", regs.Get(registers.IF))
		}
	})
	t.Run("lower keeps request", func(t *testing.T) {
		s, regs, _ := newTestService()
		s.Pulse(TimerFlag)
		if regs.Get(registers.IF) != TimerFlag {
			t.Errorf("expected IF 0x%02X, got 0x%02X", TimerFlag, regs.Get(registers.IF))
		}
		if s.IsHigh(TimerFlag) {
			t.Errorf("expected pulsed line to be low")
		}
	})
	t.Run("wakes only when enabled", func(t *testing.T) {
		s, regs, w := newTestService()
		s.Raise(VBlankFlag)
		if w.woken != 0 {
			t.Errorf("expected no wake for a disabled interrupt")
		}
		regs.Set(registers.IE, SerialFlag)
		s.Pulse(SerialFlag)
		if w.woken != 1 {
			t.Errorf("expected 1 wake, got %d", w.woken)
		}
	})
}

func TestService_Next(t *testing.T) {
	s, regs, _ := newTestService()
	regs.Set(registers.IE, Mask)
	regs.Set(registers.IF, JoypadFlag|TimerFlag|LCDFlag)

	for _, want := range []struct {
		flag   uint8
		vector uint16
	}{{LCDFlag, 0x48}, {TimerFlag, 0x50}, {JoypadFlag, 0x60}, {0, 0}} {
		flag, vector := s.Next()
		if flag != want.flag || vector != want.vector {
			t.Errorf("expected flag 0x%02X vector 0x%04X, got 0x%02X 0x%04X", want.flag, want.vector, flag, vector)
		}
		s.Acknowledge(flag)
	}
}

func TestService_State(t *testing.T) {
	s, _, _ := newTestService()
	s.Raise(VBlankFlag | LCDFlag)

	st := types.NewState()
	s.Save(st)

	loaded, _, _ := newTestService()
	restored, err := types.StateFromBytes(st.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	loaded.Load(restored)
	if !loaded.IsHigh(VBlankFlag) || !loaded.IsHigh(LCDFlag) {
		t.Errorf("expected lines to be restored")
	}
}
