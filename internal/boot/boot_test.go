package boot

import (
	"errors"
	"testing"
)

func TestLoad(t *testing.T) {
	for _, size := range []int{0, 0xFF, 0x200, 0x901} {
		if _, err := Load(make([]byte, size)); !errors.Is(err, ErrSize) {
			t.Errorf("expected ErrSize for %d bytes, got %v", size, err)
		}
	}

	dmg, err := Load(make([]byte, DMGSize))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dmg.CGB() {
		t.Errorf("expected a DMG boot ROM")
	}
	if dmg.Model() != "unknown" {
		t.Errorf("expected unknown model, got %s", dmg.Model())
	}
}

func TestROM_Mapped(t *testing.T) {
	dmg, _ := Load(make([]byte, DMGSize))
	cgb, _ := Load(make([]byte, CGBSize))

	tests := []struct {
		address  uint16
		dmg, cgb bool
	}{
		{0x0000, true, true},
		{0x00FF, true, true},
		{0x0100, false, false},
		{0x01FF, false, false},
		{0x0200, false, true},
		{0x08FF, false, true},
		{0x0900, false, false},
	}
	for _, tt := range tests {
		if got := dmg.Mapped(tt.address); got != tt.dmg {
			t.Errorf("DMG %04X: expected %v, got %v", tt.address, tt.dmg, got)
		}
		if got := cgb.Mapped(tt.address); got != tt.cgb {
			t.Errorf("CGB %04X: expected %v, got %v", tt.address, tt.cgb, got)
		}
	}
}
