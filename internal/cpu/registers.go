package cpu

// Flags held in the upper nibble of the F register.
const (
	FlagZero      uint8 = 0x80
	FlagSubtract  uint8 = 0x40
	FlagHalfCarry uint8 = 0x20
	FlagCarry     uint8 = 0x10
)

// Registers is the register file of the CPU. The 8-bit registers are
// stored individually, the pairs are composed on access.
type Registers struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8

	// SP is the stack pointer.
	SP uint16
	// PC is the program counter.
	PC uint16
}

func (r *Registers) AF() uint16 { return uint16(r.A)<<8 | uint16(r.F) }
func (r *Registers) BC() uint16 { return uint16(r.B)<<8 | uint16(r.C) }
func (r *Registers) DE() uint16 { return uint16(r.D)<<8 | uint16(r.E) }
func (r *Registers) HL() uint16 { return uint16(r.H)<<8 | uint16(r.L) }

// SetAF sets the AF pair. The low nibble of F always reads zero.
func (r *Registers) SetAF(v uint16) { r.A, r.F = uint8(v>>8), uint8(v)&0xF0 }
func (r *Registers) SetBC(v uint16) { r.B, r.C = uint8(v>>8), uint8(v) }
func (r *Registers) SetDE(v uint16) { r.D, r.E = uint8(v>>8), uint8(v) }
func (r *Registers) SetHL(v uint16) { r.H, r.L = uint8(v>>8), uint8(v) }

// Flag reports whether the given flag is set.
func (r *Registers) Flag(f uint8) bool {
	return r.F&f != 0
}

// pair returns the pair selected by bits 4-5 of an opcode, where
// index 3 is SP, or AF when af is set.
func (r *Registers) pair(index uint8, af bool) uint16 {
	switch index & 3 {
	case 0:
		return r.BC()
	case 1:
		return r.DE()
	case 2:
		return r.HL()
	}
	if af {
		return r.AF()
	}
	return r.SP
}

func (r *Registers) setPair(index uint8, af bool, v uint16) {
	switch index & 3 {
	case 0:
		r.SetBC(v)
	case 1:
		r.SetDE(v)
	case 2:
		r.SetHL(v)
	default:
		if af {
			r.SetAF(v)
		} else {
			r.SP = v
		}
	}
}
