package cpu

// zero returns FlagZero if v is zero.
func zero(v uint8) uint8 {
	if v == 0 {
		return FlagZero
	}
	return 0
}

// alu performs the arithmetic or logic operation selected by bits 3-5
// of an opcode on the A register and n.
//
//	000 ADD  001 ADC  010 SUB  011 SBC
//	100 AND  101 XOR  110 OR   111 CP
func (c *CPU) alu(op, n uint8) {
	switch op >> 3 & 7 {
	case 0:
		c.add(n, 0)
	case 1:
		c.add(n, c.F>>4&1)
	case 2:
		c.A = c.sub(n, 0)
	case 3:
		c.A = c.sub(n, c.F>>4&1)
	case 4: // AND
		c.A &= n
		c.F = zero(c.A) | FlagHalfCarry
	case 5: // XOR
		c.A ^= n
		c.F = zero(c.A)
	case 6: // OR
		c.A |= n
		c.F = zero(c.A)
	case 7: // CP
		c.sub(n, 0)
	}
}

// add adds n and the carry to A.
//
// Flags affected:
//
//	Z - Set if result is zero.
//	N - Reset.
//	H - Set if carry from bit 3.
//	C - Set if carry from bit 7.
func (c *CPU) add(n, carry uint8) {
	acc := uint16(c.A) + uint16(n) + uint16(carry)
	lo := uint8(acc)
	c.F = zero(lo) | (c.A^n^lo)<<1&FlagHalfCarry | uint8(acc>>8)<<4
	c.A = lo
}

// sub returns A minus n and the carry, setting the flags for SUB,
// SBC and CP.
//
// Flags affected:
//
//	Z - Set if result is zero.
//	N - Set.
//	H - Set if borrow from bit 4.
//	C - Set if borrow.
func (c *CPU) sub(n, carry uint8) uint8 {
	acc := uint16(c.A) - uint16(n) - uint16(carry)
	lo := uint8(acc)
	c.F = FlagSubtract | zero(lo) | (c.A^n^lo)<<1&FlagHalfCarry
	if acc > 0xFF {
		c.F |= FlagCarry
	}
	return lo
}

// inc returns r + 1, preserving the carry flag.
func (c *CPU) inc(r uint8) uint8 {
	r++
	c.F = c.F&FlagCarry | zero(r)
	if r&0xF == 0 {
		c.F |= FlagHalfCarry
	}
	return r
}

// dec returns r - 1, preserving the carry flag.
func (c *CPU) dec(r uint8) uint8 {
	r--
	c.F = c.F&FlagCarry | FlagSubtract | zero(r)
	if r&0xF == 0xF {
		c.F |= FlagHalfCarry
	}
	return r
}

// addHL adds n to HL. The zero flag is preserved.
func (c *CPU) addHL(n uint16) {
	hl := c.HL()
	c.F &= FlagZero
	if 0xFFFF-n < hl {
		c.F |= FlagCarry
	}
	if hl&0xFFF+n&0xFFF > 0xFFF {
		c.F |= FlagHalfCarry
	}
	c.SetHL(hl + n)
}

// addSP returns SP plus the signed offset b, as computed by
// ADD SP, e and LD HL, SP+e. The carries come from the unsigned
// addition of the low byte of SP and b.
func (c *CPU) addSP(b uint8) uint16 {
	v := c.SP + uint16(int8(b))
	c.F = 0
	if (c.SP^uint16(b)^v)&0x10 != 0 {
		c.F |= FlagHalfCarry
	}
	if c.SP&0xFF+uint16(b) > 0xFF {
		c.F |= FlagCarry
	}
	return v
}

// daa adjusts A to a valid BCD value after an addition or
// subtraction.
func (c *CPU) daa() {
	a := uint16(c.A)
	if c.F&FlagSubtract != 0 {
		if c.F&FlagHalfCarry != 0 {
			a = (a - 6) & 0xFF
		}
		if c.F&FlagCarry != 0 {
			a -= 0x60
		}
	} else {
		if c.F&FlagHalfCarry != 0 || a&0xF > 9 {
			a += 6
		}
		if c.F&FlagCarry != 0 || a > 0x9F {
			a += 0x60
		}
	}
	c.A = uint8(a)
	c.F &^= FlagHalfCarry | FlagZero
	if a&0x100 != 0 {
		c.F |= FlagCarry
	}
	c.F |= zero(uint8(a))
}

// rotate performs one of the rotate and shift operations selected by
// bits 3-5 of a CB opcode and returns the result.
//
//	000 RLC  001 RRC  010 RL   011 RR
//	100 SLA  101 SRA  110 SWAP 111 SRL
//
// The carry flag receives the bit shifted out; SWAP clears it.
func (c *CPU) rotate(op, v uint8) uint8 {
	var r, carry uint8
	switch op >> 3 & 7 {
	case 0: // RLC
		r, carry = v<<1|v>>7, v>>7
	case 1: // RRC
		r, carry = v>>1|v<<7, v&1
	case 2: // RL
		r, carry = v<<1|c.F>>4&1, v>>7
	case 3: // RR
		r, carry = v>>1|c.F<<3&0x80, v&1
	case 4: // SLA
		r, carry = v<<1, v>>7
	case 5: // SRA
		r, carry = v&0x80|v>>1, v&1
	case 6: // SWAP
		r = v<<4 | v>>4
	case 7: // SRL
		r, carry = v>>1, v&1
	}
	c.F = zero(r) | carry<<4
	return r
}
