package cpu

// reg returns the register selected by the low 3 bits of index,
// where 6 is the byte at (HL).
//
//	000 B  001 C  010 D  011 E  100 H  101 L  110 (HL)  111 A
func (c *CPU) reg(index uint8) uint8 {
	switch index & 7 {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.bus.Read(c.HL())
	}
	return c.A
}

func (c *CPU) setReg(index, v uint8) {
	switch index & 7 {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.bus.Write(c.HL(), v)
	default:
		c.A = v
	}
}

// condition evaluates the branch condition in bits 3-4 of op.
//
//	00 NZ  01 Z  10 NC  11 C
func (c *CPU) condition(op uint8) bool {
	var f bool
	if op>>4&1 == 0 {
		f = c.Flag(FlagZero)
	} else {
		f = c.Flag(FlagCarry)
	}
	if op>>3&1 == 0 {
		f = !f
	}
	return f
}

// execute runs a single opcode and returns the machine cycles it
// took.
func (c *CPU) execute(op uint8) int {
	cycles := int(opCycles[op])

	switch op { // instructions that don't decode neatly
	case 0x00: // NOP
	case 0x08: // LD (a16), SP
		c.write16(c.fetch16(), c.SP)
	case 0x10: // STOP
		c.PC++
		c.switchSpeed()
	case 0x18: // JR s8
		c.PC += 1 + uint16(int8(c.bus.Read(c.PC)))
	case 0x22: // LD (HL+), A
		c.bus.Write(c.HL(), c.A)
		c.SetHL(c.HL() + 1)
	case 0x2A: // LD A, (HL+)
		c.A = c.bus.Read(c.HL())
		c.SetHL(c.HL() + 1)
	case 0x32: // LD (HL-), A
		c.bus.Write(c.HL(), c.A)
		c.SetHL(c.HL() - 1)
	case 0x3A: // LD A, (HL-)
		c.A = c.bus.Read(c.HL())
		c.SetHL(c.HL() - 1)
	case 0x76: // HALT
		c.Halted = true
	case 0xC3: // JP a16
		c.PC = c.read16(c.PC)
	case 0xC9: // RET
		c.PC = c.pop()
	case 0xCB:
		return c.executeCB(c.fetch())
	case 0xCD: // CALL a16
		c.push(c.PC + 2)
		c.PC = c.read16(c.PC)
	case 0xD9: // RETI
		c.IME, c.IMA = true, true
		c.PC = c.pop()
	case 0xE0: // LDH (a8), A
		c.bus.Write(0xFF00+uint16(c.fetch()), c.A)
	case 0xE2: // LD (C), A
		c.bus.Write(0xFF00+uint16(c.C), c.A)
	case 0xE8: // ADD SP, s8
		c.SP = c.addSP(c.fetch())
	case 0xE9: // JP HL
		c.PC = c.HL()
	case 0xEA: // LD (a16), A
		c.bus.Write(c.fetch16(), c.A)
	case 0xF0: // LDH A, (a8)
		c.A = c.bus.Read(0xFF00 + uint16(c.fetch()))
	case 0xF2: // LD A, (C)
		c.A = c.bus.Read(0xFF00 + uint16(c.C))
	case 0xF3: // DI
		c.IME, c.IMA = false, false
	case 0xF8: // LD HL, SP+s8
		c.SetHL(c.addSP(c.fetch()))
	case 0xF9: // LD SP, HL
		c.SP = c.HL()
	case 0xFA: // LD A, (a16)
		c.A = c.bus.Read(c.fetch16())
	case 0xFB: // EI
		c.IMA = true
	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		c.log.Errorf("cpu: invalid opcode 0x%02X at address 0x%04X", op, c.PC-1)
	default:
		switch op >> 6 & 3 {
		case 0: // 0x00 - 0x3F
			switch op & 7 {
			case 0: // JR cc, s8
				if c.condition(op) {
					c.PC += 1 + uint16(int8(c.bus.Read(c.PC)))
				} else {
					c.PC++
					cycles--
				}
			case 1:
				if op>>3&1 == 1 { // ADD HL, rr
					c.addHL(c.pair(op>>4, false))
				} else { // LD rr, d16
					c.setPair(op>>4, false, c.fetch16())
				}
			case 2: // LD (BC/DE), A and LD A, (BC/DE)
				addr := c.BC()
				if op>>4&1 == 1 {
					addr = c.DE()
				}
				if op>>3&1 == 1 {
					c.A = c.bus.Read(addr)
				} else {
					c.bus.Write(addr, c.A)
				}
			case 3: // INC/DEC rr
				v := c.pair(op>>4, false)
				if op>>3&1 == 1 {
					v--
				} else {
					v++
				}
				c.setPair(op>>4, false, v)
			case 4: // INC r
				c.setReg(op>>3, c.inc(c.reg(op>>3)))
			case 5: // DEC r
				c.setReg(op>>3, c.dec(c.reg(op>>3)))
			case 6: // LD r, d8
				c.setReg(op>>3, c.fetch())
			case 7:
				switch op >> 3 & 7 {
				case 0: // RLCA
					c.A = c.A<<1 | c.A>>7
					c.F = c.A & 1 << 4
				case 1: // RRCA
					c.F = c.A & 1 << 4
					c.A = c.A>>1 | c.A<<7
				case 2: // RLA
					carry := c.A >> 7
					c.A = c.A<<1 | c.F>>4&1
					c.F = carry << 4
				case 3: // RRA
					carry := c.A & 1
					c.A = c.A>>1 | c.F<<3&0x80
					c.F = carry << 4
				case 4: // DAA
					c.daa()
				case 5: // CPL
					c.A = ^c.A
					c.F |= FlagHalfCarry | FlagSubtract
				case 6: // SCF
					c.F = c.F&FlagZero | FlagCarry
				case 7: // CCF
					c.F = c.F&(FlagZero|FlagCarry) ^ FlagCarry
				}
			}
		case 1: // 0x40 - 0x7F, LD r, r
			c.setReg(op>>3, c.reg(op))
		case 2: // 0x80 - 0xBF
			c.alu(op, c.reg(op))
		case 3: // 0xC0 - 0xFF
			switch op & 7 {
			case 0: // RET cc
				if c.condition(op) {
					c.PC = c.pop()
				} else {
					cycles -= 3
				}
			case 1: // POP rr
				c.setPair(op>>4, true, c.pop())
			case 2: // JP cc, a16
				if c.condition(op) {
					c.PC = c.read16(c.PC)
				} else {
					c.PC += 2
					cycles--
				}
			case 4: // CALL cc, a16
				if c.condition(op) {
					c.push(c.PC + 2)
					c.PC = c.read16(c.PC)
				} else {
					c.PC += 2
					cycles -= 3
				}
			case 5: // PUSH rr
				c.push(c.pair(op>>4, true))
			case 6: // ALU d8
				c.alu(op, c.fetch())
			case 7: // RST
				c.push(c.PC)
				c.PC = uint16(op & 0x38)
			}
		}
	}

	return cycles
}

// executeCB runs a CB prefixed opcode.
//
//	00 000 000
//	^^ ^^^ ^^^
//	op bit reg
func (c *CPU) executeCB(op uint8) int {
	v := c.reg(op)
	bit := uint8(1) << (op >> 3 & 7)

	switch op >> 6 {
	case 0:
		v = c.rotate(op, v)
	case 1: // BIT
		c.F = c.F&FlagCarry | FlagHalfCarry | zero(v&bit)
		return cbCycles(op)
	case 2: // RES
		v &^= bit
	case 3: // SET
		v |= bit
	}
	c.setReg(op, v)

	return cbCycles(op)
}
