package cpu

import (
	"fmt"
	"strings"
)

// Reader reads a byte from memory.
type Reader interface {
	Read(address uint16) uint8
}

// mnemonics holds the assembly pattern of every opcode. In a
// pattern, %b is replaced by an immediate byte, %w by an immediate
// word and %o by a signed offset.
var mnemonics = [256]string{
	"NOP", "LD BC,%w", "LD (BC),A", "INC BC", "INC B", "DEC B", "LD B,%b", "RLCA",
	"LD (%w),SP", "ADD HL,BC", "LD A,(BC)", "DEC BC", "INC C", "DEC C", "LD C,%b", "RRCA",
	"STOP", "LD DE,%w", "LD (DE),A", "INC DE", "INC D", "DEC D", "LD D,%b", "RLA",
	"JR %o", "ADD HL,DE", "LD A,(DE)", "DEC DE", "INC E", "DEC E", "LD E,%b", "RRA",
	"JR NZ,%o", "LD HL,%w", "LDI (HL),A", "INC HL", "INC H", "DEC H", "LD H,%b", "DAA",
	"JR Z,%o", "ADD HL,HL", "LDI A,(HL)", "DEC HL", "INC L", "DEC L", "LD L,%b", "CPL",
	"JR NC,%o", "LD SP,%w", "LDD (HL),A", "INC SP", "INC (HL)", "DEC (HL)", "LD (HL),%b", "SCF",
	"JR C,%o", "ADD HL,SP", "LDD A,(HL)", "DEC SP", "INC A", "DEC A", "LD A,%b", "CCF",
	0x76: "HALT",
	0xC0: "RET NZ", "POP BC", "JP NZ,%w", "JP %w", "CALL NZ,%w", "PUSH BC", "ADD A,%b", "RST 00h",
	"RET Z", "RET", "JP Z,%w", "", "CALL Z,%w", "CALL %w", "ADC A,%b", "RST 08h",
	"RET NC", "POP DE", "JP NC,%w", "", "CALL NC,%w", "PUSH DE", "SUB %b", "RST 10h",
	"RET C", "RETI", "JP C,%w", "", "CALL C,%w", "", "SBC A,%b", "RST 18h",
	"LD (FF%b),A", "POP HL", "LD (FF00h+C),A", "", "", "PUSH HL", "AND %b", "RST 20h",
	"ADD SP,%o", "JP HL", "LD (%w),A", "", "", "", "XOR %b", "RST 28h",
	"LD A,(FF%b)", "POP AF", "LD A,(FF00h+C)", "DI", "", "PUSH AF", "OR %b", "RST 30h",
	"LD HL,SP%o", "LD SP,HL", "LD A,(%w)", "EI", "", "", "CP %b", "RST 38h",
}

var (
	registerNames = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	aluNames      = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	rotateNames   = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}
)

func init() {
	for op := 0x40; op < 0xC0; op++ {
		if op == 0x76 {
			continue
		}
		if op < 0x80 {
			mnemonics[op] = "LD " + registerNames[op>>3&7] + "," + registerNames[op&7]
		} else {
			mnemonics[op] = aluNames[op>>3&7] + registerNames[op&7]
		}
	}
}

// cbMnemonic returns the assembly of a CB prefixed opcode.
func cbMnemonic(op uint8) string {
	r := registerNames[op&7]
	switch op >> 6 {
	case 0:
		return rotateNames[op>>3&7] + " " + r
	case 1:
		return fmt.Sprintf("BIT %d,%s", op>>3&7, r)
	case 2:
		return fmt.Sprintf("RES %d,%s", op>>3&7, r)
	}
	return fmt.Sprintf("SET %d,%s", op>>3&7, r)
}

// Disassemble returns the assembly of the instruction at address.
func Disassemble(mem Reader, address uint16) string {
	s, _ := disassemble(mem, address)
	return s
}

// DisassembleN returns a listing of n instructions starting at
// address, one per line, prefixed with their address and encoding.
func DisassembleN(mem Reader, address uint16, n int) []string {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, size := disassemble(mem, address)
		raw := make([]string, size)
		for j := range raw {
			raw[j] = fmt.Sprintf("%02X", mem.Read(address+uint16(j)))
		}
		lines = append(lines, fmt.Sprintf("%04X: %-9s %s", address, strings.Join(raw, " "), s))
		address += uint16(size)
	}
	return lines
}

// disassemble returns the assembly of the instruction at address and
// its length in bytes.
func disassemble(mem Reader, address uint16) (string, int) {
	op := mem.Read(address)
	if op == 0xCB {
		return cbMnemonic(mem.Read(address + 1)), 2
	}
	if undefined(op) {
		return fmt.Sprintf("DB %02Xh", op), 1
	}

	pattern := mnemonics[op]
	var b strings.Builder
	size := 1
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' || i+1 == len(pattern) {
			b.WriteByte(pattern[i])
			continue
		}
		i++
		switch pattern[i] {
		case 'b':
			fmt.Fprintf(&b, "%02Xh", mem.Read(address+uint16(size)))
			size++
		case 'w':
			lo, hi := mem.Read(address+uint16(size)), mem.Read(address+uint16(size)+1)
			fmt.Fprintf(&b, "%04Xh", uint16(hi)<<8|uint16(lo))
			size += 2
		case 'o':
			fmt.Fprintf(&b, "%+d", int8(mem.Read(address+uint16(size))))
			size++
		}
	}
	return b.String(), size
}
