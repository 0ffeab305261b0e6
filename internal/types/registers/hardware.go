package registers

// Index is the offset of a hardware register inside the I/O page,
// i.e. the low byte of its address (0xFF00 + Index).
type Index = uint8

const (
	// P1 selects which half of the joypad is read through the low
	// nibble. Bits 4 and 5 select the d-pad and buttons respectively
	// (0=select), bits 0-3 read the selected keys (0=pressed).
	P1 Index = 0x00
	// SB holds the byte being shifted out of (and into) the serial port.
	SB Index = 0x01
	// SC controls the serial port. Bit 7 starts a transfer, bit 0
	// selects the internal clock.
	SC Index = 0x02
	// DIV is the upper byte of the free running divider. Any write
	// resets it to 0.
	DIV Index = 0x04
	// TIMA is incremented at the rate selected by TAC and reloaded
	// from TMA when it overflows, which requests a timer interrupt.
	TIMA Index = 0x05
	// TMA is the value loaded into TIMA on overflow.
	TMA Index = 0x06
	// TAC controls the timer.
	//
	//  Bit 2:   Timer Enable
	//  Bit 1-0: Input Clock Select (00=4096Hz, 01=262144Hz, 10=65536Hz, 11=16384Hz)
	TAC Index = 0x07
	// IF holds the pending interrupt requests.
	//
	//  Bit 0: V-Blank Interrupt Request (INT 40h)  (1=Request)
	//  Bit 1: LCD STAT Interrupt Request (INT 48h) (1=Request)
	//  Bit 2: Timer Interrupt Request (INT 50h)    (1=Request)
	//  Bit 3: Serial Interrupt Request (INT 58h)   (1=Request)
	//  Bit 4: Joypad Interrupt Request (INT 60h)   (1=Request)
	IF Index = 0x0F

	NR10 Index = 0x10 // channel 1 sweep
	NR11 Index = 0x11 // channel 1 duty and length
	NR12 Index = 0x12 // channel 1 envelope
	NR13 Index = 0x13 // channel 1 frequency low
	NR14 Index = 0x14 // channel 1 frequency high and control
	NR21 Index = 0x16 // channel 2 duty and length
	NR22 Index = 0x17 // channel 2 envelope
	NR23 Index = 0x18 // channel 2 frequency low
	NR24 Index = 0x19 // channel 2 frequency high and control
	NR30 Index = 0x1A // channel 3 DAC enable
	NR31 Index = 0x1B // channel 3 length
	NR32 Index = 0x1C // channel 3 output level
	NR33 Index = 0x1D // channel 3 frequency low
	NR34 Index = 0x1E // channel 3 frequency high and control
	NR41 Index = 0x20 // channel 4 length
	NR42 Index = 0x21 // channel 4 envelope
	NR43 Index = 0x22 // channel 4 polynomial counter
	NR44 Index = 0x23 // channel 4 control
	NR50 Index = 0x24 // master volume
	NR51 Index = 0x25 // channel panning
	NR52 Index = 0x26 // sound on/off and channel status

	// WaveRAM is the first of the 16 bytes of channel 3 samples.
	WaveRAM Index = 0x30

	// LCDC controls the LCD.
	//
	//  Bit 7: LCD Enable                        (0=Off, 1=On)
	//  Bit 6: Window Tile Map Display Select    (0=9800-9BFF, 1=9C00-9FFF)
	//  Bit 5: Window Display Enable             (0=Off, 1=On)
	//  Bit 4: BG & Window Tile Data Select      (0=8800-97FF, 1=8000-8FFF)
	//  Bit 3: BG Tile Map Display Select        (0=9800-9BFF, 1=9C00-9FFF)
	//  Bit 2: OBJ (Sprite) Size                 (0=8x8, 1=8x16)
	//  Bit 1: OBJ (Sprite) Display Enable       (0=Off, 1=On)
	//  Bit 0: BG Display                        (0=Off, 1=On)
	LCDC Index = 0x40
	// STAT holds the LCD mode (bits 0-1), the LY=LYC coincidence flag
	// (bit 2) and the interrupt sources (bits 3-6).
	STAT Index = 0x41
	SCY  Index = 0x42
	SCX  Index = 0x43
	// LY is the scanline currently being processed, 0-153.
	LY  Index = 0x44
	LYC Index = 0x45
	// DMA starts a transfer of 160 bytes from XX00 to OAM.
	DMA  Index = 0x46
	BGP  Index = 0x47
	OBP0 Index = 0x48
	OBP1 Index = 0x49
	WY   Index = 0x4A
	WX   Index = 0x4B
	// KEY1 prepares a speed switch (bit 0) and reports the current
	// speed (bit 7). CGB only.
	KEY1 Index = 0x4D
	// VBK selects the VRAM bank (bit 0). CGB only.
	VBK Index = 0x4F
	// BIOS disables the boot ROM overlay once bit 0 is set.
	BIOS  Index = 0x50
	HDMA1 Index = 0x51
	HDMA2 Index = 0x52
	HDMA3 Index = 0x53
	HDMA4 Index = 0x54
	// HDMA5 starts a general purpose or h-blank DMA transfer. CGB only.
	HDMA5 Index = 0x55
	RP    Index = 0x56
	BCPS  Index = 0x68
	BCPD  Index = 0x69
	OCPS  Index = 0x6A
	OCPD  Index = 0x6B
	// SVBK selects the WRAM bank mapped at D000-DFFF (bits 0-2). CGB only.
	SVBK Index = 0x70
	// IE enables interrupts, with the same layout as IF.
	IE Index = 0xFF
)

// File is the I/O register page (FF00-FF7F), high RAM (FF80-FFFE)
// and the interrupt enable register (FFFF). Components share a
// pointer to the same File, and write side effects are applied by
// the memory map before the value is stored.
type File struct {
	regs [256]uint8
}

// Get returns the raw value of the register.
func (f *File) Get(r Index) uint8 {
	return f.regs[r]
}

// Set stores v without side effects.
func (f *File) Set(r Index, v uint8) {
	f.regs[r] = v
}

// SetMasked replaces the bits of the register selected by mask
// with those of v.
func (f *File) SetMasked(r Index, mask, v uint8) {
	f.regs[r] = f.regs[r]&^mask | v&mask
}

// SetBits sets the bits in mask.
func (f *File) SetBits(r Index, mask uint8) {
	f.regs[r] |= mask
}

// ClearBits clears the bits in mask.
func (f *File) ClearBits(r Index, mask uint8) {
	f.regs[r] &^= mask
}

// Test reports whether any bit in mask is set.
func (f *File) Test(r Index, mask uint8) bool {
	return f.regs[r]&mask != 0
}

// Increment adds n to the register, wrapping at 8 bits.
func (f *File) Increment(r Index, n uint8) {
	f.regs[r] += n
}

// Clear zeroes the whole page.
func (f *File) Clear() {
	f.regs = [256]uint8{}
}

// Bytes exposes the page for raw save state copies.
func (f *File) Bytes() []byte {
	return f.regs[:]
}
