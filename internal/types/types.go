package types

const (
	Bit0 = 1 << iota // 0b0000_0001
	Bit1             // 0b0000_0010
	Bit2             // 0b0000_0100
	Bit3             // 0b0000_1000
	Bit4             // 0b0001_0000
	Bit5             // 0b0010_0000
	Bit6             // 0b0100_0000
	Bit7             // 0b1000_0000
)

// HardwareType is the console being emulated, as selected from the
// cartridge header.
type HardwareType int

const (
	DMG HardwareType = iota // DMG - original Game Boy
	CGB                     // CGB - Game Boy Color
	SGB                     // SGB - Super Game Boy (emulated as DMG)
)

var hardwareNames = map[HardwareType]string{
	DMG: "DMG",
	CGB: "CGB",
	SGB: "SGB",
}

func (h HardwareType) String() string {
	if n, ok := hardwareNames[h]; ok {
		return n
	}
	return "???"
}

// Resettable is an interface that allows an object to be reset.
type Resettable interface {
	Reset(hard bool)
}
