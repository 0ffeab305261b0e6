package cartridge

import (
	"bytes"
	"fmt"

	"github.com/thelolagemann/gnuboy-go/internal/types"
)

// HeaderSize is the number of bytes read from the start of the
// ROM to parse the header.
const HeaderSize = 0x200

// Flag is the CGB compatibility byte of the header.
type Flag uint8

const (
	FlagOnlyDMG Flag = iota
	FlagSupportsCGB
	FlagOnlyCGB
)

// Type is the cartridge type byte (0x0147) of the header.
type Type uint8

const (
	TypeROM               Type = 0x00
	TypeMBC1              Type = 0x01
	TypeMBC1RAM           Type = 0x02
	TypeMBC1RAMBATT       Type = 0x03
	TypeMBC2              Type = 0x05
	TypeMBC2BATT          Type = 0x06
	TypeROMRAM            Type = 0x08
	TypeROMRAMBATT        Type = 0x09
	TypeMMM01             Type = 0x0B
	TypeMMM01RAM          Type = 0x0C
	TypeMMM01RAMBATT      Type = 0x0D
	TypeMBC3TIMERBATT     Type = 0x0F
	TypeMBC3TIMERRAMBATT  Type = 0x10
	TypeMBC3              Type = 0x11
	TypeMBC3RAM           Type = 0x12
	TypeMBC3RAMBATT       Type = 0x13
	TypeMBC5              Type = 0x19
	TypeMBC5RAM           Type = 0x1A
	TypeMBC5RAMBATT       Type = 0x1B
	TypeMBC5RUMBLE        Type = 0x1C
	TypeMBC5RUMBLERAM     Type = 0x1D
	TypeMBC5RUMBLERAMBATT Type = 0x1E
	TypePOCKETCAMERA      Type = 0x1F
	TypeMBC6              Type = 0x20
	TypeMBC7              Type = 0x22
	TypeBANDAITAMA5       Type = 0xFD
	TypeHUDSONHUC3        Type = 0xFE
	TypeHUDSONHUC1        Type = 0xFF
)

// ramBanks maps the RAM size code (0x0149) to the number of 8 KiB
// banks. Every cartridge gets at least one bank.
var ramBanks = [...]int{1, 1, 1, 4, 16, 8}

// Header represents the header of a cartridge, located at the
// address space 0x0100-0x014F. The header contains information
// about the cartridge itself, and the hardware it expects to run on.
type Header struct {
	// 0x0134-0x0143 - Title of the game, up to the first NUL.
	Title string

	// 0x0143 - CartridgeGBMode of the game. In older cartridges this byte was part
	// of the title, but the Colour Game Boy and later models interpret this byte
	// to determine if the cartridge is compatible with the Colour Game Boy.
	CartridgeGBMode Flag
	SGBFlag         bool
	CartridgeType   Type

	// ROMBanks is the number of 16 KiB ROM banks, always a power of two.
	ROMBanks int
	// RAMBanks is the number of 8 KiB RAM banks.
	RAMBanks int

	// 0x014E-0x014F - GlobalChecksum, as stored (big endian).
	GlobalChecksum uint16

	// Hardware is the model the cartridge is run on.
	Hardware types.HardwareType
	// MBC is the bank controller selected by CartridgeType.
	MBC MBC

	Battery bool
	RTC     bool
	Rumble  bool
	Sensor  bool

	// Colorize is the palette id and flags (id | flags<<5) the CGB
	// boot ROM would pick for a monochrome title.
	Colorize uint8
}

// ParseHeader parses the first HeaderSize bytes of a ROM.
func ParseHeader(header []byte) (Header, error) {
	if len(header) < HeaderSize {
		return Header{}, fmt.Errorf("cartridge: header is %d bytes, expected %d", len(header), HeaderSize)
	}
	h := Header{}

	switch header[0x143] {
	case 0x80:
		h.CartridgeGBMode = FlagSupportsCGB
	case 0xC0:
		h.CartridgeGBMode = FlagOnlyCGB
	default:
		h.CartridgeGBMode = FlagOnlyDMG
	}
	h.SGBFlag = header[0x146] == 0x03

	switch {
	case h.CartridgeGBMode != FlagOnlyDMG:
		h.Hardware = types.CGB
	case h.SGBFlag:
		h.Hardware = types.SGB
	default:
		h.Hardware = types.DMG
	}

	title := header[0x134:0x144]
	if i := bytes.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	h.Title = string(title)

	h.CartridgeType = Type(header[0x147])
	h.MBC = mbcForType(h.CartridgeType)
	switch h.CartridgeType {
	case 3, 6, 9, 13, 15, 16, 19, 27, 30, 255:
		h.Battery = true
	}
	h.RTC = h.CartridgeType == 15 || h.CartridgeType == 16
	h.Rumble = h.CartridgeType >= 28 && h.CartridgeType <= 30
	h.Sensor = h.CartridgeType == 34

	romCode := header[0x148]
	switch {
	case romCode < 9:
		h.ROMBanks = 2 << romCode
	case romCode > 0x51 && romCode < 0x55:
		h.ROMBanks = 128
	default:
		return h, fmt.Errorf("%w: code 0x%02X", ErrROMSize, romCode)
	}

	if ramCode := header[0x149]; int(ramCode) < len(ramBanks) {
		h.RAMBanks = ramBanks[ramCode]
	} else {
		h.RAMBanks = 1
	}

	h.GlobalChecksum = uint16(header[0x14E])<<8 | uint16(header[0x14F])

	if h.Hardware != types.CGB {
		h.Colorize = colorizeID(header)
	}

	return h, nil
}

// mbcForType returns the bank controller used by a cartridge type.
func mbcForType(t Type) MBC {
	switch {
	case t >= 1 && t <= 3:
		return MBC1
	case t >= 5 && t <= 6:
		return MBC2
	case t >= 11 && t <= 13:
		return MMM01
	case t >= 15 && t <= 19:
		return MBC3
	case t >= 25 && t <= 30:
		return MBC5
	case t == TypeMBC6:
		return MBC6
	case t == TypeMBC7:
		return MBC7
	case t == TypeHUDSONHUC3:
		return HuC3
	case t == TypeHUDSONHUC1:
		return HuC1
	}
	return MBCNone
}

// GameboyColor reports whether the cartridge runs in CGB mode.
func (h *Header) GameboyColor() bool {
	return h.Hardware == types.CGB
}

// ROMSize returns the size of the ROM in bytes.
func (h *Header) ROMSize() int { return h.ROMBanks * BankSize }

// RAMSize returns the size of the external RAM in bytes.
func (h *Header) RAMSize() int { return h.RAMBanks * RAMBankSize }

func (h *Header) String() string {
	return fmt.Sprintf("%s Mode: %s | MBC: %s | ROM Size: %dkB | RAM Size: %dkB | Colorize: %d",
		h.Title, h.Hardware, h.MBC, h.ROMSize()/1024, h.RAMSize()/1024, h.Colorize)
}
