package cartridge

// MBC is the memory bank controller fitted to a cartridge.
// Controllers intercept writes to 0x0000-0x7FFF, using the address
// and value written as commands to switch ROM and RAM banks or to
// drive extra hardware.
type MBC uint8

const (
	MBCNone MBC = iota
	MBC1
	MBC2
	MBC3
	MBC5
	MBC6
	MBC7
	HuC1
	HuC3
	MMM01
)

var mbcNames = [...]string{
	MBCNone: "none",
	MBC1:    "MBC1",
	MBC2:    "MBC2",
	MBC3:    "MBC3",
	MBC5:    "MBC5",
	MBC6:    "MBC6",
	MBC7:    "MBC7",
	HuC1:    "HuC1",
	HuC3:    "HuC3",
	MMM01:   "MMM01",
}

func (m MBC) String() string {
	if int(m) < len(mbcNames) {
		return mbcNames[m]
	}
	return "invalid"
}

// Write handles a write to the cartridge ROM address space.
// The caller is responsible for rebuilding its memory map
// afterwards.
func (c *Cartridge) Write(address uint16, value uint8) {
	switch c.MBC {
	case MBC1, HuC1:
		switch address & 0xE000 {
		case 0x0000:
			c.RAMEnabled = value&0x0F == 0x0A
		case 0x2000:
			if value&0x1F == 0 {
				value = 0x01
			}
			c.ROMBank = c.ROMBank&0x60 | int(value&0x1F)
		case 0x4000:
			if c.BankMode != 0 {
				c.RAMBank = int(value & 0x03)
				if c.MBC == HuC1 {
					c.RAMBank &= c.RAMBanks - 1
				}
			} else {
				c.ROMBank = c.ROMBank&0x1F | int(value&0x03)<<5
			}
		case 0x6000:
			c.BankMode = int(value & 0x01)
		}

	case MBC2:
		// bit 8 of the address clear selects RAM enable, set selects the ROM bank
		switch address & 0xC100 {
		case 0x0000:
			c.RAMEnabled = value&0x0F == 0x0A
		case 0x0100:
			c.ROMBank = int(value & 0x0F)
		}

	case MBC3, HuC3:
		switch address & 0xE000 {
		case 0x0000:
			c.RAMEnabled = value&0x0F == 0x0A
		case 0x2000:
			if value&0x7F == 0 {
				value = 0x01
			}
			c.ROMBank = int(value & 0x7F)
		case 0x4000:
			c.Clock.Select = value & 0x0F
			c.RAMBank = int(value & 0x03)
		case 0x6000:
			c.Clock.Latch(value)
		}

	case MBC5:
		switch address & 0x7000 {
		case 0x0000, 0x1000:
			c.RAMEnabled = value&0x0F == 0x0A
		case 0x2000:
			c.ROMBank = c.ROMBank&0x100 | int(value)
		case 0x3000:
			c.ROMBank = c.ROMBank&0xFF | int(value&0x01)<<8
		case 0x4000, 0x5000:
			mask := uint8(0x0F)
			if c.Rumble {
				mask = 0x07
			}
			c.RAMBank = int(value&mask) & (c.RAMBanks - 1)
		}

	default:
		c.log.Debugf("cartridge: ignored %s write 0x%02X to 0x%04X", c.MBC, value, address)
	}
}
