// Package boot provides the optional boot ROM overlay. While a boot
// ROM is mapped, reads from 0x0000-0x00FF (and 0x0200-0x08FF on the
// CGB) are served from it instead of the cartridge, until bit 0 of
// registers.BIOS is set.
package boot

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// DMGSize is the size of a DMG, MGB or SGB boot ROM.
	DMGSize = 0x100
	// CGBSize is the size of a CGB boot ROM, including the unused
	// hole at 0x0100-0x01FF.
	CGBSize = 0x900
)

// ErrSize is returned for an image that is neither DMGSize nor
// CGBSize bytes long.
var ErrSize = errors.New("boot: invalid boot rom size")

// ROM is a boot ROM image.
type ROM struct {
	raw      []byte
	checksum string
}

// Load validates b and returns it as a boot ROM.
func Load(b []byte) (*ROM, error) {
	if len(b) != DMGSize && len(b) != CGBSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrSize, len(b))
	}
	sum := md5.Sum(b)
	return &ROM{
		raw:      b,
		checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Mapped reports whether address is served by the boot ROM while
// it is enabled.
func (b *ROM) Mapped(address uint16) bool {
	if address < 0x100 {
		return true
	}
	return b.CGB() && address >= 0x200 && int(address) < len(b.raw)
}

// Read returns the byte at address.
func (b *ROM) Read(address uint16) uint8 {
	return b.raw[address]
}

// CGB reports whether this is a Game Boy Color boot ROM.
func (b *ROM) CGB() bool {
	return len(b.raw) == CGBSize
}

// Checksum returns the MD5 checksum of the image.
func (b *ROM) Checksum() string {
	if b == nil {
		return ""
	}
	return b.checksum
}

// Model names the console the boot ROM was dumped from, as
// identified by its checksum.
func (b *ROM) Model() string {
	if b == nil {
		return "none"
	}
	if model, ok := knownChecksums[b.checksum]; ok {
		return model
	}
	return "unknown"
}

var knownChecksums = map[string]string{
	DMG0:    "Game Boy (DMG-0)",
	DMG:     "Game Boy (DMG-01)",
	MGB:     "Game Boy Pocket",
	SGB:     "Super Game Boy",
	SGB2:    "Super Game Boy 2",
	CGB0:    "Game Boy Color (CGB-0)",
	CGB:     "Game Boy Color (CGB-A/B/C/D/E)",
	CGB_AGB: "Game Boy Advance (AGB-001)",
}

// MD5 checksums of known boot ROMs.
const (
	// DMG0 flashes the screen on a failed logo check instead of
	// locking up.
	DMG0 = "a8f84a0ac44da5d3f0ee19f9cea80a8c"
	DMG  = "32fbbd84168d3482956eb3c5051637f5"
	// MGB loads 0xFF into A rather than 0x01.
	MGB  = "71a378e71ff30b2d8a1f02bf5c7896aa"
	SGB  = "d574d4f9c12f305074798f54c091a8b4"
	SGB2 = "e0430bca9925fb9882148fd2dc2418c1"
	// CGB0 leaves wave RAM uninitialised.
	CGB0    = "7c773f3c0b01cb73bca8e83227287b7f"
	CGB     = "dbfce9db9deaa2567f6a84fde55f9680"
	CGB_AGB = "e6cefb5f7d352fab6681989763917c73"
)
