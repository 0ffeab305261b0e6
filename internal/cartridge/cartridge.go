// Package cartridge provides the game cartridge: its header, the
// ROM bank arena, external RAM, the bank controller and the MBC3
// real time clock.
package cartridge

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/thelolagemann/gnuboy-go/internal/types"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
)

const (
	// BankSize is the size of a ROM bank.
	BankSize = 0x4000
	// RAMBankSize is the size of an external RAM bank.
	RAMBankSize = 0x2000
	// MaxBanks is the largest number of ROM banks a cartridge can have.
	MaxBanks = 512

	// defaultPreload is the number of banks read when loading.
	defaultPreload = 64
)

var (
	// ErrROMSize is returned when the header holds an invalid ROM size code.
	ErrROMSize = errors.New("cartridge: invalid rom size")
	// ErrBankLoad is returned when a ROM bank could not be read.
	ErrBankLoad = errors.New("cartridge: rom bank load failed")
)

// Cartridge is a game cartridge. ROM banks are read from the
// underlying stream on first use and kept in an arena indexed by
// bank number; when a bank limit is set, a resident bank is evicted
// to make room for a new one.
type Cartridge struct {
	Header

	rom      io.ReadSeeker
	banks    [MaxBanks][]byte
	resident int
	limit    int
	rng      *rand.Rand

	ram []byte
	// Dirty has bit n set when RAM bank n has unsaved writes.
	Dirty uint32
	// Saved has bit n set once RAM bank n has been committed to storage.
	Saved uint32

	ROMBank    int
	RAMBank    int
	BankMode   int
	RAMEnabled bool

	Clock RTC

	// WindowOffsetHack is set for titles that rely on the window
	// line counter wrapping every 12 lines.
	WindowOffsetHack bool

	err error
	log log.Logger
}

// Opt is a function that configures a Cartridge.
type Opt func(c *Cartridge)

// WithLogger sets the logger used by the cartridge.
func WithLogger(l log.Logger) Opt {
	return func(c *Cartridge) {
		c.log = l
	}
}

// WithBankLimit limits the number of ROM banks held in memory at
// once. A limit of 0 keeps every bank.
func WithBankLimit(n int) Opt {
	return func(c *Cartridge) {
		if n > 0 && n < 2 {
			n = 2
		}
		c.limit = n
	}
}

// New loads a cartridge from the given ROM stream, which must stay
// readable for the lifetime of the cartridge.
func New(rom io.ReadSeeker, opts ...Opt) (*Cartridge, error) {
	c := &Cartridge{
		rom:     rom,
		ROMBank: 1,
		rng:     rand.New(rand.NewSource(1)),
		log:     log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	raw := make([]byte, HeaderSize)
	if _, err := rom.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("cartridge: seeking header: %w", err)
	}
	if _, err := io.ReadFull(rom, raw); err != nil {
		return nil, fmt.Errorf("cartridge: reading header: %w", err)
	}
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	c.Header = h
	c.ram = make([]byte, h.RAMSize())

	c.log.Infof("cartridge loaded: %s", h.String())

	preload := h.ROMBanks
	if preload > defaultPreload {
		preload = defaultPreload
		if strings.HasPrefix(h.Title, "RAYMAN") || strings.HasPrefix(h.Title, "NONAME") {
			preload = h.ROMBanks - 40
		}
	}
	if c.limit > 0 && preload > c.limit {
		preload = c.limit
	}
	c.log.Debugf("cartridge: preloading %d banks", preload)
	for i := 0; i < preload; i++ {
		c.loadBank(i)
	}
	if c.err != nil {
		return nil, c.err
	}

	if h.Title == "SIREN GB2 " || h.Title == "DONKEY KONG" {
		c.log.Infof("cartridge: window offset hack enabled")
		c.WindowOffsetHack = true
	}

	return c, nil
}

// Err returns the first fatal error encountered while loading
// banks, if any.
func (c *Cartridge) Err() error {
	return c.err
}

// Bank returns ROM bank n (masked to the ROM size), loading it
// if it is not resident.
func (c *Cartridge) Bank(n int) []byte {
	n &= c.ROMBanks - 1
	if c.banks[n] == nil {
		c.loadBank(n)
	}
	return c.banks[n]
}

// CurrentBank returns the ROM bank mapped at 0x4000-0x7FFF.
func (c *Cartridge) CurrentBank() []byte {
	return c.Bank(c.ROMBank)
}

// loadBank reads bank n from the ROM stream, evicting another bank
// if the resident limit has been reached.
func (c *Cartridge) loadBank(n int) {
	if c.banks[n] == nil {
		if c.limit > 0 && c.resident >= c.limit {
			victim := c.evictable(n)
			c.log.Debugf("cartridge: reclaiming bank %d for bank %d", victim, n)
			c.banks[n], c.banks[victim] = c.banks[victim], nil
		} else {
			c.banks[n] = make([]byte, BankSize)
			c.resident++
		}
	}

	buf := c.banks[n]
	_, err := c.rom.Seek(int64(n)*BankSize, io.SeekStart)
	if err == nil {
		var read int
		read, err = io.ReadFull(c.rom, buf)
		for i := read; i < len(buf); i++ {
			buf[i] = 0xFF
		}
	}
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.log.Warnf("cartridge: rom bank %d is short, padded with 0xFF", n)
	default:
		c.log.Errorf("cartridge: loading rom bank %d: %v", n, err)
		if c.err == nil {
			c.err = fmt.Errorf("%w: bank %d: %v", ErrBankLoad, n, err)
		}
	}
}

// evictable picks a resident bank to reclaim, starting from a
// pseudo-random slot. Bank 0 and the requested bank are never picked.
func (c *Cartridge) evictable(requested int) int {
	start := c.rng.Intn(MaxBanks)
	for i := 0; i < MaxBanks; i++ {
		b := (start + i) % MaxBanks
		if b != 0 && b != requested && c.banks[b] != nil {
			return b
		}
	}
	return 0
}

// Resident returns the number of ROM banks held in memory.
func (c *Cartridge) Resident() int {
	return c.resident
}

// RAM returns the currently selected external RAM bank.
func (c *Cartridge) RAM() []byte {
	return c.RAMBankData(c.RAMBank)
}

// RAMBankData returns external RAM bank n.
func (c *Cartridge) RAMBankData(n int) []byte {
	n &= c.RAMBanks - 1
	return c.ram[n*RAMBankSize : (n+1)*RAMBankSize]
}

// ReadRAM reads from 0xA000-0xBFFF.
func (c *Cartridge) ReadRAM(address uint16) uint8 {
	if !c.RAMEnabled {
		return 0xFF
	}
	if c.Clock.Mapped() {
		return c.Clock.Read()
	}
	return c.RAM()[address&0x1FFF]
}

// WriteRAM writes to 0xA000-0xBFFF, marking the bank dirty if its
// contents changed.
func (c *Cartridge) WriteRAM(address uint16, value uint8) {
	if !c.RAMEnabled {
		return
	}
	if c.Clock.Mapped() {
		c.Clock.Write(value)
		return
	}
	bank := c.RAM()
	if bank[address&0x1FFF] != value {
		bank[address&0x1FFF] = value
		c.Dirty |= 1 << uint(c.RAMBank&(c.RAMBanks-1))
	}
}

// SRAMDirty reports whether external RAM has unsaved changes.
func (c *Cartridge) SRAMDirty() bool {
	return c.Dirty != 0
}

var _ types.Resettable = (*Cartridge)(nil)

// Reset restores the bank controller to its power on state. A hard
// reset also fills external RAM with 0xFF and zeroes the clock.
func (c *Cartridge) Reset(hard bool) {
	c.Dirty = 0
	c.BankMode = 0
	c.ROMBank = 1
	c.RAMBank = 0
	c.RAMEnabled = false

	if hard {
		for i := range c.ram {
			c.ram[i] = 0xFF
		}
		c.Clock.Reset()
	}
}

var _ types.Stater = (*Cartridge)(nil)

// Load implements the types.Stater interface. External RAM is
// restored from the next memory block.
func (c *Cartridge) Load(s *types.State) {
	c.BankMode = s.ReadInt("mbcm")
	c.ROMBank = s.ReadInt("romb")
	c.RAMBank = s.ReadInt("ramb") & (c.RAMBanks - 1)
	c.RAMEnabled = s.ReadBool("enab")
	c.Clock.Load(s)
	s.ReadBlock(c.ram)
}

// Save implements the types.Stater interface.
func (c *Cartridge) Save(s *types.State) {
	s.WriteInt("mbcm", c.BankMode)
	s.WriteInt("romb", c.ROMBank)
	s.WriteInt("ramb", c.RAMBank)
	s.WriteBool("enab", c.RAMEnabled)
	c.Clock.Save(s)
	s.WriteBlock(c.ram)
}
