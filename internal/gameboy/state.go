package gameboy

import (
	"errors"
	"fmt"
	"io"

	"github.com/thelolagemann/gnuboy-go/internal/cartridge"
	"github.com/thelolagemann/gnuboy-go/internal/types"
)

var (
	// ErrNoBattery is returned when saving or loading battery RAM for
	// a cartridge without a battery.
	ErrNoBattery = cartridge.ErrNoBattery
	// ErrSRAMDirty is returned when a battery save left banks
	// unwritten.
	ErrSRAMDirty = cartridge.ErrSRAMDirty
)

// stateSize returns the size of the memory blocks following the
// header of a save state.
func (g *GameBoy) stateSize() int {
	wram, vram := 2, 2
	if g.MMU.IsGBC() {
		wram, vram = 8, 4
	}
	return (wram+vram)*types.StateBlockSize + g.Cartridge.RAMSize()
}

// SaveState writes a snapshot of the session to w.
func (g *GameBoy) SaveState(w io.Writer) error {
	s := types.NewState()
	s.Write32("GbSs", types.StateVersion)

	g.CPU.Save(s)
	g.Interrupts.Save(s)
	g.Timer.Save(s)
	g.Serial.Save(s)
	g.Joypad.Save(s)
	g.APU.Save(s)

	// memory blocks, in order
	g.MMU.Save(s)
	g.PPU.Save(s)
	g.Cartridge.Save(s)

	if _, err := w.Write(s.Bytes()); err != nil {
		return fmt.Errorf("gameboy: writing state: %w", err)
	}
	return nil
}

// LoadState restores a snapshot written by SaveState. Missing values
// load as zero and a version mismatch is only logged, so that states
// from older versions still load.
func (g *GameBoy) LoadState(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("gameboy: reading state: %w", err)
	}
	s, err := types.StateFromBytes(raw)
	if err != nil {
		return fmt.Errorf("gameboy: loading state: %w", err)
	}
	if n := len(raw) - types.StateHeaderSize; n < g.stateSize() {
		return fmt.Errorf("gameboy: loading state: %d of %d bytes: %w", n, g.stateSize(), types.ErrShortState)
	}
	if v := s.Read32("GbSs"); v != types.StateVersion {
		g.log.Errorf("gameboy: save state version mismatch (0x%X)", v)
	}

	// the register file comes first, the rest rebuild from it
	g.MMU.Load(s)
	g.PPU.Load(s)
	g.Cartridge.Load(s)

	g.CPU.Load(s)
	g.Interrupts.Load(s)
	g.Timer.Load(s)
	g.Serial.Load(s)
	g.Joypad.Load(s)
	g.APU.Load(s)

	if err := s.Err(); err != nil {
		return fmt.Errorf("gameboy: loading state: %w", err)
	}
	g.MMU.UpdateMap()
	return nil
}

// SaveSRAM writes battery RAM, and the clock of cartridges with one,
// to w. A quick save only writes banks that changed since the last
// save.
func (g *GameBoy) SaveSRAM(w io.WriterAt, quick bool) error {
	if err := g.Cartridge.SaveSRAM(w, quick); err != nil {
		if errors.Is(err, ErrNoBattery) || errors.Is(err, ErrSRAMDirty) {
			return err
		}
		return fmt.Errorf("gameboy: saving sram: %w", err)
	}
	return nil
}

// LoadSRAM restores battery RAM written by SaveSRAM.
func (g *GameBoy) LoadSRAM(r io.ReaderAt) error {
	if err := g.Cartridge.LoadSRAM(r); err != nil {
		if errors.Is(err, ErrNoBattery) {
			return err
		}
		return fmt.Errorf("gameboy: loading sram: %w", err)
	}
	return nil
}
