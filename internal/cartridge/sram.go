package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// rtcBase is added to the clock when saving so the record matches
// the one written by VBA-M, which stores a wall clock timestamp.
const rtcBase = 1893456000

// rtcRecordSize is the size of the clock record that follows the
// RAM banks in a battery save.
const rtcRecordSize = 48

var (
	// ErrNoBattery is returned when saving or loading battery RAM for a
	// cartridge that has none.
	ErrNoBattery = errors.New("cartridge: no battery backed ram")
	// ErrSRAMDirty is returned when a save did not commit every bank.
	ErrSRAMDirty = errors.New("cartridge: sram still dirty after save")
)

// SaveSRAM writes battery backed RAM to w, one 8 KiB bank at its
// offset followed by the clock record. A quick save only writes
// banks that changed or were never saved.
func (c *Cartridge) SaveSRAM(w io.WriterAt, quick bool) error {
	if !c.Battery {
		return ErrNoBattery
	}

	if !quick {
		c.Dirty = 1<<uint(c.RAMBanks) - 1
		c.Saved = 0
	}

	var firstErr error
	for i := 0; i < c.RAMBanks; i++ {
		bit := uint32(1) << uint(i)
		if c.Saved&bit != 0 && c.Dirty&bit == 0 {
			continue
		}
		if _, err := w.WriteAt(c.RAMBankData(i), int64(i)*RAMBankSize); err != nil {
			c.log.Errorf("cartridge: saving sram bank %d: %v", i, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.log.Debugf("cartridge: saved sram bank %d", i)
		c.Dirty &^= bit
		c.Saved |= bit
	}

	if c.RTC {
		if _, err := w.WriteAt(c.rtcRecord(), int64(c.RAMBanks)*RAMBankSize); err != nil {
			c.log.Errorf("cartridge: saving rtc: %v", err)
		}
	}

	if c.Dirty != 0 {
		if firstErr != nil {
			return fmt.Errorf("%w: %v", ErrSRAMDirty, firstErr)
		}
		return ErrSRAMDirty
	}
	return nil
}

// LoadSRAM reads battery backed RAM previously written by SaveSRAM.
// Banks missing from r are left untouched; an error is returned only
// if no bank could be read.
func (c *Cartridge) LoadSRAM(r io.ReaderAt) error {
	if !c.Battery {
		return ErrNoBattery
	}

	c.Dirty = 0
	c.Saved = 0

	var firstErr error
	buf := make([]byte, RAMBankSize)
	for i := 0; i < c.RAMBanks; i++ {
		if _, err := r.ReadAt(buf, int64(i)*RAMBankSize); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		copy(c.RAMBankData(i), buf)
		c.Saved |= 1 << uint(i)
		c.log.Debugf("cartridge: loaded sram bank %d", i)
	}

	if c.RTC {
		record := make([]byte, rtcRecordSize)
		if _, err := r.ReadAt(record, int64(c.RAMBanks)*RAMBankSize); err == nil {
			c.loadRTCRecord(record)
			c.log.Infof("cartridge: loaded rtc %03d %02d:%02d:%02d",
				c.Clock.Days, c.Clock.Hours, c.Clock.Minutes, c.Clock.Seconds)
		}
	}

	if c.Saved == 0 {
		return fmt.Errorf("cartridge: loading sram: %w", firstErr)
	}
	return nil
}

// rtcRecord encodes the clock as s, m, h, d, flags and the five
// latched registers as 32 bit values, then a 64 bit timestamp.
func (c *Cartridge) rtcRecord() []byte {
	r := &c.Clock
	record := make([]byte, rtcRecordSize)
	fields := [10]uint32{
		uint32(r.Seconds), uint32(r.Minutes), uint32(r.Hours), uint32(r.Days), uint32(r.Flags),
		uint32(r.Registers[0]), uint32(r.Registers[1]), uint32(r.Registers[2]),
		uint32(r.Registers[3]), uint32(r.Registers[4]),
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(record[i*4:], f)
	}
	timestamp := uint64(rtcBase + r.Seconds + r.Minutes*60 + r.Hours*3600 + r.Days*86400)
	binary.LittleEndian.PutUint64(record[40:], timestamp)
	return record
}

func (c *Cartridge) loadRTCRecord(record []byte) {
	field := func(i int) uint32 { return binary.LittleEndian.Uint32(record[i*4:]) }
	r := &c.Clock
	r.Seconds = int(field(0))
	r.Minutes = int(field(1))
	r.Hours = int(field(2))
	r.Days = int(field(3))
	r.Flags = uint8(field(4))
	for i := range r.Registers {
		r.Registers[i] = uint8(field(5 + i))
	}
	r.Ticks = 0
	r.Select = 0
	r.latch = 0
}
