package types

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// StateVersion is stored under the "GbSs" tag of every save state.
	StateVersion = 0x107

	// StateHeaderSize is the size of the tag/value header block.
	StateHeaderSize = 4096
	// StateBlockSize is the unit in which memory blocks are dumped
	// after the header.
	StateBlockSize = 4096

	StateWaveOffset    = 0x0CF0 // 16 bytes of wave RAM
	StateIOOffset      = 0x0D00 // 256 bytes of I/O registers
	StatePaletteOffset = 0x0E00 // 128 bytes of CGB palette memory
	StateOAMOffset     = 0x0F00 // 256 bytes of OAM

	maxStateEntries = StateWaveOffset / 8
)

// ErrShortState is returned when a state ends before all of its
// memory blocks have been read.
var ErrShortState = errors.New("state: unexpected end of data")

// stateTags is the order in which tagged values are laid out in the
// header. Tags written that are not listed here follow in the order
// they were first written.
var stateTags = []string{
	"GbSs",
	"PC  ", "SP  ", "BC  ", "DE  ", "HL  ", "AF  ",
	"IME ", "ima ", "spd ", "halt", "div ", "tim ", "lcdc", "snd ",
	"ints", "pad ", "hdma", "seri",
	"mbcm", "romb", "ramb", "enab",
	"rtcR", "rtcL", "rtcF", "rtcd", "rtch", "rtcm", "rtcs", "rtct",
	"rtR8", "rtR9", "rtRA", "rtRB", "rtRC",
	"S1on", "S1p ", "S1c ", "S1ec", "S1sc", "S1sf",
	"S2on", "S2p ", "S2c ", "S2ec",
	"S3on", "S3p ", "S3c ",
	"S4on", "S4p ", "S4c ", "S4ec",
}

// State is a save state. Scalar values are stored as little-endian
// 32-bit values keyed by a 4 byte tag, so that states survive fields
// being added, removed or reordered. Large arrays are either copied
// to fixed offsets inside the header, or appended after it as raw
// blocks in the order they are written.
type State struct {
	header [StateHeaderSize]byte
	values map[string]uint32
	extra  []string

	blocks  []byte
	readPos int
	err     error
}

// Stater is an interface that allows an object to be saved
// and loaded from a state.
type Stater interface {
	Load(*State) // Load the state of the object
	Save(*State) // Save the state of the object
}

// NewState creates a new, empty state.
func NewState() *State {
	return &State{values: make(map[string]uint32)}
}

// StateFromBytes parses a state previously produced by Bytes.
func StateFromBytes(raw []byte) (*State, error) {
	if len(raw) < StateHeaderSize {
		return nil, fmt.Errorf("state: header is %d bytes: %w", len(raw), ErrShortState)
	}
	s := NewState()
	copy(s.header[:], raw)
	for i := 0; i < maxStateEntries; i++ {
		entry := s.header[i*8 : i*8+8]
		if binary.LittleEndian.Uint32(entry) == 0 {
			break
		}
		tag := string(entry[:4])
		if _, ok := s.values[tag]; !ok {
			s.values[tag] = binary.LittleEndian.Uint32(entry[4:])
		}
	}
	s.blocks = raw[StateHeaderSize:]
	return s, nil
}

func (s *State) Write32(tag string, value uint32) {
	if len(tag) != 4 {
		panic("state: tags are 4 bytes: " + tag)
	}
	if _, ok := s.values[tag]; !ok && !isCanonicalTag(tag) {
		s.extra = append(s.extra, tag)
	}
	s.values[tag] = value
}

func (s *State) Write16(tag string, value uint16) { s.Write32(tag, uint32(value)) }
func (s *State) Write8(tag string, value uint8)   { s.Write32(tag, uint32(value)) }
func (s *State) WriteInt(tag string, value int)   { s.Write32(tag, uint32(int32(value))) }

func (s *State) WriteBool(tag string, value bool) {
	if value {
		s.Write32(tag, 1)
	} else {
		s.Write32(tag, 0)
	}
}

// Read32 returns the value stored under tag, or 0 if the tag is
// missing.
func (s *State) Read32(tag string) uint32 { return s.values[tag] }
func (s *State) Read16(tag string) uint16 { return uint16(s.values[tag]) }
func (s *State) Read8(tag string) uint8   { return uint8(s.values[tag]) }
func (s *State) ReadInt(tag string) int   { return int(int32(s.values[tag])) }
func (s *State) ReadBool(tag string) bool { return s.values[tag] != 0 }

// Has reports whether tag was present in the state.
func (s *State) Has(tag string) bool {
	_, ok := s.values[tag]
	return ok
}

// WriteRaw copies data into the header at the given offset.
func (s *State) WriteRaw(offset int, data []byte) {
	copy(s.header[offset:], data)
}

// ReadRaw copies len(p) bytes from the header at the given offset.
func (s *State) ReadRaw(offset int, p []byte) {
	copy(p, s.header[offset:])
}

// WriteBlock appends data after the header.
func (s *State) WriteBlock(data []byte) {
	s.blocks = append(s.blocks, data...)
}

// ReadBlock fills p with the next len(p) bytes following the header.
// A short read is recorded and reported by Err.
func (s *State) ReadBlock(p []byte) {
	if s.err != nil {
		return
	}
	if len(s.blocks)-s.readPos < len(p) {
		s.err = fmt.Errorf("state: block of %d bytes at %d: %w", len(p), StateHeaderSize+s.readPos, ErrShortState)
		return
	}
	copy(p, s.blocks[s.readPos:])
	s.readPos += len(p)
}

// Err returns the first error encountered while reading blocks.
func (s *State) Err() error {
	return s.err
}

// Bytes lays out the header and appends the blocks.
func (s *State) Bytes() []byte {
	header := s.header
	i := 0
	put := func(tag string) {
		v, ok := s.values[tag]
		if !ok || i >= maxStateEntries {
			return
		}
		copy(header[i*8:], tag)
		binary.LittleEndian.PutUint32(header[i*8+4:], v)
		i++
	}
	for _, tag := range stateTags {
		put(tag)
	}
	for _, tag := range s.extra {
		put(tag)
	}

	out := make([]byte, 0, StateHeaderSize+len(s.blocks))
	out = append(out, header[:]...)
	return append(out, s.blocks...)
}

func isCanonicalTag(tag string) bool {
	for _, t := range stateTags {
		if t == tag {
			return true
		}
	}
	return false
}
