package cartridge

import "github.com/thelolagemann/gnuboy-go/internal/types"

const (
	// RTCHalt stops the clock when set in the flags register.
	RTCHalt = types.Bit6
	// RTCCarry is set when the day counter overflows, and stays set
	// until the flags register is written.
	RTCCarry = types.Bit7
)

// RTC is the MBC3 real time clock. The clock is advanced once per
// emulated frame, with 60 frames to the second, so it keeps time
// with the emulation rather than the host.
type RTC struct {
	Seconds, Minutes, Hours, Days int
	Flags                         uint8
	// Ticks counts frames towards the next second.
	Ticks int

	// Registers holds the latched values of seconds, minutes,
	// hours, the low day bits and the flags.
	Registers [5]uint8
	// Select is the register mapped to 0xA000-0xBFFF when bit 3
	// is set, as written to 0x4000-0x5FFF.
	Select uint8
	latch  uint8
}

// Mapped reports whether a clock register is mapped in place of RAM.
func (r *RTC) Mapped() bool {
	return r.Select&0x08 != 0
}

// Tick advances the clock by one frame.
func (r *RTC) Tick() {
	if r.Flags&RTCHalt != 0 {
		return
	}
	if r.Ticks++; r.Ticks < 60 {
		return
	}
	r.Ticks = 0
	if r.Seconds++; r.Seconds < 60 {
		return
	}
	r.Seconds = 0
	if r.Minutes++; r.Minutes < 60 {
		return
	}
	r.Minutes = 0
	if r.Hours++; r.Hours < 24 {
		return
	}
	r.Hours = 0
	if r.Days++; r.Days >= 365 {
		r.Days = 0
		r.Flags |= RTCCarry
	}
}

// Latch copies the live time into the registers on a 0 -> 1
// transition of bit 0.
func (r *RTC) Latch(value uint8) {
	if (r.latch^value)&value&1 != 0 {
		r.Registers = [5]uint8{
			uint8(r.Seconds),
			uint8(r.Minutes),
			uint8(r.Hours),
			uint8(r.Days),
			r.Flags,
		}
	}
	r.latch = value & 1
}

// Read returns the selected register.
func (r *RTC) Read() uint8 {
	if i := int(r.Select & 7); i < len(r.Registers) {
		return r.Registers[i]
	}
	return 0xFF
}

// Write writes the selected register, updating the live time.
func (r *RTC) Write(value uint8) {
	switch r.Select & 0x0F {
	case 0x08:
		r.Registers[0] = value
		r.Seconds = int(value) % 60
	case 0x09:
		r.Registers[1] = value
		r.Minutes = int(value) % 60
	case 0x0A:
		r.Registers[2] = value
		r.Hours = int(value) % 24
	case 0x0B:
		r.Registers[3] = value
		r.Days = (r.Days&0x100 | int(value)) % 365
	case 0x0C:
		r.Registers[4] = value
		r.Flags = value
		r.Days = (r.Days&0xFF | int(value&1)<<9) % 365
	}
}

// Time returns the live time.
func (r *RTC) Time() (day, hour, minute, second int) {
	return r.Days, r.Hours, r.Minutes, r.Seconds
}

// SetTime sets the live time, clamping each value to its range.
func (r *RTC) SetTime(day, hour, minute, second int) {
	r.Days = clamp(day, 365)
	r.Hours = clamp(hour, 24)
	r.Minutes = clamp(minute, 60)
	r.Seconds = clamp(second, 60)
	r.Ticks = 0
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

// Reset stops the clock and zeroes every counter.
func (r *RTC) Reset() {
	*r = RTC{}
}

var _ types.Stater = (*RTC)(nil)

// Load implements the types.Stater interface.
func (r *RTC) Load(s *types.State) {
	r.Select = s.Read8("rtcR")
	r.latch = s.Read8("rtcL")
	r.Flags = s.Read8("rtcF")
	r.Days = s.ReadInt("rtcd")
	r.Hours = s.ReadInt("rtch")
	r.Minutes = s.ReadInt("rtcm")
	r.Seconds = s.ReadInt("rtcs")
	r.Ticks = s.ReadInt("rtct")
	for i, tag := range rtcRegisterTags {
		r.Registers[i] = s.Read8(tag)
	}
}

// Save implements the types.Stater interface.
func (r *RTC) Save(s *types.State) {
	s.Write8("rtcR", r.Select)
	s.Write8("rtcL", r.latch)
	s.Write8("rtcF", r.Flags)
	s.WriteInt("rtcd", r.Days)
	s.WriteInt("rtch", r.Hours)
	s.WriteInt("rtcm", r.Minutes)
	s.WriteInt("rtcs", r.Seconds)
	s.WriteInt("rtct", r.Ticks)
	for i, tag := range rtcRegisterTags {
		s.Write8(tag, r.Registers[i])
	}
}

var rtcRegisterTags = [5]string{"rtR8", "rtR9", "rtRA", "rtRB", "rtRC"}
