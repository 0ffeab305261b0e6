package apu

// squareWaves holds the four duty cycles selected by bits 6-7 of
// NR11 and NR21, as masks applied to the envelope volume.
var squareWaves = [4][8]int{
	{0, 0, -1, 0, 0, 0, 0, 0},
	{0, -1, -1, 0, 0, 0, 0, 0},
	{-1, -1, -1, -1, 0, 0, 0, 0},
	{-1, 0, 0, -1, -1, -1, -1, -1},
}

// noiseDivisors is indexed by the divisor code in bits 0-2 of NR43.
var noiseDivisors = [8]int{
	(1 << 14) * 2,
	1 << 14,
	(1 << 14) / 2,
	(1 << 14) / 3,
	(1 << 14) / 4,
	(1 << 14) / 5,
	(1 << 14) / 6,
	(1 << 14) / 7,
}

// initial contents of wave RAM after power on
var (
	dmgWave = [16]byte{
		0xAC, 0xDD, 0xDA, 0x48, 0x36, 0x02, 0xCF, 0x16,
		0x2C, 0x04, 0xE5, 0x2C, 0xAC, 0xDD, 0xDA, 0x48,
	}
	cgbWave = [16]byte{
		0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF,
		0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF,
	}
)

// noise7 and noise15 hold the output of the 7 and 15 bit LFSRs, one
// bit per step, most significant bit first.
var (
	noise7  = lfsrTable(7, 16)
	noise15 = lfsrTable(15, 4096)
)

func lfsrTable(width, size int) []byte {
	table := make([]byte, size)
	lfsr := 1<<width - 1
	for i := 0; i < size*8; i++ {
		table[i>>3] |= byte(lfsr&1) << (7 - i&7)
		feedback := (lfsr ^ lfsr>>1) & 1
		lfsr = lfsr>>1 | feedback<<(width-1)
	}
	return table
}
