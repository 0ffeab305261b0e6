package ppu

// rgb is a 24 bit colour.
type rgb [3]uint8

func (c rgb) bgr555() uint16 {
	return uint16(c[0]>>3) | uint16(c[1]>>3)<<5 | uint16(c[2]>>3)<<10
}

// colorizeSet is one entry of the boot ROM colorization table, indexed
// by the low 5 bits of the colorization id.
type colorizeSet struct {
	obj0, obj1, bg [4]rgb
}

// colorizeSets are the palettes the CGB boot ROM assigns to monochrome
// games. An entry without object colours reuses the background.
var colorizeSets = map[uint8]colorizeSet{
	0x00: {
		bg: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xAD, 0xAD, 0x84}, {0x42, 0x73, 0x7B}, {0x00, 0x00, 0x00}},
	},
	0x05: {
		obj0: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0x84, 0x84}, {0x94, 0x3A, 0x3A}, {0x00, 0x00, 0x00}},
		obj1: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0x84, 0x84}, {0x94, 0x3A, 0x3A}, {0x00, 0x00, 0x00}},
		bg:   [4]rgb{{0xFF, 0xFF, 0xFF}, {0x52, 0xFF, 0x00}, {0xFF, 0x42, 0x00}, {0x00, 0x00, 0x00}},
	},
	0x07: {
		obj0: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0xFF, 0x00}, {0xFF, 0x00, 0x00}, {0x00, 0x00, 0x00}},
		obj1: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0xFF, 0x00}, {0xFF, 0x00, 0x00}, {0x00, 0x00, 0x00}},
		bg:   [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0xFF, 0x00}, {0xFF, 0x00, 0x00}, {0x00, 0x00, 0x00}},
	},
	0x09: {
		obj0: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0x73, 0x00}, {0x94, 0x42, 0x00}, {0x00, 0x00, 0x00}},
		obj1: [4]rgb{{0xFF, 0xFF, 0xFF}, {0x63, 0xAF, 0xFF}, {0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00}},
		bg:   [4]rgb{{0xFF, 0xFF, 0xCE}, {0x63, 0xEF, 0xEF}, {0x9C, 0x84, 0x31}, {0x5A, 0x5A, 0x5A}},
	},
	0x10: {
		obj0: [4]rgb{{0xFF, 0xFF, 0xFF}, {0x7B, 0xFF, 0x31}, {0x00, 0x84, 0x00}, {0x00, 0x00, 0x00}},
		obj1: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0x84, 0x84}, {0x94, 0x3A, 0x3A}, {0x00, 0x00, 0x00}},
		bg:   [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0x84, 0x84}, {0x94, 0x3A, 0x3A}, {0x00, 0x00, 0x00}},
	},
	0x1C: {
		obj0: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0x84, 0x84}, {0x94, 0x39, 0x39}, {0x00, 0x00, 0x00}},
		obj1: [4]rgb{{0xFF, 0xFF, 0xFF}, {0xFF, 0x84, 0x84}, {0x94, 0x39, 0x39}, {0x00, 0x00, 0x00}},
		bg:   [4]rgb{{0xFF, 0xFF, 0xFF}, {0x7B, 0xFF, 0x31}, {0x00, 0x63, 0xC6}, {0x00, 0x00, 0x00}},
	},
}

func shadesOf(c [4]rgb) [4]uint16 {
	var s [4]uint16
	for i := range c {
		s[i] = c[i].bgr555()
	}
	return s
}

// colorizeMaps resolves a colorization id into the BG, OBJ0 and OBJ1
// shades. The high 3 bits of id select which object palettes are used:
// bit 0 gives OBJ0 the first object set, bit 1 does the same for OBJ1,
// and without bit 2 OBJ1 takes the background colours. ok is false for
// ids missing from the table.
func colorizeMaps(id uint8) (bg, obp0, obp1 [4]uint16, ok bool) {
	set, ok := colorizeSets[id&0x1F]
	if !ok {
		return
	}
	flags := id >> 5
	pal := [3][4]uint16{shadesOf(set.obj0), shadesOf(set.obj1), shadesOf(set.bg)}
	if set.obj0[0] == (rgb{}) {
		pal[0], pal[1] = pal[2], pal[2]
	}

	bg = pal[2]
	obp0, obp1 = pal[1], pal[1]
	if flags&1 != 0 {
		obp0 = pal[0]
	}
	if flags&2 != 0 {
		obp1 = pal[0]
	}
	if flags&4 == 0 {
		obp1 = pal[2]
	}
	return bg, obp0, obp1, true
}
