package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// RGB565 expands a RGB565 pixel to 8 bits per channel.
func RGB565(v uint16) color.RGBA {
	r, g, b := uint8(v>>11&0x1F), uint8(v>>5&0x3F), uint8(v&0x1F)
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xFF,
	}
}

// FrameToImage converts a framebuffer to an image. Paletted frames
// are looked up in colors.
func FrameToImage(frame []byte, format ppu.PixelFormat, colors [64]uint16) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))
	bpp := format.BytesPerPixel()
	for i := 0; i < ppu.ScreenWidth*ppu.ScreenHeight && (i+1)*bpp <= len(frame); i++ {
		var v uint16
		switch format {
		case ppu.Paletted:
			v = colors[frame[i]&0x3F]
		case ppu.RGB565LE:
			v = uint16(frame[i*2]) | uint16(frame[i*2+1])<<8
		case ppu.RGB565BE:
			v = uint16(frame[i*2])<<8 | uint16(frame[i*2+1])
		}
		img.SetRGBA(i%ppu.ScreenWidth, i/ppu.ScreenWidth, RGB565(v))
	}
	return img
}

// SaveScreenshot scales img by an integer factor and writes it to
// path, as a BMP or PNG depending on the extension.
func SaveScreenshot(path string, img image.Image, scale int) error {
	var encode func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".bmp":
		encode = bmp.Encode
	case ".png", "":
		encode = png.Encode
	default:
		return fmt.Errorf("utils: unsupported image format %q", ext)
	}

	if scale < 1 {
		scale = 1
	}
	b := img.Bounds()
	scaled := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := encode(f, scaled); err != nil {
		return err
	}
	return f.Close()
}
