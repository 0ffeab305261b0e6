package utils

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"golang.org/x/image/bmp"
)

var rom = bytes.Repeat([]byte{0xC3, 0x50, 0x01, 0x00}, 64)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	w.Write(rom)
	w.Close()

	var zipped bytes.Buffer
	zw := zip.NewWriter(&zipped)
	f, _ := zw.Create("game.gb")
	f.Write(rom)
	zw.Close()

	var empty bytes.Buffer
	zip.NewWriter(&empty).Close()

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"game.gb", rom, nil},
		{"game.gb.gz", gz.Bytes(), nil},
		{"game.ZIP", zipped.Bytes(), nil},
		{"empty.zip", empty.Bytes(), ErrEmptyArchive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, tt.data, 0644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadFile(path)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !bytes.Equal(got, rom) {
				t.Errorf("expected %d bytes of rom, got %d", len(rom), len(got))
			}
		})
	}
	t.Run("missing", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(dir, "nope.gb")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}

func TestRGB565(t *testing.T) {
	tests := []struct {
		v    uint16
		want color.RGBA
	}{
		{0x0000, color.RGBA{0, 0, 0, 0xFF}},
		{0xFFFF, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}},
		{0xF800, color.RGBA{0xFF, 0, 0, 0xFF}},
		{0x07E0, color.RGBA{0, 0xFF, 0, 0xFF}},
		{0x001F, color.RGBA{0, 0, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		if got := RGB565(tt.v); got != tt.want {
			t.Errorf("RGB565(0x%04X): expected %v, got %v", tt.v, tt.want, got)
		}
	}
}

func TestFrameToImage(t *testing.T) {
	var colors [64]uint16
	colors[5] = 0xF800

	frame := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight)
	frame[ppu.ScreenWidth+2] = 5

	img := FrameToImage(frame, ppu.Paletted, colors)
	if got := img.RGBAAt(2, 1); got != (color.RGBA{0xFF, 0, 0, 0xFF}) {
		t.Errorf("expected red at (2, 1), got %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 0xFF}) {
		t.Errorf("expected black at (0, 0), got %v", got)
	}
}

func TestSaveScreenshot(t *testing.T) {
	img := FrameToImage(make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*2), ppu.RGB565LE, [64]uint16{})
	path := filepath.Join(t.TempDir(), "shot.bmp")
	if err := SaveScreenshot(path, img, 2); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := bmp.DecodeConfig(f)
	if err != nil {
		t.Fatalf("expected a bmp, got %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 288 {
		t.Errorf("expected 320x288, got %dx%d", cfg.Width, cfg.Height)
	}

	if err := SaveScreenshot(filepath.Join(t.TempDir(), "shot.gif"), img, 1); err == nil {
		t.Errorf("expected an error for an unsupported format")
	}
}
