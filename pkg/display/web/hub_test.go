package web

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/brotli/go/cbrotli"
	"github.com/gorilla/websocket"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
)

func newTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(h)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("expected no error dialing, got %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		cancel()
	})
	return h, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("expected no error reading, got %v", err)
		}
		if msg[0] != ServerInfo {
			return msg
		}
	}
}

func testFrame(v uint16) []byte {
	f := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*2)
	for i := 0; i < len(f); i += 2 {
		binary.LittleEndian.PutUint16(f[i:], v)
	}
	return f
}

func TestHub_PushFrame(t *testing.T) {
	h, conn := newTestHub(t)

	if msg := readMessage(t, conn); msg[0] != ClientInfo || msg[1] != 1 {
		t.Fatalf("expected client info for client 1, got %v", msg[:2])
	}
	if msg := readMessage(t, conn); len(msg) != 1 || msg[0] != CacheSync {
		t.Fatalf("expected an empty cache sync, got %d bytes", len(msg))
	}

	white, black := testFrame(0xFFFF), testFrame(0x0000)
	var colors [64]uint16

	t.Run("frame", func(t *testing.T) {
		if err := h.PushFrame(white, ppu.RGB565LE, colors); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		msg := readMessage(t, conn)
		if msg[0] != Frame {
			t.Fatalf("expected a frame, got type %d", msg[0])
		}
		if idx := binary.LittleEndian.Uint16(msg[1:]); idx != 0 {
			t.Errorf("expected cache index 0, got %d", idx)
		}
		got, err := cbrotli.Decode(msg[3:])
		if err != nil {
			t.Fatalf("expected no error decoding, got %v", err)
		}
		if !bytes.Equal(got, white) {
			t.Errorf("expected the decoded frame to match")
		}
	})
	t.Run("skip and cache", func(t *testing.T) {
		h.PushFrame(white, ppu.RGB565LE, colors)
		h.PushFrame(white, ppu.RGB565LE, colors)
		h.PushFrame(black, ppu.RGB565LE, colors)

		msg := readMessage(t, conn)
		if msg[0] != FrameSkip || binary.LittleEndian.Uint32(msg[1:]) != 2 {
			t.Fatalf("expected 2 skipped frames, got %v", msg)
		}
		if msg := readMessage(t, conn); msg[0] != Frame || binary.LittleEndian.Uint16(msg[1:]) != 1 {
			t.Fatalf("expected a frame at cache index 1, got type %d", msg[0])
		}

		h.PushFrame(white, ppu.RGB565LE, colors)
		msg = readMessage(t, conn)
		if msg[0] != FrameCache || binary.LittleEndian.Uint16(msg[1:]) != 0 {
			t.Errorf("expected cached frame 0, got %v", msg)
		}
	})
	t.Run("pad", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x81}); err != nil {
			t.Fatal(err)
		}
		select {
		case mask := <-h.Pad():
			if mask != 0x81 {
				t.Errorf("expected pad mask 0x81, got 0x%02X", mask)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("expected a pad mask")
		}
	})
}

func TestToRGB565(t *testing.T) {
	var colors [64]uint16
	colors[3] = 0x1234

	paletted := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight)
	paletted[0] = 3
	if got := toRGB565(paletted, ppu.Paletted, colors); got[0] != 0x34 || got[1] != 0x12 {
		t.Errorf("expected 0x1234 little endian, got %02X %02X", got[0], got[1])
	}

	be := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*2)
	be[0], be[1] = 0x12, 0x34
	if got := toRGB565(be, ppu.RGB565BE, colors); got[0] != 0x34 || got[1] != 0x12 {
		t.Errorf("expected 0x1234 little endian, got %02X %02X", got[0], got[1])
	}
}
