package web

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"
	"github.com/gorilla/websocket"
	"github.com/thelolagemann/gnuboy-go/internal/ppu"
	"github.com/thelolagemann/gnuboy-go/pkg/log"
)

// Hub streams frames to any number of websocket clients and collects
// pad input from them. Frames that haven't changed since the last
// frame are skipped, and frames that are still in the clients' caches
// are sent as a cache index.
type Hub struct {
	clients              map[*Client]bool
	register, unregister chan *Client
	broadcast            chan []byte
	pad                  chan uint8
	done                 chan struct{}

	mu      sync.Mutex
	frame   []byte
	hash    uint64
	skipped uint32
	cache   *cache
	nextID  uint8

	quality int
	log     log.Logger
}

// Opt is a function that configures a Hub.
type Opt func(h *Hub)

// WithLogger sets the logger of the hub.
func WithLogger(l log.Logger) Opt {
	return func(h *Hub) {
		h.log = l
	}
}

// WithQuality sets the brotli quality (0-11) frames are compressed with.
func WithQuality(q int) Opt {
	return func(h *Hub) {
		h.quality = q
	}
}

// WithCacheSize sets the number of frames clients keep cached.
func WithCacheSize(n int) Opt {
	return func(h *Hub) {
		h.cache = newCache(n)
	}
}

// NewHub returns a Hub. Run must be called for it to serve clients.
func NewHub(opts ...Opt) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		pad:        make(chan uint8, 16),
		done:       make(chan struct{}),
		cache:      newCache(64),
		quality:    7,
		log:        log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Pad returns the pad masks received from clients, one bit per button
// in joypad order.
func (h *Hub) Pad() <-chan uint8 {
	return h.pad
}

// Run serves clients until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return ctx.Err()
		case c := <-h.register:
			h.clients[c] = true
			h.sync(c)
			h.log.Infof("web: client %d connected from %s", c.ID, c.RemoteAddr)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				continue
			}
			delete(h.clients, c)
			close(c.send)
			h.send([]byte{ClientClosing, c.ID})
			h.log.Infof("web: client %d disconnected", c.ID)
		case msg := <-h.broadcast:
			h.send(msg)
		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}
			data := []byte{ServerInfo}
			for c := range h.clients {
				data = append(data, c.ID)
				data = binary.LittleEndian.AppendUint16(data, c.Latency())
			}
			h.send(data)
		}
	}
}

// send queues msg to every client, dropping clients that can't keep
// up.
func (h *Hub) send(msg []byte) {
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			h.log.Warnf("web: client %d too slow, disconnecting", c.ID)
		}
	}
}

// sync brings a new client up to date with the cache and the current
// frame.
func (h *Hub) sync(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.send <- []byte{ClientInfo, c.ID}

	data := []byte{CacheSync}
	for i, e := range h.cache.entries {
		if e.data == nil {
			continue
		}
		data = binary.LittleEndian.AppendUint16(data, uint16(len(e.data)))
		data = binary.LittleEndian.AppendUint16(data, uint16(i))
		data = append(data, e.data...)
	}
	c.send <- data

	if h.frame != nil {
		c.send <- binary.LittleEndian.AppendUint16([]byte{FrameCache}, uint16(h.cache.index(h.hash)))
	}
}

// queue hands msg to Run. Frames are dropped rather than stalling the
// emulator when the hub falls behind. Callers hold mu.
func (h *Hub) queue(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Debugf("web: dropping message 0x%02X", msg[0])
	}
}

// PushFrame sends a finished frame to every client.
func (h *Hub) PushFrame(frame []byte, format ppu.PixelFormat, colors [64]uint16) error {
	buf := toRGB565(frame, format, colors)
	hash := xxhash.Sum64(buf)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frame != nil && hash == h.hash {
		h.skipped++
		return nil
	}
	h.frame, h.hash = buf, hash

	if h.skipped > 0 {
		h.queue(binary.LittleEndian.AppendUint32([]byte{FrameSkip}, h.skipped))
		h.skipped = 0
	}

	if i := h.cache.index(hash); i >= 0 {
		h.queue(binary.LittleEndian.AppendUint16([]byte{FrameCache}, uint16(i)))
		return nil
	}

	out, err := cbrotli.Encode(buf, cbrotli.WriterOptions{Quality: h.quality})
	if err != nil {
		return fmt.Errorf("web: compressing frame: %w", err)
	}
	i := h.cache.add(hash, out)
	h.queue(append(binary.LittleEndian.AppendUint16([]byte{Frame}, uint16(i)), out...))
	return nil
}

// toRGB565 converts a frame to RGB565LE.
func toRGB565(frame []byte, format ppu.PixelFormat, colors [64]uint16) []byte {
	buf := make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*2)
	switch format {
	case ppu.RGB565LE:
		copy(buf, frame)
	case ppu.RGB565BE:
		for i := 0; i+1 < len(frame) && i+1 < len(buf); i += 2 {
			buf[i], buf[i+1] = frame[i+1], frame[i]
		}
	case ppu.Paletted:
		for i := 0; i < len(frame) && i*2+1 < len(buf); i++ {
			binary.LittleEndian.PutUint16(buf[i*2:], colors[frame[i]&0x3F])
		}
	}
	return buf
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeHTTP upgrades the request to a websocket and attaches it to the
// hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("web: upgrading %s: %v", r.RemoteAddr, err)
		return
	}

	h.mu.Lock()
	h.nextID++
	c := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, 64),
		ID:         h.nextID,
		RemoteAddr: r.RemoteAddr,
	}
	h.mu.Unlock()

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.readPump()
	go c.writePump()
}
