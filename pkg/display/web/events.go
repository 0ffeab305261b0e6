package web

// Type is the first byte of every message sent to clients.
type Type = uint8

const (
	// Frame carries a 2 byte cache index followed by a brotli
	// compressed RGB565LE frame.
	Frame Type = iota
	// FrameCache repeats the frame at a 2 byte cache index.
	FrameCache
	// CacheSync carries every cached frame to a newly connected
	// client, each as a u16 LE length, a u16 LE index and the data.
	CacheSync
	// FrameSkip carries the number of unchanged frames (u32 LE) since
	// the last frame sent.
	FrameSkip
	// ClientInfo tells a client its own ID.
	ClientInfo
	// ClientClosing carries the ID of a client that disconnected.
	ClientClosing
	// ServerInfo carries an ID and the u16 LE latency in ms of every
	// connected client.
	ServerInfo
)
