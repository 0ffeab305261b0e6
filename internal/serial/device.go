package serial

import "io"

// Device is a device that can be attached to the Controller. It is
// handed each byte shifted out and returns the byte shifted in.
type Device interface {
	Transfer(out uint8) uint8
}

// nullDevice is an implementation of Device that
// acts as if nothing is plugged into the port: every
// transfer reads back 0xFF.
type nullDevice struct{}

func (nullDevice) Transfer(uint8) uint8 { return 0xFF }

// writerDevice copies every byte sent to an io.Writer. Test ROMs
// report their results this way.
type writerDevice struct {
	w io.Writer
}

// NewWriterDevice returns a Device that writes outgoing bytes to w.
func NewWriterDevice(w io.Writer) Device {
	return writerDevice{w: w}
}

func (d writerDevice) Transfer(out uint8) uint8 {
	_, _ = d.w.Write([]byte{out})
	return 0xFF
}
