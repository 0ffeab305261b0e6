//go:build !linux

package web

import "net"

// tcpRTT is only available on linux, elsewhere latency comes from
// ping round trips alone.
func tcpRTT(net.Conn) (uint16, bool) {
	return 0, false
}
