package web

import (
	"net"

	"golang.org/x/sys/unix"
)

// tcpRTT returns the kernel's smoothed round trip time for conn, in
// milliseconds.
func tcpRTT(conn net.Conn) (uint16, bool) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return 0, false
	}
	raw, err := tcp.SyscallConn()
	if err != nil {
		return 0, false
	}

	var info *unix.TCPInfo
	ctrlErr := raw.Control(func(fd uintptr) {
		info, err = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	})
	if ctrlErr != nil || err != nil {
		return 0, false
	}
	return uint16(info.Rtt / 1000), true
}
