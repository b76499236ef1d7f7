//go:build !unix

package honeypot

import (
	"net"
	"strconv"
)

// listenTCP falls back to net.Listen where raw sockets are unavailable; the
// backlog is left to the operating system.
func listenTCP(host string, port, _ int) (net.Listener, error) {
	return net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}
