package port

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// dialTimeout bounds how long IsListening waits for a dev server to answer.
const dialTimeout = 200 * time.Millisecond

// Checker reports whether a port can be handed to a new remote.
type Checker interface {
	IsPortAvailable(port int, protocol string) bool
}

// Scanner asks the host's network stack about ports. The zero value is
// ready to use.
type Scanner struct{}

// NewScanner returns a Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable reports whether port can be bound for protocol ("tcp" or
// "udp") on all interfaces. A remote dev server started with `vite --host`
// binds there, and one on localhost blocks the wildcard bind too.
func (s *Scanner) IsPortAvailable(port int, protocol string) bool {
	addr := ":" + strconv.Itoa(port)

	switch protocol {
	case "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		_ = listener.Close()
		return true
	case "udp":
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
	return false
}

// IsListening reports whether a dev server accepts connections on
// localhost:port.
func (s *Scanner) IsListening(port int) bool {
	if port <= 0 || port > maxPort {
		return false
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)), dialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// FindAvailablePort returns the lowest port in [startPort, endPort] that is
// free for protocol.
func (s *Scanner) FindAvailablePort(startPort, endPort int, protocol string) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if s.IsPortAvailable(port, protocol) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available %s port found in range %d-%d", protocol, startPort, endPort)
}
