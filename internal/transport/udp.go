package transport

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/poyrazK/dnscore/internal/authority"
	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// UDPServer answers DNS-over-UDP on one bound socket, dispatching each
// datagram to a WorkerPool.
type UDPServer struct {
	conn         net.PacketConn
	handler      Handler
	pool         *WorkerPool
	writeTimeout time.Duration
	logger       *slog.Logger

	stopping atomic.Bool
	done     chan struct{}
}

// NewUDPServer wraps an already-bound packet connection. Binding (and the
// SO_REUSEPORT socket option) is the caller's concern — see ListenUDP.
func NewUDPServer(conn net.PacketConn, handler Handler, pool *WorkerPool, writeTimeout time.Duration, logger *slog.Logger) *UDPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &UDPServer{conn: conn, handler: handler, pool: pool, writeTimeout: writeTimeout, logger: logger, done: make(chan struct{})}
}

// Serve reads datagrams until Stop is called. Each datagram is copied out
// of the shared read buffer and handed to the pool so the next recv_from
// isn't blocked on a slow handler.
func (s *UDPServer) Serve() {
	defer close(s.done)
	buf := make([]byte, dnsmsg.MaxUDPSize)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if s.stopping.Load() {
			return
		}
		if err != nil {
			s.logger.Warn("udp read failed", "error", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		s.pool.Execute(func() { s.handleDatagram(addr, data) })
	}
}

func (s *UDPServer) handleDatagram(addr net.Addr, data []byte) {
	outcome := decodeRequest(data)

	var resp *dnsmsg.Message
	switch outcome.kind {
	case outcomeFullMessage:
		resp = s.handler(outcome.msg)
	case outcomeHeaderOnly:
		resp = authority.HandleDecodeError(outcome.header, outcome.err)
	case outcomeParseErr:
		return
	}

	encoded, err := resp.EncodeUDP()
	if err != nil {
		s.logger.Error("failed to encode udp response", "error", err)
		return
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		s.logger.Warn("failed to set udp write deadline", "error", err)
	}
	if _, err := s.conn.WriteTo(encoded, addr); err != nil {
		s.logger.Warn("udp write failed", "error", err, "client", addr)
	}
}

// Stop unblocks the pending ReadFrom with a self-addressed no-op
// datagram, waits for Serve to return, then closes the socket.
func (s *UDPServer) Stop() {
	s.stopping.Store(true)
	if local, ok := s.conn.LocalAddr().(*net.UDPAddr); ok {
		kick := *local
		if kick.IP.IsUnspecified() {
			kick.IP = net.IPv4(127, 0, 0, 1)
		}
		_, _ = s.conn.WriteTo(nil, &kick)
	}
	<-s.done
	_ = s.conn.Close()
}

// ListenUDP binds a UDP socket with SO_REUSEPORT set, so multiple
// listeners can share one port across worker processes/threads.
func ListenUDP(addr string) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: controlReusePort}
	return lc.ListenPacket(context.Background(), "udp", addr)
}
