package transport

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/poyrazK/dnscore/internal/authority"
	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// TCPServer answers DNS-over-TCP on one bound listener, dispatching each
// connection to a WorkerPool. A connection may carry several
// length-prefixed queries in sequence; each is handled in turn on the
// same worker job.
type TCPServer struct {
	ln           net.Listener
	handler      Handler
	pool         *WorkerPool
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger

	stopping atomic.Bool
	done     chan struct{}
}

func NewTCPServer(ln net.Listener, handler Handler, pool *WorkerPool, readTimeout, writeTimeout time.Duration, logger *slog.Logger) *TCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPServer{ln: ln, handler: handler, pool: pool, readTimeout: readTimeout, writeTimeout: writeTimeout, logger: logger, done: make(chan struct{})}
}

// Serve accepts connections until Stop is called.
func (s *TCPServer) Serve() {
	defer close(s.done)
	for {
		conn, err := s.ln.Accept()
		if s.stopping.Load() {
			if conn != nil {
				conn.Close()
			}
			return
		}
		if err != nil {
			s.logger.Warn("tcp accept failed", "error", err)
			continue
		}
		s.pool.Execute(func() { s.handleConn(conn) })
	}
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return
		}
		var lenBuf [2]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		length := binary.BigEndian.Uint16(lenBuf[:])

		data := make([]byte, length)
		if _, err := io.ReadFull(conn, data); err != nil {
			return
		}

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

		encoded, err := resp.EncodeTCP()
		if err != nil {
			s.logger.Error("failed to encode tcp response", "error", err)
			return
		}
		if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return
		}
		if _, err := conn.Write(encoded); err != nil {
			s.logger.Warn("tcp write failed", "error", err)
			return
		}
	}
}

// Stop unblocks the pending Accept with a self-dialed, immediately-closed
// connection, waits for Serve to return, then closes the listener.
func (s *TCPServer) Stop() {
	s.stopping.Store(true)
	if conn, err := net.DialTimeout("tcp", s.ln.Addr().String(), time.Second); err == nil {
		conn.Close()
	}
	<-s.done
	_ = s.ln.Close()
}

// ListenTCP binds a TCP listener with SO_REUSEPORT set.
func ListenTCP(addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: controlReusePort}
	return lc.Listen(context.Background(), "tcp", addr)
}
