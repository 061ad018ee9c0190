package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// UDPConfig configures the UDP front-end. It matches the udp_server
// section of the on-disk JSON config.
type UDPConfig struct {
	Address      string
	Port         int
	WriteTimeout time.Duration
	Threads      int
}

// TCPConfig configures the TCP front-end, matching the tcp_server
// section of the on-disk JSON config.
type TCPConfig struct {
	Address      string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Threads      int
}

// Server runs the UDP and TCP front-ends side by side against a single
// Handler, each with its own bounded worker pool.
type Server struct {
	udp     *UDPServer
	tcp     *TCPServer
	udpPool *WorkerPool
	tcpPool *WorkerPool
	logger  *slog.Logger
}

// NewServer binds both sockets (with SO_REUSEPORT) and wires up the
// worker pools. Nothing is served until Run is called.
func NewServer(handler Handler, udpConf UDPConfig, tcpConf TCPConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	udpAddr := net.JoinHostPort(udpConf.Address, fmt.Sprintf("%d", udpConf.Port))
	udpConn, err := ListenUDP(udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp %s: %w", udpAddr, err)
	}
	udpPool := NewWorkerPool(udpConf.Threads, 1024)
	udp := NewUDPServer(udpConn, handler, udpPool, udpConf.WriteTimeout, logger)

	tcpAddr := net.JoinHostPort(tcpConf.Address, fmt.Sprintf("%d", tcpConf.Port))
	tcpLn, err := ListenTCP(tcpAddr)
	if err != nil {
		udp.Stop()
		udpPool.Stop()
		return nil, fmt.Errorf("transport: listen tcp %s: %w", tcpAddr, err)
	}
	tcpPool := NewWorkerPool(tcpConf.Threads, 1024)
	tcp := NewTCPServer(tcpLn, handler, tcpPool, tcpConf.ReadTimeout, tcpConf.WriteTimeout, logger)

	return &Server{udp: udp, tcp: tcp, udpPool: udpPool, tcpPool: tcpPool, logger: logger}, nil
}

// UDPQueueDepth reports how many jobs are waiting for a free UDP worker,
// for periodic metrics sampling.
func (s *Server) UDPQueueDepth() int { return s.udpPool.QueueDepth() }

// TCPQueueDepth reports how many jobs are waiting for a free TCP worker,
// for periodic metrics sampling.
func (s *Server) TCPQueueDepth() int { return s.tcpPool.QueueDepth() }

// Run serves both front-ends until Shutdown is called, blocking the
// caller until both have actually stopped.
func (s *Server) Run() {
	done := make(chan struct{}, 2)
	go func() { s.udp.Serve(); done <- struct{}{} }()
	go func() { s.tcp.Serve(); done <- struct{}{} }()
	<-done
	<-done
}

// Shutdown kicks both acceptors, drains their worker pools, and reports
// whether both finished inside ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		s.udp.Stop()
		s.udpPool.Stop()
		s.tcp.Stop()
		s.tcpPool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("transport: shutdown did not complete before deadline: %w", ctx.Err())
	}
}
