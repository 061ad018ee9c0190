package transport

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

func TestTCPServerRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	pool := NewWorkerPool(2, 8)
	srv := NewTCPServer(ln, echoHandler, pool, time.Second, time.Second, nil)
	go srv.Serve()
	t.Cleanup(func() {
		srv.Stop()
		pool.Stop()
	})

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	name, err := dnsmsg.NewName("www.example.")
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}
	req := &dnsmsg.Message{
		Header:    dnsmsg.Header{ID: 99, RD: true, QuestionCount: 1},
		Questions: []*dnsmsg.Question{{Name: name, Type: dnsmsg.TypeA, Class: dnsmsg.ClassIN}},
	}
	framed, err := req.EncodeTCP()
	if err != nil {
		t.Fatalf("EncodeTCP: %v", err)
	}
	if _, err := conn.Write(framed); err != nil {
		t.Fatalf("Write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		t.Fatalf("read length prefix: %v", err)
	}
	length := binary.BigEndian.Uint16(lenBuf[:])
	data := make([]byte, length)
	if _, err := io.ReadFull(conn, data); err != nil {
		t.Fatalf("read body: %v", err)
	}

	resp, err := dnsmsg.DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if resp.Header.ID != 99 {
		t.Fatalf("expected echoed id 99, got %d", resp.Header.ID)
	}
}

func TestTCPServerStopUnblocksServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	pool := NewWorkerPool(1, 1)
	srv := NewTCPServer(ln, echoHandler, pool, time.Second, time.Second, nil)

	stoppedServe := make(chan struct{})
	go func() {
		srv.Serve()
		close(stoppedServe)
	}()

	srv.Stop()
	pool.Stop()

	select {
	case <-stoppedServe:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}
