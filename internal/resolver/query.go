package resolver

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
	"github.com/poyrazK/dnscore/internal/metrics"
)

// sendQuery is the default QueryFunc: one UDP round-trip per call, retried
// up to conf.MaxNSRetries times on any failure (timeout, malformed reply,
// transaction id mismatch).
func (r *Resolver) sendQuery(addr string, node dnsmsg.Name, rt dnsmsg.RecordType) (*dnsmsg.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= r.conf.MaxNSRetries; attempt++ {
		resp, err := r.sendQueryOnce(addr, node, rt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *Resolver) sendQueryOnce(addr string, node dnsmsg.Name, rt dnsmsg.RecordType) (resp *dnsmsg.Message, err error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamQueryDuration.Observe(time.Since(start).Seconds())
		outcome := "answered"
		if err != nil {
			outcome = "error"
		}
		metrics.UpstreamQueriesTotal.WithLabelValues(outcome).Inc()
	}()

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolver: dial %s: %w", addr, err)
	}
	defer conn.Close()

	id := newTransactionID()
	req := &dnsmsg.Message{
		Header:    dnsmsg.Header{ID: id, RD: false, QuestionCount: 1},
		Questions: []*dnsmsg.Question{{Name: node, Type: rt, Class: dnsmsg.ClassIN}},
	}
	data, err := req.EncodeUDP()
	if err != nil {
		return nil, fmt.Errorf("resolver: encode query: %w", err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(r.conf.WriteTimeout)); err != nil {
		return nil, fmt.Errorf("resolver: set write deadline: %w", err)
	}
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("resolver: write query: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(r.conf.ReadTimeout)); err != nil {
		return nil, fmt.Errorf("resolver: set read deadline: %w", err)
	}
	buf := make([]byte, dnsmsg.MaxUDPSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("resolver: read response: %w", err)
	}

	resp, err = dnsmsg.DecodeMessage(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResp, err)
	}
	if resp.Header.ID != id {
		return nil, fmt.Errorf("%w: transaction id mismatch", ErrMalformedResp)
	}
	return resp, nil
}

func newTransactionID() uint16 {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint16(b[:])
}
