package transport

import (
	"testing"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

func encodedQuery(t *testing.T) []byte {
	t.Helper()
	name, err := dnsmsg.NewName("www.example.")
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}
	msg := &dnsmsg.Message{
		Header:    dnsmsg.Header{ID: 42, RD: true, QuestionCount: 1},
		Questions: []*dnsmsg.Question{{Name: name, Type: dnsmsg.TypeA, Class: dnsmsg.ClassIN}},
	}
	data, err := msg.EncodeUDP()
	if err != nil {
		t.Fatalf("EncodeUDP: %v", err)
	}
	return data
}

func TestDecodeRequestFullMessage(t *testing.T) {
	out := decodeRequest(encodedQuery(t))
	if out.kind != outcomeFullMessage {
		t.Fatalf("expected outcomeFullMessage, got %v", out.kind)
	}
	if out.msg.Header.ID != 42 {
		t.Fatalf("unexpected id: %d", out.msg.Header.ID)
	}
}

func TestDecodeRequestHeaderOnlyOnTruncatedBody(t *testing.T) {
	data := encodedQuery(t)
	// Truncate after the 12-byte header so the question section fails to
	// parse but the header itself is still intact.
	out := decodeRequest(data[:12])
	if out.kind != outcomeHeaderOnly {
		t.Fatalf("expected outcomeHeaderOnly, got %v", out.kind)
	}
	if out.header.ID != 42 {
		t.Fatalf("unexpected id: %d", out.header.ID)
	}
}

func TestDecodeRequestParseErrOnGarbage(t *testing.T) {
	out := decodeRequest([]byte{0x01, 0x02})
	if out.kind != outcomeParseErr {
		t.Fatalf("expected outcomeParseErr, got %v", out.kind)
	}
}
