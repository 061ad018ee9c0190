package main

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/poyrazK/dnscore/internal/cache"
	"github.com/poyrazK/dnscore/internal/dnsmsg"
	"github.com/poyrazK/dnscore/internal/resolver"
	"github.com/poyrazK/dnscore/internal/trace"
)

func testHandler(t *testing.T) *queryHandler {
	t.Helper()
	c := cache.NewRecordCache(time.Hour)
	t.Cleanup(c.Stop)
	res := resolver.New(c, resolver.DefaultConfig(), trace.Params{})
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return newQueryHandler(res, logger, false)
}

func TestHandleRejectsAlreadyAnsweredRequest(t *testing.T) {
	h := testHandler(t)
	req := &dnsmsg.Message{
		Header:    dnsmsg.Header{ID: 7, QR: true},
		Questions: []*dnsmsg.Question{{Name: "example.", Type: dnsmsg.TypeA, Class: dnsmsg.ClassIN}},
	}
	resp := h.Handle(req)
	if resp.Header.RCode != dnsmsg.RCodeFormErr {
		t.Fatalf("expected FORMERR, got %v", resp.Header.RCode)
	}
	if resp.Header.ID != 7 {
		t.Fatalf("expected echoed id 7, got %d", resp.Header.ID)
	}
}

func TestHandleRejectsMultiQuestionRequest(t *testing.T) {
	h := testHandler(t)
	req := &dnsmsg.Message{
		Header: dnsmsg.Header{ID: 1},
		Questions: []*dnsmsg.Question{
			{Name: "example.", Type: dnsmsg.TypeA, Class: dnsmsg.ClassIN},
			{Name: "example.", Type: dnsmsg.TypeNS, Class: dnsmsg.ClassIN},
		},
	}
	resp := h.Handle(req)
	if resp.Header.RCode != dnsmsg.RCodeFormErr {
		t.Fatalf("expected FORMERR, got %v", resp.Header.RCode)
	}
}

func TestRcodeLabel(t *testing.T) {
	cases := map[dnsmsg.RCode]string{
		dnsmsg.RCodeNoError:  "NOERROR",
		dnsmsg.RCodeNxDomain: "NXDOMAIN",
		dnsmsg.RCodeServFail: "SERVFAIL",
	}
	for rc, want := range cases {
		if got := rcodeLabel(rc); got != want {
			t.Errorf("rcodeLabel(%v) = %q, want %q", rc, got, want)
		}
	}
}

func TestReplyEchoesRequestShape(t *testing.T) {
	req := &dnsmsg.Message{
		Header:    dnsmsg.Header{ID: 42, OpCode: dnsmsg.OpStd, RD: true},
		Questions: []*dnsmsg.Question{{Name: "example.", Type: dnsmsg.TypeA, Class: dnsmsg.ClassIN}},
	}
	resp := reply(req)
	if resp.Header.ID != 42 || !resp.Header.QR || !resp.Header.RD || !resp.Header.RA {
		t.Fatalf("unexpected reply header: %+v", resp.Header)
	}
}
