package dnsmsg

import (
	"testing"
)

func sampleQuery(id uint16) *Message {
	return &Message{
		Header: Header{ID: id, QR: false, OpCode: OpStd, RD: true, QuestionCount: 1},
		Questions: []*Question{
			{Name: "www.example.", Type: TypeA, Class: ClassIN},
		},
	}
}

func TestMessageRoundTripQuery(t *testing.T) {
	m := sampleQuery(0xABCD)
	data, err := m.EncodeUDP()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Header.ID != m.Header.ID || got.Header.RD != true || got.Header.OpCode != OpStd {
		t.Fatalf("header mismatch: %+v", got.Header)
	}
	if len(got.Questions) != 1 || got.Questions[0].Name != "www.example." {
		t.Fatalf("question mismatch: %+v", got.Questions)
	}
}

func TestMessageRoundTripFullAnswer(t *testing.T) {
	m := &Message{
		Header: Header{ID: 1, QR: true, OpCode: OpStd, AA: true, RCode: RCodeNoError},
		Questions: []*Question{
			{Name: "www.example.", Type: TypeA, Class: ClassIN},
		},
		Answers: []*Record{
			{Name: "www.example.", Type: TypeA, Class: ClassIN, TTL: 300, A: Addr4{10, 0, 0, 1}},
		},
	}
	data, err := m.EncodeUDP()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Header.AA || got.Header.RCode != RCodeNoError {
		t.Fatalf("header mismatch: %+v", got.Header)
	}
	if len(got.Answers) != 1 || got.Answers[0].A != (Addr4{10, 0, 0, 1}) {
		t.Fatalf("answers mismatch: %+v", got.Answers)
	}
}

// Boundary: a message whose answers overflow 512 bytes is truncated with TC
// set, and the header's ancount reflects only the records actually written.
func TestMessageUDPTruncation(t *testing.T) {
	m := &Message{
		Header: Header{ID: 1, QR: true, OpCode: OpStd, AA: true, RCode: RCodeNoError},
		Questions: []*Question{
			{Name: "big.example.", Type: TypeTXT, Class: ClassIN},
		},
	}
	// Each TXT record below carries a 200-byte character-string; enough
	// of them blow past 512 bytes on the wire.
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}
	for i := 0; i < 10; i++ {
		m.Answers = append(m.Answers, &Record{
			Name: "big.example.", Type: TypeTXT, Class: ClassIN, TTL: 60,
			TXT: []string{string(big)},
		})
	}

	data, err := m.EncodeUDP()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) > MaxUDPSize {
		t.Fatalf("encoded message exceeds MaxUDPSize: %d", len(data))
	}
	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Header.TC {
		t.Fatal("expected TC to be set on truncated response")
	}
	if int(got.Header.AnswerCount) != len(got.Answers) {
		t.Fatalf("ancount %d does not match actual answers %d", got.Header.AnswerCount, len(got.Answers))
	}
	if len(got.Answers) >= len(m.Answers) {
		t.Fatalf("expected fewer answers than the untruncated %d, got %d", len(m.Answers), len(got.Answers))
	}
}

func TestMessageTCPFraming(t *testing.T) {
	m := sampleQuery(42)
	data, err := m.EncodeTCP()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	frameLen := int(data[0])<<8 | int(data[1])
	if frameLen != len(data)-2 {
		t.Fatalf("frame length %d does not match body %d", frameLen, len(data)-2)
	}
	got, err := DecodeMessage(data[2:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Header.ID != 42 {
		t.Fatalf("id mismatch: %d", got.Header.ID)
	}
}

func TestHeaderOnlyDecode(t *testing.T) {
	m := sampleQuery(7)
	data, err := m.EncodeUDP()
	if err != nil {
		t.Fatal(err)
	}
	hdr, err := HeaderOnly(data[:12])
	if err != nil {
		t.Fatalf("header-only decode: %v", err)
	}
	if hdr.ID != 7 {
		t.Fatalf("id mismatch: %d", hdr.ID)
	}
}

func TestMessageUnsupportedOpCodeDetectedPostDecode(t *testing.T) {
	m := sampleQuery(1)
	m.Header.OpCode = OpInv
	data, err := m.EncodeUDP()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("decode should succeed for a known-but-unsupported opcode: %v", err)
	}
	if got.Header.IsSupported() {
		t.Fatal("INV opcode should not report as supported")
	}
}
