package dnsmsg

import (
	"reflect"
	"testing"

	"github.com/poyrazK/dnscore/internal/bitbuf"
)

func roundTripRecord(t *testing.T, r *Record) *Record {
	t.Helper()
	buf := bitbuf.New()
	if err := r.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := buf.SetReadPos(0); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRecord(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return got
}

func TestRecordRoundTripA(t *testing.T) {
	r := &Record{Name: "www.example.", Type: TypeA, Class: ClassIN, TTL: 300, A: Addr4{10, 0, 0, 1}}
	got := roundTripRecord(t, r)
	if !reflect.DeepEqual(r, got) {
		t.Fatalf("got %+v want %+v", got, r)
	}
}

func TestRecordRoundTripCNAME(t *testing.T) {
	r := &Record{Name: "a.test.", Type: TypeCNAME, Class: ClassIN, TTL: 60, Host: "b.test."}
	got := roundTripRecord(t, r)
	if !reflect.DeepEqual(r, got) {
		t.Fatalf("got %+v want %+v", got, r)
	}
}

func TestRecordRoundTripSOA(t *testing.T) {
	r := &Record{
		Name: "example.", Type: TypeSOA, Class: ClassIN, TTL: 3600,
		MName: "ns1.example.", RName: "hostmaster.example.",
		Serial: 2024010101, Refresh: 7200, Retry: 3600, Expire: 1209600, Minimum: 300,
	}
	got := roundTripRecord(t, r)
	if !reflect.DeepEqual(r, got) {
		t.Fatalf("got %+v want %+v", got, r)
	}
}

func TestRecordRoundTripHINFO(t *testing.T) {
	r := &Record{Name: "host.example.", Type: TypeHINFO, Class: ClassIN, TTL: 60, CPU: "INTEL-64", OS: "LINUX"}
	got := roundTripRecord(t, r)
	if !reflect.DeepEqual(r, got) {
		t.Fatalf("got %+v want %+v", got, r)
	}
}

func TestRecordRoundTripMX(t *testing.T) {
	r := &Record{Name: "example.", Type: TypeMX, Class: ClassIN, TTL: 60, Priority: 10, Exchange: "mail.example."}
	got := roundTripRecord(t, r)
	if !reflect.DeepEqual(r, got) {
		t.Fatalf("got %+v want %+v", got, r)
	}
}

func TestRecordRoundTripTXT(t *testing.T) {
	r := &Record{Name: "example.", Type: TypeTXT, Class: ClassIN, TTL: 60, TXT: []string{"v=spf1 -all", "second chunk"}}
	got := roundTripRecord(t, r)
	if !reflect.DeepEqual(r, got) {
		t.Fatalf("got %+v want %+v", got, r)
	}
}

func TestRecordRoundTripWKS(t *testing.T) {
	r := &Record{
		Name: "host.example.", Type: TypeWKS, Class: ClassIN, TTL: 60,
		WKSAddr: Addr4{10, 0, 0, 5}, WKSProto: 6, WKSPorts: []uint16{21, 23, 25, 80},
	}
	got := roundTripRecord(t, r)
	if !reflect.DeepEqual(r.WKSPorts, got.WKSPorts) {
		t.Fatalf("got ports %v want %v", got.WKSPorts, r.WKSPorts)
	}
	if got.WKSProto != 6 || got.WKSAddr != r.WKSAddr {
		t.Fatalf("got %+v want %+v", got, r)
	}
}

func TestWKSBitmapEncodeDecode(t *testing.T) {
	ports := []uint16{0, 7, 8, 15, 79}
	bm := encodeWKSBitmap(ports)
	got := decodeWKSBitmap(bm)
	if !reflect.DeepEqual(got, ports) {
		t.Fatalf("got %v want %v", got, ports)
	}
}

func TestRecordUnknownTypeSkipsAndConsumesBytes(t *testing.T) {
	buf := bitbuf.New()
	if err := WriteName(buf, "example."); err != nil {
		t.Fatal(err)
	}
	_ = buf.WriteU16(uint16(TypeMD)) // obsolete, known-but-unsupported
	_ = buf.WriteU16(uint16(ClassIN))
	_ = buf.WriteU32(60)
	_ = buf.WriteU16(4)
	_ = buf.WriteBytes([]byte{1, 2, 3, 4})
	// a following record must still be readable, proving bytes were consumed
	if err := WriteName(buf, "www.example."); err != nil {
		t.Fatal(err)
	}
	_ = buf.WriteU16(uint16(TypeA))
	_ = buf.WriteU16(uint16(ClassIN))
	_ = buf.WriteU32(300)
	_ = buf.WriteU16(4)
	_ = buf.WriteBytes([]byte{1, 1, 1, 1})

	if err := buf.SetReadPos(0); err != nil {
		t.Fatal(err)
	}
	_, err := ReadRecord(buf)
	if err != ErrUnknownType {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	next, err := ReadRecord(buf)
	if err != nil {
		t.Fatalf("second record should decode cleanly: %v", err)
	}
	if next.Type != TypeA || next.Name != "www.example." {
		t.Fatalf("unexpected second record: %+v", next)
	}
}

func TestRecordDataLenMismatch(t *testing.T) {
	buf := bitbuf.New()
	if err := WriteName(buf, "example."); err != nil {
		t.Fatal(err)
	}
	_ = buf.WriteU16(uint16(TypeA))
	_ = buf.WriteU16(uint16(ClassIN))
	_ = buf.WriteU32(60)
	_ = buf.WriteU16(5) // wrong: A rdata is always 4 bytes
	_ = buf.WriteBytes([]byte{1, 2, 3, 4, 9})

	if err := buf.SetReadPos(0); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRecord(buf); err != ErrDataLenMismatch {
		t.Fatalf("expected ErrDataLenMismatch, got %v", err)
	}
}
