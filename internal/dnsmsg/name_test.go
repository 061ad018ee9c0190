package dnsmsg

import (
	"testing"

	"github.com/poyrazK/dnscore/internal/bitbuf"
)

func TestNewNameValidation(t *testing.T) {
	valid := []string{".", "example.", "www.example.", "a-b.example.", "a1.example."}
	for _, s := range valid {
		if _, err := NewName(s); err != nil {
			t.Errorf("NewName(%q) should be valid, got %v", s, err)
		}
	}

	invalid := []string{".foo.", "foo..bar.", "foo", "-foo.example.", "foo-.example."}
	for _, s := range invalid {
		if _, err := NewName(s); err == nil {
			t.Errorf("NewName(%q) should be invalid", s)
		}
	}
}

func TestNameLabelTooLong(t *testing.T) {
	label := make([]byte, 64)
	for i := range label {
		label[i] = 'a'
	}
	s := string(label) + ".example."
	if _, err := NewName(s); err != ErrLongLabel {
		t.Fatalf("expected ErrLongLabel, got %v", err)
	}
}

func TestNameRoundTrip(t *testing.T) {
	names := []Name{Root, "example.", "www.example.", "a.b.c.example."}
	for _, n := range names {
		buf := bitbuf.New()
		if err := WriteName(buf, n); err != nil {
			t.Fatalf("write %q: %v", n, err)
		}
		if err := buf.SetReadPos(0); err != nil {
			t.Fatal(err)
		}
		got, err := ReadName(buf)
		if err != nil {
			t.Fatalf("read %q: %v", n, err)
		}
		if got != n {
			t.Errorf("round trip: got %q want %q", got, n)
		}
	}
}

// Boundary: a pointer chain of 16 jumps fails MaxRedir.
func TestNamePointerChainTooDeep(t *testing.T) {
	buf := bitbuf.New()
	// Build 17 entries: 16 pointer hops, each pointing to the next, then a
	// real label so running out of jumps is the only failure mode.
	const hops = 17
	bases := make([]int, hops)
	for i := 0; i < hops; i++ {
		bases[i] = buf.Len()
		if i == hops-1 {
			_ = buf.WriteU8(3)
			_ = buf.WriteBytes([]byte("end"))
			_ = buf.WriteU8(0)
		} else {
			_ = buf.WriteU8(0) // placeholder, patched below
			_ = buf.WriteU8(0)
		}
	}
	// Patch each non-terminal hop to point at the next one.
	for i := 0; i < hops-1; i++ {
		target := bases[i+1]
		if err := buf.SetWritePos(bases[i] * 8); err != nil {
			t.Fatal(err)
		}
		_ = buf.WriteU8(uint8(0xC0 | (target>>8)&0x3F))
		_ = buf.WriteU8(uint8(target & 0xFF))
	}
	if err := buf.SetWritePos(buf.Len() * 8); err != nil {
		t.Fatal(err)
	}
	if err := buf.SetReadPos(bases[0] * 8); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadName(buf); err != ErrMaxRedir {
		t.Fatalf("expected ErrMaxRedir, got %v", err)
	}
}

func TestNameLongLabelOnWire(t *testing.T) {
	buf := bitbuf.New()
	_ = buf.WriteU8(64) // tag bits 01, triggers LongLabel per §4.2
	if err := buf.SetReadPos(0); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadName(buf); err != ErrLongLabel {
		t.Fatalf("expected ErrLongLabel, got %v", err)
	}
}

func TestIsInZone(t *testing.T) {
	host := Name("www.example.")
	zone := Name("example.")
	other := Name("other.")
	if !host.IsInZone(zone) {
		t.Error("www.example. should be in example.")
	}
	if host.IsInZone(other) {
		t.Error("www.example. should not be in other.")
	}
	if !zone.IsInZone(zone) {
		t.Error("a zone's own top node is in the zone")
	}
}
