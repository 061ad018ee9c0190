package zone

import (
	"errors"
	"strings"
	"testing"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

const exampleZone = `$ORIGIN example.
@       3600 IN SOA ns1.example. hostmaster.example. (
                2024010101 ; serial
                7200       ; refresh
                3600       ; retry
                1209600    ; expire
                300 )      ; minimum
@       3600 IN NS  ns1.example.
ns1     3600 IN A   10.0.0.9
www     300  IN A   10.0.0.1
`

func mustParseAuth(t *testing.T, src string) *Zone {
	t.Helper()
	top, err := dnsmsg.NewName("example.")
	if err != nil {
		t.Fatal(err)
	}
	z, err := ParseAuth(src, top, 3600, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return z
}

func TestParseAuthZoneBasics(t *testing.T) {
	z := mustParseAuth(t, exampleZone)

	soa, ok := z.Lookup("example.", dnsmsg.TypeSOA)
	if !ok || len(soa) != 1 {
		t.Fatalf("expected one SOA at zone top, got %v", soa)
	}
	if soa[0].Serial != 2024010101 || soa[0].Minimum != 300 {
		t.Fatalf("SOA fields not parsed: %+v", soa[0])
	}

	ns, ok := z.Lookup("example.", dnsmsg.TypeNS)
	if !ok || len(ns) != 1 || ns[0].Host != "ns1.example." {
		t.Fatalf("NS not parsed correctly: %v", ns)
	}

	a, ok := z.Lookup("www.example.", dnsmsg.TypeA)
	if !ok || len(a) != 1 || a[0].A != (dnsmsg.Addr4{10, 0, 0, 1}) {
		t.Fatalf("www A not parsed correctly: %v", a)
	}
	if a[0].TTL != 300 {
		t.Fatalf("expected explicit ttl 300, got %d", a[0].TTL)
	}
}

func TestParseAuthRejectsNonSOAFirst(t *testing.T) {
	top, _ := dnsmsg.NewName("example.")
	src := "@ 3600 IN NS ns1.example.\n"
	if _, err := ParseAuth(src, top, 3600, nil); err != ErrExpectedSOA {
		t.Fatalf("expected ErrExpectedSOA, got %v", err)
	}
}

func TestParseAuthTtlTooLow(t *testing.T) {
	top, _ := dnsmsg.NewName("example.")
	src := `@ 3600 IN SOA ns1.example. host.example. ( 1 7200 3600 1209600 300 )
www 60 IN A 10.0.0.1
`
	if _, err := ParseAuth(src, top, 3600, nil); err == nil {
		t.Fatal("expected TtlTooLow error for ttl below the SOA minimum")
	}
}

func TestParseAuthLeadingBlankReusesName(t *testing.T) {
	src := `@ 3600 IN SOA ns1.example. host.example. ( 1 7200 3600 1209600 300 )
www 300 IN A 10.0.0.1
     300 IN A 10.0.0.2
`
	z := mustParseAuth(t, src)
	recs, ok := z.Lookup("www.example.", dnsmsg.TypeA)
	if !ok || len(recs) != 2 {
		t.Fatalf("expected 2 A records sharing the reused name, got %v", recs)
	}
}

func TestParseAuthOriginOutsideZoneFails(t *testing.T) {
	src := `$ORIGIN other.
@ 3600 IN SOA ns1.other. host.other. ( 1 7200 3600 1209600 300 )
`
	top, _ := dnsmsg.NewName("example.")
	if _, err := ParseAuth(src, top, 3600, nil); err == nil {
		t.Fatal("expected error for $ORIGIN outside the auth zone")
	}
}

func TestParseAuthInclude(t *testing.T) {
	included := "sub 300 IN A 10.0.0.42\n"
	src := "@ 3600 IN SOA ns1.example. host.example. ( 1 7200 3600 1209600 300 )\n$INCLUDE extra.zone\n"
	top, _ := dnsmsg.NewName("example.")
	z, err := ParseAuth(src, top, 3600, func(filename string) (string, error) {
		if filename != "extra.zone" {
			t.Fatalf("unexpected include filename %q", filename)
		}
		return included, nil
	})
	if err != nil {
		t.Fatalf("parse with include: %v", err)
	}
	a, ok := z.Lookup("sub.example.", dnsmsg.TypeA)
	if !ok || len(a) != 1 {
		t.Fatalf("included record missing: %v", a)
	}
}

func TestParseSubZoneOnlyNSAndA(t *testing.T) {
	top, _ := dnsmsg.NewName("sub.example.")
	src := "@ IN NS ns1.sub.example.\nns1 IN A 10.0.0.2\n"
	z, err := ParseSubZone(src, top, 3600, 60)
	if err != nil {
		t.Fatalf("parse sub-zone: %v", err)
	}
	if ns, ok := z.Lookup(top, dnsmsg.TypeNS); !ok || len(ns) != 1 {
		t.Fatalf("expected one NS at sub-zone top, got %v", ns)
	}
}

func TestParseSubZoneRejectsOtherTypes(t *testing.T) {
	top, _ := dnsmsg.NewName("sub.example.")
	src := "@ IN NS ns1.sub.example.\nwww IN CNAME ns1.sub.example.\n"
	if _, err := ParseSubZone(src, top, 3600, 60); err == nil {
		t.Fatal("expected error for CNAME in sub-zone")
	}
}

func TestParseSubZoneRejectsNSBelowTop(t *testing.T) {
	top, _ := dnsmsg.NewName("sub.example.")
	src := "@ IN NS ns1.sub.example.\nns1 IN A 10.0.0.2\nfoo IN NS ns2.sub.example.\n"
	_, err := ParseSubZone(src, top, 3600, 60)
	if !errors.Is(err, ErrSubZoneNSNotTop) {
		t.Fatalf("expected ErrSubZoneNSNotTop, got %v", err)
	}
}

func TestParseSubZoneRejectsDirectives(t *testing.T) {
	top, _ := dnsmsg.NewName("sub.example.")
	src := "$ORIGIN sub.example.\n@ IN NS ns1.sub.example.\n"
	if _, err := ParseSubZone(src, top, 3600, 60); err == nil {
		t.Fatal("expected error for directive in sub-zone")
	}
}

func TestParseTXTMultipleStrings(t *testing.T) {
	src := `@ 3600 IN SOA ns1.example. host.example. ( 1 7200 3600 1209600 300 )
@ 300 IN TXT "v=spf1" "second part"
`
	z := mustParseAuth(t, src)
	txt, ok := z.Lookup("example.", dnsmsg.TypeTXT)
	if !ok || len(txt) != 1 || len(txt[0].TXT) != 2 {
		t.Fatalf("TXT not parsed correctly: %v", txt)
	}
	if txt[0].TXT[0] != "v=spf1" || txt[0].TXT[1] != "second part" {
		t.Fatalf("unexpected TXT strings: %v", txt[0].TXT)
	}
}

func TestParseUnclosedParenPropagates(t *testing.T) {
	src := "@ 3600 IN SOA ns1.example. host.example. ( 1 7200 3600\n"
	top, _ := dnsmsg.NewName("example.")
	_, err := ParseAuth(src, top, 3600, nil)
	if err == nil || !strings.Contains(err.Error(), "unclosed") {
		t.Fatalf("expected unclosed paren error, got %v", err)
	}
}
