package dnsmsg

import (
	"net"
	"unicode/utf8"

	"github.com/poyrazK/dnscore/internal/bitbuf"
)

// Record is a tagged-variant resource record. Every record carries Name,
// Class, TTL and type-specific data; only the fields relevant to Type are
// populated.
type Record struct {
	Name  Name
	Type  RecordType
	Class Class
	TTL   uint32

	A Addr4 // TypeA

	Host Name // TypeNS, TypeCNAME, TypePTR

	// TypeSOA
	MName   Name
	RName   Name
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32

	// TypeWKS
	WKSAddr  Addr4
	WKSProto uint8
	WKSPorts []uint16

	// TypeHINFO
	CPU string
	OS  string

	// TypeMX
	Priority uint16
	Exchange Name

	// TypeTXT
	TXT []string
}

// Addr4 is an IPv4 address stored as its four octets.
type Addr4 [4]byte

func (a Addr4) String() string { return net.IP(a[:]).String() }

func readCharString(buf *bitbuf.Buffer) (string, error) {
	n, err := buf.ReadU8()
	if err != nil {
		return "", err
	}
	raw, err := buf.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", ErrNonUTF8String
	}
	return string(raw), nil
}

func writeCharString(buf *bitbuf.Buffer, s string) error {
	if len(s) > 255 {
		return ErrLongLabel
	}
	if err := buf.WriteU8(uint8(len(s))); err != nil {
		return err
	}
	return buf.WriteBytes([]byte(s))
}

// ReadRecord decodes one resource record. If Type is not in the supported
// set, the class, ttl, rdlength and rdlength bytes are consumed and
// ErrUnknownType is returned so the caller can skip the item.
func ReadRecord(buf *bitbuf.Buffer) (*Record, error) {
	name, err := ReadName(buf)
	if err != nil {
		return nil, err
	}
	rawType, err := buf.ReadU16()
	if err != nil {
		return nil, err
	}
	rt, known := decodeRecordType(rawType)

	rawClass, err := buf.ReadU16()
	if err != nil {
		return nil, err
	}
	ttl, err := buf.ReadU32()
	if err != nil {
		return nil, err
	}
	rdlength, err := buf.ReadU16()
	if err != nil {
		return nil, err
	}

	if !known || !rt.IsSupported() {
		if _, err := buf.ReadBytes(int(rdlength)); err != nil {
			return nil, err
		}
		return nil, ErrUnknownType
	}

	class, _ := decodeClass(rawClass)
	r := &Record{Name: name, Type: rt, Class: class, TTL: ttl}

	start := buf.ReadPos()
	if err := r.readRData(buf, rdlength); err != nil {
		return nil, err
	}
	end := buf.ReadPos()
	if end-start != int(rdlength)*8 {
		return nil, ErrDataLenMismatch
	}
	return r, nil
}

func (r *Record) readRData(buf *bitbuf.Buffer, rdlength uint16) error {
	switch r.Type {
	case TypeA:
		raw, err := buf.ReadBytes(4)
		if err != nil {
			return err
		}
		copy(r.A[:], raw)
	case TypeNS, TypeCNAME, TypePTR:
		host, err := ReadName(buf)
		if err != nil {
			return err
		}
		r.Host = host
	case TypeSOA:
		var err error
		if r.MName, err = ReadName(buf); err != nil {
			return err
		}
		if r.RName, err = ReadName(buf); err != nil {
			return err
		}
		if r.Serial, err = buf.ReadU32(); err != nil {
			return err
		}
		if r.Refresh, err = buf.ReadU32(); err != nil {
			return err
		}
		if r.Retry, err = buf.ReadU32(); err != nil {
			return err
		}
		if r.Expire, err = buf.ReadU32(); err != nil {
			return err
		}
		if r.Minimum, err = buf.ReadU32(); err != nil {
			return err
		}
	case TypeWKS:
		addr, err := buf.ReadBytes(4)
		if err != nil {
			return err
		}
		copy(r.WKSAddr[:], addr)
		proto, err := buf.ReadU8()
		if err != nil {
			return err
		}
		r.WKSProto = proto
		bitmapLen := int(rdlength) - 5
		if bitmapLen < 0 {
			return ErrDataLenMismatch
		}
		bitmap, err := buf.ReadBytes(bitmapLen)
		if err != nil {
			return err
		}
		r.WKSPorts = decodeWKSBitmap(bitmap)
	case TypeHINFO:
		var err error
		if r.CPU, err = readCharString(buf); err != nil {
			return err
		}
		if r.OS, err = readCharString(buf); err != nil {
			return err
		}
	case TypeMX:
		priority, err := buf.ReadU16()
		if err != nil {
			return err
		}
		r.Priority = priority
		exch, err := ReadName(buf)
		if err != nil {
			return err
		}
		r.Exchange = exch
	case TypeTXT:
		end := buf.ReadPos() + int(rdlength)*8
		for buf.ReadPos() < end {
			s, err := readCharString(buf)
			if err != nil {
				return err
			}
			r.TXT = append(r.TXT, s)
		}
	}
	return nil
}

// Write encodes r, writing the exact rdlength of the rdata it emits.
func (r *Record) Write(buf *bitbuf.Buffer) error {
	if !r.Type.IsSupported() {
		return ErrUnsupportedType
	}
	if err := WriteName(buf, r.Name); err != nil {
		return err
	}
	if err := buf.WriteU16(uint16(r.Type)); err != nil {
		return err
	}
	if err := buf.WriteU16(uint16(r.Class)); err != nil {
		return err
	}
	if err := buf.WriteU32(r.TTL); err != nil {
		return err
	}

	lenPos := buf.WritePos()
	if err := buf.WriteU16(0); err != nil {
		return err
	}
	start := buf.WritePos()
	if err := r.writeRData(buf); err != nil {
		return err
	}
	end := buf.WritePos()

	rdlen := (end - start) / 8
	if err := buf.SetWritePos(lenPos); err != nil {
		return err
	}
	if err := buf.WriteU16(uint16(rdlen)); err != nil {
		return err
	}
	return buf.SetWritePos(end)
}

func (r *Record) writeRData(buf *bitbuf.Buffer) error {
	switch r.Type {
	case TypeA:
		return buf.WriteBytes(r.A[:])
	case TypeNS, TypeCNAME, TypePTR:
		return WriteName(buf, r.Host)
	case TypeSOA:
		if err := WriteName(buf, r.MName); err != nil {
			return err
		}
		if err := WriteName(buf, r.RName); err != nil {
			return err
		}
		if err := buf.WriteU32(r.Serial); err != nil {
			return err
		}
		if err := buf.WriteU32(r.Refresh); err != nil {
			return err
		}
		if err := buf.WriteU32(r.Retry); err != nil {
			return err
		}
		if err := buf.WriteU32(r.Expire); err != nil {
			return err
		}
		return buf.WriteU32(r.Minimum)
	case TypeWKS:
		if err := buf.WriteBytes(r.WKSAddr[:]); err != nil {
			return err
		}
		if err := buf.WriteU8(r.WKSProto); err != nil {
			return err
		}
		return buf.WriteBytes(encodeWKSBitmap(r.WKSPorts))
	case TypeHINFO:
		if err := writeCharString(buf, r.CPU); err != nil {
			return err
		}
		return writeCharString(buf, r.OS)
	case TypeMX:
		if err := buf.WriteU16(r.Priority); err != nil {
			return err
		}
		return WriteName(buf, r.Exchange)
	case TypeTXT:
		if len(r.TXT) == 0 {
			return writeCharString(buf, "")
		}
		for _, s := range r.TXT {
			if err := writeCharString(buf, s); err != nil {
				return err
			}
		}
		return nil
	}
	return ErrUnsupportedType
}

// encodeWKSBitmap builds the RFC 1035 §3.4.2 port bitmap: bit
// 7-(port%8) of byte port/8 is set for each port present, and the bitmap
// is sized to the highest port given.
func encodeWKSBitmap(ports []uint16) []byte {
	if len(ports) == 0 {
		return nil
	}
	max := uint16(0)
	for _, p := range ports {
		if p > max {
			max = p
		}
	}
	bitmap := make([]byte, max/8+1)
	for _, p := range ports {
		bitmap[p/8] |= 1 << uint(7-p%8)
	}
	return bitmap
}

// decodeWKSBitmap reconstructs the ascending port list from a WKS bitmap.
func decodeWKSBitmap(bitmap []byte) []uint16 {
	var ports []uint16
	for byteIdx, b := range bitmap {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(7-bit)) != 0 {
				ports = append(ports, uint16(byteIdx*8+bit))
			}
		}
	}
	return ports
}
