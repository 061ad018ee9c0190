package dnsmsg

import "github.com/poyrazK/dnscore/internal/bitbuf"

// Header is the fixed 12-byte DNS message header.
type Header struct {
	ID                 uint16
	QR                 bool
	OpCode             OpCode
	AA                 bool
	TC                 bool
	RD                 bool
	RA                 bool
	Z                  uint8 // 3 reserved bits
	RCode              RCode
	QuestionCount      uint16
	AnswerCount        uint16
	AuthorityCount     uint16
	AdditionalCount    uint16
}

// IsSupported reports whether the header's opcode is usable by this
// implementation (standard query only).
func (h *Header) IsSupported() bool {
	return h.OpCode.IsSupported()
}

// ReadHeader decodes the 12-byte header at buf's current read position.
func ReadHeader(buf *bitbuf.Buffer) (*Header, error) {
	h := &Header{}
	id, err := buf.ReadU16()
	if err != nil {
		return nil, err
	}
	h.ID = id

	qr, err := buf.ReadBits(1)
	if err != nil {
		return nil, err
	}
	opcode, err := buf.ReadBits(4)
	if err != nil {
		return nil, err
	}
	aa, err := buf.ReadBits(1)
	if err != nil {
		return nil, err
	}
	tc, err := buf.ReadBits(1)
	if err != nil {
		return nil, err
	}
	rd, err := buf.ReadBits(1)
	if err != nil {
		return nil, err
	}

	ra, err := buf.ReadBits(1)
	if err != nil {
		return nil, err
	}
	z, err := buf.ReadBits(3)
	if err != nil {
		return nil, err
	}
	rcode, err := buf.ReadBits(4)
	if err != nil {
		return nil, err
	}

	op := OpCode(opcode)
	if op != OpStd && op != OpInv && op != OpSts {
		return nil, ErrUnknownOpCode
	}
	rc := RCode(rcode)
	if rc > RCodeRefused {
		return nil, ErrUnknownRespCode
	}

	h.QR = qr == 1
	h.OpCode = op
	h.AA = aa == 1
	h.TC = tc == 1
	h.RD = rd == 1
	h.RA = ra == 1
	h.Z = z
	h.RCode = rc

	if h.QuestionCount, err = buf.ReadU16(); err != nil {
		return nil, err
	}
	if h.AnswerCount, err = buf.ReadU16(); err != nil {
		return nil, err
	}
	if h.AuthorityCount, err = buf.ReadU16(); err != nil {
		return nil, err
	}
	if h.AdditionalCount, err = buf.ReadU16(); err != nil {
		return nil, err
	}
	return h, nil
}

// Write encodes the header at buf's current write position.
func (h *Header) Write(buf *bitbuf.Buffer) error {
	if err := buf.WriteU16(h.ID); err != nil {
		return err
	}
	if err := buf.WriteBits(boolBit(h.QR), 1); err != nil {
		return err
	}
	if err := buf.WriteBits(uint8(h.OpCode), 4); err != nil {
		return err
	}
	if err := buf.WriteBits(boolBit(h.AA), 1); err != nil {
		return err
	}
	if err := buf.WriteBits(boolBit(h.TC), 1); err != nil {
		return err
	}
	if err := buf.WriteBits(boolBit(h.RD), 1); err != nil {
		return err
	}
	if err := buf.WriteBits(boolBit(h.RA), 1); err != nil {
		return err
	}
	if err := buf.WriteBits(h.Z&0x07, 3); err != nil {
		return err
	}
	if err := buf.WriteBits(uint8(h.RCode), 4); err != nil {
		return err
	}
	if err := buf.WriteU16(h.QuestionCount); err != nil {
		return err
	}
	if err := buf.WriteU16(h.AnswerCount); err != nil {
		return err
	}
	if err := buf.WriteU16(h.AuthorityCount); err != nil {
		return err
	}
	return buf.WriteU16(h.AdditionalCount)
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
