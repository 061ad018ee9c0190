package dnsmsg

import (
	"encoding/binary"
	"errors"

	"github.com/poyrazK/dnscore/internal/bitbuf"
)

// MaxUDPSize is the classic DNS over UDP response size ceiling.
const MaxUDPSize = 512

// Message is a full DNS message: header plus its four sections.
type Message struct {
	Header      Header
	Questions   []*Question
	Answers     []*Record
	Authorities []*Record
	Additionals []*Record
}

// DecodeMessage decodes header → questions → answers → authorities →
// additionals. An ErrUnknownType from an individual item is skipped (its
// bytes are already consumed); any other error aborts with a SectionError.
func DecodeMessage(data []byte) (*Message, error) {
	buf := bitbuf.New()
	buf.Load(data)

	hdr, err := ReadHeader(buf)
	if err != nil {
		return nil, sectionErr(SectionHeader, 0, err)
	}
	m := &Message{Header: *hdr}

	for i := 0; i < int(hdr.QuestionCount); i++ {
		q, err := ReadQuestion(buf)
		if err != nil {
			if errors.Is(err, ErrUnknownType) {
				continue
			}
			return nil, sectionErr(SectionQuestion, i, err)
		}
		m.Questions = append(m.Questions, q)
	}

	readRecords := func(n int, section Section) ([]*Record, error) {
		var out []*Record
		for i := 0; i < n; i++ {
			r, err := ReadRecord(buf)
			if err != nil {
				if errors.Is(err, ErrUnknownType) {
					continue
				}
				return nil, sectionErr(section, i, err)
			}
			out = append(out, r)
		}
		return out, nil
	}

	var err2 error
	if m.Answers, err2 = readRecords(int(hdr.AnswerCount), SectionAnswer); err2 != nil {
		return nil, err2
	}
	if m.Authorities, err2 = readRecords(int(hdr.AuthorityCount), SectionAuthority); err2 != nil {
		return nil, err2
	}
	if m.Additionals, err2 = readRecords(int(hdr.AdditionalCount), SectionAdditional); err2 != nil {
		return nil, err2
	}
	return m, nil
}

// HeaderOnly decodes just the 12-byte header, used to compose a minimal
// error response preserving the request id when the body fails to parse.
func HeaderOnly(data []byte) (*Header, error) {
	buf := bitbuf.New()
	buf.Load(data)
	return ReadHeader(buf)
}

func (m *Message) encode(limitBytes int) ([]byte, error) {
	buf := bitbuf.New()
	hdr := m.Header
	hdr.QuestionCount = uint16(len(m.Questions))
	hdr.AnswerCount = uint16(len(m.Answers))
	hdr.AuthorityCount = uint16(len(m.Authorities))
	hdr.AdditionalCount = uint16(len(m.Additionals))

	if err := hdr.Write(buf); err != nil {
		return nil, sectionErr(SectionHeader, 0, err)
	}
	for i, q := range m.Questions {
		if err := q.Write(buf); err != nil {
			return nil, sectionErr(SectionQuestion, i, err)
		}
	}

	truncated := false
	writeSection := func(records []*Record, section Section) (int, error) {
		if truncated {
			return 0, nil
		}
		count := 0
		for i, rec := range records {
			before := buf.WritePos()
			if err := rec.Write(buf); err != nil {
				return 0, sectionErr(section, i, err)
			}
			if limitBytes > 0 && buf.Len() > limitBytes {
				buf.Truncate(before)
				truncated = true
				break
			}
			count++
		}
		return count, nil
	}

	anCount, err := writeSection(m.Answers, SectionAnswer)
	if err != nil {
		return nil, err
	}
	nsCount, err := writeSection(m.Authorities, SectionAuthority)
	if err != nil {
		return nil, err
	}
	arCount, err := writeSection(m.Additionals, SectionAdditional)
	if err != nil {
		return nil, err
	}

	end := buf.WritePos()
	hdr.AnswerCount = uint16(anCount)
	hdr.AuthorityCount = uint16(nsCount)
	hdr.AdditionalCount = uint16(arCount)
	hdr.TC = truncated
	if err := buf.SetWritePos(0); err != nil {
		return nil, err
	}
	if err := hdr.Write(buf); err != nil {
		return nil, err
	}
	if err := buf.SetWritePos(end); err != nil {
		return nil, err
	}
	return buf.IntoVec(), nil
}

// EncodeUDP encodes m, truncating to MaxUDPSize and setting TC if any
// records had to be dropped.
func (m *Message) EncodeUDP() ([]byte, error) {
	return m.encode(MaxUDPSize)
}

// EncodeTCP encodes m in full, framed by a 16-bit big-endian length prefix.
func (m *Message) EncodeTCP() ([]byte, error) {
	data, err := m.encode(0)
	if err != nil {
		return nil, err
	}
	framed := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(framed, uint16(len(data)))
	copy(framed[2:], data)
	return framed, nil
}
