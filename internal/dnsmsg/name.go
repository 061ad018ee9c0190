package dnsmsg

import (
	"strings"

	"github.com/poyrazK/dnscore/internal/bitbuf"
)

const maxPointerJumps = 15

// Name is an absolute domain name, validated and stored lowercase, always
// ending in ".". Equality is byte-exact after validation.
type Name string

// Root is the zero-label name ".".
const Root Name = "."

// NewName validates s and returns it as a Name. s must already end in "."
// (the bare root is "." itself).
func NewName(s string) (Name, error) {
	if s == "" || s[len(s)-1] != '.' {
		return "", ErrRelativeName
	}
	if len(s) > 255 {
		return "", ErrLongName
	}
	if s == "." {
		return Root, nil
	}
	body := s[:len(s)-1]
	for _, label := range strings.Split(body, ".") {
		if err := validateLabel(label); err != nil {
			return "", err
		}
	}
	return Name(strings.ToLower(s)), nil
}

func validateLabel(label string) error {
	if label == "" {
		return ErrBadLabel
	}
	if len(label) > 63 {
		return ErrLongLabel
	}
	if !isAlnum(label[0]) || !isAlnum(label[len(label)-1]) {
		return ErrBadLabel
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if !isAlnum(c) && c != '-' {
			return ErrBadLabel
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// labels splits n into its component labels, empty for the root.
func (n Name) labels() []string {
	if n == Root || n == "" {
		return nil
	}
	return strings.Split(string(n)[:len(n)-1], ".")
}

// IsInZone reports whether n's labels, compared right-to-left, share z's
// suffix labels (n is equal to or a descendant of z).
func (n Name) IsInZone(z Name) bool {
	nl, zl := n.labels(), z.labels()
	if len(zl) > len(nl) {
		return false
	}
	for i := 1; i <= len(zl); i++ {
		if nl[len(nl)-i] != zl[len(zl)-i] {
			return false
		}
	}
	return true
}

// IsInZoneRoot reports whether n equals z exactly.
func (n Name) IsInZoneRoot(z Name) bool {
	return n == z
}

// ReadName decodes a Name from buf at its current read position, following
// compression pointers per §4.2.
func ReadName(buf *bitbuf.Buffer) (Name, error) {
	var labels []string
	jumps := 0
	resumePos := -1
	total := 0

	for {
		lenByte, err := buf.ReadU8()
		if err != nil {
			return "", err
		}
		tag := lenByte & 0xC0
		switch {
		case tag == 0xC0:
			if jumps >= maxPointerJumps {
				return "", ErrMaxRedir
			}
			second, err := buf.ReadU8()
			if err != nil {
				return "", err
			}
			if resumePos == -1 {
				resumePos = buf.ReadPos()
			}
			offset := (int(lenByte&0x3F) << 8) | int(second)
			if err := buf.SetReadPos(offset * 8); err != nil {
				return "", err
			}
			jumps++
		case lenByte == 0:
			goto done
		case tag == 0x00:
			length := int(lenByte)
			if length > 63 {
				return "", ErrLongLabel
			}
			raw, err := buf.ReadBytes(length)
			if err != nil {
				return "", err
			}
			total += length + 1
			if total > 255 {
				return "", ErrLongName
			}
			labels = append(labels, strings.ToLower(string(raw)))
		default:
			return "", ErrLongLabel
		}
	}

done:
	if resumePos != -1 {
		if err := buf.SetReadPos(resumePos); err != nil {
			return "", err
		}
	}
	if len(labels) == 0 {
		return Root, nil
	}
	name := strings.Join(labels, ".") + "."
	return NewName(name)
}

// WriteName encodes n with no compression: each label length-prefixed,
// terminated by a zero byte.
func WriteName(buf *bitbuf.Buffer, n Name) error {
	for _, label := range n.labels() {
		if err := buf.WriteU8(uint8(len(label))); err != nil {
			return err
		}
		if err := buf.WriteBytes([]byte(label)); err != nil {
			return err
		}
	}
	return buf.WriteU8(0)
}
