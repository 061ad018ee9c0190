package dnsmsg

import "github.com/poyrazK/dnscore/internal/bitbuf"

// Question is a single (name, type, class) query entry. Exactly one
// question is carried per message on the boundary.
type Question struct {
	Name  Name
	Type  RecordType
	Class Class
}

// ReadQuestion decodes a Question. If the type number is wholly
// unrecognized it returns ErrUnknownType after consuming the trailing
// class field, so the caller can skip the item. A recognized-but-
// unsupported type or class returns ErrUnsupportedType/ErrUnsupportedClass.
func ReadQuestion(buf *bitbuf.Buffer) (*Question, error) {
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

	if !known {
		return nil, ErrUnknownType
	}
	if !rt.IsSupported() {
		return nil, ErrUnsupportedType
	}
	class, classKnown := decodeClass(rawClass)
	if !classKnown || class != ClassIN {
		return nil, ErrUnsupportedClass
	}
	return &Question{Name: name, Type: rt, Class: class}, nil
}

// Write encodes q, enforcing supported-for-question type and IN class.
func (q *Question) Write(buf *bitbuf.Buffer) error {
	if !q.Type.IsSupported() {
		return ErrUnsupportedType
	}
	if q.Class != ClassIN {
		return ErrUnsupportedClass
	}
	if err := WriteName(buf, q.Name); err != nil {
		return err
	}
	if err := buf.WriteU16(uint16(q.Type)); err != nil {
		return err
	}
	return buf.WriteU16(uint16(q.Class))
}
