package zone

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// Errors reported by the authoritative/sub-zone parsers.
var (
	ErrExpectedSOA     = errors.New("zone: first record must be a SOA owned by the zone top")
	ErrUnexpectedTok   = errors.New("zone: unexpected token")
	ErrUnexpectedRec   = errors.New("zone: unexpected record type here")
	ErrMalformedType   = errors.New("zone: unknown record type")
	ErrMalformed       = errors.New("zone: malformed zone data")
	ErrTtlTooLow       = errors.New("zone: ttl below zone minimum")
	ErrUnsupportedCls  = errors.New("zone: unsupported record class")
	ErrSubZoneNSNotTop = errors.New("zone: sub-zone NS record must be owned by the sub-zone top")
)

// IncludeFunc resolves the contents of a file named by $INCLUDE. Injected
// so the parser has no direct filesystem dependency.
type IncludeFunc func(filename string) (string, error)

var classKeywords = map[string]dnsmsg.Class{
	"IN": dnsmsg.ClassIN, "CS": dnsmsg.ClassCS, "CH": dnsmsg.ClassCH, "HS": dnsmsg.ClassHS,
}

var masterRecordTypes = map[string]dnsmsg.RecordType{
	"A": dnsmsg.TypeA, "NS": dnsmsg.TypeNS, "CNAME": dnsmsg.TypeCNAME, "SOA": dnsmsg.TypeSOA,
	"WKS": dnsmsg.TypeWKS, "PTR": dnsmsg.TypePTR, "HINFO": dnsmsg.TypeHINFO,
	"MX": dnsmsg.TypeMX, "TXT": dnsmsg.TypeTXT,
}

// Parser drives the Tokenizer through the authoritative master-file
// grammar of §4.7. A sub-zone is parsed by ParseSubZone in subparser.go,
// which reuses the same tokenizer and field-level helpers.
type Parser struct {
	tz          *Tokenizer
	origin      dnsmsg.Name
	zoneTop     dnsmsg.Name
	currentTTL  uint32
	minTTL      uint32
	lastName    dnsmsg.Name
	includeFn   IncludeFunc
	sawFirst    bool
}

// ParseAuth parses src as the authoritative zone rooted at zoneTop, with
// startingTTL as the initial current_ttl before the SOA sets min_ttl.
func ParseAuth(src string, zoneTop dnsmsg.Name, startingTTL uint32, includeFn IncludeFunc) (*Zone, error) {
	p := &Parser{
		tz:         NewTokenizer(src),
		origin:     zoneTop,
		zoneTop:    zoneTop,
		currentTTL: startingTTL,
		includeFn:  includeFn,
	}
	z := NewZone(zoneTop)
	if err := p.run(z, false); err != nil {
		return nil, err
	}
	if !p.sawFirst {
		return nil, ErrExpectedSOA
	}
	return z, nil
}

func (p *Parser) run(z *Zone, subZone bool) error {
	for {
		tok, err := p.tz.Next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case KindEnd:
			return nil
		case KindNewLine:
			continue
		case KindBlank:
			peeked, err := p.tz.Peek()
			if err != nil {
				return err
			}
			if peeked.Kind == KindNewLine || peeked.Kind == KindEnd {
				continue
			}
			if p.lastName == "" {
				return p.unexpected(tok)
			}
			if err := p.finishRecord(p.lastName, z, subZone); err != nil {
				return err
			}
		case KindOriginDir:
			if subZone {
				return fmt.Errorf("%w: directives are not permitted in sub-zones", ErrUnexpectedTok)
			}
			if err := p.handleOrigin(); err != nil {
				return err
			}
		case KindIncludeDir:
			if subZone {
				return fmt.Errorf("%w: directives are not permitted in sub-zones", ErrUnexpectedTok)
			}
			if err := p.handleInclude(z); err != nil {
				return err
			}
		case KindAt, KindString:
			if err := p.parseRecordFrom(tok, z, subZone); err != nil {
				return err
			}
		default:
			return p.unexpected(tok)
		}
	}
}

func (p *Parser) unexpected(tok Token) error {
	return &TokenError{Line: tok.Line, Cause: fmt.Errorf("%w: %s", ErrUnexpectedTok, tok.Kind)}
}

func (p *Parser) handleOrigin() error {
	tok, err := p.tz.NextAfterBlanks()
	if err != nil {
		return err
	}
	if tok.Kind != KindString {
		return p.unexpected(tok)
	}
	name, err := dnsmsg.NewName(tok.Text)
	if err != nil {
		return err
	}
	if !name.IsInZone(p.zoneTop) {
		return fmt.Errorf("%w: $ORIGIN %s", ErrNameNotInZone, name)
	}
	p.origin = name
	return p.expectLineEnd()
}

func (p *Parser) handleInclude(z *Zone) error {
	fileTok, err := p.tz.NextAfterBlanks()
	if err != nil {
		return err
	}
	if fileTok.Kind != KindString && fileTok.Kind != KindQString {
		return p.unexpected(fileTok)
	}
	childOrigin := p.origin
	nextTok, err := p.tz.PeekAfterBlanks()
	if err != nil {
		return err
	}
	if nextTok.Kind == KindString {
		_, _ = p.tz.NextAfterBlanks()
		name, err := dnsmsg.NewName(nextTok.Text)
		if err != nil {
			return err
		}
		childOrigin = name
	}
	if err := p.expectLineEnd(); err != nil {
		return err
	}
	if p.includeFn == nil {
		return fmt.Errorf("zone: $INCLUDE %s: no include resolver configured", fileTok.Text)
	}
	content, err := p.includeFn(fileTok.Text)
	if err != nil {
		return err
	}
	child := &Parser{
		tz:         NewTokenizer(content),
		origin:     childOrigin,
		zoneTop:    p.zoneTop,
		currentTTL: p.currentTTL,
		minTTL:     p.minTTL,
		includeFn:  p.includeFn,
		sawFirst:   p.sawFirst,
	}
	if err := child.run(z, false); err != nil {
		return err
	}
	return nil
}

func (p *Parser) expectLineEnd() error {
	tok, err := p.tz.NextAfterBlanks()
	if err != nil {
		return err
	}
	if tok.Kind != KindNewLine && tok.Kind != KindEnd {
		return p.unexpected(tok)
	}
	return nil
}

func (p *Parser) resolveName(text string) (dnsmsg.Name, error) {
	if strings.HasSuffix(text, ".") {
		return dnsmsg.NewName(text)
	}
	return dnsmsg.NewName(text + "." + string(p.origin))
}

// parseRecordFrom parses one record line given its already-consumed first
// token (which determines the owner name).
func (p *Parser) parseRecordFrom(first Token, z *Zone, subZone bool) error {
	var name dnsmsg.Name
	var err error
	switch first.Kind {
	case KindAt:
		name = p.origin
	case KindString:
		name, err = p.resolveName(first.Text)
		if err != nil {
			return err
		}
	default:
		return p.unexpected(first)
	}
	p.lastName = name
	return p.finishRecord(name, z, subZone)
}

// finishRecord is invoked both for an explicit name token and for a
// leading-Blank line (name = reused lastName, handled by the caller before
// this point by setting name).
func (p *Parser) finishRecord(name dnsmsg.Name, z *Zone, subZone bool) error {
	ttl := p.currentTTL
	class := dnsmsg.ClassIN

	for {
		tok, err := p.tz.PeekAfterBlanks()
		if err != nil {
			return err
		}
		if tok.Kind == KindNumber {
			_, _ = p.tz.NextAfterBlanks()
			ttl = tok.Num
			continue
		}
		if tok.Kind == KindString {
			if c, ok := classKeywords[strings.ToUpper(tok.Text)]; ok {
				_, _ = p.tz.NextAfterBlanks()
				class = c
				continue
			}
		}
		break
	}

	typeTok, err := p.tz.NextAfterBlanks()
	if err != nil {
		return err
	}
	if typeTok.Kind != KindString {
		return p.unexpected(typeTok)
	}
	rt, ok := masterRecordTypes[strings.ToUpper(typeTok.Text)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMalformedType, typeTok.Text)
	}
	if class != dnsmsg.ClassIN {
		return ErrUnsupportedCls
	}
	if subZone && rt != dnsmsg.TypeNS && rt != dnsmsg.TypeA {
		return fmt.Errorf("%w: %s", ErrUnexpectedRec, rt)
	}
	if subZone && rt == dnsmsg.TypeNS && name != p.zoneTop {
		return fmt.Errorf("%w: %s", ErrSubZoneNSNotTop, name)
	}
	if !subZone && !p.sawFirst && rt != dnsmsg.TypeSOA {
		return ErrExpectedSOA
	}
	if !subZone && p.sawFirst && rt == dnsmsg.TypeSOA {
		return fmt.Errorf("%w: SOA outside first position", ErrUnexpectedRec)
	}
	if !subZone && !p.sawFirst && rt == dnsmsg.TypeSOA && name != p.zoneTop {
		return fmt.Errorf("%w: %s", ErrNameNotZoneRoot, name)
	}

	rec := &dnsmsg.Record{Name: name, Type: rt, Class: class}
	if err := p.parseRData(rec); err != nil {
		return err
	}
	if err := p.expectLineEnd(); err != nil {
		return err
	}

	if rt == dnsmsg.TypeSOA {
		p.minTTL = rec.Minimum
	}
	if ttl < p.minTTL {
		return fmt.Errorf("%w: ttl=%d min=%d", ErrTtlTooLow, ttl, p.minTTL)
	}
	rec.TTL = ttl
	p.currentTTL = ttl
	p.sawFirst = true
	z.Add(rec)
	return nil
}

func (p *Parser) parseRData(rec *dnsmsg.Record) error {
	switch rec.Type {
	case dnsmsg.TypeA:
		tok, err := p.tz.NextAfterBlanks()
		if err != nil {
			return err
		}
		ip := net.ParseIP(tok.Text).To4()
		if ip == nil {
			return fmt.Errorf("%w: bad A address %q", ErrMalformed, tok.Text)
		}
		copy(rec.A[:], ip)
		return nil

	case dnsmsg.TypeNS, dnsmsg.TypeCNAME, dnsmsg.TypePTR:
		tok, err := p.tz.NextAfterBlanks()
		if err != nil {
			return err
		}
		host, err := p.resolveName(tok.Text)
		if err != nil {
			return err
		}
		rec.Host = host
		return nil

	case dnsmsg.TypeSOA:
		mname, err := p.nextName()
		if err != nil {
			return err
		}
		rname, err := p.nextName()
		if err != nil {
			return err
		}
		serial, err := p.nextNumber()
		if err != nil {
			return err
		}
		refresh, err := p.nextNumber()
		if err != nil {
			return err
		}
		retry, err := p.nextNumber()
		if err != nil {
			return err
		}
		expire, err := p.nextNumber()
		if err != nil {
			return err
		}
		minimum, err := p.nextNumber()
		if err != nil {
			return err
		}
		rec.MName, rec.RName = mname, rname
		rec.Serial, rec.Refresh, rec.Retry, rec.Expire, rec.Minimum = serial, refresh, retry, expire, minimum
		return nil

	case dnsmsg.TypeWKS:
		addrTok, err := p.tz.NextAfterBlanks()
		if err != nil {
			return err
		}
		ip := net.ParseIP(addrTok.Text).To4()
		if ip == nil {
			return fmt.Errorf("%w: bad WKS address %q", ErrMalformed, addrTok.Text)
		}
		copy(rec.WKSAddr[:], ip)
		protoTok, err := p.tz.NextAfterBlanks()
		if err != nil {
			return err
		}
		switch strings.ToUpper(protoTok.Text) {
		case "TCP":
			rec.WKSProto = 6
		case "UDP":
			rec.WKSProto = 17
		default:
			if protoTok.Kind != KindNumber {
				return fmt.Errorf("%w: bad WKS protocol %q", ErrMalformed, protoTok.Text)
			}
			rec.WKSProto = uint8(protoTok.Num)
		}
		for {
			tok, err := p.tz.PeekAfterBlanks()
			if err != nil {
				return err
			}
			if tok.Kind != KindNumber {
				break
			}
			_, _ = p.tz.NextAfterBlanks()
			rec.WKSPorts = append(rec.WKSPorts, uint16(tok.Num))
		}
		return nil

	case dnsmsg.TypeHINFO:
		cpu, err := p.tz.NextAfterBlanks()
		if err != nil {
			return err
		}
		os, err := p.tz.NextAfterBlanks()
		if err != nil {
			return err
		}
		rec.CPU = cpu.Text
		rec.OS = os.Text
		return nil

	case dnsmsg.TypeMX:
		prio, err := p.nextNumber()
		if err != nil {
			return err
		}
		exch, err := p.nextName()
		if err != nil {
			return err
		}
		rec.Priority = uint16(prio)
		rec.Exchange = exch
		return nil

	case dnsmsg.TypeTXT:
		for {
			tok, err := p.tz.PeekAfterBlanks()
			if err != nil {
				return err
			}
			if tok.Kind != KindString && tok.Kind != KindQString {
				break
			}
			_, _ = p.tz.NextAfterBlanks()
			rec.TXT = append(rec.TXT, tok.Text)
		}
		if len(rec.TXT) == 0 {
			return fmt.Errorf("%w: TXT record with no character-strings", ErrMalformed)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMalformedType, rec.Type)
}

func (p *Parser) nextName() (dnsmsg.Name, error) {
	tok, err := p.tz.NextAfterBlanks()
	if err != nil {
		return "", err
	}
	if tok.Kind != KindString {
		return "", p.unexpected(tok)
	}
	return p.resolveName(tok.Text)
}

func (p *Parser) nextNumber() (uint32, error) {
	tok, err := p.tz.NextAfterBlanks()
	if err != nil {
		return 0, err
	}
	if tok.Kind != KindNumber {
		return 0, p.unexpected(tok)
	}
	return tok.Num, nil
}
