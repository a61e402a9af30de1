// Package dnskey parses DNSKEY records as supplied by a signer and derives
// the DS fields (keytag, SHA-256 digest) needed for delegation updates.
package dnskey

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/miekg/dns"
)

// DigestTypeSHA256 is the only DS digest algorithm this tool produces.
// See RFC 4509.
const DigestTypeSHA256 = 2

// fieldCount is the number of whitespace-separated fields in a DNSKEY
// record line: domain, ttl, class, type, flags, protocol, algorithm, key.
const fieldCount = 8

// ParseError describes a malformed DNSKEY input line.
type ParseError struct {
	Field   string
	Value   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("parsing DNSKEY record: %s=%q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("parsing DNSKEY record: %s: %s", e.Field, e.Message)
}

// Record is the parsed representation of one DNSKEY record, with the
// derived DS fields populated. It is immutable once returned by Parse and
// lives only for the duration of one invocation.
type Record struct {
	Domain    string `json:"domain"`
	TTL       uint32 `json:"ttl"`
	Class     string `json:"class"`
	Type      string `json:"type"`
	Flags     uint16 `json:"flags"`
	Protocol  uint8  `json:"proto"`
	Algorithm uint8  `json:"algo"`
	PublicKey string `json:"pubkey"`

	KeyTag     uint16 `json:"keytag"`
	DigestType uint8  `json:"digesttype"`
	Digest     string `json:"digest"`
}

// Parse reads exactly one DNSKEY record line from r and derives the DS
// fields. The line carries the fields in the fixed order the signer emits
// them: domain, ttl, class, type, flags, protocol, algorithm, base64 key.
func Parse(r io.Reader) (*Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading DNSKEY record: %w", err)
		}
		return nil, &ParseError{Field: "input", Message: "empty input, expected one DNSKEY record line"}
	}
	return parseLine(scanner.Text())
}

func parseLine(line string) (*Record, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldCount {
		return nil, &ParseError{
			Field:   "input",
			Value:   line,
			Message: fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)),
		}
	}

	rec := &Record{
		// The signer hands us an FQDN. Normalize anyway so the wire
		// encoding always sees a trailing dot.
		Domain:     dns.Fqdn(fields[0]),
		Class:      fields[2],
		Type:       fields[3],
		PublicKey:  fields[7],
		DigestType: DigestTypeSHA256,
	}

	ttl, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return nil, &ParseError{Field: "ttl", Value: fields[1], Message: "not a 32-bit unsigned integer"}
	}
	rec.TTL = uint32(ttl)

	if _, ok := dns.StringToClass[rec.Class]; !ok {
		return nil, &ParseError{Field: "class", Value: rec.Class, Message: "unknown DNS class"}
	}
	if t, ok := dns.StringToType[rec.Type]; !ok || t != dns.TypeDNSKEY {
		return nil, &ParseError{Field: "type", Value: rec.Type, Message: "expected DNSKEY"}
	}

	flags, err := strconv.ParseUint(fields[4], 10, 16)
	if err != nil {
		return nil, &ParseError{Field: "flags", Value: fields[4], Message: "not a 16-bit unsigned integer"}
	}
	rec.Flags = uint16(flags)

	proto, err := strconv.ParseUint(fields[5], 10, 8)
	if err != nil {
		return nil, &ParseError{Field: "protocol", Value: fields[5], Message: "not an 8-bit unsigned integer"}
	}
	rec.Protocol = uint8(proto)

	algo, err := strconv.ParseUint(fields[6], 10, 8)
	if err != nil {
		return nil, &ParseError{Field: "algorithm", Value: fields[6], Message: "not an 8-bit unsigned integer"}
	}
	rec.Algorithm = uint8(algo)

	keyBytes, err := base64.StdEncoding.DecodeString(rec.PublicKey)
	if err != nil {
		return nil, &ParseError{Field: "pubkey", Value: rec.PublicKey, Message: "invalid base64"}
	}

	owner, err := ownerWire(rec.Domain)
	if err != nil {
		return nil, err
	}
	rdata := rdataWire(rec.Flags, rec.Protocol, rec.Algorithm, keyBytes)

	rec.KeyTag = keyTag(rdata)

	sum := sha256.New()
	sum.Write(owner)
	sum.Write(rdata)
	rec.Digest = hex.EncodeToString(sum.Sum(nil))

	return rec, nil
}

// ownerWire encodes an FQDN in DNS wire format: a one-byte length prefix
// per label followed by the label bytes. The trailing dot yields the empty
// terminal label, which contributes the closing zero byte.
func ownerWire(domain string) ([]byte, error) {
	var buf []byte
	for _, label := range strings.Split(domain, ".") {
		if len(label) > 63 {
			return nil, &ParseError{Field: "domain", Value: domain, Message: "label exceeds 63 octets"}
		}
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	return buf, nil
}

// rdataWire builds the DNSKEY RDATA: 2-byte flags in network byte order,
// 1-byte protocol, 1-byte algorithm, then the raw public key bytes.
func rdataWire(flags uint16, protocol, algorithm uint8, key []byte) []byte {
	buf := make([]byte, 4, 4+len(key))
	binary.BigEndian.PutUint16(buf, flags)
	buf[2] = protocol
	buf[3] = algorithm
	return append(buf, key...)
}

// keyTag computes the RFC 4034 Appendix B key tag over the DNSKEY RDATA.
// Bytes at even offsets contribute their value shifted left by 8, bytes at
// odd offsets contribute their value, and the carry is folded in at the end.
func keyTag(rdata []byte) uint16 {
	var ac uint32
	for i, b := range rdata {
		if i%2 == 0 {
			ac += uint32(b) << 8
		} else {
			ac += uint32(b)
		}
	}
	ac += ac >> 16
	return uint16(ac & 0xFFFF)
}

// DS renders the derived fields as DS RDATA in presentation format:
// "keytag algorithm digesttype digest".
func (r *Record) DS() string {
	return fmt.Sprintf("%d %d %d %s", r.KeyTag, r.Algorithm, r.DigestType, r.Digest)
}

// RR builds the equivalent dns.DNSKEY resource record, useful for
// diagnostics and for cross-checking the derivation.
func (r *Record) RR() *dns.DNSKEY {
	return &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   r.Domain,
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    r.TTL,
		},
		Flags:     r.Flags,
		Protocol:  r.Protocol,
		Algorithm: r.Algorithm,
		PublicKey: r.PublicKey,
	}
}
