// Package rdns translates reverse-DNS zone names into the CIDR prefixes
// they delegate. The signer speaks in domains; the registry API wants
// prefixes.
package rdns

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Reverse zone suffixes, trailing dot included.
const (
	suffixV4 = ".in-addr.arpa."
	suffixV6 = ".ip6.arpa."
)

// AddressFamilyError indicates a domain that is not under a reverse zone
// this tool understands.
type AddressFamilyError struct {
	Domain string
}

func (e *AddressFamilyError) Error() string {
	return fmt.Sprintf("cannot determine address family for %q: not under %s or %s", e.Domain, suffixV4, suffixV6)
}

// Prefix converts a reverse-DNS domain name into its canonical CIDR prefix.
// IPv4 zones (in-addr.arpa) delegate on octet boundaries, IPv6 zones
// (ip6.arpa) on nibble boundaries. The result is in compressed canonical
// form and has no address bits set beyond the prefix length.
func Prefix(domain string) (string, error) {
	switch {
	case strings.HasSuffix(domain, suffixV4):
		return prefixV4(strings.TrimSuffix(domain, suffixV4))
	case strings.HasSuffix(domain, suffixV6):
		return prefixV6(strings.TrimSuffix(domain, suffixV6))
	default:
		return "", &AddressFamilyError{Domain: domain}
	}
}

// prefixV4 translates the octet labels of an in-addr.arpa zone. A zone with
// N labels delegates an 8*N-bit prefix: "1.2.3" becomes 3.2.1.0/24.
func prefixV4(zone string) (string, error) {
	labels := strings.Split(zone, ".")
	if len(labels) == 0 || len(labels) > 4 {
		return "", fmt.Errorf("reverse zone %q: expected 1 to 4 octet labels", zone)
	}

	bits := len(labels) * 8

	// Reverse the labels and pad with zero octets to a full address.
	octets := make([]string, 0, 4)
	for i := len(labels) - 1; i >= 0; i-- {
		octets = append(octets, labels[i])
	}
	for len(octets) < 4 {
		octets = append(octets, "0")
	}

	return canonical(strings.Join(octets, ".")+"/"+strconv.Itoa(bits), zone)
}

// prefixV6 translates the nibble labels of an ip6.arpa zone. A zone with
// N nibbles delegates a 4*N-bit prefix.
func prefixV6(zone string) (string, error) {
	labels := strings.Split(zone, ".")

	bits := len(labels) * 4

	// Reverse the nibbles into address order.
	nibbles := make([]byte, 0, len(labels))
	for i := len(labels) - 1; i >= 0; i-- {
		label := labels[i]
		if len(label) != 1 || !isHexDigit(label[0]) {
			return "", fmt.Errorf("reverse zone %q: label %q is not a single hex nibble", zone, label)
		}
		nibbles = append(nibbles, lowerHex(label[0]))
	}

	// Pad to a hextet boundary and group.
	for len(nibbles)%4 != 0 {
		nibbles = append(nibbles, '0')
	}
	hextets := make([]string, 0, len(nibbles)/4)
	for i := 0; i < len(nibbles); i += 4 {
		hextets = append(hextets, string(nibbles[i:i+4]))
	}

	addr := strings.Join(hextets, ":")
	if len(hextets) < 8 {
		addr += "::"
	}

	return canonical(addr+"/"+strconv.Itoa(bits), zone)
}

// canonical parses the assembled prefix and verifies it is a true network
// address, returning the compressed canonical form.
func canonical(prefix, zone string) (string, error) {
	p, err := netip.ParsePrefix(prefix)
	if err != nil {
		return "", fmt.Errorf("reverse zone %q: %w", zone, err)
	}
	if p != p.Masked() {
		return "", fmt.Errorf("reverse zone %q: %s has address bits set beyond /%d", zone, prefix, p.Bits())
	}
	return p.String(), nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func lowerHex(c byte) byte {
	if c >= 'A' && c <= 'F' {
		return c + ('a' - 'A')
	}
	return c
}
