package domain

import (
	"fmt"
	"strings"
)

// Address identifies an account: a 0x-prefixed 20-byte hex string,
// normalized to lowercase. The empty string means no address.
type Address string

const addressHexLen = 40

// ParseAddress validates and normalizes an address string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("address %q is missing the 0x prefix", s)
	}
	hexPart := strings.ToLower(s[2:])
	if len(hexPart) != addressHexLen {
		return "", fmt.Errorf("address %q must encode 20 bytes", s)
	}
	for _, c := range hexPart {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("address %q contains a non-hex character", s)
		}
	}
	return Address("0x" + hexPart), nil
}

// String returns the normalized address text.
func (a Address) String() string {
	return string(a)
}
