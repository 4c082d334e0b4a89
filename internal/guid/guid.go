// Package guid implements the COM GUID value type used throughout the
// type library model and the importer.
package guid

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// GUID is a COM globally unique identifier in its canonical byte layout:
// one little-endian uint32, two little-endian uint16s, then eight bytes.
type GUID [16]byte

// Zero is GUID_NULL. Records and other minor types frequently carry it.
var Zero GUID

// IsZero reports whether g is GUID_NULL.
func (g GUID) IsZero() bool { return g == Zero }

// String renders the registry form: {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}.
func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		uint32(g[0])|uint32(g[1])<<8|uint32(g[2])<<16|uint32(g[3])<<24,
		uint16(g[4])|uint16(g[5])<<8,
		uint16(g[6])|uint16(g[7])<<8,
		g[8], g[9],
		g[10], g[11], g[12], g[13], g[14], g[15])
}

// Bare renders the registry form without braces, the spelling custom
// attributes carry.
func (g GUID) Bare() string {
	s := g.String()
	return s[1 : len(s)-1]
}

// Parse accepts the registry form with or without braces, in any case.
func Parse(s string) (GUID, error) {
	var g GUID
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	parts := strings.Split(s, "-")
	if len(parts) != 5 ||
		len(parts[0]) != 8 || len(parts[1]) != 4 || len(parts[2]) != 4 ||
		len(parts[3]) != 4 || len(parts[4]) != 12 {
		return g, fmt.Errorf("guid: malformed %q", s)
	}
	raw, err := hex.DecodeString(strings.Join(parts, ""))
	if err != nil {
		return g, fmt.Errorf("guid: malformed %q: %w", s, err)
	}
	// First three groups are little-endian on the wire.
	g[0], g[1], g[2], g[3] = raw[3], raw[2], raw[1], raw[0]
	g[4], g[5] = raw[5], raw[4]
	g[6], g[7] = raw[7], raw[6]
	copy(g[8:], raw[8:])
	return g, nil
}

// MustParse is Parse for compile-time constants; it panics on bad input.
func MustParse(s string) GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}
