package moca

import "fmt"

// Version is a MoCA protocol version byte. The high nibble carries the major
// version (0x1 for MoCA 1.x, 0x2 for MoCA 2.x), the low nibble the minor.
// Versions order numerically.
type Version uint8

// Known version bytes.
const (
	Version10 Version = 0x10
	Version11 Version = 0x11
	Version20 Version = 0x20
	Version25 Version = 0x25
)

// Major returns the major version nibble.
func (v Version) Major() uint8 {
	return uint8(v >> 4)
}

// Minor returns the minor version nibble.
func (v Version) Minor() uint8 {
	return uint8(v & 0x0f)
}

// String implements the Stringer interface.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

func minVersion(a, b Version) Version {
	if a < b {
		return a
	}
	return b
}
