package moca

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// RegisterDump holds the raw words of one device register read, each word a
// hexadecimal string as returned by the adapter.
type RegisterDump []string

// Word parses the 32-bit register at index i. The full unsigned range is
// accepted, including values with the top bit set.
func (d RegisterDump) Word(i int) (uint32, error) {
	if i < 0 || i >= len(d) {
		return 0, errors.Errorf("word index %d out of range (dump has %d words)", i, len(d))
	}

	s := strings.TrimPrefix(strings.TrimPrefix(d[i], "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse word %d", i)
	}

	return uint32(v), nil
}
