package moca

// fmrFirstWord is the dump offset of the first rate field block.
const fmrFirstWord = 10

// Field holds the bit-packed rate inputs decoded for one (row, column) pair
// of nodes. The secondary fields carry the VL profile of a MoCA-2.x link and
// stay zero for 1.x payloads.
type Field struct {
	GapPrimary    uint32
	OfdmPrimary   uint32
	GapSecondary  uint32
	OfdmSecondary uint32
}

// cursor tracks the decoder position within one row's dump. The alignment
// flag alternates per column starting true, and the word index only ever
// moves forward.
type cursor struct {
	word    int
	aligned bool
}

func newCursor() cursor {
	return cursor{word: fmrFirstWord, aligned: true}
}

// EffectiveVersion returns the payload version for one matrix cell. When the
// network coordinator predates MoCA 2.0 the link negotiates down to the
// lesser of the row and column versions; on 2.0+ networks the row version
// alone fixes the layout.
func EffectiveVersion(ncVer, rowVer, colVer Version) Version {
	if ncVer < Version20 {
		return minVersion(rowVer, colVer)
	}
	return rowVer
}

// decodeField extracts the next column's field from the dump and returns the
// advanced cursor. On failure the returned field is all zero while the
// cursor has still moved per the layout rules, so one bad cell never shifts
// the columns after it.
func decodeField(dump RegisterDump, cur cursor, effective Version) (Field, cursor, error) {
	var (
		f       Field
		err     error
		errWord int
	)

	read := func(i int) uint32 {
		if err != nil {
			return 0
		}
		var w uint32
		if w, err = dump.Word(i); err != nil {
			errWord = i
		}
		return w
	}

	switch effective {
	case Version20, Version25:
		if cur.aligned {
			w0 := read(cur.word)
			w1 := read(cur.word + 1)
			f.GapPrimary = w0 >> 24
			f.GapSecondary = (w0 >> 16) & 0xff
			f.OfdmPrimary = w0 & 0xffff
			f.OfdmSecondary = w1 >> 16
			cur.word++
		} else {
			w0 := read(cur.word)
			w1 := read(cur.word + 1)
			f.GapPrimary = (w0 >> 8) & 0xff
			f.GapSecondary = w0 & 0xff
			f.OfdmPrimary = w1 >> 16
			f.OfdmSecondary = w1 & 0xffff
			cur.word += 2
		}
	default:
		w0 := read(cur.word)
		if cur.aligned {
			f.GapPrimary = w0 >> 27
			f.OfdmPrimary = (w0 >> 16) & 0x7ff
		} else {
			f.GapPrimary = (w0 >> 11) & 0x1f
			f.OfdmPrimary = w0 & 0x7ff
			cur.word++
		}
	}
	cur.aligned = !cur.aligned

	if err != nil {
		return Field{}, cur, DecodeError{Word: errWord, Err: err}
	}

	return f, cur, nil
}

// FieldDecoder walks one node's FMR dump, yielding the rate fields for each
// column node in active-node order. State resets per dump, so every row gets
// its own decoder.
type FieldDecoder struct {
	dump RegisterDump
	cur  cursor
}

// NewFieldDecoder creates a FieldDecoder for the given dump.
func NewFieldDecoder(dump RegisterDump) *FieldDecoder {
	return &FieldDecoder{
		dump: dump,
		cur:  newCursor(),
	}
}

// Next decodes the field for the next column node given the effective
// version of that cell. A DecodeError is local to the cell: the returned
// field is zero and the decoder remains usable for the following columns.
func (d *FieldDecoder) Next(effective Version) (Field, error) {
	f, cur, err := decodeField(d.dump, d.cur, effective)
	d.cur = cur
	return f, err
}
