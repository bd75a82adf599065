package moca

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// pad returns a dump whose words 0-9 are zero, followed by the given payload
// words starting at the first rate field block.
func pad(payload ...string) RegisterDump {
	dump := make(RegisterDump, fmrFirstWord, fmrFirstWord+len(payload))
	for i := range dump {
		dump[i] = "0x0"
	}
	return append(dump, payload...)
}

func TestEffectiveVersion(t *testing.T) {
	tests := []struct {
		name     string
		ncVer    Version
		rowVer   Version
		colVer   Version
		expected Version
	}{
		{name: "legacy nc negotiates down", ncVer: Version11, rowVer: Version20, colVer: Version11, expected: Version11},
		{name: "legacy nc equal versions", ncVer: Version11, rowVer: Version20, colVer: Version25, expected: Version20},
		{name: "modern nc row wins", ncVer: Version20, rowVer: Version25, colVer: Version11, expected: Version25},
		{name: "modern nc ignores column", ncVer: Version25, rowVer: Version11, colVer: Version25, expected: Version11},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tst.expected, EffectiveVersion(tst.ncVer, tst.rowVer, tst.colVer))
		})
	}
}

func TestFieldDecoderMoCA2(t *testing.T) {
	// Word 10 carries the aligned field block, words 11-12 the unaligned one
	// that follows it. The junk bits outside each field must be ignored.
	dump := pad("0x050701F4", "0x012C0904", "0x025800C8")

	assert := require.New(t)
	dec := NewFieldDecoder(dump)

	f, err := dec.Next(Version20)
	assert.NoError(err)
	assert.Equal(Field{GapPrimary: 5, OfdmPrimary: 500, GapSecondary: 7, OfdmSecondary: 300}, f)
	assert.Equal(cursor{word: 11, aligned: false}, dec.cur)

	f, err = dec.Next(Version25)
	assert.NoError(err)
	assert.Equal(Field{GapPrimary: 9, OfdmPrimary: 600, GapSecondary: 4, OfdmSecondary: 200}, f)
	assert.Equal(cursor{word: 13, aligned: true}, dec.cur)
}

func TestFieldDecoderMoCA1(t *testing.T) {
	// One word packs two field blocks: the aligned one in the high bits, the
	// unaligned one in the low bits.
	dump := pad("0x1ABC1234")

	assert := require.New(t)
	dec := NewFieldDecoder(dump)

	f, err := dec.Next(Version11)
	assert.NoError(err)
	assert.Equal(Field{GapPrimary: 3, OfdmPrimary: 700}, f)
	assert.Equal(cursor{word: 10, aligned: false}, dec.cur)

	f, err = dec.Next(Version11)
	assert.NoError(err)
	assert.Equal(Field{GapPrimary: 2, OfdmPrimary: 564}, f)
	assert.Equal(cursor{word: 11, aligned: true}, dec.cur)
}

func TestFieldDecoderAlternation(t *testing.T) {
	words := make([]string, 32)
	for i := range words {
		words[i] = "0x11223344"
	}

	for _, ver := range []Version{Version11, Version20, Version25} {
		t.Run(ver.String(), func(t *testing.T) {
			assert := require.New(t)

			cur := newCursor()
			assert.True(cur.aligned)

			for i := 0; i < 8; i++ {
				_, next, err := decodeField(pad(words...), cur, ver)
				assert.NoError(err)
				assert.Equal(!cur.aligned, next.aligned)
				assert.GreaterOrEqual(next.word, cur.word)
				cur = next
			}
		})
	}
}

func TestFieldDecoderSoftErrors(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		assert := require.New(t)

		// Word 10 present, word 11 missing: the aligned MoCA-2.x block needs
		// both, so the cell fails while the cursor still advances.
		dec := NewFieldDecoder(pad("0x050701F4"))

		f, err := dec.Next(Version20)
		assert.Error(err)

		var decodeErr DecodeError
		assert.ErrorAs(err, &decodeErr)
		assert.Equal(11, decodeErr.Word)
		assert.Equal(Field{}, f)
		assert.Equal(cursor{word: 11, aligned: false}, dec.cur)

		// The decoder stays usable; the next cell fails too but keeps moving.
		f, err = dec.Next(Version20)
		assert.Error(err)
		assert.Equal(Field{}, f)
		assert.Equal(cursor{word: 13, aligned: true}, dec.cur)
	})

	t.Run("unparseable word", func(t *testing.T) {
		assert := require.New(t)

		dec := NewFieldDecoder(pad("zzz"))

		f, err := dec.Next(Version11)
		assert.Error(err)

		var decodeErr DecodeError
		assert.ErrorAs(err, &decodeErr)
		assert.Equal(10, decodeErr.Word)
		assert.Equal(Field{}, f)
		assert.Equal(cursor{word: 10, aligned: false}, dec.cur)
	})

	t.Run("empty dump", func(t *testing.T) {
		assert := require.New(t)

		dec := NewFieldDecoder(nil)

		f, err := dec.Next(Version20)
		assert.Error(err)
		assert.Equal(Field{}, f)
	})
}
