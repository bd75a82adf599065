package moca

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileRate(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		gap      uint32
		ofdm     uint32
		expected uint32
	}{
		{name: "100MHz", profile: Profile100MHz, gap: 5, ofdm: 500, expected: 78},
		{name: "50MHz", profile: Profile50MHz, gap: 2, ofdm: 300, expected: 51},
		{name: "zero ofdm", profile: Profile100MHz, gap: 5, ofdm: 0, expected: 0},
		{name: "max fields", profile: Profile100MHz, gap: 255, ofdm: 65535, expected: 5332},
		{name: "unknown profile", profile: ProfileUnknown, gap: 5, ofdm: 500, expected: 0},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tst.expected, tst.profile.Rate(tst.gap, tst.ofdm))
		})
	}
}

func TestPrimaryRate(t *testing.T) {
	tests := []struct {
		name      string
		field     Field
		effective Version
		expected  uint32
	}{
		{
			name:     "zero gap means no link",
			field:    Field{GapPrimary: 0, OfdmPrimary: 500},
			expected: 0,
		},
		{
			name:      "plain 2.0 without secondary runs 50MHz",
			field:     Field{GapPrimary: 2, OfdmPrimary: 300},
			effective: Version20,
			expected:  51,
		},
		{
			name:      "2.0 with secondary runs 100MHz",
			field:     Field{GapPrimary: 5, OfdmPrimary: 500, GapSecondary: 7, OfdmSecondary: 300},
			effective: Version20,
			expected:  78,
		},
		{
			name:      "2.5 always runs 100MHz",
			field:     Field{GapPrimary: 5, OfdmPrimary: 500},
			effective: Version25,
			expected:  78,
		},
		{
			name:      "1.1 runs 100MHz",
			field:     Field{GapPrimary: 5, OfdmPrimary: 500},
			effective: Version11,
			expected:  78,
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tst.expected, PrimaryRate(tst.field, tst.effective))
		})
	}
}

func TestSecondaryRate(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		expected uint32
	}{
		{
			name:     "zero gap means no vl channel",
			field:    Field{GapPrimary: 5, OfdmPrimary: 500, OfdmSecondary: 300},
			expected: 0,
		},
		{
			name:     "vl channel runs 100MHz",
			field:    Field{GapSecondary: 7, OfdmSecondary: 300},
			expected: 46,
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tst.expected, SecondaryRate(tst.field))
		})
	}
}

func TestSelfProfile(t *testing.T) {
	tests := []struct {
		name     string
		version  Version
		expected Profile
	}{
		{name: "1.0", version: Version10, expected: Profile50MHz},
		{name: "1.1", version: Version11, expected: Profile50MHz},
		{name: "2.0", version: Version20, expected: Profile100MHz},
		{name: "2.5", version: Version25, expected: Profile100MHz},
		{name: "unknown major", version: 0x30, expected: ProfileUnknown},
		{name: "zero", version: 0x00, expected: ProfileUnknown},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tst.expected, SelfProfile(tst.version))
		})
	}
}

func TestProfileString(t *testing.T) {
	assert := require.New(t)

	assert.Equal("Profile50MHz", Profile50MHz.String())
	assert.Equal("Profile100MHz", Profile100MHz.String())
	assert.Equal("Profile(9)", Profile(9).String())
}
