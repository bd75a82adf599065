package moca

//go:generate stringer -type=Profile

// Profile identifies the channel bandwidth profile whose constants feed the
// rate formula.
type Profile int

// Available profiles.
const (
	ProfileUnknown Profile = iota
	Profile50MHz
	Profile100MHz
)

// Per-profile formula constants: LDPC codeword length, FFT length and the
// divisor folding symbol duration into Mbps.
var profileParams = map[Profile]struct {
	ldpc uint32
	fft  uint32
	div  uint32
}{
	Profile50MHz:  {ldpc: 1200, fft: 256, div: 26},
	Profile100MHz: {ldpc: 3900, fft: 512, div: 46},
}

// Rate converts a (gap, OFDM symbol count) pair into Mbps using the profile
// constants. The cyclic prefix length derives from the gap differently per
// profile. Division is integer floor division; the additive constants keep
// the denominator positive.
func (p Profile) Rate(gap, ofdm uint32) uint32 {
	params, ok := profileParams[p]
	if !ok {
		return 0
	}

	var cp uint32
	switch p {
	case Profile50MHz:
		cp = gap*2 + 10
	default:
		cp = (gap + 10) * 2
	}

	return (params.ldpc * ofdm) / ((params.fft + cp) * params.div)
}

// PrimaryRate computes the primary PHY rate for a decoded field. A zero
// primary gap means no usable link, rate 0. The 50 MHz profile applies only
// to a plain MoCA 2.0 cell without a secondary channel; everything else uses
// the 100 MHz profile.
func PrimaryRate(f Field, effective Version) uint32 {
	if f.GapPrimary == 0 {
		return 0
	}

	p := Profile100MHz
	if f.GapSecondary == 0 && effective == Version20 {
		p = Profile50MHz
	}

	return p.Rate(f.GapPrimary, f.OfdmPrimary)
}

// SecondaryRate computes the VL channel rate for a decoded field. The
// secondary channel always runs the 100 MHz profile.
func SecondaryRate(f Field) uint32 {
	if f.GapSecondary == 0 {
		return 0
	}
	return Profile100MHz.Rate(f.GapSecondary, f.OfdmSecondary)
}

// SelfProfile maps a node's own raw version byte to the profile used for its
// diagonal (GCD) rate. Unknown major versions return ProfileUnknown, which
// leaves the GCD entry at zero.
func SelfProfile(raw Version) Profile {
	switch raw & 0xf0 {
	case 0x10:
		return Profile50MHz
	case 0x20:
		return Profile100MHz
	default:
		return ProfileUnknown
	}
}
