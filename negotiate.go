package avstream

// SelectSampleFormat picks the encoder sample format. The decoder's format
// is kept when the encoder has no restriction or supports it; otherwise the
// encoder's first supported format wins.
func SelectSampleFormat[F comparable](decoder F, supported []F) F {
	if len(supported) == 0 {
		return decoder
	}
	for _, f := range supported {
		if f == decoder {
			return decoder
		}
	}
	return supported[0]
}

// SelectSampleRate picks the encoder sample rate: the decoder's rate when
// the encoder has no restriction or supports it, otherwise the supported
// rate closest to it. Ties go to the rate listed first.
func SelectSampleRate(decoder int, supported []int) int {
	return selectNearest(decoder, supported)
}

// SelectChannelCount picks the output channel count with the same rule as
// SelectSampleRate.
func SelectChannelCount(decoder int, supported []int) int {
	return selectNearest(decoder, supported)
}

func selectNearest(want int, supported []int) int {
	if len(supported) == 0 {
		return want
	}
	best, bestDiff := supported[0], absInt(supported[0]-want)
	for _, v := range supported {
		if v == want {
			return want
		}
		if d := absInt(v - want); d < bestDiff {
			best, bestDiff = v, d
		}
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
