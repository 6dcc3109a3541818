package scattering

import "fmt"

// Segmentize splits a continuous single-channel record into
// fixed-length windows with the given stride. A stride of zero or less
// defaults to the window size (non-overlapping windows). Samples past
// the last full window are dropped. Windows are copies, so they can be
// fed to concurrent transforms safely.
func Segmentize(x []float64, window, stride int) ([][]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("scattering: window size must be positive, got %d", window)
	}
	if stride <= 0 {
		stride = window
	}
	if len(x) < window {
		return nil, fmt.Errorf("scattering: record length (%d) shorter than window size (%d)", len(x), window)
	}

	count := (len(x)-window)/stride + 1
	segments := make([][]float64, count)
	for i := range count {
		segment := make([]float64, window)
		copy(segment, x[i*stride:i*stride+window])
		segments[i] = segment
	}
	return segments, nil
}

// SegmentizeChannels splits a multi-channel record (channels by
// samples) into fixed-length windows, keeping channels aligned.
func SegmentizeChannels(x [][]float64, window, stride int) ([][][]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("scattering: record has no channels")
	}
	for c := 1; c < len(x); c++ {
		if len(x[c]) != len(x[0]) {
			return nil, fmt.Errorf("scattering: channel %d length (%d) doesn't match channel 0 (%d)", c, len(x[c]), len(x[0]))
		}
	}

	perChannel := make([][][]float64, len(x))
	for c, channel := range x {
		segments, err := Segmentize(channel, window, stride)
		if err != nil {
			return nil, err
		}
		perChannel[c] = segments
	}

	count := len(perChannel[0])
	segments := make([][][]float64, count)
	for i := range count {
		segment := make([][]float64, len(x))
		for c := range x {
			segment[c] = perChannel[c][i]
		}
		segments[i] = segment
	}
	return segments, nil
}
