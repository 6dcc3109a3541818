package scattering

import (
	"fmt"
	"math"
	"math/cmplx"
)

// linspace returns count evenly spaced values from start to stop,
// endpoints included.
func linspace(start, stop float64, count int) []float64 {
	x := make([]float64, count)
	if count == 1 {
		x[0] = start
		return x
	}
	step := (stop - start) / float64(count-1)
	for i := range x {
		x[i] = start + float64(i)*step
	}
	return x
}

// gaussianWindow evaluates exp(-(x/width)^2) on the time axis.
func gaussianWindow(x []float64, width float64) []float64 {
	window := make([]float64, len(x))
	for i, t := range x {
		window[i] = math.Exp(-(t / width) * (t / width))
	}
	return window
}

// complexMorlet evaluates a complex Morlet wavelet on the time axis: a
// complex plane wave at the center frequency under a Gaussian envelope
// of the given temporal width.
func complexMorlet(x []float64, center, width float64) []complex128 {
	envelope := gaussianWindow(x, width)
	wavelet := make([]complex128, len(x))
	for i, t := range x {
		wavelet[i] = complex(envelope[i], 0) * cmplx.Exp(complex(0, 2*math.Pi*center*t))
	}
	return wavelet
}

// morletBank evaluates one wavelet per (center, width) pair.
func morletBank(x, centers, widths []float64) ([][]complex128, error) {
	if len(centers) != len(widths) {
		return nil, fmt.Errorf("scattering: center count (%d) doesn't match width count (%d)", len(centers), len(widths))
	}

	wavelets := make([][]complex128, len(centers))
	for k := range centers {
		wavelets[k] = complexMorlet(x, centers[k], widths[k])
	}
	return wavelets, nil
}

// fftShift rotates src by half its length into dst, moving the
// zero-lag sample to the center of the time axis. dst and src must not
// alias.
func fftShift(dst, src []complex128) {
	n := len(src)
	shift := n / 2
	for i := range src {
		dst[(i+shift)%n] = src[i]
	}
}
