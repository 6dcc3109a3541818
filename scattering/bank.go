package scattering

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/scatseisnet/scatseisnet-go/algorithms/common"
	"github.com/scatseisnet/scatseisnet-go/algorithms/spectral"
	"github.com/scatseisnet/scatseisnet-go/algorithms/windowing"
	"github.com/scatseisnet/scatseisnet-go/logging"
)

// normEpsilon guards the normalization divisions against numerically
// degenerate filters.
const normEpsilon = 1e-12

// ComplexMorletBank is a family of octaves*resolution analytic band-pass
// filters with geometrically spaced center frequencies below Nyquist and
// constant-Q temporal widths. The bank is immutable once constructed and
// safe for concurrent transforms.
//
// The center frequency at rank k of K = octaves*resolution filters is
//
//	fs/2 * 2^(-(K-1-k)/resolution)
//
// so rank 0 holds the lowest frequency and rank K-1 sits at Nyquist.
// Each filter's temporal width is quality / center, trading temporal
// resolution for frequency resolution towards low frequencies.
type ComplexMorletBank struct {
	cfg  BankConfig
	norm Normalization

	times    []float64
	centers  []float64
	widths   []float64
	wavelets [][]complex128
	spectra  [][]complex128
	taper    *windowing.Tukey

	engine spectral.Engine
	logger logging.Logger
}

// NewComplexMorletBank synthesizes a filter bank from its parameters.
// The time-domain wavelets and their spectra are computed once here;
// the returned bank holds no mutable state.
func NewComplexMorletBank(cfg BankConfig, opts ...Option) (*ComplexMorletBank, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	norm, err := ParseNormalization(cfg.Normalization)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts...)

	bank := &ComplexMorletBank{
		cfg:    cfg,
		norm:   norm,
		engine: o.engine,
		logger: o.logger.WithFields(logging.Fields{"component": "morlet_bank"}),
	}

	count := cfg.Octaves * cfg.Resolution
	duration := float64(cfg.Bins) / cfg.SamplingRate
	bank.times = linspace(-0.5*duration, 0.5*duration, cfg.Bins)

	bank.centers = make([]float64, count)
	bank.widths = make([]float64, count)
	nyquist := cfg.SamplingRate / 2
	for k := range count {
		exponent := -float64(count-1-k) / float64(cfg.Resolution)
		bank.centers[k] = nyquist * math.Pow(2, exponent)
		bank.widths[k] = cfg.Quality / bank.centers[k]
	}
	for k := 1; k < count; k++ {
		if bank.centers[k] <= bank.centers[k-1] {
			return nil, fmt.Errorf("scattering: center frequencies not strictly increasing at rank %d", k)
		}
	}

	bank.wavelets, err = morletBank(bank.times, bank.centers, bank.widths)
	if err != nil {
		return nil, err
	}

	if err := bank.normalize(); err != nil {
		return nil, err
	}

	bank.spectra = make([][]complex128, count)
	for k, wavelet := range bank.wavelets {
		spectrum := make([]complex128, cfg.Bins)
		if err := bank.engine.Forward(spectrum, wavelet); err != nil {
			return nil, fmt.Errorf("scattering: failed to compute filter spectrum %d: %w", k, err)
		}
		bank.spectra[k] = spectrum
	}

	if cfg.TaperAlpha > 0 {
		bank.taper = windowing.NewTukey(cfg.Bins, cfg.TaperAlpha)
	}

	bank.logger.Debug("filter bank created", logging.Fields{
		"bins":          cfg.Bins,
		"filters":       count,
		"octaves":       cfg.Octaves,
		"resolution":    cfg.Resolution,
		"quality":       cfg.Quality,
		"sampling_rate": cfg.SamplingRate,
		"normalization": norm.String(),
		"engine":        bank.engine.Name(),
	})

	return bank, nil
}

// normalize rescales each wavelet by the requested norm of its modulus.
func (b *ComplexMorletBank) normalize() error {
	if b.norm == NormNone {
		return nil
	}

	p := 1.0
	if b.norm == NormL2 {
		p = 2.0
	}

	modulus := make([]float64, b.cfg.Bins)
	for k, wavelet := range b.wavelets {
		for i, v := range wavelet {
			modulus[i] = cmplx.Abs(v)
		}
		norm := common.Norm(modulus, p)
		if norm < normEpsilon {
			return fmt.Errorf("scattering: filter %d has near-zero energy, cannot apply %s normalization", k, b.norm)
		}
		scale := complex(1/norm, 0)
		for i := range wavelet {
			wavelet[i] *= scale
		}
	}
	return nil
}

// Transform computes the scalogram of a single-channel signal: the
// modulus of the signal convolved with every filter of the bank, via
// pointwise multiplication in the frequency domain. The output has one
// row per filter, each of Bins samples, and is always real-valued and
// non-negative. The input is not modified.
func (b *ComplexMorletBank) Transform(signal []float64) ([][]float64, error) {
	if len(signal) != b.cfg.Bins {
		return nil, fmt.Errorf("scattering: signal length (%d) doesn't match bank bins (%d)", len(signal), b.cfg.Bins)
	}

	tapered := make([]float64, b.cfg.Bins)
	copy(tapered, signal)
	if b.taper != nil {
		if err := b.taper.ApplyInPlace(tapered); err != nil {
			return nil, err
		}
	}

	input := make([]complex128, b.cfg.Bins)
	for i, v := range tapered {
		input[i] = complex(v, 0)
	}
	spectrum := make([]complex128, b.cfg.Bins)
	if err := b.engine.Forward(spectrum, input); err != nil {
		return nil, fmt.Errorf("scattering: forward FFT failed: %w", err)
	}

	scalogram := make([][]float64, len(b.spectra))
	convolved := make([]complex128, b.cfg.Bins)
	shifted := make([]complex128, b.cfg.Bins)
	for k, filter := range b.spectra {
		for i := range convolved {
			convolved[i] = spectrum[i] * filter[i]
		}
		if err := b.engine.Inverse(convolved, convolved); err != nil {
			return nil, fmt.Errorf("scattering: inverse FFT failed: %w", err)
		}
		fftShift(shifted, convolved)

		// Modulus keeps the output real regardless of backend.
		row := make([]float64, b.cfg.Bins)
		for i, v := range shifted {
			row[i] = cmplx.Abs(v)
		}
		scalogram[k] = row
	}

	return scalogram, nil
}

// Size returns the number of filters in the bank.
func (b *ComplexMorletBank) Size() int {
	return len(b.wavelets)
}

// Bins returns the temporal support shared by all filters.
func (b *ComplexMorletBank) Bins() int {
	return b.cfg.Bins
}

// SamplingRate returns the sampling rate in Hertz.
func (b *ComplexMorletBank) SamplingRate() float64 {
	return b.cfg.SamplingRate
}

// Nyquist returns half the sampling rate.
func (b *ComplexMorletBank) Nyquist() float64 {
	return b.cfg.SamplingRate / 2
}

// Normalization returns the normalization mode applied at construction.
func (b *ComplexMorletBank) Normalization() Normalization {
	return b.norm
}

// Config returns the parameters the bank was built from.
func (b *ComplexMorletBank) Config() BankConfig {
	return b.cfg
}

// Centers returns a copy of the filter center frequencies in Hertz,
// ordered from lowest to highest.
func (b *ComplexMorletBank) Centers() []float64 {
	return copyFloats(b.centers)
}

// Widths returns a copy of the filter temporal widths in seconds.
func (b *ComplexMorletBank) Widths() []float64 {
	return copyFloats(b.widths)
}

// Times returns a copy of the symmetric time axis in seconds.
func (b *ComplexMorletBank) Times() []float64 {
	return copyFloats(b.times)
}

// Frequencies returns the frequency axis of the filter spectra in Hertz.
func (b *ComplexMorletBank) Frequencies() []float64 {
	return linspace(0, b.cfg.SamplingRate, b.cfg.Bins)
}

// Wavelet returns a copy of the time-domain wavelet at rank k.
func (b *ComplexMorletBank) Wavelet(k int) ([]complex128, error) {
	if k < 0 || k >= len(b.wavelets) {
		return nil, fmt.Errorf("scattering: wavelet rank %d out of range [0, %d)", k, len(b.wavelets))
	}
	wavelet := make([]complex128, len(b.wavelets[k]))
	copy(wavelet, b.wavelets[k])
	return wavelet, nil
}

func copyFloats(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	return out
}
