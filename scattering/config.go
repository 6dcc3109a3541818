package scattering

import (
	"fmt"
	"strings"

	"github.com/scatseisnet/scatseisnet-go/algorithms/spectral"
	"github.com/scatseisnet/scatseisnet-go/logging"
)

// Normalization selects how each wavelet is scaled before its spectrum
// is computed, so that filters contribute comparable energy regardless
// of center frequency.
type Normalization int

const (
	// NormNone leaves wavelets with unit peak amplitude.
	NormNone Normalization = iota
	// NormL1 divides each wavelet by the L1 norm of its modulus.
	NormL1
	// NormL2 divides each wavelet by the L2 norm of its modulus.
	NormL2
)

func (n Normalization) String() string {
	switch n {
	case NormNone:
		return "none"
	case NormL1:
		return "l1"
	case NormL2:
		return "l2"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

func (n Normalization) valid() bool {
	return n >= NormNone && n <= NormL2
}

// ParseNormalization maps a normalization tag to its Normalization
// value. Recognized tags are "none" (or empty), "l1" and "l2",
// case-insensitive. Unrecognized tags are rejected here, at
// configuration time, rather than during transforms.
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NormNone, nil
	case "l1":
		return NormL1, nil
	case "l2":
		return NormL2, nil
	default:
		return NormNone, fmt.Errorf("scattering: unrecognized normalization %q (want none, l1 or l2)", s)
	}
}

// BankConfig holds the parameters of a single complex Morlet filter bank.
type BankConfig struct {
	// Bins is the number of time samples per filter and per input segment.
	Bins int `json:"bins"`
	// Octaves is the number of frequency doublings spanned below Nyquist.
	Octaves int `json:"octaves"`
	// Resolution is the number of filters per octave.
	Resolution int `json:"resolution"`
	// Quality controls filter selectivity: temporal width = quality / center frequency.
	Quality float64 `json:"quality"`
	// SamplingRate of the input data in Hertz.
	SamplingRate float64 `json:"sampling_rate"`
	// TaperAlpha is the Tukey taper fraction applied to inputs before
	// transforming. Zero disables tapering.
	TaperAlpha float64 `json:"taper_alpha,omitempty"`
	// Normalization tag: "none" (default), "l1" or "l2".
	Normalization string `json:"normalization,omitempty"`
}

// DefaultBankConfig returns sensible defaults for a single filter bank.
func DefaultBankConfig() BankConfig {
	return BankConfig{
		Bins:         128,
		Octaves:      8,
		Resolution:   1,
		Quality:      4.0,
		SamplingRate: 1.0,
	}
}

// Validate checks the bank parameters for construction.
func (c BankConfig) Validate() error {
	if c.Bins <= 0 {
		return fmt.Errorf("scattering: bins must be positive, got %d", c.Bins)
	}
	if c.Octaves <= 0 {
		return fmt.Errorf("scattering: octaves must be positive, got %d", c.Octaves)
	}
	if c.Resolution < 1 {
		return fmt.Errorf("scattering: resolution must be at least 1, got %d", c.Resolution)
	}
	if c.Quality <= 0 {
		return fmt.Errorf("scattering: quality must be positive, got %g", c.Quality)
	}
	if c.SamplingRate <= 0 {
		return fmt.Errorf("scattering: sampling rate must be positive, got %g", c.SamplingRate)
	}
	if c.TaperAlpha < 0 || c.TaperAlpha > 1 {
		return fmt.Errorf("scattering: taper alpha must be in [0, 1], got %g", c.TaperAlpha)
	}
	if _, err := ParseNormalization(c.Normalization); err != nil {
		return err
	}
	return nil
}

// LayerConfig holds the per-layer parameters of a scattering network.
// The time support and sampling rate are shared across layers and live
// on the NetworkConfig.
type LayerConfig struct {
	Octaves       int     `json:"octaves"`
	Resolution    int     `json:"resolution"`
	Quality       float64 `json:"quality"`
	TaperAlpha    float64 `json:"taper_alpha,omitempty"`
	Normalization string  `json:"normalization,omitempty"`
}

// bankConfig expands a layer config into a full bank config, filling
// unset resolution and quality with their defaults.
func (c LayerConfig) bankConfig(bins int, samplingRate float64) BankConfig {
	cfg := BankConfig{
		Bins:          bins,
		Octaves:       c.Octaves,
		Resolution:    c.Resolution,
		Quality:       c.Quality,
		SamplingRate:  samplingRate,
		TaperAlpha:    c.TaperAlpha,
		Normalization: c.Normalization,
	}
	if cfg.Resolution == 0 {
		cfg.Resolution = 1
	}
	if cfg.Quality == 0 {
		cfg.Quality = 4.0
	}
	return cfg
}

// NetworkConfig holds the parameters of a scattering network: one
// LayerConfig per layer plus the shared time support and sampling rate.
type NetworkConfig struct {
	Bins         int           `json:"bins"`
	SamplingRate float64       `json:"sampling_rate"`
	Layers       []LayerConfig `json:"layers"`
}

// DefaultNetworkConfig returns a two-layer network configuration with
// the usual seismic defaults.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Bins:         128,
		SamplingRate: 1.0,
		Layers: []LayerConfig{
			{Octaves: 8, Resolution: 8, Quality: 4.0},
			{Octaves: 12, Resolution: 1, Quality: 4.0},
		},
	}
}

// Validate checks the network parameters for construction.
func (c NetworkConfig) Validate() error {
	if len(c.Layers) == 0 {
		return fmt.Errorf("scattering: network needs at least one layer")
	}
	for i, layer := range c.Layers {
		if err := layer.bankConfig(c.Bins, c.SamplingRate).Validate(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

type options struct {
	engine spectral.Engine
	logger logging.Logger
}

// Option customizes non-serializable wiring of banks and networks.
type Option func(*options)

// WithEngine selects the FFT backend. The default is the go-dsp engine.
func WithEngine(engine spectral.Engine) Option {
	return func(o *options) {
		if engine != nil {
			o.engine = engine
		}
	}
}

// WithLogger injects a logger. The default is the global logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts ...Option) options {
	o := options{
		engine: spectral.NewGoDSPEngine(),
		logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
