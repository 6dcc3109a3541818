package spectral

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/mjibson/go-dsp/fft"
)

// Engine is a frequency-domain backend for forward and inverse discrete
// Fourier transforms. Implementations must be safe for concurrent use once
// constructed: the scattering transform shares a single engine across any
// number of parallel segment transforms.
//
// Forward and Inverse write into dst, which must have the same length as
// src. Inverse includes the 1/N normalization, so Forward followed by
// Inverse recovers the input.
type Engine interface {
	Name() string
	Forward(dst, src []complex128) error
	Inverse(dst, src []complex128) error
}

// GoDSPEngine computes transforms with mjibson/go-dsp. It accepts any
// transform length, including non-powers of two.
type GoDSPEngine struct{}

// NewGoDSPEngine creates the default FFT engine.
func NewGoDSPEngine() *GoDSPEngine {
	return &GoDSPEngine{}
}

// Name returns the engine identifier.
func (e *GoDSPEngine) Name() string {
	return "go-dsp"
}

// Forward computes the forward DFT of src into dst.
func (e *GoDSPEngine) Forward(dst, src []complex128) error {
	if len(dst) != len(src) {
		return fmt.Errorf("spectral: dst length (%d) doesn't match src length (%d)", len(dst), len(src))
	}
	copy(dst, fft.FFT(src))
	return nil
}

// Inverse computes the normalized inverse DFT of src into dst.
func (e *GoDSPEngine) Inverse(dst, src []complex128) error {
	if len(dst) != len(src) {
		return fmt.Errorf("spectral: dst length (%d) doesn't match src length (%d)", len(dst), len(src))
	}
	copy(dst, fft.IFFT(src))
	return nil
}

// AlgoFFTEngine computes transforms with MeKo-Christian/algo-fft plans.
// Plans are created lazily per transform length and cached, so repeated
// transforms of the same length (the common case: every filter bank in a
// network shares one bin count) reuse the same plan.
type AlgoFFTEngine struct {
	mu    sync.Mutex
	plans map[int]*algofft.Plan[complex128]
}

// NewAlgoFFTEngine creates a plan-based FFT engine.
func NewAlgoFFTEngine() *AlgoFFTEngine {
	return &AlgoFFTEngine{
		plans: make(map[int]*algofft.Plan[complex128]),
	}
}

// Name returns the engine identifier.
func (e *AlgoFFTEngine) Name() string {
	return "algo-fft"
}

func (e *AlgoFFTEngine) plan(n int) (*algofft.Plan[complex128], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if plan, ok := e.plans[n]; ok {
		return plan, nil
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("spectral: failed to create FFT plan for length %d: %w", n, err)
	}
	e.plans[n] = plan

	return plan, nil
}

// Forward computes the forward DFT of src into dst.
func (e *AlgoFFTEngine) Forward(dst, src []complex128) error {
	if len(dst) != len(src) {
		return fmt.Errorf("spectral: dst length (%d) doesn't match src length (%d)", len(dst), len(src))
	}

	plan, err := e.plan(len(src))
	if err != nil {
		return err
	}

	if err := plan.Forward(dst, src); err != nil {
		return fmt.Errorf("spectral: forward FFT failed: %w", err)
	}
	return nil
}

// Inverse computes the normalized inverse DFT of src into dst.
func (e *AlgoFFTEngine) Inverse(dst, src []complex128) error {
	if len(dst) != len(src) {
		return fmt.Errorf("spectral: dst length (%d) doesn't match src length (%d)", len(dst), len(src))
	}

	plan, err := e.plan(len(src))
	if err != nil {
		return err
	}

	if err := plan.Inverse(dst, src); err != nil {
		return fmt.Errorf("spectral: inverse FFT failed: %w", err)
	}
	return nil
}
