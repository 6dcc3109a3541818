package windowing

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Tukey represents a tapered cosine window: flat in the middle with
// cosine tapers covering a fraction alpha of the window on the sides.
// With alpha=0 the window is rectangular, with alpha=1 it is a Hann
// window. Used to suppress edge artifacts before frequency-domain
// convolution.
type Tukey struct {
	size         int
	alpha        float64
	coefficients []float64
}

// NewTukey creates a new Tukey window of the given size.
// Alpha is clamped to [0, 1].
func NewTukey(size int, alpha float64) *Tukey {
	alpha = math.Max(0, math.Min(1, alpha))
	t := &Tukey{
		size:  size,
		alpha: alpha,
	}
	t.generate()
	return t
}

func (t *Tukey) generate() {
	t.coefficients = make([]float64, t.size)

	taperLength := int(t.alpha * float64(t.size) / 2.0)

	for i := range t.size {
		switch {
		case i < taperLength:
			arg := math.Pi * float64(i) / float64(taperLength)
			t.coefficients[i] = 0.5 * (1 + math.Cos(arg-math.Pi))
		case i >= t.size-taperLength:
			arg := math.Pi * float64(i-(t.size-taperLength)) / float64(taperLength)
			t.coefficients[i] = 0.5 * (1 + math.Cos(arg))
		default:
			t.coefficients[i] = 1.0
		}
	}
}

// Apply returns a windowed copy of the signal.
func (t *Tukey) Apply(signal []float64) ([]float64, error) {
	if len(signal) != t.size {
		return nil, fmt.Errorf("windowing: signal length (%d) doesn't match window size (%d)", len(signal), t.size)
	}

	windowed := make([]float64, t.size)
	vecmath.MulBlock(windowed, signal, t.coefficients)

	return windowed, nil
}

// ApplyInPlace multiplies the signal by the window coefficients in place.
func (t *Tukey) ApplyInPlace(signal []float64) error {
	if len(signal) != t.size {
		return fmt.Errorf("windowing: signal length (%d) doesn't match window size (%d)", len(signal), t.size)
	}

	vecmath.MulBlockInPlace(signal, t.coefficients)

	return nil
}

// Coefficients returns a copy of the window coefficients.
func (t *Tukey) Coefficients() []float64 {
	coeffs := make([]float64, len(t.coefficients))
	copy(coeffs, t.coefficients)
	return coeffs
}

// Size returns the window size.
func (t *Tukey) Size() int {
	return t.size
}

// Alpha returns the taper fraction.
func (t *Tukey) Alpha() float64 {
	return t.alpha
}
