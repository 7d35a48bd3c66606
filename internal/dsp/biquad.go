package dsp

import "math"

// FilterShape selects the biquad response curve.
type FilterShape int

const (
	BandPass FilterShape = iota
	HighPass
	LowPass
)

// Biquad is a second-order recursive filter with five coefficients and two
// delay registers. Coefficients follow the audio EQ cookbook formulas for a
// digital resonator at the filter's sample rate. A Biquad is mutable,
// single-owner state; it must not be shared across goroutines.
type Biquad struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
	sampleRate         float64
}

func NewBiquad(sampleRate int) *Biquad {
	return &Biquad{sampleRate: float64(sampleRate)}
}

// Retune replaces the filter coefficients for the given shape, center
// frequency and Q. The delay registers are deliberately left untouched so
// that a filter can be swept per-sample without clicks (diphthong glides).
// Center frequency is floored at 1 Hz and Q at 0.01.
func (f *Biquad) Retune(shape FilterShape, centerHz, q float64) {
	w0 := 2 * math.Pi * math.Max(1.0, centerHz) / f.sampleRate
	alpha := math.Sin(w0) / (2 * math.Max(0.01, q))
	cosW0 := math.Cos(w0)
	a0 := 1 + alpha

	switch shape {
	case BandPass:
		f.b0 = alpha / a0
		f.b1 = 0
		f.b2 = -alpha / a0
	case HighPass:
		f.b0 = (1 + cosW0) / 2 / a0
		f.b1 = -(1 + cosW0) / a0
		f.b2 = (1 + cosW0) / 2 / a0
	case LowPass:
		f.b0 = (1 - cosW0) / 2 / a0
		f.b1 = (1 - cosW0) / a0
		f.b2 = (1 - cosW0) / 2 / a0
	}
	f.a1 = -2 * cosW0 / a0
	f.a2 = (1 - alpha) / a0
}

// Process advances the filter by one sample using the transposed
// direct-form II recursion.
func (f *Biquad) Process(in float64) float64 {
	out := f.b0*in + f.z1
	f.z1 = f.b1*in - f.a1*out + f.z2
	f.z2 = f.b2*in - f.a2*out
	return out
}
