package dsp

import (
	"math"
	"testing"
)

func TestProcessZeroInputStaysZero(t *testing.T) {
	f := NewBiquad(44100)
	f.Retune(BandPass, 1000, 5)
	for i := 0; i < 512; i++ {
		if out := f.Process(0); out != 0 {
			t.Fatalf("sample %d: expected 0, got %v", i, out)
		}
	}
}

func TestRetuneClampsDegenerateInputs(t *testing.T) {
	f := NewBiquad(44100)
	f.Retune(BandPass, 0, 0)
	out := f.Process(1.0)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		t.Fatalf("expected finite output after clamped retune, got %v", out)
	}
}

func TestRetunePreservesDelayState(t *testing.T) {
	f := NewBiquad(44100)
	f.Retune(BandPass, 500, 10)
	f.Process(1.0)
	f.Retune(BandPass, 800, 10)
	// The impulse response must continue ringing through the retune.
	var energy float64
	for i := 0; i < 64; i++ {
		out := f.Process(0)
		energy += out * out
	}
	if energy == 0 {
		t.Fatal("expected delay registers to carry across retune")
	}
}

func TestBandPassPassesCenterAttenuatesFar(t *testing.T) {
	const rate = 44100
	gainAt := func(freq float64) float64 {
		f := NewBiquad(rate)
		f.Retune(BandPass, 1000, 5)
		var peak float64
		for i := 0; i < rate/2; i++ {
			out := f.Process(math.Sin(2 * math.Pi * freq * float64(i) / rate))
			// Skip the transient before measuring.
			if i > rate/4 && math.Abs(out) > peak {
				peak = math.Abs(out)
			}
		}
		return peak
	}
	center := gainAt(1000)
	far := gainAt(8000)
	if center < 0.5 {
		t.Fatalf("expected near-unity gain at center, got %v", center)
	}
	if far > center/4 {
		t.Fatalf("expected attenuation away from center: center=%v far=%v", center, far)
	}
}

func TestLowPassAttenuatesHighFrequencies(t *testing.T) {
	const rate = 44100
	f := NewBiquad(rate)
	f.Retune(LowPass, 400, 0.707)
	var peak float64
	for i := 0; i < rate/4; i++ {
		out := f.Process(math.Sin(2 * math.Pi * 10000 * float64(i) / rate))
		if i > rate/8 && math.Abs(out) > peak {
			peak = math.Abs(out)
		}
	}
	if peak > 0.05 {
		t.Fatalf("expected strong attenuation at 10kHz through 400Hz low-pass, got %v", peak)
	}
}
