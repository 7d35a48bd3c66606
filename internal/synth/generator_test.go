package synth

import (
	"math"
	"testing"

	"github.com/orpheuslabs/orpheus-core/internal/phoneme"
)

func lookup(t *testing.T, e *Engine, symbol string) phoneme.Phoneme {
	t.Helper()
	p, ok := e.inventory.Lookup(symbol)
	if !ok {
		t.Fatalf("symbol %q missing from inventory", symbol)
	}
	return p
}

func TestSilenceIsAllZero(t *testing.T) {
	e := testEngine()
	p := lookup(t, e, "_")
	buf := e.generate(p, 110, nil)
	want := e.samples(float64(p.Duration()))
	if len(buf) != want {
		t.Fatalf("expected %d samples, got %d", want, len(buf))
	}
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d: expected silence, got %v", i, s)
		}
	}
}

func TestVowelNormalizedToUnitPeak(t *testing.T) {
	e := testEngine()
	buf := e.generate(lookup(t, e, "iy"), 110, nil)
	var peak float64
	for _, s := range buf {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	if math.Abs(peak-1.0) > 1e-9 {
		t.Fatalf("expected unit peak, got %v", peak)
	}
}

func TestDiphthongDiffersFromStaticVowel(t *testing.T) {
	e := NewEngine(Options{Seed: 7})
	static := e.generate(phoneme.Vowel{
		DurationMS: 100,
		Start:      [3]float64{570, 840, 2410},
		End:        [3]float64{570, 840, 2410},
	}, 110, nil)
	e2 := NewEngine(Options{Seed: 7})
	gliding := e2.generate(phoneme.Vowel{
		DurationMS: 100,
		Start:      [3]float64{570, 840, 2410},
		End:        [3]float64{400, 800, 2200},
	}, 110, nil)
	if len(static) != len(gliding) {
		t.Fatalf("length mismatch: %d vs %d", len(static), len(gliding))
	}
	var diff float64
	for i := range static {
		diff += math.Abs(static[i] - gliding[i])
	}
	if diff == 0 {
		t.Fatal("expected the formant glide to change the waveform")
	}
}

func TestFricativeLengthAndAmplitude(t *testing.T) {
	e := testEngine()
	p := lookup(t, e, "s").(phoneme.Fricative)
	buf := e.generate(p, 110, nil)
	if want := e.samples(float64(p.DurationMS)); len(buf) != want {
		t.Fatalf("expected %d samples, got %d", want, len(buf))
	}
	var peak float64
	for _, s := range buf {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	// Unvoiced fricatives are normalized straight to the target amplitude.
	if math.Abs(peak-p.Amplitude) > 1e-9 {
		t.Fatalf("expected peak %v, got %v", p.Amplitude, peak)
	}
}

func TestUnvoicedPlosiveClosureIsSilent(t *testing.T) {
	e := testEngine()
	p := lookup(t, e, "t")
	buf := e.generate(p, 110, nil)
	closure := len(buf) / 3
	for i := 0; i < closure; i++ {
		if buf[i] != 0 {
			t.Fatalf("sample %d: closure phase must be silent, got %v", i, buf[i])
		}
	}
	var energy float64
	for _, s := range buf[closure:] {
		energy += s * s
	}
	if energy == 0 {
		t.Fatal("expected a burst after the closure phase")
	}
}

func TestVoicedPlosiveMurmursBeforeBurst(t *testing.T) {
	e := testEngine()
	buf := e.generate(lookup(t, e, "d"), 110, nil)
	closure := len(buf) / 3
	lead := e.samples(10)
	start := closure - lead
	if start < 0 {
		start = 0
	}
	var energy float64
	for _, s := range buf[start:closure] {
		energy += s * s
	}
	if energy == 0 {
		t.Fatal("expected voiced murmur to lead the burst")
	}
}

func TestAffricateComposesStopAndFricative(t *testing.T) {
	e := testEngine()
	buf := e.generate(lookup(t, e, "ch"), 110, nil)
	// Stop + fricative stitched with a 2 ms fade: length is the sum of the
	// two parts minus the blended overlap.
	stopLen := e.samples(float64(lookup(t, e, "t").Duration()))
	fricLen := e.samples(float64(lookup(t, e, "sh").Duration()))
	want := stopLen + fricLen - e.samples(2)
	if len(buf) != want {
		t.Fatalf("expected %d samples, got %d", want, len(buf))
	}
}

func TestAspirationShapedByNextVowel(t *testing.T) {
	a := NewEngine(Options{Seed: 9})
	b := NewEngine(Options{Seed: 9})
	plain := a.generate(lookup(t, a, "t"), 110, nil)
	coarticulated := b.generate(lookup(t, b, "t"), 110, lookup(t, b, "iy"))
	var diff float64
	for i := range plain {
		diff += math.Abs(plain[i] - coarticulated[i])
	}
	if diff == 0 {
		t.Fatal("expected the following vowel to shape the burst")
	}
}
