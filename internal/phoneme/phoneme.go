// Package phoneme holds the acoustic inventory and the rule-based
// grapheme-to-phoneme transcriber. Both tables are built once and never
// mutated, so they are safe to share across synthesis calls without locking.
package phoneme

// SilenceSymbol is the reserved inter-word gap marker. It is always present
// in the inventory.
const SilenceSymbol = "_"

// Phoneme is one entry of the acoustic inventory: the parameters needed to
// render a single speech sound. It is a closed sum over the five variants
// below; generators switch on the concrete type.
type Phoneme interface {
	// Duration returns the nominal length of the sound in milliseconds.
	Duration() int

	phoneme()
}

// Vowel is a voiced sound shaped by three formant resonances. A static vowel
// has Start == End; a diphthong glides linearly between them.
type Vowel struct {
	DurationMS int
	Start      [3]float64
	End        [3]float64
}

// Plosive is a stop consonant: silence, then a short filtered noise burst.
type Plosive struct {
	DurationMS int
	Amplitude  float64
	BurstHz    float64
	BurstQ     float64
	Voiced     bool
}

// Fricative is sustained filtered noise, optionally mixed with voicing.
type Fricative struct {
	DurationMS int
	Amplitude  float64
	NoiseLowHz float64
	NoiseHiHz  float64
	Q          float64
	Voiced     bool
}

// Affricate is a plosive released into a fricative. It carries no synthesis
// parameters of its own; the generator composes it from the matching stop
// and fricative entries.
type Affricate struct {
	DurationMS int
	Voiced     bool
}

// Silence is a gap of the given duration.
type Silence struct {
	DurationMS int
}

func (p Vowel) Duration() int     { return p.DurationMS }
func (p Plosive) Duration() int   { return p.DurationMS }
func (p Fricative) Duration() int { return p.DurationMS }
func (p Affricate) Duration() int { return p.DurationMS }
func (p Silence) Duration() int   { return p.DurationMS }

func (Vowel) phoneme()     {}
func (Plosive) phoneme()   {}
func (Fricative) phoneme() {}
func (Affricate) phoneme() {}
func (Silence) phoneme()   {}
