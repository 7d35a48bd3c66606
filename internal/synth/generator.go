package synth

import (
	"math"

	"github.com/orpheuslabs/orpheus-core/internal/dsp"
	"github.com/orpheuslabs/orpheus-core/internal/phoneme"
)

// generate renders one phoneme at the given fundamental frequency. next is
// the following phoneme in the utterance, used for coarticulation (plosive
// aspiration takes the shape of the upcoming vowel); nil at utterance end.
func (e *Engine) generate(p phoneme.Phoneme, fundamental float64, next phoneme.Phoneme) []float64 {
	n := e.samples(float64(p.Duration()))
	switch v := p.(type) {
	case phoneme.Vowel:
		return e.renderVowel(n, fundamental, v)
	case phoneme.Plosive:
		return e.renderPlosive(n, fundamental, v, next)
	case phoneme.Fricative:
		return e.renderFricative(n, fundamental, v)
	case phoneme.Affricate:
		return e.renderAffricate(n, fundamental, v)
	default:
		return make([]float64, n)
	}
}

// voicedSource produces a sawtooth at the fundamental, shaped per-sample by
// env. Phase accumulates in samples and wraps modulo the period.
func (e *Engine) voicedSource(n int, fundamental float64, env []float64) []float64 {
	src := make([]float64, n)
	period := float64(e.sampleRate) / math.Max(1, fundamental)
	phase := 0.0
	for i := 0; i < n; i++ {
		phase = math.Mod(phase+1, period)
		src[i] = (phase/period*2 - 1) * env[i]
	}
	return src
}

// renderVowel passes the voiced source through a cascade of band-pass
// formant filters. Each filter's center frequency is interpolated per-sample
// between the start and end formant, which is what makes diphthongs glide.
func (e *Engine) renderVowel(n int, fundamental float64, p phoneme.Vowel) []float64 {
	env := dsp.ASREnvelope(n, 5, 10, e.sampleRate)
	src := e.voicedSource(n, fundamental, env)

	filters := make([]*dsp.Biquad, len(p.Start))
	for j := range filters {
		filters[j] = dsp.NewBiquad(e.sampleRate)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		r := float64(i) / float64(n)
		sample := src[i]
		for j, f := range filters {
			f.Retune(dsp.BandPass, p.Start[j]+(p.End[j]-p.Start[j])*r, 10.0)
			sample = f.Process(sample)
		}
		out[i] = sample
	}
	dsp.Normalize(out, 1.0)
	return out
}

// renderFricative sums independently filtered noise layers. Layer 0 sits on
// the phoneme's base frequency and Q; each further layer is jittered
// proportionally to its index and mixed in at 1/(1.5n) gain, which thickens
// the texture without drowning the base band. Voiced fricatives blend in a
// 30% voiced source.
func (e *Engine) renderFricative(n int, fundamental float64, p phoneme.Fricative) []float64 {
	mixed := make([]float64, n)
	// Sharp attack and a fast release keep the hiss from dragging.
	env := dsp.ASREnvelope(n, 2, 50, e.sampleRate)

	for layer := 0; layer < e.layers; layer++ {
		centerHz := p.NoiseLowHz * (1 + (e.rng.Float64()-0.5)*0.2*float64(layer))
		layerQ := p.Q * (1 + (e.rng.Float64()-0.5)*0.3*float64(layer))
		f := dsp.NewBiquad(e.sampleRate)
		f.Retune(dsp.BandPass, centerHz, layerQ)

		buf := make([]float64, n)
		for i := range buf {
			buf[i] = f.Process(e.noise()) * env[i]
		}
		gain := 1.0
		if layer > 0 {
			gain = 1.0 / (float64(layer) * 1.5)
		}
		dsp.Normalize(buf, gain)
		for i := range mixed {
			mixed[i] += buf[i]
		}
	}
	dsp.Normalize(mixed, p.Amplitude)

	if p.Voiced {
		voiced := e.voicedSource(n, fundamental, env)
		for i := range mixed {
			mixed[i] = mixed[i]*0.7 + voiced[i]*0.3
		}
	}
	return mixed
}

// renderPlosive builds a stop consonant in three phases: a silent closure
// over the first third, a 15 ms filtered noise burst with squared decay, and
// (when a vowel follows) an aspiration layer filtered through that vowel's
// start formants in parallel, so the release already carries the place of
// articulation of what comes next. Voiced stops add a low-passed murmur that
// leads the burst by 10 ms.
func (e *Engine) renderPlosive(n int, fundamental float64, p phoneme.Plosive, next phoneme.Phoneme) []float64 {
	out := make([]float64, n)
	closure := n / 3
	burst := e.samples(15)
	if burst > n-closure {
		burst = n - closure
	}

	click := make([]float64, burst)
	clickFilter := dsp.NewBiquad(e.sampleRate)
	clickFilter.Retune(dsp.BandPass, p.BurstHz, p.BurstQ)
	for i := range click {
		click[i] = clickFilter.Process(e.noise())
	}
	dsp.Normalize(click, 1.0)

	aspiration := make([]float64, burst)
	if vowel, ok := next.(phoneme.Vowel); ok {
		formants := make([]*dsp.Biquad, len(vowel.Start))
		for j := range formants {
			formants[j] = dsp.NewBiquad(e.sampleRate)
			formants[j].Retune(dsp.BandPass, vowel.Start[j], 10.0)
		}
		for i := range aspiration {
			sample := e.noise()
			var filtered float64
			for _, f := range formants {
				filtered += f.Process(sample)
			}
			aspiration[i] = filtered / float64(len(formants))
		}
	}
	dsp.Normalize(aspiration, 1.0)

	for i := 0; i < burst; i++ {
		decay := math.Pow(1-float64(i)/float64(burst), 2)
		out[closure+i] = (click[i]*0.6 + aspiration[i]*0.4) * p.Amplitude * decay
	}

	if p.Voiced {
		start := closure - e.samples(10)
		if start < 0 {
			start = 0
		}
		length := n - start
		env := dsp.ASREnvelope(length, 1, 5, e.sampleRate)
		raw := e.voicedSource(length, fundamental, env)

		lowPass := dsp.NewBiquad(e.sampleRate)
		lowPass.Retune(dsp.LowPass, 400, 0.707)
		murmur := make([]float64, length)
		for i := range murmur {
			murmur[i] = lowPass.Process(raw[i])
		}
		dsp.Normalize(murmur, 1.0)
		for i := 0; i < length; i++ {
			out[start+i] += murmur[i] * 0.8 * p.Amplitude
		}
	}
	return out
}

// renderAffricate composes the matching stop and fricative entries and
// stitches them with a tight 2 ms fade. The fricative is handed to the stop
// as its coarticulation context so the release leads into the hiss.
func (e *Engine) renderAffricate(n int, fundamental float64, p phoneme.Affricate) []float64 {
	stopSym, fricSym := "t", "sh"
	if p.Voiced {
		stopSym, fricSym = "d", "zh"
	}
	stop, okStop := e.inventory.Lookup(stopSym)
	fric, okFric := e.inventory.Lookup(fricSym)
	if !okStop || !okFric {
		return make([]float64, n)
	}
	return dsp.Crossfade([][]float64{
		e.generate(stop, fundamental, fric),
		e.generate(fric, fundamental, nil),
	}, e.samples(2))
}
