// Package synth renders text into a synthesized speech waveform using an
// articulatory/formant acoustic model. No recorded samples and no learned
// model are involved; every sound is generated from first principles with a
// sawtooth voiced source, filtered noise and biquad resonators.
package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/orpheuslabs/orpheus-core/internal/dsp"
	"github.com/orpheuslabs/orpheus-core/internal/phoneme"
)

const (
	DefaultSampleRate = 44100

	// DefaultLayers is the noise-layering richness for fricatives. Higher
	// values trade CPU time for denser noise texture; useful range 1-50+.
	DefaultLayers = 30

	DefaultMasterVolume = 0.9
	DefaultChunkBytes   = 2048
	DefaultCrossfadeMS  = 6.0
	DefaultPitchStartHz = 110.0
	DefaultPitchEndHz   = 80.0
)

// Sink accepts the encoded PCM stream, one chunk at a time, in order.
type Sink interface {
	Write(chunk []byte) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(chunk []byte) error

func (f SinkFunc) Write(chunk []byte) error { return f(chunk) }

// Observer is notified with each chunk as it is handed to the sink. It is
// purely observational: it must not mutate the chunk and should return
// quickly.
type Observer func(chunk []byte)

// Options tune an Engine. Zero values fall back to the defaults above.
type Options struct {
	SampleRate   int
	Layers       int
	MasterVolume float64
	ChunkBytes   int
	CrossfadeMS  float64
	PitchStartHz float64
	PitchEndHz   float64

	// Seed fixes the noise source for reproducible output; 0 seeds from the
	// clock.
	Seed int64
}

// Engine drives the synthesis pipeline: transcription, per-phoneme waveform
// generation, cross-fade stitching, normalization, PCM encoding and chunked
// delivery. All mutable state is per-call except the noise source, so an
// Engine must not run overlapping Speak calls; callers serialize.
type Engine struct {
	sampleRate   int
	layers       int
	masterVolume float64
	chunkBytes   int
	crossfade    int // samples
	pitchStart   float64
	pitchEnd     float64

	transcriber *phoneme.Transcriber
	inventory   phoneme.Inventory
	rng         *rand.Rand
}

func NewEngine(opts Options) *Engine {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Layers <= 0 {
		opts.Layers = DefaultLayers
	}
	if opts.MasterVolume <= 0 {
		opts.MasterVolume = DefaultMasterVolume
	}
	if opts.ChunkBytes <= 0 {
		opts.ChunkBytes = DefaultChunkBytes
	}
	if opts.CrossfadeMS <= 0 {
		opts.CrossfadeMS = DefaultCrossfadeMS
	}
	if opts.PitchStartHz <= 0 {
		opts.PitchStartHz = DefaultPitchStartHz
	}
	if opts.PitchEndHz <= 0 {
		opts.PitchEndHz = DefaultPitchEndHz
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	e := &Engine{
		sampleRate:   opts.SampleRate,
		layers:       opts.Layers,
		masterVolume: opts.MasterVolume,
		chunkBytes:   opts.ChunkBytes,
		pitchStart:   opts.PitchStartHz,
		pitchEnd:     opts.PitchEndHz,
		transcriber:  phoneme.NewTranscriber(),
		inventory:    phoneme.DefaultInventory(),
		rng:          rand.New(rand.NewSource(opts.Seed)),
	}
	e.crossfade = e.samples(opts.CrossfadeMS)
	return e
}

func (e *Engine) SampleRate() int { return e.sampleRate }

// wordSplit mirrors the word boundary definition used throughout the
// pipeline: any run of whitespace or punctuation separates words.
var wordSplit = regexp.MustCompile(`[\s[:punct:]]+`)

// Phonemes flattens text into the full utterance symbol sequence: each
// word's transcription followed by the inter-word silence marker. Empty or
// all-whitespace text yields nil.
func (e *Engine) Phonemes(text string) []string {
	var codes []string
	for _, word := range wordSplit.Split(strings.ToLower(strings.TrimSpace(text)), -1) {
		if word == "" {
			continue
		}
		codes = append(codes, e.transcriber.Transcribe(word)...)
		codes = append(codes, phoneme.SilenceSymbol)
	}
	return codes
}

// Render synthesizes text into a single normalized sample buffer. Symbols
// missing from the inventory are skipped without error. The fundamental
// frequency falls linearly across the utterance (declarative intonation).
func (e *Engine) Render(text string) []float64 {
	codes := e.Phonemes(text)
	if len(codes) == 0 {
		return nil
	}

	clips := make([][]float64, 0, len(codes))
	for i, code := range codes {
		p, ok := e.inventory.Lookup(code)
		if !ok {
			continue
		}
		ratio := math.Min(1, float64(i)/math.Max(1, float64(len(codes)-2)))
		fundamental := e.pitchStart - (e.pitchStart-e.pitchEnd)*ratio
		var next phoneme.Phoneme
		if i+1 < len(codes) {
			next, _ = e.inventory.Lookup(codes[i+1])
		}
		clips = append(clips, e.generate(p, fundamental, next))
	}

	out := dsp.Crossfade(clips, e.crossfade)
	dsp.Normalize(out, e.masterVolume)
	return out
}

// Speak runs the full pipeline for text and delivers the encoded PCM stream
// to sink in chunks of at most ChunkBytes, invoking observe (if non-nil)
// once per chunk before each write. Empty input is a no-op. The context is
// only consulted between chunk writes; a render in progress runs to
// completion.
func (e *Engine) Speak(ctx context.Context, text string, sink Sink, observe Observer) error {
	data := EncodePCM(e.Render(text))
	for offset := 0; offset < len(data); offset += e.chunkBytes {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := offset + e.chunkBytes
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		if observe != nil {
			observe(chunk)
		}
		if sink != nil {
			if err := sink.Write(chunk); err != nil {
				return fmt.Errorf("write audio chunk: %w", err)
			}
		}
	}
	return nil
}

func (e *Engine) samples(ms float64) int {
	return int(float64(e.sampleRate) * ms / 1000.0)
}

func (e *Engine) noise() float64 {
	return e.rng.Float64()*2 - 1
}
