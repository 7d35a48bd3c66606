package speech

import (
	"context"
	"sync"

	"github.com/orpheuslabs/orpheus-core/internal/synth"
)

// EngineSynth adapts the in-process formant engine to the Synthesizer
// contract. The engine's noise source is shared state, so concurrent
// requests are serialized here.
type EngineSynth struct {
	mu     sync.Mutex
	engine *synth.Engine
}

func NewEngineSynth(engine *synth.Engine) *EngineSynth {
	return &EngineSynth{engine: engine}
}

// Phonemes exposes the engine's transcription for logging and bookkeeping.
func (s *EngineSynth) Phonemes(text string) []string {
	return s.engine.Phonemes(text)
}

func (s *EngineSynth) Synthesize(ctx context.Context, req SynthRequest) (<-chan SynthChunk, <-chan error) {
	chunks := make(chan SynthChunk, 8)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		s.mu.Lock()
		defer s.mu.Unlock()

		sequence := 0
		sink := synth.SinkFunc(func(p []byte) error {
			out := make([]byte, len(p))
			copy(out, p)
			chunk := SynthChunk{
				SessionID:  req.SessionID,
				Sequence:   sequence,
				SampleRate: s.engine.SampleRate(),
				Channels:   1,
				PCM:        out,
			}
			sequence++
			select {
			case chunks <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if err := s.engine.Speak(ctx, req.Text, sink, nil); err != nil {
			errs <- err
			return
		}

		final := SynthChunk{
			SessionID:  req.SessionID,
			Sequence:   sequence,
			SampleRate: s.engine.SampleRate(),
			Channels:   1,
			Final:      true,
		}
		select {
		case chunks <- final:
		case <-ctx.Done():
			errs <- ctx.Err()
		}
	}()

	return chunks, errs
}
