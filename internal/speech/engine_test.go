package speech

import (
	"context"
	"testing"

	"github.com/orpheuslabs/orpheus-core/internal/synth"
)

func collect(t *testing.T, chunks <-chan SynthChunk, errs <-chan error) ([]SynthChunk, error) {
	t.Helper()
	var out []SynthChunk
	var firstErr error
	for chunks != nil || errs != nil {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			out = append(out, c)
		case err, ok := <-errs:
			if ok && err != nil && firstErr == nil {
				firstErr = err
			}
			if !ok {
				errs = nil
			}
		}
	}
	return out, firstErr
}

func TestEngineSynthStreamsOrderedChunks(t *testing.T) {
	adapter := NewEngineSynth(synth.NewEngine(synth.Options{Seed: 1, Layers: 4}))
	chunks, errs := adapter.Synthesize(context.Background(), SynthRequest{SessionID: "s1", Text: "hello"})

	got, err := collect(t, chunks, errs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected audio chunks plus final marker, got %d", len(got))
	}
	for i, c := range got {
		if c.Sequence != i {
			t.Fatalf("chunk %d has sequence %d", i, c.Sequence)
		}
		if c.SessionID != "s1" {
			t.Fatalf("chunk %d has session %q", i, c.SessionID)
		}
		if c.SampleRate != synth.DefaultSampleRate || c.Channels != 1 {
			t.Fatalf("chunk %d format: rate=%d channels=%d", i, c.SampleRate, c.Channels)
		}
		if len(c.PCM)%2 != 0 {
			t.Fatalf("chunk %d has odd PCM length %d", i, len(c.PCM))
		}
	}
	last := got[len(got)-1]
	if !last.Final || len(last.PCM) != 0 {
		t.Fatalf("expected empty final marker, got final=%v len=%d", last.Final, len(last.PCM))
	}
	for _, c := range got[:len(got)-1] {
		if c.Final {
			t.Fatal("non-terminal chunk marked final")
		}
	}
}

func TestEngineSynthEmptyTextYieldsOnlyFinal(t *testing.T) {
	adapter := NewEngineSynth(synth.NewEngine(synth.Options{Seed: 1, Layers: 4}))
	chunks, errs := adapter.Synthesize(context.Background(), SynthRequest{SessionID: "s1", Text: "   "})

	got, err := collect(t, chunks, errs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Final {
		t.Fatalf("expected a single final marker, got %+v", got)
	}
}

func TestEngineSynthCancellation(t *testing.T) {
	adapter := NewEngineSynth(synth.NewEngine(synth.Options{Seed: 1, Layers: 4}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks, errs := adapter.Synthesize(ctx, SynthRequest{SessionID: "s1", Text: "hello world"})
	_, err := collect(t, chunks, errs)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestEngineSynthExposesPhonemes(t *testing.T) {
	adapter := NewEngineSynth(synth.NewEngine(synth.Options{Seed: 1, Layers: 4}))
	codes := adapter.Phonemes("hello")
	if len(codes) == 0 {
		t.Fatal("expected a phoneme sequence")
	}
	if codes[len(codes)-1] != "_" {
		t.Fatalf("expected trailing word silence, got %q", codes[len(codes)-1])
	}
}

func TestMockSynthProducesFinalChunk(t *testing.T) {
	mock := NewMockSynth(44100, 1)
	chunks, errs := mock.Synthesize(context.Background(), SynthRequest{SessionID: "m1", Text: "x"})
	got, err := collect(t, chunks, errs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Final || got[0].SampleRate != 44100 {
		t.Fatalf("unexpected mock output: %+v", got)
	}
}
