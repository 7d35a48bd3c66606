package synth

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func testEngine() *Engine {
	// Fixed seed and fewer noise layers keep tests fast and reproducible.
	return NewEngine(Options{Seed: 1, Layers: 4})
}

func TestPhonemesHello(t *testing.T) {
	e := testEngine()
	got := e.Phonemes("hello")
	want := []string{"h", "e_short", "l", "o_long", "_"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Phonemes(%q) = %v, want %v", "hello", got, want)
	}
}

func TestPhonemesSplitsOnPunctuation(t *testing.T) {
	e := testEngine()
	got := e.Phonemes("the, the!")
	want := []string{"th", "schwa", "_", "th", "schwa", "_"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPhonemesEmptyInput(t *testing.T) {
	e := testEngine()
	for _, text := range []string{"", "   ", "\t\n", "..."} {
		if got := e.Phonemes(text); len(got) != 0 {
			t.Fatalf("Phonemes(%q) = %v, want empty", text, got)
		}
	}
}

func TestRenderNormalizesToMasterVolume(t *testing.T) {
	e := testEngine()
	buf := e.Render("hello")
	if len(buf) == 0 {
		t.Fatal("expected non-empty render")
	}
	var peak float64
	for _, s := range buf {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	if math.Abs(peak-DefaultMasterVolume) > 1e-9 {
		t.Fatalf("expected peak %v, got %v", DefaultMasterVolume, peak)
	}
}

func TestRenderEmptyIsNoop(t *testing.T) {
	e := testEngine()
	if buf := e.Render("   "); len(buf) != 0 {
		t.Fatalf("expected no output for whitespace input, got %d samples", len(buf))
	}
}

func TestSpeakDeliversChunksInOrder(t *testing.T) {
	e := testEngine()
	var sunk []byte
	var observed, written int
	sink := SinkFunc(func(chunk []byte) error {
		written++
		sunk = append(sunk, chunk...)
		return nil
	})
	err := e.Speak(context.Background(), "hello world", sink, func(chunk []byte) {
		observed++
		if len(chunk) == 0 || len(chunk) > DefaultChunkBytes {
			t.Fatalf("chunk size out of range: %d", len(chunk))
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written == 0 || observed != written {
		t.Fatalf("expected one observation per write, got %d/%d", observed, written)
	}
	if len(sunk)%2 != 0 {
		t.Fatalf("total stream length must be even, got %d", len(sunk))
	}
	decoded := DecodePCM(sunk)
	var peak float64
	for _, s := range decoded {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
		}
	}
	if math.Abs(peak-DefaultMasterVolume) > 2.0/32767 {
		t.Fatalf("decoded peak %v not within rounding of %v", peak, DefaultMasterVolume)
	}
}

func TestSpeakEmptyInputProducesNothing(t *testing.T) {
	e := testEngine()
	err := e.Speak(context.Background(), " \t ", SinkFunc(func(chunk []byte) error {
		t.Fatal("sink must not be called for empty input")
		return nil
	}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSpeakPropagatesSinkError(t *testing.T) {
	e := testEngine()
	sinkErr := errors.New("device gone")
	err := e.Speak(context.Background(), "hello", SinkFunc(func(chunk []byte) error {
		return sinkErr
	}), nil)
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error to propagate, got %v", err)
	}
}

func TestSpeakHonorsContextBetweenChunks(t *testing.T) {
	e := testEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Speak(ctx, "hello", SinkFunc(func(chunk []byte) error { return nil }), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRenderDeterministicForSeed(t *testing.T) {
	a := NewEngine(Options{Seed: 42, Layers: 3}).Render("test data")
	b := NewEngine(Options{Seed: 42, Layers: 3}).Render("test data")
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical renders for identical seeds")
	}
}
