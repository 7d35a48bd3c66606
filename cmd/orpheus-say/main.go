package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
	"github.com/orpheuslabs/orpheus-core/internal/synth"
)

// orpheus-say renders text to speech without a daemon: straight through the
// engine to a WAV file, speakers, or both.
func main() {
	var (
		outPath string
		play    bool
		verbose bool
		seed    int64
		layers  int
		volume  float64
	)

	flag.StringVar(&outPath, "out", "", "Write rendered audio to this WAV file")
	flag.BoolVar(&play, "play", false, "Play rendered audio on the default output device")
	flag.BoolVar(&verbose, "v", false, "Log the phoneme sequence before rendering")
	flag.Int64Var(&seed, "seed", 0, "Noise seed for reproducible output (0 = random)")
	flag.IntVar(&layers, "layers", 0, "Fricative noise layers (0 = default)")
	flag.Float64Var(&volume, "volume", 0, "Master volume in (0, 1] (0 = default)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("failed to read stdin", slog.String("error", err.Error()))
			os.Exit(1)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: orpheus-say [flags] <text>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if outPath == "" && !play {
		play = true
	}

	engine := synth.NewEngine(synth.Options{
		Seed:         seed,
		Layers:       layers,
		MasterVolume: volume,
	})

	if verbose {
		logger.Info("transcribed", slog.String("text", text),
			slog.String("phonemes", strings.Join(engine.Phonemes(text), " ")))
	}

	samples := engine.Render(text)
	if len(samples) == 0 {
		logger.Warn("nothing to render", slog.String("text", text))
		return
	}

	if outPath != "" {
		if err := writeWav(outPath, samples, engine.SampleRate()); err != nil {
			logger.Error("failed to write wav", slog.String("path", outPath), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("wrote wav", slog.String("path", outPath), slog.Int("samples", len(samples)))
	}

	if play {
		if err := playback(samples, engine.SampleRate()); err != nil {
			logger.Error("output device unavailable", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}

func writeWav(path string, samples []float64, sampleRate int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	intData := make([]int, len(samples))
	for i, sample := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, sample))
		intData[i] = int(clamped * 32767)
	}

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           intData,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		return err
	}
	return encoder.Close()
}

func playback(samples []float64, sampleRate int) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	const framesPerBuffer = 1024
	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerBuffer, buf)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	for offset := 0; offset < len(samples); offset += framesPerBuffer {
		for i := range buf {
			buf[i] = 0
			if offset+i < len(samples) {
				clamped := math.Max(-1.0, math.Min(1.0, samples[offset+i]))
				buf[i] = int16(clamped * 32767)
			}
		}
		if err := stream.Write(); err != nil {
			return err
		}
	}
	return nil
}
