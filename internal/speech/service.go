package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/orpheuslabs/orpheus-core/internal/bus"
	"github.com/orpheuslabs/orpheus-core/internal/config"
	"github.com/orpheuslabs/orpheus-core/internal/eventstore"
	"github.com/orpheuslabs/orpheus-core/internal/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Service bridges the bus and the synthesizer: it consumes speak requests,
// streams audio chunks back, closes each request with a status message, and
// records the run in the event store.
type Service struct {
	cfg    config.SpeechConfig
	bus    *bus.Client
	synth  Synthesizer
	store  *eventstore.Store
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	tracer   trace.Tracer
	requests metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func NewService(parent context.Context, cfg config.SpeechConfig, busClient *bus.Client, synth Synthesizer, store *eventstore.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		cfg:    cfg,
		bus:    busClient,
		synth:  synth,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "speech-service")),
		tracer: otel.Tracer("github.com/orpheuslabs/orpheus-core/speech"),
	}
	meter := otel.Meter("github.com/orpheuslabs/orpheus-core/speech")
	if c, err := meter.Int64Counter("orpheus.speech.requests", metric.WithDescription("Speak requests received")); err == nil {
		s.requests = c
	}
	if c, err := meter.Int64Counter("orpheus.speech.failures", metric.WithDescription("Speak requests that failed")); err == nil {
		s.failures = c
	}
	if h, err := meter.Float64Histogram("orpheus.speech.duration", metric.WithDescription("Synthesis wall time in seconds")); err == nil {
		s.duration = h
	}
	return s
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSpeakRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return !s.cfg.Enabled || s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SpeakRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode speak request", slogError(err))
		return
	}
	if req.Voice == "" {
		req.Voice = s.cfg.DefaultVoice
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, 45*time.Second)
		defer cancel()

		ctx, span := s.tracer.Start(ctx, "speech.synthesize", trace.WithAttributes(
			attribute.String("session_id", req.SessionID),
			attribute.String("voice", req.Voice),
			attribute.Int("text_length", len(req.Text)),
		))
		defer span.End()

		if s.requests != nil {
			s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("voice", req.Voice)))
		}

		started := time.Now()
		var synthErr error
		var sampleCount int

		chunks, errs := s.synth.Synthesize(ctx, SynthRequest{SessionID: req.SessionID, Text: req.Text, Voice: req.Voice})
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					chunks = nil
					continue
				}
				sampleCount += len(chunk.PCM) / 2
				s.publishChunk(req, chunk)
			case err, ok := <-errs:
				if ok && err != nil {
					synthErr = err
					s.logger.Warn("synthesis error", slogError(err))
				}
				errs = nil
			case <-ctx.Done():
				synthErr = ctx.Err()
				s.logger.Warn("synthesis cancelled", slogError(ctx.Err()))
				chunks, errs = nil, nil
			}
			if chunks == nil && errs == nil {
				break
			}
		}

		elapsed := time.Since(started)
		if s.duration != nil {
			s.duration.Record(context.Background(), elapsed.Seconds(), metric.WithAttributes(attribute.String("voice", req.Voice)))
		}
		if synthErr != nil {
			if s.failures != nil {
				s.failures.Add(context.Background(), 1)
			}
			span.RecordError(synthErr)
			s.publishStatus(req, false, synthErr.Error())
		}
		s.recordRun(req, sampleCount, elapsed, synthErr)
	}()
}

func (s *Service) publishChunk(req protocol.SpeakRequest, chunk SynthChunk) {
	packet := protocol.AudioChunk{
		SessionID:  req.SessionID,
		Target:     req.Target,
		SampleRate: chunk.SampleRate,
		Channels:   chunk.Channels,
		Sequence:   chunk.Sequence,
		PCM:        chunk.PCM,
		Final:      chunk.Final,
	}
	data, err := json.Marshal(packet)
	if err != nil {
		s.logger.Warn("failed to marshal audio chunk", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSpeakAudio, data); err != nil {
		s.logger.Warn("failed to publish audio chunk", slogError(err))
	}
	if chunk.Final {
		s.publishStatus(req, true, "")
	}
}

func (s *Service) publishStatus(req protocol.SpeakRequest, completed bool, errText string) {
	status := protocol.SpeakStatus{
		SessionID: req.SessionID,
		Target:    req.Target,
		Completed: completed,
		Error:     errText,
		Timestamp: time.Now().UTC(),
	}
	if data, err := json.Marshal(status); err == nil {
		_ = s.bus.Conn().Publish(protocol.SubjectSpeakDone, data)
	}
}

func (s *Service) recordRun(req protocol.SpeakRequest, sampleCount int, elapsed time.Duration, synthErr error) {
	if s.store == nil {
		return
	}
	run := eventstore.Utterance{
		SessionID:   req.SessionID,
		TraceID:     req.TraceID,
		Voice:       req.Voice,
		Text:        req.Text,
		SampleCount: sampleCount,
		DurationMS:  elapsed.Milliseconds(),
		Completed:   synthErr == nil,
	}
	if synthErr != nil {
		run.Error = synthErr.Error()
	}
	if ph, ok := s.synth.(interface{ Phonemes(string) []string }); ok {
		run.PhonemeCount = len(ph.Phonemes(req.Text))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Record(ctx, run); err != nil {
		s.logger.Warn("failed to record utterance", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
