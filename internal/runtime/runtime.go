package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orpheuslabs/orpheus-core/internal/bus"
	"github.com/orpheuslabs/orpheus-core/internal/config"
	"github.com/orpheuslabs/orpheus-core/internal/eventstore"
	"github.com/orpheuslabs/orpheus-core/internal/natsserver"
	"github.com/orpheuslabs/orpheus-core/internal/presence"
	"github.com/orpheuslabs/orpheus-core/internal/protocol"
	"github.com/orpheuslabs/orpheus-core/internal/speech"
	"github.com/orpheuslabs/orpheus-core/internal/synth"
)

// Runtime owns the component lifecycle for a synthesis node: telemetry,
// the embedded broker, the bus connection, the event store, presence, and
// the speech service. Components start in that order and shut down in
// reverse.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	embedded    *natsserver.EmbeddedServer
	busClient   *bus.Client
	store       *eventstore.Store
	tracker     *presence.Tracker
	speechSvc   *speech.Service
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings the node up and blocks until ctx is cancelled, then shuts
// everything down gracefully.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded broker: %w", err)
	}
	r.embedded = embedded

	busCfg := r.cfg.Bus
	if busCfg.Embedded {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}
	busClient, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		r.shutdownComponents()
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	r.busClient = busClient

	store, err := eventstore.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		r.shutdownComponents()
		return fmt.Errorf("failed to open event store: %w", err)
	}
	r.store = store

	voices := []string{r.cfg.Speech.DefaultVoice}
	tracker, err := presence.NewTracker(ctx, r.cfg.Node, voices, busClient, r.logger)
	if err != nil {
		r.shutdownComponents()
		return fmt.Errorf("failed to start presence tracker: %w", err)
	}
	r.tracker = tracker

	engine := synth.NewEngine(synth.Options{
		SampleRate:   r.cfg.Synth.SampleRate,
		Layers:       r.cfg.Synth.SynthesisLayers,
		MasterVolume: r.cfg.Synth.MasterVolume,
		ChunkBytes:   r.cfg.Synth.ChunkBytes,
		CrossfadeMS:  r.cfg.Synth.CrossfadeMS,
		PitchStartHz: r.cfg.Synth.PitchStartHz,
		PitchEndHz:   r.cfg.Synth.PitchEndHz,
	})
	r.speechSvc = speech.NewService(ctx, r.cfg.Speech, busClient, speech.NewEngineSynth(engine), store, r.logger)
	if err := r.speechSvc.Start(); err != nil {
		r.shutdownComponents()
		return fmt.Errorf("failed to start speech service: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	mux.HandleFunc("/nodes", r.handleNodes)
	if metricHandler != nil {
		mux.Handle("/metrics", metricHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("node_id", r.cfg.Node.ID),
		slog.String("speak_subject", protocol.SubjectSpeakRequest))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()
	r.shutdownComponents()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) shutdownComponents() {
	if r.speechSvc != nil {
		r.speechSvc.Close()
		r.speechSvc = nil
	}
	if r.tracker != nil {
		r.tracker.Close()
		r.tracker = nil
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.logger.Error("event store close error", slog.String("error", err.Error()))
		}
		r.store = nil
	}
	if r.busClient != nil {
		r.busClient.Close()
		r.busClient = nil
	}
	if r.embedded != nil {
		r.embedded.Shutdown()
		r.embedded = nil
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if r.busClient != nil && !r.busClient.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("bus disconnected"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (r *Runtime) handleNodes(w http.ResponseWriter, _ *http.Request) {
	if r.tracker == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	nodes := r.tracker.Query(nil)
	if nodes == nil {
		nodes = []presence.NodeInfo{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(nodes); err != nil {
		r.logger.Warn("failed to encode node list", slog.String("error", err.Error()))
	}
}
