package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/orpheuslabs/orpheus-core/internal/bus"
	"github.com/orpheuslabs/orpheus-core/internal/config"
	"github.com/orpheuslabs/orpheus-core/internal/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// NodeInfo is the tracker's view of one synthesis node on the bus.
type NodeInfo struct {
	ID       string    `json:"id"`
	Role     string    `json:"role"`
	Voices   []string  `json:"voices"`
	LastSeen time.Time `json:"last_seen"`
	Healthy  bool      `json:"healthy"`
}

type announceMessage struct {
	NodeID    string    `json:"node_id"`
	Role      string    `json:"role"`
	Voices    []string  `json:"voices"`
	Timestamp time.Time `json:"timestamp"`
}

type heartbeatMessage struct {
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker announces this node's voices on the bus, emits heartbeats, and
// keeps a health-scored map of every peer it has heard from.
type Tracker struct {
	cfg       config.NodeConfig
	voices    []string
	log       *slog.Logger
	bus       *bus.Client
	mu        sync.RWMutex
	nodes     map[string]*NodeInfo
	heartbeat *time.Ticker
	cancel    context.CancelFunc
	subs      []*nats.Subscription
	meter     metric.Meter
}

// NewTracker starts announcing and listening. voices is the list this node
// can synthesize with, advertised to peers.
func NewTracker(ctx context.Context, cfg config.NodeConfig, voices []string, busClient *bus.Client, log *slog.Logger) (*Tracker, error) {
	ctx, cancel := context.WithCancel(ctx)
	t := &Tracker{
		cfg:    cfg,
		voices: voices,
		log:    log.With(slog.String("component", "presence-tracker")),
		bus:    busClient,
		nodes:  make(map[string]*NodeInfo),
		meter:  otel.Meter("github.com/orpheuslabs/orpheus-core/runtime"),
		cancel: cancel,
	}

	if err := t.initMetrics(); err != nil {
		t.log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}

	if err := t.subscribe(); err != nil {
		t.cancel()
		return nil, err
	}

	t.heartbeat = time.NewTicker(time.Duration(cfg.HeartbeatInterval) * time.Millisecond)
	go t.runHeartbeat(ctx)
	go t.monitorHealth(ctx)

	if err := t.announce(); err != nil {
		t.log.Warn("failed to announce node", slog.String("error", err.Error()))
	}

	return t, nil
}

func (t *Tracker) Close() {
	if t.cancel != nil {
		t.cancel()
	}
	if t.heartbeat != nil {
		t.heartbeat.Stop()
	}
	for _, sub := range t.subs {
		_ = sub.Drain()
	}
}

func (t *Tracker) subscribe() error {
	conn := t.bus.Conn()
	announceSub, err := conn.Subscribe(protocol.SubjectNodeAnnounce, t.handleAnnounce)
	if err != nil {
		return fmt.Errorf("subscribe announce: %w", err)
	}
	t.subs = append(t.subs, announceSub)

	heartbeatSub, err := conn.Subscribe(protocol.SubjectNodeHeartbeatPrefix+".*", t.handleHeartbeat)
	if err != nil {
		return fmt.Errorf("subscribe heartbeat: %w", err)
	}
	t.subs = append(t.subs, heartbeatSub)

	return nil
}

func (t *Tracker) runHeartbeat(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.heartbeat.C:
			if err := t.publishHeartbeat(); err != nil {
				t.log.Warn("failed to publish heartbeat", slog.String("error", err.Error()))
			}
		}
	}
}

func (t *Tracker) monitorHealth(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.evaluateHealth()
		}
	}
}

func (t *Tracker) announce() error {
	msg := announceMessage{
		NodeID:    t.cfg.ID,
		Role:      t.cfg.Role,
		Voices:    t.voices,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := t.bus.Conn().Publish(protocol.SubjectNodeAnnounce, payload); err != nil {
		return err
	}
	t.updateNode(msg.NodeID, msg.Role, msg.Voices, msg.Timestamp)
	return nil
}

func (t *Tracker) publishHeartbeat() error {
	msg := heartbeatMessage{
		NodeID:    t.cfg.ID,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.%s", protocol.SubjectNodeHeartbeatPrefix, t.cfg.ID)
	return t.bus.Conn().Publish(subject, payload)
}

func (t *Tracker) handleAnnounce(msg *nats.Msg) {
	var announcement announceMessage
	if err := json.Unmarshal(msg.Data, &announcement); err != nil {
		t.log.Warn("invalid announce message", slog.String("error", err.Error()))
		return
	}
	if announcement.Timestamp.IsZero() {
		announcement.Timestamp = time.Now().UTC()
	}
	t.updateNode(announcement.NodeID, announcement.Role, announcement.Voices, announcement.Timestamp)
}

func (t *Tracker) handleHeartbeat(msg *nats.Msg) {
	var hb heartbeatMessage
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		t.log.Warn("invalid heartbeat message", slog.String("error", err.Error()))
		return
	}
	if hb.Timestamp.IsZero() {
		hb.Timestamp = time.Now().UTC()
	}
	t.updateNode(hb.NodeID, "", nil, hb.Timestamp)
}

func (t *Tracker) updateNode(nodeID, role string, voices []string, timestamp time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.nodes[nodeID]
	if !ok {
		node = &NodeInfo{ID: nodeID}
		t.nodes[nodeID] = node
	}
	if role != "" {
		node.Role = role
	}
	if len(voices) > 0 {
		node.Voices = voices
	}
	node.LastSeen = timestamp
	node.Healthy = true
}

func (t *Tracker) evaluateHealth() {
	t.mu.Lock()
	defer t.mu.Unlock()

	timeout := time.Duration(t.cfg.HeartbeatTimeout) * time.Millisecond
	now := time.Now()
	for _, node := range t.nodes {
		if now.Sub(node.LastSeen) > timeout {
			node.Healthy = false
		}
	}
}

// Healthy reports whether this node has seen its own announce or heartbeat
// inside the timeout window.
func (t *Tracker) Healthy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, ok := t.nodes[t.cfg.ID]
	if !ok {
		return false
	}
	return node.Healthy
}

// Query returns a snapshot of known nodes matching the filter. A nil filter
// matches everything.
func (t *Tracker) Query(filter func(NodeInfo) bool) []NodeInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var results []NodeInfo
	for _, node := range t.nodes {
		copy := *node
		if filter == nil || filter(copy) {
			results = append(results, copy)
		}
	}
	return results
}

// WithVoiceFilter matches nodes advertising the given voice.
func WithVoiceFilter(voice string) func(NodeInfo) bool {
	return func(node NodeInfo) bool {
		for _, v := range node.Voices {
			if v == voice {
				return true
			}
		}
		return false
	}
}

func (t *Tracker) initMetrics() error {
	if t.meter == nil {
		return nil
	}
	nodeGauge, err := t.meter.Int64ObservableGauge("orpheus.presence.nodes", metric.WithDescription("Number of known synthesis nodes"))
	if err != nil {
		return err
	}
	voiceGauge, err := t.meter.Int64ObservableGauge("orpheus.presence.voices", metric.WithDescription("Total advertised voices"))
	if err != nil {
		return err
	}
	_, err = t.meter.RegisterCallback(func(ctx context.Context, obs metric.Observer) error {
		nodes, voices := t.snapshotCounts()
		obs.ObserveInt64(nodeGauge, nodes)
		obs.ObserveInt64(voiceGauge, voices)
		return nil
	}, nodeGauge, voiceGauge)
	return err
}

func (t *Tracker) snapshotCounts() (int64, int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var nodes int64
	var voices int64
	for _, node := range t.nodes {
		nodes++
		voices += int64(len(node.Voices))
	}
	return nodes, voices
}
