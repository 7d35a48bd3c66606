package presence

import (
	"testing"
	"time"

	"github.com/orpheuslabs/orpheus-core/internal/config"
)

func newTestTracker() *Tracker {
	return &Tracker{
		cfg: config.NodeConfig{
			ID:                "local",
			Role:              "synthesis",
			HeartbeatInterval: 100,
			HeartbeatTimeout:  300,
		},
		nodes: make(map[string]*NodeInfo),
	}
}

func TestUpdateNodeTracksRoleAndVoices(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()

	tr.updateNode("peer-1", "synthesis", []string{"orpheus"}, now)
	tr.updateNode("peer-1", "", nil, now.Add(time.Second))

	nodes := tr.Query(nil)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	node := nodes[0]
	if node.Role != "synthesis" {
		t.Fatalf("heartbeat must not clear role, got %q", node.Role)
	}
	if len(node.Voices) != 1 || node.Voices[0] != "orpheus" {
		t.Fatalf("heartbeat must not clear voices, got %v", node.Voices)
	}
	if !node.LastSeen.Equal(now.Add(time.Second)) {
		t.Fatalf("expected last seen advanced, got %v", node.LastSeen)
	}
}

func TestEvaluateHealthMarksStaleNodes(t *testing.T) {
	tr := newTestTracker()
	tr.updateNode("stale", "synthesis", nil, time.Now().Add(-time.Minute))
	tr.updateNode("fresh", "synthesis", nil, time.Now())

	tr.evaluateHealth()

	for _, node := range tr.Query(nil) {
		switch node.ID {
		case "stale":
			if node.Healthy {
				t.Fatal("expected stale node marked unhealthy")
			}
		case "fresh":
			if !node.Healthy {
				t.Fatal("expected fresh node still healthy")
			}
		}
	}
}

func TestHealthyReflectsOwnNode(t *testing.T) {
	tr := newTestTracker()
	if tr.Healthy() {
		t.Fatal("tracker with no self record must not report healthy")
	}
	tr.updateNode("local", "synthesis", []string{"orpheus"}, time.Now())
	if !tr.Healthy() {
		t.Fatal("expected healthy after self announce")
	}
}

func TestVoiceFilter(t *testing.T) {
	tr := newTestTracker()
	tr.updateNode("a", "synthesis", []string{"orpheus"}, time.Now())
	tr.updateNode("b", "synthesis", []string{"other"}, time.Now())

	matches := tr.Query(WithVoiceFilter("orpheus"))
	if len(matches) != 1 || matches[0].ID != "a" {
		t.Fatalf("expected only node a, got %v", matches)
	}
}
