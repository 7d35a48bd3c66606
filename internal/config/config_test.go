package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Synth.SampleRate != 44100 {
		t.Fatalf("expected default sample rate 44100, got %d", cfg.Synth.SampleRate)
	}
	if cfg.Synth.SynthesisLayers != 30 {
		t.Fatalf("expected default synthesis layers 30, got %d", cfg.Synth.SynthesisLayers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ORPHEUS_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("ORPHEUS_BUS_USERNAME", "alice")
	t.Setenv("ORPHEUS_BUS_PASSWORD", "secret")
	t.Setenv("ORPHEUS_BUS_TLS_INSECURE", "true")
	t.Setenv("ORPHEUS_BUS_CONNECT_TIMEOUT_MS", "5000")
	t.Setenv("ORPHEUS_NODE_ID", "test-node")
	t.Setenv("ORPHEUS_EVENT_STORE_PATH", "./tmp.db")
	t.Setenv("ORPHEUS_EVENT_STORE_RETENTION_MODE", "persistent")
	t.Setenv("ORPHEUS_SYNTH_SYNTHESIS_LAYERS", "8")
	t.Setenv("ORPHEUS_SYNTH_MASTER_VOLUME", "0.75")
	t.Setenv("ORPHEUS_SPEECH_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Username != "alice" || cfg.Bus.Password != "secret" {
		t.Fatalf("expected credentials override")
	}
	if !cfg.Bus.TLSInsecure {
		t.Fatal("expected tls insecure override true")
	}
	if cfg.Bus.ConnectTimeout != 5000 {
		t.Fatalf("expected timeout 5000, got %d", cfg.Bus.ConnectTimeout)
	}
	if cfg.Node.ID != "test-node" {
		t.Fatalf("expected node id override")
	}
	if cfg.EventStore.Path != "./tmp.db" {
		t.Fatalf("expected event store path override")
	}
	if cfg.EventStore.RetentionMode != "persistent" {
		t.Fatalf("expected event store retention mode override")
	}
	if cfg.Synth.SynthesisLayers != 8 {
		t.Fatalf("expected synthesis layers override, got %d", cfg.Synth.SynthesisLayers)
	}
	if cfg.Synth.MasterVolume != 0.75 {
		t.Fatalf("expected master volume override, got %v", cfg.Synth.MasterVolume)
	}
	if cfg.Speech.Enabled {
		t.Fatal("expected speech service disabled")
	}
}

func TestValidateRejectsBadSynthSettings(t *testing.T) {
	t.Setenv("ORPHEUS_SYNTH_CHUNK_BYTES", "2047")
	if _, err := Load(""); err == nil {
		t.Fatal("expected odd chunk size to be rejected")
	}
}
