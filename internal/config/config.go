package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type NodeConfig struct {
	ID                string `yaml:"id"`
	Role              string `yaml:"role"`
	HeartbeatInterval int    `yaml:"heartbeat_interval_ms"`
	HeartbeatTimeout  int    `yaml:"heartbeat_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxUtterances int    `yaml:"max_utterances"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// SynthConfig tunes the formant synthesis engine itself.
type SynthConfig struct {
	SampleRate      int     `yaml:"sample_rate"`
	SynthesisLayers int     `yaml:"synthesis_layers"`
	MasterVolume    float64 `yaml:"master_volume"`
	ChunkBytes      int     `yaml:"chunk_bytes"`
	CrossfadeMS     float64 `yaml:"crossfade_ms"`
	PitchStartHz    float64 `yaml:"pitch_start_hz"`
	PitchEndHz      float64 `yaml:"pitch_end_hz"`
}

type SpeechConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DefaultVoice string `yaml:"default_voice"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	Node        NodeConfig       `yaml:"node"`
	EventStore  EventStoreConfig `yaml:"event_store"`
	Synth       SynthConfig      `yaml:"synth"`
	Speech      SpeechConfig     `yaml:"speech"`
}

func Default() Config {
	return Config{
		RuntimeName: "orpheus-core",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Node: NodeConfig{
			ID:                "orpheus-node-1",
			Role:              "synthesis",
			HeartbeatInterval: 2000,
			HeartbeatTimeout:  6000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/orpheus-events.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxUtterances: 10000,
		},
		Synth: SynthConfig{
			SampleRate:      44100,
			SynthesisLayers: 30,
			MasterVolume:    0.9,
			ChunkBytes:      2048,
			CrossfadeMS:     6,
			PitchStartHz:    110,
			PitchEndHz:      80,
		},
		Speech: SpeechConfig{
			Enabled:      true,
			DefaultVoice: "orpheus",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "ORPHEUS_RUNTIME_NAME")
	overrideString(&cfg.Environment, "ORPHEUS_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "ORPHEUS_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "ORPHEUS_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "ORPHEUS_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "ORPHEUS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "ORPHEUS_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "ORPHEUS_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "ORPHEUS_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "ORPHEUS_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "ORPHEUS_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "ORPHEUS_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "ORPHEUS_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "ORPHEUS_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "ORPHEUS_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "ORPHEUS_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "ORPHEUS_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Node.ID, "ORPHEUS_NODE_ID")
	overrideString(&cfg.Node.Role, "ORPHEUS_NODE_ROLE")
	overrideInt(&cfg.Node.HeartbeatInterval, "ORPHEUS_NODE_HEARTBEAT_INTERVAL_MS")
	overrideInt(&cfg.Node.HeartbeatTimeout, "ORPHEUS_NODE_HEARTBEAT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "ORPHEUS_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "ORPHEUS_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "ORPHEUS_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxUtterances, "ORPHEUS_EVENT_STORE_MAX_UTTERANCES")
	overrideBool(&cfg.EventStore.VacuumOnStart, "ORPHEUS_EVENT_STORE_VACUUM_ON_START")
	overrideInt(&cfg.Synth.SampleRate, "ORPHEUS_SYNTH_SAMPLE_RATE")
	overrideInt(&cfg.Synth.SynthesisLayers, "ORPHEUS_SYNTH_SYNTHESIS_LAYERS")
	overrideFloat(&cfg.Synth.MasterVolume, "ORPHEUS_SYNTH_MASTER_VOLUME")
	overrideInt(&cfg.Synth.ChunkBytes, "ORPHEUS_SYNTH_CHUNK_BYTES")
	overrideFloat(&cfg.Synth.CrossfadeMS, "ORPHEUS_SYNTH_CROSSFADE_MS")
	overrideFloat(&cfg.Synth.PitchStartHz, "ORPHEUS_SYNTH_PITCH_START_HZ")
	overrideFloat(&cfg.Synth.PitchEndHz, "ORPHEUS_SYNTH_PITCH_END_HZ")
	overrideBool(&cfg.Speech.Enabled, "ORPHEUS_SPEECH_ENABLED")
	overrideString(&cfg.Speech.DefaultVoice, "ORPHEUS_SPEECH_DEFAULT_VOICE")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Node.ID == "" {
		return errors.New("node.id must not be empty")
	}
	if cfg.Node.HeartbeatInterval <= 0 {
		return errors.New("node.heartbeat_interval_ms must be positive")
	}
	if cfg.Node.HeartbeatTimeout <= cfg.Node.HeartbeatInterval {
		return errors.New("node.heartbeat_timeout_ms must be greater than heartbeat interval")
	}
	if cfg.EventStore.Path == "" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Synth.SampleRate <= 0 {
		return errors.New("synth.sample_rate must be positive")
	}
	if cfg.Synth.SynthesisLayers < 1 {
		return errors.New("synth.synthesis_layers must be >= 1")
	}
	if cfg.Synth.MasterVolume <= 0 || cfg.Synth.MasterVolume > 1 {
		return errors.New("synth.master_volume must be in (0, 1]")
	}
	if cfg.Synth.ChunkBytes <= 0 || cfg.Synth.ChunkBytes%2 != 0 {
		return errors.New("synth.chunk_bytes must be positive and even")
	}
	if cfg.Synth.CrossfadeMS < 0 {
		return errors.New("synth.crossfade_ms must be >= 0")
	}
	if cfg.Synth.PitchStartHz <= 0 || cfg.Synth.PitchEndHz <= 0 {
		return errors.New("synth.pitch_start_hz and synth.pitch_end_hz must be positive")
	}
	return nil
}
