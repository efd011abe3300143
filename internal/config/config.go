// Package config defines the typed configuration surface for the core.
//
// It defines the shape every in-scope component depends on, sane
// defaults for every field the file omits, and Load, which reads a
// TOML file over those defaults. Parsing CLI flags is left to the CLI
// entry point.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	BBS         BBSConfig         `toml:"bbs"`
	Meshtastic  MeshtasticConfig  `toml:"meshtastic"`
	Logging     LoggingConfig     `toml:"logging"`
	Storage     StorageConfig     `toml:"storage"`
	Games       GamesConfig       `toml:"games"`
	IdentBeacon IdentBeaconConfig `toml:"ident_beacon"`
	World       WorldConfig       `toml:"world"`
	Session     SessionConfig     `toml:"session"`
	Identity    IdentityConfig    `toml:"identity"`
	Retention   RetentionConfig   `toml:"retention"`
}

type BBSConfig struct {
	Name                string `toml:"name"`
	Sysop               string `toml:"sysop"`
	PublicCommandPrefix string `toml:"public_command_prefix"`
}

type MeshtasticConfig struct {
	Port               string        `toml:"port"`
	BaudRate           int           `toml:"baud_rate"`
	Channel            int           `toml:"channel"`
	NodeID             uint32        `toml:"node_id"`
	MinSendGap         time.Duration `toml:"min_send_gap_ms"`
	PostDMBroadcastGap time.Duration `toml:"post_dm_broadcast_gap_ms"`
	DMToDMGap          time.Duration `toml:"dm_to_dm_gap_ms"`
	RequireCRC         bool          `toml:"require_crc"`
	ReopenBackoffMin   time.Duration `toml:"reopen_backoff_min"`
	ReopenBackoffMax   time.Duration `toml:"reopen_backoff_max"`
}

type LoggingConfig struct {
	Level        string `toml:"level"`
	File         string `toml:"file"`
	SecurityFile string `toml:"security_file"`
}

type StorageConfig struct {
	DataDir        string `toml:"data_dir"`
	MaxMessageSize int    `toml:"max_message_size"`
	AsyncWorkers   int    `toml:"async_workers"`
}

type GamesConfig struct {
	TinyMUSHEnabled bool   `toml:"tinymush_enabled"`
	TinyMUSHDBPath  string `toml:"tinymush_db_path"`
}

// IdentBeaconFrequency is one of the config-accepted cadence tokens.
type IdentBeaconFrequency string

const (
	Freq5Min   IdentBeaconFrequency = "5min"
	Freq15Min  IdentBeaconFrequency = "15min"
	Freq30Min  IdentBeaconFrequency = "30min"
	Freq1Hour  IdentBeaconFrequency = "1hour"
	Freq2Hours IdentBeaconFrequency = "2hours"
	Freq4Hours IdentBeaconFrequency = "4hours"
)

// Duration returns the wall-clock period this cadence token represents,
// or zero if the token is not recognized.
func (f IdentBeaconFrequency) Duration() time.Duration {
	switch f {
	case Freq5Min:
		return 5 * time.Minute
	case Freq15Min:
		return 15 * time.Minute
	case Freq30Min:
		return 30 * time.Minute
	case Freq1Hour:
		return time.Hour
	case Freq2Hours:
		return 2 * time.Hour
	case Freq4Hours:
		return 4 * time.Hour
	default:
		return 0
	}
}

type IdentBeaconConfig struct {
	Enabled   bool                 `toml:"enabled"`
	Frequency IdentBeaconFrequency `toml:"frequency"`
}

// CurrencyMode tags which Currency representation the world uses.
type CurrencyMode string

const (
	CurrencyDecimal   CurrencyMode = "decimal"
	CurrencyMultiTier CurrencyMode = "multitier"
)

type WorldConfig struct {
	CurrencyMode     CurrencyMode `toml:"currency_mode"`
	DecimalToCopper  int64        `toml:"decimal_to_copper"`
	PlatinumToCopper int64        `toml:"platinum_to_copper"`
	GoldToCopper     int64        `toml:"gold_to_copper"`
	SilverToCopper   int64        `toml:"silver_to_copper"`
	SeedPath         string       `toml:"seed_path"`
}

type SessionConfig struct {
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	RateLimitPerMin int           `toml:"rate_limit_per_minute"`
}

type IdentityConfig struct {
	Argon2Time    uint32 `toml:"argon2_time"`
	Argon2MemKB   uint32 `toml:"argon2_memory_kb"`
	Argon2Threads uint8  `toml:"argon2_threads"`
	Argon2KeyLen  uint32 `toml:"argon2_key_len"`
}

// RetentionConfig governs the periodic pruning/backup job (§4.7).
type RetentionConfig struct {
	AuditLogMaxAge time.Duration `toml:"audit_log_max_age"`
	WALMaxAge      time.Duration `toml:"wal_max_age"`
	BackupInterval time.Duration `toml:"backup_interval"`
	BackupDir      string        `toml:"backup_dir"`
}

// Load reads and parses a TOML config file at path, starting from
// Defaults() so any field the file omits keeps its default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	// The *_ms pacing keys hold integer milliseconds.
	for k, d := range map[string]*time.Duration{
		"min_send_gap_ms":          &cfg.Meshtastic.MinSendGap,
		"post_dm_broadcast_gap_ms": &cfg.Meshtastic.PostDMBroadcastGap,
		"dm_to_dm_gap_ms":          &cfg.Meshtastic.DMToDMGap,
	} {
		if md.Type("meshtastic", k) == "Integer" {
			*d *= time.Millisecond
		}
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		BBS: BBSConfig{
			Name:                "MeshBBS",
			PublicCommandPrefix: "^",
		},
		Meshtastic: MeshtasticConfig{
			Port:               "/dev/ttyUSB0",
			BaudRate:           115200,
			Channel:            0,
			MinSendGap:         2000 * time.Millisecond,
			PostDMBroadcastGap: 1200 * time.Millisecond,
			DMToDMGap:          600 * time.Millisecond,
			ReopenBackoffMin:   1 * time.Second,
			ReopenBackoffMax:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			MaxMessageSize: 230,
			AsyncWorkers:   4,
		},
		IdentBeacon: IdentBeaconConfig{
			Enabled:   true,
			Frequency: Freq30Min,
		},
		World: WorldConfig{
			CurrencyMode:     CurrencyDecimal,
			DecimalToCopper:  100,
			PlatinumToCopper: 1_000_000,
			GoldToCopper:     10_000,
			SilverToCopper:   100,
		},
		Session: SessionConfig{
			IdleTimeout:     15 * time.Minute,
			RateLimitPerMin: 10,
		},
		Identity: IdentityConfig{
			Argon2Time:    1,
			Argon2MemKB:   64 * 1024,
			Argon2Threads: 4,
			Argon2KeyLen:  32,
		},
		Retention: RetentionConfig{
			AuditLogMaxAge: 90 * 24 * time.Hour,
			WALMaxAge:      90 * 24 * time.Hour,
			BackupInterval: 24 * time.Hour,
			BackupDir:      "backups",
		},
	}
}
