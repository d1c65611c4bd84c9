// Package cmn holds types and helpers shared by every relay package: the
// runtime configuration, the global config owner, verbosity gating, and the
// domain error hierarchy. Modeled on aistore's cmn package, which plays the
// same "ambient, imported everywhere" role.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package cmn

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config is the immutable, process-wide configuration enumerated in the
// relay's external-interfaces specification.
type Config struct {
	RelayUUID   string   `yaml:"relay_uuid"`
	FolderNames []string `yaml:"folder_names"`

	LinkIndexerDebounceMS  int64 `yaml:"link_indexer_debounce_ms"`
	SearchIndexerDebounceMS int64 `yaml:"search_indexer_debounce_ms"`
	SearchWriterHeapBytes  int64 `yaml:"search_writer_heap_bytes"`
	SessionTTLSeconds      int64 `yaml:"session_ttl_seconds"`
	DirtyChannelCapacity   int   `yaml:"dirty_channel_capacity"`
	IndexerChannelCapacity int   `yaml:"indexer_channel_capacity"`

	ListenAddr    string `yaml:"listen_addr"`
	MetricsAddr   string `yaml:"metrics_addr"`

	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	BlobRoot    string `yaml:"blob_root"` // local filesystem fallback, see blob.FSStore

	SearchIndexDir string `yaml:"search_index_dir"`

	WebhookURL        string `yaml:"webhook_url"`
	WebhookTimeoutMS  int64  `yaml:"webhook_timeout_ms"`

	Verbosity map[string]int `yaml:"verbosity"` // per-module FastV level
}

// Default returns the configuration with every spec-mandated default filled
// in; callers overlay a YAML file and environment on top of this.
func Default() *Config {
	return &Config{
		LinkIndexerDebounceMS:   2000,
		SearchIndexerDebounceMS: 2000,
		SearchWriterHeapBytes:   15 * 1024 * 1024,
		SessionTTLSeconds:       3600,
		DirtyChannelCapacity:    1024,
		IndexerChannelCapacity:  1000,
		ListenAddr:              ":8080",
		MetricsAddr:             ":9090",
		WebhookTimeoutMS:        5000,
		SearchIndexDir:          "./data/search",
		BlobRoot:                "./data/blobs",
	}
}

// Load reads a YAML config file, overlays RELAY_*-prefixed environment
// variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cmn.Load: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("cmn.Load: parse %s: %w", path, err)
		}
	}
	cfg.overlayEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayEnv() {
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, "RELAY_") {
			continue
		}
		switch strings.TrimPrefix(k, "RELAY_") {
		case "RELAY_UUID", "UUID":
			c.RelayUUID = v
		case "LISTEN_ADDR":
			c.ListenAddr = v
		case "METRICS_ADDR":
			c.MetricsAddr = v
		case "S3_ENDPOINT":
			c.S3Endpoint = v
		case "S3_BUCKET":
			c.S3Bucket = v
		case "WEBHOOK_URL":
			c.WebhookURL = v
		case "SESSION_TTL_SECONDS":
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.SessionTTLSeconds = n
			}
		}
	}
}

func (c *Config) validate() error {
	if len(c.RelayUUID) != 36 {
		return NewErrInvalidConfig("relay_uuid must be a 36-character UUID")
	}
	if len(c.FolderNames) == 0 {
		return NewErrInvalidConfig("folder_names must not be empty")
	}
	return nil
}

// GCO is the global config owner: a single atomically-swappable pointer,
// mirroring the teacher's cmn.GCO / cmn.GCO.Get() convention so every
// package reads configuration the same way instead of threading it through
// every constructor.
var gco atomic.Pointer[Config]

type gcoT struct{}

var GCO gcoT

func (gcoT) Get() *Config { return gco.Load() }
func (gcoT) Put(c *Config) { gco.Store(c) }
