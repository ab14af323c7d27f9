package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "JEWELRYD_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "JEWELRYD_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "gemini.api_key", typ: kString, env: "JEWELRYD_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.APIKey },
	},
	{
		key: "gemini.chat_model", typ: kString, env: "JEWELRYD_GEMINI_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.ChatModel },
	},
	{
		key: "gemini.image_model", typ: kString, env: "JEWELRYD_GEMINI_IMAGE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.ImageModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.ImageModel },
	},
	{
		key: "storage.data_dir", typ: kString, env: "JEWELRYD_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "catalog.dir", typ: kString, env: "JEWELRYD_CATALOG_DIR",
		apply:   func(cfg *Config, v any) { cfg.Catalog.Dir = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.Dir },
	},
	{
		key: "catalog.top_k", typ: kInt, env: "JEWELRYD_CATALOG_TOP_K",
		apply:   func(cfg *Config, v any) { cfg.Catalog.TopK = v.(int) },
		extract: func(cfg Config) any { return cfg.Catalog.TopK },
	},
	{
		key: "catalog.min_similarity", typ: kFloat, env: "JEWELRYD_CATALOG_MIN_SIMILARITY",
		apply:   func(cfg *Config, v any) { cfg.Catalog.MinSimilarity = v.(float64) },
		extract: func(cfg Config) any { return cfg.Catalog.MinSimilarity },
	},
	{
		key: "log.level", typ: kString, env: "JEWELRYD_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
