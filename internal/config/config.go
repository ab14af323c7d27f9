package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Storage StorageConfig
	Catalog CatalogConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type GeminiConfig struct {
	APIKey     string
	ChatModel  string
	ImageModel string
}

type StorageConfig struct {
	DataDir string
}

type CatalogConfig struct {
	Dir           string
	TopK          int
	MinSimilarity float64
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:    8000,
			MCPPort: 8001,
		},
		Gemini: GeminiConfig{
			ChatModel:  "gemini-2.0-flash",
			ImageModel: "gemini-2.5-flash-image",
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Catalog: CatalogConfig{
			Dir:           defaultCatalogDir(dataDir),
			TopK:          5,
			MinSimilarity: 0.3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.jewelryd.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/jewelryd/config.json
// and secrets must be provided via environment variables.
//
// Environment variables (JEWELRYD_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try platform keychain for API key if still empty.
	if cfg.Gemini.APIKey == "" {
		if key, err := kc.Get("jewelryd", "gemini_api_key"); err == nil && key != "" {
			cfg.Gemini.APIKey = key
		}
	}

	if cfg.Gemini.APIKey == "" {
		msg := "missing required config: Gemini API key. " +
			"Set it via environment variable JEWELRYD_GEMINI_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
