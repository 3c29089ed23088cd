package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	configDir  = ".brainvoice"
	configFile = "config.json"
)

// Loader manages reading and writing the config file.
type Loader struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
	getenv   func(string) string
}

// NewLoader creates a loader that stores config in ~/.brainvoice/config.json.
func NewLoader() (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, configDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return NewLoaderAt(filepath.Join(dir, configFile)), nil
}

// NewLoaderAt creates a loader for an explicit config path.
func NewLoaderAt(path string) *Loader {
	return &Loader{filePath: path, getenv: os.Getenv}
}

// Load reads the config from disk and applies environment overrides.
// A missing file yields defaults.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := Defaults()

	data, err := os.ReadFile(l.filePath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	l.applyEnv(cfg)
	l.config = cfg
	return cfg, nil
}

// applyEnv mirrors the variables the web front end has always honoured.
func (l *Loader) applyEnv(cfg *Config) {
	getenv := l.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			cfg.Server.Addr = ":" + port
		}
	}
	if key := strings.TrimSpace(getenv("OPENAI_API_KEY")); key != "" {
		cfg.Realtime.APIKey = key
		if cfg.Summarizer.Provider == "openai" && cfg.Summarizer.APIKey == "" {
			cfg.Summarizer.APIKey = key
		}
	}
	if voice := strings.TrimSpace(getenv("VOICE")); voice != "" {
		cfg.Realtime.Voice = voice
	}
	if level := strings.TrimSpace(getenv("LOG_LEVEL")); level != "" {
		cfg.Log.Level = level
	}
	cfg.Secrets.MasterPassword = getenv("BRAINVOICE_MASTER_PASSWORD")
}

// Save writes the config to disk.
func (l *Loader) Save(cfg *Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	l.config = cfg
	return os.WriteFile(l.filePath, data, 0600)
}

// Get returns the currently loaded config (or defaults if not loaded yet).
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.config == nil {
		return Defaults()
	}
	return l.config
}

// FilePath returns the config file path.
func (l *Loader) FilePath() string {
	return l.filePath
}
