package config

// Config is the top-level application configuration.
type Config struct {
	Server             ServerConfig   `json:"server"`
	Realtime           RealtimeConfig `json:"realtime"`
	Session            SessionConfig  `json:"session"`
	Summaries          SummaryConfig  `json:"summaries"`
	Summarizer         LLMConfig      `json:"summarizer"`
	FallbackSummarizer *LLMConfig     `json:"fallback_summarizer,omitempty"`
	Plugins            PluginsConfig  `json:"plugins"`
	Secrets            SecretsConfig  `json:"secrets"`
	Log                LogConfig      `json:"log"`
}

type ServerConfig struct {
	Addr               string `json:"addr"`
	StaticDir          string `json:"static_dir,omitempty"`
	Title              string `json:"title"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
}

// RealtimeConfig describes the realtime backend and the server-held credential.
type RealtimeConfig struct {
	APIKey       string `json:"api_key,omitempty"`
	BaseURL      string `json:"base_url"`
	WebSocketURL string `json:"websocket_url"`
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	MaxRetries   int    `json:"max_retries"`
	TimeoutSecs  int    `json:"timeout_secs"`
}

type SessionConfig struct {
	ContinuationDelayMS int    `json:"continuation_delay_ms"`
	ToolChoice          string `json:"tool_choice"`
	AnnounceFailures    bool   `json:"announce_failures"`
	WriteTimeoutSecs    int    `json:"write_timeout_secs"`
}

type SummaryConfig struct {
	Backend   string          `json:"backend"` // "file" or "sqlite"
	Path      string          `json:"path"`
	Redaction RedactionConfig `json:"redaction"`
}

type RedactionConfig struct {
	Enabled      bool `json:"enabled"`
	RedactEmails bool `json:"redact_emails"`
	RedactPhones bool `json:"redact_phones"`
	RedactCards  bool `json:"redact_cards"`
	RedactIPs    bool `json:"redact_ips"`
	RedactSSN    bool `json:"redact_ssn"`
}

type LLMConfig struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	APIKey      string `json:"api_key,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	MaxTokens   int    `json:"max_tokens"`
	TimeoutSecs int    `json:"timeout_secs"`
}

type PluginsConfig struct {
	Enabled        bool     `json:"enabled"`
	Dir            string   `json:"dir,omitempty"`
	EnabledTools   []string `json:"enabled_tools,omitempty"`
	TimeoutSecs    int      `json:"timeout_secs"`
	SandboxEnabled bool     `json:"sandbox_enabled"`
}

// SecretsConfig locates the encrypted vault used when no OS keychain is available.
// API keys set to KeyringPlaceholder are looked up there.
type SecretsConfig struct {
	VaultDir       string `json:"vault_dir,omitempty"`
	MasterPassword string `json:"-"`
}

// KeyringPlaceholder marks a credential that lives in the key store.
const KeyringPlaceholder = "[keyring]"

type LogConfig struct {
	Level string `json:"level"`
}
