package config

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":3000",
			Title:              "Brain Voice",
			RateLimitPerMinute: 60,
		},
		Realtime: RealtimeConfig{
			BaseURL:      "https://api.openai.com/v1/",
			WebSocketURL: "wss://api.openai.com/v1/realtime",
			Model:        "gpt-4o-realtime-preview-2024-12-17",
			Voice:        "sage",
			MaxRetries:   2,
			TimeoutSecs:  30,
		},
		Session: SessionConfig{
			ContinuationDelayMS: 500,
			ToolChoice:          "auto",
			WriteTimeoutSecs:    5,
		},
		Summaries: SummaryConfig{
			Backend: "file",
			Path:    "./user-data.json",
			Redaction: RedactionConfig{
				Enabled:      true,
				RedactEmails: true,
				RedactPhones: true,
				RedactCards:  true,
				RedactSSN:    true,
			},
		},
		Summarizer: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			MaxTokens:   512,
			TimeoutSecs: 60,
		},
		Plugins: PluginsConfig{
			Enabled:        false,
			TimeoutSecs:    10,
			SandboxEnabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
