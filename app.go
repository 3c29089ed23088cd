package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"brainvoice/internal/config"
	"brainvoice/internal/eventbus"
	"brainvoice/internal/llm"
	applog "brainvoice/internal/log"
	"brainvoice/internal/realtime"
	"brainvoice/internal/security"
	"brainvoice/internal/server"
	"brainvoice/internal/session"
	"brainvoice/internal/skill"
	"brainvoice/internal/summary"
	"brainvoice/internal/token"
	"brainvoice/internal/tool"
)

const (
	secretRealtimeKey   = "realtime_api_key"
	secretSummarizerKey = "summarizer_api_key"
	secretFallbackKey   = "fallback_summarizer_api_key"
)

// App holds the wired application.
type App struct {
	cfg        *config.Config
	bus        *eventbus.Bus
	keyStore   *security.KeyStore
	store      summary.Store
	registry   *tool.Registry
	skills     *skill.Loader
	redactor   *security.Redactor
	summarizer *summary.Summarizer
	logger     zerolog.Logger
}

// NewApp loads the config named by --config and builds every component.
func NewApp() (*App, error) {
	loader, err := configLoader()
	if err != nil {
		return nil, fmt.Errorf("config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", loader.FilePath(), err)
	}
	applog.Configure(applog.Config{Level: cfg.Log.Level})

	a := &App{
		cfg:    cfg,
		bus:    eventbus.New(),
		logger: applog.WithComponent("app"),
	}

	ks, err := security.NewKeyStore(cfg.Secrets.VaultDir, cfg.Secrets.MasterPassword)
	if err != nil {
		a.logger.Warn().Err(err).Msg("key store unavailable, [keyring] placeholders will not resolve")
	}
	a.keyStore = ks
	a.resolveSecrets()

	store, err := summary.Open(cfg.Summaries.Backend, cfg.Summaries.Path)
	if err != nil {
		return nil, fmt.Errorf("open summary store: %w", err)
	}
	a.store = store
	a.redactor = security.NewRedactor(cfg.Summaries.Redaction)

	if err := a.buildRegistry(); err != nil {
		_ = store.Close()
		return nil, err
	}
	a.buildSummarizer()
	a.subscribeLogs()
	return a, nil
}

// resolveSecrets swaps [keyring] placeholders for the stored secrets.
// An unresolved key is blanked so it is reported as missing, not sent upstream.
func (a *App) resolveSecrets() {
	resolve := func(name string, value *string) {
		if *value != config.KeyringPlaceholder {
			return
		}
		if a.keyStore == nil {
			*value = ""
			return
		}
		secret, err := a.keyStore.Resolve(name, *value)
		if err != nil {
			a.logger.Warn().Err(err).Str("secret", name).Msg("failed to read secret")
			*value = ""
			return
		}
		*value = secret
	}

	resolve(secretRealtimeKey, &a.cfg.Realtime.APIKey)
	resolve(secretSummarizerKey, &a.cfg.Summarizer.APIKey)
	if a.cfg.FallbackSummarizer != nil {
		resolve(secretFallbackKey, &a.cfg.FallbackSummarizer.APIKey)
	}

	// The summarizer shares the realtime credential unless it has its own.
	if a.cfg.Summarizer.APIKey == "" && a.cfg.Summarizer.Provider == "openai" {
		a.cfg.Summarizer.APIKey = a.cfg.Realtime.APIKey
	}
}

func (a *App) buildRegistry() error {
	a.registry = tool.NewRegistry()
	if err := a.registry.Register(tool.NewExerciseTool(nil, nil)); err != nil {
		return err
	}
	if err := a.registry.Register(tool.NewRecallTool(a.store)); err != nil {
		return err
	}

	a.skills = skill.NewLoader(a.cfg.Plugins)
	n, err := a.skills.LoadInto(a.registry)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	if n > 0 {
		a.logger.Info().Int("count", n).Msg("loaded script tools")
	}
	return nil
}

func (a *App) buildSummarizer() {
	if a.cfg.Summarizer.APIKey == "" {
		a.logger.Info().Msg("summarizer API key not configured, /userdata/summarize disabled")
		return
	}
	var fallback *config.LLMConfig
	if fb := a.cfg.FallbackSummarizer; fb != nil && fb.APIKey != "" {
		fallback = fb
	}
	provider, err := llm.NewChain(a.cfg.Summarizer, fallback)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to create summarizer provider")
		return
	}
	a.summarizer = summary.NewSummarizer(provider, a.store, a.redactor, a.cfg.Summarizer.MaxTokens)
}

func (a *App) subscribeLogs() {
	sessions := applog.WithComponent("session")
	a.bus.Subscribe(eventbus.TopicError, func(e eventbus.Event) {
		sessions.Warn().Interface("notice", e.Payload).Msg("session error")
	})
	a.bus.Subscribe(eventbus.TopicToolError, func(e eventbus.Event) {
		sessions.Warn().Interface("notice", e.Payload).Msg("tool failed")
	})
	a.bus.Subscribe(eventbus.TopicSessionEnded, func(e eventbus.Event) {
		sessions.Debug().Interface("notice", e.Payload).Msg("session ended")
	})
}

// Server builds the HTTP front end from the wired components.
func (a *App) Server() *server.Server {
	rt := a.cfg.Realtime
	opts := server.Options{
		Addr:               a.cfg.Server.Addr,
		Title:              a.cfg.Server.Title,
		DefaultVoice:       rt.Voice,
		StaticDir:          a.cfg.Server.StaticDir,
		RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
		WriteTimeout:       time.Duration(a.cfg.Session.WriteTimeoutSecs) * time.Second,
		Session: session.Config{
			ContinuationDelay: time.Duration(a.cfg.Session.ContinuationDelayMS) * time.Millisecond,
			ToolChoice:        a.cfg.Session.ToolChoice,
			AnnounceFailures:  a.cfg.Session.AnnounceFailures,
		},
		Registry: a.registry,
		Store:    a.store,
		Redactor: a.redactor,
		Tokens: token.New(token.Config{
			APIKey:       rt.APIKey,
			BaseURL:      rt.BaseURL,
			Model:        rt.Model,
			DefaultVoice: rt.Voice,
			MaxRetries:   rt.MaxRetries,
			Timeout:      time.Duration(rt.TimeoutSecs) * time.Second,
		}),
		Dial: func(ctx context.Context) (*websocket.Conn, error) {
			if rt.APIKey == "" {
				return nil, errors.New("realtime API key not configured")
			}
			return realtime.Dial(ctx, rt.WebSocketURL, rt.Model, rt.APIKey)
		},
		Bus: a.bus,
	}
	if a.summarizer != nil {
		opts.Summarizer = a.summarizer
	}
	return server.New(opts)
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Realtime.APIKey == "" {
		a.logger.Warn().Msg("OPENAI_API_KEY not set, /token and /realtime will fail")
	}
	return a.Server().ListenAndServe(ctx)
}

// Close releases the summary store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
