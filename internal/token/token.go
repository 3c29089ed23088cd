package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const sessionsPath = "realtime/sessions"

// ErrNoAPIKey is returned when no server-held credential is configured.
var ErrNoAPIKey = errors.New("token: no API key configured")

// Config holds what the exchanger needs to mint session tokens.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	DefaultVoice string
	MaxRetries   int
	Timeout      time.Duration
}

// Exchanger trades the server-held API key for short-lived realtime session credentials.
type Exchanger struct {
	client       openai.Client
	hasKey       bool
	model        string
	defaultVoice string
}

type sessionRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
}

// New creates an exchanger.
func New(cfg Config) *Exchanger {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Exchanger{
		client:       openai.NewClient(opts...),
		hasKey:       strings.TrimSpace(cfg.APIKey) != "",
		model:        cfg.Model,
		defaultVoice: cfg.DefaultVoice,
	}
}

// Mint creates a realtime session for voice (or the default voice) and
// returns the backend's JSON response unchanged.
func (e *Exchanger) Mint(ctx context.Context, voice string) (json.RawMessage, error) {
	if !e.hasKey {
		return nil, ErrNoAPIKey
	}
	if strings.TrimSpace(voice) == "" {
		voice = e.defaultVoice
	}

	var res json.RawMessage
	err := e.client.Post(ctx, sessionsPath, sessionRequest{Model: e.model, Voice: voice}, &res)
	if err != nil {
		return nil, fmt.Errorf("create realtime session: %w", err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("create realtime session: empty response")
	}
	return res, nil
}
