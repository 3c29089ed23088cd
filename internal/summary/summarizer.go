package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"brainvoice/internal/llm"
	applog "brainvoice/internal/log"
)

const summarizePrompt = `You summarise conversations between a user and a voice assistant that coaches
brain exercises. Write two or three plain sentences covering which exercises were
tried, how the user did, and anything they want to work on next time. Do not
include names, contact details or other personal data.`

// ErrEmptyTranscript is returned when there is nothing to summarise.
var ErrEmptyTranscript = errors.New("empty transcript")

// Redactor removes personal data before text is stored.
type Redactor interface {
	Redact(text string) string
}

// Summarizer turns a transcript into a stored summary.
type Summarizer struct {
	provider  llm.Provider
	store     Store
	redactor  Redactor
	maxTokens int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSummarizer creates a summarizer. redactor may be nil.
func NewSummarizer(provider llm.Provider, store Store, redactor Redactor, maxTokens int) *Summarizer {
	return &Summarizer{
		provider:  provider,
		store:     store,
		redactor:  redactor,
		maxTokens: maxTokens,
		now:       time.Now,
		logger:    applog.WithComponent("summary"),
	}
}

// Summarize asks the provider for a summary of transcript, redacts it and appends it.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (Record, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Record{}, ErrEmptyTranscript
	}

	resp, err := s.provider.Chat(ctx, &llm.ChatRequest{
		SystemPrompt: summarizePrompt,
		Messages:     []llm.Message{{Role: "user", Content: transcript}},
		MaxTokens:    s.maxTokens,
	})
	if err != nil {
		return Record{}, fmt.Errorf("summarize: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return Record{}, fmt.Errorf("summarize: provider %s returned no text", s.provider.Name())
	}

	rec := s.Record(text)
	if err := s.store.Append(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("store summary: %w", err)
	}
	s.logger.Info().
		Str("provider", s.provider.Name()).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Msg("summary stored")
	return rec, nil
}

// Record builds a timestamped, redacted record for text.
func (s *Summarizer) Record(text string) Record {
	if s.redactor != nil {
		text = s.redactor.Redact(text)
	}
	return Record{Text: text, Timestamp: s.now().UTC()}
}
