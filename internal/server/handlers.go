package server

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"brainvoice/internal/eventbus"
	"brainvoice/internal/metrics"
	"brainvoice/internal/summary"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const maxBodyBytes = 1 << 20

type indexData struct {
	Title string
	Voice string
	Tools []indexTool
}

type indexTool struct {
	Name        string
	Description string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{Title: s.opts.Title, Voice: s.opts.DefaultVoice}
	if s.opts.Registry != nil {
		for _, def := range s.opts.Registry.Definitions() {
			data.Tools = append(data.Tools, indexTool{Name: def.Name, Description: def.Description})
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	raw, err := s.opts.Tokens.Mint(r.Context(), r.URL.Query().Get("voice"))
	if err != nil {
		s.logger.Error().Err(err).Msg("token generation error")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	records, err := s.opts.Store.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list summaries")
		writeError(w, http.StatusInternalServerError, "Failed to load user data")
		return
	}
	if records == nil {
		records = []summary.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": records})
}

func (s *Server) handleAppendSummary(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Summary string `json:"summary"`
	}
	if err := decodeBody(r, &body); err != nil || strings.TrimSpace(body.Summary) == "" {
		writeError(w, http.StatusBadRequest, "No summary provided")
		return
	}

	text := body.Summary
	if s.opts.Redactor != nil {
		text = s.opts.Redactor.Redact(text)
	}
	rec := summary.Record{Text: text, Timestamp: s.now().UTC()}
	if err := s.opts.Store.Append(r.Context(), rec); err != nil {
		s.logger.Error().Err(err).Msg("append summary")
		writeError(w, http.StatusInternalServerError, "Failed to save user data")
		return
	}
	metrics.SummariesStoredTotal.WithLabelValues("client").Inc()
	s.opts.Bus.Publish(eventbus.TopicSummaryStored, rec)
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if s.opts.Summarizer == nil {
		writeError(w, http.StatusServiceUnavailable, "Summarizer not configured")
		return
	}
	var body struct {
		Transcript string `json:"transcript"`
	}
	if err := decodeBody(r, &body); err != nil || strings.TrimSpace(body.Transcript) == "" {
		writeError(w, http.StatusBadRequest, "No transcript provided")
		return
	}

	rec, err := s.opts.Summarizer.Summarize(r.Context(), body.Transcript)
	if err != nil {
		s.logger.Error().Err(err).Msg("summarize transcript")
		writeError(w, http.StatusBadGateway, "Failed to summarize transcript")
		return
	}
	metrics.SummariesStoredTotal.WithLabelValues("summarizer").Inc()
	s.opts.Bus.Publish(eventbus.TopicSummaryStored, rec)
	writeJSON(w, http.StatusCreated, map[string]string{"summary": rec.Text})
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("empty body")
	}
	return err
}
