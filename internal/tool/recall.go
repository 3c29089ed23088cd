package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"brainvoice/internal/summary"
)

const (
	recallToolName     = "recall_past_sessions"
	defaultRecallLimit = 3
	maxRecallLimit     = 20
)

// SummaryLister is the read side of the summary store.
type SummaryLister interface {
	List(ctx context.Context) ([]summary.Record, error)
}

// RecallTool lets the backend look up summaries of earlier conversations.
type RecallTool struct {
	store SummaryLister
}

func NewRecallTool(store SummaryLister) *RecallTool {
	return &RecallTool{store: store}
}

func (t *RecallTool) Name() string { return recallToolName }

func (t *RecallTool) Description() string {
	return "Look up short summaries of the user's previous sessions, most recent first. " +
		"Use it when the user refers to earlier exercises or asks how they did before."
}

func (t *RecallTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {
				"type": "integer",
				"description": "How many summaries to return (default 3)"
			}
		}
	}`)
}

func (t *RecallTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var params struct {
		Limit int `json:"limit"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return ErrorResult("invalid arguments: " + err.Error()), nil
		}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultRecallLimit
	}
	if limit > maxRecallLimit {
		limit = maxRecallLimit
	}

	records, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	recent := make([]summary.Record, 0, limit)
	for i := len(records) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, records[i])
	}
	return JSONResult(map[string]any{"summaries": recent})
}

func (t *RecallTool) Narrate(res *Result) string {
	if res == nil || len(res.Output) == 0 {
		return "There are no summaries of earlier sessions to draw on."
	}
	return "Here are summaries of the user's earlier sessions: " + string(res.Output) +
		". Use them to personalise your reply, mentioning only what is relevant."
}
