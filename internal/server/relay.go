package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"brainvoice/internal/metrics"
	"brainvoice/internal/realtime"
	"brainvoice/internal/session"
)

// handleRealtime relays a browser websocket to the realtime backend and
// runs one session controller on the upstream side of the pipe.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	upstreamWS, err := s.opts.Dial(r.Context())
	if err != nil {
		metrics.RelayConnections.WithLabelValues("dial_failed").Inc()
		s.logger.Error().Err(err).Msg("dial realtime backend")
		writeError(w, http.StatusBadGateway, "Failed to connect to realtime backend")
		return
	}
	clientWS, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.RelayConnections.WithLabelValues("upgrade_failed").Inc()
		_ = upstreamWS.Close()
		return
	}
	metrics.RelayConnections.WithLabelValues("opened").Inc()

	upstream := realtime.NewConn(upstreamWS, s.opts.WriteTimeout)
	downstream := realtime.NewConn(clientWS, s.opts.WriteTimeout)
	ctrl := session.NewController(s.opts.Session, s.opts.Registry, upstream,
		session.WithBus(s.opts.Bus),
		session.WithResultHandler(func(ctx context.Context, res session.InvocationResult) {
			if err := downstream.Send(ctx, newToolResultFrame(res)); err != nil {
				s.logger.Debug().Err(err).Str("tool", res.ToolName).Msg("tool result not delivered to browser")
			}
		}),
	)

	s.relay(r.Context(), ctrl, upstream, downstream)
}

// typeToolResult is the one frame the relay adds to the browser stream.
// The page uses it to show the latest tool output.
const typeToolResult = "brainvoice.tool_result"

type toolResultFrame struct {
	Type   string          `json:"type"`
	Tool   string          `json:"tool"`
	CallID string          `json:"call_id,omitempty"`
	Output json.RawMessage `json:"output"`
	At     time.Time       `json:"at"`
}

func newToolResultFrame(res session.InvocationResult) toolResultFrame {
	return toolResultFrame{
		Type:   typeToolResult,
		Tool:   res.ToolName,
		CallID: res.CallID,
		Output: res.Output,
		At:     res.At.UTC(),
	}
}

type frameConn interface {
	ReadFrame() (int, []byte, error)
	WriteRaw(ctx context.Context, messageType int, data []byte) error
	Close() error
}

// relay pumps frames both ways until either side closes, then ends the session.
func (s *Server) relay(parent context.Context, ctrl *session.Controller, upstream, downstream frameConn) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan struct{}, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer func() { done <- struct{}{} }()
		for {
			mt, data, err := upstream.ReadFrame()
			if err != nil {
				s.logClose("upstream", err)
				return
			}
			if mt == websocket.TextMessage {
				s.observe(ctx, ctrl, data)
			}
			if err := downstream.WriteRaw(ctx, mt, data); err != nil {
				s.logClose("downstream write", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		defer func() { done <- struct{}{} }()
		for {
			mt, data, err := downstream.ReadFrame()
			if err != nil {
				s.logClose("downstream", err)
				return
			}
			if err := upstream.WriteRaw(ctx, mt, data); err != nil {
				s.logClose("upstream write", err)
				return
			}
		}
	}()

	<-done
	cancel()
	ctrl.End()
	_ = upstream.Close()
	_ = downstream.Close()
	wg.Wait()
	ctrl.Wait()
}

// observe feeds one upstream frame to the controller. Frames that do not
// decode are still forwarded; the controller just never sees them.
func (s *Server) observe(ctx context.Context, ctrl *session.Controller, data []byte) {
	ev, err := realtime.DecodeEvent(data)
	if err != nil {
		s.logger.Debug().Err(err).Msg("undecodable upstream frame")
		return
	}
	if err := ctrl.HandleEvent(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Msg("session event handling failed")
	}
}

func (s *Server) logClose(side string, err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, realtime.ErrClosed) || errors.Is(err, context.Canceled) {
		s.logger.Debug().Str("side", side).Msg("relay closed")
		return
	}
	s.logger.Info().Err(err).Str("side", side).Msg("relay closed")
}
