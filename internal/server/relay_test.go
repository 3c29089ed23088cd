package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainvoice/internal/realtime"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

// fakeBackend plays the realtime service: it announces a session, waits for
// the tool registration, then asks for the exercise tool.
func fakeBackend(t *testing.T, received chan<- map[string]any) *httptest.Server {
	upgrader := websocket.Upgrader{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created","event_id":"ev_1","session":{"id":"sess_1"}}`))

		var registration map[string]any
		if err := conn.ReadJSON(&registration); err != nil {
			return
		}
		received <- registration

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.done","response":{"id":"resp_1","output":[`+
			`{"type":"function_call","call_id":"call_1","name":"propose_brain_exercise","arguments":"{}"}]}}`))

		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- msg
		}
	}))
	t.Cleanup(backend.Close)
	return backend
}

func nextMessage(t *testing.T, ch <-chan map[string]any) map[string]any {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for upstream message")
		return nil
	}
}

func TestRealtimeRelayRunsSession(t *testing.T) {
	received := make(chan map[string]any, 16)
	backend := fakeBackend(t, received)

	srv, _ := newTestServer(t, func(o *Options) {
		o.Dial = func(ctx context.Context) (*websocket.Conn, error) {
			return realtime.Dial(ctx, wsURL(backend.URL), "", "sk-test")
		}
	})

	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"/realtime", nil)
	require.NoError(t, err)
	defer client.Close()

	// The browser sees the backend's frames unchanged.
	_, frame, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"session.created"`)

	registration := nextMessage(t, received)
	assert.Equal(t, "session.update", registration["type"])
	sess, _ := registration["session"].(map[string]any)
	assert.Equal(t, "auto", sess["tool_choice"])
	tools, _ := sess["tools"].([]any)
	assert.Len(t, tools, 1)

	// Browser frames go upstream untouched.
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"input_audio_buffer.commit"}`)))

	seen := map[string]bool{}
	for len(seen) < 2 {
		msg := nextMessage(t, received)
		typ, _ := msg["type"].(string)
		seen[typ] = true
		if typ == "response.create" {
			resp, _ := msg["response"].(map[string]any)
			instructions, _ := resp["instructions"].(string)
			assert.Contains(t, instructions, "encourage them to try it")
		}
	}
	assert.True(t, seen["response.create"], "expected a continuation upstream")
	assert.True(t, seen["input_audio_buffer.commit"], "expected browser frame upstream")

	// The backend's response.done and the relay's own result frame may
	// arrive in either order.
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	browserSaw := map[string]map[string]any{}
	for len(browserSaw) < 2 {
		var msg map[string]any
		require.NoError(t, client.ReadJSON(&msg))
		typ, _ := msg["type"].(string)
		browserSaw[typ] = msg
	}
	require.Contains(t, browserSaw, "response.done")
	require.Contains(t, browserSaw, typeToolResult)
	result := browserSaw[typeToolResult]
	assert.Equal(t, "propose_brain_exercise", result["tool"])
	assert.Equal(t, "call_1", result["call_id"])
	output, _ := result["output"].(map[string]any)
	assert.NotEmpty(t, output["exercise"])
}
