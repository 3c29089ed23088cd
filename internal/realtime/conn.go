package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Emitter delivers outbound events to the backend.
type Emitter interface {
	Send(ctx context.Context, event any) error
}

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("realtime: connection closed")

type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Conn serializes writes to one websocket. gorilla/websocket allows a
// single concurrent writer, and both the relay pump and the session
// controller write upstream.
type Conn struct {
	ws           wsConn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewConn wraps ws. A non-positive writeTimeout defaults to 5s.
func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return newConn(ws, writeTimeout)
}

func newConn(ws wsConn, writeTimeout time.Duration) *Conn {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// Send encodes event as JSON and writes it as one text frame.
func (c *Conn) Send(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return c.WriteRaw(ctx, websocket.TextMessage, data)
}

// WriteRaw writes a frame as-is.
func (c *Conn) WriteRaw(ctx context.Context, messageType int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

// ReadFrame returns the next frame. Only one goroutine may read.
func (c *Conn) ReadFrame() (int, []byte, error) {
	return c.ws.ReadMessage()
}

// Close sends a normal close frame and closes the socket. It is idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout))
	return c.ws.Close()
}
