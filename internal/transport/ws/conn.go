// Package ws provides the WebSocket channel to the chat endpoint.
package ws

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Options configures Dial and NewConn.
type Options struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Conn adapts a client-side gobwas/ws connection to chat.Conn.
// Outgoing frames are text messages.
type Conn struct {
	conn         net.Conn
	reader       io.Reader
	remoteAddr   string
	writeTimeout time.Duration

	// mu serializes frame writes, including control replies from the read path.
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Dial performs the WebSocket handshake with the endpoint at url.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	dialer := ws.Dialer{Timeout: opts.DialTimeout}
	conn, br, _, err := dialer.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return NewConn(conn, br, opts), nil
}

// NewConn wraps an upgraded connection. br holds bytes the handshake read
// past the response and may be nil.
func NewConn(conn net.Conn, br *bufio.Reader, opts Options) *Conn {
	c := &Conn{
		conn:         conn,
		reader:       conn,
		remoteAddr:   conn.RemoteAddr().String(),
		writeTimeout: opts.WriteTimeout,
	}
	if br != nil {
		c.reader = br
	}
	return c
}

// Read implements chat.Conn.
// Reads the next text or binary message. Protocol pings are answered and a
// close frame from the server is reported as io.EOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	data, _, err := wsutil.ReadServerData(wire{c})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var closed wsutil.ClosedError
		if errors.As(err, &closed) {
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

// Write implements chat.Conn.
// Writes data as one text message.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(c.writeDeadline(ctx)); err != nil {
		return err
	}
	return wsutil.WriteClientText(c.conn, data)
}

// Close implements chat.Conn.
// Sends a normal closure frame unless a write is in flight, then closes the connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		if c.mu.TryLock() {
			_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
			_ = wsutil.WriteClientMessage(c.conn, ws.OpClose, body)
			c.mu.Unlock()
		}
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

func (c *Conn) writeDeadline(ctx context.Context) time.Time {
	var deadline time.Time
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}

// wire is the io.ReadWriter handed to wsutil: reads drain the handshake
// buffer first, writes share the frame write lock and get their own deadline.
type wire struct {
	c *Conn
}

func (w wire) Read(p []byte) (int, error) {
	return w.c.reader.Read(p)
}

func (w wire) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	if err := w.c.conn.SetWriteDeadline(w.c.writeDeadline(context.Background())); err != nil {
		return 0, err
	}
	return w.c.conn.Write(p)
}
