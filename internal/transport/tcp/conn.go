// Package tcp provides a newline-delimited TCP channel to the chat endpoint.
package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// ErrMultiline is returned by Write for a frame that contains a newline.
var ErrMultiline = errors.New("tcp: frame contains a newline")

// Options configures Dial and NewConn.
type Options struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Conn adapts net.Conn to chat.Conn. Each frame is one line.
type Conn struct {
	conn         net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration

	mu sync.Mutex
}

// Dial connects to address.
func Dial(ctx context.Context, address string, opts Options) (*Conn, error) {
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return NewConn(conn, opts), nil
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn, opts Options) *Conn {
	return &Conn{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writeTimeout: opts.WriteTimeout,
	}
}

// Read implements chat.Conn.
// Reads one line without its terminator. A final line without a newline is
// returned before io.EOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return nil, err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), nil
}

// Write implements chat.Conn.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	if bytes.ContainsAny(data, "\r\n") {
		return ErrMultiline
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var deadline time.Time
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	_, err := c.conn.Write(append(buf, '\n'))
	return err
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
