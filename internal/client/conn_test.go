package client_test

import (
	"context"
	"io"
	"sync"

	"github.com/omochice/pingpong-chat/internal/chat"
)

// mockConn is a mock implementation of chat.Conn for testing.
type mockConn struct {
	readCh     chan []byte
	readErr    error
	writtenMu  sync.Mutex
	written    []string
	writeErr   error
	closed     bool
	remoteAddr string
}

func newMockConn(addr string) *mockConn {
	return &mockConn{
		readCh:     make(chan []byte, 10),
		remoteAddr: addr,
	}
}

func (m *mockConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-m.readCh:
		if !ok {
			if m.readErr != nil {
				return nil, m.readErr
			}
			return nil, io.EOF
		}
		return data, nil
	}
}

func (m *mockConn) Write(ctx context.Context, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	m.written = append(m.written, string(data))
	return nil
}

func (m *mockConn) Close() error {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) RemoteAddr() string {
	return m.remoteAddr
}

func (m *mockConn) GetWritten() []string {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	out := make([]string, len(m.written))
	copy(out, m.written)
	return out
}

func (m *mockConn) IsClosed() bool {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	return m.closed
}

func dialer(conn chat.Conn) func(context.Context) (chat.Conn, error) {
	return func(context.Context) (chat.Conn, error) {
		return conn, nil
	}
}

// Compile-time check that mockConn implements chat.Conn
var _ chat.Conn = (*mockConn)(nil)
