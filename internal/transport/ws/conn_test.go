package ws_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/omochice/pingpong-chat/internal/chat"
	transportws "github.com/omochice/pingpong-chat/internal/transport/ws"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ chat.Conn = (*transportws.Conn)(nil)
}

// newServer starts an endpoint that runs handle on every upgraded connection.
func newServer(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *transportws.Conn {
	t.Helper()
	conn, err := transportws.Dial(context.Background(), url, transportws.Options{
		DialTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestConn_Read(t *testing.T) {
	tests := []struct {
		name string
		op   ws.OpCode
	}{
		{"text message", ws.OpText},
		{"binary message", ws.OpBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan struct{})
			url := newServer(t, func(conn net.Conn) {
				if err := wsutil.WriteServerMessage(conn, tt.op, []byte("9:5::hi")); err != nil {
					t.Errorf("failed to write: %v", err)
				}
				<-done
			})
			defer close(done)

			conn := dial(t, url)
			data, err := conn.Read(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != "9:5::hi" {
				t.Errorf("Read() = %q, want %q", string(data), "9:5::hi")
			}
		})
	}
}

func TestConn_Write(t *testing.T) {
	received := make(chan string, 1)
	url := newServer(t, func(conn net.Conn) {
		data, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			t.Errorf("failed to read: %v", err)
			return
		}
		if op != ws.OpText {
			t.Errorf("opcode = %v, want %v", op, ws.OpText)
		}
		received <- string(data)
	})

	conn := dial(t, url)
	if err := conn.Write(context.Background(), []byte("Pong:I am still here.")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "Pong:I am still here." {
			t.Errorf("server received %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive the message")
	}
}

func TestConn_Read_ServerClose(t *testing.T) {
	url := newServer(t, func(conn net.Conn) {
		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
		if err := wsutil.WriteServerMessage(conn, ws.OpClose, body); err != nil {
			t.Errorf("failed to write close: %v", err)
		}
		// Wait for the client's close reply.
		_, _ = ws.ReadFrame(conn)
	})

	conn := dial(t, url)
	_, err := conn.Read(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Errorf("Read() error = %v, want io.EOF", err)
	}
}

func TestConn_Read_AnswersProtocolPing(t *testing.T) {
	pong := make(chan ws.Frame, 1)
	url := newServer(t, func(conn net.Conn) {
		if err := wsutil.WriteServerMessage(conn, ws.OpPing, []byte("x")); err != nil {
			t.Errorf("failed to write ping: %v", err)
			return
		}
		if err := wsutil.WriteServerText(conn, []byte("after")); err != nil {
			t.Errorf("failed to write: %v", err)
			return
		}
		frame, err := ws.ReadFrame(conn)
		if err != nil {
			t.Errorf("failed to read frame: %v", err)
			return
		}
		pong <- ws.UnmaskFrameInPlace(frame)
	})

	conn := dial(t, url)
	data, err := conn.Read(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "after" {
		t.Errorf("Read() = %q, want %q", string(data), "after")
	}

	select {
	case frame := <-pong:
		if frame.Header.OpCode != ws.OpPong {
			t.Errorf("opcode = %v, want %v", frame.Header.OpCode, ws.OpPong)
		}
		if string(frame.Payload) != "x" {
			t.Errorf("pong payload = %q, want %q", string(frame.Payload), "x")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive a pong")
	}
}

func TestConn_Read_AnswersProtocolPingAfterWriteTimeout(t *testing.T) {
	pong := make(chan ws.OpCode, 1)
	url := newServer(t, func(conn net.Conn) {
		if _, _, err := wsutil.ReadClientData(conn); err != nil {
			t.Errorf("failed to read: %v", err)
			return
		}
		time.Sleep(300 * time.Millisecond)
		if err := wsutil.WriteServerMessage(conn, ws.OpPing, []byte("x")); err != nil {
			t.Errorf("failed to write ping: %v", err)
			return
		}
		if err := wsutil.WriteServerText(conn, []byte("9:5::after")); err != nil {
			t.Errorf("failed to write: %v", err)
			return
		}
		frame, err := ws.ReadFrame(conn)
		if err != nil {
			t.Errorf("failed to read frame: %v", err)
			return
		}
		pong <- frame.Header.OpCode
	})

	conn, err := transportws.Dial(context.Background(), url, transportws.Options{
		DialTimeout:  time.Second,
		WriteTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	if err := conn.Write(context.Background(), []byte("9:5::hi")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := conn.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != "9:5::after" {
		t.Errorf("Read() = %q, want %q", string(data), "9:5::after")
	}

	select {
	case op := <-pong:
		if op != ws.OpPong {
			t.Errorf("opcode = %v, want %v", op, ws.OpPong)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive a pong")
	}
}

func TestConn_Read_ContextCanceled(t *testing.T) {
	done := make(chan struct{})
	url := newServer(t, func(conn net.Conn) {
		<-done
	})
	defer close(done)

	conn := dial(t, url)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := conn.Read(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Read() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestConn_Close(t *testing.T) {
	closed := make(chan ws.Frame, 1)
	url := newServer(t, func(conn net.Conn) {
		frame, err := ws.ReadFrame(conn)
		if err != nil {
			t.Errorf("failed to read frame: %v", err)
			return
		}
		closed <- frame
	})

	conn := dial(t, url)
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	select {
	case frame := <-closed:
		if frame.Header.OpCode != ws.OpClose {
			t.Errorf("opcode = %v, want %v", frame.Header.OpCode, ws.OpClose)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive a close frame")
	}
}

func TestConn_RemoteAddr(t *testing.T) {
	done := make(chan struct{})
	url := newServer(t, func(conn net.Conn) {
		<-done
	})
	defer close(done)

	conn := dial(t, url)
	if !strings.Contains(url, conn.RemoteAddr()) {
		t.Errorf("RemoteAddr() = %q, not part of %q", conn.RemoteAddr(), url)
	}
}

func TestDial_Failure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	_, err = transportws.Dial(context.Background(), "ws://"+addr+"/chat", transportws.Options{DialTimeout: time.Second})
	if err == nil {
		t.Error("expected error dialing a closed port")
	}
}
