// Package client implements the chat connection session: it owns the channel,
// classifies incoming frames and answers liveness probes.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/omochice/pingpong-chat/internal/chat"
	"github.com/omochice/pingpong-chat/internal/observability"
	"github.com/omochice/pingpong-chat/internal/render"
	"github.com/omochice/pingpong-chat/pkg/protocol"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Open when the session was closed while dialing.
var ErrClosed = errors.New("client: session closed")

// Dialer opens the channel to the chat endpoint.
type Dialer func(ctx context.Context) (chat.Conn, error)

// Renderer consumes decoded chat frames.
type Renderer interface {
	OnChatFrame(frame protocol.ChatFrame) render.Command
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for diagnostic events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithMetrics sets the metrics the session records into.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithKeepalive replaces the default keepalive responder.
func WithKeepalive(k *Keepalive) Option {
	return func(s *Session) { s.keepalive = k }
}

// WithID sets the session id used in log lines.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session owns one channel for its whole lifetime. It moves from Connecting
// to Open once the channel is dialed and to Closed when the channel closes,
// fails or is torn down; it never reconnects.
//
// Open, Send, Receive and HandleClose are serialized: one handler runs to
// completion before the next starts, so frames are rendered in arrival order.
type Session struct {
	id        string
	dial      Dialer
	renderer  Renderer
	keepalive *Keepalive
	logger    zerolog.Logger
	metrics   *observability.Metrics

	// mu serializes event handlers. state is only written with mu held.
	mu      sync.Mutex
	state   atomic.Int32
	dialing bool

	connMu    sync.RWMutex
	conn      chat.Conn
	closeOnce sync.Once
	closeErr  error
}

// New creates a Session in the Connecting state.
func New(dial Dialer, renderer Renderer, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		dial:     dial,
		renderer: renderer,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("session", s.id).Logger()
	if s.keepalive == nil {
		s.keepalive = NewKeepalive(s.logger)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Open dials the channel and moves the session to Open.
// A failed dial closes the session.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.State() != StateConnecting || s.dialing {
		s.mu.Unlock()
		return ErrAlreadyOpened
	}
	s.dialing = true
	s.mu.Unlock()

	conn, err := s.dial(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialing = false

	if err != nil {
		s.closeLocked(err)
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if s.State() == StateClosed {
		_ = conn.Close()
		return ErrClosed
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.transitionLocked(StateOpen)
	s.logger.Info().Str("remote", conn.RemoteAddr()).Msg("channel opened")
	return nil
}

// Listen reads frames until the channel closes, fails or ctx is done, and
// dispatches each one through Receive. It returns nil for an orderly close.
func (s *Session) Listen(ctx context.Context) error {
	conn := s.currentConn()
	if conn == nil || s.State() != StateOpen {
		return &NotOpenError{State: s.State()}
	}

	for {
		data, err := conn.Read(ctx)
		if err != nil {
			if !s.handleClose(err) || ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		s.Receive(ctx, string(data))
	}
}

// Run opens the session and listens until the channel closes.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	return s.Listen(ctx)
}

// Send writes frame to the channel. It fails with a *NotOpenError, without
// writing, unless the session is Open.
func (s *Session) Send(ctx context.Context, frame protocol.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendLocked(ctx, frame)
}

// Receive decodes raw and dispatches it: probes go to the keepalive
// responder, chat frames to the renderer. Frames arriving after the session
// closed are dropped.
func (s *Session) Receive(ctx context.Context, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateClosed {
		s.logger.Debug().Str("raw", raw).Msg("frame ignored after close")
		return
	}

	switch frame := protocol.Decode(raw).(type) {
	case protocol.ControlFrame:
		s.metrics.ObserveReceived(frameKind(frame))
		reply, ok := s.keepalive.OnControlFrame(frame)
		if !ok {
			return
		}
		if err := s.sendLocked(ctx, reply); err != nil {
			s.logger.Warn().Err(err).Msg("failed to answer liveness probe")
		}
	case protocol.ChatFrame:
		s.metrics.ObserveReceived(frameKind(frame))
		if frame.Malformed {
			s.logger.Debug().Str("raw", raw).Msg("frame without delimiter")
		}
		s.logger.Debug().
			Str("timestamp", frame.Timestamp).
			Int("body_len", len(frame.Body)).
			Msg("chat frame received")
		s.renderer.OnChatFrame(frame)
	}
}

// HandleClose moves the session to Closed after the channel closed or failed.
func (s *Session) HandleClose(err error) {
	s.handleClose(err)
}

// Close tears the session down: it closes the channel and moves to Closed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if conn := s.currentConn(); conn != nil {
			s.closeErr = conn.Close()
		}
	})

	s.mu.Lock()
	s.closeLocked(nil)
	s.mu.Unlock()

	return s.closeErr
}

func (s *Session) handleClose(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(err)
}

func (s *Session) sendLocked(ctx context.Context, frame protocol.Frame) error {
	if state := s.State(); state != StateOpen {
		s.metrics.ObserveRejected()
		s.logger.Debug().Stringer("state", state).Msg("send rejected")
		return &NotOpenError{State: state}
	}

	if err := s.currentConn().Write(ctx, []byte(frame.Encode())); err != nil {
		s.closeLocked(err)
		return fmt.Errorf("failed to send frame: %w", err)
	}
	s.metrics.ObserveSent(frameKind(frame))
	return nil
}

// closeLocked reports whether the call moved the session to Closed.
func (s *Session) closeLocked(err error) bool {
	if s.State() == StateClosed {
		return false
	}
	s.transitionLocked(StateClosed)

	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn().Err(err).Msg("channel closed")
	} else {
		s.logger.Info().Msg("channel closed")
	}
	return true
}

func (s *Session) transitionLocked(state State) {
	s.state.Store(int32(state))
	s.metrics.ObserveTransition(state.String())
}

func (s *Session) currentConn() chat.Conn {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn
}

func frameKind(frame protocol.Frame) string {
	switch f := frame.(type) {
	case protocol.ControlFrame:
		return strings.ToLower(f.Kind.String())
	default:
		return "chat"
	}
}
