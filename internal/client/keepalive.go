package client

import (
	"github.com/omochice/pingpong-chat/pkg/protocol"
	"github.com/rs/zerolog"
)

// Keepalive answers liveness probes from the remote side. It never sends a
// probe of its own.
type Keepalive struct {
	logger zerolog.Logger
}

// NewKeepalive creates a Keepalive logging to logger.
func NewKeepalive(logger zerolog.Logger) *Keepalive {
	return &Keepalive{logger: logger}
}

// OnControlFrame returns the frame to write in reply to frame, if any.
// Every Ping gets exactly one Pong, whatever its payload.
func (k *Keepalive) OnControlFrame(frame protocol.ControlFrame) (protocol.ControlFrame, bool) {
	k.logger.Debug().
		Stringer("kind", frame.Kind).
		Str("payload", frame.Payload).
		Msg("control frame observed")

	if frame.Kind != protocol.ControlPing {
		return protocol.ControlFrame{}, false
	}
	return protocol.Pong(), true
}
