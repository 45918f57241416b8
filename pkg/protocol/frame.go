// Package protocol implements the text frame format exchanged with the chat endpoint.
package protocol

import (
	"strings"
)

const (
	// ChatDelimiter separates the timestamp from the body of a chat frame.
	ChatDelimiter = "::"

	// ControlDelimiter separates the kind of a control frame from its payload.
	ControlDelimiter = ":"

	// PongPayload is the fixed payload of every liveness reply.
	PongPayload = "I am still here."
)

// ControlKind represents the kind of a control frame
type ControlKind int

const (
	ControlPing ControlKind = iota
	ControlPong
)

// String returns the wire token of ControlKind
func (k ControlKind) String() string {
	switch k {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	default:
		return "Unknown"
	}
}

// ParseControlKind maps a wire token to its ControlKind.
func ParseControlKind(token string) (ControlKind, bool) {
	switch token {
	case "Ping":
		return ControlPing, true
	case "Pong":
		return ControlPong, true
	default:
		return 0, false
	}
}

// Frame is one unit exchanged over the channel: either a ChatFrame or a ControlFrame.
type Frame interface {
	// Encode returns the wire form of the frame.
	Encode() string

	isFrame()
}

// ChatFrame is a human-readable chat message.
type ChatFrame struct {
	Timestamp string
	Body      string

	// Malformed reports that the raw frame carried no ChatDelimiter.
	// Timestamp then holds the whole raw frame and Body is empty.
	Malformed bool
}

// Encode implements Frame.
func (f ChatFrame) Encode() string {
	return Encode(f.Timestamp, f.Body)
}

func (ChatFrame) isFrame() {}

// ControlFrame is a liveness probe or its reply.
type ControlFrame struct {
	Kind    ControlKind
	Payload string
}

// Encode implements Frame.
func (f ControlFrame) Encode() string {
	return f.Kind.String() + ControlDelimiter + f.Payload
}

func (ControlFrame) isFrame() {}

// Pong returns the reply to a liveness probe.
func Pong() ControlFrame {
	return ControlFrame{Kind: ControlPong, Payload: PongPayload}
}

// Encode joins a timestamp and a body into a chat frame.
// The body is not escaped: a body containing ChatDelimiter is sent as is.
func Encode(timestamp, body string) string {
	return timestamp + ChatDelimiter + body
}

// Decode classifies a raw frame. Every input yields a frame.
//
// A frame whose text before the first ControlDelimiter is exactly "Ping" is a
// probe. Anything else is a chat frame split once on ChatDelimiter, so a body
// keeps any later delimiters.
func Decode(raw string) Frame {
	token, payload, _ := strings.Cut(raw, ControlDelimiter)
	if kind, ok := ParseControlKind(token); ok && kind == ControlPing {
		return ControlFrame{Kind: ControlPing, Payload: payload}
	}

	timestamp, body, found := strings.Cut(raw, ChatDelimiter)
	return ChatFrame{
		Timestamp: timestamp,
		Body:      body,
		Malformed: !found,
	}
}
