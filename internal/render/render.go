// Package render turns decoded chat frames into render commands for a display sink.
package render

import (
	"github.com/omochice/pingpong-chat/pkg/protocol"
)

// Sink is the external display surface. Append adds one entry at the end of
// its display sequence.
type Sink interface {
	Append(timestampLabel, bodyLabel string)
}

// Command is one render instruction: a timestamp label and a body label.
type Command struct {
	Timestamp string
	Body      string
}

// Adapter forwards chat frames to a Sink in the order it receives them.
type Adapter struct {
	sink Sink
}

// NewAdapter creates an Adapter appending to sink.
func NewAdapter(sink Sink) *Adapter {
	return &Adapter{sink: sink}
}

// OnChatFrame appends frame to the sink and returns the command it issued.
func (a *Adapter) OnChatFrame(frame protocol.ChatFrame) Command {
	cmd := Command{
		Timestamp: frame.Timestamp,
		Body:      frame.Body,
	}
	a.sink.Append(cmd.Timestamp, cmd.Body)
	return cmd
}

type multiSink []Sink

// Multi returns a Sink that appends to every sink in argument order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Append(timestampLabel, bodyLabel string) {
	for _, s := range m {
		s.Append(timestampLabel, bodyLabel)
	}
}
