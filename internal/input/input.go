// Package input turns submit events from the input widget into chat frames.
package input

import (
	"context"
	"time"

	"github.com/omochice/pingpong-chat/pkg/protocol"
)

// Sender writes frames to the channel.
type Sender interface {
	Send(ctx context.Context, frame protocol.Frame) error
}

// Widget is the input collaborator that produced the submitted text.
type Widget interface {
	Clear()
}

// Adapter stamps submitted text with the current UTC time and sends it.
type Adapter struct {
	sender Sender
	widget Widget
	now    func() time.Time
}

// NewAdapter creates an Adapter. A nil now uses time.Now.
func NewAdapter(sender Sender, widget Widget, now func() time.Time) *Adapter {
	if now == nil {
		now = time.Now
	}
	return &Adapter{
		sender: sender,
		widget: widget,
		now:    now,
	}
}

// OnSubmit sends text as a chat frame and clears the widget. When the send
// fails the widget keeps its content and the error is returned.
func (a *Adapter) OnSubmit(ctx context.Context, text string) error {
	frame := protocol.ChatFrame{
		Timestamp: protocol.FormatTimestamp(a.now()),
		Body:      text,
	}
	if err := a.sender.Send(ctx, frame); err != nil {
		return err
	}
	a.widget.Clear()
	return nil
}
