package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldTimestamp = "timestamp"
	fieldBody      = "body"
)

// Stream writes every entry to w as a size-delimited protobuf Struct with
// "timestamp" and "body" fields, for a display process on the other end of a pipe.
type Stream struct {
	w io.Writer

	mu  sync.Mutex
	err error
}

// NewStream creates a Stream writing to w.
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

// Append implements Sink. Invalid UTF-8 in a label is replaced with U+FFFD.
// After the first write error further entries are dropped.
func (s *Stream) Append(timestampLabel, bodyLabel string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}

	msg := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldTimestamp: structpb.NewStringValue(validUTF8(timestampLabel)),
			fieldBody:      structpb.NewStringValue(validUTF8(bodyLabel)),
		},
	}
	if _, err := protodelim.MarshalTo(s.w, msg); err != nil {
		s.err = fmt.Errorf("failed to encode render command: %w", err)
	}
}

// validUTF8 makes label encodable as a protobuf string.
func validUTF8(label string) string {
	return strings.ToValidUTF8(label, "\uFFFD")
}

// Err returns the first encode or write error, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ReadCommand reads one entry written by a Stream. It returns io.EOF at the
// end of the stream.
func ReadCommand(r protodelim.Reader) (Command, error) {
	var msg structpb.Struct
	if err := protodelim.UnmarshalFrom(r, &msg); err != nil {
		return Command{}, err
	}
	fields := msg.GetFields()
	return Command{
		Timestamp: fields[fieldTimestamp].GetStringValue(),
		Body:      fields[fieldBody].GetStringValue(),
	}, nil
}
