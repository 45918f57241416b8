// Package transport selects the channel implementation for an endpoint URL.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/omochice/pingpong-chat/internal/chat"
	"github.com/omochice/pingpong-chat/internal/transport/tcp"
	"github.com/omochice/pingpong-chat/internal/transport/ws"
)

// ErrUnsupportedScheme is returned by Dial for a URL scheme with no transport.
var ErrUnsupportedScheme = errors.New("transport: unsupported scheme")

// Options configures the dialed channel.
type Options struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dial opens a channel to rawURL: ws and wss use WebSocket, tcp uses
// newline-delimited frames over a plain TCP connection.
func Dial(ctx context.Context, rawURL string, opts Options) (chat.Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "ws", "wss":
		conn, err := ws.Dial(ctx, rawURL, ws.Options{
			DialTimeout:  opts.DialTimeout,
			WriteTimeout: opts.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "tcp":
		conn, err := tcp.Dial(ctx, u.Host, tcp.Options{
			DialTimeout:  opts.DialTimeout,
			WriteTimeout: opts.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
