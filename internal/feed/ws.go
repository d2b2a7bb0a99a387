package feed

import (
	"context"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Watch subscribes to release announcements over a websocket and
// streams them until ctx is cancelled or the connection drops. The
// channel closes on exit; reconnecting is the caller's policy.
func Watch(ctx context.Context, wsURL string) (<-chan Release, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	if u.Path == "" {
		u.Path = "/releases"
	}

	d := websocket.Dialer{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: false,
	}
	// nolint:bodyclose
	conn, _, err := d.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	sub := map[string]any{"action": "subscribe", "topic": "releases"}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, err
	}

	out := make(chan Release, 8)
	go func() {
		defer close(out)
		defer func() {
			// Attempt a proper close handshake before tearing down.
			deadline := time.Now().Add(1500 * time.Millisecond)
			_ = conn.SetWriteDeadline(deadline)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = conn.SetReadDeadline(deadline)
			_, _, _ = conn.ReadMessage()
			_ = conn.Close()
		}()

		// Unblock the read loop when the context ends.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.SetReadDeadline(time.Now())
			case <-done:
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var rel Release
			if err := conn.ReadJSON(&rel); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return
				}
				return
			}
			if rel.Version == "" {
				continue
			}
			select {
			case out <- rel:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
