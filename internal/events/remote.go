package events

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wireEvent is the `{"event":{...},"data":{...}}` object spec.md section 6
// requires on the wire, distinct from the Envelope/Data pair used for the
// in-process callback's two-string form.
type wireEvent struct {
	Event json.RawMessage `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// websocketSink writes one text frame per event (spec.md section 6). It is
// the default remote transport.
type websocketSink struct {
	url string
	mu  sync.Mutex
	c   *websocket.Conn
}

// DialWebSocket connects to url once and returns a RemoteWriter; retries
// across the reconnect budget are NewRemoteSink's job.
func DialWebSocket(url string) (RemoteWriter, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &websocketSink{url: url, c: c}, nil
}

func (w *websocketSink) WriteEvent(eventJSON, dataJSON string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	payload, err := json.Marshal(wireEvent{Event: json.RawMessage(eventJSON), Data: json.RawMessage(dataJSON)})
	if err != nil {
		return err
	}
	return w.c.WriteMessage(websocket.TextMessage, payload)
}

func (w *websocketSink) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.c == nil {
		return nil
	}
	return w.c.Close()
}

// tcpSink writes newline-delimited JSON objects over a raw TCP connection
// (spec.md section 6), used when use_socket=true.
type tcpSink struct {
	mu   sync.Mutex
	conn net.Conn
}

// DialTCP connects to addr over raw TCP.
func DialTCP(addr string) (RemoteWriter, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("tcp dial: %w", err)
	}
	return &tcpSink{conn: conn}, nil
}

func (t *tcpSink) WriteEvent(eventJSON, dataJSON string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	payload, err := json.Marshal(wireEvent{Event: json.RawMessage(eventJSON), Data: json.RawMessage(dataJSON)})
	if err != nil {
		return err
	}
	_, err = t.conn.Write(append(payload, '\n'))
	return err
}

func (t *tcpSink) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Close()
}

// defaultDial is the production dialer: WebSocket unless useSocket is set,
// in which case the URL is treated as a host:port TCP address.
func defaultDial(useSocket bool, url string) (RemoteWriter, error) {
	if useSocket {
		return DialTCP(url)
	}
	return DialWebSocket(url)
}

// NewRemoteSink connects to remoteURL (WebSocket by default, raw TCP when
// useSocket is true), retrying up to events' reconnect budget. On
// exhaustion it returns an error; the caller is expected to emit a "msg"
// event noting degraded telemetry and proceed without a remote sink
// (spec.md section 4.7).
func NewRemoteSink(remoteURL string, useSocket bool, maxAttempts int, backoffFn func(attempt int)) (RemoteWriter, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 && backoffFn != nil {
			backoffFn(attempt)
		}
		w, err := defaultDial(useSocket, remoteURL)
		if err == nil {
			return w, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("remote sink exhausted %d attempts: %w", maxAttempts, lastErr)
}
