// Package realtime subscribes to the record store's websocket push channel
// and republishes decoded events on the in-process event bus, where the sync
// loop consumes them.
package realtime

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/shared/eventbus"
	"pocketmirror/internal/shared/logger"
)

const (
	handshakeTimeout = 10 * time.Second
	initialBackoff   = time.Second
	maxBackoff       = time.Minute
)

// Listener maintains one long-lived websocket subscription covering the
// configured collections. Connection loss triggers reconnect with capped
// exponential backoff; a reconnect implies missed events, so the listener
// also publishes a resync request the sync loop treats as a forced pass.
type Listener struct {
	baseURL     string
	token       string
	collections []string
	clientID    string
	bus         *eventbus.Bus
	log         logger.Logger
	dialer      *websocket.Dialer
}

// subscribeRequest is the frame sent after connecting to select the
// collections whose changes the server should push.
type subscribeRequest struct {
	ClientID    string   `json:"clientId"`
	Collections []string `json:"collections"`
}

// NewListener creates a listener. log may be nil.
func NewListener(baseURL, token string, collections []string, bus *eventbus.Bus, log logger.Logger) *Listener {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Listener{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		collections: collections,
		clientID:    uuid.New().String(),
		bus:         bus,
		log:         log.WithComponent("realtime"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

// Run connects and consumes push frames until ctx is canceled. It never
// returns a connection error; transient failures are logged and retried.
func (l *Listener) Run(ctx context.Context) error {
	backoff := initialBackoff
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := l.connect()
		if err != nil {
			l.log.Warnf("websocket connect failed, retrying in %s: %v", backoff, err)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = initialBackoff
		if !first {
			// Events were missed while disconnected; ask for a full pass.
			l.bus.PublishAndForget(ctx, eventbus.NewEvent(eventbus.EventTypeResyncNeeded, nil, "realtime"))
		}
		first = false

		l.consume(ctx, conn)
		_ = conn.Close()
	}
}

// connect dials the push endpoint and sends the subscription frame.
func (l *Listener) connect() (*websocket.Conn, error) {
	endpoint, err := url.Parse(l.baseURL + "/api/realtime")
	if err != nil {
		return nil, err
	}
	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	case "http":
		endpoint.Scheme = "ws"
	}
	query := endpoint.Query()
	query.Set("clientId", l.clientID)
	endpoint.RawQuery = query.Encode()

	headers := http.Header{}
	if l.token != "" {
		headers.Set("Authorization", l.token)
	}

	conn, _, err := l.dialer.Dial(endpoint.String(), headers)
	if err != nil {
		return nil, err
	}

	if err := conn.WriteJSON(subscribeRequest{ClientID: l.clientID, Collections: l.collections}); err != nil {
		_ = conn.Close()
		return nil, err
	}

	l.log.Infof("subscribed to push events for %d collections", len(l.collections))
	return conn, nil
}

// consume reads frames until the connection breaks or ctx is canceled.
func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				l.log.Warnf("websocket read failed, reconnecting: %v", err)
			}
			return
		}
		l.dispatch(ctx, frame)
	}
}

// dispatch decodes one frame and publishes it. Frames that do not parse as
// realtime events (heartbeats, acks) are ignored. Publishing is synchronous:
// the read loop already runs on its own goroutine and the handlers only
// enqueue, so this is what keeps events for the same record in frame order.
func (l *Listener) dispatch(ctx context.Context, frame []byte) {
	event, ok := model.ParseRealtimeEvent(frame)
	if !ok {
		return
	}

	var eventType string
	switch event.Action {
	case model.EventActionCreate:
		eventType = eventbus.EventTypeRecordCreated
	case model.EventActionUpdate:
		eventType = eventbus.EventTypeRecordUpdated
	case model.EventActionDelete:
		eventType = eventbus.EventTypeRecordDeleted
	}

	if err := l.bus.Publish(ctx, eventbus.NewEvent(eventType, event, "realtime")); err != nil {
		l.log.Errorf("failed to publish %s event for record %q: %v", event.Action, event.Record.ID(), err)
	}

	l.log.Debugf("push event: %s on %s/%s", event.Action, event.Record.CollectionName(), event.Record.ID())
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
