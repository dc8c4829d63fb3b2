package ingest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmarchand/quartermaster-go/internal/application/logging"
	"github.com/dmarchand/quartermaster-go/internal/domain/demand"
)

// WebsocketSource streams inventory events from a scanner feed. It reconnects
// with capped exponential backoff and drops malformed payloads after logging
// them, so one bad report cannot stall the feed.
type WebsocketSource struct {
	url            string
	reconnectDelay time.Duration

	events chan demand.InventoryEvent

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}

	mu        sync.RWMutex
	connected bool
	lastErr   string
	dropped   int
}

// NewWebsocketSource creates a source for the given feed URL. The buffer size
// bounds how many decoded events may queue before the reader blocks.
func NewWebsocketSource(url string, reconnectDelay time.Duration, bufferSize int) *WebsocketSource {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &WebsocketSource{
		url:            url,
		reconnectDelay: reconnectDelay,
		events:         make(chan demand.InventoryEvent, bufferSize),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Events is the stream of validated inventory events. It is closed when the
// source shuts down.
func (s *WebsocketSource) Events() <-chan demand.InventoryEvent {
	return s.events
}

// Connected reports whether the feed is currently up
func (s *WebsocketSource) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Dropped returns how many payloads failed validation so far
func (s *WebsocketSource) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Start launches the read loop. Calling Start twice is a no-op.
func (s *WebsocketSource) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.run(ctx)
	})
}

// Close stops the read loop and waits for it to exit
func (s *WebsocketSource) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *WebsocketSource) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	logger := logging.FromContext(ctx)
	backoff := 200 * time.Millisecond
	maxBackoff := s.reconnectDelay
	if maxBackoff <= 0 {
		maxBackoff = 5 * time.Second
	}

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connectAndReadLoop(ctx); err != nil {
			s.mu.Lock()
			s.connected = false
			s.lastErr = err.Error()
			s.mu.Unlock()
			logger.Log("WARN", "inventory feed disconnected", map[string]interface{}{
				"url":   s.url,
				"error": err.Error(),
			})
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		// Clean exit.
		return
	}
}

func (s *WebsocketSource) connectAndReadLoop(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.Dial(s.url, http.Header{})
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	logger := logging.FromContext(ctx)
	s.mu.Lock()
	s.connected = true
	s.lastErr = ""
	s.mu.Unlock()

	for {
		select {
		case <-s.stop:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		event, err := DecodeEvent(msg)
		if err != nil {
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
			logger.Log("WARN", "dropped malformed inventory event", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		select {
		case s.events <- *event:
		case <-s.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
