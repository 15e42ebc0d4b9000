package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/battlecode/engine/pkg/streaming"
)

const (
	queueSize  = 10_000
	writeWait  = 10 * time.Second
	ackTimeout = 10 * time.Second
	maxRedials = 10
	maxBackoff = 30 * time.Second
)

// redialBackoff is the wait before the first redial. It doubles per failed
// attempt up to maxBackoff.
var redialBackoff = time.Second

var (
	errQueueFull = errors.New("viewer queue full")
	errClosed    = errors.New("viewer connection closed")
	errLinkDown  = errors.New("viewer link down")
)

// connection carries envelopes to one viewer. A single writer drains the
// outbox. When the link drops it redials and writes the resync messages
// first, so the viewer rebuilds the match before the queued deltas arrive.
type connection struct {
	logger *slog.Logger
	target string
	dialer *ws.Dialer
	resync func() [][]byte

	outbox   chan []byte
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	waiters map[string][]chan struct{}
}

// open dials the viewer once. Redials only happen for a link that was up.
func open(logger *slog.Logger, rawURL, secret string, resync func() [][]byte) (*connection, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", secret)
	u.RawQuery = q.Encode()

	c := &connection{
		logger:  logger,
		target:  u.String(),
		dialer:  &ws.Dialer{HandshakeTimeout: writeWait},
		resync:  resync,
		outbox:  make(chan []byte, queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		waiters: make(map[string][]chan struct{}),
	}
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	go c.run(conn)
	return c, nil
}

func (c *connection) dial() (*ws.Conn, error) {
	conn, _, err := c.dialer.Dial(c.target, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) run(conn *ws.Conn) {
	defer close(c.done)
	for conn != nil {
		failed := make(chan struct{})
		go c.readAcks(conn, failed)

		err := c.pump(conn, failed)
		_ = conn.Close()
		if err == nil {
			return
		}
		c.logger.Warn("Viewer link lost", "error", err)
		conn = c.redial()
	}
}

// pump writes queued envelopes until stop, a write error or a read error.
// It returns nil only when stopped.
func (c *connection) pump(conn *ws.Conn, failed <-chan struct{}) error {
	for {
		select {
		case <-c.stop:
			_ = conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case <-failed:
			return errLinkDown
		case data := <-c.outbox:
			if err := write(conn, data); err != nil {
				return err
			}
		}
	}
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// readAcks hands every ack to its waiter and closes failed when the link
// can no longer be read.
func (c *connection) readAcks(conn *ws.Conn, failed chan<- struct{}) {
	defer close(failed)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != streaming.TypeAck {
			c.logger.Debug("Ignoring viewer message", "raw", string(message))
			continue
		}
		c.deliver(ack.For)
	}
}

// redial reconnects with exponential backoff and writes the resync
// messages. It returns nil when stopped or out of attempts.
func (c *connection) redial() *ws.Conn {
	backoff := redialBackoff
	for attempt := 1; attempt <= maxRedials; attempt++ {
		select {
		case <-c.stop:
			return nil
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxBackoff)

		conn, err := c.dial()
		if err != nil {
			c.logger.Warn("Viewer redial failed", "attempt", attempt, "error", err)
			continue
		}
		msgs := c.resync()
		if err := writeAll(conn, msgs); err != nil {
			c.logger.Warn("Viewer resync failed", "attempt", attempt, "error", err)
			_ = conn.Close()
			continue
		}
		c.logger.Info("Viewer link restored", "attempt", attempt, "resynced", len(msgs))
		return conn
	}
	c.logger.Error("Giving up on viewer link", "attempts", maxRedials)
	return nil
}

func writeAll(conn *ws.Conn, msgs [][]byte) error {
	for _, m := range msgs {
		if err := write(conn, m); err != nil {
			return err
		}
	}
	return nil
}

// enqueue hands data to the writer without blocking.
func (c *connection) enqueue(data []byte) error {
	select {
	case <-c.stop:
		return errClosed
	default:
	}
	select {
	case c.outbox <- data:
		return nil
	default:
		c.logger.Warn("Viewer queue full, dropping message")
		return errQueueFull
	}
}

// sendAndWait enqueues data and blocks until the viewer acks msgType.
// An ack for a resynced copy of the message counts.
func (c *connection) sendAndWait(msgType string, data []byte, timeout time.Duration) error {
	acked := c.expect(msgType)
	if err := c.enqueue(data); err != nil {
		c.forget(msgType, acked)
		return fmt.Errorf("send %s: %w", msgType, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-acked:
		return nil
	case <-timer.C:
		c.forget(msgType, acked)
		return fmt.Errorf("timeout waiting for ack of %q", msgType)
	case <-c.done:
		c.forget(msgType, acked)
		return fmt.Errorf("ack of %q: %w", msgType, errClosed)
	}
}

func (c *connection) expect(msgType string) chan struct{} {
	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters[msgType] = append(c.waiters[msgType], ch)
	c.mu.Unlock()
	return ch
}

// deliver wakes the oldest waiter for msgType. Acks nobody waits for are
// dropped.
func (c *connection) deliver(msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := c.waiters[msgType]
	if len(queue) == 0 {
		return
	}
	close(queue[0])
	c.waiters[msgType] = queue[1:]
}

func (c *connection) forget(msgType string, ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := c.waiters[msgType]
	for i, w := range queue {
		if w == ch {
			c.waiters[msgType] = append(queue[:i:i], queue[i+1:]...)
			return
		}
	}
}

// close stops the writer, sends a close frame if the link is up and waits
// for the connection goroutines to finish.
func (c *connection) close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}
