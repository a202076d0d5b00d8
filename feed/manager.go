package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wfdlt/pulse/shared"
	"go.uber.org/atomic"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// defaultPingInterval is the default cadence of heartbeat probes on an
	// open connection.
	defaultPingInterval = time.Second * 30
	// defaultPongTimeout is the default maximum wait for a heartbeat
	// response before the connection is considered dead.
	defaultPongTimeout = time.Second * 5
	// defaultBaseBackoff is the default initial reconnect delay.
	defaultBaseBackoff = time.Second
	// defaultMaxBackoff is the default reconnect delay ceiling.
	defaultMaxBackoff = time.Second * 8
	// handshakeTimeout is the maximum time allowed for the websocket handshake.
	handshakeTimeout = time.Second * 10
	// writeWait is the maximum time allowed for a write on the connection.
	writeWait = time.Second * 5
)

// ManagerConfig represents the configuration for the feed manager.
type ManagerConfig struct {
	// URL is the websocket endpoint of the push feed.
	URL string
	// PingInterval is the cadence of heartbeat probes on an open connection.
	PingInterval time.Duration
	// PongTimeout is the maximum wait for a heartbeat response before the
	// connection is considered dead.
	PongTimeout time.Duration
	// BaseBackoff is the initial reconnect delay.
	BaseBackoff time.Duration
	// MaxBackoff is the reconnect delay ceiling.
	MaxBackoff time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Manager represents the feed connection manager. It owns at most one push
// connection per process regardless of subscriber count, opening it when the
// first subscriber arrives and tearing it down when the last one leaves.
// All connection transitions are serialized through its Run loop.
type Manager struct {
	cfg           *ManagerConfig
	connected     atomic.Bool
	retryAttempts atomic.Uint32

	subscribersMtx sync.RWMutex
	subscribers    map[string]shared.FeedSubscriber

	pricesMtx sync.RWMutex
	prices    map[string]shared.PriceUpdate

	openSignals     chan struct{}
	teardownSignals chan struct{}
}

// NewManager initializes a new feed manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("feed url cannot be an empty string")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	if cfg.PingInterval == 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongTimeout == 0 {
		cfg.PongTimeout = defaultPongTimeout
	}
	if cfg.BaseBackoff == 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}

	return &Manager{
		cfg:             cfg,
		subscribers:     make(map[string]shared.FeedSubscriber),
		prices:          make(map[string]shared.PriceUpdate),
		openSignals:     make(chan struct{}, 1),
		teardownSignals: make(chan struct{}, 1),
	}, nil
}

// Connected returns whether the feed connection is currently open.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// Snapshot returns a copy of the latest price snapshot.
func (m *Manager) Snapshot() map[string]shared.PriceUpdate {
	m.pricesMtx.RLock()
	defer m.pricesMtx.RUnlock()

	prices := make(map[string]shared.PriceUpdate, len(m.prices))
	for symbol, update := range m.prices {
		prices[symbol] = update
	}

	return prices
}

// SubscriberCount returns the number of active feed subscribers.
func (m *Manager) SubscriberCount() int {
	m.subscribersMtx.RLock()
	defer m.subscribersMtx.RUnlock()

	return len(m.subscribers)
}

// Subscribe registers the provided subscriber for price snapshot and
// connection state updates, invoking it immediately with the current state.
// The first active subscriber opens the feed connection.
//
// The returned deregistration func is idempotent, removing the last
// subscriber tears the connection down.
func (m *Manager) Subscribe(sub shared.FeedSubscriber) func() {
	id := uuid.New().String()

	m.subscribersMtx.Lock()
	m.subscribers[id] = sub
	count := len(m.subscribers)
	m.subscribersMtx.Unlock()

	// New subscribers render from the current snapshot without waiting for
	// the next frame.
	sub(m.Snapshot(), m.Connected())

	if count == 1 {
		select {
		case m.openSignals <- struct{}{}:
		default:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subscribersMtx.Lock()
			delete(m.subscribers, id)
			remaining := len(m.subscribers)
			m.subscribersMtx.Unlock()

			if remaining == 0 {
				select {
				case m.teardownSignals <- struct{}{}:
				default:
				}
			}
		})
	}
}

// notifySubscribers notifies subscribers of the latest price snapshot and
// connection state. The registry is copied before iterating so callbacks may
// subscribe or unsubscribe without deadlocking.
func (m *Manager) notifySubscribers() {
	m.subscribersMtx.RLock()
	subs := make([]shared.FeedSubscriber, 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		subs = append(subs, sub)
	}
	m.subscribersMtx.RUnlock()

	connected := m.connected.Load()
	for idx := range subs {
		subs[idx](m.Snapshot(), connected)
	}
}

// replacePrices swaps the price snapshot wholesale with the provided batch.
// Symbols absent from the batch drop out of the snapshot.
func (m *Manager) replacePrices(updates []shared.PriceUpdate) {
	prices := make(map[string]shared.PriceUpdate, len(updates))
	for idx := range updates {
		prices[updates[idx].Symbol] = updates[idx]
	}

	m.pricesMtx.Lock()
	m.prices = prices
	m.pricesMtx.Unlock()
}

// handleFrame processes the provided feed frame. Malformed frames are logged
// and dropped, they never terminate the connection.
func (m *Manager) handleFrame(frame []byte, pongTimer *time.Timer) {
	frameType, err := shared.ParseFrameType(frame)
	if err != nil {
		m.cfg.Logger.Error().Msgf("parsing feed frame: %v", err)
		return
	}

	switch frameType {
	case shared.PricesFrame:
		updates, err := shared.ParsePriceUpdates(frame)
		if err != nil {
			m.cfg.Logger.Error().Msgf("parsing prices frame: %v", err)
			return
		}

		m.replacePrices(updates)
		m.notifySubscribers()
	case shared.PongFrame:
		disarmTimer(pongTimer)
	default:
		m.cfg.Logger.Debug().Msgf("ignoring feed frame with unknown type: %s", frameType)
	}
}

// sendPing writes a heartbeat probe to the feed and arms the liveness timer.
func (m *Manager) sendPing(conn *websocket.Conn, pongTimer *time.Timer) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteMessage(websocket.TextMessage, shared.PingMessage)
	if err != nil {
		// The read pump surfaces the dead connection.
		m.cfg.Logger.Error().Msgf("sending heartbeat probe: %v", err)
		return
	}

	armTimer(pongTimer, m.cfg.PongTimeout)
}

// closeNormal sends a normal closure frame and closes the connection.
func (m *Manager) closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	if err != nil && err != websocket.ErrCloseSent {
		m.cfg.Logger.Debug().Msgf("sending close frame: %v", err)
	}

	conn.Close()
}

// readPump relays frames from the feed connection until a read error.
func (m *Manager) readPump(conn *websocket.Conn, frames chan []byte, readErrs chan error) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			readErrs <- err
			return
		}

		select {
		case frames <- frame:
		default:
			m.cfg.Logger.Error().Msgf("feed frame channel at capacity: %d/%d",
				len(frames), bufferSize)
		}
	}
}

// connect dials the feed and services the connection until it closes. A nil
// return indicates a deliberate closure that must not reconnect.
func (m *Manager) connect(ctx context.Context) error {
	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dialing feed: %w", err)
	}

	m.retryAttempts.Store(0)
	m.connected.Store(true)
	m.notifySubscribers()
	m.cfg.Logger.Info().Msgf("feed connected: %s", m.cfg.URL)

	defer func() {
		m.connected.Store(false)
		m.notifySubscribers()
	}()

	frames := make(chan []byte, bufferSize)
	readErrs := make(chan error, 1)
	go m.readPump(conn, frames, readErrs)

	pingTicker := time.NewTicker(m.cfg.PingInterval)
	defer pingTicker.Stop()

	// The liveness timer is armed by each probe and disarmed by its pong.
	pongTimer := time.NewTimer(m.cfg.PongTimeout)
	disarmTimer(pongTimer)
	defer pongTimer.Stop()

	// Probe immediately so a half open transport is caught before the first
	// interval elapses.
	m.sendPing(conn, pongTimer)

	for {
		select {
		case <-ctx.Done():
			m.closeNormal(conn)
			return nil
		case <-m.teardownSignals:
			if m.SubscriberCount() > 0 {
				// A subscriber arrived while the teardown was queued.
				continue
			}

			m.cfg.Logger.Info().Msg("last subscriber left, closing feed")
			m.closeNormal(conn)
			return nil
		case frame := <-frames:
			m.handleFrame(frame, pongTimer)
		case err := <-readErrs:
			conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				m.cfg.Logger.Info().Msg("feed closed normally, not reconnecting")
				return nil
			}

			return fmt.Errorf("feed read: %w", err)
		case <-pingTicker.C:
			m.sendPing(conn, pongTimer)
		case <-pongTimer.C:
			conn.Close()
			return fmt.Errorf("heartbeat timed out after %s", m.cfg.PongTimeout)
		}
	}
}

// runConnection drives the connect and reconnect cycle while subscribers
// remain, backing off exponentially between failed attempts.
func (m *Manager) runConnection(ctx context.Context) {
	// Clear a stale teardown left by an unsubscribe that raced a previous
	// cycle.
	select {
	case <-m.teardownSignals:
	default:
	}

	for {
		if ctx.Err() != nil || m.SubscriberCount() == 0 {
			return
		}

		err := m.connect(ctx)
		if err == nil {
			// Deliberate closures do not reconnect.
			return
		}

		if ctx.Err() != nil {
			return
		}

		attempt := m.retryAttempts.Load()
		delay := backoffDelay(attempt, m.cfg.BaseBackoff, m.cfg.MaxBackoff)
		m.retryAttempts.Inc()
		m.cfg.Logger.Error().Msgf("feed disconnected, reconnecting in %s: %v", delay, err)

		timer := time.NewTimer(delay)
	wait:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-m.teardownSignals:
				if m.SubscriberCount() == 0 {
					timer.Stop()
					return
				}
				// A subscriber arrived while the teardown was queued, the
				// pending delay still applies.
			case <-timer.C:
				break wait
			}
		}
	}
}

// Run manages the lifecycle processes of the feed manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-m.openSignals:
			if m.SubscriberCount() == 0 {
				// All subscribers left before the connection opened.
				continue
			}

			m.runConnection(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// backoffDelay returns the reconnect delay for the provided attempt, doubling
// from the base up to the cap.
func backoffDelay(attempt uint32, base time.Duration, max time.Duration) time.Duration {
	// Shifts beyond the cap's range would overflow.
	if attempt > 16 {
		return max
	}

	delay := base << attempt
	if delay > max {
		return max
	}

	return delay
}

// armTimer schedules the provided timer after clearing any pending expiry.
func armTimer(timer *time.Timer, d time.Duration) {
	disarmTimer(timer)
	timer.Reset(d)
}

// disarmTimer stops the provided timer, draining an expiry that already
// fired. Safe only on the goroutine receiving from the timer.
func disarmTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
