package chatrelay

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"rolebot/clients"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/metrics"
	"rolebot/models"
)

var (
	// ErrNotReady is returned when sending before the relay channel finished pairing
	ErrNotReady = errors.New("relay channel is not ready")
	// ErrSendFailed wraps an error reported by the gateway in its acknowledgement
	ErrSendFailed = errors.New("relay gateway rejected message")
	// ErrNotConfigured is returned when no gateway URL was provided
	ErrNotConfigured = errors.New("relay gateway is not configured")
)

// Client owns the connection to the relay gateway and its state machine
type Client struct {
	newTransport TransportFactory
	sendTimeout  time.Duration
	afterFunc    func(d time.Duration, f func()) *time.Timer

	mutex          sync.Mutex
	machine        *StateMachine
	transport      Transport
	pairingCode    string
	updatedAt      time.Time
	waiters        []chan struct{}
	reconnectTimer *time.Timer
	closed         bool
}

// NewClient creates an uninitialised client; nothing is dialed until Init.
// A nil factory yields a client whose operations fail with ErrNotConfigured.
func NewClient(newTransport TransportFactory, policy ReconnectPolicy, sendTimeout time.Duration) *Client {
	return &Client{
		newTransport: newTransport,
		sendTimeout:  sendTimeout,
		afterFunc:    time.AfterFunc,
		machine:      NewStateMachine(policy),
		updatedAt:    time.Now(),
	}
}

var _ clients.ChatRelayClient = (*Client)(nil)

// Init starts pairing (or resumes a dropped connection) and waits until the gateway
// reports ready, publishes a pairing code, or ctx expires.
func (c *Client) Init(ctx context.Context) (models.RelayStatus, error) {
	log.Info("📋 Starting to initialize relay channel")

	if c.newTransport == nil {
		return c.Status(), fmt.Errorf("%w: %w", ErrNotConfigured, core.ErrConfiguration)
	}

	c.mutex.Lock()
	if c.machine.State() == models.RelayStateReady {
		status := c.statusLocked()
		c.mutex.Unlock()
		log.Info("📋 Completed successfully - relay channel already ready")
		return status, nil
	}

	if err := c.fireLocked(EventInit); err != nil {
		c.mutex.Unlock()
		return c.Status(), err
	}
	c.closed = false

	if c.transport == nil {
		c.transport = c.newTransport()
		c.bindLocked(c.transport)
	}
	transport := c.transport

	if c.pairingCode != "" {
		status := c.statusLocked()
		c.mutex.Unlock()
		return status, nil
	}

	waiter := make(chan struct{}, 1)
	c.waiters = append(c.waiters, waiter)
	c.mutex.Unlock()

	transport.Connect()

	select {
	case <-waiter:
		status := c.Status()
		if status.State == models.RelayStateDisconnected {
			return status, fmt.Errorf("relay gateway dropped the session while pairing: %w", core.ErrRelay)
		}
		log.Info("📋 Completed successfully - relay channel is %s", status.State)
		return status, nil
	case <-ctx.Done():
		c.removeWaiter(waiter)
		return c.Status(), fmt.Errorf("timed out waiting for relay gateway: %w", ctx.Err())
	}
}

// SendMessage relays a message and returns the provider-assigned message id
func (c *Client) SendMessage(ctx context.Context, msg models.RelayMessage) (string, error) {
	c.mutex.Lock()
	state := c.machine.State()
	transport := c.transport
	c.mutex.Unlock()

	if c.newTransport == nil {
		return "", fmt.Errorf("%w: %w", ErrNotConfigured, core.ErrRelay)
	}
	if state != models.RelayStateReady || transport == nil {
		return "", fmt.Errorf("%w (state: %s): %w", ErrNotReady, state, core.ErrRelay)
	}

	type ackResult struct {
		id  string
		err error
	}
	acks := make(chan ackResult, 1)

	payload := map[string]any{
		"to":      msg.Recipient,
		"message": msg.Body,
	}
	err := transport.Emit(gatewayEventSendMessage, payload, func(args []any, err error) {
		id, ackErr := parseSendAck(args, err)
		acks <- ackResult{id: id, err: ackErr}
	})
	if err != nil {
		return "", fmt.Errorf("failed to emit message to relay gateway: %w: %w", core.ErrRelay, err)
	}

	timer := time.NewTimer(c.sendTimeout)
	defer timer.Stop()

	select {
	case ack := <-acks:
		if ack.err != nil {
			return "", fmt.Errorf("%w: %w: %w", ErrSendFailed, core.ErrRelay, ack.err)
		}
		return ack.id, nil
	case <-timer.C:
		return "", fmt.Errorf("relay gateway did not acknowledge within %s: %w", c.sendTimeout, core.ErrRelay)
	case <-ctx.Done():
		return "", fmt.Errorf("relay send cancelled: %w: %w", core.ErrRelay, ctx.Err())
	}
}

// Status returns a snapshot of the relay channel
func (c *Client) Status() models.RelayStatus {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.statusLocked()
}

// Close disconnects and cancels any scheduled reconnect. The transport may deliver its
// disconnect event synchronously, so it is called without holding the mutex.
func (c *Client) Close() {
	c.mutex.Lock()
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	transport := c.transport
	c.mutex.Unlock()

	if transport != nil {
		transport.Disconnect()
	}
}

func (c *Client) statusLocked() models.RelayStatus {
	return models.RelayStatus{
		State:          c.machine.State(),
		HasPairingCode: c.pairingCode != "",
		UpdatedAt:      c.updatedAt,
	}
}

func (c *Client) bindLocked(transport Transport) {
	transport.On(gatewayEventConnect, func(args ...any) {
		log.Info("🔗 Connected to relay gateway, waiting for session")
	})

	transport.On(gatewayEventQR, func(args ...any) {
		code := firstString(args)
		c.mutex.Lock()
		defer c.mutex.Unlock()

		c.pairingCode = code
		if err := c.fireLocked(EventPairingCode); err != nil {
			log.Warn("⚠️ Ignoring pairing code: %v", err)
			return
		}
		// The operator scans this out of band
		log.Info("📱 Relay pairing code received, scan it to link the account: %s", code)
		c.notifyLocked()
	})

	transport.On(gatewayEventReady, func(args ...any) {
		c.mutex.Lock()
		defer c.mutex.Unlock()

		c.pairingCode = ""
		if err := c.fireLocked(EventReady); err != nil {
			log.Warn("⚠️ Ignoring ready event: %v", err)
			return
		}
		log.Info("✅ Relay channel is ready")
		c.notifyLocked()
	})

	transport.On(gatewayEventAuthFailure, func(args ...any) {
		c.mutex.Lock()
		defer c.mutex.Unlock()

		c.pairingCode = ""
		if err := c.fireLocked(EventAuthFailure); err != nil {
			log.Warn("⚠️ Ignoring auth failure event: %v", err)
			return
		}
		log.Error("❌ Relay gateway authentication failed: %v", args)
		c.notifyLocked()
	})

	onDisconnect := func(args ...any) {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		c.handleDisconnectLocked(args)
	}
	transport.On(gatewayEventDisconnect, onDisconnect)
	transport.On(gatewayEventConnectError, onDisconnect)
}

func (c *Client) handleDisconnectLocked(args []any) {
	from := c.machine.State()
	t, err := c.machine.Fire(EventDisconnect)
	if err != nil {
		log.Warn("⚠️ Ignoring disconnect event: %v", err)
		return
	}
	c.recordLocked(t)
	if !t.Changed() {
		return
	}

	log.Warn("⚠️ Relay channel disconnected from %s: %v", from, args)
	c.pairingCode = ""
	c.notifyLocked()

	if c.closed {
		log.Info("📋 Relay channel closed, not reconnecting")
		return
	}
	if !t.Reconnect {
		log.Error("❌ Relay reconnect attempts exhausted after %d tries, run the init command to pair again",
			c.machine.Attempts())
		return
	}

	log.Info("🔄 Scheduling relay reconnect attempt %d in %s", t.Attempt, t.Delay)
	c.reconnectTimer = c.afterFunc(t.Delay, c.reconnect)
}

func (c *Client) reconnect() {
	c.mutex.Lock()
	c.reconnectTimer = nil
	if c.closed {
		c.mutex.Unlock()
		return
	}
	if err := c.fireLocked(EventReconnect); err != nil {
		c.mutex.Unlock()
		log.Warn("⚠️ Skipping relay reconnect: %v", err)
		return
	}
	transport := c.transport
	c.mutex.Unlock()

	if transport != nil {
		transport.Connect()
	}
}

func (c *Client) fireLocked(event Event) error {
	t, err := c.machine.Fire(event)
	if err != nil {
		return err
	}
	c.recordLocked(t)
	return nil
}

func (c *Client) recordLocked(t Transition) {
	if !t.Changed() {
		return
	}
	c.updatedAt = time.Now()
	metrics.RelayStateTransitions.WithLabelValues(string(t.From), string(t.To)).Inc()
}

func (c *Client) removeWaiter(waiter chan struct{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.waiters = slices.DeleteFunc(c.waiters, func(w chan struct{}) bool { return w == waiter })
}

func (c *Client) notifyLocked() {
	for _, waiter := range c.waiters {
		select {
		case waiter <- struct{}{}:
		default:
		}
	}
	c.waiters = nil
}

// parseSendAck reads {"id": "..."} or {"error": "..."} from the gateway acknowledgement
func parseSendAck(args []any, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", errors.New("empty acknowledgement")
	}
	payload, ok := args[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected acknowledgement payload %T", args[0])
	}
	if msg, ok := payload["error"].(string); ok && msg != "" {
		return "", errors.New(msg)
	}
	id, ok := payload["id"].(string)
	if !ok || id == "" {
		return "", errors.New("acknowledgement has no message id")
	}
	return id, nil
}

func firstString(args []any) string {
	if len(args) == 0 {
		return ""
	}
	if s, ok := args[0].(string); ok {
		return s
	}
	return fmt.Sprint(args[0])
}
