package chatrelay

import (
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"rolebot/core/log"
)

// Gateway event names
const (
	gatewayEventConnect      = "connect"
	gatewayEventConnectError = "connect_error"
	gatewayEventDisconnect   = "disconnect"
	gatewayEventQR           = "qr"
	gatewayEventReady        = "ready"
	gatewayEventAuthFailure  = "auth_failure"
	gatewayEventSendMessage  = "send_message"
)

// AckFunc receives the gateway's acknowledgement of an emitted event
type AckFunc = func(args []any, err error)

// Transport is the bidirectional event channel to the relay gateway
type Transport interface {
	On(event string, handler func(args ...any))
	Emit(event string, args ...any) error
	Connect()
	Disconnect()
}

// TransportFactory creates a fresh, unconnected transport
type TransportFactory func() Transport

type socketIOTransport struct {
	manager *socket.Manager
	sock    *socket.Socket
}

// NewSocketIOTransportFactory returns a factory dialing the gateway over socket.io.
// Automatic reconnection is disabled; the Client's ReconnectPolicy owns it.
func NewSocketIOTransportFactory(gatewayURL, apiKey string) TransportFactory {
	return func() Transport {
		opts := socket.DefaultOptions()
		opts.SetTransports(types.NewSet(transports.Polling, transports.WebSocket))
		opts.SetReconnection(false)
		if apiKey != "" {
			opts.SetAuth(map[string]any{"token": apiKey})
		}

		manager := socket.NewManager(gatewayURL, opts)
		return &socketIOTransport{
			manager: manager,
			sock:    manager.Socket("/", opts),
		}
	}
}

func (t *socketIOTransport) On(event string, handler func(args ...any)) {
	if err := listen(t.sock.On, event, handler); err != nil {
		log.Warn("⚠️ Failed to subscribe to relay gateway event %s: %v", event, err)
	}
}

// listen adapts a plain event name and handler to the emitter's named types
func listen[E ~string, L ~func(...any)](on func(E, ...L) error, event string, handler func(args ...any)) error {
	return on(E(event), L(handler))
}

func (t *socketIOTransport) Emit(event string, args ...any) error {
	return t.sock.Emit(event, args...)
}

func (t *socketIOTransport) Connect() {
	t.sock.Connect()
}

func (t *socketIOTransport) Disconnect() {
	t.sock.Disconnect()
}
