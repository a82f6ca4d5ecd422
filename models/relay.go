package models

import "time"

// RelayMessage is an outbound chat/SMS message sent through the relay gateway
type RelayMessage struct {
	Recipient string
	Body      string
	Sender    string
}

// MailMessage is an outbound email. Password, when set, overrides the configured
// SMTP credential and From is used as the username.
type MailMessage struct {
	From     string
	To       string
	Subject  string
	Body     string
	Password string
}

// RelayState is the connection state of the relay channel
type RelayState string

const (
	RelayStateUninitialized RelayState = "uninitialized"
	RelayStatePairing       RelayState = "pairing"
	RelayStateReady         RelayState = "ready"
	RelayStateDisconnected  RelayState = "disconnected"
)

// RelayStatus is a snapshot of the relay channel
type RelayStatus struct {
	State          RelayState `json:"state"`
	HasPairingCode bool       `json:"has_pairing_code"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
