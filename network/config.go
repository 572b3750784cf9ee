package network

import (
	"time"

	"github.com/lixenwraith/textray/status"
)

// Kind identifies the transport a connection arrived on
type Kind uint8

const (
	KindTelnet    Kind = iota // Telnet over TCP, negotiated
	KindSSH                   // SSH shell channel, raw terminal bytes
	KindWebSocket             // WebSocket frames, raw terminal bytes
)

func (k Kind) String() string {
	switch k {
	case KindSSH:
		return "ssh"
	case KindWebSocket:
		return "websocket"
	default:
		return "telnet"
	}
}

// SSHConfig configures the SSH listener
type SSHConfig struct {
	Enabled     bool
	Address     string
	HostKeyPath string // Loaded if present, otherwise generated (ed25519) and written here
	Password    string // Empty accepts any password and none auth
}

// WebSocketConfig configures the HTTP/WebSocket listener
type WebSocketConfig struct {
	Enabled bool
	Address string
	Path    string
	Origins []string // Allowed Origin headers, empty allows any
}

// Config holds transport configuration
type Config struct {
	// Address is the telnet listen address, empty disables the telnet listener
	Address string

	// Connection limits; MaxSessions 0 means unlimited
	MaxSessions int

	// Timing
	WriteTimeout  time.Duration
	StopGrace     time.Duration // Time sessions get to restore terminals on Stop
	HandshakeTime time.Duration // SSH handshake and WebSocket upgrade limit

	// Buffer sizes
	ReadBufferSize int

	// RejectMessage is written to connections refused for capacity
	RejectMessage string

	SSH       SSHConfig
	WebSocket WebSocketConfig

	// Metrics is published with the stats snapshot when set
	Metrics *status.Registry
}

// DefaultConfig returns production-safe defaults
func DefaultConfig() *Config {
	return &Config{
		Address:        ":2323",
		MaxSessions:    64,
		WriteTimeout:   5 * time.Second,
		StopGrace:      2 * time.Second,
		HandshakeTime:  10 * time.Second,
		ReadBufferSize: 4096,
		RejectMessage:  "Server is full, try again later.\r\n",
		SSH: SSHConfig{
			Address:     ":2222",
			HostKeyPath: "textray_host_ed25519",
		},
		WebSocket: WebSocketConfig{
			Address: ":8080",
			Path:    "/ws",
		},
	}
}
