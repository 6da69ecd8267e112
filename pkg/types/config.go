package types

import "time"

// Config holds the runtime configuration for either server core. Keep this
// struct stable; tests construct their own with ephemeral ports rather than
// the package defaults.
type Config struct {
	TCPAddr              string
	BufferSize           int
	RingCapacity         int
	MaxClients           int
	MulticastGroup       string
	MulticastPort        int
	MulticastTTL         int
	BroadcasterIdlePause time.Duration
}

// DefaultConfig returns the constants named in the system's external
// interface: TCP port 8080, a 1024-byte read buffer, a 2048-entry ring,
// 1024 max clients, and multicast group 239.0.0.1:8081 at TTL 4.
func DefaultConfig() Config {
	return Config{
		TCPAddr:              ":8080",
		BufferSize:           1024,
		RingCapacity:         2048,
		MaxClients:           1024,
		MulticastGroup:       "239.0.0.1",
		MulticastPort:        8081,
		MulticastTTL:         4,
		BroadcasterIdlePause: 10 * time.Microsecond,
	}
}
