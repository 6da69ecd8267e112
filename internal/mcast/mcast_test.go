package mcast_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"broadcastd/internal/mcast"
)

// A passive listener joined to the group receives one datagram per Send
// call with identical payload bytes.
func TestMulticastMirroring(t *testing.T) {
	group := "239.0.0.1"
	addr, err := net.ResolveUDPAddr("udp4", group+":0")
	require.NoError(t, err)

	listener, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		t.Skipf("multicast not available in this sandbox: %v", err)
	}
	defer listener.Close()

	port := listener.LocalAddr().(*net.UDPAddr).Port

	egress, err := mcast.Open(group, port, 4)
	require.NoError(t, err)
	defer egress.Close()

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))

	payload := []byte("data")
	require.NoError(t, egress.Send(payload))

	buf := make([]byte, 64)
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)
	require.Equal(t, payload, buf[:n])
}
