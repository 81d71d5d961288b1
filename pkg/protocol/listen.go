package protocol

import (
	"context"
	"fmt"
	"net"
)

// Listen binds the server socket with address reuse enabled, so a restarted
// server can rebind immediately.
func Listen(ctx context.Context, address string) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(ctx, "udp4", address)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", address, err)
	}
	return conn, nil
}
