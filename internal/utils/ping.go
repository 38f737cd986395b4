package utils

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DialTimeout bounds PingHost
const DialTimeout = 1500 * time.Millisecond

// PingHost checks that a TCP listener answers at host:port
func PingHost(ctx context.Context, host, port string) error {
	if host == "" || port == "" {
		return fmt.Errorf("host and port are required")
	}
	address := net.JoinHostPort(host, port)

	dialer := net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}
