package utils

import (
	"context"
	"net"
	"testing"
)

func TestPingHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer ln.Close()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	if err := PingHost(context.Background(), host, port); err != nil {
		t.Errorf("Expected listener to answer, got %v", err)
	}

	ln.Close()
	if err := PingHost(context.Background(), host, port); err == nil {
		t.Error("Expected closed port to fail")
	}

	if err := PingHost(context.Background(), "", port); err == nil {
		t.Error("Expected missing host to fail")
	}
}
