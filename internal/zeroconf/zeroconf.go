// Package zeroconf advertises the lcdbd HTTP API as an mDNS/DNS-SD
// service so panel tooling can find it on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD type lcdbd registers under.
const ServiceType = "_lcdb._tcp"

// Service manages one mDNS registration.
type Service struct {
	instance string
	port     int
	txt      []string
}

// New creates a Service advertising instance on port with the given TXT
// records.
func New(instance string, port int, txt []string) *Service {
	return &Service{instance: instance, port: port, txt: txt}
}

// Start registers the service and blocks until ctx is cancelled, then
// unregisters it.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(s.instance, ServiceType, "local.", s.port, s.txt, nil)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.instance,
		"type", ServiceType,
		"port", s.port,
		"txt", s.txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}

// PortFromAddr extracts the TCP port from a listen address such as ":8080".
func PortFromAddr(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("zeroconf: invalid port in %q", addr)
	}
	return port, nil
}
