package collector

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/net"
)

// Socket types as reported by gopsutil (SOCK_STREAM / SOCK_DGRAM).
const (
	sockStream = 1
	sockDgram  = 2
)

// StatusListen is the socket status of a listening TCP socket.
const StatusListen = "LISTEN"

// Conn is one socket observed on the host.
type Conn struct {
	PID        int32
	Protocol   string
	LocalAddr  string
	LocalPort  uint32
	RemoteAddr string
	RemotePort uint32
	Status     string
}

// Source lists the sockets currently open on the host.
type Source interface {
	Connections(ctx context.Context, kind string) ([]Conn, error)
}

// HostSource reads sockets from the local kernel using gopsutil.
type HostSource struct{}

// Connections implements Source.
func (HostSource) Connections(ctx context.Context, kind string) ([]Conn, error) {
	stats, err := net.ConnectionsWithContext(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s connections: %w", kind, err)
	}

	conns := make([]Conn, 0, len(stats))
	for _, s := range stats {
		conns = append(conns, Conn{
			PID:        s.Pid,
			Protocol:   protocolName(s.Type),
			LocalAddr:  s.Laddr.IP,
			LocalPort:  s.Laddr.Port,
			RemoteAddr: s.Raddr.IP,
			RemotePort: s.Raddr.Port,
			Status:     s.Status,
		})
	}
	return conns, nil
}

func protocolName(sockType uint32) string {
	switch sockType {
	case sockStream:
		return "tcp"
	case sockDgram:
		return "udp"
	default:
		return fmt.Sprintf("sock%d", sockType)
	}
}
