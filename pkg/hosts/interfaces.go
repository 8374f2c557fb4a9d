package hosts

import (
	"context"
	"net/netip"
)

//go:generate mockgen -destination=mock_hosts.go -package=hosts github.com/CNES/opensand-sub000/pkg/hosts Sink

// Sink receives the host changes. *collector.Engine implements it.
type Sink interface {
	AddHost(ctx context.Context, name string, addr netip.AddrPort) error
	AddHostAddr(ctx context.Context, name string, addr netip.AddrPort) error
	RemoveHostAddr(ctx context.Context, name string, addr netip.AddrPort) error
}
