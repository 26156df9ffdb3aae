package hostctl

import (
	"context"
	"net"
	"time"

	"github.com/dazzlefleet/dazzle/internal/netctl"
)

const (
	wakeupCheckAttempts = 3
	wakeupCheckWindow   = time.Second
	defaultPingTimeout  = 3 * time.Second
)

// respondsToPing reports whether ip answers within attempts probes, each
// bounded by timeout.
func respondsToPing(ctx context.Context, p netctl.Pinger, ip net.IP, attempts int, timeout time.Duration) bool {
	for i := 0; i < attempts; i++ {
		if p.Ping(ctx, ip, timeout) {
			return true
		}
	}
	return false
}
