package hostctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dazzlefleet/dazzle/internal/hostinv"
	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/task"
)

const (
	wakeupIterations = 60
	wakeupPingProbe  = time.Second
)

// Wakeup builds the task that boots host via Wake-on-LAN.
func Wakeup(parent *jobtree.Node, d Deps, h hostinv.Host) *task.Task {
	node := parent.NewChild(fmt.Sprintf("Waking up host %s", h.Label))
	return &task.Task{
		Node: node,
		Check: func(ctx context.Context) (string, error) {
			if respondsToPing(ctx, d.Ping, h.IP, wakeupCheckAttempts, wakeupCheckWindow) {
				return "Host is already up", nil
			}
			return "", nil
		},
		Run: func(ctx context.Context) (string, error) {
			iface, err := d.Route.EgressInterface(ctx, h.IP)
			if err != nil {
				return "", fmt.Errorf("discover egress interface for %s: %w", h.IP, err)
			}

			for i := 1; i <= wakeupIterations; i++ {
				if err := d.waitWakeSlot(ctx); err != nil {
					return "", fmt.Errorf("rate limit wake packet: %w", err)
				}
				if err := d.Wake.Send(ctx, iface, h.MAC); err != nil {
					return "", fmt.Errorf("send wake packet: %w", err)
				}
				node.SetProgress(fmt.Sprintf("Poke %02d / %d", i, wakeupIterations))
				if d.Ping.Ping(ctx, h.IP, wakeupPingProbe) {
					return "Host is up", nil
				}
			}
			return "", errors.New("Host does not wake up in time")
		},
	}
}
