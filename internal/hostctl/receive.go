package hostctl

import (
	"context"
	"fmt"

	"github.com/dazzlefleet/dazzle/internal/clone"
	"github.com/dazzlefleet/dazzle/internal/hostinv"
	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/netctl"
	"github.com/dazzlefleet/dazzle/internal/task"
)

// Receive builds the task that drives the receiver half of a clone on one
// host: acquire maintenance mode, run udp-receiver over SSH, report
// progress through the rendezvous barrier, then shut the host down.
func Receive(parent *jobtree.Node, d Deps, h hostinv.Host, dst, mcastAddr string, barrier *clone.Barrier) *task.Task {
	node := parent.NewChild(fmt.Sprintf("Receiving image on host %s", h.Label))
	acquire := Acquire(node, d, h)
	shutdown := Shutdown(node, d, h)

	return &task.Task{
		Node: node,
		Pre:  []*task.Task{acquire},
		Post: []*task.Task{shutdown},
		Run: func(ctx context.Context) (string, error) {
			command := fmt.Sprintf(`udp-receiver --mcast-rdv-address %s --nokbd --file %s --pipe "lzop -dc"`, mcastAddr, dst)
			name, args := netctl.SSHArgs(h.Label, command)
			proc, err := d.Stream.Start(ctx, name, args...)
			if err != nil {
				return "", fmt.Errorf("launch udp-receiver on %s: %w", h.Label, err)
			}

			var received int64
			clone.WatchReceiver(proc.Lines(),
				func() {
					node.SetProgress("Ready")
					barrier.Ready()
				},
				func() {
					node.SetProgress("Connected")
				},
				func(n int64, mbps float64) {
					received = n
					node.SetProgress(fmt.Sprintf("%s @ %.1f MB/s", clone.HumanizeBytes(n), mbps))
				},
			)

			if err := proc.Wait(); err != nil {
				return "", err
			}
			return fmt.Sprintf("Received %s", clone.HumanizeBytes(received)), nil
		},
	}
}
