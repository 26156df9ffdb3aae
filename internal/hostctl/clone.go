package hostctl

import (
	"context"
	"fmt"

	"github.com/dazzlefleet/dazzle/internal/clone"
	"github.com/dazzlefleet/dazzle/internal/hostinv"
	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/task"
	"golang.org/x/sync/errgroup"
)

// Clone builds the top-level task that copies src to dst on every host in
// hosts over UDP multicast: it fans out one Receive per host, waits for
// the rendezvous barrier, then runs the sender, joining everything before
// reporting success.
func Clone(parent *jobtree.Node, d Deps, hosts []hostinv.Host, src, dst, mcastAddr string) *task.Task {
	node := parent.NewChild("Cloning image")
	barrier := clone.NewBarrier(len(hosts))

	receivers := make([]*task.Task, len(hosts))
	for i, h := range hosts {
		receivers[i] = Receive(node, d, h, dst, mcastAddr, barrier)
	}

	return &task.Task{
		Node: node,
		Run: func(ctx context.Context) (string, error) {
			// Deliberately not errgroup.WithContext: a receiver's failure
			// must not cancel its siblings, so every receiver runs to its
			// own terminal state regardless of the others.
			var eg errgroup.Group
			for _, r := range receivers {
				r := r
				eg.Go(func() error { return task.Execute(ctx, r) })
			}

			if err := barrier.Wait(ctx); err != nil {
				_ = eg.Wait()
				return "", fmt.Errorf("receivers never became ready: %w", err)
			}

			name, args := senderCommand(mcastAddr, len(hosts), src)
			proc, err := d.Stream.Start(ctx, name, args...)
			if err != nil {
				_ = eg.Wait()
				return "", fmt.Errorf("launch udp-sender: %w", err)
			}

			clone.WatchSender(proc.Lines(), func(n int64, mbps float64) {
				bytesPerSec := int64(mbps * 1e6 / 8)
				node.SetProgress(fmt.Sprintf("%s/s", clone.HumanizeBytes(bytesPerSec)))
			})

			senderErr := proc.Wait()
			receiversErr := eg.Wait()

			if senderErr != nil {
				return "", fmt.Errorf("sender: %w", senderErr)
			}
			if receiversErr != nil {
				return "", fmt.Errorf("receiver: %w", receiversErr)
			}
			return "Clone complete", nil
		},
	}
}

// senderCommand builds the udp-sender invocation.
func senderCommand(mcastAddr string, minReceivers int, src string) (name string, args []string) {
	return "udp-sender", []string{
		"--mcast-rdv-address", mcastAddr,
		"--min-receivers", fmt.Sprintf("%d", minReceivers),
		"--file", src,
		"--pipe", "lzop",
	}
}
