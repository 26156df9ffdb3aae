package hostctl

import (
	"context"
	"fmt"

	"github.com/dazzlefleet/dazzle/internal/hostinv"
	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/task"
)

// Execute builds the task that runs command on host over SSH.
func Execute(parent *jobtree.Node, d Deps, h hostinv.Host, command string) *task.Task {
	node := parent.NewChild(fmt.Sprintf("Executing %q on host %s", command, h.Label))
	return &task.Task{
		Node: node,
		Check: func(ctx context.Context) (string, error) {
			if !d.Ping.Ping(ctx, h.IP, defaultPingTimeout) {
				return "", fmt.Errorf("host %s is unreachable", h.Label)
			}
			return "", nil
		},
		Run: func(ctx context.Context) (string, error) {
			node.SetProgress(command)
			return d.SSH.Run(ctx, h.Label, command)
		},
	}
}
