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
	shutdownIterations   = 120
	shutdownPollInterval = time.Second
	sshExitConnDropped   = 255
)

// Shutdown builds the task that powers host off over SSH.
func Shutdown(parent *jobtree.Node, d Deps, h hostinv.Host) *task.Task {
	node := parent.NewChild(fmt.Sprintf("Shutting down host %s", h.Label))
	return &task.Task{
		Node: node,
		Check: func(ctx context.Context) (string, error) {
			if !d.Ping.Ping(ctx, h.IP, defaultPingTimeout) {
				return "Host is already down", nil
			}
			return "", nil
		},
		Run: func(ctx context.Context) (string, error) {
			// The connection drops mid-command once poweroff runs, so ssh
			// reports exit 255; that is expected, not a failure.
			if _, err := d.SSH.Run(ctx, h.Label, "poweroff", sshExitConnDropped); err != nil {
				return "", fmt.Errorf("poweroff: %w", err)
			}

			for i := 0; i < shutdownIterations; i++ {
				if !d.Ping.Ping(ctx, h.IP, time.Second) {
					return "Host is down", nil
				}
				time.Sleep(shutdownPollInterval)
			}
			return "", errors.New("Host does not power off in time")
		},
	}
}
