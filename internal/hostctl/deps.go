// Package hostctl implements the concrete host-control tasks (Wakeup,
// Shutdown, Execute, Acquire, Receive) and the top-level Clone
// orchestration, each built as a task.Task over the engine in
// internal/task, talking to the outside world only through the contracts
// in internal/netctl.
package hostctl

import (
	"context"
	"os"
	"time"

	"github.com/dazzlefleet/dazzle/internal/netctl"
	"github.com/joeycumines/go-catrate"
)

const defaultPXERoot = "/srv/tftp/pxelinux.cfg"

// wakeRateCategory groups every host's wake packets under one shared rate
// budget, since they all hit the same broadcast domain.
const wakeRateCategory = "wake"

// defaultWakeRates caps magic-packet bursts at 20/sec and 400/min fleet-wide,
// so a large "@" (all hosts) wakeup doesn't saturate the egress interface.
func defaultWakeRates() map[time.Duration]int {
	return map[time.Duration]int{
		time.Second: 20,
		time.Minute: 400,
	}
}

// Filesystem abstracts the TFTP symlink operations Acquire needs, so tests
// can substitute an in-memory stand-in instead of touching the real
// /srv/tftp/pxelinux.cfg tree.
type Filesystem interface {
	Exists(path string) bool
	Symlink(oldname, newname string) error
	Remove(name string) error
}

// OSFilesystem implements Filesystem against the real filesystem.
type OSFilesystem struct{}

func (OSFilesystem) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func (OSFilesystem) Symlink(oldname, newname string) error { return os.Symlink(oldname, newname) }

func (OSFilesystem) Remove(name string) error { return os.Remove(name) }

// Deps bundles every external collaborator the host-control tasks call
// through: the shell-out helpers (ping, ssh, wake-on-LAN, route lookup,
// streaming processes), concretely realized by internal/netctl.
type Deps struct {
	Ping   netctl.Pinger
	SSH    netctl.SSHRunner
	Wake   netctl.WakeSender
	Route  netctl.RouteResolver
	Stream netctl.StreamStarter
	FS     Filesystem

	// Limiter throttles wake-packet bursts across the fleet (nil disables
	// throttling, mainly for tests).
	Limiter *catrate.Limiter

	// PXERoot overrides the default /srv/tftp/pxelinux.cfg, mainly for
	// tests.
	PXERoot string
}

// waitWakeSlot blocks until Limiter allows another wake packet, or ctx is
// done. A nil Limiter never throttles.
func (d Deps) waitWakeSlot(ctx context.Context) error {
	if d.Limiter == nil {
		return nil
	}
	for {
		next, ok := d.Limiter.Allow(wakeRateCategory)
		if ok {
			return nil
		}
		wait := time.NewTimer(time.Until(next))
		select {
		case <-wait.C:
		case <-ctx.Done():
			wait.Stop()
			return ctx.Err()
		}
	}
}

func (d Deps) pxeRoot() string {
	if d.PXERoot != "" {
		return d.PXERoot
	}
	return defaultPXERoot
}

// DefaultDeps wires the concrete, os/exec-backed implementations.
func DefaultDeps() Deps {
	return Deps{
		Ping:    netctl.ExecPinger{},
		SSH:     netctl.ExecSSHRunner{},
		Wake:    netctl.ExecWakeSender{},
		Route:   netctl.ExecRouteResolver{},
		Stream:  netctl.ExecStreamStarter{},
		FS:      OSFilesystem{},
		Limiter: catrate.NewLimiter(defaultWakeRates()),
	}
}
