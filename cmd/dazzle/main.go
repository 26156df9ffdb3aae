// Command dazzle is the fleet-control CLI: it parses a host list,
// resolves host expressions, builds a task tree for the requested
// command, and drives it to completion while a Presenter renders
// progress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dazzlefleet/dazzle/internal/clone"
	"github.com/dazzlefleet/dazzle/internal/group"
	"github.com/dazzlefleet/dazzle/internal/hostctl"
	"github.com/dazzlefleet/dazzle/internal/hostinv"
	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/logging"
	"github.com/dazzlefleet/dazzle/internal/presenter"
	"github.com/dazzlefleet/dazzle/internal/task"
)

const (
	exitSuccess = 0
	exitFailed  = 1
	exitUsage   = 2

	defaultHostList  = "/etc/dazzle.conf"
	defaultMcastAddr = "239.0.0.1"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("dazzle", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "enable debug logging")
	hostListPath := fs.String("l", defaultHostList, "host list file")
	if err := fs.Parse(argv); err != nil {
		return exitUsage
	}

	args := fs.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: dazzle [-v] [-l HOSTLIST] <command> [command-args] HOST...")
		return exitUsage
	}
	command, args := args[0], args[1:]

	logger := logging.New(os.Stderr, *verbose)

	list, err := hostinv.Load(*hostListPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dazzle:", err)
		return exitUsage
	}

	pres := presenter.New(os.Stdout)
	root := jobtree.NewRoot("dazzle", pres)
	pres.SetRoot(root)

	t, err := buildCommand(root, command, args, list)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dazzle:", err)
		return exitUsage
	}

	pres.Start()
	defer pres.Stop()

	if err := task.Execute(context.Background(), t); err != nil {
		return exitFailed
	}
	return exitSuccess
}

// buildCommand resolves HOST expressions and constructs the root task for
// command, with root already wired to the Presenter.
func buildCommand(root *jobtree.Node, command string, args []string, list *hostinv.HostList) (*task.Task, error) {
	deps := hostctl.DefaultDeps()

	switch command {
	case "wakeup":
		hosts, err := resolveTrailingHosts(list, args)
		if err != nil {
			return nil, err
		}
		return fanOut(root, hosts, func(h hostinv.Host) *task.Task {
			return hostctl.Wakeup(root, deps, h)
		}), nil

	case "shutdown":
		hosts, err := resolveTrailingHosts(list, args)
		if err != nil {
			return nil, err
		}
		return fanOut(root, hosts, func(h hostinv.Host) *task.Task {
			return hostctl.Shutdown(root, deps, h)
		}), nil

	case "execute":
		if len(args) < 2 {
			return nil, errors.New("usage: dazzle execute COMMAND HOST...")
		}
		cmdline, hostArgs := args[0], args[1:]
		hosts, err := resolveTrailingHosts(list, hostArgs)
		if err != nil {
			return nil, err
		}
		return fanOut(root, hosts, func(h hostinv.Host) *task.Task {
			return hostctl.Execute(root, deps, h, cmdline)
		}), nil

	case "acquire":
		hosts, err := resolveTrailingHosts(list, args)
		if err != nil {
			return nil, err
		}
		return fanOut(root, hosts, func(h hostinv.Host) *task.Task {
			return hostctl.Acquire(root, deps, h)
		}), nil

	case "receive":
		fs := flag.NewFlagSet("receive", flag.ContinueOnError)
		dst := fs.String("dst", "", "destination block device")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *dst == "" {
			return nil, errors.New("usage: dazzle receive --dst DEV HOST...")
		}
		hosts, err := resolveTrailingHosts(list, fs.Args())
		if err != nil {
			return nil, err
		}
		barrier := clone.NewBarrier(len(hosts))
		return fanOut(root, hosts, func(h hostinv.Host) *task.Task {
			return hostctl.Receive(root, deps, h, *dst, defaultMcastAddr, barrier)
		}), nil

	case "clone":
		fs := flag.NewFlagSet("clone", flag.ContinueOnError)
		src := fs.String("src", "", "source block device")
		dst := fs.String("dst", "", "destination block device")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if *src == "" || *dst == "" {
			return nil, errors.New("usage: dazzle clone --src DEV --dst DEV HOST...")
		}
		hosts, err := resolveTrailingHosts(list, fs.Args())
		if err != nil {
			return nil, err
		}
		return hostctl.Clone(root, deps, hosts, *src, *dst, defaultMcastAddr), nil

	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func resolveTrailingHosts(list *hostinv.HostList, exprs []string) ([]hostinv.Host, error) {
	if len(exprs) == 0 {
		return nil, errors.New("no HOST expressions given")
	}
	return list.ResolveAll(exprs...)
}

// fanOut builds one task per host via build (each of which creates its own
// child node under root, per the hostctl package's convention) and wraps
// them in a task.Task that runs all of them concurrently through
// group.Run, so the CLI's root node itself reaches a terminal state once
// every host is done.
func fanOut(root *jobtree.Node, hosts []hostinv.Host, build func(hostinv.Host) *task.Task) *task.Task {
	children := make([]*task.Task, len(hosts))
	for i, h := range hosts {
		children[i] = build(h)
	}
	return &task.Task{
		Node: root,
		Run: func(ctx context.Context) (string, error) {
			return group.Run(ctx, children)
		},
	}
}
