// Package group implements the per-host fan-out executor: given a set of
// already-constructed child tasks it runs them all concurrently under
// their shared parent node and waits for every one to reach a terminal
// state.
package group

import (
	"context"
	"strings"

	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/task"
	"golang.org/x/sync/errgroup"
)

// Run starts every task in children concurrently, in iteration order, and
// blocks until all of them have reached a terminal state. It returns nil
// if every child ended Success or Skipped; otherwise it returns an error
// joining every failed child's message, so the caller sees the full set of
// failures rather than only the first.
func Run(ctx context.Context, children []*task.Task) (string, error) {
	// errgroup.Group (without WithContext) lets every child run to
	// completion independently: one host's failure must not cancel or
	// otherwise affect any other host's in-flight task.
	var eg errgroup.Group
	for _, child := range children {
		child := child
		eg.Go(func() error {
			return task.Execute(ctx, child)
		})
	}
	_ = eg.Wait()

	var failures []string
	for _, child := range children {
		if child.Node.State() == jobtree.Failed {
			failures = append(failures, child.Node.Message())
		}
	}
	if len(failures) > 0 {
		return "", &task.RemoteError{Stderr: strings.Join(failures, "; ")}
	}
	return "", nil
}
