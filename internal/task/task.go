// Package task implements the check/pre/run/post execution protocol: a
// tiny interpreter over a declarative Task structure, rather than method
// overrides per task kind.
package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/dazzlefleet/dazzle/internal/jobtree"
)

// RemoteError carries the captured output of a failed remote command, so
// the task engine can prefer stderr, then stdout, then a formatted
// traceback.
type RemoteError struct {
	Stderr string
	Stdout string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	if e.Stdout != "" {
		return e.Stdout
	}
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Task wraps a jobtree.Node with the check/pre/run/post lifecycle.
//
// All fields besides Node are optional, except Run. A Task with a nil Run
// is invalid and Execute will panic, since "the work" is the one mandatory
// extension point.
type Task struct {
	// Node is the job tree node this task drives. Required.
	Node *jobtree.Node

	// Check is consulted first; a non-empty excuse skips the task without
	// invoking Run. An error from Check is treated like an error from Run.
	Check func(ctx context.Context) (excuse string, err error)

	// Pre runs sequentially before Run. The first to fail fails this task.
	Pre []*Task

	// Run performs the task's work. Its return value becomes the Success
	// message.
	Run func(ctx context.Context) (message string, err error)

	// Post runs sequentially after a successful Run. The first to fail
	// fails this task.
	Post []*Task
}

// Execute drives the task through its full check/pre/run/post lifecycle,
// mutating t.Node as it goes. It returns nil on Success or Skipped, and a
// non-nil error (always reflecting the message now recorded on t.Node) on
// Failed.
func Execute(ctx context.Context, t *Task) error {
	if t.Run == nil {
		panic("task: Task.Run must not be nil")
	}

	// 1. Checking.
	t.Node.SetState(jobtree.Checking, "")
	if t.Check != nil {
		excuse, err := t.Check(ctx)
		if err != nil {
			return fail(t.Node, err)
		}
		if excuse != "" {
			t.Node.SetState(jobtree.Skipped, excuse)
			return nil
		}
	}

	// 2. Pre.
	if len(t.Pre) > 0 {
		t.Node.SetState(jobtree.PreRunning, "")
		if err := runSequence(ctx, t.Pre); err != nil {
			return fail(t.Node, err)
		}
	}

	// 3. Running.
	t.Node.SetState(jobtree.Running, "")
	message, err := t.Run(ctx)
	if err != nil {
		return fail(t.Node, err)
	}

	// 4. Post.
	if len(t.Post) > 0 {
		t.Node.SetState(jobtree.PostRunning, "")
		if err := runSequence(ctx, t.Post); err != nil {
			return fail(t.Node, err)
		}
	}

	// 5. Success.
	t.Node.SetState(jobtree.Success, message)
	return nil
}

// runSequence executes sub-tasks one after another, stopping at (and
// surfacing) the first failure.
func runSequence(ctx context.Context, tasks []*Task) error {
	for _, sub := range tasks {
		if err := Execute(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

// fail captures err's message (stderr, else stdout, else a formatted
// traceback), transitions the node to Failed, and returns an error
// carrying the same message.
func fail(n *jobtree.Node, err error) error {
	msg := captureMessage(err)
	n.SetState(jobtree.Failed, msg)
	return errors.New(msg)
}

func captureMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		if re.Stderr != "" {
			return re.Stderr
		}
		if re.Stdout != "" {
			return re.Stdout
		}
	}
	return fmt.Sprintf("%+v", err)
}
