package group

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titleFor(h string) string { return "host:" + h }

func childrenFor(root *jobtree.Node, hosts []string, build func(h string, n *jobtree.Node) *task.Task) []*task.Task {
	children := make([]*task.Task, len(hosts))
	for i, h := range hosts {
		children[i] = build(h, root.NewChild(titleFor(h)))
	}
	return children
}

func runGroup(root *jobtree.Node, children []*task.Task) *task.Task {
	return &task.Task{
		Node: root,
		Run: func(ctx context.Context) (string, error) {
			return Run(ctx, children)
		},
	}
}

func TestRun_allSucceed(t *testing.T) {
	root := jobtree.NewRoot("group", nil)
	hosts := []string{"a", "b", "c"}
	var started int32

	children := childrenFor(root, hosts, func(h string, n *jobtree.Node) *task.Task {
		return &task.Task{
			Node: n,
			Run: func(ctx context.Context) (string, error) {
				atomic.AddInt32(&started, 1)
				return h, nil
			},
		}
	})

	err := task.Execute(context.Background(), runGroup(root, children))
	require.NoError(t, err)
	assert.Equal(t, jobtree.Success, root.State())
	assert.EqualValues(t, 3, started)
	assert.Len(t, root.Children(), 3)
}

func TestRun_oneFailurePropagatesWithoutAffectingSiblings(t *testing.T) {
	root := jobtree.NewRoot("group", nil)
	hosts := []string{"a", "b", "c"}
	var completed sync.Map

	children := childrenFor(root, hosts, func(h string, n *jobtree.Node) *task.Task {
		return &task.Task{
			Node: n,
			Run: func(ctx context.Context) (string, error) {
				if h == "b" {
					return "", errors.New("b exploded")
				}
				time.Sleep(5 * time.Millisecond)
				completed.Store(h, true)
				return h, nil
			},
		}
	})

	err := task.Execute(context.Background(), runGroup(root, children))
	require.Error(t, err)
	assert.Equal(t, jobtree.Failed, root.State())

	_, aDone := completed.Load("a")
	_, cDone := completed.Load("c")
	assert.True(t, aDone, "sibling a must still complete despite b's failure")
	assert.True(t, cDone, "sibling c must still complete despite b's failure")
}

func TestRun_childrenBuiltInIterationOrder(t *testing.T) {
	root := jobtree.NewRoot("group", nil)
	hosts := []string{"a", "b", "c", "d"}

	var mu sync.Mutex
	var order []string

	children := childrenFor(root, hosts, func(h string, n *jobtree.Node) *task.Task {
		mu.Lock()
		order = append(order, h)
		mu.Unlock()
		return &task.Task{
			Node: n,
			Run: func(ctx context.Context) (string, error) {
				return "", nil
			},
		}
	})

	require.NoError(t, task.Execute(context.Background(), runGroup(root, children)))
	assert.Equal(t, hosts, order, "children are constructed in iteration order of the host set")
}

func TestRun_emptySetSucceeds(t *testing.T) {
	root := jobtree.NewRoot("group", nil)
	require.NoError(t, task.Execute(context.Background(), runGroup(root, nil)))
	assert.Equal(t, jobtree.Success, root.State())
}

func TestRun_skippedChildrenDoNotFailTheGroup(t *testing.T) {
	root := jobtree.NewRoot("group", nil)
	hosts := []string{"a", "b"}

	children := childrenFor(root, hosts, func(h string, n *jobtree.Node) *task.Task {
		return &task.Task{
			Node: n,
			Check: func(ctx context.Context) (string, error) {
				return fmt.Sprintf("%s already satisfied", h), nil
			},
			Run: func(ctx context.Context) (string, error) {
				panic("must not run when skipped")
			},
		}
	})

	require.NoError(t, task.Execute(context.Background(), runGroup(root, children)))
	assert.Equal(t, jobtree.Success, root.State())
	for _, child := range root.Children() {
		assert.Equal(t, jobtree.Skipped, child.State())
	}
}
