package jobtree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []State
}

func (r *recordingObserver) OnNodeChanged(n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n.State())
}

func TestNode_SetState_validTransitionsClearProgress(t *testing.T) {
	obs := &recordingObserver{}
	n := NewRoot("root", obs)

	n.SetState(Checking, "")
	assert.Equal(t, Checking, n.State())

	n.SetProgress("42.17 %")
	assert.Equal(t, "42.17 %", n.Progress())

	n.SetState(Running, "")
	assert.Empty(t, n.Progress(), "progress must be cleared on state change")

	n.SetState(Success, "done")
	assert.Equal(t, Success, n.State())
	assert.Equal(t, "done", n.Message())
	assert.True(t, n.State().Terminal())
}

func TestNode_SetState_illegalTransitionPanics(t *testing.T) {
	n := NewRoot("root", nil)
	n.SetState(Running, "")
	assert.Panics(t, func() {
		n.SetState(Checking, "")
	})
}

func TestNode_SetState_terminalIsFrozen(t *testing.T) {
	n := NewRoot("root", nil)
	n.SetState(Running, "")
	n.SetState(Success, "ok")

	assert.Panics(t, func() {
		n.SetState(Failed, "too late")
	}, "a terminal node's state must be frozen (invariant 3)")
}

func TestNode_NewChild_levelsAndTerminalFreeze(t *testing.T) {
	root := NewRoot("root", nil)
	require.Equal(t, 0, root.Level())

	child := root.NewChild("child")
	assert.Equal(t, 1, child.Level())
	assert.Same(t, root, child.Parent())

	root.SetState(Running, "")
	root.SetState(Success, "")

	assert.Panics(t, func() {
		root.NewChild("too-late")
	}, "a child cannot be added to a terminal parent (invariant 4)")
}

func TestNode_Active(t *testing.T) {
	n := NewRoot("root", nil)
	assert.False(t, n.Active(), "Born is not active")

	n.SetState(Checking, "")
	assert.True(t, n.Active())

	n.SetState(Running, "")
	n.SetState(Success, "")
	assert.False(t, n.Active(), "terminal states are not active")
}

func TestNode_ObserverNotifiedSynchronously(t *testing.T) {
	obs := &recordingObserver{}
	n := NewRoot("root", obs)
	n.SetState(Checking, "")
	n.SetState(Running, "")
	n.SetState(Success, "done")

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []State{Checking, Running, Success}, obs.calls)
}
