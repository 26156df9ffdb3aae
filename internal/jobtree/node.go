// Package jobtree implements the hierarchical job model: a tree of typed
// nodes, each carrying state, progress, and an optional terminal message,
// with synchronous notification of every transition.
package jobtree

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Observer receives synchronous notifications of node mutations. The
// presenter is the canonical Observer; it is invoked while the node's own
// lock is NOT held, so observers may safely query the node.
type Observer interface {
	// OnNodeChanged is called after a node's state or progress changes, and
	// once more (with a child already appended) when a node gains a child.
	OnNodeChanged(n *Node)
}

// NoopObserver discards all notifications.
type NoopObserver struct{}

func (NoopObserver) OnNodeChanged(*Node) {}

// Node is a single unit of work in the tree.
//
// Node is safe for concurrent use: state/progress/message mutation is
// guarded internally, though only the node's owning worker is expected to
// call the mutating methods.
type Node struct {
	id       uuid.UUID
	title    string
	parent   *Node
	observer Observer

	mu       sync.Mutex
	level    int
	state    State
	progress string
	message  string
	children []*Node
}

// NewRoot creates a root node (level 0, no parent) observed by obs. A nil
// obs is replaced with NoopObserver.
func NewRoot(title string, obs Observer) *Node {
	if obs == nil {
		obs = NoopObserver{}
	}
	return &Node{
		id:       uuid.New(),
		title:    title,
		observer: obs,
		level:    0,
		state:    Born,
	}
}

// NewChild appends a new Born child node to n and returns it.
//
// A child may only be added while n is non-terminal; attempting to add one
// to a terminal node is a programming error and panics.
func (n *Node) NewChild(title string) *Node {
	n.mu.Lock()
	if n.state.Terminal() {
		n.mu.Unlock()
		panic(fmt.Sprintf("jobtree: cannot add child %q to terminal node %q", title, n.title))
	}
	child := &Node{
		id:       uuid.New(),
		title:    title,
		parent:   n,
		observer: n.observer,
		level:    n.level + 1,
		state:    Born,
	}
	n.children = append(n.children, child)
	n.mu.Unlock()

	n.observer.OnNodeChanged(n)
	return child
}

// ID returns the node's stable identity, used by the presenter to remember
// which terminal nodes it has already written to the backlog.
func (n *Node) ID() uuid.UUID { return n.id }

// Title returns the node's human-readable label.
func (n *Node) Title() string { return n.title }

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Level returns the node's depth, the root being 0.
func (n *Node) Level() int { return n.level }

// Children returns a snapshot of the node's children, in append order.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// State returns the node's current state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Progress returns the node's current progress string, if any.
func (n *Node) Progress() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.progress
}

// Message returns the node's terminal message, if any.
func (n *Node) Message() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message
}

// Active reports whether the node is in the presenter's active set: a
// non-terminal state other than Born.
func (n *Node) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state != Born && !n.state.Terminal()
}

// SetState transitions the node to state, validating the move against the
// transition table, clearing progress, and notifying the observer
// synchronously. message is only meaningful for terminal states; it is
// ignored for active states.
//
// An illegal transition is a programming error and panics.
func (n *Node) SetState(state State, message string) {
	n.mu.Lock()
	if n.state.Terminal() {
		n.mu.Unlock()
		panic(fmt.Sprintf("jobtree: node %q is terminal (%s), cannot move to %s", n.title, n.state, state))
	}
	if !CanTransition(n.state, state) {
		n.mu.Unlock()
		panic(fmt.Sprintf("jobtree: illegal transition %s -> %s on node %q", n.state, state, n.title))
	}
	n.state = state
	n.progress = ""
	if state.Terminal() {
		n.message = message
	}
	n.mu.Unlock()

	n.observer.OnNodeChanged(n)
}

// SetProgress updates the node's free-form progress string and notifies the
// observer, without changing state.
func (n *Node) SetProgress(progress string) {
	n.mu.Lock()
	if n.state.Terminal() {
		n.mu.Unlock()
		panic(fmt.Sprintf("jobtree: node %q is terminal (%s), cannot set progress", n.title, n.state))
	}
	n.progress = progress
	n.mu.Unlock()

	n.observer.OnNodeChanged(n)
}
