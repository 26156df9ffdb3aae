// Package presenter implements a single-writer terminal renderer: a
// serialized view over the job tree that animates the active block,
// flushes finished nodes to a scrolling backlog, and redraws in place.
package presenter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/google/uuid"
	"github.com/joeycumines/go-microbatch"
	"github.com/mattn/go-colorable"
	runewidth "github.com/mattn/go-runewidth"
)

const (
	defaultWidth   = 80
	tickInterval   = time.Second
	continuationPx = "      "
)

// Presenter is a jobtree.Observer that renders the tree to a terminal.
// Safe for concurrent use by many host-task goroutines calling through the
// jobtree.Observer interface; all actual writes are serialized behind mu.
type Presenter struct {
	root *jobtree.Node
	out  io.Writer
	tty  bool
	width func() int

	mu              sync.Mutex
	flushed         map[uuid.UUID]bool
	lastActiveLines int

	tick    atomic.Uint64
	batcher *microbatch.Batcher[struct{}]
	stopTick chan struct{}
	tickDone chan struct{}
}

// New constructs a Presenter writing to out. Call SetRoot once the tree's
// root node exists (the root must be constructed with this Presenter as
// its jobtree.Observer, so the two are built back-to-back: New, then
// jobtree.NewRoot(title, p), then p.SetRoot(root)). If out is a TTY, width
// is probed via termSize on every render; otherwise it is fixed at 80.
func New(out *os.File) *Presenter {
	p := &Presenter{
		flushed: make(map[uuid.UUID]bool),
	}

	if w, _, ok := termSize(out); ok {
		p.tty = true
		p.out = colorable.NewColorable(out)
		p.width = func() int {
			if w, _, ok := termSize(out); ok {
				return w
			}
			return defaultWidth
		}
	} else {
		p.out = out
		p.width = func() int { return defaultWidth }
	}

	// Bursts of concurrent host-task notifications are coalesced into one
	// repaint per flush window, rather than one terminal write per state
	// change (the mutex below gives correctness; microbatch is the
	// throughput knob).
	p.batcher = microbatch.NewBatcher[struct{}](
		&microbatch.BatcherConfig{MaxSize: 64, FlushInterval: 20 * time.Millisecond},
		func(ctx context.Context, jobs []struct{}) error {
			p.render()
			return nil
		},
	)

	return p
}

// SetRoot attaches the tree this Presenter renders. Must be called once,
// before Start, with the same node that was constructed with this
// Presenter as its Observer.
func (p *Presenter) SetRoot(root *jobtree.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = root
}

// OnNodeChanged implements jobtree.Observer.
func (p *Presenter) OnNodeChanged(n *jobtree.Node) {
	// best-effort: if the batcher has been closed (Stop already called),
	// the notification is simply dropped.
	_, _ = p.batcher.Submit(context.Background(), struct{}{})
}

// Start begins the animation ticker, which re-renders once per second so
// the active block's spinners advance even with no new state changes.
func (p *Presenter) Start() {
	p.stopTick = make(chan struct{})
	p.tickDone = make(chan struct{})
	go func() {
		defer close(p.tickDone)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.tick.Add(1)
				p.render()
			case <-p.stopTick:
				return
			}
		}
	}()
}

// Stop halts the animation ticker and the notification batcher, performing
// one final render so the last state is reflected, then leaves the cursor
// on a fresh line.
func (p *Presenter) Stop() {
	if p.stopTick != nil {
		close(p.stopTick)
		<-p.tickDone
	}
	_ = p.batcher.Close()
	p.render()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastActiveLines > 0 {
		fmt.Fprint(p.out, "\n")
	}
}

// render walks the tree depth-first, flushing newly-terminal nodes to the
// backlog and redrawing the active block.
func (p *Presenter) render() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.root == nil {
		return
	}

	var backlog []string
	var active []string
	width := p.width()
	tick := p.tick.Load()

	var walk func(n *jobtree.Node)
	walk = func(n *jobtree.Node) {
		state := n.State()
		switch {
		case state.Terminal():
			if !p.flushed[n.ID()] {
				p.flushed[n.ID()] = true
				backlog = append(backlog, formatBacklogLine(n, width)...)
			}
		case state != jobtree.Born:
			active = append(active, formatActiveLine(n, tick, width))
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(p.root)

	p.redraw(backlog, active)
	p.lastActiveLines = len(active)
}

// redraw moves the cursor up over the previous active block, clears and
// rewrites each line, prints any new backlog lines ahead of the (possibly
// different-sized) active block, and leaves the cursor at the bottom of
// the freshly drawn block.
func (p *Presenter) redraw(backlog, active []string) {
	var b strings.Builder

	if p.tty && p.lastActiveLines > 0 {
		fmt.Fprintf(&b, "\r\x1b[%dA", p.lastActiveLines)
	} else if p.lastActiveLines > 0 {
		b.WriteByte('\r')
	}

	for _, line := range backlog {
		b.WriteString(line)
		b.WriteString(eraseToEOL(p.tty))
		b.WriteByte('\n')
	}

	for _, line := range active {
		b.WriteString(line)
		b.WriteString(eraseToEOL(p.tty))
		b.WriteByte('\n')
	}

	io.WriteString(p.out, b.String())
}

func eraseToEOL(tty bool) string {
	if tty {
		return "\x1b[K"
	}
	return ""
}

// formatActiveLine renders one line of the active block: animation badge,
// level indentation, ellipsized title, and progress.
func formatActiveLine(n *jobtree.Node, tick uint64, width int) string {
	indent := n.Level() - 1
	if indent < 0 {
		indent = 0
	}
	prefix := activeBadge(n.State(), tick) + " " + strings.Repeat("  ", indent)

	progress := n.Progress()
	suffix := ""
	if progress != "" {
		suffix = "  " + progress
	}

	available := width - runewidth.StringWidth(prefix) - runewidth.StringWidth(suffix)
	title := ellipsize(n.Title(), available)

	return prefix + title + suffix
}

// formatBacklogLine renders a terminal node's one-shot backlog entry,
// wrapping its message to width with a continuation prefix.
func formatBacklogLine(n *jobtree.Node, width int) []string {
	indent := n.Level() - 1
	if indent < 0 {
		indent = 0
	}
	prefix := terminalBadge(n.State()) + " " + strings.Repeat("  ", indent)
	title := ellipsize(n.Title(), width-runewidth.StringWidth(prefix))
	lines := []string{prefix + title}

	if msg := n.Message(); msg != "" {
		lines = append(lines, wrapMessage(msg, width, continuationPx)...)
	}
	return lines
}

func ellipsize(title string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(title) <= width {
		return title
	}
	return runewidth.Truncate(title, width, "...")
}

// wrapMessage greedily packs words into lines no wider than width, each
// continuation line carrying prefix.
func wrapMessage(msg string, width int, prefix string) []string {
	usable := width - runewidth.StringWidth(prefix)
	if usable < 1 {
		usable = 1
	}
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(msg) {
		candidate := word
		if line.Len() > 0 {
			candidate = " " + word
		}
		if line.Len() > 0 && runewidth.StringWidth(line.String())+runewidth.StringWidth(candidate) > usable {
			lines = append(lines, prefix+line.String())
			line.Reset()
			candidate = word
		}
		line.WriteString(candidate)
	}
	if line.Len() > 0 {
		lines = append(lines, prefix+line.String())
	}
	return lines
}
