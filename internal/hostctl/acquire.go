package hostctl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dazzlefleet/dazzle/internal/hostinv"
	"github.com/dazzlefleet/dazzle/internal/jobtree"
	"github.com/dazzlefleet/dazzle/internal/task"
)

// Acquire builds the composite task that puts host into maintenance mode:
// shut it down, point its PXE boot at the maintenance image, wake it back
// up, and always remove the symlink afterward.
func Acquire(parent *jobtree.Node, d Deps, h hostinv.Host) *task.Task {
	node := parent.NewChild(fmt.Sprintf("Acquiring host %s", h.Label))
	shutdown := Shutdown(node, d, h)

	return &task.Task{
		Node: node,
		Pre:  []*task.Task{shutdown},
		Run: func(ctx context.Context) (string, error) {
			root := d.pxeRoot()
			template := filepath.Join(root, "maintenance")
			link := filepath.Join(root, h.IPHex())

			if !d.FS.Exists(template) {
				return "", fmt.Errorf("maintenance template %s does not exist", template)
			}
			if d.FS.Exists(link) {
				return "", fmt.Errorf("symlink %s already exists", link)
			}
			if err := d.FS.Symlink(template, link); err != nil {
				return "", fmt.Errorf("create symlink %s: %w", link, err)
			}
			// finally-style cleanup: the symlink must not outlive the
			// Wakeup attempt, success or failure.
			defer func() { _ = d.FS.Remove(link) }()

			wake := Wakeup(node, d, h)
			if err := task.Execute(ctx, wake); err != nil {
				return "", err
			}
			return "Host acquired", nil
		},
	}
}
