//go:build windows

package presenter

import "os"

// termSize has no Windows implementation here; the presenter always falls
// back to the default width of 80 on this platform.
func termSize(out *os.File) (width, height int, ok bool) {
	return 0, 0, false
}
