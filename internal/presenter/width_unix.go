//go:build !windows

package presenter

import (
	"os"

	"golang.org/x/sys/unix"
)

// termSize probes the controlling terminal's dimensions via the TIOCGWINSZ
// ioctl. ok is false when out is not a TTY.
func termSize(out *os.File) (width, height int, ok bool) {
	ws, err := unix.IoctlGetWinsize(int(out.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, false
	}
	return int(ws.Col), int(ws.Row), true
}
