// Package clone implements the multicast sender/receiver rendezvous: the
// barrier that holds the sender until every receiver has signaled
// readiness, and the line-parsers that turn udp-sender/udp-receiver stderr
// chatter into progress.
package clone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	readyPrefix     = "Compressed UDP receiver"
	connectedPrefix = "Connected as"
)

// IsReadyLine reports whether line is the receiver's readiness banner.
func IsReadyLine(line string) bool { return strings.HasPrefix(line, readyPrefix) }

// IsConnectedLine reports whether line announces the receiver has
// connected to the sender.
func IsConnectedLine(line string) bool { return strings.HasPrefix(line, connectedPrefix) }

// transferLineRe isolates the byte-count/scale token and the Mbps figure
// from a udp-sender/udp-receiver throughput line.
var transferLineRe = regexp.MustCompile(`bytes=([0-9 KM]+)\(\s*([0-9.]+)\s*Mbps\)`)

// ParseTransferLine extracts the cumulative byte count and instantaneous
// Mbps rate from a throughput line. ok is false if line doesn't match.
func ParseTransferLine(line string) (bytesTransferred int64, mbps float64, ok bool) {
	m := transferLineRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}

	token := strings.TrimSpace(m[1])
	scale := int64(1)
	switch {
	case strings.HasSuffix(token, "M"):
		scale = 1 << 20
		token = strings.TrimSuffix(token, "M")
	case strings.HasSuffix(token, "K"):
		scale = 1 << 10
		token = strings.TrimSuffix(token, "K")
	}
	digits := strings.ReplaceAll(strings.TrimSpace(token), " ", "")
	if digits == "" {
		return 0, 0, false
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
	if err != nil {
		return 0, 0, false
	}

	return n * scale, rate, true
}

// HumanizeBytes renders n using binary (1024-based) units, e.g. "1.2 GiB".
func HumanizeBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n/div >= unit && exp < 3 {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
