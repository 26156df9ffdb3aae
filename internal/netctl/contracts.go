package netctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Pinger probes host reachability (the "ping" external collaborator).
type Pinger interface {
	// Ping sends a single probe and reports whether it was answered within
	// timeout.
	Ping(ctx context.Context, ip net.IP, timeout time.Duration) bool
}

// SSHRunner executes a command on a remote host over SSH, using the
// operator's existing key-based auth.
type SSHRunner interface {
	// Run executes command on host and returns its standard output.
	// toleratedExitCodes lists process exit codes that should NOT be
	// treated as failure, e.g. exit 255 when a poweroff command drops the
	// connection mid-command.
	Run(ctx context.Context, host string, command string, toleratedExitCodes ...int) (stdout string, err error)
}

// WakeSender sends a Wake-on-LAN magic packet (the "ether-wake"/"etherwake"
// external collaborator).
type WakeSender interface {
	Send(ctx context.Context, iface string, mac net.HardwareAddr) error
}

// RouteResolver discovers the local egress interface for a destination IP
// (the "ip route get" external collaborator).
type RouteResolver interface {
	EgressInterface(ctx context.Context, ip net.IP) (string, error)
}

// Stream is the interface StreamingCmd satisfies, factored out so tests
// can substitute a fake long-running process.
type Stream interface {
	Lines() <-chan string
	Wait() error
}

// StreamStarter launches a long-running external process whose stderr must
// be consumed line-by-line while it runs (the "udp-sender"/"udp-receiver"
// external collaborators), as opposed to Run/SSHRunner which wait for
// completion before returning output.
type StreamStarter interface {
	Start(ctx context.Context, name string, args ...string) (Stream, error)
}

// ExecStreamStarter shells out via os/exec, delegating to Start.
type ExecStreamStarter struct{}

func (ExecStreamStarter) Start(ctx context.Context, name string, args ...string) (Stream, error) {
	return Start(ctx, name, args...)
}

// SSHArgs builds the argument list for a batch-mode, non-interactive ssh
// invocation of command on host, matching ExecSSHRunner's flags; used to
// launch receivers over SSH as well as run one-shot remote commands.
func SSHArgs(host, command string) (name string, args []string) {
	return "ssh", []string{
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		host, command,
	}
}

// ExecPinger shells out to the system "ping" binary.
type ExecPinger struct{}

func (ExecPinger) Ping(ctx context.Context, ip net.IP, timeout time.Duration) bool {
	cctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()
	seconds := timeout.Seconds()
	if seconds < 1 {
		seconds = 1
	}
	cmd := exec.CommandContext(cctx, "ping", "-c", "1", "-W", strconv.Itoa(int(seconds)), ip.String())
	return cmd.Run() == nil
}

// ExecSSHRunner shells out to the system "ssh" binary, in batch (key-only,
// non-interactive) mode.
type ExecSSHRunner struct{}

func (ExecSSHRunner) Run(ctx context.Context, host string, command string, toleratedExitCodes ...int) (string, error) {
	stdout, err := Run(ctx, "ssh",
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		host, command,
	)
	if err == nil {
		return stdout, nil
	}
	var exitCoder interface{ ExitCode() int }
	if errors.As(err, &exitCoder) {
		for _, code := range toleratedExitCodes {
			if exitCoder.ExitCode() == code {
				return stdout, nil
			}
		}
	}
	return stdout, err
}

// ExecWakeSender shells out to "ether-wake" (falling back to "etherwake",
// the Debian-family name for the same tool).
type ExecWakeSender struct{}

func (ExecWakeSender) Send(ctx context.Context, iface string, mac net.HardwareAddr) error {
	name := "ether-wake"
	if _, err := exec.LookPath(name); err != nil {
		name = "etherwake"
	}
	_, err := Run(ctx, name, "-i", iface, mac.String())
	return err
}

// ExecRouteResolver shells out to "ip route get" and parses the "dev
// <iface>" token from its output.
type ExecRouteResolver struct{}

func (ExecRouteResolver) EgressInterface(ctx context.Context, ip net.IP) (string, error) {
	out, err := Run(ctx, "ip", "route", "get", ip.String())
	if err != nil {
		return "", err
	}
	return parseEgressInterface(out)
}

// parseEgressInterface extracts the interface named by the "dev" token in
// "ip route get" output, e.g. "10.0.0.1 via 10.0.0.254 dev eth0 src
// 10.0.0.5".
func parseEgressInterface(output string) (string, error) {
	fields := strings.Fields(output)
	for i, f := range fields {
		if f == "dev" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	return "", fmt.Errorf("netctl: no egress interface found in %q", strings.TrimSpace(output))
}
