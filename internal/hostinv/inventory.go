package hostinv

import (
	"fmt"
	"net"
	"strings"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"gopkg.in/ini.v1"
)

// ConfigError marks a fatal problem with the host list file itself, as
// opposed to a single malformed section, which is logged and skipped.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("hostinv: %s: %s", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// UnknownLabelError is returned by Resolve when a host expression names a
// label or group absent from the inventory.
type UnknownLabelError struct {
	Expr string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("hostinv: unknown host expression %q", e.Expr)
}

// HostList is a loaded inventory: a mapping label -> Host, plus a mapping
// group -> ordered list of Host.
type HostList struct {
	hosts  map[string]Host
	order  []string // label insertion order, for deterministic "@" resolution
	groups map[string][]Host
}

// Load reads an INI-like host list file: one section per host, with keys
// mac (required), ip (required, hostname or dotted-quad, resolved at
// load time), and group (optional, comma-separated).
//
// A malformed section is logged at Warning and skipped, not fatal. A
// problem reading or parsing the file itself is a ConfigError.
func Load(path string, logger *logiface.Logger[*izerolog.Event]) (*HostList, error) {
	if logger == nil {
		logger = izerolog.L.New()
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	hl := &HostList{
		hosts:  make(map[string]Host),
		groups: make(map[string][]Host),
	}

	for _, section := range cfg.Sections() {
		label := section.Name()
		if label == ini.DefaultSection {
			continue
		}

		host, groups, err := parseSection(label, section)
		if err != nil {
			logger.Warning().Str("section", label).Err(err).Log("skipping malformed host section")
			continue
		}

		// A repeated label replaces the earlier entry.
		if _, exists := hl.hosts[label]; !exists {
			hl.order = append(hl.order, label)
		}
		hl.hosts[label] = host

		for _, g := range groups {
			hl.groups[g] = appendUnique(hl.groups[g], host)
		}
	}

	return hl, nil
}

func parseSection(label string, section *ini.Section) (Host, []string, error) {
	macRaw := strings.TrimSpace(section.Key("mac").String())
	ipRaw := strings.TrimSpace(section.Key("ip").String())
	groupRaw := strings.TrimSpace(section.Key("group").String())

	if macRaw == "" {
		return Host{}, nil, fmt.Errorf("missing mac")
	}
	if ipRaw == "" {
		return Host{}, nil, fmt.Errorf("missing ip")
	}

	mac, err := net.ParseMAC(macRaw)
	if err != nil {
		return Host{}, nil, fmt.Errorf("invalid mac %q: %w", macRaw, err)
	}

	ip, err := resolveIP(ipRaw)
	if err != nil {
		return Host{}, nil, fmt.Errorf("invalid ip %q: %w", ipRaw, err)
	}

	host := Host{Label: label, MAC: mac, IP: ip}

	var groups []string
	if groupRaw != "" {
		for _, g := range strings.Split(groupRaw, ",") {
			g = strings.TrimSpace(g)
			if g != "" {
				groups = append(groups, g)
			}
		}
	}
	return host, groups, nil
}

// resolveIP accepts a dotted-quad directly, or resolves a hostname via
// DNS, at load time.
func resolveIP(raw string) (net.IP, error) {
	if ip := net.ParseIP(raw); ip != nil {
		return ip, nil
	}
	addrs, err := net.LookupIP(raw)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if v4 := a.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address found for %q", raw)
}

func appendUnique(hosts []Host, h Host) []Host {
	for _, existing := range hosts {
		if existing.Label == h.Label {
			return hosts
		}
	}
	return append(hosts, h)
}

// Resolve evaluates a host expression:
//
//	@        -> all hosts, in load order
//	@name    -> group "name", error if missing
//	label    -> single host, error if missing
//
// Resolve is pure and side-effect free.
func (hl *HostList) Resolve(expr string) ([]Host, error) {
	if expr == "@" {
		out := make([]Host, 0, len(hl.order))
		for _, label := range hl.order {
			out = append(out, hl.hosts[label])
		}
		return out, nil
	}
	if strings.HasPrefix(expr, "@") {
		name := expr[1:]
		hosts, ok := hl.groups[name]
		if !ok {
			return nil, &UnknownLabelError{Expr: expr}
		}
		out := make([]Host, len(hosts))
		copy(out, hosts)
		return out, nil
	}
	host, ok := hl.hosts[expr]
	if !ok {
		return nil, &UnknownLabelError{Expr: expr}
	}
	return []Host{host}, nil
}

// ResolveAll evaluates every expression in exprs and merges the results
// into a single de-duplicated, order-preserving host set: a host named
// by more than one expression appears only once, at its first occurrence.
func (hl *HostList) ResolveAll(exprs ...string) ([]Host, error) {
	seen := make(map[string]bool)
	var out []Host
	for _, expr := range exprs {
		hosts, err := hl.Resolve(expr)
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			if !seen[h.Label] {
				seen[h.Label] = true
				out = append(out, h)
			}
		}
	}
	return out, nil
}
