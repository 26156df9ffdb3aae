package hostinv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dazzle.conf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const sampleConfig = `
[srv1]
mac = 00:11:22:33:44:55
ip = 10.0.0.1
group = web, prod

[srv2]
mac = 00:11:22:33:44:66
ip = 10.0.0.2
group = web

[broken]
mac = 00:11:22:33:44:77
`

func TestLoad_parsesSectionsAndSkipsMalformed(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	hl, err := Load(path, nil)
	require.NoError(t, err)

	hosts, err := hl.Resolve("@")
	require.NoError(t, err)
	assert.Len(t, hosts, 2, "the malformed [broken] section (missing ip) must be skipped, not fatal")
}

func TestLoad_missingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.conf"), nil)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestResolve_labelGroupAndAll(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	hl, err := Load(path, nil)
	require.NoError(t, err)

	single, err := hl.Resolve("srv1")
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "srv1", single[0].Label)

	group, err := hl.Resolve("@web")
	require.NoError(t, err)
	assert.Len(t, group, 2)

	all, err := hl.Resolve("@")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResolve_unknownLabelOrGroup(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	hl, err := Load(path, nil)
	require.NoError(t, err)

	_, err = hl.Resolve("nope")
	var ule *UnknownLabelError
	assert.ErrorAs(t, err, &ule)

	_, err = hl.Resolve("@nope")
	assert.ErrorAs(t, err, &ule)
}

func TestResolveAll_deduplicatesAcrossExpressions(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	hl, err := Load(path, nil)
	require.NoError(t, err)

	hosts, err := hl.ResolveAll("@", "srv1", "@web")
	require.NoError(t, err)
	assert.Len(t, hosts, 2, "srv1 named directly and via groups must collapse to one entry")
}

func TestHost_IPHexRoundTrip(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	hl, err := Load(path, nil)
	require.NoError(t, err)

	hosts, err := hl.Resolve("srv1")
	require.NoError(t, err)
	h := hosts[0]

	hex := h.IPHex()
	assert.Len(t, hex, 8)
	assert.Equal(t, "0A000001", hex)

	ip, err := ParseIPHex(hex)
	require.NoError(t, err)
	assert.True(t, ip.Equal(h.IP))
}
