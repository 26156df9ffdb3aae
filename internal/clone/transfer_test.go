package clone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReadyLine(t *testing.T) {
	assert.True(t, IsReadyLine("Compressed UDP receiver v20171026"))
	assert.False(t, IsReadyLine("Connected as 192.168.1.5"))
}

func TestIsConnectedLine(t *testing.T) {
	assert.True(t, IsConnectedLine("Connected as 192.168.1.5"))
	assert.False(t, IsConnectedLine("Compressed UDP receiver v20171026"))
}

func TestParseTransferLine(t *testing.T) {
	cases := []struct {
		line      string
		wantBytes int64
		wantMbps  float64
		wantOK    bool
	}{
		{"bytes=1024   (12.3 Mbps)", 1024, 12.3, true},
		{"bytes=1024K   (99.0 Mbps)", 1024 * 1024, 99.0, true},
		{"bytes=1M   (850.5 Mbps)", 1 << 20, 850.5, true},
		{"bytes=512 512   (1.0 Mbps)", 512512, 1.0, true},
		{"not a transfer line", 0, 0, false},
	}
	for _, c := range cases {
		n, mbps, ok := ParseTransferLine(c.line)
		assert.Equal(t, c.wantOK, ok, c.line)
		if c.wantOK {
			assert.Equal(t, c.wantBytes, n, c.line)
			assert.InDelta(t, c.wantMbps, mbps, 0.001, c.line)
		}
	}
}

func TestHumanizeBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanizeBytes(512))
	assert.Equal(t, "1.0 KiB", HumanizeBytes(1024))
	assert.Equal(t, "1.0 MiB", HumanizeBytes(1<<20))
	assert.Equal(t, "1.0 GiB", HumanizeBytes(1<<30))
}
