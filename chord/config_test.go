package chord

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigWithDefaultsFillsZeroFields(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, DefaultStabilizeInterval, cfg.StabilizeInterval)
	require.Equal(t, DefaultFastStabilizeInterval, cfg.FastStabilizeInterval)
	require.Equal(t, DefaultHeartbeatTimeout, cfg.HeartbeatTimeout)
	require.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	require.Equal(t, IDBits, cfg.IDBits)
}

func TestConfigWithDefaultsPreservesIDBits(t *testing.T) {
	cfg := Config{IDBits: 16}.withDefaults()
	require.Equal(t, 16, cfg.IDBits)
}

func TestConfigWithDefaultsPreservesSetFields(t *testing.T) {
	cfg := Config{StabilizeInterval: 3 * time.Second}.withDefaults()
	require.Equal(t, 3*time.Second, cfg.StabilizeInterval)
	require.Equal(t, DefaultFastStabilizeInterval, cfg.FastStabilizeInterval)
}

func TestLoadConfigFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chord.toml")
	contents := `
IP = "127.0.0.1"
Port = 7000
BootstrapIP = "127.0.0.1"
BootstrapPort = 7001
StabilizeInterval = "5s"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.IP)
	require.Equal(t, uint16(7000), cfg.Port)
	require.Equal(t, uint16(7001), cfg.BootstrapPort)
	require.Equal(t, 5*time.Second, cfg.StabilizeInterval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
