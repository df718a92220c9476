package chord

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Default timings, named in spec.md §4.F and §5.
const (
	DefaultStabilizeInterval     = 10 * time.Second
	DefaultFastStabilizeInterval = 1 * time.Second
	DefaultHeartbeatTimeout      = 5 * time.Second
	DefaultReadTimeout           = 30 * time.Second
	listenBacklog                = 20
)

// Config is a node's construction-time configuration, loadable from a TOML
// file the way myonku-distributed-kv-store's configs/config.go loads its
// AppConfig with toml.DecodeFile. All fields are optional; a zero Config
// falls back to the defaults above.
type Config struct {
	IP   string
	Port uint16

	BootstrapIP   string
	BootstrapPort uint16

	// IDBits documents the width of the identifier circle (spec.md §3).
	// The wire format and the ID type are fixed at 32 bits regardless of
	// this value (see id.go's IDBits constant); it is carried here only
	// so a loaded TOML file can record the choice alongside the rest of
	// a node's configuration.
	IDBits int

	StabilizeInterval     time.Duration
	FastStabilizeInterval time.Duration
	HeartbeatTimeout      time.Duration
	ReadTimeout           time.Duration

	// Logger overrides the sink every component logs through. Nil means
	// "not provided": newNode falls back to defaultLogger.
	Logger *Logger
}

// LoadConfig decodes a TOML file into a Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

func (c Config) withDefaults() Config {
	if c.IP == "" {
		c.IP = "127.0.0.1"
	}
	if c.IDBits == 0 {
		c.IDBits = IDBits
	}
	if c.StabilizeInterval == 0 {
		c.StabilizeInterval = DefaultStabilizeInterval
	}
	if c.FastStabilizeInterval == 0 {
		c.FastStabilizeInterval = DefaultFastStabilizeInterval
	}
	if c.HeartbeatTimeout == 0 {
		c.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}
