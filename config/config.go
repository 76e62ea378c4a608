package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config describes the daemon's runtime settings.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	OwnerAddress   string `toml:"OwnerAddress"`
	PlatformFeePct uint32 `toml:"PlatformFeePct"`
	JournalHistory int    `toml:"JournalHistory"`
	ServiceName    string `toml:"ServiceName"`
	Environment    string `toml:"Environment"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted. OwnerAddress may stay
// empty in the file; the daemon refuses to start without it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OwnerAddress) != "" {
		if _, err := c.Owner(); err != nil {
			return err
		}
	}
	if c.PlatformFeePct > 10 {
		return fmt.Errorf("config: PlatformFeePct %d exceeds the 10%% cap", c.PlatformFeePct)
	}
	return nil
}

// Owner decodes the configured owner address.
func (c *Config) Owner() ([20]byte, error) {
	var owner [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(c.OwnerAddress), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return owner, fmt.Errorf("config: OwnerAddress must be a 20-byte hex address")
	}
	copy(owner[:], raw)
	if owner == ([20]byte{}) {
		return owner, fmt.Errorf("config: OwnerAddress must not be the zero address")
	}
	return owner, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8666"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9191"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./streampay-data"
	}
	if cfg.JournalHistory <= 0 {
		cfg.JournalHistory = 4096
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		cfg.ServiceName = "streampayd"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{PlatformFeePct: 5}
	applyDefaults(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
