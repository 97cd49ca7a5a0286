package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for binderctl.
type Config struct {
	ServerURL string
	Timeout   time.Duration
	// Token, when set, is used instead of the one stored in TokenFile.
	Token     string
	TokenFile string
}

// LoadDefaults populates c with defaults matching a local server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.Timeout = 30 * time.Second
	if home, err := os.UserHomeDir(); err == nil {
		c.TokenFile = filepath.Join(home, ".binderctl-token")
	} else {
		c.TokenFile = ".binderctl-token"
	}
}

// Load builds a Config from defaults, the JSON file named by -c/--config,
// the environment and the global flags in args. It returns the arguments
// left after the global flags, starting with the command name.
func Load(args []string) (*Config, []string, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, nil, err
	}
	parseEnv(cfg, lookup)

	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}

func parseEnv(c *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("BINDERCTL_SERVER"); ok && v != "" {
		c.ServerURL = v
	}
	if v, ok := lookup("BINDERCTL_TOKEN"); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup("BINDERCTL_TOKEN_FILE"); ok && v != "" {
		c.TokenFile = v
	}
}
