package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/compliancebinder/internal/flagx"
	"github.com/dmitrijs2005/compliancebinder/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling.
type jsonConfig struct {
	ServerURL string         `json:"server_url"`
	Timeout   timex.Duration `json:"timeout"`
	TokenFile string         `json:"token_file"`
}

// parseJSON overlays cfg with the file named by -c/--config among the global
// arguments. Only fields present in the file are applied.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(globalArgs(args))
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.Timeout.Duration > 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
	if jc.TokenFile != "" {
		cfg.TokenFile = jc.TokenFile
	}
	return nil
}
