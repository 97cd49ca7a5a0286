// Package config loads runtime configuration for binderctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config.
//  3. BINDERCTL_SERVER, BINDERCTL_TOKEN and BINDERCTL_TOKEN_FILE.
//  4. Global flags placed before the command name.
//
// # JSON schema
//
// Timeouts use timex.Duration, so they can be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "timeout": "30s",
//	  "token_file": "/home/me/.binderctl-token"
//	}
package config
