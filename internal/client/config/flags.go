package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// newFlagSet declares the global flags. They must come before the command
// name; everything from the first positional argument on is left alone.
//
//	-s, --server string     base URL of the API
//	    --timeout duration  per-request timeout
//	    --token-file string where login stores the access token
//	-c, --config string     JSON config file
func newFlagSet(c *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("binderctl", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	fs.StringVarP(&c.ServerURL, "server", "s", c.ServerURL, "base URL of the API")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "per-request timeout")
	fs.StringVar(&c.TokenFile, "token-file", c.TokenFile, "file holding the access token")
	fs.StringP("config", "c", "", "JSON config file")
	return fs
}

func parseFlags(c *Config, args []string) ([]string, error) {
	fs := newFlagSet(c)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	return fs.Args(), nil
}

// globalArgs returns the arguments before the command name.
func globalArgs(args []string) []string {
	fs := newFlagSet(&Config{})
	if err := fs.Parse(args); err != nil {
		return args
	}
	return args[:len(args)-len(fs.Args())]
}
