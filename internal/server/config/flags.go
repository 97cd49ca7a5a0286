package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/flagx"
)

// parseFlags overlays the command-line flags handled by the server.
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-g string   gRPC health bind address, empty disables it
//	-d string   database url (postgres://... or sqlite://path)
//	-s string   token signing secret
//	-t int      access token validity, minutes
//	-e string   environment name
//	-u string   upload directory for local storage
//	-l string   log level
//
// Only these flags are looked at, so -c/-config and unrelated arguments pass
// through without error.
func parseFlags(c *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-e", "-u", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.HTTPAddr, "a", c.HTTPAddr, "HTTP address")
	fs.StringVar(&c.GRPCHealthAddr, "g", c.GRPCHealthAddr, "gRPC health address")
	fs.StringVar(&c.DatabaseURL, "d", c.DatabaseURL, "database url")
	fs.StringVar(&c.SecretKey, "s", c.SecretKey, "secret key")
	ttl := fs.Int("t", int(c.AccessTokenTTL.Minutes()), "access token validity (minutes)")
	fs.StringVar(&c.Env, "e", c.Env, "environment")
	fs.StringVar(&c.UploadDir, "u", c.UploadDir, "upload directory")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	c.AccessTokenTTL = time.Duration(*ttl) * time.Minute
	return nil
}
