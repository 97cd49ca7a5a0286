// Package flagx holds small helpers around the standard flag package that
// let a program peek at a subset of its arguments before full parsing.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// ConfigFlagNames are the spellings accepted for the config file flag.
var ConfigFlagNames = []string{"-c", "-config", "--config"}

// FilterArgs keeps only the arguments named in allowed, together with their
// values. Both "-c file" and "--config=file" forms are recognised.
func FilterArgs(args []string, allowed []string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		names[f] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := names[name]; keep {
				out = append(out, arg)
			}
			continue
		}

		if _, keep := names[arg]; !keep {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// ConfigPath returns the value of -c / -config found in args, or "" when the
// flag is absent. Every other argument is ignored so the caller can run its
// own flag set afterwards.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, ConfigFlagNames))

	return path
}
