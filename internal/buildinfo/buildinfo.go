// Package buildinfo exposes build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/dmitrijs2005/compliancebinder/internal/buildinfo.Version=v1.2.0"
package buildinfo

import "fmt"

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// String formats the build metadata for a startup banner.
func String() string {
	return fmt.Sprintf("version=%s date=%s commit=%s", Version, Date, Commit)
}
