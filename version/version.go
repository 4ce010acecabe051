// Package version holds build-time metadata, overridden via -ldflags
// -X at release build time the same way the teacher's CLI does.
package version

// Version and Date are overwritten at build time, e.g.:
//
//	go build -ldflags "-X github.com/ChristianF88/batchdecider/version.Version=v1.2.3 -X github.com/ChristianF88/batchdecider/version.Date=2026-01-01T00:00:00Z"
var (
	Version = "dev"
	Date    = "1970-01-01T00:00:00Z"
)
