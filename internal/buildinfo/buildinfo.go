// Package buildinfo holds version information injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/rc-tools/rccalllog/internal/buildinfo.Version=1.2.0"
package buildinfo

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)
