// Package buildinfo provides build information for the presupuesto binaries.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/abustosp/app-presupuesto/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are left at their defaults, Get falls back to the module and VCS
// data the Go toolchain embeds in the binary.
package buildinfo
