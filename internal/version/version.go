// Package version carries the build version, injected at link time.
package version

// Version is overridden by -ldflags at release builds.
var Version = "dev"
