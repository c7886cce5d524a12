// Package conf holds build-time identity, overridden via -ldflags at release.
package conf

var (
	Executable = "slackapptk"

	// GitVersion is stamped by the build; "dev" outside a release build.
	GitVersion = "dev"
)
