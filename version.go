package mempush

import (
	"fmt"
	"io"
	"runtime"
)

// Populated at build time with -ldflags
var (
	// Version is the application version
	Version = "v0.1.0"
	// GitRev is the git revision the binary was built from
	GitRev = "undefined"
	// GitBranch is the git branch the binary was built from
	GitBranch = "undefined"
	// BuildDate is the date the binary was built
	BuildDate = "Sat 30 Aug 2025 00:00:00 UTC"
)

// PrintVersion prints the version and build information
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "Version:      %s\n", Version)
	fmt.Fprintf(w, "Git revision: %s\n", GitRev)
	fmt.Fprintf(w, "Git branch:   %s\n", GitBranch)
	fmt.Fprintf(w, "Go version:   %s\n", runtime.Version())
	fmt.Fprintf(w, "Built:        %s\n", BuildDate)
	fmt.Fprintf(w, "OS/Arch:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
