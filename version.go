package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/scvdview/scvd/lexer"
	"github.com/scvdview/scvd/snapshot"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildDate=...".
// Without them the module version and VCS stamp from the build info are used.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// buildStamp fills in whatever the linker flags left unset from the
// binary's embedded build info.
func buildStamp() (version, commit, date string) {
	version, commit, date = Version, Commit, BuildDate
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && commit == "unknown":
			commit = s.Value
		case s.Key == "vcs.time" && date == "unknown":
			date = s.Value
		case s.Key == "vcs.modified" && s.Value == "true" && commit != "unknown":
			commit += "-dirty"
		}
	}
	return
}

// printVersion reports the build and what the binary can read: the
// snapshot document version and the printf directives it formats.
func printVersion(w io.Writer) {
	version, commit, date := buildStamp()
	fmt.Fprintf(w, "scvd %s (%s/%s, %s)\n", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	if commit != "unknown" {
		fmt.Fprintf(w, "  commit:     %s\n", commit)
	}
	if date != "unknown" {
		fmt.Fprintf(w, "  built:      %s\n", date)
	}
	fmt.Fprintf(w, "  snapshot:   format %d (yaml or json)\n", snapshot.FormatVersion)
	fmt.Fprintf(w, "  directives: %s\n", strings.Join(strings.Split(lexer.Directives, ""), " "))
}
