// Package version holds build information, set at link time:
//
//	go build -ldflags "-X github.com/jackzampolin/oicmap/version.GitRelease=v0.1.0"
package version

import "runtime"

var (
	// GitRelease is the release tag.
	GitRelease = "dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"

	// GitCommitDate is the commit date.
	GitCommitDate = "unknown"

	// GoInfo is the Go toolchain and target platform.
	GoInfo = runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
)
