package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Info is the build information of the CLI split into its semantic version parts.
type Info struct {
	Major      string `json:"major"`
	Minor      string `json:"minor"`
	Patch      string `json:"patch"`
	PreRelease string `json:"prerelease,omitempty"`
	Meta       string `json:"meta,omitempty"`
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit,omitempty"`
	BuildDate  string `json:"buildDate,omitempty"`
	GoVersion  string `json:"goVersion"`
	Compiler   string `json:"compiler"`
	Platform   string `json:"platform"`
	// BundleVersion is the bundle format this build produces.
	BundleVersion string `json:"bundleVersion"`
}

// GetInfo derives the version information from the go build info.
// A version that is not a semantic version is reported as it is with 0.0.0 as its parts.
// Go pseudo versions carry the build date and commit in their prerelease.
func GetInfo(bi *debug.BuildInfo, bundleVersion string) Info {
	base := Info{
		GoVersion:     runtime.Version(),
		Compiler:      runtime.Compiler,
		Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		BundleVersion: bundleVersion,
	}

	v, err := semver.NewVersion(bi.Main.Version)
	if err != nil {
		base.GitVersion = bi.Main.Version
		base.Major, base.Minor, base.Patch = "0", "0", "0"
		return base
	}

	base.GitVersion = v.String()
	if v.Metadata() != "" {
		base.Meta = v.Metadata()
	}
	if v.Prerelease() != "" {
		base.PreRelease = v.Prerelease()
		if parts := strings.Split(base.PreRelease, "."); len(parts) > 0 {
			// pseudo versions look like 0.0.0-20240101120000-abcdef123456 or x.y.z-pre.0.20240101120000-abcdef123456
			last := parts[len(parts)-1]
			if date, commit, ok := strings.Cut(last, "-"); ok && len(date) == 14 {
				base.BuildDate, base.GitCommit = date, commit
			}
		}
	}
	base.Major = strconv.FormatUint(v.Major(), 10)
	base.Minor = strconv.FormatUint(v.Minor(), 10)
	base.Patch = strconv.FormatUint(v.Patch(), 10)

	return base
}
