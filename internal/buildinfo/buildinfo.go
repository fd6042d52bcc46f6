// Package buildinfo reports the version and VCS state the binary was built
// from.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

const (
	goOS        = "GOOS"
	goArch      = "GOARCH"
	vcsRevision = "vcs.revision"
	vcsTime     = "vcs.time"
	vcsModified = "vcs.modified"
)

// version is set by the linker: -ldflags "-X .../buildinfo.version=v1.0.0".
var version = "devel"

type Info struct {
	Version   string
	GoVersion string
	settings  map[string]string
}

func ReadVersionInfo() Info {
	info := Info{
		Version:  version,
		settings: map[string]string{},
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = buildInfo.GoVersion
		for _, kv := range buildInfo.Settings {
			info.settings[kv.Key] = kv.Value
		}
	}
	return info
}

// Revision returns the commit the binary was built from, suffixed with
// "-dirty" if the tree had local changes.
func (info Info) Revision() string {
	rev := info.settings[vcsRevision]
	if rev != "" && info.settings[vcsModified] == "true" {
		rev += "-dirty"
	}
	return rev
}

func (info Info) String() string {
	var sb strings.Builder
	sb.WriteString(info.Version + "\n")
	sb.WriteString("Go Version:  " + info.GoVersion + "\n")
	sb.WriteString("Git Commit:  " + info.Revision() + "\n")
	sb.WriteString("Built:       " + info.settings[vcsTime] + "\n")
	sb.WriteString("OS/Arch:     " + info.settings[goOS] + "/" + info.settings[goArch])
	return sb.String()
}
