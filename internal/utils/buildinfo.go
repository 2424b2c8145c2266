// Package utils holds small helpers shared across repoctx: logging setup, version lookup,
// size formatting and binary sniffing.
package utils

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersion      = "unknown"
	develVersion        = "(devel)"
	revisionSettingKey  = "vcs.revision"
	modifiedSettingKey  = "vcs.modified"
	shortRevisionLength = 12
	dirtySuffix         = "-dirty"
)

// Version is overridden at link time with -ldflags "-X github.com/temirov/repoctx/internal/utils.Version=v1.2.3".
var Version = ""

// GetApplicationVersion reports the release version. It prefers the linker-provided Version,
// then the module version, then the VCS revision embedded by the Go toolchain.
func GetApplicationVersion() string {
	if trimmed := strings.TrimSpace(Version); trimmed != "" {
		return trimmed
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if !buildInfoAvailable {
		return unknownVersion
	}
	return versionFromBuildInfo(buildInfo)
}

func versionFromBuildInfo(buildInfo *debug.BuildInfo) string {
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != develVersion {
		return buildInfo.Main.Version
	}
	revision := ""
	modified := false
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case revisionSettingKey:
			revision = setting.Value
		case modifiedSettingKey:
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return unknownVersion
	}
	if len(revision) > shortRevisionLength {
		revision = revision[:shortRevisionLength]
	}
	if modified {
		revision += dirtySuffix
	}
	return revision
}
