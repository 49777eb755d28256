package utils

import (
	"os/exec"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	develBuildVersion  = "(devel)"
	gitExecutableName  = "git"
	gitDescribeCommand = "describe"
	gitTagsArgument    = "--tags"
	gitExactArgument   = "--exact-match"
	gitLongArgument    = "--long"
	gitDirtyArgument   = "--dirty"
)

// GetApplicationVersion reports the module version recorded in the build information.
// Development builds fall back to git describe and finally to "unknown".
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != EmptyString && buildInfo.Main.Version != develBuildVersion {
		return buildInfo.Main.Version
	}

	describeArguments := [][]string{
		{gitDescribeCommand, gitTagsArgument, gitExactArgument},
		{gitDescribeCommand, gitTagsArgument, gitLongArgument, gitDirtyArgument},
	}
	for _, arguments := range describeArguments {
		// #nosec G204
		describeOutput, describeError := exec.Command(gitExecutableName, arguments...).Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}
