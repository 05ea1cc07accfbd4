package toolchain

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"cargowrap/internal/build"
	"cargowrap/internal/runner"
)

// InstallerStatus is the result of probing the installer executable.
type InstallerStatus struct {
	Command string `json:"command"`
	Version string `json:"version,omitempty"`
	Minimum string `json:"minimum,omitempty"`
	// OK is false when the installer could not run or is older than Minimum.
	OK     bool   `json:"ok"`
	Notice string `json:"notice,omitempty"`
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z.-]+)?`)

// CheckInstaller runs "<installer> --version" and compares the reported
// version against minimum, which may be empty.
func CheckInstaller(ctx context.Context, r runner.Runner, cfg build.Config, minimum string) InstallerStatus {
	status := InstallerStatus{Command: cfg.InstallerCommand, Minimum: minimum}

	res, err := r.Run(ctx, cfg.InstallerCommand, []string{"--version"}, runner.Options{
		Dir: cfg.ProjectRoot,
		Env: build.EnvList(cfg.Env),
	})
	if err != nil {
		status.Notice = fmt.Sprintf("installer not usable: %v", err)
		return status
	}

	status.Version = parseVersion(res.Stdout)
	ok, err := meetsMinimum(status.Version, minimum)
	if err != nil {
		status.Notice = err.Error()
		return status
	}
	if !ok {
		status.Notice = fmt.Sprintf("version %s is older than required %s", status.Version, minimum)
		return status
	}
	status.OK = true
	return status
}

func parseVersion(out []byte) string {
	line := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return versionPattern.FindString(line)
}

func meetsMinimum(version, minimum string) (bool, error) {
	if minimum == "" {
		return true, nil
	}
	if version == "" {
		return false, fmt.Errorf("installer did not report a version")
	}
	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("unparseable installer version %q: %w", version, err)
	}
	return constraint.Check(v), nil
}
