package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// ConfigFileName is the project configuration file looked up in the
	// project root.
	ConfigFileName = "cargowrap.yaml"

	appName     = "cargowrap"
	metaDirName = ".cargowrap"

	// maxUpwardSearchLevels bounds how many parents are checked for a
	// configuration file.
	maxUpwardSearchLevels = 10
)

// ProjectPaths captures canonical locations for a cargowrap project.
type ProjectPaths struct {
	Root       string
	ConfigFile string
	MetaDir    string
	LogsDir    string
}

// Resolve determines the project root and configuration file.
//
// Priority:
//  1. --config: the file's directory is the root unless --project is also set
//  2. --project
//  3. the nearest parent of the working directory holding cargowrap.yaml
//  4. the working directory
func Resolve(projectFlag, configFlag string) (ProjectPaths, error) {
	if configFlag != "" {
		cfgPath, err := filepath.Abs(configFlag)
		if err != nil {
			return ProjectPaths{}, fmt.Errorf("resolve config path: %w", err)
		}
		root := filepath.Dir(cfgPath)
		if projectFlag != "" {
			if root, err = filepath.Abs(projectFlag); err != nil {
				return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
			}
		}
		pp := newProjectPaths(root)
		pp.ConfigFile = cfgPath
		return pp, nil
	}

	if projectFlag != "" {
		root, err := filepath.Abs(projectFlag)
		if err != nil {
			return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
		}
		return newProjectPaths(root), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}
	if root := FindRootUpward(cwd); root != "" {
		return newProjectPaths(root), nil
	}
	return newProjectPaths(cwd), nil
}

// FindRootUpward searches startDir and its parents for a configuration file.
// It returns "" when none is found within a few levels.
func FindRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if ok, _ := FileExists(filepath.Join(dir, ConfigFileName)); ok {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func newProjectPaths(root string) ProjectPaths {
	metaDir := filepath.Join(root, metaDirName)
	return ProjectPaths{
		Root:       root,
		ConfigFile: filepath.Join(root, ConfigFileName),
		MetaDir:    metaDir,
		LogsDir:    filepath.Join(metaDir, "logs"),
	}
}

// EnsureMetaDirs creates the hidden .cargowrap directory and its logs dir.
func (p ProjectPaths) EnsureMetaDirs() error {
	for _, dir := range []string{p.MetaDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GlobalLogsDir returns the user-level logs directory under the XDG state
// home, creating it if needed.
func GlobalLogsDir() (string, error) {
	dir := filepath.Join(xdg.StateHome, appName, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create global logs dir: %w", err)
	}
	return dir, nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
