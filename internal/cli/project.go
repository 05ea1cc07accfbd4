package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cargowrap/internal/build"
	"cargowrap/internal/config"
	"cargowrap/internal/logx"
	"cargowrap/internal/paths"
	"cargowrap/internal/tui"
)

// projectContext is everything a command needs once the project is resolved.
type projectContext struct {
	Paths   paths.ProjectPaths
	File    config.Config
	Build   build.Config
	Logger  zerolog.Logger
	session *logx.Session
}

func (p *projectContext) Close() error {
	return p.session.Close()
}

// LogWriter is the per-run log file; child output goes here when the
// progress display owns the terminal.
func (p *projectContext) LogWriter() io.Writer {
	return p.session.Writer()
}

// openProject resolves paths, loads and resolves the configuration and opens
// the run's log. console receives log output; nil keeps logs in the file.
func openProject(cmd *cobra.Command, command string, console io.Writer) (*projectContext, error) {
	pp, err := paths.Resolve(projectDir, configPath)
	if err != nil {
		return nil, err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return nil, fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	fileCfg, err := config.Load(pp.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	session, err := logx.New(pp, logx.Options{
		Command: command,
		Console: console,
		Level:   logx.Level(verbose, quiet),
		NoColor: !tui.IsTerminal(console),
	})
	if err != nil {
		return nil, err
	}
	logger := session.Logger.With().Str("command", command).Logger()
	logger.Debug().Str("root", pp.Root).Str("config", pp.ConfigFile).Str("log", session.Path).Msg("project resolved")

	if ok, _ := paths.FileExists(pp.ConfigFile); !ok {
		logger.Warn().Str("path", pp.ConfigFile).Msg("no configuration file found; run cargowrap init")
	}

	bcfg, err := fileCfg.Resolve(pp, build.HostEnv())
	if err != nil {
		session.Close()
		return nil, err
	}

	return &projectContext{
		Paths:   pp,
		File:    fileCfg,
		Build:   bcfg,
		Logger:  logger,
		session: session,
	}, nil
}
