package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	// ProjectFileName is searched for in the working directory and its ancestors
	ProjectFileName = ".tiny-terminal.toml"
	// AppDirName is the directory under the user config dir
	AppDirName = "tiny-terminal"
	// UserFileName is the file inside AppDirName
	UserFileName = "config.toml"
)

// Source identifies where a resolved configuration came from
type Source int

const (
	SourceExplicit Source = iota
	SourceProject
	SourceUser
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceProject:
		return "project"
	case SourceUser:
		return "user"
	case SourceDefault:
		return "default"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Skipped records a source that was tried and rejected
type Skipped struct {
	Source Source
	Path   string
	Err    error
}

// Resolved is the outcome of Load
type Resolved struct {
	Config  Config
	Source  Source
	Path    string // empty for SourceDefault
	Skipped []Skipped
}

type loader struct {
	workDir    string
	userDir    string
	userDirErr error
	log        *zap.Logger
}

// Option configures Load
type Option func(*loader)

// WithWorkDir sets the directory the project file search starts from
func WithWorkDir(dir string) Option {
	return func(l *loader) { l.workDir = dir }
}

// WithUserConfigDir sets the base directory holding AppDirName/UserFileName
func WithUserConfigDir(dir string) Option {
	return func(l *loader) {
		l.userDir = dir
		l.userDirErr = nil
	}
}

// WithLogger receives debug entries for every source tried
func WithLogger(log *zap.Logger) Option {
	return func(l *loader) { l.log = log }
}

// Load resolves the configuration from, in order, explicitPath, the nearest
// project file, the user file and the built-in defaults. A source that is
// missing, unreadable or invalid falls through to the next one; Load itself
// never fails.
func Load(explicitPath string, opts ...Option) Resolved {
	l := &loader{log: zap.NewNop()}
	if wd, err := os.Getwd(); err == nil {
		l.workDir = wd
	}
	l.userDir, l.userDirErr = os.UserConfigDir()
	for _, opt := range opts {
		opt(l)
	}

	var res Resolved
	try := func(src Source, path string, err error) bool {
		if err == nil {
			var cfg Config
			cfg, err = ReadFile(path)
			if err == nil {
				res.Config, res.Source, res.Path = cfg, src, path
				l.log.Debug("configuration resolved",
					zap.Stringer("source", src),
					zap.String("path", path))
				return true
			}
		}
		res.Skipped = append(res.Skipped, Skipped{Source: src, Path: path, Err: err})
		l.log.Debug("configuration source skipped",
			zap.Stringer("source", src),
			zap.String("path", path),
			zap.Error(err))
		return false
	}

	if explicitPath != "" && try(SourceExplicit, explicitPath, nil) {
		return res
	}

	projectPath, err := FindProjectFile(l.workDir)
	if try(SourceProject, projectPath, err) {
		return res
	}

	userPath, err := l.userPath()
	if try(SourceUser, userPath, err) {
		return res
	}

	res.Config, res.Source, res.Path = Default(), SourceDefault, ""
	l.log.Debug("configuration resolved", zap.Stringer("source", SourceDefault))
	return res
}

func (l *loader) userPath() (string, error) {
	if l.userDirErr != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, l.userDirErr)
	}
	if l.userDir == "" {
		return "", fmt.Errorf("%w: no user config directory", ErrSourceUnavailable)
	}
	return filepath.Join(l.userDir, AppDirName, UserFileName), nil
}

// UserPath returns the per-user configuration file location
func UserPath() (string, error) {
	l := &loader{}
	l.userDir, l.userDirErr = os.UserConfigDir()
	return l.userPath()
}

// FindProjectFile returns the ProjectFileName in start or its nearest ancestor
func FindProjectFile(start string) (string, error) {
	if start == "" {
		return "", fmt.Errorf("%w: no working directory", ErrSourceUnavailable)
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s above %s", ErrSourceUnavailable, ProjectFileName, start)
		}
		dir = parent
	}
}

// ReadFile loads and validates the document at path
func ReadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path, creating parent directories
func Save(path string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := c.MarshalTOML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
