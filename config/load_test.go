package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func docWithFPS(fps int) string {
	return fmt.Sprintf("fps = %d\ncolumn_width = 2\ndensity = 1.0\ncharset = \"01\"\ngreen = true\n", fps)
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// layout builds a work dir with a project file and a user config dir
type layout struct {
	root    string
	workDir string
	userDir string
	project string
	user    string
}

func newLayout(t *testing.T, projectDoc, userDoc string) layout {
	t.Helper()
	root := t.TempDir()
	l := layout{
		root:    root,
		workDir: filepath.Join(root, "repo", "sub", "dir"),
		userDir: filepath.Join(root, "home", ".config"),
	}
	require.NoError(t, os.MkdirAll(l.workDir, 0755))
	if projectDoc != "" {
		l.project = writeFile(t, filepath.Join(root, "repo", ProjectFileName), projectDoc)
	}
	if userDoc != "" {
		l.user = writeFile(t, filepath.Join(l.userDir, AppDirName, UserFileName), userDoc)
	}
	return l
}

func (l layout) load(explicit string, opts ...Option) Resolved {
	opts = append([]Option{WithWorkDir(l.workDir), WithUserConfigDir(l.userDir)}, opts...)
	return Load(explicit, opts...)
}

func TestLoad_ExplicitWins(t *testing.T) {
	l := newLayout(t, docWithFPS(30), docWithFPS(20))
	explicit := writeFile(t, filepath.Join(l.root, "custom.toml"), docWithFPS(100))

	res := l.load(explicit)
	assert.Equal(t, SourceExplicit, res.Source)
	assert.Equal(t, explicit, res.Path)
	assert.Equal(t, 100, res.Config.FPS)
	assert.Empty(t, res.Skipped)
}

func TestLoad_MalformedExplicitFallsBackToProject(t *testing.T) {
	l := newLayout(t, docWithFPS(30), docWithFPS(20))
	explicit := writeFile(t, filepath.Join(l.root, "broken.toml"), "fps = [")

	res := l.load(explicit)
	assert.Equal(t, SourceProject, res.Source)
	assert.Equal(t, l.project, res.Path)
	assert.Equal(t, 30, res.Config.FPS)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SourceExplicit, res.Skipped[0].Source)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrParse)
}

func TestLoad_MissingExplicit(t *testing.T) {
	l := newLayout(t, docWithFPS(30), "")

	res := l.load(filepath.Join(l.root, "nope.toml"))
	assert.Equal(t, SourceProject, res.Source)
	require.Len(t, res.Skipped, 1)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrSourceUnavailable)
}

func TestLoad_ProjectInAncestor(t *testing.T) {
	l := newLayout(t, docWithFPS(42), "")

	path, err := FindProjectFile(l.workDir)
	require.NoError(t, err)
	assert.Equal(t, l.project, path)

	res := l.load("")
	assert.Equal(t, 42, res.Config.FPS)
}

func TestLoad_PartialProjectFallsToUser(t *testing.T) {
	l := newLayout(t, "fps = 10\n", docWithFPS(20))

	res := l.load("")
	assert.Equal(t, SourceUser, res.Source)
	assert.Equal(t, l.user, res.Path)
	assert.Equal(t, 20, res.Config.FPS)
	assert.Equal(t, "01", res.Config.Charset, "no merge with the partial document or defaults")

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SourceProject, res.Skipped[0].Source)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrParse)
}

func TestLoad_InvalidValuesFallThrough(t *testing.T) {
	l := newLayout(t, docWithFPS(0), docWithFPS(-1))

	res := l.load("")
	assert.Equal(t, SourceDefault, res.Source)
	assert.Equal(t, Default(), res.Config)
	assert.Len(t, res.Skipped, 2)
}

func TestLoad_Defaults(t *testing.T) {
	l := newLayout(t, "", "")

	res := l.load("")
	assert.Equal(t, SourceDefault, res.Source)
	assert.Empty(t, res.Path)
	assert.Equal(t, Default(), res.Config)

	require.Len(t, res.Skipped, 2)
	for _, s := range res.Skipped {
		assert.ErrorIs(t, s.Err, ErrSourceUnavailable)
	}
}

func TestLoad_LogsSources(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newLayout(t, "", docWithFPS(20))

	res := l.load("", WithLogger(zap.New(core)))
	require.Equal(t, SourceUser, res.Source)

	skipped := logs.FilterMessage("configuration source skipped").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "project", skipped[0].ContextMap()["source"])

	resolved := logs.FilterMessage("configuration resolved").All()
	require.Len(t, resolved, 1)
	assert.Equal(t, l.user, resolved[0].ContextMap()["path"])
}

func TestSaveAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", UserFileName)
	cfg := Config{FPS: 75, ColumnWidth: 1, Density: 1.5, Charset: "ｱ#", Green: false}

	require.NoError(t, Save(path, cfg))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	bad := cfg
	bad.Charset = ""
	assert.ErrorIs(t, Save(path, bad), ErrInvalid)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "explicit", SourceExplicit.String())
	assert.Equal(t, "default", SourceDefault.String())
	assert.Equal(t, "Source(9)", Source(9).String())
}
