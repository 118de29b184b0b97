package workspace_test

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/diagnostic"
	"github.com/walteh/pinels/pkg/symbols"
	"github.com/walteh/pinels/pkg/workspace"
)

// brokenFs fails to open one file.
type brokenFs struct {
	afero.Fs
	broken string
}

func (b brokenFs) Open(name string) (afero.File, error) {
	if name == b.broken {
		return nil, os.ErrPermission
	}
	return b.Fs.Open(name)
}

func setup(t *testing.T) (afero.Fs, *symbols.Catalog) {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/ok.pine":          "//@version=6\nx = ta.sma(close, 14)\n",
		"/proj/bad.pine":         "//@version=6\ns = \"open\n",
		"/proj/old/legacy.pine":  "//@version=5\nm = matrix.new<float>()\n",
		"/proj/vendor/skip.pine": "s = \"broken\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	cat, err := symbols.LoadDefault(context.Background())
	require.NoError(t, err)
	return fs, cat
}

func TestCheck(t *testing.T) {
	fs, cat := setup(t)
	cfg := &config.Config{Exclude: []string{"vendor/**"}}

	report, err := workspace.NewChecker(fs, cat, cfg).WithConcurrency(2).Check(context.Background(), "/proj")
	require.NoError(t, err)

	paths := make([]string, len(report.Files))
	for i, f := range report.Files {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{"/proj/bad.pine", "/proj/ok.pine", "/proj/old/legacy.pine"}, paths)

	assert.Equal(t, 1, report.Count(diagnostic.SeverityError))
	assert.Equal(t, 1, report.Count(diagnostic.SeverityWarning))
	assert.Empty(t, report.Files[1].Diagnostics)
	assert.Equal(t, symbols.V5, report.Files[2].Document.Version)
}

func TestCheckDeduplicatesPaths(t *testing.T) {
	fs, cat := setup(t)

	report, err := workspace.NewChecker(fs, cat, config.Default()).Check(context.Background(), "/proj/old", "/proj/old/legacy.pine")
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, "/proj/old/legacy.pine", report.Files[0].Path)
}

func TestCheckReportsUnreadableFiles(t *testing.T) {
	fs, cat := setup(t)
	broken := brokenFs{Fs: fs, broken: "/proj/bad.pine"}

	report, err := workspace.NewChecker(broken, cat, config.Default()).Check(context.Background(), "/proj")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "/proj/bad.pine")

	require.NotNil(t, report, "readable files are still reported")
	assert.Len(t, report.Files, 3)
}

func TestCheckFallbackVersion(t *testing.T) {
	fs, cat := setup(t)
	cfg := &config.Config{Version: 5, Include: []string{"vendor/*.pine"}}

	report, err := workspace.NewChecker(fs, cat, cfg).Check(context.Background(), "/proj")
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, symbols.V5, report.Files[0].Document.Version)
}

func TestCheckMissingPath(t *testing.T) {
	fs, cat := setup(t)

	_, err := workspace.NewChecker(fs, cat, config.Default()).Check(context.Background(), "/missing")
	require.Error(t, err)
}
