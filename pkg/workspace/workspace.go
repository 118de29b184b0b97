// Package workspace checks every PineScript file of a project.
package workspace

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/diagnostic"
	"github.com/walteh/pinels/pkg/finder"
	"github.com/walteh/pinels/pkg/symbols"
)

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path        string
	Document    *analysis.Document
	Diagnostics []*diagnostic.Diagnostic
}

// Report lists the checked files sorted by path.
type Report struct {
	Files []*FileResult
}

// Count returns the number of diagnostics with severity sev.
func (r *Report) Count(sev diagnostic.Severity) int {
	n := 0
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			if d.Severity == sev {
				n++
			}
		}
	}
	return n
}

type Checker struct {
	fs          afero.Fs
	catalog     *symbols.Catalog
	cfg         *config.Config
	finder      finder.ScriptFinder
	diagnostics *diagnostic.Generator
	concurrency int
}

func NewChecker(fs afero.Fs, cat *symbols.Catalog, cfg *config.Config) *Checker {
	return &Checker{
		fs:          fs,
		catalog:     cat,
		cfg:         cfg,
		finder:      finder.NewDefaultFinder(fs),
		diagnostics: diagnostic.NewGenerator(cat, cfg.DiagnosticOptions()),
		concurrency: runtime.GOMAXPROCS(0),
	}
}

// WithConcurrency bounds the number of files analysed at once.
func (c *Checker) WithConcurrency(n int) *Checker {
	c.concurrency = max(n, 1)
	return c
}

// Check analyses every script found under paths. Files that cannot be read
// are reported in the returned error while the rest are still checked, so
// both results may be non-nil.
func (c *Checker) Check(ctx context.Context, paths ...string) (*Report, error) {
	files, err := c.collect(ctx, paths)
	if err != nil {
		return nil, err
	}

	results := make([]*FileResult, len(files))
	var (
		mu      sync.Mutex
		readErr error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			data, err := afero.ReadFile(c.fs, file)
			if err != nil {
				mu.Lock()
				readErr = multierr.Append(readErr, errors.Errorf("reading %s: %w", file, err))
				mu.Unlock()
				return nil
			}
			doc, err := analysis.AnalyzeWith(ctx, c.catalog, string(data), c.cfg.LanguageVersion())
			if err != nil {
				return errors.Errorf("analysing %s: %w", file, err)
			}
			results[i] = &FileResult{
				Path:        file,
				Document:    doc,
				Diagnostics: c.diagnostics.Generate(ctx, doc),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, r := range results {
		if r != nil {
			report.Files = append(report.Files, r)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Int("files", len(report.Files)).
		Int("errors", report.Count(diagnostic.SeverityError)).
		Msg("workspace checked")

	return report, readErr
}

// collect expands paths into a sorted, duplicate free file list.
func (c *Checker) collect(ctx context.Context, paths []string) ([]string, error) {
	include, exclude := c.cfg.Patterns()
	seen := map[string]bool{}
	var files []string
	for _, p := range paths {
		found, err := c.finder.FindScripts(ctx, p, include, exclude)
		if err != nil {
			return nil, errors.Errorf("finding scripts in %s: %w", p, err)
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
