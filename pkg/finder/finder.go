package finder

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// ScriptFinder is responsible for finding PineScript files under a directory
type ScriptFinder interface {
	// FindScripts returns the files under root whose slash-separated path
	// relative to root matches an include pattern and no exclude pattern.
	FindScripts(ctx context.Context, root string, include, exclude []string) ([]string, error)
}

// DefaultFinder walks an afero filesystem.
type DefaultFinder struct {
	fs afero.Fs
}

// NewDefaultFinder creates a new DefaultFinder
func NewDefaultFinder(fs afero.Fs) *DefaultFinder {
	return &DefaultFinder{fs: fs}
}

// FindScripts implements ScriptFinder. Results are sorted.
func (f *DefaultFinder) FindScripts(ctx context.Context, root string, include, exclude []string) ([]string, error) {
	info, err := f.fs.Stat(root)
	if err != nil {
		return nil, errors.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var found []string
	err = afero.Walk(f.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		excluded, err := matchAny(exclude, rel)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if excluded || (info.Name() != "." && info.Name()[0] == '.') {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded {
			return nil
		}

		included, err := matchAny(include, rel)
		if err != nil {
			return err
		}
		if included {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(found)
	zerolog.Ctx(ctx).Debug().Str("root", root).Int("count", len(found)).Msg("found scripts")
	return found, nil
}

func matchAny(patterns []string, rel string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			return false, errors.Errorf("matching %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
