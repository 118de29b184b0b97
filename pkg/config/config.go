// Package config loads the project settings file. The same settings can be
// written as YAML, HCL or TOML:
//
//	# .pinels.hcl
//	version  = latest_version
//	include  = ["**/*.pine"]
//	catalogs = ["catalog/extra.yaml"]
//
//	diagnostics {
//	  missing_version = false
//	  disabled        = ["version-unavailable"]
//	}
//
//	completion {
//	  keywords = true
//	  limit    = 50
//	}
package config

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/walteh/pinels/pkg/completion"
	"github.com/walteh/pinels/pkg/diagnostic"
	"github.com/walteh/pinels/pkg/symbols"
)

// FileNames are the settings files looked up in every directory, in order.
var FileNames = []string{".pinels.yaml", ".pinels.yml", ".pinels.hcl", ".pinels.toml"}

// DefaultInclude selects the files checked when Include is empty.
var DefaultInclude = []string{"**/*.pine", "**/*.pinescript"}

// Config is the project settings file.
type Config struct {
	// Version is used for scripts without a //@version directive. Zero means
	// the latest version.
	Version  int      `yaml:"version,omitempty" hcl:"version,optional" toml:"version"`
	Include  []string `yaml:"include,omitempty" hcl:"include,optional" toml:"include"`
	Exclude  []string `yaml:"exclude,omitempty" hcl:"exclude,optional" toml:"exclude"`
	Catalogs []string `yaml:"catalogs,omitempty" hcl:"catalogs,optional" toml:"catalogs"`

	Diagnostics *DiagnosticsBlock `yaml:"diagnostics,omitempty" hcl:"diagnostics,block" toml:"diagnostics"`
	Completion  *CompletionBlock  `yaml:"completion,omitempty" hcl:"completion,block" toml:"completion"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

type DiagnosticsBlock struct {
	MissingVersion *bool    `yaml:"missing_version,omitempty" hcl:"missing_version,optional" toml:"missing_version"`
	Disabled       []string `yaml:"disabled,omitempty" hcl:"disabled,optional" toml:"disabled"`
}

type CompletionBlock struct {
	Keywords *bool `yaml:"keywords,omitempty" hcl:"keywords,optional" toml:"keywords"`
	Limit    int   `yaml:"limit,omitempty" hcl:"limit,optional" toml:"limit"`
}

func Default() *Config {
	return &Config{}
}

// Find looks for a settings file in dir and its parents.
func Find(fs afero.Fs, dir string) (string, bool, error) {
	dir = filepath.Clean(dir)
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			ok, err := afero.Exists(fs, candidate)
			if err != nil {
				return "", false, errors.Errorf("checking %s: %w", candidate, err)
			}
			if ok {
				return candidate, true, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the settings file governing dir, or the defaults when
// there is none.
func Discover(ctx context.Context, fs afero.Fs, dir string) (*Config, error) {
	path, ok, err := Find(fs, dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file, using defaults")
		return Default(), nil
	}
	return Load(ctx, fs, path)
}

// Resolve loads path when it is set and otherwise discovers the settings
// governing dir.
func Resolve(ctx context.Context, fs afero.Fs, path, dir string) (*Config, error) {
	if path != "" {
		return Load(ctx, fs, path)
	}
	return Discover(ctx, fs, dir)
}

// Load reads a settings file, choosing the format from its extension.
func Load(ctx context.Context, fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	case ".hcl":
		cfg, err = parseHCL(data, path)
	case ".toml":
		cfg, err = parseTOML(data)
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, errors.Errorf("loading %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating %s: %w", path, err)
	}

	cfg.Path = path
	cfg.resolveCatalogs(filepath.Dir(path))

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Int("version", cfg.Version).
		Strs("catalogs", cfg.Catalogs).
		Msg("loaded config")

	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

func parseHCL(data []byte, path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	versions := make([]cty.Value, len(symbols.SupportedVersions))
	for i, v := range symbols.SupportedVersions {
		versions[i] = cty.NumberIntVal(int64(v))
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"latest_version":     cty.NumberIntVal(int64(symbols.Latest)),
			"supported_versions": cty.ListVal(versions),
		},
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}

func parseTOML(data []byte) (*Config, error) {
	var cfg Config
	meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	if err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("parsing TOML: unknown keys %s", strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	if c.Version != 0 && !symbols.Version(c.Version).Supported() {
		err = multierr.Append(err, errors.Errorf("unsupported version %d", c.Version))
	}
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			err = multierr.Append(err, errors.Errorf("invalid glob pattern %q", p))
		}
	}
	if c.Completion != nil && c.Completion.Limit < 0 {
		err = multierr.Append(err, errors.Errorf("completion limit must not be negative, got %d", c.Completion.Limit))
	}
	if c.Diagnostics != nil {
		for _, code := range c.Diagnostics.Disabled {
			if !knownCode(code) {
				err = multierr.Append(err, errors.Errorf("unknown diagnostic code %q", code))
			}
		}
	}
	return err
}

func knownCode(code string) bool {
	switch code {
	case diagnostic.CodeUnterminatedString, diagnostic.CodeUnterminatedComment,
		diagnostic.CodeUnexpectedCharacter, diagnostic.CodeMalformedNumber,
		diagnostic.CodeInvalidColor, diagnostic.CodeMissingVersion,
		diagnostic.CodeUnsupportedVersion, diagnostic.CodeVersionUnavailable:
		return true
	}
	return false
}

// catalog paths are relative to the settings file
func (c *Config) resolveCatalogs(base string) {
	for i, p := range c.Catalogs {
		if !filepath.IsAbs(p) {
			c.Catalogs[i] = filepath.Join(base, p)
		}
	}
}

// LanguageVersion is the version assumed for scripts without a directive.
func (c *Config) LanguageVersion() symbols.Version {
	if c.Version == 0 {
		return symbols.Latest
	}
	return symbols.Version(c.Version)
}

func (c *Config) Patterns() (include, exclude []string) {
	include = c.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	return include, c.Exclude
}

func (c *Config) DiagnosticOptions() diagnostic.Options {
	opts := diagnostic.DefaultOptions()
	if c.Diagnostics == nil {
		return opts
	}
	if c.Diagnostics.MissingVersion != nil {
		opts.MissingVersion = *c.Diagnostics.MissingVersion
	}
	opts.Disabled = c.Diagnostics.Disabled
	return opts
}

func (c *Config) CompletionOptions() completion.Options {
	opts := completion.DefaultOptions()
	if c.Completion == nil {
		return opts
	}
	if c.Completion.Keywords != nil {
		opts.Keywords = *c.Completion.Keywords
	}
	opts.Limit = c.Completion.Limit
	return opts
}

// Catalog loads the embedded catalog plus the configured extra catalogs.
func (c *Config) Catalog(ctx context.Context, fs afero.Fs) (*symbols.Catalog, error) {
	if len(c.Catalogs) == 0 {
		return symbols.LoadDefault(ctx)
	}
	return symbols.LoadFiles(ctx, fs, c.Catalogs...)
}
