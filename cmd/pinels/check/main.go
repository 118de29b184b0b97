package check

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/diagnostic"
	"github.com/walteh/pinels/pkg/position"
	"github.com/walteh/pinels/pkg/workspace"
)

type Handler struct {
	fs          afero.Fs
	out         io.Writer
	paths       []string
	configPath  string
	concurrency int
	noColor     bool
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "check [PATH...]",
		Short: "report the diagnostics of every script under the given paths",
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "settings file; by default it is looked up from the first path")
	cmd.Flags().IntVar(&me.concurrency, "concurrency", runtime.GOMAXPROCS(0), "files analysed at once")
	cmd.Flags().BoolVar(&me.noColor, "no-color", false, "disable colours")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.paths = args
		if len(me.paths) == 0 {
			me.paths = []string{"."}
		}
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

var severityColors = map[diagnostic.Severity]*color.Color{
	diagnostic.SeverityError:       color.New(color.FgRed, color.Bold),
	diagnostic.SeverityWarning:     color.New(color.FgYellow),
	diagnostic.SeverityInformation: color.New(color.FgBlue),
	diagnostic.SeverityHint:        color.New(color.Faint),
}

func (me *Handler) Run(ctx context.Context) error {
	cfg, err := config.Resolve(ctx, me.fs, me.configPath, me.paths[0])
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog(ctx, me.fs)
	if err != nil {
		return errors.Errorf("loading symbol catalog: %w", err)
	}

	report, readErr := workspace.NewChecker(me.fs, cat, cfg).
		WithConcurrency(me.concurrency).
		Check(ctx, me.paths...)
	if report == nil {
		return readErr
	}
	for _, err := range multierr.Errors(readErr) {
		zerolog.Ctx(ctx).Error().Err(err).Msg("skipping file")
	}

	for _, f := range report.Files {
		if len(f.Diagnostics) == 0 {
			continue
		}
		m := position.NewMapper(f.Document.Text)
		for _, d := range f.Diagnostics {
			p := m.Place(d.Location.Offset)
			sev := d.Severity.String()
			if c, ok := severityColors[d.Severity]; ok && !me.noColor {
				sev = c.Sprint(sev)
			}
			fmt.Fprintf(me.out, "%s:%d:%d: %s: %s [%s]\n", f.Path, p.Line+1, p.Character+1, sev, d.Message, d.Code)
		}
	}

	errs := report.Count(diagnostic.SeverityError)
	fmt.Fprintf(me.out, "%d files checked, %d errors, %d warnings\n",
		len(report.Files), errs, report.Count(diagnostic.SeverityWarning))

	if errs > 0 {
		return errors.Errorf("%d errors found", errs)
	}
	if readErr != nil {
		return errors.Errorf("some files could not be read: %w", readErr)
	}
	return nil
}
