package tokens

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/lexer"
	"github.com/walteh/pinels/pkg/position"
)

type Handler struct {
	fs         afero.Fs
	out        io.Writer
	file       string
	configPath string
	noColor    bool
	raw        bool
}

func NewTokensCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "print the classified tokens of a script",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&me.noColor, "no-color", false, "disable colours")
	cmd.Flags().BoolVar(&me.raw, "raw", false, "print the lexer output before classification, whitespace included")
	cmd.Flags().StringVar(&me.configPath, "config", "", "settings file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.file = args[0]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

var kindColors = map[lexer.Kind]*color.Color{
	lexer.Keyword:       color.New(color.FgMagenta, color.Bold),
	lexer.Namespace:     color.New(color.FgCyan),
	lexer.Function:      color.New(color.FgBlue),
	lexer.Method:        color.New(color.FgBlue),
	lexer.Type:          color.New(color.FgGreen),
	lexer.Enum:          color.New(color.FgGreen),
	lexer.EnumMember:    color.New(color.FgHiGreen),
	lexer.Annotation:    color.New(color.FgYellow),
	lexer.StringLiteral: color.New(color.FgRed),
	lexer.NumberLiteral: color.New(color.FgHiMagenta),
	lexer.ColorLiteral:  color.New(color.FgHiMagenta),
	lexer.Comment:       color.New(color.Faint),
	lexer.Variable:      color.New(color.FgWhite),
	lexer.Constant:      color.New(color.FgHiCyan),
	lexer.Field:         color.New(color.FgHiBlue),
	lexer.Parameter:     color.New(color.Italic),
}

var flagColor = color.New(color.FgHiRed, color.Bold)

func (me *Handler) Run(ctx context.Context) error {
	data, err := afero.ReadFile(me.fs, me.file)
	if err != nil {
		return errors.Errorf("reading %s: %w", me.file, err)
	}
	text := string(data)

	tabWidth, err := position.TabWidth(me.fs, me.file)
	if err != nil {
		return err
	}
	m := position.NewMapper(text)

	if me.raw {
		for _, t := range lexer.Tokenize(text) {
			me.print(m, tabWidth, t)
		}
		return nil
	}

	cfg, err := config.Resolve(ctx, me.fs, me.configPath, filepath.Dir(me.file))
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog(ctx, me.fs)
	if err != nil {
		return errors.Errorf("loading symbol catalog: %w", err)
	}
	doc, err := analysis.AnalyzeWith(ctx, cat, text, cfg.LanguageVersion())
	if err != nil {
		return errors.Errorf("analysing %s: %w", me.file, err)
	}

	for _, t := range doc.Classified {
		if t.Kind == lexer.Whitespace || t.Kind == lexer.EndOfInput {
			continue
		}
		me.print(m, tabWidth, t.Token)
	}
	return nil
}

func (me *Handler) print(m *position.Mapper, tabWidth int, t lexer.Token) {
	kind := t.Kind.String()
	if c, ok := kindColors[t.Kind]; ok && !me.noColor {
		kind = c.Sprint(kind)
	}

	var flags []string
	if t.Flags.Has(lexer.Unterminated) {
		flags = append(flags, "unterminated")
	}
	if t.Flags.Has(lexer.Malformed) {
		flags = append(flags, "malformed")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " " + strings.Join(flags, ",")
		if !me.noColor {
			suffix = flagColor.Sprint(suffix)
		}
	}

	fmt.Fprintf(me.out, "%d:%d\t%s\t%q%s\n",
		m.Line(t.Start)+1, m.DisplayColumn(t.Start, tabWidth), kind, t.Text, suffix)
}
