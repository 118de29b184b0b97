package complete

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/completion"
	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/position"
)

type Handler struct {
	fs         afero.Fs
	out        io.Writer
	file       string
	configPath string
	offset     int
	line       int
	col        int
	json       bool
}

func NewCompleteCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs(), offset: -1}

	cmd := &cobra.Command{
		Use:   "complete FILE (--offset N | --line L --col C)",
		Short: "list the completion candidates at a position in a script",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().IntVar(&me.offset, "offset", -1, "byte offset of the cursor")
	cmd.Flags().IntVar(&me.line, "line", 0, "one-based line of the cursor")
	cmd.Flags().IntVar(&me.col, "col", 0, "one-based column of the cursor, in UTF-16 code units")
	cmd.Flags().BoolVar(&me.json, "json", false, "print the candidates as JSON")
	cmd.Flags().StringVar(&me.configPath, "config", "", "settings file")

	cmd.MarkFlagsMutuallyExclusive("offset", "line")
	cmd.MarkFlagsMutuallyExclusive("offset", "col")
	cmd.MarkFlagsRequiredTogether("line", "col")
	cmd.MarkFlagsOneRequired("offset", "line")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.file = args[0]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

type jsonCandidate struct {
	Label         string `json:"label"`
	Insert        string `json:"insert"`
	Kind          string `json:"kind"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	Source        string `json:"source"`
}

func (me *Handler) Run(ctx context.Context) error {
	data, err := afero.ReadFile(me.fs, me.file)
	if err != nil {
		return errors.Errorf("reading %s: %w", me.file, err)
	}
	text := string(data)

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

	offset := me.offset
	if offset < 0 {
		if me.line < 1 || me.col < 1 {
			return errors.Errorf("line and column are one-based, got %d:%d", me.line, me.col)
		}
		offset = position.NewMapper(text).Offset(position.Place{Line: me.line - 1, Character: me.col - 1})
	}

	_, candidates := completion.ResolveContext(doc, offset, cfg.CompletionOptions())

	if me.json {
		out := make([]jsonCandidate, len(candidates))
		for i, c := range candidates {
			out[i] = jsonCandidate{
				Label:         c.DisplayText,
				Insert:        c.InsertText,
				Kind:          c.Kind.String(),
				Detail:        c.Detail,
				Documentation: c.Documentation,
				Source:        c.Source.String(),
			}
		}
		enc := json.NewEncoder(me.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, c := range candidates {
		fmt.Fprintf(me.out, "%s\t%s\t%s\n", c.DisplayText, c.Kind, c.Detail)
	}
	return nil
}
