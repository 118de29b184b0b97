package symbols

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/symbols"
)

type Handler struct {
	fs         afero.Fs
	out        io.Writer
	dir        string
	configPath string
	version    int
	namespace  string
}

func NewSymbolsCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs(), dir: "."}

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "list the built-in symbols of a language version",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().IntVar(&me.version, "version", 0, "language version; defaults to the configured one")
	cmd.Flags().StringVar(&me.namespace, "namespace", "", "list the members of this namespace instead of the globals")
	cmd.Flags().StringVar(&me.configPath, "config", "", "settings file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	cfg, err := config.Resolve(ctx, me.fs, me.configPath, me.dir)
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog(ctx, me.fs)
	if err != nil {
		return errors.Errorf("loading symbol catalog: %w", err)
	}

	version := cfg.LanguageVersion()
	if me.version != 0 {
		version = symbols.Version(me.version)
		if !version.Supported() {
			return errors.Errorf("unsupported version %d, expected one of %v", me.version, symbols.SupportedVersions)
		}
	}
	table := cat.Table(version)

	if me.namespace != "" {
		if !table.IsNamespace(me.namespace) {
			return errors.Errorf("no namespace %q in %s", me.namespace, version)
		}
		me.printNamespace(table, me.namespace)
		return nil
	}

	for _, ns := range table.Roots() {
		fmt.Fprintf(me.out, "namespace %s\n", ns.Path)
	}
	for _, e := range table.Globals() {
		fmt.Fprintln(me.out, e.Detail())
	}
	for _, e := range table.Keywords() {
		fmt.Fprintf(me.out, "keyword %s\n", e.Name)
	}
	for _, e := range table.Annotations() {
		fmt.Fprintf(me.out, "annotation %s\n", e.Name)
	}
	return nil
}

func (me *Handler) printNamespace(table *symbols.Table, ns string) {
	for _, sub := range table.SubNamespaces(ns) {
		fmt.Fprintf(me.out, "namespace %s\n", sub.Path)
	}
	for _, e := range table.Members(ns) {
		fmt.Fprintln(me.out, e.Detail())
	}
}
