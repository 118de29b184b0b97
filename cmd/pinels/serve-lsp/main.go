package serve_lsp

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/debug"
	"github.com/walteh/pinels/pkg/lsp"
	"github.com/walteh/pinels/pkg/lsp/protocol"
	"github.com/walteh/pinels/pkg/symbols"
)

type Handler struct {
	debug      bool
	configPath string
}

func NewServeLSPCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdin and stdout",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&me.configPath, "config", "", "settings file; by default it is looked up from the workspace root")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	level := zerolog.InfoLevel
	if me.debug {
		level = zerolog.DebugLevel
	}
	// stdout carries the protocol, so logs only ever go to stderr
	logger := debug.NewConsoleLogger(os.Stderr, debug.Options{Level: level, Caller: me.debug})
	ctx = logger.WithContext(ctx)

	server, err := me.buildServer(ctx, afero.NewOsFs())
	if err != nil {
		return err
	}

	opts := &jrpc2.ServerOptions{
		RPCLog:      protocol.NewMultiRPCLogger(protocol.ZerologRPCLogger{Logger: logger}),
		Concurrency: 1,
	}

	if err := server.Serve(ctx, os.Stdin, os.Stdout, opts); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	return nil
}

func (me *Handler) buildServer(ctx context.Context, fs afero.Fs) (*lsp.Server, error) {
	if me.configPath == "" {
		cat, err := symbols.LoadDefault(ctx)
		if err != nil {
			return nil, errors.Errorf("loading symbol catalog: %w", err)
		}
		return lsp.NewServer(fs, cat, config.Default()).WithConfigDiscovery(), nil
	}

	cfg, err := config.Load(ctx, fs, me.configPath)
	if err != nil {
		return nil, err
	}
	cat, err := cfg.Catalog(ctx, fs)
	if err != nil {
		return nil, errors.Errorf("loading symbol catalog: %w", err)
	}
	return lsp.NewServer(fs, cat, cfg), nil
}
