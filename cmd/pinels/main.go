package main

import (
	"context"
	"os"
	runtimedebug "runtime/debug"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	checkcmd "github.com/walteh/pinels/cmd/pinels/check"
	completecmd "github.com/walteh/pinels/cmd/pinels/complete"
	serve_lsp "github.com/walteh/pinels/cmd/pinels/serve-lsp"
	symbolscmd "github.com/walteh/pinels/cmd/pinels/symbols"
	tokenscmd "github.com/walteh/pinels/cmd/pinels/tokens"
	"github.com/walteh/pinels/pkg/debug"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "pinels",
		Short: "PineScript language server and tools",
	}

	info, ok := runtimedebug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	rootCmd.AddCommand(serve_lsp.NewServeLSPCommand())
	rootCmd.AddCommand(tokenscmd.NewTokensCommand())
	rootCmd.AddCommand(completecmd.NewCompleteCommand())
	rootCmd.AddCommand(checkcmd.NewCheckCommand())
	rootCmd.AddCommand(symbolscmd.NewSymbolsCommand())

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	logger := debug.NewConsoleLogger(os.Stderr, debug.Options{
		Level: zerolog.WarnLevel,
		Color: !color.NoColor,
	})
	ctx := logger.WithContext(context.Background())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
