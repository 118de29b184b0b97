// Package debug builds the console logger used by the command line tools.
package debug

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

type Options struct {
	Level zerolog.Level
	// Color enables ANSI colours in the output.
	Color bool
	// Caller adds the package, file and line of each log call.
	Caller bool
}

// NewConsoleLogger writes human readable log lines to w.
func NewConsoleLogger(w io.Writer, opts Options) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !opts.Color,
		TimeFormat: "15:04:05.000",
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"caller",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"caller"},
	}

	logger := zerolog.New(console).Level(opts.Level).With().Timestamp().Logger()
	if opts.Caller {
		logger = logger.Hook(CallerHook{WithColor: opts.Color})
	}
	return logger
}

// CallerHook records the first frame outside zerolog.
type CallerHook struct {
	WithColor bool
}

func (c CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		pkg, _ := SplitFuncName(frame.Function)
		if !strings.HasPrefix(pkg, "github.com/rs/zerolog") {
			e.Str("caller", FormatCaller(pkg, frame.File, frame.Line, c.WithColor))
			return
		}
		if !more {
			return
		}
	}
}

// SplitFuncName splits a runtime function name such as
// "github.com/walteh/pinels/pkg/lsp.(*Server).hover" into its package path
// and the rest.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := max(strings.LastIndexByte(name, '/'), 0)
	dot := strings.IndexByte(name[lastSlash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += lastSlash
	return name[:dot], name[dot+1:]
}

// FormatCaller renders pkg:file:line, with a bold file and red line when
// colorize is set.
func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := filepath.Base(path)
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, line)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep +
		color.New(color.Bold).Sprint(file) + sep +
		color.New(color.FgHiRed, color.Bold).Sprintf("%d", line)
}
