package protocol

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// MultiRPCLogger fans jrpc2 request and response logs out to several loggers.
type MultiRPCLogger struct {
	mu      sync.Mutex
	loggers []jrpc2.RPCLogger
}

var _ jrpc2.RPCLogger = (*MultiRPCLogger)(nil)

func NewMultiRPCLogger(loggers ...jrpc2.RPCLogger) *MultiRPCLogger {
	return &MultiRPCLogger{loggers: loggers}
}

func (m *MultiRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogRequest(ctx, req)
	}
}

func (m *MultiRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogResponse(ctx, resp)
	}
}

func (m *MultiRPCLogger) AddLogger(logger jrpc2.RPCLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggers = append(m.loggers, logger)
}

// ZerologRPCLogger writes every request and response to Logger. It does not
// use the request context logger, which may itself write to the connection.
type ZerologRPCLogger struct {
	Logger zerolog.Logger
}

func (l ZerologRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	l.Logger.Debug().
		Str("rpc_id", req.ID()).
		Str("rpc_method", req.Method()).
		Str("rpc_params", req.ParamString()).
		Msg("client request")
}

func (l ZerologRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	ev := l.Logger.Debug().Str("rpc_id", resp.ID())
	if err := resp.Error(); err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("server response")
}

// myLoggerId tags entries produced by the server's own logger so the client
// can tell them from dependency output.
var myLoggerId = xid.New().String()

// ApplyServerInstanceToZerolog replaces the context logger with one that
// forwards every entry to the client as window/logMessage, keeping the
// current level.
func ApplyServerInstanceToZerolog(ctx context.Context, client Client) context.Context {
	writer := &logWriter{
		client: client,
		ctx:    ctx,
	}

	level := zerolog.Ctx(ctx).GetLevel()

	return zerolog.New(writer).With().
		Timestamp().
		Caller().
		Str("id", myLoggerId).
		Str("lsp_role", "server").
		Logger().
		Level(level).
		WithContext(ctx)
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Logger().WithContext(ctx)
}

type logWriter struct {
	client Client
	mu     sync.Mutex
	ctx    context.Context
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var logEntry map[string]any
	if err := json.Unmarshal(p, &logEntry); err != nil {
		return len(p), nil
	}

	level := ParseMessageTypeFromZerolog(extractField(logEntry, "level", "info"))
	msg := extractField(logEntry, "message", "")
	id := extractField(logEntry, "id", "")
	time := extractField(logEntry, "time", "")
	source := extractField(logEntry, "caller", "")

	notification := &ExtendedLogMessageParams{
		Type:         level,
		Message:      msg,
		Extra:        logEntry,
		Time:         time,
		Source:       source,
		IsDependency: id != myLoggerId,
	}

	if w.client != nil {
		err = w.client.LogMessage(w.ctx, notification)
	}

	return len(p), err
}

// extractField removes key from entry and returns its string value.
func extractField(entry map[string]any, key, defaultValue string) string {
	if v, ok := entry[key].(string); ok {
		delete(entry, key)
		return v
	}
	return defaultValue
}

// ParseMessageTypeFromZerolog converts a zerolog level to an LSP MessageType.
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "error", "fatal", "panic":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}
