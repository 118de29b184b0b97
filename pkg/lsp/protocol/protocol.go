package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// Server is the set of requests and notifications pinels answers.
type Server interface {
	Initialize(context.Context, *InitializeParams) (*InitializeResult, error)
	Initialized(context.Context, *InitializedParams) error
	Shutdown(context.Context) error
	Exit(context.Context) error

	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	DidSave(context.Context, *DidSaveTextDocumentParams) error
	DidClose(context.Context, *DidCloseTextDocumentParams) error

	Completion(context.Context, *CompletionParams) (*CompletionList, error)
	Hover(context.Context, *HoverParams) (*Hover, error)
	SignatureHelp(context.Context, *SignatureHelpParams) (*SignatureHelp, error)
	SemanticTokensFull(context.Context, *SemanticTokensParams) (*SemanticTokens, error)
	InlayHint(context.Context, *InlayHintParams) ([]InlayHint, error)
	DocumentSymbol(context.Context, *DocumentSymbolParams) ([]DocumentSymbol, error)
}

// Client is what the server pushes back over the connection.
type Client interface {
	PublishDiagnostics(context.Context, *PublishDiagnosticsParams) error
	LogMessage(context.Context, *ExtendedLogMessageParams) error
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		"initialize":                       createHandler(server.Initialize),
		"initialized":                      createEmptyResultHandler(server.Initialized),
		"shutdown":                         createEmptyHandler(server.Shutdown),
		"exit":                             createEmptyHandler(server.Exit),
		"textDocument/didOpen":             createEmptyResultHandler(server.DidOpen),
		"textDocument/didChange":           createEmptyResultHandler(server.DidChange),
		"textDocument/didSave":             createEmptyResultHandler(server.DidSave),
		"textDocument/didClose":            createEmptyResultHandler(server.DidClose),
		"textDocument/completion":          createHandler(server.Completion),
		"textDocument/hover":               createHandler(server.Hover),
		"textDocument/signatureHelp":       createHandler(server.SignatureHelp),
		"textDocument/semanticTokens/full": createHandler(server.SemanticTokensFull),
		"textDocument/inlayHint":           createHandler(server.InlayHint),
		"textDocument/documentSymbol":      createHandler(server.DocumentSymbol),
		"$/cancelRequest":                  handler.New(ignore),
		"$/setTrace":                       handler.New(ignore),
	}
}

func ignore(context.Context, *jrpc2.Request) (any, error) {
	return nil, nil
}

// CallbackClient sends server initiated notifications through a running
// jrpc2 server.
type CallbackClient struct {
	server *jrpc2.Server
}

var _ Client = (*CallbackClient)(nil)

func NewCallbackClient(server *jrpc2.Server) *CallbackClient {
	return &CallbackClient{server: server}
}

func (c *CallbackClient) PublishDiagnostics(ctx context.Context, params *PublishDiagnosticsParams) error {
	return c.server.Notify(ctx, "textDocument/publishDiagnostics", params)
}

func (c *CallbackClient) LogMessage(ctx context.Context, params *ExtendedLogMessageParams) error {
	return c.server.Notify(ctx, "window/logMessage", params)
}

// NewServerServer builds a jrpc2 server dispatching to server. Push is always
// enabled so the returned client can notify the editor; once it exists every
// request context logs through it.
func NewServerServer(ctx context.Context, server Server, opts *jrpc2.ServerOptions) (*jrpc2.Server, *CallbackClient) {
	methods := buildServerDispatchMap(server)
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	opts.AllowPush = true

	var callback *CallbackClient

	opts.NewContext = func() context.Context {
		if callback == nil {
			return ctx
		}
		return ApplyServerInstanceToZerolog(ctx, callback)
	}

	result := jrpc2.NewServer(methods, opts)

	callback = NewCallbackClient(result)

	return result, callback
}
