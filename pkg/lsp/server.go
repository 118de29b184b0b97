package lsp

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/pinels/pkg/config"
	"github.com/walteh/pinels/pkg/diagnostic"
	"github.com/walteh/pinels/pkg/lsp/protocol"
	"github.com/walteh/pinels/pkg/semtok"
	"github.com/walteh/pinels/pkg/symbols"
)

var errShuttingDown = &jrpc2.Error{Code: -32600, Message: "server is shutting down"}

// settings is swapped wholesale when the workspace configuration is loaded.
type settings struct {
	cfg         *config.Config
	catalog     *symbols.Catalog
	diagnostics *diagnostic.Generator
}

func newSettings(cat *symbols.Catalog, cfg *config.Config) *settings {
	return &settings{
		cfg:         cfg,
		catalog:     cat,
		diagnostics: diagnostic.NewGenerator(cat, cfg.DiagnosticOptions()),
	}
}

// Server represents an LSP server instance
type Server struct {
	fs        afero.Fs
	documents *DocumentManager

	mu       sync.RWMutex
	settings *settings
	// discover loads the settings file of the workspace on initialize.
	discover  bool
	workspace string

	initialized atomic.Bool
	shutdown    atomic.Bool

	id string

	callbackClient protocol.Client
	instance       *jrpc2.Server
}

var _ protocol.Server = (*Server)(nil)

func NewServer(fs afero.Fs, cat *symbols.Catalog, cfg *config.Config) *Server {
	return &Server{
		fs:        fs,
		id:        xid.New().String(),
		documents: NewDocumentManager(),
		settings:  newSettings(cat, cfg),
	}
}

// WithConfigDiscovery makes initialize look for a settings file above the
// workspace root and replace the current configuration with it.
func (s *Server) WithConfigDiscovery() *Server {
	s.discover = true
	return s
}

func (s *Server) SetCallbackClient(client protocol.Client) {
	s.callbackClient = client
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

func (s *Server) current() *settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Serve answers requests read from r until the client exits or the
// connection closes.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.WriteCloser, opts *jrpc2.ServerOptions) error {
	srv, callback := protocol.NewServerServer(ctx, s, opts)
	s.instance = srv
	s.SetCallbackClient(callback)

	zerolog.Ctx(ctx).Info().Str("server_id", s.id).Msg("language server starting")

	status := srv.Start(channel.LSP(r, w)).WaitStatus()
	if !status.Success() {
		return errors.Errorf("serving language server: %w", status.Err)
	}
	return nil
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("root", string(params.RootURI)).Msg("initializing server")

	if params.ClientInfo != nil {
		logger.Info().Str("client", params.ClientInfo.Name).Str("client_version", params.ClientInfo.Version).Msg("client connected")
	}

	if params.RootURI != "" {
		s.workspace = normalizeURI(params.RootURI)
		if s.discover {
			if err := s.loadWorkspaceSettings(ctx); err != nil {
				return nil, err
			}
		}
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.Incremental,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", "@", "("},
			},
			HoverProvider: true,
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters:   []string{"(", ","},
				RetriggerCharacters: []string{"="},
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     semtok.TokenTypes,
					TokenModifiers: semtok.TokenModifiers,
				},
				Full: true,
			},
			InlayHintProvider:      true,
			DocumentSymbolProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{Name: "pinels"},
	}, nil
}

func (s *Server) loadWorkspaceSettings(ctx context.Context) error {
	cfg, err := config.Discover(ctx, s.fs, s.workspace)
	if err != nil {
		return errors.Errorf("loading workspace config: %w", err)
	}
	cat, err := cfg.Catalog(ctx, s.fs)
	if err != nil {
		return errors.Errorf("loading symbol catalog: %w", err)
	}

	s.mu.Lock()
	s.settings = newSettings(cat, cfg)
	s.mu.Unlock()

	zerolog.Ctx(ctx).Info().
		Str("workspace", s.workspace).
		Str("config", cfg.Path).
		Stringer("language_version", cfg.LanguageVersion()).
		Msg("workspace settings loaded")
	return nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s.initialized.Store(true)
	zerolog.Ctx(ctx).Debug().Msg("client initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	zerolog.Ctx(ctx).Info().Int("open_documents", s.documents.Len()).Msg("shutting down")
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	if s.instance != nil {
		// Stop waits for running handlers, this one included.
		go s.instance.Stop()
	}
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	zerolog.Ctx(ctx).Debug().Str("uri", string(item.URI)).Int32("version", item.Version).Msg("document opened")

	doc := NewDocument(item.URI, item.Version, item.Text)
	s.documents.Store(doc)
	return s.publishDiagnostics(ctx, doc)
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("uri", string(params.TextDocument.URI)).
		Int("changes", len(params.ContentChanges)).
		Msg("document changed")

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}

	doc = doc.Apply(params.TextDocument.Version, params.ContentChanges)
	s.documents.Store(doc)
	return s.publishDiagnostics(ctx, doc)
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not found: %s", params.TextDocument.URI)
	}
	if params.Text != nil && *params.Text != doc.Content {
		doc = NewDocument(doc.URI, doc.Version, *params.Text)
		s.documents.Store(doc)
	}
	return s.publishDiagnostics(ctx, doc)
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document closed")
	s.documents.Delete(params.TextDocument.URI)
	return s.notifyDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (s *Server) publishDiagnostics(ctx context.Context, doc *Document) error {
	st := s.current()
	adoc, err := doc.Analysis(ctx, st.catalog, st.cfg.LanguageVersion())
	if err != nil {
		return errors.Errorf("analysing %s: %w", doc.URI, err)
	}

	diags := st.diagnostics.Generate(ctx, adoc)
	m := doc.Mapper()
	params := &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     doc.Version,
		Diagnostics: make([]protocol.Diagnostic, len(diags)),
	}
	for i, d := range diags {
		params.Diagnostics[i] = toDiagnostic(m, d)
	}

	zerolog.Ctx(ctx).Debug().Str("uri", string(doc.URI)).Int("count", len(diags)).Msg("publishing diagnostics")

	return s.notifyDiagnostics(ctx, params)
}

func (s *Server) notifyDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	if s.callbackClient == nil {
		zerolog.Ctx(ctx).Warn().Msg("no callback client, skipping publish diagnostics")
		return nil
	}
	return s.callbackClient.PublishDiagnostics(ctx, params)
}
