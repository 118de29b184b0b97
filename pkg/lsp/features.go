package lsp

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/completion"
	"github.com/walteh/pinels/pkg/hover"
	"github.com/walteh/pinels/pkg/inlay"
	"github.com/walteh/pinels/pkg/lsp/protocol"
	"github.com/walteh/pinels/pkg/semtok"
	"github.com/walteh/pinels/pkg/signature"
)

// snapshot resolves uri to its open document and analysis.
func (s *Server) snapshot(ctx context.Context, uri protocol.DocumentURI) (*Document, *analysis.Document, error) {
	if s.shutdown.Load() {
		return nil, nil, errShuttingDown
	}
	doc, ok := s.documents.Get(uri)
	if !ok {
		zerolog.Ctx(ctx).Error().Str("uri", string(uri)).Msg("document not found")
		return nil, nil, errors.Errorf("document not found: %s", uri)
	}
	st := s.current()
	adoc, err := doc.Analysis(ctx, st.catalog, st.cfg.LanguageVersion())
	if err != nil {
		return nil, nil, errors.Errorf("analysing %s: %w", uri, err)
	}
	return doc, adoc, nil
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, adoc, err := s.snapshot(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	m := doc.Mapper()
	offset := m.Offset(toPlace(params.Position))
	opts := s.current().cfg.CompletionOptions()
	cctx, cands := completion.ResolveContext(adoc, offset, opts)

	zerolog.Ctx(ctx).Debug().
		Int("offset", offset).
		Stringer("position_kind", cctx.PositionKind).
		Str("prefix", cctx.Prefix).
		Int("candidates", len(cands)).
		Msg("completion")

	list := &protocol.CompletionList{
		IsIncomplete: opts.Limit > 0 && len(cands) >= opts.Limit,
		Items:        make([]protocol.CompletionItem, len(cands)),
	}
	for i, c := range cands {
		list.Items[i] = toCompletionItem(m, cctx, c)
	}
	return list, nil
}

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, adoc, err := s.snapshot(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	m := doc.Mapper()
	info := hover.At(ctx, adoc, m.Offset(toPlace(params.Position)))
	if info == nil {
		return nil, nil
	}

	rng := toRange(m, info.Position.Offset, info.Position.End())
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: strings.Join(info.Content, "\n\n"),
		},
		Range: &rng,
	}, nil
}

func (s *Server) SignatureHelp(ctx context.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	doc, adoc, err := s.snapshot(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	help := signature.At(ctx, adoc, doc.Mapper().Offset(toPlace(params.Position)))
	if help == nil {
		return nil, nil
	}

	out := &protocol.SignatureHelp{
		Signatures:      make([]protocol.SignatureInformation, len(help.Signatures)),
		ActiveSignature: uint32(help.ActiveSignature),
		ActiveParameter: uint32(help.ActiveParameter),
	}
	for i, sig := range help.Signatures {
		info := protocol.SignatureInformation{
			Label:         sig.Label,
			Documentation: markdown(sig.Doc),
			Parameters:    make([]protocol.ParameterInformation, len(sig.Params)),
		}
		for j, p := range sig.Params {
			info.Parameters[j] = protocol.ParameterInformation{Label: p.Label, Documentation: markdown(p.Doc)}
		}
		out.Signatures[i] = info
	}
	return out, nil
}

func (s *Server) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc, adoc, err := s.snapshot(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tokens := semtok.FromClassified(adoc)
	data := semtok.Encode(tokens, doc.Mapper())

	zerolog.Ctx(ctx).Debug().Int("token_count", len(tokens)).Int("data_length", len(data)).Msg("generated semantic tokens")

	return &protocol.SemanticTokens{
		ResultID: uuid.NewString(),
		Data:     protocol.NonNilSlice(data),
	}, nil
}

func (s *Server) InlayHint(ctx context.Context, params *protocol.InlayHintParams) ([]protocol.InlayHint, error) {
	doc, adoc, err := s.snapshot(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	m := doc.Mapper()
	start, end := m.Offset(toPlace(params.Range.Start)), m.Offset(toPlace(params.Range.End))

	out := []protocol.InlayHint{}
	for _, h := range inlay.Hints(adoc) {
		if h.Offset < start || h.Offset > end {
			continue
		}
		out = append(out, protocol.InlayHint{
			Position:     fromPlace(m.Place(h.Offset)),
			Label:        h.Label,
			Kind:         protocol.ParameterHint,
			PaddingRight: true,
		})
	}
	return out, nil
}

func (s *Server) DocumentSymbol(ctx context.Context, params *protocol.DocumentSymbolParams) ([]protocol.DocumentSymbol, error) {
	doc, adoc, err := s.snapshot(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	m := doc.Mapper()
	out := []protocol.DocumentSymbol{}
	for _, d := range adoc.Decls.All() {
		out = append(out, toDocumentSymbol(m, d))
	}
	return out, nil
}
