package lsp

import (
	"context"
	"strings"
	"sync"

	"github.com/walteh/pinels/pkg/analysis"
	"github.com/walteh/pinels/pkg/lsp/protocol"
	"github.com/walteh/pinels/pkg/position"
	"github.com/walteh/pinels/pkg/symbols"
)

// normalizeURI removes the file:// prefix so the same file opened through
// different spellings maps to one entry.
func normalizeURI(uri protocol.DocumentURI) string {
	s := strings.TrimPrefix(string(uri), "file://")
	return strings.TrimPrefix(s, "file:")
}

// Document is one open text. Its content never changes; an edit stores a new
// Document, which drops the cached analysis with it.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string

	mu       sync.Mutex
	analysis *analysis.Document
	mapper   *position.Mapper
}

func NewDocument(uri protocol.DocumentURI, version int32, content string) *Document {
	return &Document{URI: uri, Version: version, Content: content}
}

// Mapper converts between offsets and LSP positions of the content.
func (d *Document) Mapper() *position.Mapper {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mapper == nil {
		d.mapper = position.NewMapper(d.Content)
	}
	return d.mapper
}

// Analysis returns the cached snapshot, building it on first use. A cancelled
// build is not cached.
func (d *Document) Analysis(ctx context.Context, cat *symbols.Catalog, fallback symbols.Version) (*analysis.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.analysis != nil {
		return d.analysis, nil
	}
	doc, err := analysis.AnalyzeWith(ctx, cat, d.Content, fallback)
	if err != nil {
		return nil, err
	}
	d.analysis = doc
	return doc, nil
}

// Apply returns a new document with the changes applied in order.
func (d *Document) Apply(version int32, changes []protocol.TextDocumentContentChangeEvent) *Document {
	content := d.Content
	for _, change := range changes {
		if change.Range == nil {
			content = change.Text
			continue
		}
		m := position.NewMapper(content)
		start := m.Offset(toPlace(change.Range.Start))
		end := m.Offset(toPlace(change.Range.End))
		if end < start {
			start, end = end, start
		}
		content = content[:start] + change.Text + content[end:]
	}
	return NewDocument(d.URI, version, content)
}

// DocumentManager handles document operations
type DocumentManager struct {
	store *sync.Map // map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
	}
}

func (m *DocumentManager) Get(uri protocol.DocumentURI) (*Document, bool) {
	content, ok := m.store.Load(normalizeURI(uri))
	if !ok {
		return nil, false
	}
	return content.(*Document), true
}

func (m *DocumentManager) Store(doc *Document) {
	m.store.Store(normalizeURI(doc.URI), doc)
}

func (m *DocumentManager) Delete(uri protocol.DocumentURI) {
	m.store.Delete(normalizeURI(uri))
}

// Len counts the open documents.
func (m *DocumentManager) Len() int {
	n := 0
	m.store.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
