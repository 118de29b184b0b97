package symbols

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/pinescript.yaml
var builtinCatalog []byte

type catalogFile struct {
	Keywords    []nameRecord      `yaml:"keywords"`
	Annotations []nameRecord      `yaml:"annotations"`
	Types       []nameRecord      `yaml:"types"`
	Namespaces  []namespaceRecord `yaml:"namespaces"`
}

type nameRecord struct {
	Name  string `yaml:"name"`
	Doc   string `yaml:"doc"`
	Since int    `yaml:"since"`
}

type namespaceRecord struct {
	Name      string           `yaml:"name"`
	Doc       string           `yaml:"doc"`
	Since     int              `yaml:"since"`
	Functions []functionRecord `yaml:"functions"`
	Variables []variableRecord `yaml:"variables"`
	Constants []constantRecord `yaml:"constants"`
}

type functionRecord struct {
	Sig   string `yaml:"sig"`
	Doc   string `yaml:"doc"`
	Since int    `yaml:"since"`
	Var   string `yaml:"var"`
}

type variableRecord struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Doc   string `yaml:"doc"`
	Since int    `yaml:"since"`
}

type constantRecord struct {
	Type  string   `yaml:"type"`
	Names []string `yaml:"names"`
	Doc   string   `yaml:"doc"`
	Since int      `yaml:"since"`
}

// Catalog maps each supported version to its table.
type Catalog struct {
	tables map[Version]*Table
}

// LoadDefault loads the embedded catalog.
func LoadDefault(ctx context.Context) (*Catalog, error) {
	return Load(ctx, bytes.NewReader(builtinCatalog))
}

// LoadFiles loads the embedded catalog followed by extra catalog files.
// Names in the extra files must not collide with the embedded ones.
func LoadFiles(ctx context.Context, fs afero.Fs, paths ...string) (*Catalog, error) {
	readers := []io.Reader{bytes.NewReader(builtinCatalog)}
	for _, p := range paths {
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			return nil, errors.Errorf("reading catalog %s: %w", p, err)
		}
		readers = append(readers, bytes.NewReader(data))
	}
	return Load(ctx, readers...)
}

// Load builds a catalog from one or more YAML sources, in order. Every
// problem found is reported in the returned error; a catalog is only
// returned when there are none.
func Load(ctx context.Context, sources ...io.Reader) (*Catalog, error) {
	b := newBuilder()
	for i, src := range sources {
		var file catalogFile
		dec := yaml.NewDecoder(src)
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("decoding catalog source %d: %w", i, err)
		}
		b.add(&file)
	}

	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, errors.Errorf("invalid symbol catalog: %w", err)
	}

	cat := &Catalog{tables: map[Version]*Table{}}
	for _, v := range SupportedVersions {
		cat.tables[v] = b.table(v)
	}

	zerolog.Ctx(ctx).Debug().
		Int("records", len(b.entries)).
		Int("namespaces", len(b.namespaces)).
		Msg("symbol catalog loaded")

	return cat, nil
}

// Table returns the table for v. Unknown versions get the latest table.
func (c *Catalog) Table(v Version) *Table {
	if t, ok := c.tables[v]; ok {
		return t
	}
	return c.tables[Latest]
}

func (c *Catalog) Latest() *Table {
	return c.tables[Latest]
}

// builder accumulates records across every version. Each entry is stored
// once with its Since version; tables are filtered views.
type builder struct {
	entries    map[string]*Entry
	namespaces map[string]*Namespace
	order      int
	errs       *multierror.Error
}

func newBuilder() *builder {
	return &builder{
		entries:    map[string]*Entry{},
		namespaces: map[string]*Namespace{},
	}
}

func (b *builder) fail(format string, args ...any) {
	b.errs = multierror.Append(b.errs, errors.Errorf(format, args...))
}

func (b *builder) next() int {
	b.order++
	return b.order
}

func (b *builder) since(raw int, fallback Version, what string) Version {
	if raw == 0 {
		return fallback
	}
	v := Version(raw)
	if !v.Supported() {
		b.fail("%s: unsupported version %d", what, raw)
		return fallback
	}
	return v
}

func (b *builder) add(file *catalogFile) {
	for _, r := range file.Keywords {
		b.addNamed(r, KindKeyword, "keyword:")
	}
	for _, r := range file.Annotations {
		b.addNamed(r, KindAnnotation, "annotation:")
	}
	for _, r := range file.Types {
		b.addNamed(r, KindType, "")
	}
	for _, ns := range file.Namespaces {
		b.addNamespace(ns)
	}
}

// addNamed registers keywords and annotations under a prefixed key so they
// never collide with functions or variables of the same spelling.
func (b *builder) addNamed(r nameRecord, kind Kind, keyPrefix string) {
	if r.Name == "" {
		b.fail("%s record without a name", kind)
		return
	}
	b.insert(keyPrefix+r.Name, &Entry{
		QualifiedName: r.Name,
		Name:          r.Name,
		Kind:          kind,
		Since:         b.since(r.Since, V5, r.Name),
		Doc:           r.Doc,
	})
}

func (b *builder) addNamespace(ns namespaceRecord) {
	nsSince := b.since(ns.Since, V5, "namespace "+ns.Name)
	if ns.Name != "" {
		b.registerNamespace(ns.Name, ns.Doc, nsSince)
	}

	for _, f := range ns.Functions {
		name, sig, err := ParseSignature(f.Sig)
		if err != nil {
			b.errs = multierror.Append(b.errs, err)
			continue
		}
		qn := qualify(ns.Name, name)
		sig.Since = b.since(f.Since, nsSince, qn)
		if existing, ok := b.entries[qn]; ok {
			b.addOverload(existing, qn, sig, f)
			continue
		}
		b.insert(qn, &Entry{
			QualifiedName: qn,
			Namespace:     ns.Name,
			Name:          name,
			Kind:          KindFunction,
			Signatures:    []Signature{sig},
			ValueType:     f.Var,
			Since:         sig.Since,
			Doc:           f.Doc,
		})
	}

	for _, v := range ns.Variables {
		if v.Name == "" || v.Type == "" {
			b.fail("namespace %q: variable needs a name and a type", ns.Name)
			continue
		}
		qn := qualify(ns.Name, v.Name)
		b.insert(qn, &Entry{
			QualifiedName: qn,
			Namespace:     ns.Name,
			Name:          v.Name,
			Kind:          KindVariable,
			ValueType:     v.Type,
			Since:         b.since(v.Since, nsSince, qn),
			Doc:           v.Doc,
		})
	}

	for _, c := range ns.Constants {
		if c.Type == "" {
			b.fail("namespace %q: constant group %v has no type", ns.Name, c.Names)
			continue
		}
		for _, name := range c.Names {
			qn := qualify(ns.Name, name)
			b.insert(qn, &Entry{
				QualifiedName: qn,
				Namespace:     ns.Name,
				Name:          name,
				Kind:          KindConstant,
				ValueType:     c.Type,
				Since:         b.since(c.Since, nsSince, qn),
				Doc:           c.Doc,
			})
		}
	}
}

func (b *builder) addOverload(existing *Entry, qn string, sig Signature, f functionRecord) {
	if existing.Kind != KindFunction {
		b.fail("duplicate qualified name %q (%s and function)", qn, existing.Kind)
		return
	}
	for _, s := range existing.Signatures {
		if sameParams(s, sig) {
			b.fail("duplicate overload of %q: %s", qn, sig.Label(qn))
			return
		}
	}
	existing.Signatures = append(existing.Signatures, sig)
	if sig.Since < existing.Since {
		existing.Since = sig.Since
		if existing.Namespace != "" {
			b.registerNamespace(existing.Namespace, "", sig.Since)
		}
	}
	if existing.Doc == "" {
		existing.Doc = f.Doc
	}
	if existing.ValueType == "" {
		existing.ValueType = f.Var
	}
}

func (b *builder) insert(key string, e *Entry) {
	if existing, ok := b.entries[key]; ok {
		b.fail("duplicate qualified name %q (%s and %s)", e.QualifiedName, existing.Kind, e.Kind)
		return
	}
	e.Order = b.next()
	b.entries[key] = e
	if e.Namespace != "" {
		b.registerNamespace(e.Namespace, "", e.Since)
	}
}

// registerNamespace records path and all of its parents. A namespace is
// available from the earliest version any of its members is.
func (b *builder) registerNamespace(path, doc string, since Version) {
	for p := path; p != ""; p = parentOf(p) {
		ns, ok := b.namespaces[p]
		if !ok {
			ns = &Namespace{Path: p, Since: since, Order: b.next()}
			b.namespaces[p] = ns
		}
		if since < ns.Since {
			ns.Since = since
		}
		if p == path && ns.Doc == "" {
			ns.Doc = doc
		}
	}
}

func (b *builder) table(v Version) *Table {
	t := newTable(v)
	for key, e := range b.entries {
		if e.Since > v {
			continue
		}
		e = e.at(v)
		switch e.Kind {
		case KindKeyword:
			t.keywords = append(t.keywords, e)
			t.keywordSet[e.Name] = e
		case KindAnnotation:
			t.annotations = append(t.annotations, e)
			t.annotationSet[e.Name] = e
		default:
			t.entries[key] = e
			t.members[e.Namespace] = append(t.members[e.Namespace], e)
		}
	}
	for path, ns := range b.namespaces {
		if ns.Since > v {
			continue
		}
		t.namespaces[path] = ns
		parent := parentOf(path)
		t.subs[parent] = append(t.subs[parent], ns)
	}

	byOrder := func(s []*Entry) {
		sort.Slice(s, func(i, j int) bool { return s[i].Order < s[j].Order })
	}
	byOrder(t.keywords)
	byOrder(t.annotations)
	for _, m := range t.members {
		byOrder(m)
	}
	for _, s := range t.subs {
		sort.Slice(s, func(i, j int) bool { return s[i].Order < s[j].Order })
	}
	return t
}

// at returns e as seen from version v, without the overloads added later.
func (e *Entry) at(v Version) *Entry {
	keep := 0
	for _, s := range e.Signatures {
		if s.Since <= v {
			keep++
		}
	}
	if keep == len(e.Signatures) {
		return e
	}
	out := *e
	out.Signatures = make([]Signature, 0, keep)
	for _, s := range e.Signatures {
		if s.Since <= v {
			out.Signatures = append(out.Signatures, s)
		}
	}
	return &out
}

func (v Version) String() string {
	return fmt.Sprintf("v%d", int(v))
}
