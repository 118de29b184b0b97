package symbols

import "strings"

// Table is the read-only view of the catalog for one language version.
type Table struct {
	version       Version
	entries       map[string]*Entry
	namespaces    map[string]*Namespace
	members       map[string][]*Entry
	subs          map[string][]*Namespace
	keywords      []*Entry
	keywordSet    map[string]*Entry
	annotations   []*Entry
	annotationSet map[string]*Entry
}

func newTable(v Version) *Table {
	return &Table{
		version:       v,
		entries:       map[string]*Entry{},
		namespaces:    map[string]*Namespace{},
		members:       map[string][]*Entry{},
		subs:          map[string][]*Namespace{},
		keywordSet:    map[string]*Entry{},
		annotationSet: map[string]*Entry{},
	}
}

func (t *Table) Version() Version {
	return t.version
}

// Lookup finds a function, variable, constant or type by qualified name.
func (t *Table) Lookup(qualifiedName string) (*Entry, bool) {
	e, ok := t.entries[qualifiedName]
	return e, ok
}

func (t *Table) Namespace(path string) (*Namespace, bool) {
	ns, ok := t.namespaces[path]
	return ns, ok
}

func (t *Table) IsNamespace(path string) bool {
	_, ok := t.namespaces[path]
	return ok
}

// Members lists the entries directly inside ns in catalog order. The empty
// namespace holds the globals.
func (t *Table) Members(ns string) []*Entry {
	return t.members[ns]
}

// Member looks up name inside ns.
func (t *Table) Member(ns, name string) (*Entry, bool) {
	return t.Lookup(qualify(ns, name))
}

func (t *Table) SubNamespaces(ns string) []*Namespace {
	return t.subs[ns]
}

// Roots lists the top-level namespaces such as ta, math and strategy.
func (t *Table) Roots() []*Namespace {
	return t.subs[""]
}

func (t *Table) Globals() []*Entry {
	return t.members[""]
}

func (t *Table) Keyword(name string) (*Entry, bool) {
	e, ok := t.keywordSet[name]
	return e, ok
}

func (t *Table) Keywords() []*Entry {
	return t.keywords
}

// Annotation looks up a tag such as "@version".
func (t *Table) Annotation(tag string) (*Entry, bool) {
	e, ok := t.annotationSet[tag]
	return e, ok
}

func (t *Table) Annotations() []*Entry {
	return t.annotations
}

// Len is the number of functions, variables, constants and types.
func (t *Table) Len() int {
	return len(t.entries)
}

// MethodsOf lists the functions of a built-in type usable with method
// syntax: for a value of type array<float>, a.push(x) calls array.push(a, x).
func (t *Table) MethodsOf(typ string) []*Entry {
	base := BaseType(typ)
	if !t.IsNamespace(base) {
		return nil
	}
	var out []*Entry
	for _, e := range t.members[base] {
		if e.Kind != KindFunction || len(e.Signatures) == 0 || len(e.Signatures[0].Params) == 0 {
			continue
		}
		if strings.HasPrefix(BaseType(e.Signatures[0].Params[0].Type), base) || e.Signatures[0].Params[0].Name == "id" {
			out = append(out, e)
		}
	}
	return out
}
