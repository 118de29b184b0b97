// Package symbols holds the versioned catalog of built-in PineScript names:
// namespaces, functions, variables, constants, types, keywords and
// annotations. A Catalog is built once and never mutated, so it is shared
// freely between goroutines.
package symbols

import (
	"fmt"
	"strings"
)

// Version is a PineScript language version.
type Version int

const (
	V5 Version = 5
	V6 Version = 6

	Latest = V6
)

var SupportedVersions = []Version{V5, V6}

func (v Version) Supported() bool {
	for _, s := range SupportedVersions {
		if s == v {
			return true
		}
	}
	return false
}

type Kind uint8

const (
	KindFunction Kind = iota + 1
	KindVariable
	KindConstant
	KindType
	KindAnnotation
	KindKeyword
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindType:
		return "type"
	case KindAnnotation:
		return "annotation"
	case KindKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

type Param struct {
	Name     string
	Type     string
	Default  string
	Optional bool
	Variadic bool
}

func (p Param) String() string {
	var sb strings.Builder
	sb.WriteString(p.Name)
	if p.Variadic {
		sb.WriteString("...")
	}
	if p.Type != "" {
		sb.WriteString(": ")
		sb.WriteString(p.Type)
	}
	if p.Default != "" {
		sb.WriteString(" = ")
		sb.WriteString(p.Default)
	}
	return sb.String()
}

// BaseType strips the qualifier and any generic arguments: "series color"
// becomes "color", "array<float>" becomes "array".
func (p Param) BaseType() string {
	return BaseType(p.Type)
}

func BaseType(typ string) string {
	if i := strings.LastIndexByte(typ, ' '); i >= 0 {
		typ = typ[i+1:]
	}
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		typ = typ[:i]
	}
	return strings.TrimSuffix(typ, "[]")
}

type Signature struct {
	Params  []Param
	Returns string
	// Since is the first version offering this overload.
	Since Version
}

// Label renders the signature as it appears in hovers and completion detail.
func (s Signature) Label(name string) string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	label := fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
	if s.Returns != "" {
		label += " → " + s.Returns
	}
	return label
}

// ParamIndex returns the index of the named parameter or -1.
func (s Signature) ParamIndex(name string) int {
	for i, p := range s.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Accepts reports whether a call with n arguments fits the signature.
func (s Signature) Accepts(n int) bool {
	if len(s.Params) > 0 && s.Params[len(s.Params)-1].Variadic {
		return true
	}
	return n <= len(s.Params)
}

// Entry is one qualified name in a version table. Functions collect every
// overload in Signatures.
type Entry struct {
	QualifiedName string
	Namespace     string
	Name          string
	Kind          Kind
	Signatures    []Signature
	// ValueType is the type of a variable or constant. A function that can
	// also be used as a value (ta.tr, time, na) carries it too.
	ValueType string
	Since     Version
	Doc       string
	// Order is the position of the record in the catalog source and drives
	// completion ranking.
	Order int
}

func (e *Entry) IsValue() bool {
	return e.Kind == KindVariable || e.Kind == KindConstant || (e.Kind == KindFunction && e.ValueType != "")
}

// Detail is a one-line summary used as completion detail.
func (e *Entry) Detail() string {
	switch e.Kind {
	case KindFunction:
		if len(e.Signatures) == 0 {
			return e.QualifiedName + "()"
		}
		d := e.Signatures[0].Label(e.QualifiedName)
		if n := len(e.Signatures); n > 1 {
			d += fmt.Sprintf(" (+%d overloads)", n-1)
		}
		return d
	case KindVariable, KindConstant:
		return e.QualifiedName + ": " + e.ValueType
	case KindType:
		return "type " + e.QualifiedName
	default:
		return e.QualifiedName
	}
}

type Namespace struct {
	Path  string
	Doc   string
	Since Version
	Order int
}

// Name is the last path segment.
func (n *Namespace) Name() string {
	if i := strings.LastIndexByte(n.Path, '.'); i >= 0 {
		return n.Path[i+1:]
	}
	return n.Path
}

func parentOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return ""
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}
