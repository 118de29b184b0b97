// Package diff renders the difference between two values for test failures.
package diff

import (
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// exportedOnly skips unexported struct fields, which are caches and
// bookkeeping rather than results.
var exportedOnly = cmp.FilterPath(func(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	return ok && !token.IsExported(sf.Name())
}, cmp.Ignore())

func DiffExportedOnly[T any](want T, got T) string {
	abc := cmp.Diff(want, got, exportedOnly)
	if abc == "" {
		return ""
	}
	str := "\n\n"
	str += "to convert EXPECTED ⏩️ ACTUAL:\n\n"
	str += "add:    ➕\n"
	str += "remove: ➖\n"
	str += "\n"
	str += strings.ReplaceAll(strings.ReplaceAll(abc, "\n-", "\n➖"), "\n+", "\n➕")

	return str
}

// RequireEqual stops the test when want and got differ in an exported
// field.
func RequireEqual[T any](t testing.TB, want T, got T) {
	t.Helper()
	if d := DiffExportedOnly(want, got); d != "" {
		t.Fatalf("unexpected difference:%s", d)
	}
}
