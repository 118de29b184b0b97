package symbols

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbols(t *testing.T) {
	tests := []struct {
		name      string
		version   int
		namespace string
		contains  []string
		absent    []string
		wantErr   bool
	}{
		{
			name:     "globals",
			contains: []string{"namespace ta\n", "namespace matrix\n", "close: series float\n", "keyword if\n"},
		},
		{
			name:      "namespace members",
			namespace: "ta",
			contains:  []string{"ta.sma(source: series int/float, length: series int) → series float\n"},
			absent:    []string{"keyword if"},
		},
		{
			name:     "older version hides newer namespaces",
			version:  5,
			contains: []string{"namespace ta\n"},
			absent:   []string{"namespace matrix\n"},
		},
		{
			name:      "namespace missing in version",
			version:   5,
			namespace: "matrix",
			wantErr:   true,
		},
		{
			name:    "unsupported version",
			version: 3,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			me := &Handler{fs: afero.NewMemMapFs(), out: out, dir: "/", version: tt.version, namespace: tt.namespace}
			err := me.Run(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, c := range tt.contains {
				assert.Contains(t, out.String(), c)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, out.String(), a)
			}
		})
	}
}
