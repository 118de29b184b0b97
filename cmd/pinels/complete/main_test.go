package complete

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = "//@version=6\ny = ta.rs"

func newHandler(t *testing.T) (*Handler, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.pine", []byte(script), 0o644))
	out := &bytes.Buffer{}
	return &Handler{fs: fs, out: out, file: "/proj/a.pine", offset: -1}, out
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		line   int
		col    int
	}{
		{name: "offset", offset: len(script)},
		{name: "line and column", offset: -1, line: 2, col: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me, out := newHandler(t)
			me.offset, me.line, me.col = tt.offset, tt.line, tt.col
			require.NoError(t, me.Run(context.Background()))
			assert.Equal(t, "rsi\tFunction\tta.rsi(source: series int/float, length: simple int) → series float\n", out.String())
		})
	}
}

func TestCompleteJSON(t *testing.T) {
	me, out := newHandler(t)
	me.offset = len(script)
	me.json = true
	require.NoError(t, me.Run(context.Background()))

	var got []jsonCandidate
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "rsi", got[0].Label)
	assert.Equal(t, "Function", got[0].Kind)
	assert.Equal(t, "builtin", got[0].Source)
}

func TestCompleteRejectsZeroBasedPositions(t *testing.T) {
	me, _ := newHandler(t)
	me.line, me.col = 0, 3
	require.Error(t, me.Run(context.Background()))
}
