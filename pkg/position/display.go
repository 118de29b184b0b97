package position

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/apparentlymart/go-textseg/v13/textseg"
	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

const DefaultTabWidth = 4

// DisplayColumn is the one-based column a terminal shows for offset: user
// perceived characters are counted once and tabs advance to the next stop.
func (m *Mapper) DisplayColumn(offset, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	offset = m.clamp(offset)
	prefix := m.text[m.lines[m.Line(offset)]:offset]

	col := 0
	sc := bufio.NewScanner(strings.NewReader(prefix))
	sc.Split(textseg.ScanGraphemeClusters)
	for sc.Scan() {
		if sc.Text() == "\t" {
			col += tabWidth - col%tabWidth
			continue
		}
		col++
	}
	return col + 1
}

// TabWidth reads the tab width applying to path from the .editorconfig
// files between the path and the filesystem root.
func TabWidth(fs afero.Fs, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, errors.Errorf("resolving %s: %w", path, err)
	}

	var configs []string
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		configs = append(configs, filepath.Join(dir, ".editorconfig"))
		if dir == filepath.Dir(dir) {
			break
		}
	}

	width := DefaultTabWidth
	// nearest file last so it overrides
	for i := len(configs) - 1; i >= 0; i-- {
		f, err := fs.Open(configs[i])
		if err != nil {
			continue
		}
		ec, err := editorconfig.Parse(f)
		f.Close()
		if err != nil {
			return 0, errors.Errorf("parsing %s: %w", configs[i], err)
		}
		rel, err := filepath.Rel(filepath.Dir(configs[i]), abs)
		if err != nil {
			continue
		}
		def, err := ec.GetDefinitionForFilename(filepath.ToSlash(rel))
		if err != nil {
			return 0, errors.Errorf("matching %s: %w", configs[i], err)
		}
		if ec.Root {
			width = DefaultTabWidth
		}
		if def.TabWidth > 0 {
			width = def.TabWidth
		}
	}
	return width, nil
}
