package theme

import (
	"embed"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// EmbeddedPalettes contains the bundled palette files. File names are
// prefixed with their palette number so they list in order.
//
//go:embed palettes/*.toml
var EmbeddedPalettes embed.FS

// DefaultPalette is the number of the palette used when none is chosen.
const DefaultPalette = 1

// embeddedPaletteFiles returns the bundled file names in palette order.
func embeddedPaletteFiles() []string {
	entries, err := fs.ReadDir(EmbeddedPalettes, "palettes")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// EmbeddedPalettesList parses every bundled palette in order.
func EmbeddedPalettesList() ([]*Palette, error) {
	var palettes []*Palette
	for _, name := range embeddedPaletteFiles() {
		data, err := EmbeddedPalettes.ReadFile("palettes/" + name)
		if err != nil {
			return nil, err
		}
		p, err := ParsePalette(data)
		if err != nil {
			return nil, err
		}
		palettes = append(palettes, p)
	}
	return palettes, nil
}

// ListEmbeddedPalettes returns the names of the bundled palettes in order.
func ListEmbeddedPalettes() []string {
	var names []string
	for _, file := range embeddedPaletteFiles() {
		name := strings.TrimSuffix(file, ".toml")
		if _, after, ok := strings.Cut(name, "-"); ok {
			name = after
		}
		names = append(names, name)
	}
	return names
}
