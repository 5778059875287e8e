package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/model"
)

const customPalette = `name = "custom"

[colors]
primary = "#112233"
secondary = "#223344"
accent = "#334455"
background = "#000000"
surface = "#111111"
text = "#FFFFFF"
muted = "#888"
border = "#444444"

[kinds]
success = "#00FF00"
error = "#FF0000"
info = "#0000FF"
warning = "#FFFF00"
`

func TestEmbeddedPalettes(t *testing.T) {
	palettes, err := EmbeddedPalettesList()
	require.NoError(t, err)
	require.Len(t, palettes, 4)

	assert.Equal(t, []string{"classic", "midnight", "lavender", "forest"}, ListEmbeddedPalettes())

	classic := palettes[0]
	assert.Equal(t, "classic", classic.Name)
	assert.Equal(t, "#33C3F0", classic.Colors.Primary)
	assert.Equal(t, "#4CAF50", classic.KindColor(model.KindSuccess))
	assert.Equal(t, "#EA384C", classic.KindColor(model.KindError))
	assert.Equal(t, "#0EA5E9", classic.KindColor(model.KindInfo))
	assert.Equal(t, "#FFC107", classic.KindColor(model.KindWarning))
	assert.Equal(t, "#33C3F0", classic.KindColor(model.Kind("other")))
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette([]byte(customPalette))
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
	assert.Equal(t, "#888", p.Colors.Muted)
}

func TestParsePalette_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not toml", "name = "},
		{"no name", `[colors]
primary = "#000000"`},
		{"bad colour", `name = "x"
[colors]
primary = "blue"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePalette([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestPalette_MarshalRoundTrip(t *testing.T) {
	palettes, err := EmbeddedPalettesList()
	require.NoError(t, err)

	data, err := palettes[1].Marshal()
	require.NoError(t, err)

	back, err := ParsePalette(data)
	require.NoError(t, err)
	assert.Equal(t, palettes[1].Colors, back.Colors)
}

func TestManager_Set(t *testing.T) {
	m, err := NewManager("", nil)
	require.NoError(t, err)

	n, p := m.Current()
	assert.Equal(t, 1, n)
	assert.Equal(t, "classic", p.Name)

	tests := []struct {
		in   int
		want int
	}{
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 4},
		{0, 1},
		{5, 1},
		{-2, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Set(tt.in), "Set(%d)", tt.in)
		n, _ := m.Current()
		assert.Equal(t, tt.want, n)
	}
}

func TestManager_Next(t *testing.T) {
	m, err := NewManager("", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Next())
	assert.Equal(t, 3, m.Next())
	assert.Equal(t, 4, m.Next())
	assert.Equal(t, 1, m.Next())
}

func TestManager_KindColor(t *testing.T) {
	m, err := NewManager("", nil)
	require.NoError(t, err)

	m.Set(4)
	assert.Equal(t, "#C62828", m.KindColor(model.KindError))
}

func TestManager_UserOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2-midnight.toml"), []byte(customPalette), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3-lavender.toml"), []byte("broken ="), 0644))

	m, err := NewManager(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"classic", "custom", "lavender", "forest"}, m.Names())

	m.Set(2)
	_, p := m.Current()
	assert.Equal(t, filepath.Join(dir, "2-midnight.toml"), p.Path)
	assert.Equal(t, "#FF0000", m.KindColor(model.KindError))
}

func TestManager_Reload(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "classic", m.Names()[0])

	require.NoError(t, os.WriteFile(filepath.Join(dir, "1-classic.toml"), []byte(customPalette), 0644))
	require.NoError(t, m.Reload())
	assert.Equal(t, "custom", m.Names()[0])
}

func TestLoadPalette_Missing(t *testing.T) {
	_, err := LoadPalette(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
