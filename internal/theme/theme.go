package theme

import (
	"fmt"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toasty/internal/model"
)

// hexColorRegex matches #RGB and #RRGGBB colours.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Colors are the base colours of a palette.
type Colors struct {
	Primary    string `toml:"primary"`
	Secondary  string `toml:"secondary"`
	Accent     string `toml:"accent"`
	Background string `toml:"background"`
	Surface    string `toml:"surface"`
	Text       string `toml:"text"`
	Muted      string `toml:"muted"`
	Border     string `toml:"border"`
}

// KindColors holds one colour per toast kind.
type KindColors struct {
	Success string `toml:"success"`
	Error   string `toml:"error"`
	Info    string `toml:"info"`
	Warning string `toml:"warning"`
}

// Palette is a named colour scheme.
type Palette struct {
	Name   string     `toml:"name"`
	Colors Colors     `toml:"colors"`
	Kinds  KindColors `toml:"kinds"`

	// Path is the file the palette was read from, empty when embedded.
	Path string `toml:"-"`
}

// ParsePalette decodes a palette from TOML and validates every colour.
func ParsePalette(data []byte) (*Palette, error) {
	var p Palette
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the palette is named and every colour is a hex value.
func (p *Palette) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("palette has no name")
	}

	fields := map[string]string{
		"colors.primary":    p.Colors.Primary,
		"colors.secondary":  p.Colors.Secondary,
		"colors.accent":     p.Colors.Accent,
		"colors.background": p.Colors.Background,
		"colors.surface":    p.Colors.Surface,
		"colors.text":       p.Colors.Text,
		"colors.muted":      p.Colors.Muted,
		"colors.border":     p.Colors.Border,
		"kinds.success":     p.Kinds.Success,
		"kinds.error":       p.Kinds.Error,
		"kinds.info":        p.Kinds.Info,
		"kinds.warning":     p.Kinds.Warning,
	}
	for key, value := range fields {
		if !hexColorRegex.MatchString(value) {
			return fmt.Errorf("palette %q: %s must be a hex colour, got %q", p.Name, key, value)
		}
	}
	return nil
}

// KindColor returns the colour for a toast kind. Unknown kinds get the
// primary colour.
func (p *Palette) KindColor(k model.Kind) string {
	switch k {
	case model.KindSuccess:
		return p.Kinds.Success
	case model.KindError:
		return p.Kinds.Error
	case model.KindInfo:
		return p.Kinds.Info
	case model.KindWarning:
		return p.Kinds.Warning
	default:
		return p.Colors.Primary
	}
}

// Marshal encodes the palette as TOML.
func (p *Palette) Marshal() ([]byte, error) {
	return toml.Marshal(p)
}
