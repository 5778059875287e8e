package theme

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/toasty/internal/model"
)

// PalettesDir returns the path to the user's palette overrides directory.
func PalettesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "toasty", "palettes"), nil
}

// LoadPalette reads and validates a palette file.
func LoadPalette(path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParsePalette(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Manager holds the numbered palettes and tracks which one is active.
// Palettes are numbered from 1.
type Manager struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	palettesDir string
	palettes    []*Palette
	current     int
}

// NewManager loads the bundled palettes, applying any user overrides found
// in dir. An empty dir disables overrides.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger:      logger,
		palettesDir: dir,
		current:     DefaultPalette,
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-reads the bundled palettes and user overrides.
// Resolution order per palette:
//  1. User palettes directory (~/.config/toasty/palettes/<file>.toml)
//  2. Embedded palette
func (m *Manager) Reload() error {
	embedded, err := EmbeddedPalettesList()
	if err != nil {
		return fmt.Errorf("failed to load bundled palettes: %w", err)
	}
	files := embeddedPaletteFiles()

	palettes := make([]*Palette, len(embedded))
	for i, p := range embedded {
		palettes[i] = p
		if m.palettesDir == "" {
			continue
		}

		path := filepath.Join(m.palettesDir, files[i])
		if _, err := os.Stat(path); err != nil {
			continue
		}
		override, err := LoadPalette(path)
		if err != nil {
			m.logger.Warn("failed to load user palette, using bundled", "path", path, "error", err)
			continue
		}
		palettes[i] = override
		m.logger.Info("loaded user palette", "number", i+1, "name", override.Name, "path", path)
	}

	m.mu.Lock()
	m.palettes = palettes
	if m.current > len(palettes) {
		m.current = DefaultPalette
	}
	m.mu.Unlock()
	return nil
}

// Len returns the number of palettes.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.palettes)
}

// Set selects palette n. Any number outside the known range selects the
// default palette. It returns the number actually selected.
func (m *Manager) Set(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n < 1 || n > len(m.palettes) {
		m.logger.Debug("unknown palette, using default", "palette", n)
		n = DefaultPalette
	}
	m.current = n
	return n
}

// Next cycles to the following palette, wrapping to the first.
func (m *Manager) Next() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = m.current%len(m.palettes) + 1
	return m.current
}

// Current returns the active palette number and palette.
func (m *Manager) Current() (int, *Palette) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.palettes[m.current-1]
}

// KindColor returns the active palette's colour for k.
func (m *Manager) KindColor(k model.Kind) string {
	_, p := m.Current()
	return p.KindColor(k)
}

// Names returns the palette names in order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.palettes))
	for i, p := range m.palettes {
		names[i] = p.Name
	}
	return names
}
