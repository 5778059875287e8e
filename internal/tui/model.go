// Package tui provides the Bubble Tea terminal showcase: an auto-advancing
// gallery, a live toast stack and palette switching.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toasty/internal/carousel"
	"github.com/jmylchreest/toasty/internal/clock"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/surface"
	"github.com/jmylchreest/toasty/internal/theme"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeCompose
	ModeHelp
)

// Store is what the TUI needs from the toast store.
type Store interface {
	surface.Source
	Create(message string, kind model.Kind) (string, error)
	Clear()
}

// SampleMessages are raised by the 1-4 keys.
var SampleMessages = map[model.Kind]string{
	model.KindSuccess: "Your changes have been saved.",
	model.KindError:   "Something went wrong. Please try again.",
	model.KindInfo:    "A new version is available.",
	model.KindWarning: "Your session will expire soon.",
}

// Options configures the TUI.
type Options struct {
	Slides          []string
	Interval        time.Duration
	DisplayDuration time.Duration
	ExitDelay       time.Duration
	MaxVisible      int
	Clock           clock.Clock
	Logger          *slog.Logger
}

// Model is the main TUI model.
type Model struct {
	store    Store
	surface  *surface.Surface
	carousel *carousel.Carousel
	themes   *theme.Manager
	clock    clock.Clock
	logger   *slog.Logger

	slides     []string
	slideCh    chan int
	maxVisible int

	mode        Mode
	keys        KeyMap
	help        help.Model
	input       textinput.Model
	composeKind model.Kind

	width  int
	height int

	statusMsg string
	statusErr bool
}

// New mounts a toast surface on st and starts the gallery. Call Close
// once the program exits.
func New(st Store, themes *theme.Manager, opts Options) (Model, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxVisible <= 0 {
		opts.MaxVisible = 5
	}
	if themes == nil {
		var err error
		if themes, err = theme.NewManager("", opts.Logger); err != nil {
			return Model{}, err
		}
	}

	m := Model{
		store:       st,
		themes:      themes,
		clock:       opts.Clock,
		logger:      opts.Logger,
		slides:      opts.Slides,
		slideCh:     make(chan int, 1),
		maxVisible:  opts.MaxVisible,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		composeKind: model.KindInfo,
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 200
	m.input = input

	slideCh := m.slideCh
	c, err := carousel.New(len(opts.Slides),
		carousel.WithInterval(opts.Interval),
		carousel.WithClock(opts.Clock),
		carousel.WithLogger(opts.Logger),
		carousel.WithChangeHandler(func(i int) {
			// Latest index wins; the view reads Index() anyway.
			select {
			case slideCh <- i:
			default:
			}
		}),
	)
	if err != nil {
		return Model{}, fmt.Errorf("failed to create gallery: %w", err)
	}
	m.carousel = c

	surfaceOpts := []surface.Option{
		surface.WithClock(opts.Clock),
		surface.WithLogger(opts.Logger),
	}
	if opts.DisplayDuration > 0 {
		surfaceOpts = append(surfaceOpts, surface.WithDisplayDuration(opts.DisplayDuration))
	}
	if opts.ExitDelay > 0 {
		surfaceOpts = append(surfaceOpts, surface.WithExitDelay(opts.ExitDelay))
	}
	m.surface = surface.New(st, surfaceOpts...)
	if err := m.surface.Mount(); err != nil {
		return Model{}, err
	}
	m.carousel.Start()

	return m, nil
}

// Close unmounts the toast surface and stops the gallery.
func (m Model) Close() {
	m.carousel.Stop()
	m.surface.Unmount()
}

// Init starts listening for toast and gallery changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForToasts(m.surface.Changes()),
		waitForSlide(m.slideCh),
		tick(),
	)
}

type toastsChangedMsg struct{}

type slideMsg int

type tickMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func waitForToasts(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return toastsChangedMsg{}
	}
}

func waitForSlide(ch <-chan int) tea.Cmd {
	return func() tea.Msg {
		return slideMsg(<-ch)
	}
}

// tick refreshes toast ages.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case toastsChangedMsg:
		return m, waitForToasts(m.surface.Changes())

	case slideMsg:
		return m, waitForSlide(m.slideCh)

	case tickMsg:
		return m, tick()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	if m.mode == ModeCompose {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == ModeCompose {
		return m.handleComposeKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeNormal
		} else {
			m.mode = ModeHelp
		}
		m.help.ShowAll = m.mode == ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Success):
		return m, m.raise(SampleMessages[model.KindSuccess], model.KindSuccess)
	case key.Matches(msg, m.keys.Error):
		return m, m.raise(SampleMessages[model.KindError], model.KindError)
	case key.Matches(msg, m.keys.Info):
		return m, m.raise(SampleMessages[model.KindInfo], model.KindInfo)
	case key.Matches(msg, m.keys.Warning):
		return m, m.raise(SampleMessages[model.KindWarning], model.KindWarning)

	case key.Matches(msg, m.keys.Compose):
		m.mode = ModeCompose
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Dismiss):
		if item, ok := m.newestActive(); ok {
			m.surface.Dismiss(item.Toast.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.store.Clear()
		return m, status("All toasts dismissed", false)

	case key.Matches(msg, m.keys.Copy):
		t, ok := m.store.Snapshot().Newest()
		if !ok {
			return m, status("Nothing to copy", true)
		}
		return m, copyToClipboard(t.Message)

	case key.Matches(msg, m.keys.Prev):
		m.carousel.Prev()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.carousel.Next()
		return m, nil

	case key.Matches(msg, m.keys.First):
		_ = m.carousel.GoTo(0)
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		n := m.themes.Next()
		_, p := m.themes.Current()
		return m, status(fmt.Sprintf("Palette %d: %s", n, p.Name), false)
	}

	return m, nil
}

// handleComposeKey handles keys while a custom toast is being typed.
func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.CycleKind):
		m.composeKind = nextKind(m.composeKind)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, status("Message is empty", true)
		}
		m.mode = ModeNormal
		m.input.Blur()
		m.input.SetValue("")
		return m, m.raise(text, m.composeKind)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) raise(message string, kind model.Kind) tea.Cmd {
	if _, err := m.store.Create(message, kind); err != nil {
		m.logger.Warn("failed to create toast", "kind", kind, "error", err)
		return status("Failed to create toast: "+err.Error(), true)
	}
	return nil
}

// newestActive returns the most recent toast that is not already closing.
func (m Model) newestActive() (surface.Item, bool) {
	items := m.surface.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Phase == surface.PhaseActive {
			return items[i], true
		}
	}
	return surface.Item{}, false
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}

func nextKind(k model.Kind) model.Kind {
	for i, kind := range model.Kinds {
		if kind == k {
			return model.Kinds[(i+1)%len(model.Kinds)]
		}
	}
	return model.Kinds[0]
}
