package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toasty/internal/surface"
	"github.com/jmylchreest/toasty/internal/theme"
)

func (m Model) palette() *theme.Palette {
	_, p := m.themes.Current()
	return p
}

// View renders the TUI.
func (m Model) View() string {
	p := m.palette()

	sections := []string{
		m.viewHeader(p),
		m.viewGallery(p),
		m.viewToasts(p),
	}
	if m.mode == ModeCompose {
		sections = append(sections, m.viewCompose(p))
	}
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Colors.Muted))
		if m.statusErr {
			style = style.Foreground(lipgloss.Color(p.Kinds.Error))
		}
		sections = append(sections, style.Render(m.statusMsg))
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader(p *theme.Palette) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(p.Colors.Primary)).
		Render("toasty")
	sub := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Colors.Muted)).
		Render(" · palette " + p.Name)
	return title + sub + "\n"
}

func (m Model) viewGallery(p *theme.Palette) string {
	idx := m.carousel.Index()
	caption := ""
	if idx < len(m.slides) {
		caption = m.slides[idx]
	}

	width := 40
	if m.width > 4 && m.width-4 < width {
		width = m.width - 4
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(p.Colors.Border)).
		Foreground(lipgloss.Color(p.Colors.Text)).
		Width(width).
		Align(lipgloss.Center).
		Padding(1, 0).
		Render(caption)

	return box + "\n" + m.viewDots(p, idx)
}

// viewDots renders one dot per slide, the current one highlighted.
func (m Model) viewDots(p *theme.Palette, current int) string {
	on := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Colors.Primary))
	off := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Colors.Muted))

	dots := make([]string, len(m.slides))
	for i := range m.slides {
		if i == current {
			dots[i] = on.Render("●")
		} else {
			dots[i] = off.Render("○")
		}
	}
	return strings.Join(dots, " ") + fmt.Sprintf("  %d/%d", current+1, len(m.slides))
}

func (m Model) viewToasts(p *theme.Palette) string {
	items := m.surface.Items()
	if len(items) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Colors.Muted)).
			Render("No toasts. Press 1-4 or n.")
	}

	hidden := 0
	if len(items) > m.maxVisible {
		hidden = len(items) - m.maxVisible
		items = items[hidden:]
	}

	rendered := make([]string, 0, len(items)+1)
	for _, item := range items {
		rendered = append(rendered, m.viewToast(p, item))
	}
	if hidden > 0 {
		rendered = append(rendered, lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Colors.Muted)).
			Render(fmt.Sprintf("+%d more", hidden)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m Model) viewToast(p *theme.Palette, item surface.Item) string {
	t := item.Toast
	color := lipgloss.Color(p.KindColor(t.Kind))
	closing := item.Phase != surface.PhaseActive

	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(t.Title())
	age := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Colors.Muted)).
		Render(humanize.RelTime(t.CreatedAt, m.clock.Now(), "ago", "from now"))

	body := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(color).
		PaddingLeft(1).
		Faint(closing).
		Render(title + "  " + age + "\n" + t.MessageTruncated(60))
	return body
}

func (m Model) viewCompose(p *theme.Palette) string {
	kind := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(p.KindColor(m.composeKind))).
		Render("[" + m.composeKind.Title() + "]")
	return kind + " " + m.input.View()
}
