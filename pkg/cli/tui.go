package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal cards.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Gauge  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Gauge:  lipgloss.NewStyle().Foreground(t.Primary),
	}
}

// Carder is implemented by results that have a card rendering.
type Carder interface {
	Card() Card
}

// Row is one labelled line of a card. When Gauge is set, Level (clamped to
// [-1, 1]) is drawn as a bar after the value.
type Row struct {
	Label string
	Value string
	Level float64
	Gauge bool
}

// Card is a bordered block with a title, labelled rows and a dim footer.
type Card struct {
	Title    string
	Subtitle string
	Rows     []Row
	Footer   string
}

// gaugeWidth is the number of cells per half of a bipolar gauge.
const gaugeWidth = 10

// Render renders the card.
func (c Card) Render(s Styles) string {
	labelWidth := 0
	for _, r := range c.Rows {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}
	valueWidth := 0
	for _, r := range c.Rows {
		valueWidth = max(valueWidth, lipgloss.Width(r.Value))
	}

	var lines []string
	title := s.Title.Render(c.Title)
	if c.Subtitle != "" {
		title += " " + s.Help.Render(c.Subtitle)
	}
	lines = append(lines, title, "")
	for _, r := range c.Rows {
		label := s.Label.Render(r.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(r.Label)))
		line := label + "  " + r.Value
		if r.Gauge {
			line += strings.Repeat(" ", valueWidth-lipgloss.Width(r.Value)) + "  " + s.Gauge.Render(gauge(r.Level))
		}
		lines = append(lines, line)
	}
	if c.Footer != "" {
		lines = append(lines, "", s.Help.Render(c.Footer))
	}
	return s.Border.Render(strings.Join(lines, "\n"))
}

// gauge draws level in [-1, 1] as a bar around a center mark:
// "░░░░░▓▓▓▓▓|░░░░░░░░░░" for -0.5.
func gauge(level float64) string {
	if math.IsNaN(level) {
		level = 0
	}
	level = max(-1, min(1, level))
	n := int(math.Round(math.Abs(level) * gaugeWidth))
	left := strings.Repeat("░", gaugeWidth)
	right := strings.Repeat("░", gaugeWidth)
	if level < 0 {
		left = strings.Repeat("░", gaugeWidth-n) + strings.Repeat("▓", n)
	} else {
		right = strings.Repeat("▓", n) + strings.Repeat("░", gaugeWidth-n)
	}
	return left + "|" + right
}
