package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for the terminal viewer.
type Theme struct {
	Accent   lipgloss.Color
	Citation lipgloss.Color
	Success  lipgloss.Color
	Warning  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
	Border   lipgloss.Color
}

// DefaultTheme provides default colors.
var DefaultTheme = Theme{
	Accent:   lipgloss.Color("#FF4B4B"), // red
	Citation: lipgloss.Color("#5FAFD7"), // light blue
	Success:  lipgloss.Color("#00D787"), // green
	Warning:  lipgloss.Color("#FFD75F"), // yellow
	Error:    lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
	Border:   lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) activeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

func (t Theme) cursorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Reverse(true)
}

func (t Theme) citationStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Citation).Bold(true)
}

func (t Theme) roleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) noticeStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	case "warning":
		return lipgloss.NewStyle().Foreground(t.Warning)
	default:
		return lipgloss.NewStyle().Foreground(t.Success)
	}
}

func (t Theme) panelStyle(focused bool) lipgloss.Style {
	border := t.Border
	if focused {
		border = t.Citation
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func (t Theme) modalStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(t.Accent).
		Padding(1, 2)
}
