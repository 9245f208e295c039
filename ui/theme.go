package ui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Header  lipgloss.Style
	Welcome lipgloss.Style
	Own     lipgloss.Style
	Other   lipgloss.Style
	Author  lipgloss.Style
	Avatar  lipgloss.Style
	Notice  lipgloss.Style
	Help    lipgloss.Style
	Button  lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00F3FF")),
		Welcome: lipgloss.NewStyle().Foreground(lipgloss.Color("#0AFF60")),
		Own:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5A2D82")).Padding(0, 1),
		Other:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A3A3A")).Padding(0, 1),
		Author:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BC13FE")),
		Avatar:  lipgloss.NewStyle().Faint(true),
		Notice:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF003C")),
		Help:    lipgloss.NewStyle().Faint(true),
		Button:  lipgloss.NewStyle().Bold(true).Padding(0, 2).Border(lipgloss.RoundedBorder()),
	}
}
