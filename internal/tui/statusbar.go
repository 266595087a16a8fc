package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type statusInfo struct {
	count       int
	filterLabel string
	minScore    float64
	searching   bool
	refreshing  bool
	lastReport  string
}

func renderStatusBar(s statusInfo, width int) string {
	left := fmt.Sprintf(" %d opportunities", s.count)
	if s.filterLabel != "All" {
		left += " · " + s.filterLabel
	}
	if s.minScore > 0 {
		left += fmt.Sprintf(" · ≥%.0f", s.minScore)
	}
	if s.lastReport != "" {
		left += " · " + s.lastReport
	}

	right := " / search  f filter  t kind  s score  r scan  q quit "

	if s.searching {
		right = " esc cancel  enter search "
	}
	if s.refreshing {
		left += " (scanning...)"
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

func renderBottomBar(hints string, width int) string {
	right := " " + hints + " "

	gap := width - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(width).Render(fmt.Sprintf("%*s", gap, "") + right)
}
