package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var asciiLogo = []string{
	`     _                                _       _     `,
	`  __| |_ __ ___  _ ____      ____ _| |_ ___| |__  `,
	` / _' | '__/ _ \| '_ \ \ /\ / / _' | __/ __| '_ \ `,
	`| (_| | | | (_) | |_) \ V  V / (_| | || (__| | | |`,
	` \__,_|_|  \___/| .__/ \_/\_/ \__,_|\__\___|_| |_|`,
	`                |_|                               `,
}

func renderHomeScreen(width, height int, hasDigest bool, updateVersion string) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorAccent)
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(colorText)

	var lines []string
	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	lines = append(lines, "", "")

	if hasDigest {
		lines = append(lines, "          "+keyStyle.Render("[d]")+"  "+labelStyle.Render("Digest"))
	}
	lines = append(lines, "          "+keyStyle.Render("[e]")+"  "+labelStyle.Render("Browse opportunities"))
	lines = append(lines, "")
	lines = append(lines, "          "+keyStyle.Render("[q]")+"  "+labelStyle.Render("Quit"))

	if updateVersion != "" {
		lines = append(lines, "")
		lines = append(lines, "          "+logoStyle.Render("Update available: v"+updateVersion))
	}

	content := strings.Join(lines, "\n")
	contentHeight := strings.Count(content, "\n") + 1

	topPad := (height - contentHeight) / 3
	if topPad < 0 {
		topPad = 0
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}
