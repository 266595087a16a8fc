package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/dropwatch/internal/digest"
)

func renderOpeningScreen(d *digest.Digest, height int) string {
	var lines []string

	title := digestTitleStyle.Render(fmt.Sprintf("%s · %s", d.Greeting, d.DateLabel))
	lines = append(lines, "", "  "+title, "")

	lines = append(lines, "  "+digestMetaStyle.Render(fmt.Sprintf("Opportunities scanned: %d", d.Scanned)))
	lines = append(lines, "  "+digestMetaStyle.Render(fmt.Sprintf("Selected for digest:   %d", d.Selected)))
	if d.ActiveSources != "" {
		lines = append(lines, "  "+digestMetaStyle.Render("Most active: "+d.ActiveSources))
	}
	lines = append(lines, "")

	if len(d.Tokens) > 0 {
		lines = append(lines, "  "+digestBodyStyle.Render("Trending tokens: "+countList(d.Tokens, "$")))
	}
	if len(d.Projects) > 0 {
		lines = append(lines, "  "+digestBodyStyle.Render("Trending projects: "+countList(d.Projects, "")))
	}
	if len(d.Themes) > 0 {
		lines = append(lines, "  "+digestBodyStyle.Render("Themes: "+strings.Join(d.Themes, ", ")))
	}
	if len(d.Upcoming) > 0 {
		lines = append(lines, "", "  "+digestBodyStyle.Render("Deadlines ahead:"))
		for _, o := range d.Upcoming {
			lines = append(lines, "  "+digestMetaStyle.Render(
				fmt.Sprintf("  %s  %s", o.Deadline.Format("Jan 2"), o.Title())))
		}
	}

	content := strings.Join(lines, "\n")
	contentLines := strings.Count(content, "\n") + 1
	topPad := (height - contentLines) / 3
	if topPad < 0 {
		topPad = 0
	}

	return strings.Repeat("\n", topPad) + content
}

func countList(cs []digest.Count, prefix string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s%s (%d)", prefix, c.Name, c.Count)
	}
	return strings.Join(parts, ", ")
}

func renderCardView(card digest.Card, total int, width, height int, showBreakdown bool) string {
	cardWidth := width - 8
	if cardWidth < 30 {
		cardWidth = 30
	}

	o := card.Opportunity
	var body []string

	body = append(body, digestMetaStyle.Render(o.Source+" · "+o.Published.Format("Jan 2")))
	body = append(body, digestTitleStyle.Render(o.Title()))
	body = append(body, "")

	meta := kindStyle(o.Kind).Render(o.Kind) + digestMetaStyle.Render("  ·  ") +
		scoreStyle(o.ConfidenceScore).Render(fmt.Sprintf("confidence %.0f", o.ConfidenceScore))
	switch {
	case card.DaysLeft == 0:
		meta += digestMetaStyle.Render("  ·  ends today")
	case card.DaysLeft > 0:
		meta += digestMetaStyle.Render(fmt.Sprintf("  ·  %dd left", card.DaysLeft))
	}
	body = append(body, meta)
	body = append(body, "", renderFields(&o, cardWidth-2))

	if showBreakdown {
		body = append(body, "", renderBreakdown(&o))
	}

	cardBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorActiveBdr).
		Padding(0, 1).
		Width(cardWidth).
		Render(strings.Join(body, "\n"))

	counter := digestMetaStyle.Render(fmt.Sprintf("%d/%d", card.Index, total))

	lines := []string{"", "  " + counter}
	for _, l := range strings.Split(cardBox, "\n") {
		lines = append(lines, "  "+l)
	}

	content := strings.Join(lines, "\n")
	contentLines := strings.Count(content, "\n") + 1
	topPad := (height - contentLines) / 3
	if topPad < 0 {
		topPad = 0
	}

	return strings.Repeat("\n", topPad) + content
}
