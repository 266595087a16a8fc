package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/dropwatch/internal/domain"
	"github.com/matheuskafuri/dropwatch/internal/signal"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

func renderPreview(o *store.Opportunity, width, height, scroll int, showBreakdown bool) string {
	if o == nil {
		return lipglossCenter("Select an opportunity", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(o.Title())
	source := previewSourceStyle.Render(
		fmt.Sprintf("%s · %s · %s", o.Kind, o.Source, o.Published.Format("Jan 2, 2006")),
	)

	sections := []string{title, source, renderFields(o, contentWidth)}

	if showBreakdown {
		sections = append(sections, "", renderBreakdown(o))
	}

	text := o.Text
	if text == "" {
		text = "(No post text)"
	}
	body := previewBodyStyle.Width(contentWidth).Render(wrapText(text, contentWidth))
	link := previewLinkStyle.Width(contentWidth).Render("Source: " + o.SourceURL)
	sections = append(sections, "", body, "", link)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func renderFields(o *store.Opportunity, width int) string {
	deadline := ""
	if o.Deadline != nil {
		deadline = o.Deadline.Format("Jan 2, 2006")
	}
	rows := []struct{ label, value string }{
		{"Confidence", fmt.Sprintf("%.0f", o.ConfidenceScore)},
		{"Project", domain.Deref(o.ProjectName)},
		{"Token", domain.Deref(o.TokenSymbol)},
		{"Deadline", deadline},
		{"Steps", domain.Deref(o.ParticipationSteps)},
		{"About", domain.Deref(o.Description)},
	}

	var lines []string
	for _, r := range rows {
		v := r.value
		if v == "" {
			v = fieldEmptyStyle.Render("-")
		} else {
			v = truncateStr(v, width-12)
		}
		lines = append(lines, fieldLabelStyle.Render(fmt.Sprintf("%-11s", r.label))+" "+v)
	}
	return strings.Join(lines, "\n")
}

func renderBreakdown(o *store.Opportunity) string {
	b := signal.ScoreWithBreakdown(o.Fields(), o.Text)

	lines := []string{
		breakdownTitleStyle.Render("Confidence Breakdown"),
		fmt.Sprintf("  Project:  %5.1f", b.Project),
		fmt.Sprintf("  Token:    %5.1f", b.Token),
		fmt.Sprintf("  Deadline: %5.1f", b.Deadline),
		fmt.Sprintf("  Steps:    %5.1f", b.Steps),
		fmt.Sprintf("  Spam:     %5.1f", -b.SpamPenalty),
	}
	if len(b.SpamHits) > 0 {
		lines = append(lines, "  ("+strings.Join(b.SpamHits, ", ")+")")
	}
	lines = append(lines, fmt.Sprintf("  Final:    %5.1f", b.Final))

	styled := make([]string, len(lines))
	for i, l := range lines {
		styled[i] = previewBodyStyle.Render(l)
	}
	return strings.Join(styled, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
