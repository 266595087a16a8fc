package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/dropwatch/internal/store"
)

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

func renderListItem(o store.Opportunity, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	score := scoreStyle(o.ConfidenceScore).Render(fmt.Sprintf("%3.0f", o.ConfidenceScore))
	label := truncateStr(o.Title(), width-8)

	var title string
	if selected {
		title = itemSelectedStyle.Render("> ") + score + " " + itemSelectedStyle.Render(label)
	} else {
		title = "  " + score + " " + itemTitleStyle.Render(label)
	}

	meta := "  " + kindStyle(o.Kind).Render(o.Kind) + " " +
		itemSourceStyle.Render(o.Source) + " " +
		itemTimeStyle.Render("· "+relativeTime(o.Published))
	if o.Notified {
		meta += itemTimeStyle.Render(" · sent")
	}

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(ops []store.Opportunity, cursor int, height int, width int) string {
	if len(ops) == 0 {
		return lipglossCenter("No opportunities found", width, height)
	}

	// Each item is 2 lines + 1 blank line
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(ops) {
		end = len(ops)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(ops[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
