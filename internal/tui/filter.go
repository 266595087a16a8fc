package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/dropwatch/internal/classify"
)

type filterBar struct {
	sources      []string
	active       map[string]bool
	kind         classify.Kind // "" = all kinds
	filterMode   bool
	filterCursor int
}

func newFilterBar(sources []string) filterBar {
	return filterBar{
		sources: sources,
		active:  make(map[string]bool),
	}
}

func (f *filterBar) toggle(source string) {
	if f.active[source] {
		delete(f.active, source)
	} else {
		f.active[source] = true
	}
}

func (f *filterBar) toggleCurrent() {
	if f.filterCursor < len(f.sources) {
		f.toggle(f.sources[f.filterCursor])
	}
}

// cycleKind steps through all kinds, then back to no kind filter.
func (f *filterBar) cycleKind() {
	kinds := classify.AllKinds()
	if f.kind == "" {
		f.kind = kinds[0]
		return
	}
	for i, k := range kinds {
		if k == f.kind {
			if i+1 < len(kinds) {
				f.kind = kinds[i+1]
			} else {
				f.kind = ""
			}
			return
		}
	}
	f.kind = ""
}

func (f *filterBar) activeSources() []string {
	if len(f.active) == 0 {
		return nil // nil = all sources
	}
	var out []string
	for _, s := range f.sources {
		if f.active[s] {
			out = append(out, s)
		}
	}
	return out
}

func (f *filterBar) activeLabel() string {
	var parts []string
	if f.kind != "" {
		parts = append(parts, string(f.kind))
	}
	if active := f.activeSources(); active != nil {
		parts = append(parts, strings.Join(active, ", "))
	}
	if len(parts) == 0 {
		return "All"
	}
	return strings.Join(parts, " · ")
}

func (f *filterBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string

	kindLabel := "any kind"
	if f.kind != "" {
		kindLabel = string(f.kind)
	}
	parts = append(parts, kindTabStyle.Render(kindLabel))

	if len(f.active) == 0 {
		parts = append(parts, tabActiveStyle.Render("All"))
	} else {
		parts = append(parts, tabInactiveStyle.Render("All"))
	}

	for i, s := range f.sources {
		style := tabInactiveStyle
		if f.active[s] {
			style = tabActiveStyle
		}
		label := s
		if f.filterMode && i == f.filterCursor {
			label = "[" + s + "]"
		}
		parts = append(parts, style.Render(label))
	}

	// Stop adding tabs once the row would overflow.
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
