package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/dropwatch/internal/browser"
	"github.com/matheuskafuri/dropwatch/internal/digest"
	"github.com/matheuskafuri/dropwatch/internal/monitor"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeHome mode = iota
	modeNormal
	modeSearch
	modeFilter
	modeHelp
	modeDigestOpening
	modeDigestCard
)

// scoreSteps are the minimum-confidence presets cycled with "s".
var scoreSteps = []float64{0, 40, 60, 80}

// Querier loads opportunities for display.
type Querier interface {
	GetOpportunities(opts store.QueryOpts) ([]store.Opportunity, error)
}

// Scanner runs one fetch-extract-alert cycle.
type Scanner interface {
	RunOnce(ctx context.Context) (monitor.Report, error)
}

type App struct {
	db      Querier
	scanner Scanner
	ops     []store.Opportunity
	cursor  int
	focus   focusPane
	mode    mode

	width  int
	height int

	searchInput textinput.Model
	spinner     spinner.Model
	filterBar   filterBar

	refreshing    bool
	since         time.Time
	scoreStep     int
	previewScroll int
	showBreakdown bool
	currentDate   string
	lastReport    string
	updateVersion string
	err           error

	digest     *digest.Digest
	cardCursor int
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	DB            Querier
	Scanner       Scanner
	Sources       []string
	Since         time.Time
	MinScore      float64
	BrowseMode    bool
	Digest        *digest.Digest
	UpdateVersion string
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search opportunities..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	startMode := modeHome
	if opts.BrowseMode {
		startMode = modeNormal
	}

	step := 0
	for i, s := range scoreSteps {
		if opts.MinScore >= s {
			step = i
		}
	}

	return &App{
		db:            opts.DB,
		scanner:       opts.Scanner,
		since:         opts.Since,
		scoreStep:     step,
		filterBar:     newFilterBar(opts.Sources),
		searchInput:   ti,
		spinner:       sp,
		currentDate:   time.Now().Format("Jan 2"),
		mode:          startMode,
		digest:        opts.Digest,
		updateVersion: opts.UpdateVersion,
	}
}

func (a *App) Init() tea.Cmd {
	if a.mode == modeNormal {
		return a.loadCmd()
	}
	return nil
}

func (a *App) minScore() float64 {
	return scoreSteps[a.scoreStep]
}

func (a *App) hasDigest() bool {
	return a.digest != nil && len(a.digest.Cards) > 0
}

// loadCmd captures current query state into the closure to avoid races.
func (a *App) loadCmd() tea.Cmd {
	opts := store.QueryOpts{
		Since:    a.since,
		MinScore: a.minScore(),
		Sources:  a.filterBar.activeSources(),
		Kind:     string(a.filterBar.kind),
		Search:   a.searchInput.Value(),
	}
	db := a.db
	return func() tea.Msg {
		ops, err := db.GetOpportunities(opts)
		if err != nil {
			return loadErrMsg{err: err}
		}
		return opportunitiesLoadedMsg{ops: ops}
	}
}

func (a *App) scanCmd() tea.Cmd {
	s := a.scanner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		rep, err := s.RunOnce(ctx)
		return refreshDoneMsg{report: rep, err: err}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return loadErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) selected() *store.Opportunity {
	if len(a.ops) == 0 || a.cursor >= len(a.ops) {
		return nil
	}
	return &a.ops[a.cursor]
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case opportunitiesLoadedMsg:
		a.ops = msg.ops
		if a.cursor >= len(a.ops) {
			a.cursor = max(0, len(a.ops)-1)
		}
		return a, nil

	case loadErrMsg:
		a.err = msg.err
		return a, nil

	case refreshDoneMsg:
		a.refreshing = false
		if msg.err != nil {
			a.err = msg.err
		}
		a.lastReport = fmt.Sprintf("+%d new", msg.report.Candidates)
		if n := len(msg.report.FetchErrors); n > 0 {
			a.lastReport += fmt.Sprintf(", %d source errors", n)
		}
		return a, a.loadCmd()

	case spinner.TickMsg:
		if a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeHome:
		return a.handleHomeKey(msg)
	case modeDigestOpening:
		return a.handleDigestOpeningKey(msg)
	case modeDigestCard:
		return a.handleDigestCardKey(msg)
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.ops)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if o := a.selected(); o != nil {
			return a, openBrowserCmd(o.SourceURL)
		}
		return a, nil
	case "i":
		a.showBreakdown = !a.showBreakdown
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeFilter
		a.filterBar.filterMode = true
		return a, nil
	case "t":
		a.filterBar.cycleKind()
		a.cursor = 0
		return a, a.loadCmd()
	case "s":
		a.scoreStep = (a.scoreStep + 1) % len(scoreSteps)
		a.cursor = 0
		return a, a.loadCmd()
	case "r":
		if !a.refreshing && a.scanner != nil {
			a.refreshing = true
			return a, tea.Batch(a.scanCmd(), a.spinner.Tick)
		}
		return a, nil
	case "h":
		a.mode = modeHome
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "d", "1":
		if a.hasDigest() {
			a.mode = modeDigestOpening
			return a, nil
		}
		a.mode = modeNormal
		return a, a.loadCmd()
	case "e", "2":
		a.mode = modeNormal
		return a, a.loadCmd()
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleDigestOpeningKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.mode = modeDigestCard
		a.cardCursor = 0
		return a, nil
	case "q":
		return a, tea.Quit
	case "e":
		a.mode = modeNormal
		return a, a.loadCmd()
	case "h":
		a.mode = modeHome
		return a, nil
	}
	return a, nil
}

func (a *App) handleDigestCardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n", "j", "right":
		if a.cardCursor < len(a.digest.Cards)-1 {
			a.cardCursor++
			a.showBreakdown = false
		}
		return a, nil
	case "p", "k", "left":
		if a.cardCursor > 0 {
			a.cardCursor--
			a.showBreakdown = false
		}
		return a, nil
	case "o", "enter":
		return a, openBrowserCmd(a.digest.Cards[a.cardCursor].Opportunity.SourceURL)
	case "i":
		a.showBreakdown = !a.showBreakdown
		return a, nil
	case "e":
		a.mode = modeNormal
		return a, a.loadCmd()
	case "h":
		a.mode = modeHome
		return a, nil
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		return a, a.loadCmd()
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.cursor = 0
		return a, a.loadCmd()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.filterBar.filterMode = false
		return a, nil
	case "left", "h":
		if a.filterBar.filterCursor > 0 {
			a.filterBar.filterCursor--
		}
		return a, nil
	case "right", "l":
		if a.filterBar.filterCursor < len(a.filterBar.sources)-1 {
			a.filterBar.filterCursor++
		}
		return a, nil
	case "t":
		a.filterBar.cycleKind()
		a.cursor = 0
		return a, a.loadCmd()
	case " ", "enter":
		a.filterBar.toggleCurrent()
		a.cursor = 0
		return a, a.loadCmd()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.filterBar.sources) {
			a.filterBar.toggle(a.filterBar.sources[idx])
			a.cursor = 0
			return a, a.loadCmd()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderBottomBar(hints, a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  dropwatch")
	}

	switch a.mode {
	case modeHome:
		return a.withBottomBar(renderHomeScreen(a.width, a.height, a.hasDigest(), a.updateVersion), "d digest  e browse  q quit")
	case modeDigestOpening:
		if a.digest != nil {
			return a.withBottomBar(renderOpeningScreen(a.digest, a.height), "enter start  e browse  h home  q quit")
		}
	case modeDigestCard:
		if a.hasDigest() && a.cardCursor < len(a.digest.Cards) {
			return a.withBottomBar(
				renderCardView(a.digest.Cards[a.cardCursor], len(a.digest.Cards), a.width, a.height, a.showBreakdown),
				"n next  p prev  o open  i breakdown  e browse  h home  q quit",
			)
		}
	case modeHelp:
		return a.withBottomBar(a.renderHelp(), "? close  h home  q quit")
	}

	headerHeight := 1
	filterHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - filterHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.4)
	previewWidth := a.width - listWidth - 1

	if contentHeight < 3 {
		contentHeight = 3
	}

	headerLeft := headerStyle.Render("dropwatch")
	headerRight := headerDateStyle.Render(a.currentDate)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	filter := a.filterBar.render(a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	innerListW := listWidth - 4 // border + padding
	listContent := renderList(a.ops, a.cursor, contentHeight, innerListW)

	listStyle, previewStyle := listPaneStyle, previewPaneActiveStyle
	if a.focus == focusList {
		listStyle, previewStyle = listPaneActiveStyle, previewPaneStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	previewContent := renderPreview(a.selected(), previewWidth-4, contentHeight, a.previewScroll, a.showBreakdown)
	previewPane := previewStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(statusInfo{
		count:       len(a.ops),
		filterLabel: a.filterBar.activeLabel(),
		minScore:    a.minScore(),
		searching:   a.mode == modeSearch,
		refreshing:  a.refreshing,
		lastReport:  a.lastReport,
	}, a.width)

	if a.refreshing {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filter, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("dropwatch")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through opportunities\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open source post in browser\n" +
		"  i             Toggle confidence breakdown\n" +
		"  r             Run a scan now\n" +
		"  /             Search post text\n" +
		"  t             Cycle kind filter\n" +
		"  s             Cycle minimum confidence\n" +
		"  f             Toggle source filter mode\n\n" +
		dim.Render("Filter Mode") + "\n" +
		"  ←/→, h/l     Move between sources\n" +
		"  space/enter   Toggle source\n" +
		"  1-9           Toggle source by number\n" +
		"  esc, f        Exit filter mode\n\n" +
		dim.Render("General") + "\n" +
		"  h             Go to home screen\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
