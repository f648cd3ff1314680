package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytstream/internal/formatter"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
	DetailView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	svc    services.Service
	width  int
	height int

	input        textinput.Model
	results      list.Model
	query        string
	continuation string

	asset   *models.MediaAsset
	loading bool
	status  string
	err     error

	now  func() time.Time
	open func(string) error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model backed by svc.
func NewModel(ctx context.Context, svc services.Service) *Model {
	input := textinput.New()
	input.Placeholder = "title and artist"
	input.Prompt = "search › "
	input.CharLimit = 200
	input.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.SetShowHelp(false)

	return &Model{
		ctx:     ctx,
		view:    SearchView,
		svc:     svc,
		input:   input,
		results: results,
		now:     time.Now,
		open:    shared.OpenURL,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-6)
		m.input.Width = max(msg.Width-12, 10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		data := msg.data.(searchDone)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			if m.view == SearchView {
				return m, m.input.Focus()
			}
			return m, nil
		}
		m.err = nil
		m.query = data.query
		m.continuation = data.page.Continuation
		items := resultItems(data.page.Results)
		if data.append {
			items = append(m.results.Items(), items...)
		}
		cmd := m.results.SetItems(items)
		m.results.Title = fmt.Sprintf("Results for '%s'", data.query)
		m.status = fmt.Sprintf("%d results", len(items))
		m.view = ResultsView
		return m, cmd

	case MsgAssetResolved:
		data := msg.data.(assetResolved)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.asset = data.asset
		m.view = DetailView
		return m, tick()

	case MsgTick:
		if m.view != DetailView {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if len(m.results.Items()) > 0 {
			m.view = ResultsView
			m.input.Blur()
		}
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.input.Value())
		if q == "" || m.loading {
			return m, nil
		}
		m.loading = true
		m.status = "searching..."
		m.input.Blur()
		return m, m.search(q, "", false)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		m.err = nil
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.next):
		if m.continuation == "" || m.loading {
			m.status = "no more results"
			return m, nil
		}
		m.loading = true
		m.status = "loading next page..."
		return m, m.search(m.query, m.continuation, true)
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.results.SelectedItem().(resultItem); ok && !m.loading {
			m.loading = true
			m.status = "resolving " + it.result.ID + "..."
			return m, m.resolve(it.result.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ResultsView
		m.asset = nil
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if m.asset != nil && !m.loading {
			m.loading = true
			return m, m.resolve(m.asset.ID)
		}
	case key.Matches(msg, m.keys.open):
		if m.asset != nil && m.asset.Playable() {
			if err := m.open(m.asset.StreamURL); err != nil {
				m.err = err
			}
		}
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) search(query, continuation string, appendPage bool) tea.Cmd {
	return func() tea.Msg {
		page, err := m.svc.Search(m.ctx, query, continuation)
		return searchDoneMsg(query, page, appendPage, err)
	}
}

func (m *Model) resolve(id string) tea.Cmd {
	return func() tea.Msg {
		asset, err := m.svc.Get(m.ctx, id)
		return assetResolvedMsg(asset, err)
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case ResultsView:
		body = m.renderResults()
	case DetailView:
		body = m.renderDetail()
	}

	if m.err != nil {
		body += "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return body
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search")
	status := ""
	if m.loading {
		status = "\n" + styles.help.Render(m.status)
	}
	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, m.input.View(), status, helpView)
}

func (m *Model) renderResults() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	if m.continuation != "" {
		helpKeys = append([]key.Binding{m.keys.next}, helpKeys...)
	}
	return fmt.Sprintf("%s\n%s\n%s", m.results.View(), styles.help.Render(m.status), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	a := m.asset
	if a == nil {
		return styles.warn.Render("No asset selected")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(a.Title))
	b.WriteString("\n")
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render(label), value)
	}
	row("Author", a.Author)
	row("ID", a.ID)
	if a.DurationText != "" {
		row("Duration", a.DurationText)
	} else {
		row("Duration", shared.FormatDuration(a.DurationMs/1000))
	}

	if a.Playable() {
		expiry := formatter.Expiry(a.ExpiresAtMs, m.now())
		if expiry == "expired" {
			expiry = styles.warn.Render(expiry)
		} else {
			expiry = styles.ok.Render(expiry)
		}
		row("Expires", expiry)
		row("Stream", a.StreamURL)
	} else {
		row("Stream", styles.warn.Render("no playable format"))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.open, m.keys.reload, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}

// ViewState returns the current view.
func (m *Model) ViewState() ViewState { return m.view }

// Run starts the TUI program on the alternate screen.
func Run(ctx context.Context, svc services.Service) error {
	p := tea.NewProgram(NewModel(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
