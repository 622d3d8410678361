// Package tui is the terminal frontend.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jsphweid/ceol/app"
	"github.com/jsphweid/ceol/playback"
	"github.com/jsphweid/ceol/view"
	"github.com/pkg/browser"
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#c9b48a"))
	activeTabStyle = tabStyle.Background(lipgloss.Color("#c9b48a")).Foreground(lipgloss.Color("#2b2118")).Bold(true)
	pageStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#d8ccb4")).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7a6a55"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d0573f")).Italic(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2b2118")).Background(lipgloss.Color("#c9b48a"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// refreshMsg tells the model the recorder changed outside Update, for
// example when playback ends or a page flip settles.
type refreshMsg struct{}

type openedMsg struct{ err error }

type editorField int

const (
	titleField editorField = iota
	typeField
	notationField
)

type Model struct {
	app     *app.App
	rec     *view.Recorder
	openURL func(url string) error

	snap  view.Snapshot
	state app.State

	search   textinput.Model
	url      textinput.Model
	title    textinput.Model
	tuneType textinput.Model
	notation textarea.Model
	field    editorField
	cursor   int
	err      error
	width    int
}

func New(a *app.App, rec *view.Recorder, openURL func(url string) error) Model {
	search := textinput.New()
	search.Placeholder = "Search title or type"
	search.Prompt = "/ "

	url := textinput.New()
	url.Placeholder = "https://..."
	url.Prompt = "URL "

	title := textinput.New()
	title.Placeholder = "Title"
	tuneType := textinput.New()
	tuneType.Placeholder = "Type"

	notation := textarea.New()
	notation.Placeholder = "X:1\nT:...\nK:D"
	notation.SetHeight(8)
	notation.ShowLineNumbers = false

	if openURL == nil {
		openURL = browser.OpenURL
	}
	m := Model{app: a, rec: rec, openURL: openURL, search: search, url: url, title: title, tuneType: tuneType, notation: notation}
	return m.refresh()
}

// Run drives the model until the user quits or ctx is done.
func Run(ctx context.Context, a *app.App, rec *view.Recorder) error {
	p := tea.NewProgram(New(a, rec, nil), tea.WithAltScreen(), tea.WithContext(ctx))
	// Send blocks while Update runs, and Update is where most changes
	// come from
	rec.Listen(func(view.Snapshot) { go p.Send(refreshMsg{}) })
	defer rec.Listen(nil)
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) refresh() Model {
	m.snap = m.rec.Snapshot()
	m.state = m.app.State()
	if m.cursor >= len(m.snap.Library) {
		m.cursor = len(m.snap.Library) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m.focus()
}

// focus gives keyboard focus to the input of the current section.
func (m Model) focus() Model {
	m.search.Blur()
	m.url.Blur()
	m.title.Blur()
	m.tuneType.Blur()
	m.notation.Blur()
	switch m.snap.Section {
	case app.Library:
		m.search.Focus()
	case app.PDF:
		m.url.Focus()
	case app.Editor:
		switch m.field {
		case titleField:
			m.title.Focus()
		case typeField:
			m.tuneType.Focus()
		default:
			m.notation.Focus()
		}
	}
	return m
}

func (m Model) dispatch(ev app.Event) Model {
	m.app.Dispatch(context.Background(), ev)
	return m.refresh()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return m.refresh(), nil
	case openedMsg:
		m.err = msg.err
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.notation.SetWidth(msg.Width - 4)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.app.Dispatch(context.Background(), app.StopPlayback{})
			return m, tea.Quit
		}
		if msg.String() == "esc" && m.snap.Section != app.Book {
			return m.dispatch(app.SelectSection{Section: app.Book}), nil
		}
		switch m.snap.Section {
		case app.Library:
			return m.updateLibrary(msg)
		case app.Editor:
			return m.updateEditor(msg)
		case app.PDF:
			return m.updatePDF(msg)
		default:
			return m.updateBook(msg)
		}
	}
	return m, nil
}

func (m Model) updateBook(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.app.Dispatch(context.Background(), app.StopPlayback{})
		return m, tea.Quit
	case "left", "h":
		return m.dispatch(app.PrevPage{}), nil
	case "right", "l":
		return m.dispatch(app.NextPage{}), nil
	case " ", "p":
		// preparation renders the whole tune; keep the UI responsive
		a := m.app
		return m, func() tea.Msg {
			a.Dispatch(context.Background(), app.TogglePlayback{})
			return refreshMsg{}
		}
	case "s":
		return m.dispatch(app.StopPlayback{}), nil
	case "i":
		return m.dispatch(app.SelectInstrument{Instrument: m.state.Instrument.Next()}), nil
	case "2", "L":
		return m.dispatch(app.SelectSection{Section: app.Library}), nil
	case "3", "e":
		return m.dispatch(app.SelectSection{Section: app.Editor}), nil
	case "4", "d":
		return m.dispatch(app.SelectSection{Section: app.PDF}), nil
	}
	return m, nil
}

func (m Model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.snap.Library)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if m.cursor < len(m.snap.Library) {
			return m.dispatch(app.OpenTune{Index: m.snap.Library[m.cursor].Index}), nil
		}
		return m, nil
	}
	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m = m.dispatch(app.Search{Query: m.search.Value()})
	}
	return m, cmd
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.field = (m.field + 1) % 3
		return m.focus(), nil
	case "shift+tab":
		m.field = (m.field + 2) % 3
		return m.focus(), nil
	case "ctrl+s":
		return m.dispatch(app.ApplyNotation{
			Title:    m.title.Value(),
			Type:     m.tuneType.Value(),
			Notation: m.notation.Value(),
		}), nil
	}

	var cmd tea.Cmd
	switch m.field {
	case titleField:
		m.title, cmd = m.title.Update(msg)
	case typeField:
		m.tuneType, cmd = m.tuneType.Update(msg)
	default:
		before := m.notation.Value()
		m.notation, cmd = m.notation.Update(msg)
		if m.notation.Value() != before {
			m = m.dispatch(app.EditNotation{Notation: m.notation.Value()})
		}
	}
	return m, cmd
}

func (m Model) updatePDF(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		m = m.dispatch(app.OpenDocument{URL: m.url.Value()})
		if strings.TrimSpace(m.url.Value()) == "" || m.snap.Document == "" {
			return m, nil
		}
		url, open := m.snap.Document, m.openURL
		return m, func() tea.Msg { return openedMsg{err: open(url)} }
	}
	var cmd tea.Cmd
	m.url, cmd = m.url.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.tabs())
	b.WriteString("\n\n")
	switch m.snap.Section {
	case app.Library:
		b.WriteString(m.libraryView())
	case app.Editor:
		b.WriteString(m.editorView())
	case app.PDF:
		b.WriteString(m.pdfView())
	default:
		b.WriteString(m.bookView())
	}
	if m.err != nil {
		b.WriteString("\n" + noticeStyle.Render(m.err.Error()))
	}
	return b.String()
}

func (m Model) tabs() string {
	names := map[app.Section]string{app.Book: "Book", app.Library: "Library", app.Editor: "ABC", app.PDF: "PDF"}
	var tabs []string
	for i, s := range app.Sections {
		label := fmt.Sprintf("%d %s", i+1, names[s])
		if s == m.snap.Section {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func scoreView(s view.Score) string {
	if s.Notice != "" {
		return noticeStyle.Render(s.Notice)
	}
	lines := []string{}
	if s.Title != "" {
		lines = append(lines, titleStyle.Render(s.Title), "")
	}
	lines = append(lines, s.Lines...)
	return strings.Join(lines, "\n")
}

func (m Model) bookView() string {
	pager := fmt.Sprintf("%s  %s  %s", m.snap.Pager.Position, titleStyle.Render(m.snap.Pager.Title), metaStyle.Render(m.snap.Pager.Type))
	switch m.snap.Flipping {
	case "next":
		pager += metaStyle.Render("  ⟶")
	case "prev":
		pager += metaStyle.Render("  ⟵")
	}

	status := "stopped"
	switch m.state.Playback {
	case playback.Preparing:
		status = "preparing..."
	case playback.Playing:
		status = "playing"
	}
	controls := fmt.Sprintf("[%s] %s", m.snap.Instrument, status)

	help := helpStyle.Render("←/→ page • space play/stop • s stop • i instrument • 2 library • 3 abc • 4 pdf • q quit")
	return lipgloss.JoinVertical(lipgloss.Left, pager, controls, pageStyle.Render(scoreView(m.snap.Score)), help)
}

func (m Model) libraryView() string {
	lines := []string{m.search.View(), ""}
	for i, e := range m.snap.Library {
		line := fmt.Sprintf("%-32s %s", e.Tune.Title, metaStyle.Render(e.Tune.Type))
		if i == m.cursor {
			line = selectedStyle.Render(fmt.Sprintf("%-32s", e.Tune.Title)) + " " + metaStyle.Render(e.Tune.Type)
		}
		lines = append(lines, line)
	}
	if len(m.snap.Library) == 0 {
		lines = append(lines, metaStyle.Render("no tunes"))
	}
	lines = append(lines, "", helpStyle.Render("↑/↓ select • enter open • esc back"))
	return strings.Join(lines, "\n")
}

func (m Model) editorView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.title.View(),
		m.tuneType.View(),
		m.notation.View(),
		pageStyle.Render(scoreView(m.snap.Preview)),
		helpStyle.Render("tab next field • ctrl+s add to book • esc back"),
	)
}

func (m Model) pdfView() string {
	lines := []string{m.url.View()}
	if m.snap.Document != "" {
		lines = append(lines, "", metaStyle.Render("opened "+m.snap.Document))
	}
	lines = append(lines, "", helpStyle.Render("enter open in browser • esc back"))
	return strings.Join(lines, "\n")
}
