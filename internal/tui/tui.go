// Package tui is the interactive todo view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/ui"
	"github.com/Makepad-fr/tada-remote/internal/view"
)

// Remote results delivered back to the event loop.
type (
	loadedMsg  struct{ err error }
	addedMsg   struct {
		title string
		id    int
		err   error
	}
	deletedMsg struct {
		id  int
		err error
	}
)

type Model struct {
	ctx  context.Context
	view *view.View
	keys keyMap

	list    list.Model
	input   textinput.Model
	spinner spinner.Model

	adding bool
	// submitting is set while the add request is in flight.
	submitting bool
	inflight   int

	status    string
	statusErr bool

	width, height int
}

// New builds the model. Remote calls made by its commands use ctx.
func New(ctx context.Context, v *view.View) Model {
	keys := defaultKeys()
	t := ui.Current()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = ui.Header(nil)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = lipgloss.NewStyle()
	l.Styles.HelpStyle = t.Help
	l.Styles.PaginationStyle = t.Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.short

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New task..."
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = t.Accent

	m := Model{
		ctx:      ctx,
		view:     v,
		keys:     keys,
		list:     l,
		input:    ti,
		spinner:  sp,
		inflight: 1, // the load issued by Init
		width:    80,
		height:   24,
	}
	m.resize()
	return m
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, v *view.View) error {
	p := tea.NewProgram(New(ctx, v), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	ctx, v := m.ctx, m.view
	return func() tea.Msg { return loadedMsg{err: v.Load(ctx)} }
}

func (m Model) addCmd(title string) tea.Cmd {
	ctx, v := m.ctx, m.view
	return func() tea.Msg {
		it, err := v.Add(ctx, title)
		return addedMsg{title: title, id: it.ID, err: err}
	}
}

func (m Model) deleteCmd(id int) tea.Cmd {
	ctx, v := m.ctx, m.view
	return func() tea.Msg { return deletedMsg{id: id, err: v.Delete(ctx, id)} }
}

// start counts a request as in flight and restarts the spinner if idle.
func (m *Model) start(cmd tea.Cmd) tea.Cmd {
	m.inflight++
	if m.inflight == 1 {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

func (m *Model) finish() {
	if m.inflight > 0 {
		m.inflight--
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status, m.statusErr = msg, isErr
}

// sync rebuilds the list from the view's collection.
func (m *Model) sync() tea.Cmd {
	items := m.view.Items()
	m.list.Title = ui.Header(items)
	return m.list.SetItems(toListItems(items))
}

func (m *Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

func (m *Model) resize() {
	// border + padding on both sides
	w := m.width - 4
	// border, progress bar, status line
	h := m.height - 4
	if m.adding {
		h -= 4
	}
	m.list.SetSize(max(w, 10), max(h, 3))
	m.input.Width = max(w-6, 10)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if m.inflight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.finish()
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("loaded %d items", len(m.view.Items())), false)
		return m, m.sync()

	case addedMsg:
		m.finish()
		m.submitting = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("added #%d", msg.id), false)
		m.input.SetValue("")
		m.input.Blur()
		m.adding = false
		m.resize()
		cmd := m.sync()
		m.list.Select(0)
		return m, cmd

	case deletedMsg:
		m.finish()
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("deleted #%d", msg.id), false)
		return m, m.sync()

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Add):
			m.adding = true
			m.setStatus("", false)
			m.resize()
			return m, m.input.Focus()
		case key.Matches(msg, m.keys.Toggle):
			if it, ok := m.selected(); ok {
				m.view.ToggleComplete(it.item.ID)
				return m, m.sync()
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if it, ok := m.selected(); ok {
				return m, m.start(m.deleteCmd(it.item.ID))
			}
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			m.setStatus("", false)
			return m, m.start(m.loadCmd())
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		if m.submitting {
			return m, nil
		}
		title := m.input.Value()
		if strings.TrimSpace(title) == "" {
			m.setStatus(view.ErrEmptyTitle.Error(), true)
			return m, nil
		}
		m.setStatus("", false)
		m.submitting = true
		return m, m.start(m.addCmd(title))
	case key.Matches(msg, m.keys.Cancel):
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		m.setStatus("", false)
		m.resize()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	t := ui.Current()
	items := m.view.Items()
	done, _ := model.Stats(items)

	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(t.Muted.Render(ui.ProgressBar(done, len(items), 28)))

	if m.adding {
		box := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		b.WriteString("\n")
		b.WriteString(box.Render("Add new item\n" + m.input.View()))
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return ui.Panel([]string{b.String()})
}

func (m Model) statusLine() string {
	t := ui.Current()
	switch {
	case m.inflight > 0 && !m.view.Loaded():
		return m.spinner.View() + " loading"
	case m.inflight > 0:
		return m.spinner.View() + " syncing"
	case m.status != "" && m.statusErr:
		return t.Error.Render("✖ " + m.status)
	case m.status != "":
		return t.Muted.Render(m.status)
	}
	return ""
}
