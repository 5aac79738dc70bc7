package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type SnapshotProvider interface {
	GetSnapshot() Snapshot
}

type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

type Model struct {
	provider        SnapshotProvider
	opener          URLOpener
	snapshot        Snapshot
	refreshInterval time.Duration
	spinner         spinner.Model
	selected        int // -1 = none, otherwise index in snapshot.PRs
	openErr         string
}

type tickMsg time.Time

type openedMsg struct {
	err error
}

func NewModel(provider SnapshotProvider, opener URLOpener, refreshInterval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return Model{
		provider:        provider,
		opener:          opener,
		snapshot:        provider.GetSnapshot(),
		refreshInterval: refreshInterval,
		spinner:         s,
		selected:        -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.refreshInterval), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.refresh()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.snapshot.PRs)-1 {
				m.selected++
			}
		case "enter", "o":
			if m.selected >= 0 && m.selected < len(m.snapshot.PRs) {
				return m, openCmd(m.opener, m.snapshot.PRs[m.selected].URL)
			}
		}
		return m, nil

	case openedMsg:
		m.openErr = ""
		if msg.err != nil {
			m.openErr = msg.err.Error()
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd(m.refreshInterval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// refresh takes a new snapshot and keeps the selection within the PR list.
func (m *Model) refresh() {
	m.snapshot = m.provider.GetSnapshot()
	if m.selected == -1 && len(m.snapshot.PRs) > 0 {
		m.selected = 0
	}
	if m.selected >= len(m.snapshot.PRs) {
		m.selected = len(m.snapshot.PRs) - 1
	}
}

func (m Model) View() string {
	return renderView(m.snapshot, m.selected, m.spinner.View(), m.openErr)
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func openCmd(opener URLOpener, url string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: opener.OpenURL(context.Background(), url)}
	}
}
