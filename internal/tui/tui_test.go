package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	snap Snapshot
}

func (p *staticProvider) GetSnapshot() Snapshot { return p.snap }

type recordingOpener struct {
	opened []string
	err    error
}

func (o *recordingOpener) OpenURL(_ context.Context, url string) error {
	o.opened = append(o.opened, url)
	return o.err
}

func twoPRs() Snapshot {
	return Snapshot{
		User: "octocat",
		PRs: []PRState{
			{URL: "https://github.com/o/r/pull/1", Title: "First", Branch: "one", Status: "errored", Messages: []string{"Failed lint", "Failed test"}},
			{URL: "https://github.com/o/r/pull/2", Title: "Second", Branch: "two", Status: "ready_to_merge", Messages: []string{"Ready to merge"}},
		},
		ActiveNotifications: 3,
		LastPoll:            time.Now().Add(-5 * time.Second),
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_SelectAndOpen(t *testing.T) {
	t.Parallel()

	opener := &recordingOpener{}
	m := NewModel(&staticProvider{snap: twoPRs()}, opener, time.Second)

	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 0, m.selected)

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.selected)

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []string{"https://github.com/o/r/pull/2"}, opener.opened)

	m, _ = update(t, m, msg)
	assert.Empty(t, m.openErr)

	m, _ = update(t, m, key("up"))
	m, _ = update(t, m, key("up"))
	assert.Equal(t, 0, m.selected)
}

func TestModel_OpenErrorIsShown(t *testing.T) {
	t.Parallel()

	m := NewModel(&staticProvider{snap: twoPRs()}, &recordingOpener{}, time.Second)

	m, _ = update(t, m, openedMsg{err: errors.New("no browser")})

	assert.Contains(t, m.View(), "Open failed: no browser")
}

func TestModel_SelectionFollowsShrinkingList(t *testing.T) {
	t.Parallel()

	provider := &staticProvider{snap: twoPRs()}
	m := NewModel(provider, &recordingOpener{}, time.Second)
	m, _ = update(t, m, tickMsg(time.Now()))
	m, _ = update(t, m, key("down"))

	provider.snap.PRs = provider.snap.PRs[:1]
	m, _ = update(t, m, key("r"))
	assert.Equal(t, 0, m.selected)

	provider.snap.PRs = nil
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, -1, m.selected)
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()

	m := NewModel(&staticProvider{}, &recordingOpener{}, time.Second)

	_, cmd := update(t, m, key("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderView(t *testing.T) {
	t.Parallel()

	snap := twoPRs()
	snap.LastError = "gh: rate limited"

	out := renderView(snap, 1, "*", "")

	assert.Contains(t, out, "octocat")
	assert.Contains(t, out, "2 PRs")
	assert.Contains(t, out, "3 notifications")
	assert.Contains(t, out, "First (one)")
	assert.Contains(t, out, "Failed test")
	assert.Contains(t, out, "Last poll failed: gh: rate limited")
	assert.Contains(t, out, "ago")
}

func TestRenderView_Empty(t *testing.T) {
	t.Parallel()

	out := renderView(Snapshot{}, -1, "*", "")

	assert.Contains(t, out, "(no open PRs)")
	assert.Contains(t, out, "Last poll: never")
}

func TestRenderPRs_TruncatesLongTitles(t *testing.T) {
	t.Parallel()

	long := PRState{Title: "A very long pull request title that keeps going well past the sixty column limit", Branch: "b"}

	out := renderPRs([]PRState{long}, -1)

	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "column limit")
}
