package tui

import "time"

type Snapshot struct {
	Timestamp           time.Time
	User                string
	PRs                 []PRState
	ActiveNotifications int
	LastPoll            time.Time
	LastError           string
}

type PRState struct {
	URL       string
	Title     string
	Branch    string
	Status    string // errored|merge_conflict|is_behind|running_checks|in_draft|requires_approval|ready_to_merge|merged
	Messages  []string
	UpdatedAt time.Time
}
