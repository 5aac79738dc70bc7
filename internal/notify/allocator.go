package notify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/marcin-skalski/git-on-with-it/internal/metrics"
)

type slot struct {
	index int
	// token identifies one allocation of the slot, so a late resolution can tell whether the
	// slot was handed to someone else in the meantime.
	token uint64
}

// Allocator maps desired notifications onto a small pool of backend groups. Groups are
// named {salt}_{index} and the lowest free index is always used first.
type Allocator struct {
	backend Backend
	logger  *slog.Logger
	metrics *metrics.Metrics
	salt    string

	mu         sync.Mutex
	byID       map[string]slot
	unattached map[int]uint64
	tokens     uint64

	inflight sync.WaitGroup
}

type Option func(*Allocator)

// WithSalt fixes the group name prefix instead of a random one.
func WithSalt(salt string) Option {
	return func(a *Allocator) { a.salt = salt }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Allocator) { a.metrics = m }
}

func NewAllocator(backend Backend, logger *slog.Logger, opts ...Option) *Allocator {
	id := uuid.New()
	a := &Allocator{
		backend:    backend,
		logger:     logger,
		salt:       hex.EncodeToString(id[:4]),
		byID:       make(map[string]slot),
		unattached: make(map[int]uint64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Group returns the backend group name of slot index.
func (a *Allocator) Group(index int) string {
	return fmt.Sprintf("%s_%d", a.salt, index)
}

type pendingShow struct {
	n     Notification
	index int
	token uint64
}

// SetState makes desired the set of notifications on screen.
//
// Notifications whose ID already holds an unresolved slot are left as they are, even if
// their details changed. Every other notification is shown in the lowest free slot. Slots
// in use before the call and unused after it are cleared. Shown notifications stay bound
// to ctx; SetState itself only waits for the clears.
func (a *Allocator) SetState(ctx context.Context, desired []Notification) error {
	a.mu.Lock()
	before := a.occupiedLocked()

	stuck := make(map[string]slot)
	for _, n := range desired {
		if n.ID == "" {
			continue
		}
		if s, ok := a.byID[n.ID]; ok {
			stuck[n.ID] = s
		}
	}
	a.byID = stuck
	a.unattached = make(map[int]uint64)

	used := make(map[int]bool, len(desired))
	for _, s := range stuck {
		used[s.index] = true
	}

	var shows []pendingShow
	for _, n := range desired {
		if n.ID != "" {
			if _, ok := a.byID[n.ID]; ok {
				continue
			}
		}
		index := 0
		for used[index] {
			index++
		}
		used[index] = true
		a.tokens++
		s := slot{index: index, token: a.tokens}
		if n.ID != "" {
			a.byID[n.ID] = s
		} else {
			a.unattached[index] = s.token
		}
		shows = append(shows, pendingShow{n: n, index: index, token: s.token})
	}

	var stale []int
	for index := range before {
		if !used[index] {
			stale = append(stale, index)
		}
	}
	sort.Ints(stale)
	a.inflight.Add(len(shows))
	a.mu.Unlock()

	for _, p := range shows {
		go a.show(ctx, p)
	}

	var errs []error
	for _, index := range stale {
		group := a.Group(index)
		a.logger.Debug("clearing notification", "group", group)
		if err := a.backend.Clear(ctx, group); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", group, err))
			continue
		}
		a.metrics.IncNotification("cleared")
	}
	return errors.Join(errs...)
}

func (a *Allocator) show(ctx context.Context, p pendingShow) {
	defer a.inflight.Done()
	defer a.release(p)

	group := a.Group(p.index)
	a.logger.Debug("showing notification", "group", group, "id", p.n.ID, "message", p.n.Details.Message)
	a.metrics.IncNotification("shown")

	result, err := a.backend.Notify(ctx, p.n.Details, group)
	if err != nil {
		a.metrics.IncNotification("failed")
		a.logger.Warn("notification failed", "group", group, "id", p.n.ID, "error", err)
		return
	}
	a.logger.Debug("notification resolved", "group", group, "id", p.n.ID, "activation", result.ActivationType)
	if p.n.Handler != nil {
		p.n.Handler(ctx, result)
	}
}

// release frees the slot of p unless a later SetState already reassigned it.
func (a *Allocator) release(p pendingShow) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p.n.ID != "" {
		if s, ok := a.byID[p.n.ID]; ok && s.token == p.token {
			delete(a.byID, p.n.ID)
		}
		return
	}
	if a.unattached[p.index] == p.token {
		delete(a.unattached, p.index)
	}
}

func (a *Allocator) occupiedLocked() map[int]bool {
	occupied := make(map[int]bool, len(a.byID)+len(a.unattached))
	for _, s := range a.byID {
		occupied[s.index] = true
	}
	for index := range a.unattached {
		occupied[index] = true
	}
	return occupied
}

// Active is the number of slots holding an unresolved notification.
func (a *Allocator) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.occupiedLocked())
}

// Wait blocks until every shown notification has resolved or ctx is done.
func (a *Allocator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
