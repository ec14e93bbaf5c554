// Package session owns the per-sender conversation state between messages.
//
// There is one live session per sender, stored under the sender identifier.
// Saves are plain overwrites: if two messages from the same sender are
// handled at once, whichever write lands last is the session that remains.
// Sessions left idle longer than the configured age are removed by a
// periodic sweep; the sender is not told and simply starts from the menu.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lostfound-bot/store"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxAge        = 10 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

type Manager struct {
	store store.Sessions
	now   func() time.Time
	log   logrus.FieldLogger
}

func NewManager(sessions store.Sessions, now func() time.Time, log logrus.FieldLogger) *Manager {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{store: sessions, now: now, log: log}
}

// Load returns the sender's state, or nil when the sender has no session.
// A stored record that no longer decodes is treated as no session.
func (m *Manager) Load(ctx context.Context, sender string) (State, error) {
	record, err := m.store.GetSession(ctx, sender)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	state, err := Decode(record)
	if err != nil {
		m.log.WithField("sender", sender).WithError(err).Warn("discarding unreadable session")
		return nil, nil
	}
	return state, nil
}

// Save stores state as the sender's session and stamps the write time.
func (m *Manager) Save(ctx context.Context, sender string, state State) error {
	if state == nil {
		return m.Clear(ctx, sender)
	}
	record := Encode(sender, state)
	record.Timestamp = m.now().UTC()
	if err := m.store.PutSession(ctx, record); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *Manager) Clear(ctx context.Context, sender string) error {
	if err := m.store.DeleteSession(ctx, sender); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SweepExpired deletes every session last written more than maxAge before
// now and returns how many were removed.
func (m *Manager) SweepExpired(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	records, err := m.store.ListSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	var (
		removed int
		errs    []error
	)
	for _, record := range records {
		if now.Sub(record.Timestamp) <= maxAge {
			continue
		}
		if err := m.store.DeleteSession(ctx, record.Sender); err != nil {
			errs = append(errs, fmt.Errorf("delete session %s: %w", record.Sender, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// StartSweeper runs SweepExpired every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval, maxAge time.Duration) error {
	c := cron.New()
	_, err := c.AddFunc("@every "+interval.String(), func() {
		removed, err := m.SweepExpired(ctx, m.now(), maxAge)
		entry := m.log.WithField("removed", removed)
		if err != nil {
			entry.WithError(err).Error("session sweep failed")
			return
		}
		if removed > 0 {
			entry.Info("expired sessions removed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
