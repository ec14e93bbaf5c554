// Package store holds the persistence boundary of the bot: reports, sender
// sessions and success stories, with MongoDB, Redis and in-memory backends.
//
// Every backend offers last-write-wins semantics only. Nothing here locks a
// report or a session across a read-modify-write.
package store

import (
	"context"
	"errors"

	"lostfound-bot/models"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Reports is the report collection: point read, full read, field-equality
// query, create with generated id, partial update and delete.
type Reports interface {
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	FindReports(ctx context.Context, field string, value interface{}) ([]models.Report, error)
	CreateReport(ctx context.Context, report *models.Report) (string, error)
	UpdateReport(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteReport(ctx context.Context, id string) error
}

// Sessions is the per-sender session collection.
type Sessions interface {
	GetSession(ctx context.Context, sender string) (*models.SessionRecord, error)
	PutSession(ctx context.Context, record *models.SessionRecord) error
	DeleteSession(ctx context.Context, sender string) error
	ListSessions(ctx context.Context) ([]models.SessionRecord, error)
}

// Stories records reports that were resolved through the quick flow.
type Stories interface {
	CreateSuccessStory(ctx context.Context, story *models.SuccessStory) error
	ListSuccessStories(ctx context.Context) ([]models.SuccessStory, error)
}
