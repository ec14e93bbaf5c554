package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lostfound-bot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local backend used for development and tests.
// Field queries and partial updates go through the same bson mapping the
// MongoDB backend uses, so field names mean the same thing in both.
type MemoryStore struct {
	mu       sync.RWMutex
	reports  []models.Report
	sessions map[string]models.SessionRecord
	stories  []models.SuccessStory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.SessionRecord),
	}
}

func (m *MemoryStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("report %q: %w", id, ErrNotFound)
	}
	report := m.reports[i]
	return &report, nil
}

func (m *MemoryStore) ListReports(ctx context.Context) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Report, len(m.reports))
	copy(out, m.reports)
	return out, nil
}

func (m *MemoryStore) FindReports(ctx context.Context, field string, value interface{}) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := fmt.Sprint(value)
	out := []models.Report{}
	for _, report := range m.reports {
		doc, err := toDocument(report)
		if err != nil {
			return nil, err
		}
		got, ok := doc[field]
		if ok && fmt.Sprint(got) == want {
			out = append(out, report)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateReport(ctx context.Context, report *models.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	m.reports = append(m.reports, *report)
	return report.ID.Hex(), nil
}

func (m *MemoryStore) UpdateReport(ctx context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("report %q: %w", id, ErrNotFound)
	}
	doc, err := toDocument(m.reports[i])
	if err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	var updated models.Report
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	m.reports[i] = updated
	return nil
}

func (m *MemoryStore) DeleteReport(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("report %q: %w", id, ErrNotFound)
	}
	m.reports = append(m.reports[:i], m.reports[i+1:]...)
	return nil
}

func (m *MemoryStore) indexOf(id string) int {
	for i := range m.reports {
		if m.reports[i].ID.Hex() == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) GetSession(ctx context.Context, sender string) (*models.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.sessions[sender]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (m *MemoryStore) PutSession(ctx context.Context, record *models.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[record.Sender] = *record
	return nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, sender string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sender)
	return nil
}

func (m *MemoryStore) ListSessions(ctx context.Context) ([]models.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.SessionRecord, 0, len(m.sessions))
	for _, record := range m.sessions {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sender < out[j].Sender })
	return out, nil
}

func (m *MemoryStore) CreateSuccessStory(ctx context.Context, story *models.SuccessStory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.stories {
		if existing.ReportID == story.ReportID {
			return fmt.Errorf("story for report %s: %w", story.ReportID.Hex(), ErrConflict)
		}
	}
	if story.ID.IsZero() {
		story.ID = primitive.NewObjectID()
	}
	m.stories = append(m.stories, *story)
	return nil
}

func (m *MemoryStore) ListSuccessStories(ctx context.Context) ([]models.SuccessStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.SuccessStory, len(m.stories))
	copy(out, m.stories)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ResolvedAt.After(out[j].ResolvedAt) })
	return out, nil
}

func toDocument(report models.Report) (bson.M, error) {
	raw, err := bson.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return doc, nil
}
