package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lostfound-bot/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ReportsCollection = "reports"
	UsersCollection   = "users"
	StoriesCollection = "success_stories"
)

// MongoStore keeps reports, sessions and stories in one MongoDB database.
// Session documents that no longer decode are treated as absent.
type MongoStore struct {
	reports *mongo.Collection
	users   *mongo.Collection
	stories *mongo.Collection
	log     logrus.FieldLogger
}

func NewMongoStore(db *mongo.Database, log logrus.FieldLogger) *MongoStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MongoStore{
		reports: db.Collection(ReportsCollection),
		users:   db.Collection(UsersCollection),
		stories: db.Collection(StoriesCollection),
		log:     log,
	}
}

// EnsureIndexes creates the lookup indexes used by the dialog queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "reporter", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("report indexes: %w", err)
	}
	if err := models.EnsureSuccessStoryIndex(ctx, s.stories); err != nil {
		return fmt.Errorf("success story index: %w", err)
	}
	return nil
}

func (s *MongoStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("report %q: %w", id, ErrNotFound)
	}

	var report models.Report
	err = s.reports.FindOne(ctx, bson.M{"_id": oid}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return &report, nil
}

func (s *MongoStore) ListReports(ctx context.Context) ([]models.Report, error) {
	return s.findReports(ctx, bson.M{})
}

func (s *MongoStore) FindReports(ctx context.Context, field string, value interface{}) ([]models.Report, error) {
	return s.findReports(ctx, bson.M{field: value})
}

func (s *MongoStore) findReports(ctx context.Context, filter bson.M) ([]models.Report, error) {
	// ObjectIDs grow with creation time, so _id order is creation order.
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.reports.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return reports, nil
}

func (s *MongoStore) CreateReport(ctx context.Context, report *models.Report) (string, error) {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	if _, err := s.reports.InsertOne(ctx, report); err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return report.ID.Hex(), nil
}

func (s *MongoStore) UpdateReport(ctx context.Context, id string, fields map[string]interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("report %q: %w", id, ErrNotFound)
	}

	result, err := s.reports.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("report %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteReport(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("report %q: %w", id, ErrNotFound)
	}

	result, err := s.reports.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("report %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) GetSession(ctx context.Context, sender string) (*models.SessionRecord, error) {
	raw, err := s.users.FindOne(ctx, bson.M{"_id": sender}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	var record models.SessionRecord
	if err := bson.Unmarshal(raw, &record); err != nil {
		s.log.WithField("sender", sender).WithError(err).Warn("skipping unreadable session")
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *MongoStore) PutSession(ctx context.Context, record *models.SessionRecord) error {
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": record.Sender}, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (s *MongoStore) DeleteSession(ctx context.Context, sender string) error {
	if _, err := s.users.DeleteOne(ctx, bson.M{"_id": sender}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *MongoStore) ListSessions(ctx context.Context) ([]models.SessionRecord, error) {
	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.SessionRecord{}
	for cursor.Next(ctx) {
		var record models.SessionRecord
		if err := cursor.Decode(&record); err != nil {
			s.log.WithField("id", cursor.Current.Lookup("_id").String()).WithError(err).Warn("skipping unreadable session")
			continue
		}
		records = append(records, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	return records, nil
}

func (s *MongoStore) CreateSuccessStory(ctx context.Context, story *models.SuccessStory) error {
	if story.ID.IsZero() {
		story.ID = primitive.NewObjectID()
	}
	if _, err := s.stories.InsertOne(ctx, story); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("story for report %s: %w", story.ReportID.Hex(), ErrConflict)
		}
		return fmt.Errorf("insert success story: %w", err)
	}
	return nil
}

func (s *MongoStore) ListSuccessStories(ctx context.Context) ([]models.SuccessStory, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "resolved_at", Value: -1}})

	cursor, err := s.stories.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find success stories: %w", err)
	}
	defer cursor.Close(ctx)

	stories := []models.SuccessStory{}
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, fmt.Errorf("decode success stories: %w", err)
	}
	return stories, nil
}
