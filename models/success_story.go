package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SuccessStory is the public record left behind when an item goes home
type SuccessStory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportID   primitive.ObjectID `bson:"report_id" json:"reportId"`
	Type       ReportType         `bson:"type" json:"type"`
	Item       string             `bson:"item" json:"item"`
	Location   string             `bson:"location" json:"location"`
	ResolvedAt time.Time          `bson:"resolved_at" json:"resolvedAt"`
}

// EnsureSuccessStoryIndex creates a unique index on report_id so a report
// produces at most one story.
func EnsureSuccessStoryIndex(ctx context.Context, collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "report_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
