package store

import (
	"context"
	"testing"
	"time"

	"lostfound-bot/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockMongoStore(mt *mtest.T) (*MongoStore, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewMongoStore(mt.DB, logger), hook
}

func usersNamespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + UsersCollection
}

func TestMongoStore_Reports(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("update of a missing report", func(mt *mtest.T) {
		s, _ := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := s.UpdateReport(ctx, primitive.NewObjectID().Hex(), models.ResolutionUpdate(models.Claimed, time.Now()))
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update of an existing report", func(mt *mtest.T) {
		s, _ := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := s.UpdateReport(ctx, primitive.NewObjectID().Hex(), models.ResolutionUpdate(models.Claimed, time.Now()))
		assert.NoError(mt, err)
	})

	mt.Run("ids that are not object ids", func(mt *mtest.T) {
		s, _ := newMockMongoStore(mt)

		_, err := s.GetReport(ctx, "nope")
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.ErrorIs(mt, s.UpdateReport(ctx, "nope", map[string]interface{}{"item": "x"}), ErrNotFound)
		assert.ErrorIs(mt, s.DeleteReport(ctx, "nope"), ErrNotFound)
	})

	mt.Run("missing report", func(mt *mtest.T) {
		s, _ := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+ReportsCollection, mtest.FirstBatch))

		_, err := s.GetReport(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("duplicate success story", func(mt *mtest.T) {
		s, _ := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := s.CreateSuccessStory(ctx, &models.SuccessStory{ReportID: primitive.NewObjectID(), Item: "Keys"})
		assert.ErrorIs(mt, err, ErrConflict)
	})
}

func TestMongoStore_Sessions(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	mt.Run("put upserts by sender", func(mt *mtest.T) {
		s, _ := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "whatsapp:+1"}}}},
		))

		require.NoError(mt, s.PutSession(ctx, &models.SessionRecord{Sender: "whatsapp:+1", Action: "search", Timestamp: at}))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		update, ok := started.Command.Lookup("updates", "0").DocumentOK()
		require.True(mt, ok, started.Command.String())
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, "whatsapp:+1", update.Lookup("q", "_id").StringValue())
	})

	mt.Run("missing session", func(mt *mtest.T) {
		s, _ := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace(mt), mtest.FirstBatch))

		_, err := s.GetSession(ctx, "whatsapp:+1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("unreadable session reads as missing", func(mt *mtest.T) {
		s, hook := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "whatsapp:+1"}, {Key: "timestamp", Value: "yesterday"}},
		))

		_, err := s.GetSession(ctx, "whatsapp:+1")
		assert.ErrorIs(mt, err, ErrNotFound)
		require.NotNil(mt, hook.LastEntry())
		assert.Equal(mt, "whatsapp:+1", hook.LastEntry().Data["sender"])
	})

	mt.Run("list skips unreadable sessions", func(mt *mtest.T) {
		s, hook := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNamespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "whatsapp:+1"}, {Key: "action", Value: "search"}, {Key: "timestamp", Value: at}},
			bson.D{{Key: "_id", Value: 42}, {Key: "action", Value: "search"}},
			bson.D{{Key: "_id", Value: "whatsapp:+2"}, {Key: "action", Value: "report_lost"}, {Key: "timestamp", Value: at}},
		))

		list, err := s.ListSessions(ctx)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "whatsapp:+1", list[0].Sender)
		assert.Equal(mt, "whatsapp:+2", list[1].Sender)
		assert.True(mt, list[1].Timestamp.Equal(at))
		assert.Len(mt, hook.Entries, 1)
	})
}
