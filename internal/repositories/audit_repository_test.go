package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

func TestMongoAuditRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("record stamps id and time", func(mt *mtest.T) {
		repo := NewMongoAuditRepository(mt.DB)
		repo.now = func() time.Time { return fixed }
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		entry := models.NewStatusAudit(1, "Ada Admin", models.AuditTargetListing, 42, false)
		require.NoError(t, repo.Record(context.Background(), entry))
		assert.False(t, entry.ID.IsZero())
		assert.Equal(t, fixed, entry.CreatedAt)
		assert.Equal(t, models.AuditActionDeactivate, entry.Action)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "insert", started.CommandName)
	})

	mt.Run("record surfaces write errors", func(mt *mtest.T) {
		repo := NewMongoAuditRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Record(context.Background(), models.NewStatusAudit(1, "Ada Admin", models.AuditTargetUser, 7, true))
		assert.Error(t, err)
	})

	mt.Run("recent decodes newest first", func(mt *mtest.T) {
		repo := NewMongoAuditRepository(mt.DB)
		ns := mt.DB.Name() + "." + auditCollection
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "actor_id", Value: 1},
				{Key: "action", Value: models.AuditActionActivate},
				{Key: "target_type", Value: models.AuditTargetUser},
				{Key: "target_id", Value: 7},
				{Key: "created_at", Value: fixed},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "actor_id", Value: 1},
				{Key: "action", Value: models.AuditActionDeactivate},
				{Key: "target_type", Value: models.AuditTargetUser},
				{Key: "target_id", Value: 7},
				{Key: "created_at", Value: fixed.Add(-time.Hour)},
			})
		done := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, done)

		entries, err := repo.Recent(context.Background(), models.AuditTargetUser, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.AuditActionActivate, entries[0].Action)
		assert.Equal(t, uint(7), entries[1].TargetID)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "find", started.CommandName)
		assert.Equal(t, models.AuditTargetUser, started.Command.Lookup("filter", "target_type").StringValue())
		assert.Equal(t, int64(DefaultAuditLimit), started.Command.Lookup("limit").Int64())
	})
}

func TestNopAuditRepository(t *testing.T) {
	var repo AuditRepository = NopAuditRepository{}
	assert.NoError(t, repo.Record(context.Background(), &models.AuditEntry{}))

	entries, err := repo.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}
