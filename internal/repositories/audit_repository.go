package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/bsg-marketplace/backend/internal/models"
)

const (
	auditCollection   = "moderation_audit"
	DefaultAuditLimit = 50
)

// AuditRepository defines the interface for the moderation audit trail
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
	Recent(ctx context.Context, targetType string, limit int64) ([]models.AuditEntry, error)
}

// MongoAuditRepository implements AuditRepository for MongoDB
type MongoAuditRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{collection: db.Collection(auditCollection), now: time.Now}
}

func (r *MongoAuditRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = r.now().UTC()
	_, err := r.collection.InsertOne(ctx, entry)
	return errors.Wrap(err, "auditRepo.Record")
}

// Recent returns the newest entries first, optionally for one target type.
func (r *MongoAuditRepository) Recent(ctx context.Context, targetType string, limit int64) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	filter := bson.M{}
	if targetType != "" {
		filter["target_type"] = targetType
	}

	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "auditRepo.Recent")
	}
	defer cursor.Close(ctx)

	entries := []models.AuditEntry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(err, "auditRepo.Recent")
	}
	return entries, nil
}

// NopAuditRepository is used when MONGO_URI is not configured.
type NopAuditRepository struct{}

func (NopAuditRepository) Record(context.Context, *models.AuditEntry) error { return nil }

func (NopAuditRepository) Recent(context.Context, string, int64) ([]models.AuditEntry, error) {
	return []models.AuditEntry{}, nil
}
