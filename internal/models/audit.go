package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AuditTargetUser    = "user"
	AuditTargetListing = "listing"

	AuditActionActivate   = "activate"
	AuditActionDeactivate = "deactivate"
)

// AuditEntry records one moderation action, stored in MongoDB
type AuditEntry struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ActorID    uint               `json:"actor_id" bson:"actor_id"`
	ActorName  string             `json:"actor_name" bson:"actor_name"`
	Action     string             `json:"action" bson:"action"`
	TargetType string             `json:"target_type" bson:"target_type"`
	TargetID   uint               `json:"target_id" bson:"target_id"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// NewStatusAudit builds the entry for an activate/deactivate toggle.
func NewStatusAudit(actorID uint, actorName, targetType string, targetID uint, active bool) *AuditEntry {
	action := AuditActionDeactivate
	if active {
		action = AuditActionActivate
	}
	return &AuditEntry{
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
}
