// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Submission
// model, the audit trail of every accepted intake request.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/0xVampirot/justZappIt/internal/domain"
)

// CreateSubmission inserts a submission row. storeID is nil for new-store
// submissions (the store row carries its own id) and points at the edited
// store for edits. payload is the validated proposal serialized as JSON.
//
// Rows are immutable after insert; ConfirmCount starts at zero and Status at
// "live" for a future confirmation-gated edit workflow.
func CreateSubmission(ctx context.Context, db *gorm.DB, subType string, storeID *string, payload string, ipHash string) (*domain.Submission, error) {
	sub := &domain.Submission{
		ID:           uuid.NewString(),
		Type:         subType,
		StoreID:      storeID,
		Payload:      payload,
		IPHash:       ipHash,
		ConfirmCount: 0,
		Status:       domain.SubmissionStatusLive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}
