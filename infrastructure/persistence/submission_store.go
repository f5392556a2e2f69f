package persistence

import (
	"context"
	"fmt"

	"github.com/helixml/shardrun/domain/submission"
	"github.com/helixml/shardrun/internal/database"
	"gorm.io/gorm"
)

// SubmissionStore implements submission.Store using GORM.
type SubmissionStore struct {
	database.Repository[submission.Submission, SubmissionModel]
}

// NewSubmissionStore creates a new SubmissionStore.
func NewSubmissionStore(db database.Database) SubmissionStore {
	return SubmissionStore{
		Repository: database.NewRepository[submission.Submission, SubmissionModel](db, SubmissionMapper{}, "submission"),
	}
}

// Save creates or updates a submission.
func (s SubmissionStore) Save(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	saved, err := save(s.DB(ctx), s.Mapper(), sub)
	if err != nil {
		return submission.Submission{}, err
	}
	return saved, nil
}

// SaveAll creates or updates submissions in one transaction and returns them
// with their IDs in input order.
func (s SubmissionStore) SaveAll(ctx context.Context, subs []submission.Submission) ([]submission.Submission, error) {
	out := make([]submission.Submission, 0, len(subs))
	err := database.WithTransaction(ctx, s.Database(), func(tx *gorm.DB) error {
		for _, sub := range subs {
			saved, err := save(tx, s.Mapper(), sub)
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func save(db *gorm.DB, mapper database.EntityMapper[submission.Submission, SubmissionModel], sub submission.Submission) (submission.Submission, error) {
	model := mapper.ToModel(sub)

	var result *gorm.DB
	if sub.ID() == 0 {
		result = db.Create(&model)
	} else {
		result = db.Save(&model)
	}
	if result.Error != nil {
		return submission.Submission{}, fmt.Errorf("save submission: %w", result.Error)
	}
	return mapper.ToDomain(model), nil
}

var _ submission.Store = SubmissionStore{}
