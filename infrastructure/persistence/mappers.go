package persistence

import "github.com/helixml/shardrun/domain/submission"

// SubmissionMapper maps between domain Submission and SubmissionModel.
type SubmissionMapper struct{}

// ToDomain converts a SubmissionModel to a domain Submission.
func (SubmissionMapper) ToDomain(e SubmissionModel) submission.Submission {
	return submission.Reconstruct(
		e.ID,
		e.RunID, e.Recipe, e.Name,
		e.ShardIndex, e.TotalItems, e.NumShards,
		e.Command,
		e.Args,
		submission.Status(e.Status),
		e.ExitCode,
		e.Error, e.Output,
		e.CreatedAt, e.UpdatedAt,
	)
}

// ToModel converts a domain Submission to a SubmissionModel.
func (SubmissionMapper) ToModel(s submission.Submission) SubmissionModel {
	return SubmissionModel{
		ID:         s.ID(),
		RunID:      s.RunID(),
		Recipe:     s.Recipe(),
		Name:       s.Name(),
		ShardIndex: s.ShardIndex(),
		TotalItems: s.TotalItems(),
		NumShards:  s.NumShards(),
		Command:    s.Command(),
		Args:       s.Args(),
		Status:     string(s.Status()),
		ExitCode:   s.ExitCode(),
		Error:      s.Error(),
		Output:     s.Output(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
}
