package persistence

import "time"

// SubmissionModel represents one launcher invocation in the database.
type SubmissionModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string    `gorm:"column:run_id;type:varchar(255);index;not null"`
	Recipe     string    `gorm:"column:recipe;type:varchar(255);index"`
	Name       string    `gorm:"column:name;type:varchar(255);not null"`
	ShardIndex int       `gorm:"column:shard_index;not null"`
	TotalItems int       `gorm:"column:total_items;not null"`
	NumShards  int       `gorm:"column:num_shards;not null"`
	Command    string    `gorm:"column:command;type:text;not null"`
	Args       []string  `gorm:"column:args;type:text;serializer:json"`
	Status     string    `gorm:"column:status;type:varchar(32);index;not null"`
	ExitCode   int       `gorm:"column:exit_code;not null;default:0"`
	Error      string    `gorm:"column:error;type:text"`
	Output     string    `gorm:"column:output;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (SubmissionModel) TableName() string {
	return "submissions"
}
