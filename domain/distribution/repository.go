package distribution

import "context"

// Repository persists activities and the records of their runs
type Repository interface {
	// CreateActivity inserts the activity and sets its ID
	CreateActivity(ctx context.Context, a *Activity) error

	// GetActivity returns ErrActivityNotFound when the id is unknown
	GetActivity(ctx context.Context, id int64) (*Activity, error)

	// SaveRun writes folders, files and tasks, and marks the activity shared
	// when requested, in one transaction. Rows that already exist are skipped.
	SaveRun(ctx context.Context, run RunRecords) error

	ListFolderRecords(ctx context.Context, activityID int64) ([]FolderRecord, error)
	ListFileRecords(ctx context.Context, activityID int64) ([]FileRecord, error)
	ListWorkTasks(ctx context.Context, activityID int64) ([]WorkTask, error)

	// DeleteActivity removes the activity and every record that belongs to it
	DeleteActivity(ctx context.Context, id int64) error
}
