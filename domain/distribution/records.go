package distribution

import (
	"fmt"
	"time"
)

// StatusOK is the work task status of a target that was created and shared
const StatusOK = "OK"

// SubmitStatusNotSubmitted is the initial submission state of a file record
const SubmitStatusNotSubmitted = "Not Submitted"

// FolderRecord stores the Drive folder created for a group or grouping
type FolderRecord struct {
	ID         int64     `db:"id"`
	ActivityID int64     `db:"activity_id"`
	Kind       Kind      `db:"kind"`
	GroupID    int64     `db:"group_id"`
	FolderID   string    `db:"folder_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// FileRecord stores a file that was created for, or shared with, a target
type FileRecord struct {
	ID           int64      `db:"id"`
	ActivityID   int64      `db:"activity_id"`
	UserID       int64      `db:"user_id"`
	GroupID      int64      `db:"group_id"`
	GroupingID   int64      `db:"grouping_id"`
	Name         string     `db:"name"`
	URL          string     `db:"url"`
	Permission   Permission `db:"permission"`
	SubmitStatus string     `db:"submit_status"`
	CreatedAt    time.Time  `db:"created_at"`
}

// WorkTask stores the outcome of one target in a run
type WorkTask struct {
	ID         int64     `db:"id"`
	ActivityID int64     `db:"activity_id"`
	UserID     int64     `db:"user_id"`
	GroupID    int64     `db:"group_id"`
	GroupingID int64     `db:"grouping_id"`
	Status     string    `db:"creation_status"`
	CreatedAt  time.Time `db:"created_at"`
}

// OK reports whether the task succeeded
func (w WorkTask) OK() bool {
	return w.Status == StatusOK
}

// RunRecords is everything a run persists in one transaction
type RunRecords struct {
	ActivityID int64
	Folders    []FolderRecord
	Files      []FileRecord
	Tasks      []WorkTask
	MarkShared bool
}

// SharePolicy decides what a created but unshared file counts as
type SharePolicy string

const (
	// SharePolicyStrict writes a file record only for shared targets
	SharePolicyStrict SharePolicy = "strict"
	// SharePolicyRecordFile also writes a file record for share failures,
	// and lets those records mark the activity as shared
	SharePolicyRecordFile SharePolicy = "record_file"
)

// ParseSharePolicy parses a share policy name; empty means strict
func ParseSharePolicy(s string) (SharePolicy, error) {
	switch SharePolicy(s) {
	case "", SharePolicyStrict:
		return SharePolicyStrict, nil
	case SharePolicyRecordFile:
		return SharePolicyRecordFile, nil
	}
	return "", fmt.Errorf("%w: unknown share failure policy %q", ErrConfiguration, s)
}

// RecordsFile reports whether a target in the given terminal state gets a file record
func (p SharePolicy) RecordsFile(s State) bool {
	switch s {
	case StateShared:
		return true
	case StateShareFailed:
		return p == SharePolicyRecordFile
	default:
		return false
	}
}
