package distribution

import (
	"context"
	"fmt"
	"io"
	"time"

	"drive-distribution/domain/distribution"
	"drive-distribution/infrastructure/logging"
)

const removeLockTTL = 2 * time.Minute

// CleanupService removes activities and, optionally, the Drive files their runs created
type CleanupService struct {
	driveClient distribution.DriveClient
	repo        distribution.Repository
	locker      distribution.Locker
	logger      logging.Logger
	output      io.Writer
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(client distribution.DriveClient, repo distribution.Repository, locker distribution.Locker, logger logging.Logger, output io.Writer) *CleanupService {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &CleanupService{
		driveClient: client,
		repo:        repo,
		locker:      locker,
		logger:      logger,
		output:      output,
	}
}

// RemoveActivity deletes the activity with every record, submission and grade.
// When trash is set, the copies and folders created by its runs are moved to
// the Drive trash first. The master itself is never trashed.
// Trash failures are reported in the result and do not stop the removal.
func (s *CleanupService) RemoveActivity(ctx context.Context, activityID int64, trash bool) (*distribution.CleanupResult, error) {
	lease, err := s.locker.Acquire(ctx, distribution.RunLockKey(activityID), removeLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock activity %d: %w", activityID, err)
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Warn(ctx, "failed to release lock", "activity_id", activityID, "err", rerr)
		}
	}()

	activity, err := s.repo.GetActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	result := &distribution.CleanupResult{ActivityID: activityID}

	if trash {
		files, err := s.repo.ListFileRecords(ctx, activityID)
		if err != nil {
			return nil, fmt.Errorf("failed to list file records: %w", err)
		}
		folders, err := s.repo.ListFolderRecords(ctx, activityID)
		if err != nil {
			return nil, fmt.Errorf("failed to list folder records: %w", err)
		}

		trashed := map[string]bool{activity.DocID: true}
		for _, f := range files {
			id, err := distribution.FileIDFromURL(f.URL)
			if err != nil {
				result.Failures = append(result.Failures, distribution.TrashedFile{Name: f.Name, Reason: err.Error()})
				continue
			}
			s.trash(ctx, result, trashed, id, f.Name)
		}
		for _, f := range folders {
			s.trash(ctx, result, trashed, f.FolderID, distribution.FolderName(distribution.Target{Kind: f.Kind, ID: f.GroupID}))
		}
		fmt.Fprintf(s.output, "Trashed %d files (%d failed)\n", len(result.TrashedFiles), len(result.Failures))
	}

	if err := s.repo.DeleteActivity(ctx, activityID); err != nil {
		return result, fmt.Errorf("failed to delete activity: %w", err)
	}

	s.logger.Info(ctx, "activity removed",
		"activity_id", activityID,
		"trashed", len(result.TrashedFiles),
		"trash_failures", len(result.Failures),
	)
	return result, nil
}

func (s *CleanupService) trash(ctx context.Context, result *distribution.CleanupResult, trashed map[string]bool, id, name string) {
	if trashed[id] {
		return
	}
	trashed[id] = true

	if err := s.driveClient.DeleteFile(ctx, id); err != nil {
		s.logger.Warn(ctx, "failed to trash file", "file_id", id, "err", err)
		result.Failures = append(result.Failures, distribution.TrashedFile{ID: id, Name: name, Reason: err.Error()})
		return
	}
	result.TrashedFiles = append(result.TrashedFiles, distribution.TrashedFile{ID: id, Name: name})
}
