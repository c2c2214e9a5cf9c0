package distribution

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
	"drive-distribution/infrastructure/logging"
)

// FolderSet is the outcome of building one folder per group or grouping
type FolderSet struct {
	// IDs maps a container key to its Drive folder id
	IDs map[string]string
	// Records are the folder records to persist with the run
	Records []distribution.FolderRecord
	// Failures maps a container key to the reason its folder was not created
	Failures map[string]error
}

// FolderBuilder creates per-container folders and opens them to course staff
type FolderBuilder struct {
	driveClient distribution.DriveClient
	logger      logging.Logger
	output      io.Writer
}

// NewFolderBuilder creates a new folder builder
func NewFolderBuilder(client distribution.DriveClient, logger logging.Logger, output io.Writer) *FolderBuilder {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &FolderBuilder{
		driveClient: client,
		logger:      logger,
		output:      output,
	}
}

// Build creates one folder named "<name>_<key>" per container inside parentID,
// then grants every staff member write access to each created folder.
// Staff grant failures are logged and do not fail the containers.
func (b *FolderBuilder) Build(ctx context.Context, activityID int64, parentID string, containers []distribution.Target, staff []roster.User) (*FolderSet, error) {
	set := &FolderSet{
		IDs:      make(map[string]string),
		Failures: make(map[string]error),
	}
	if len(containers) == 0 {
		return set, nil
	}

	batch := distribution.NewBatch()
	for _, c := range containers {
		if err := batch.CreateFolder(c.Key(), distribution.FolderName(c), parentID); err != nil {
			return nil, err
		}
	}

	results, err := runBatch(ctx, b.driveClient, batch, "CreateFolders")
	if err != nil {
		return nil, err
	}

	for i, res := range results {
		c := containers[i]
		if res.Failed() {
			set.Failures[c.Key()] = fmt.Errorf("failed to create folder for %s %q: %w", c.Kind, c.Name, res.Err)
			continue
		}
		set.IDs[c.Key()] = res.FileID
		set.Records = append(set.Records, distribution.FolderRecord{
			ActivityID: activityID,
			Kind:       c.Kind,
			GroupID:    c.ID,
			FolderID:   res.FileID,
		})
	}
	fmt.Fprintf(b.output, "      Created %d of %d folders\n", len(set.IDs), len(containers))

	if err := b.grantStaff(ctx, containers, set, staff); err != nil {
		return nil, err
	}

	return set, nil
}

func (b *FolderBuilder) grantStaff(ctx context.Context, containers []distribution.Target, set *FolderSet, staff []roster.User) error {
	batch := distribution.NewBatch()
	for _, c := range containers {
		folderID, ok := set.IDs[c.Key()]
		if !ok {
			continue
		}
		for _, teacher := range staff {
			if teacher.Email == "" {
				continue
			}
			token := c.Key() + "/" + strconv.FormatInt(teacher.ID, 10)
			err := batch.InsertPermission(token, distribution.PermissionRequest{
				FileID: folderID,
				Email:  teacher.Email,
				Grant:  distribution.Grant{Role: distribution.RoleWriter},
			})
			if err != nil {
				return err
			}
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	results, err := runBatch(ctx, b.driveClient, batch, "GrantStaff")
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Failed() {
			b.logger.Warn(ctx, "staff folder permission failed", "key", res.Token, "err", res.Err)
		}
	}
	if failed := countFailed(results); failed > 0 {
		fmt.Fprintf(b.output, "      Warning: %d staff folder permissions failed\n", failed)
	}
	return nil
}
