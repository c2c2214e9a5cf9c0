package distribution

import (
	"context"
	"fmt"
	"io"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
	"drive-distribution/infrastructure/logging"
)

// SetupRequest describes a new activity
type SetupRequest struct {
	CourseID   int64
	Name       string
	Intro      string
	Base       distribution.BaseMode
	Tokens     []string
	Permission string
	// DocType is the kind of master to create when ExistingURL is empty
	DocType string
	// ExistingURL adopts an existing Drive file as the master
	ExistingURL string
}

// SetupService creates activities and their folder hierarchy in Drive
type SetupService struct {
	driveClient distribution.DriveClient
	roster      roster.Roster
	repo        distribution.Repository
	logger      logging.Logger
	siteFolder  string
	rootID      string
	output      io.Writer
}

// NewSetupService creates a new setup service. Activities are created under
// <rootID>/<siteFolder>/<course name>/<activity name>.
func NewSetupService(
	client distribution.DriveClient,
	rosterPort roster.Roster,
	repo distribution.Repository,
	logger logging.Logger,
	siteFolder, rootID string,
	output io.Writer,
) *SetupService {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SetupService{
		driveClient: client,
		roster:      rosterPort,
		repo:        repo,
		logger:      logger,
		siteFolder:  siteFolder,
		rootID:      rootID,
		output:      output,
	}
}

// CreateActivity validates the request, builds the folder hierarchy, creates
// or adopts the master and stores the activity. Invalid requests fail before
// any Drive call.
func (s *SetupService) CreateActivity(ctx context.Context, req SetupRequest) (*distribution.Activity, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: activity name is required", distribution.ErrConfiguration)
	}
	sel, err := roster.ParseSelection(req.Tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", distribution.ErrConfiguration, err)
	}
	dist, err := distribution.Classify(req.Base, sel.Shape())
	if err != nil {
		return nil, err
	}
	perm, err := distribution.ParsePermission(req.Permission)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", distribution.ErrConfiguration, err)
	}

	var (
		existingID string
		docType    distribution.FileType
	)
	if req.ExistingURL != "" {
		existingID, err = distribution.FileIDFromURL(req.ExistingURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", distribution.ErrConfiguration, err)
		}
	} else {
		docType, err = distribution.ParseFileType(req.DocType)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", distribution.ErrConfiguration, err)
		}
	}

	course, err := s.roster.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", req.CourseID, err)
	}

	fmt.Fprintf(s.output, "Preparing folders for %s...\n", course.FullName)
	siteID, err := s.ensureFolder(ctx, s.siteFolder, s.rootID)
	if err != nil {
		return nil, err
	}
	courseFolderID, err := s.ensureFolder(ctx, course.FullName, siteID)
	if err != nil {
		return nil, err
	}

	var master *distribution.FileInfo
	if existingID != "" {
		source, err := s.driveClient.GetFile(ctx, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to get existing file: %w", err)
		}
		if docType, err = distribution.FileTypeForMime(source.MimeType); err != nil {
			return nil, fmt.Errorf("%w: %w", distribution.ErrConfiguration, err)
		}

		folder, err := s.driveClient.CreateFolder(ctx, source.Name, courseFolderID)
		if err != nil {
			return nil, fmt.Errorf("failed to create activity folder: %w", err)
		}
		if docType.IsFolder() {
			master = source
		} else {
			fmt.Fprintf(s.output, "Copying %s into the course folder...\n", source.Name)
			if master, err = s.driveClient.CopyFile(ctx, source.ID, source.Name, folder.ID); err != nil {
				return nil, fmt.Errorf("failed to copy existing file: %w", err)
			}
		}
		return s.store(ctx, req, course, folder.ID, master, docType, dist, perm, sel)
	}

	folder, err := s.driveClient.CreateFolder(ctx, req.Name, courseFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity folder: %w", err)
	}
	fmt.Fprintf(s.output, "Creating %s %q...\n", docType, req.Name)
	if docType.IsFolder() {
		master, err = s.driveClient.CreateFolder(ctx, req.Name, folder.ID)
	} else {
		master, err = s.driveClient.CreateFile(ctx, req.Name, docType, folder.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create master: %w", err)
	}
	return s.store(ctx, req, course, folder.ID, master, docType, dist, perm, sel)
}

func (s *SetupService) store(
	ctx context.Context,
	req SetupRequest,
	course *roster.Course,
	folderID string,
	master *distribution.FileInfo,
	docType distribution.FileType,
	dist distribution.Distribution,
	perm distribution.Permission,
	sel roster.Selection,
) (*distribution.Activity, error) {
	s.grantTeachers(ctx, course.ID, folderID)

	activity := &distribution.Activity{
		CourseID:       course.ID,
		Name:           req.Name,
		Intro:          req.Intro,
		DocID:          master.ID,
		DocType:        docType,
		Distribution:   dist,
		Permission:     perm,
		ParentFolderID: folderID,
		Selection:      sel,
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to save activity: %w", err)
	}

	s.logger.Info(ctx, "activity created",
		"activity_id", activity.ID,
		"distribution", string(dist),
		"doc_id", master.ID,
	)
	fmt.Fprintf(s.output, "Created activity %d (%s)\n", activity.ID, dist)
	return activity, nil
}

// ensureFolder returns the id of the named folder inside parentID, creating it if needed
func (s *SetupService) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	existing, err := s.driveClient.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to look up folder %q: %w", name, err)
	}
	if existing != nil {
		return existing.ID, nil
	}
	folder, err := s.driveClient.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return folder.ID, nil
}

// grantTeachers opens the activity folder to course staff. Failures are logged only.
func (s *SetupService) grantTeachers(ctx context.Context, courseID int64, folderID string) {
	teachers, err := s.roster.ListTeachers(ctx, courseID)
	if err != nil {
		s.logger.Warn(ctx, "failed to list teachers", "course_id", courseID, "err", err)
		return
	}
	for _, t := range teachers {
		if t.Email == "" {
			continue
		}
		err := s.driveClient.InsertPermission(ctx, distribution.PermissionRequest{
			FileID: folderID,
			Email:  t.Email,
			Grant:  distribution.Grant{Role: distribution.RoleWriter},
		})
		if err != nil {
			s.logger.Warn(ctx, "failed to share activity folder", "email", t.Email, "err", err)
		}
	}
}
