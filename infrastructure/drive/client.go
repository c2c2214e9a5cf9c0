package drive

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"drive-distribution/domain/distribution"
)

const (
	fileFields = "id, name, mimeType, parents, createdTime"

	defaultBatchTimeout   = 2 * time.Minute
	defaultMaxConcurrency = 8
)

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error)
	ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error)
	CreateFile(ctx context.Context, file *drive.File, fields string) (*drive.File, error)
	CopyFile(ctx context.Context, sourceID string, file *drive.File, fields string) (*drive.File, error)
	CreatePermission(ctx context.Context, fileID string, permission *drive.Permission, notify bool, message string) error
	TrashFile(ctx context.Context, fileID string) error
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// GetFile returns a file's metadata
func (s *GoogleDriveService) GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error) {
	return s.service.Files.Get(fileID).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// ListFiles lists files matching the query
func (s *GoogleDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	r, err := s.service.Files.List().
		Q(query).
		Fields(googleapi.Field("files(" + fields + ")")).
		OrderBy(orderBy).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return r.Files, nil
}

// CreateFile creates a file or folder from metadata only
func (s *GoogleDriveService) CreateFile(ctx context.Context, file *drive.File, fields string) (*drive.File, error) {
	return s.service.Files.Create(file).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// CopyFile copies a file
func (s *GoogleDriveService) CopyFile(ctx context.Context, sourceID string, file *drive.File, fields string) (*drive.File, error) {
	return s.service.Files.Copy(sourceID, file).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// CreatePermission creates a permission on a file
func (s *GoogleDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission, notify bool, message string) error {
	call := s.service.Permissions.Create(fileID, permission).
		SendNotificationEmail(notify).
		SupportsAllDrives(true).
		Context(ctx)
	if notify && message != "" {
		call = call.EmailMessage(message)
	}
	_, err := call.Do()
	return err
}

// TrashFile moves a file to the trash
func (s *GoogleDriveService) TrashFile(ctx context.Context, fileID string) error {
	_, err := s.service.Files.Update(fileID, &drive.File{Trashed: true}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	return err
}

// Client implements distribution.DriveClient using Google Drive API
type Client struct {
	driveService   DriveService
	batchTimeout   time.Duration
	maxConcurrency int
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// WithBatchTimeout bounds the duration of a single ExecuteBatch call
func WithBatchTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.batchTimeout = d
		}
	}
}

// WithMaxConcurrency limits the requests of a batch that run at once
func WithMaxConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

func newClient(opts []ClientOption) *Client {
	c := &Client{
		batchTimeout:   defaultBatchTimeout,
		maxConcurrency: defaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient creates a new Google Drive client from service account credentials
// If no drive service option is provided, it initializes a real Google Drive service
func NewClient(ctx context.Context, credentialsPath string, opts ...ClientOption) (*Client, error) {
	c := newClient(opts)

	if c.driveService == nil {
		svc, err := newGoogleDriveService(ctx, credentialsPath)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// newGoogleDriveService creates a production Google Drive service
func newGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client := config.Client(ctx)
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// GetFile implements distribution.DriveClient
func (c *Client) GetFile(ctx context.Context, fileID string) (*distribution.FileInfo, error) {
	f, err := c.driveService.GetFile(ctx, fileID, fileFields)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return toFileInfo(f), nil
}

// FindFolder implements distribution.DriveClient
func (c *Client) FindFolder(ctx context.Context, name, parentID string) (*distribution.FileInfo, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(parentID), distribution.MimeTypeFolder)
	files, err := c.driveService.ListFiles(ctx, query, fileFields, "createdTime")
	if err != nil {
		return nil, fmt.Errorf("failed to search for folder %q: %w", name, err)
	}
	if len(files) == 0 {
		return nil, nil
	}
	return toFileInfo(files[0]), nil
}

// CreateFolder implements distribution.DriveClient
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*distribution.FileInfo, error) {
	f, err := c.driveService.CreateFile(ctx, folderMetadata(name, parentID), fileFields)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return toFileInfo(f), nil
}

// CreateFile implements distribution.DriveClient
func (c *Client) CreateFile(ctx context.Context, name string, fileType distribution.FileType, parentID string) (*distribution.FileInfo, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: fileType.MimeType(),
		Parents:  parents(parentID),
	}
	f, err := c.driveService.CreateFile(ctx, meta, fileFields)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %q: %w", fileType, name, err)
	}
	return toFileInfo(f), nil
}

// CopyFile implements distribution.DriveClient
func (c *Client) CopyFile(ctx context.Context, sourceID, name, parentID string) (*distribution.FileInfo, error) {
	f, err := c.driveService.CopyFile(ctx, sourceID, &drive.File{Name: name, Parents: parents(parentID)}, fileFields)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s: %w", sourceID, err)
	}
	return toFileInfo(f), nil
}

// InsertPermission implements distribution.DriveClient
func (c *Client) InsertPermission(ctx context.Context, req distribution.PermissionRequest) error {
	err := c.driveService.CreatePermission(ctx, req.FileID, toPermission(req), req.Notify, req.Message)
	if err != nil {
		return fmt.Errorf("failed to share %s with %s: %w", req.FileID, req.Email, err)
	}
	return nil
}

// DeleteFile implements distribution.DriveClient
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.driveService.TrashFile(ctx, fileID); err != nil {
		return fmt.Errorf("failed to trash %s: %w", fileID, err)
	}
	return nil
}

func toFileInfo(f *drive.File) *distribution.FileInfo {
	return &distribution.FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Parents:     f.Parents,
		CreatedTime: parseTime(f.CreatedTime),
	}
}

func toPermission(req distribution.PermissionRequest) *drive.Permission {
	return &drive.Permission{
		Type:         "user",
		Role:         req.Grant.DriveRole(),
		EmailAddress: req.Email,
	}
}

func folderMetadata(name, parentID string) *drive.File {
	return &drive.File{
		Name:     name,
		MimeType: distribution.MimeTypeFolder,
		Parents:  parents(parentID),
	}
}

func parents(parentID string) []string {
	if parentID == "" {
		return nil
	}
	return []string{parentID}
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// parseTime parses a Google Drive timestamp string
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ensure Client implements distribution.DriveClient
var _ distribution.DriveClient = (*Client)(nil)
