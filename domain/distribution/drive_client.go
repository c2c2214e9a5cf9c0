package distribution

import (
	"context"
	"time"
)

// DriveClient defines the interface for Google Drive operations
// This is a port that can be implemented by different infrastructure adapters
type DriveClient interface {
	// GetFile returns metadata of a file or folder
	GetFile(ctx context.Context, fileID string) (*FileInfo, error)

	// FindFolder returns the folder named name inside parentID, or nil if there is none
	FindFolder(ctx context.Context, name, parentID string) (*FileInfo, error)

	// CreateFolder creates a folder inside parentID
	CreateFolder(ctx context.Context, name, parentID string) (*FileInfo, error)

	// CreateFile creates an empty file of the given type inside parentID
	CreateFile(ctx context.Context, name string, fileType FileType, parentID string) (*FileInfo, error)

	// CopyFile copies sourceID into parentID under a new name
	CopyFile(ctx context.Context, sourceID, name, parentID string) (*FileInfo, error)

	// InsertPermission grants a user access to a file
	InsertPermission(ctx context.Context, req PermissionRequest) error

	// DeleteFile moves a file to the trash
	DeleteFile(ctx context.Context, fileID string) error

	// ExecuteBatch runs every request in the batch concurrently and returns
	// one result per request in completion order. A returned error means the
	// whole batch failed and wraps ErrTransport.
	ExecuteBatch(ctx context.Context, batch *Batch) ([]BatchResult, error)
}

// FileInfo represents metadata about a file in Google Drive
type FileInfo struct {
	ID          string
	Name        string
	MimeType    string
	Parents     []string
	CreatedTime time.Time
}

// IsFolder reports whether the file is a folder
func (f FileInfo) IsFolder() bool {
	return f.MimeType == MimeTypeFolder
}
