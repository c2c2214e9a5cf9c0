package distribution

import (
	"fmt"
	"regexp"
)

// FileType is the kind of master document an activity distributes
type FileType string

const (
	TypeDocument     FileType = "document"
	TypeSpreadsheet  FileType = "spreadsheets"
	TypePresentation FileType = "presentation"
	TypeFolder       FileType = "folder"
)

// MimeTypeFolder is the Drive MIME type for folders
const MimeTypeFolder = "application/vnd.google-apps.folder"

type fileProperties struct {
	mimeType     string
	linkTemplate string
}

var fileTypes = map[FileType]fileProperties{
	TypeDocument: {
		mimeType:     "application/vnd.google-apps.document",
		linkTemplate: "https://docs.google.com/document/d/%s/edit?usp=sharing",
	},
	TypeSpreadsheet: {
		mimeType:     "application/vnd.google-apps.spreadsheet",
		linkTemplate: "https://docs.google.com/spreadsheets/d/%s/edit?usp=sharing",
	},
	TypePresentation: {
		mimeType:     "application/vnd.google-apps.presentation",
		linkTemplate: "https://docs.google.com/presentation/d/%s/edit?usp=sharing",
	},
	TypeFolder: {
		mimeType:     MimeTypeFolder,
		linkTemplate: "https://drive.google.com/drive/folders/%s/?usp=sharing",
	},
}

var fileIDPattern = regexp.MustCompile(`/(d|folders)/([a-zA-Z0-9_-]+)`)

// ParseFileType parses a document type keyword
func ParseFileType(s string) (FileType, error) {
	t := FileType(s)
	if _, ok := fileTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFileType, s)
	}
	return t, nil
}

// FileTypeForMime returns the document type for a Drive MIME type
func FileTypeForMime(mimeType string) (FileType, error) {
	for t, p := range fileTypes {
		if p.mimeType == mimeType {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: mime type %q", ErrUnknownFileType, mimeType)
}

// MimeType returns the Drive MIME type for the document type
func (t FileType) MimeType() string {
	return fileTypes[t].mimeType
}

// Link returns the sharing URL for a file of this type
func (t FileType) Link(fileID string) string {
	return fmt.Sprintf(fileTypes[t].linkTemplate, fileID)
}

// IsFolder reports whether the type is a folder
func (t FileType) IsFolder() bool {
	return t == TypeFolder
}

// FileIDFromURL extracts the file id from a Drive or Docs URL
func FileIDFromURL(url string) (string, error) {
	m := fileIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileURL, url)
	}
	return m[2], nil
}
