package distribution

import (
	"errors"
	"testing"
)

func TestFileType_Link(t *testing.T) {
	tests := []struct {
		fileType FileType
		want     string
	}{
		{TypeDocument, "https://docs.google.com/document/d/abc/edit?usp=sharing"},
		{TypeSpreadsheet, "https://docs.google.com/spreadsheets/d/abc/edit?usp=sharing"},
		{TypePresentation, "https://docs.google.com/presentation/d/abc/edit?usp=sharing"},
		{TypeFolder, "https://drive.google.com/drive/folders/abc/?usp=sharing"},
	}

	for _, tt := range tests {
		t.Run(string(tt.fileType), func(t *testing.T) {
			if got := tt.fileType.Link("abc"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFileTypeForMime(t *testing.T) {
	got, err := FileTypeForMime("application/vnd.google-apps.spreadsheet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != TypeSpreadsheet {
		t.Errorf("expected spreadsheets, got %q", got)
	}

	if _, err := FileTypeForMime("video/mp4"); !errors.Is(err, ErrUnknownFileType) {
		t.Errorf("expected ErrUnknownFileType, got %v", err)
	}
	if !TypeFolder.IsFolder() || TypeDocument.IsFolder() {
		t.Error("IsFolder mismatch")
	}
}

func TestFileIDFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "document", url: "https://docs.google.com/document/d/1AbC-d_9/edit?usp=sharing", want: "1AbC-d_9"},
		{name: "folder", url: "https://drive.google.com/drive/folders/0Bx_ZZ/?usp=sharing", want: "0Bx_ZZ"},
		{name: "spreadsheet without suffix", url: "https://docs.google.com/spreadsheets/d/XYZ", want: "XYZ"},
		{name: "not a drive url", url: "https://example.com/file.docx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FileIDFromURL(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFileURL) {
					t.Errorf("expected ErrInvalidFileURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
