package distribution

import (
	"context"
	"errors"
	"testing"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
)

func newSetupService(client *mockDriveClient, repo *mockRepository) *SetupService {
	return NewSetupService(client, courseRoster(), repo, nil, "School Site", "root", nil)
}

func TestSetupService_CreateActivityNewDocument(t *testing.T) {
	client := newMockDriveClient()
	repo := newMockRepository()
	svc := newSetupService(client, repo)

	activity, err := svc.CreateActivity(context.Background(), SetupRequest{
		CourseID:   7,
		Name:       "Essay",
		Base:       distribution.BaseStdCopy,
		Tokens:     []string{"5_group", "5_grouping"},
		Permission: "edit",
		DocType:    "document",
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if activity.ID == 0 {
		t.Error("expected stored activity to get an id")
	}
	if activity.Distribution != distribution.StdCopyGroupGrouping {
		t.Errorf("expected std_copy_group_grouping, got %s", activity.Distribution)
	}
	master := client.files[activity.DocID]
	if master == nil || master.Name != "Essay" || master.MimeType != distribution.TypeDocument.MimeType() {
		t.Fatalf("unexpected master %+v", master)
	}
	if master.Parents[0] != activity.ParentFolderID {
		t.Error("expected master inside the activity folder")
	}

	// root -> site -> course -> activity
	folder := client.files[activity.ParentFolderID]
	course := client.files[folder.Parents[0]]
	site := client.files[course.Parents[0]]
	if course.Name != "Math Year 7" || site.Name != "School Site" || site.Parents[0] != "root" {
		t.Errorf("unexpected hierarchy: site=%+v course=%+v", site, course)
	}

	if len(client.permissions) != 1 || client.permissions[0].Email != teacher.Email {
		t.Errorf("expected activity folder shared with the teacher, got %+v", client.permissions)
	}
}

func TestSetupService_ReusesExistingFolders(t *testing.T) {
	client := newMockDriveClient()
	client.files["site"] = &distribution.FileInfo{ID: "site", Name: "School Site", MimeType: distribution.MimeTypeFolder, Parents: []string{"root"}}
	client.files["course"] = &distribution.FileInfo{ID: "course", Name: "Math Year 7", MimeType: distribution.MimeTypeFolder, Parents: []string{"site"}}
	svc := newSetupService(client, newMockRepository())

	activity, err := svc.CreateActivity(context.Background(), SetupRequest{
		CourseID:   7,
		Name:       "Slides",
		Base:       distribution.BaseShareSame,
		Tokens:     []string{roster.EveryoneToken},
		Permission: "view",
		DocType:    "presentation",
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if client.files[activity.ParentFolderID].Parents[0] != "course" {
		t.Error("expected activity folder in the existing course folder")
	}
	if activity.Distribution != distribution.ShareSame {
		t.Errorf("expected dist_share_same, got %s", activity.Distribution)
	}
}

func TestSetupService_AdoptsExistingFile(t *testing.T) {
	client := newMockDriveClient()
	svc := newSetupService(client, newMockRepository())

	activity, err := svc.CreateActivity(context.Background(), SetupRequest{
		CourseID:    7,
		Name:        "Homework 1",
		Base:        distribution.BaseGroupCopy,
		Tokens:      []string{"5_grouping"},
		Permission:  "comment",
		ExistingURL: "https://docs.google.com/document/d/master-doc/edit",
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if activity.DocID == "master-doc" {
		t.Error("expected the existing file to be copied, not used directly")
	}
	if activity.DocType != distribution.TypeDocument {
		t.Errorf("expected document type from mime, got %s", activity.DocType)
	}
	if client.files[activity.DocID].Name != "Homework" {
		t.Errorf("expected copy to keep the source title, got %q", client.files[activity.DocID].Name)
	}
}

func TestSetupService_RejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		req     SetupRequest
		wantErr error
	}{
		{
			name: "everyone combined with a group",
			req: SetupRequest{
				Name: "Essay", Base: distribution.BaseStdCopy,
				Tokens:     []string{roster.EveryoneToken, "5_group"},
				Permission: "edit", DocType: "document",
			},
			wantErr: roster.ErrEveryoneWithGroups,
		},
		{
			name: "group copy for everyone",
			req: SetupRequest{
				Name: "Essay", Base: distribution.BaseGroupCopy,
				Tokens:     []string{roster.EveryoneToken},
				Permission: "edit", DocType: "document",
			},
			wantErr: distribution.ErrConfiguration,
		},
		{
			name: "unknown permission",
			req: SetupRequest{
				Name: "Essay", Base: distribution.BaseStdCopy,
				Permission: "own", DocType: "document",
			},
			wantErr: distribution.ErrUnknownPermission,
		},
		{
			name: "unknown document type",
			req: SetupRequest{
				Name: "Essay", Base: distribution.BaseStdCopy,
				Permission: "edit", DocType: "drawing",
			},
			wantErr: distribution.ErrUnknownFileType,
		},
		{
			name: "url without file id",
			req: SetupRequest{
				Name: "Essay", Base: distribution.BaseStdCopy,
				Permission: "edit", ExistingURL: "https://example.com/nothing",
			},
			wantErr: distribution.ErrInvalidFileURL,
		},
		{
			name:    "missing name",
			req:     SetupRequest{Base: distribution.BaseStdCopy, Permission: "edit", DocType: "document"},
			wantErr: distribution.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockDriveClient()
			repo := newMockRepository()
			svc := newSetupService(client, repo)

			_, err := svc.CreateActivity(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if client.calls != 0 {
				t.Errorf("expected zero store calls, got %d", client.calls)
			}
			if len(repo.activities) != 0 {
				t.Error("expected nothing to be stored")
			}
		})
	}
}
