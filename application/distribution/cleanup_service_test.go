package distribution

import (
	"context"
	"errors"
	"testing"

	"drive-distribution/domain/distribution"
)

func seededRepository(t *testing.T, dist distribution.Distribution, tokens ...string) (*mockRepository, *mockDriveClient) {
	t.Helper()
	f := newFixture(newActivity(t, dist, tokens...), Options{})
	if _, err := f.engine.CreateDistribution(context.Background(), Request{ActivityID: 1}); err != nil {
		t.Fatalf("CreateDistribution() error = %v", err)
	}
	return f.repo, f.drive
}

func TestCleanupService_RemoveActivityWithTrash(t *testing.T) {
	repo, client := seededRepository(t, distribution.GroupCopy, "5_group", "5_grouping")
	svc := NewCleanupService(client, repo, newMockLocker(), nil, nil)

	result, err := svc.RemoveActivity(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("RemoveActivity() error = %v", err)
	}

	// two copies and two folders
	if len(result.TrashedFiles) != 4 {
		t.Errorf("expected 4 trashed files, got %+v", result.TrashedFiles)
	}
	if len(result.Failures) != 0 {
		t.Errorf("expected no failures, got %+v", result.Failures)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 1 {
		t.Errorf("expected activity 1 deleted, got %v", repo.deleted)
	}
}

func TestCleanupService_NeverTrashesMaster(t *testing.T) {
	repo, client := seededRepository(t, distribution.ShareSame)
	svc := NewCleanupService(client, repo, newMockLocker(), nil, nil)

	result, err := svc.RemoveActivity(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("RemoveActivity() error = %v", err)
	}
	if len(client.deleted) != 0 {
		t.Errorf("expected master to be kept, trashed %v", client.deleted)
	}
	if len(result.TrashedFiles) != 0 {
		t.Errorf("expected nothing trashed, got %+v", result.TrashedFiles)
	}
}

func TestCleanupService_TrashFailureDoesNotStopRemoval(t *testing.T) {
	repo, client := seededRepository(t, distribution.StdCopy)
	svc := NewCleanupService(client, repo, newMockLocker(), nil, nil)

	id, err := distribution.FileIDFromURL(repo.files[0].URL)
	if err != nil {
		t.Fatalf("FileIDFromURL() error = %v", err)
	}
	client.failCreate[id] = errors.New("googleapi: Error 404: File not found")

	result, err := svc.RemoveActivity(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("RemoveActivity() error = %v", err)
	}
	if len(result.Failures) != 1 || result.Failures[0].ID != id {
		t.Errorf("expected one failure for %s, got %+v", id, result.Failures)
	}
	if len(result.TrashedFiles) != 2 {
		t.Errorf("expected 2 trashed files, got %d", len(result.TrashedFiles))
	}
	if len(repo.deleted) != 1 {
		t.Error("expected activity to be deleted")
	}
}

func TestCleanupService_RemoveWithoutTrash(t *testing.T) {
	repo, client := seededRepository(t, distribution.StdCopy)
	svc := NewCleanupService(client, repo, newMockLocker(), nil, nil)

	if _, err := svc.RemoveActivity(context.Background(), 1, false); err != nil {
		t.Fatalf("RemoveActivity() error = %v", err)
	}
	if len(client.deleted) != 0 {
		t.Errorf("expected no Drive calls, trashed %v", client.deleted)
	}
}

func TestCleanupService_Errors(t *testing.T) {
	t.Run("unknown activity", func(t *testing.T) {
		svc := NewCleanupService(newMockDriveClient(), newMockRepository(), newMockLocker(), nil, nil)
		_, err := svc.RemoveActivity(context.Background(), 9, true)
		if !errors.Is(err, distribution.ErrActivityNotFound) {
			t.Errorf("expected ErrActivityNotFound, got %v", err)
		}
	})

	t.Run("run in progress", func(t *testing.T) {
		locker := newMockLocker()
		locker.held[distribution.RunLockKey(1)] = true
		svc := NewCleanupService(newMockDriveClient(), newMockRepository(), locker, nil, nil)
		_, err := svc.RemoveActivity(context.Background(), 1, false)
		if !errors.Is(err, distribution.ErrRunInProgress) {
			t.Errorf("expected ErrRunInProgress, got %v", err)
		}
	})

	t.Run("delete fails", func(t *testing.T) {
		repo := newMockRepository(&distribution.Activity{ID: 1, DocID: "master-doc"})
		repo.shouldFail = true
		repo.failError = errors.New("connection refused")
		svc := NewCleanupService(newMockDriveClient(), repo, newMockLocker(), nil, nil)
		_, err := svc.RemoveActivity(context.Background(), 1, false)
		if err == nil {
			t.Error("expected error")
		}
	})
}
