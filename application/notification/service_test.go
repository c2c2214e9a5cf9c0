package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/notification"
)

type mockSender struct {
	sent       []*notification.EmailRequest
	shouldFail bool
}

func (m *mockSender) Send(_ context.Context, req *notification.EmailRequest) error {
	if m.shouldFail {
		return notification.ErrSendFailed
	}
	m.sent = append(m.sent, req)
	return nil
}

func TestService_SendRunSummary(t *testing.T) {
	sender := &mockSender{}
	svc := NewService(sender, "Course office")
	finished := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return finished }

	activity := &distribution.Activity{
		Name:           "Lab report",
		Distribution:   distribution.GroupCopy,
		ParentFolderID: "folder-1",
	}
	result := &distribution.Result{Status: []distribution.StatusEntry{
		{UserID: 101, CreationStatus: distribution.StatusOK},
		{UserID: 102, GroupID: 5, CreationStatus: "permission denied"},
		{UserID: 103, GroupingID: 6, CreationStatus: distribution.StatusOK},
		{UserID: 104, CreationStatus: "quota exceeded"},
	}}

	err := svc.SendRunSummary(context.Background(), SummaryRequest{
		To:         []notification.Recipient{{Name: "Dana Park", Address: "park@example.com"}},
		CourseName: "BIO101",
		Activity:   activity,
		Result:     result,
	})
	if err != nil {
		t.Fatalf("SendRunSummary() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.Created != 2 {
		t.Errorf("Created = %d, want 2", got.Created)
	}
	want := []notification.Failure{
		{Target: "group 5", Status: "permission denied"},
		{Target: "user 104", Status: "quota exceeded"},
	}
	if len(got.Failures) != len(want) {
		t.Fatalf("Failures = %+v, want %+v", got.Failures, want)
	}
	for i := range want {
		if got.Failures[i] != want[i] {
			t.Errorf("Failures[%d] = %+v, want %+v", i, got.Failures[i], want[i])
		}
	}
	if got.FolderURL != "https://drive.google.com/drive/folders/folder-1" {
		t.Errorf("FolderURL = %q", got.FolderURL)
	}
	if got.Distribution != "group_copy" || got.SenderName != "Course office" || !got.FinishedAt.Equal(finished) {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestService_SendRunSummary_Errors(t *testing.T) {
	svc := NewService(&mockSender{shouldFail: true}, "office")

	if err := svc.SendRunSummary(context.Background(), SummaryRequest{}); err == nil {
		t.Error("expected an error without activity and result")
	}

	err := svc.SendRunSummary(context.Background(), SummaryRequest{
		To:       []notification.Recipient{{Address: "park@example.com"}},
		Activity: &distribution.Activity{Name: "Essay"},
		Result:   &distribution.Result{},
	})
	if !errors.Is(err, notification.ErrSendFailed) {
		t.Errorf("expected ErrSendFailed, got %v", err)
	}
}
