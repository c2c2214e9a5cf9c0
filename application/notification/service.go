package notification

import (
	"context"
	"fmt"
	"time"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/notification"
)

const folderURLPrefix = "https://drive.google.com/drive/folders/"

// Service handles email notification operations
type Service struct {
	sender     notification.EmailSender
	senderName string
	now        func() time.Time
}

// NewService creates a new notification service
func NewService(sender notification.EmailSender, senderName string) *Service {
	return &Service{
		sender:     sender,
		senderName: senderName,
		now:        time.Now,
	}
}

// SummaryRequest contains the parameters for a run summary
type SummaryRequest struct {
	To         []notification.Recipient
	CC         []notification.Recipient
	CourseName string
	Activity   *distribution.Activity
	Result     *distribution.Result
}

// SendRunSummary emails the outcome of a distribution run
func (s *Service) SendRunSummary(ctx context.Context, req SummaryRequest) error {
	if req.Activity == nil || req.Result == nil {
		return fmt.Errorf("run summary needs an activity and a result")
	}

	emailReq := &notification.EmailRequest{
		To:           req.To,
		CC:           req.CC,
		CourseName:   req.CourseName,
		ActivityName: req.Activity.Name,
		Distribution: string(req.Activity.Distribution),
		Created:      req.Result.Created(),
		Failures:     failures(req.Result),
		FinishedAt:   s.now(),
		SenderName:   s.senderName,
	}
	if req.Activity.ParentFolderID != "" {
		emailReq.FolderURL = folderURLPrefix + req.Activity.ParentFolderID
	}

	return s.sender.Send(ctx, emailReq)
}

func failures(result *distribution.Result) []notification.Failure {
	var out []notification.Failure
	for _, st := range result.Status {
		if st.CreationStatus == distribution.StatusOK {
			continue
		}
		out = append(out, notification.Failure{
			Target: targetLabel(st),
			Status: st.CreationStatus,
		})
	}
	return out
}

func targetLabel(st distribution.StatusEntry) string {
	switch {
	case st.GroupID != 0:
		return fmt.Sprintf("group %d", st.GroupID)
	case st.GroupingID != 0:
		return fmt.Sprintf("grouping %d", st.GroupingID)
	default:
		return fmt.Sprintf("user %d", st.UserID)
	}
}
