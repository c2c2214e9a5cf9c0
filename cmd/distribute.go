package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appdist "drive-distribution/application/distribution"
	appnotify "drive-distribution/application/notification"
	"drive-distribution/domain/distribution"
	"drive-distribution/domain/notification"
	"drive-distribution/domain/roster"
	"drive-distribution/infrastructure/config"
)

var (
	distributeActivity int64
	distributeStudents []string
	distributeNotify   []string
)

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Create and share an activity's copies",
	Long: `Resolves the activity's recipients, creates one copy per target (or shares
the master), grants the activity's permission, and records the outcome of every
target. An activity can be distributed once.

--student replaces the course enrolment for whole-course distributions. Each
value is id:first:last:email.

--notify emails a run summary to configured recipients, looked up by key or name.

Examples:
  drive-distribution distribute --activity 7
  drive-distribution distribute --activity 7 --notify park,ortiz
  drive-distribution distribute --activity 8 --student 101:Amy:Ng:amy@example.com --student 102:Bo:Li:bo@example.com`,
	RunE: runDistribute,
}

func init() {
	rootCmd.AddCommand(distributeCmd)
	distributeCmd.Flags().Int64Var(&distributeActivity, "activity", 0, "Activity id (required)")
	distributeCmd.Flags().StringArrayVar(&distributeStudents, "student", nil, "Student as id:first:last:email (repeatable)")
	distributeCmd.Flags().StringSliceVar(&distributeNotify, "notify", nil, "Recipients of the run summary")
	_ = distributeCmd.MarkFlagRequired("activity")
}

// Distributor runs a distribution
type Distributor interface {
	CreateDistribution(ctx context.Context, req appdist.Request) (*distribution.Result, error)
}

// SummarySender emails run summaries
type SummarySender interface {
	SendRunSummary(ctx context.Context, req appnotify.SummaryRequest) error
}

// DistributeDependencies are the collaborators of the distribute command.
// Notifier may be nil when no summary is requested.
type DistributeDependencies struct {
	Engine     Distributor
	Activities interface {
		GetActivity(ctx context.Context, id int64) (*distribution.Activity, error)
	}
	Courses interface {
		GetCourse(ctx context.Context, courseID int64) (*roster.Course, error)
	}
	Notifier   SummarySender
	Recipients []notification.Recipient
	CC         []notification.Recipient
}

func runDistribute(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	students, err := ParseStudents(distributeStudents)
	if err != nil {
		return err
	}

	var recipients []notification.Recipient
	lookup := config.NewRecipientLookup(cfg)
	if len(distributeNotify) > 0 {
		recipients, err = lookup.LookupRecipients(distributeNotify)
		if err != nil {
			return recipientError(err)
		}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, DefaultOutput, wireOptions{drive: true, email: len(recipients) > 0})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	deps := DistributeDependencies{
		Engine:     a.engine(DefaultOutput),
		Activities: a.repo,
		Courses:    a.roster,
		Recipients: recipients,
		CC:         lookup.DefaultCC(),
	}
	if a.notifier != nil {
		deps.Notifier = a.notifier
	}

	return RunDistributeWithDependencies(ctx, deps, appdist.Request{
		ActivityID: distributeActivity,
		Students:   students,
	}, DefaultOutput)
}

// RunDistributeWithDependencies runs the distribute command with injected dependencies
func RunDistributeWithDependencies(ctx context.Context, deps DistributeDependencies, req appdist.Request, out OutputWriter) error {
	result, err := deps.Engine.CreateDistribution(ctx, req)
	if err != nil {
		if appdist.IsRetryable(err) {
			return fmt.Errorf("%w (nothing was saved; the run can be retried)", err)
		}
		return err
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tGROUP\tGROUPING\tSTATUS")
	for _, st := range result.Status {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.UserID, optionalID(st.GroupID), optionalID(st.GroupingID), st.CreationStatus)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d files recorded, %d of %d targets succeeded\n", len(result.Records), result.Created(), len(result.Status))

	if len(deps.Recipients) == 0 || deps.Notifier == nil {
		return nil
	}

	activity, err := deps.Activities.GetActivity(ctx, req.ActivityID)
	if err != nil {
		return fmt.Errorf("distribution finished but the summary could not be prepared: %w", err)
	}
	courseName := ""
	if course, err := deps.Courses.GetCourse(ctx, activity.CourseID); err == nil {
		courseName = course.FullName
	}

	err = deps.Notifier.SendRunSummary(ctx, appnotify.SummaryRequest{
		To:         deps.Recipients,
		CC:         deps.CC,
		CourseName: courseName,
		Activity:   activity,
		Result:     result,
	})
	if err != nil {
		fmt.Fprintf(out, "Warning: failed to send run summary: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "Run summary sent to %d recipients\n", len(deps.Recipients))
	return nil
}

// ParseStudents parses id:first:last:email values
func ParseStudents(values []string) ([]roster.User, error) {
	if len(values) == 0 {
		return nil, nil
	}
	students := make([]roster.User, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) != 4 {
			return nil, &ValidationError{
				Message:    fmt.Sprintf("invalid student %q", v),
				Suggestion: "use id:first:last:email, e.g. 101:Amy:Ng:amy@example.com",
			}
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || id <= 0 {
			return nil, &ValidationError{
				Message:    fmt.Sprintf("invalid student id in %q", v),
				Suggestion: "the id must be a positive number",
			}
		}
		if !strings.Contains(parts[3], "@") {
			return nil, &ValidationError{
				Message:    fmt.Sprintf("invalid student email in %q", v),
				Suggestion: "the fourth field must be an email address",
			}
		}
		students = append(students, roster.User{
			ID:        id,
			FirstName: parts[1],
			LastName:  parts[2],
			Email:     parts[3],
		})
	}
	return students, nil
}

func optionalID(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}
