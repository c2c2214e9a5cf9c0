package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appdist "drive-distribution/application/distribution"
	"drive-distribution/domain/distribution"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Create, inspect and remove activities",
}

var (
	createCourse       int64
	createName         string
	createIntro        string
	createDistribution string
	createTo           []string
	createPermission   string
	createDocType      string
	createExistingURL  string
)

var activityCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an activity and its master document",
	Long: `Creates the Drive folder hierarchy of an activity, creates or adopts its
master document, and stores the activity.

--distribution is one of std_copy, dist_share_same or group_copy. --to selects
the recipients: 00_everyone (default), or group and grouping tokens such as
5_group and 7_grouping. The stored distribution combines both.

Examples:
  drive-distribution activity create --course 12 --name "Lab report" --distribution std_copy --permission edit
  drive-distribution activity create --course 12 --name "Poster" --distribution group_copy --to 5_group,6_group --permission comment --type presentation
  drive-distribution activity create --course 12 --name "Reading" --distribution dist_share_same --permission view --url https://docs.google.com/document/d/abc/edit`,
	RunE: runActivityCreate,
}

var activityShowCmd = &cobra.Command{
	Use:   "show <activity-id>",
	Short: "Show an activity and its created files",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivityShow,
}

var deleteTrash bool

var activityDeleteCmd = &cobra.Command{
	Use:   "delete <activity-id>",
	Short: "Remove an activity and its records",
	Long: `Removes the activity and every folder, file and task record that belongs to it.
With --trash the created copies and folders are moved to the Drive trash too.
The master document is never trashed.`,
	Args: cobra.ExactArgs(1),
	RunE: runActivityDelete,
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityCreateCmd, activityShowCmd, activityDeleteCmd)

	f := activityCreateCmd.Flags()
	f.Int64Var(&createCourse, "course", 0, "Course id (required)")
	f.StringVar(&createName, "name", "", "Activity name (required)")
	f.StringVar(&createIntro, "intro", "", "Description shown to students")
	f.StringVar(&createDistribution, "distribution", string(distribution.BaseStdCopy), "std_copy, dist_share_same or group_copy")
	f.StringSliceVar(&createTo, "to", []string{"00_everyone"}, "Recipient tokens")
	f.StringVar(&createPermission, "permission", string(distribution.PermissionEdit), "edit, comment or view")
	f.StringVar(&createDocType, "type", string(distribution.TypeDocument), "Master type when creating a new file")
	f.StringVar(&createExistingURL, "url", "", "Adopt an existing Drive file as the master")
	_ = activityCreateCmd.MarkFlagRequired("course")
	_ = activityCreateCmd.MarkFlagRequired("name")

	activityDeleteCmd.Flags().BoolVar(&deleteTrash, "trash", false, "Also trash the created Drive files and folders")
}

// ActivityCreator creates activities
type ActivityCreator interface {
	CreateActivity(ctx context.Context, req appdist.SetupRequest) (*distribution.Activity, error)
}

func runActivityCreate(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, DefaultOutput, wireOptions{drive: true})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	return RunActivityCreateWithDependencies(ctx, a.setupService(DefaultOutput), appdist.SetupRequest{
		CourseID:    createCourse,
		Name:        createName,
		Intro:       createIntro,
		Base:        distribution.BaseMode(createDistribution),
		Tokens:      createTo,
		Permission:  createPermission,
		DocType:     createDocType,
		ExistingURL: createExistingURL,
	}, DefaultOutput)
}

// RunActivityCreateWithDependencies runs the create command with injected dependencies
func RunActivityCreateWithDependencies(ctx context.Context, creator ActivityCreator, req appdist.SetupRequest, out OutputWriter) error {
	activity, err := creator.CreateActivity(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Created activity %d: %s\n", activity.ID, activity.Name)
	fmt.Fprintf(out, "  Distribution: %s\n", activity.Distribution)
	fmt.Fprintf(out, "  Master:       %s\n", activity.MasterLink())
	return nil
}

// ActivityReader reads an activity and its records
type ActivityReader interface {
	GetActivity(ctx context.Context, id int64) (*distribution.Activity, error)
	ListFileRecords(ctx context.Context, activityID int64) ([]distribution.FileRecord, error)
	ListWorkTasks(ctx context.Context, activityID int64) ([]distribution.WorkTask, error)
}

func runActivityShow(cmd *cobra.Command, args []string) error {
	id, err := parseActivityID(args[0])
	if err != nil {
		return err
	}
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, DefaultOutput, wireOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	return RunActivityShowWithDependencies(ctx, a.repo, id, DefaultOutput)
}

// RunActivityShowWithDependencies prints the activity, its files and failed tasks
func RunActivityShowWithDependencies(ctx context.Context, reader ActivityReader, id int64, out OutputWriter) error {
	activity, err := reader.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	files, err := reader.ListFileRecords(ctx, id)
	if err != nil {
		return err
	}
	tasks, err := reader.ListWorkTasks(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Activity %d: %s\n", activity.ID, activity.Name)
	fmt.Fprintf(out, "  Course:       %d\n", activity.CourseID)
	fmt.Fprintf(out, "  Distribution: %s (%s)\n", activity.Distribution, activity.Permission)
	fmt.Fprintf(out, "  Recipients:   %s\n", strings.Join(activity.Selection.Tokens(), ", "))
	fmt.Fprintf(out, "  Master:       %s\n", activity.MasterLink())
	fmt.Fprintf(out, "  Shared:       %t\n", activity.Sharing)

	if len(files) == 0 {
		fmt.Fprintln(out, "\nNo files created yet.")
	} else {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TARGET\tNAME\tPERMISSION\tURL")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", fileTarget(f), f.Name, f.Permission, f.URL)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	var failed []distribution.WorkTask
	for _, t := range tasks {
		if !t.OK() {
			failed = append(failed, t)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(out, "\n%d failed tasks:\n", len(failed))
		for _, t := range failed {
			fmt.Fprintf(out, "  user %d: %s\n", t.UserID, t.Status)
		}
	}
	return nil
}

func fileTarget(f distribution.FileRecord) string {
	switch {
	case f.GroupID != 0:
		return fmt.Sprintf("group %d", f.GroupID)
	case f.GroupingID != 0:
		return fmt.Sprintf("grouping %d", f.GroupingID)
	default:
		return fmt.Sprintf("user %d", f.UserID)
	}
}

// ActivityRemover removes activities
type ActivityRemover interface {
	RemoveActivity(ctx context.Context, activityID int64, trash bool) (*distribution.CleanupResult, error)
}

func runActivityDelete(cmd *cobra.Command, args []string) error {
	id, err := parseActivityID(args[0])
	if err != nil {
		return err
	}
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, DefaultOutput, wireOptions{drive: deleteTrash})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	return RunActivityDeleteWithDependencies(ctx, a.cleanupService(DefaultOutput), id, deleteTrash, DefaultOutput)
}

// RunActivityDeleteWithDependencies runs the delete command with injected dependencies
func RunActivityDeleteWithDependencies(ctx context.Context, remover ActivityRemover, id int64, trash bool, out OutputWriter) error {
	result, err := remover.RemoveActivity(ctx, id, trash)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Removed activity %d\n", result.ActivityID)
	if trash {
		fmt.Fprintf(out, "  Trashed %d Drive items\n", len(result.TrashedFiles))
	}
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  Could not trash %s (%s): %s\n", f.Name, f.ID, f.Reason)
	}
	return nil
}

func parseActivityID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid activity id %q", s)
	}
	return id, nil
}
