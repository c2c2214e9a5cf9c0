package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	approster "drive-distribution/application/roster"
	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
	"drive-distribution/infrastructure/logging"
)

const defaultLockTTL = 10 * time.Minute

// Options tune a distribution run
type Options struct {
	SharePolicy         distribution.SharePolicy
	NotificationMessage string
	LockTTL             time.Duration
}

// Request starts a distribution run for one activity.
// Students, when set, replaces the enrolment lookup for whole-course distributions.
type Request struct {
	ActivityID int64
	Students   []roster.User
}

// Engine resolves an activity's roster, creates and shares the copies, and
// persists the outcome of every target.
type Engine struct {
	driveClient distribution.DriveClient
	roster      roster.Roster
	resolver    *approster.Resolver
	repo        distribution.Repository
	locker      distribution.Locker
	folders     *FolderBuilder
	logger      logging.Logger
	output      io.Writer
	opts        Options
	handlers    map[distribution.Distribution]handler
}

// handler runs the create and share steps of one canonical distribution
type handler func(ctx context.Context, r *run) error

// run is the state of one CreateDistribution call
type run struct {
	id       string
	activity *distribution.Activity
	master   *distribution.FileInfo
	fileType distribution.FileType
	grant    distribution.Grant
	staff    []roster.User
	set      distribution.TargetSet
	progress []*distribution.Progress
	folders  *FolderSet
}

// NewEngine creates a new distribution engine
func NewEngine(
	client distribution.DriveClient,
	rosterPort roster.Roster,
	repo distribution.Repository,
	locker distribution.Locker,
	logger logging.Logger,
	opts Options,
	output io.Writer,
) *Engine {
	if output == nil {
		output = io.Discard
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.SharePolicy == "" {
		opts.SharePolicy = distribution.SharePolicyStrict
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}

	e := &Engine{
		driveClient: client,
		roster:      rosterPort,
		resolver:    approster.NewResolver(rosterPort),
		repo:        repo,
		locker:      locker,
		folders:     NewFolderBuilder(client, logger, output),
		logger:      logger,
		output:      output,
		opts:        opts,
	}
	e.handlers = map[distribution.Distribution]handler{
		distribution.StdCopy:                e.copyPerUser,
		distribution.StdCopyGroup:           e.copyPerMember,
		distribution.StdCopyGrouping:        e.copyPerMember,
		distribution.StdCopyGroupGrouping:   e.copyPerMember,
		distribution.ShareSame:              e.shareMaster,
		distribution.ShareSameGroup:         e.copyPerContainer,
		distribution.ShareSameGrouping:      e.copyPerContainer,
		distribution.ShareSameGroupGrouping: e.copyPerContainer,
		distribution.GroupCopy:              e.copyPerContainer,
	}
	return e
}

// CreateDistribution runs the activity's distribution and returns the created
// records and one status per target, in target order.
//
// Configuration errors, an empty roster, transport failures and correlation
// failures are returned as errors and nothing is persisted. Per-target
// failures are reported in the status list.
func (e *Engine) CreateDistribution(ctx context.Context, req Request) (res *distribution.Result, err error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "Distribution.Engine.CreateDistribution")
	span.SetAttributes(
		attribute.Int64("activity.id", req.ActivityID),
		attribute.String("run.id", runID),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := e.logger.With("run_id", runID, "activity_id", req.ActivityID)

	lease, err := e.locker.Acquire(ctx, distribution.RunLockKey(req.ActivityID), e.opts.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock activity %d: %w", req.ActivityID, err)
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			log.Warn(ctx, "failed to release run lock", "err", rerr)
		}
	}()
	runCtx, stopLease := e.holdLease(ctx, lease, log)
	defer stopLease()

	fmt.Fprintf(e.output, "[1/5] Loading activity %d...\n", req.ActivityID)
	activity, err := e.repo.GetActivity(runCtx, req.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	if activity.Sharing {
		return nil, distribution.ErrAlreadyDistributed
	}
	if err := activity.Validate(); err != nil {
		return nil, err
	}
	handle, ok := e.handlers[activity.Distribution]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", distribution.ErrConfiguration, distribution.ErrUnknownDistribution, activity.Distribution)
	}

	fmt.Fprintf(e.output, "[2/5] Resolving roster for %s...\n", activity.Distribution)
	set, err := e.resolver.Resolve(runCtx, activity.CourseID, activity.Selection, activity.Distribution.Unit(), req.Students)
	if err != nil {
		return nil, lockLost(runCtx, req.ActivityID, err)
	}
	fmt.Fprintf(e.output, "      %d targets\n", set.Len())

	fmt.Fprintf(e.output, "[3/5] Reading master file...\n")
	r, err := e.prepare(runCtx, runID, activity, set)
	if err != nil {
		return nil, lockLost(runCtx, req.ActivityID, err)
	}

	fmt.Fprintf(e.output, "[4/5] Creating and sharing files...\n")
	if err := handle(runCtx, r); err != nil {
		return nil, lockLost(runCtx, req.ActivityID, err)
	}

	fmt.Fprintf(e.output, "[5/5] Saving records...\n")
	records, result := e.collect(r)
	if err := e.repo.SaveRun(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	span.SetAttributes(
		attribute.Int("run.targets", len(result.Status)),
		attribute.Int("run.created", result.Created()),
	)
	log.Info(ctx, "distribution finished",
		"distribution", string(activity.Distribution),
		"targets", len(result.Status),
		"created", result.Created(),
		"failed", result.Failed(),
	)
	fmt.Fprintf(e.output, "      %d created, %d failed\n", result.Created(), result.Failed())

	return result, nil
}

func (e *Engine) prepare(ctx context.Context, runID string, activity *distribution.Activity, set distribution.TargetSet) (*run, error) {
	master, err := e.driveClient.GetFile(ctx, activity.DocID)
	if err != nil {
		return nil, fmt.Errorf("failed to get master file: %w", err)
	}

	fileType := activity.DocType
	if master.IsFolder() {
		fileType = distribution.TypeFolder
	}

	r := &run{
		id:       runID,
		activity: activity,
		master:   master,
		fileType: fileType,
		grant:    activity.Permission.Grant(),
		set:      set,
	}
	for _, t := range set.Targets {
		r.progress = append(r.progress, distribution.NewProgress(t))
	}

	if activity.Distribution.NeedsFolders() {
		staff, err := e.roster.ListTeachers(ctx, activity.CourseID)
		if err != nil {
			return nil, fmt.Errorf("failed to list teachers: %w", err)
		}
		r.staff = staff
	}

	return r, nil
}

// collect turns the run's progress into persisted records and the caller's result
func (e *Engine) collect(r *run) (distribution.RunRecords, *distribution.Result) {
	records := distribution.RunRecords{ActivityID: r.activity.ID}
	if r.folders != nil {
		records.Folders = r.folders.Records
	}
	result := &distribution.Result{
		RunID:   r.id,
		Records: []distribution.RecordEntry{},
		Status:  make([]distribution.StatusEntry, 0, len(r.progress)),
	}

	for _, p := range r.progress {
		userID, groupID, groupingID := p.Target.Owner()
		status := p.Status()

		records.Tasks = append(records.Tasks, distribution.WorkTask{
			ActivityID: r.activity.ID,
			UserID:     userID,
			GroupID:    groupID,
			GroupingID: groupingID,
			Status:     status,
		})
		result.Status = append(result.Status, distribution.StatusEntry{
			UserID:         userID,
			GroupID:        groupID,
			GroupingID:     groupingID,
			CreationStatus: status,
		})

		if !e.opts.SharePolicy.RecordsFile(p.State) {
			continue
		}
		records.Files = append(records.Files, distribution.FileRecord{
			ActivityID:   r.activity.ID,
			UserID:       userID,
			GroupID:      groupID,
			GroupingID:   groupingID,
			Name:         p.FileName,
			URL:          p.URL,
			Permission:   r.activity.Permission,
			SubmitStatus: distribution.SubmitStatusNotSubmitted,
		})
		result.Records = append(result.Records, distribution.RecordEntry{
			UserID:     userID,
			GroupID:    groupID,
			GroupingID: groupingID,
			URL:        p.URL,
			Permission: r.activity.Permission,
			Name:       p.FileName,
		})
	}

	records.MarkShared = len(records.Files) > 0
	return records, result
}

// IsRetryable reports whether a run error can be retried as-is
func IsRetryable(err error) bool {
	return errors.Is(err, distribution.ErrTransport) || errors.Is(err, distribution.ErrRunInProgress)
}
