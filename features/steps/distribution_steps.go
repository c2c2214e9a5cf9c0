//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	appdist "drive-distribution/application/distribution"
	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
	gdrive "drive-distribution/infrastructure/drive"
	"drive-distribution/infrastructure/lock"

	"github.com/cucumber/godog"
)

type distributionContext struct {
	drive        *fakeDriveService
	roster       *memoryRoster
	repo         *memoryRepository
	policy       distribution.SharePolicy
	batchTimeout time.Duration
	activity     *distribution.Activity
	title        string
	result       *distribution.Result
	runErr       error
	setupErr     error
}

// SharedDistributionContext is reset before each scenario via After hook
var SharedDistributionContext = newDistributionContext()

func newDistributionContext() *distributionContext {
	return &distributionContext{
		drive:  newFakeDriveService(),
		roster: newMemoryRoster(),
		repo:   newMemoryRepository(),
		policy: distribution.SharePolicyStrict,
	}
}

func InitializeDistributionScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedDistributionContext

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		SharedDistributionContext = newDistributionContext()
		return c, nil
	})

	ctx.Step(`^a course with students:$`, testCtx.aCourseWithStudents)
	ctx.Step(`^a teacher "([^"]*)"$`, testCtx.aTeacher)
	ctx.Step(`^group (\d+) "([^"]*)" with students ([\d, ]+)$`, testCtx.groupWithStudents)
	ctx.Step(`^the share failure policy is "([^"]*)"$`, testCtx.theShareFailurePolicyIs)
	ctx.Step(`^an activity "([^"]*)" set up as "([^"]*)" for "([^"]*)" with "([^"]*)" permission$`, testCtx.anActivitySetUp)
	ctx.Step(`^the activity setup should fail with a configuration error$`, testCtx.setupShouldFailWithConfigurationError)
	ctx.Step(`^copying for student (\d+) fails$`, testCtx.copyingForStudentFails)
	ctx.Step(`^copying for student (\d+) outlasts a batch deadline of (\d+)ms$`, testCtx.copyingOutlastsBatchDeadline)
	ctx.Step(`^student (\d+) should have status mentioning "([^"]*)"$`, testCtx.studentShouldHaveStatusMentioning)
	ctx.Step(`^sharing with "([^"]*)" fails$`, testCtx.sharingWithFails)
	ctx.Step(`^the Drive credentials have expired$`, testCtx.theCredentialsHaveExpired)
	ctx.Step(`^I distribute the activity$`, testCtx.iDistributeTheActivity)
	ctx.Step(`^the distribution should succeed$`, testCtx.theDistributionShouldSucceed)
	ctx.Step(`^(\d+) files? should be recorded$`, testCtx.filesShouldBeRecorded)
	ctx.Step(`^(\d+) cop(?:y|ies) should exist in Drive$`, testCtx.copiesShouldExist)
	ctx.Step(`^every target should have status "OK"$`, testCtx.everyTargetShouldBeOK)
	ctx.Step(`^student (\d+) should have a failed status$`, testCtx.studentShouldHaveFailedStatus)
	ctx.Step(`^"([^"]*)" should have "([^"]*)" access to the copy for "([^"]*)"$`, testCtx.shouldHaveAccessToCopy)
	ctx.Step(`^the activity should be marked as shared$`, testCtx.theActivityShouldBeShared)
	ctx.Step(`^the activity should not be marked as shared$`, testCtx.theActivityShouldNotBeShared)
	ctx.Step(`^the distribution should be refused as already distributed$`, testCtx.refusedAsAlreadyDistributed)
	ctx.Step(`^the distribution should fail with a retryable error$`, testCtx.failWithRetryableError)
	ctx.Step(`^the distribution should fail with "([^"]*)"$`, testCtx.failWith)
	ctx.Step(`^nothing should be recorded$`, testCtx.nothingShouldBeRecorded)
}

func (d *distributionContext) client() (*gdrive.Client, error) {
	return gdrive.NewClient(context.Background(), "",
		gdrive.WithDriveService(d.drive),
		gdrive.WithBatchTimeout(d.batchTimeout),
	)
}

func (d *distributionContext) aCourseWithStudents(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		id, err := strconv.ParseInt(row.Cells[0].Value, 10, 64)
		if err != nil {
			return fmt.Errorf("bad student id %q: %w", row.Cells[0].Value, err)
		}
		d.roster.students = append(d.roster.students, roster.User{
			ID:        id,
			FirstName: row.Cells[1].Value,
			LastName:  row.Cells[2].Value,
			Email:     row.Cells[3].Value,
		})
	}
	return nil
}

func (d *distributionContext) aTeacher(email string) error {
	d.roster.teachers = append(d.roster.teachers, roster.User{
		ID:    int64(900 + len(d.roster.teachers)),
		Email: email,
	})
	return nil
}

func (d *distributionContext) groupWithStudents(id int64, name, ids string) error {
	d.roster.groups[id] = roster.Group{ID: id, CourseID: d.roster.course.ID, Name: name}
	for _, raw := range strings.Split(ids, ",") {
		userID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("bad student id %q: %w", raw, err)
		}
		u, ok := d.student(userID)
		if !ok {
			return fmt.Errorf("student %d is not enrolled", userID)
		}
		d.roster.members[id] = append(d.roster.members[id], u)
	}
	return nil
}

func (d *distributionContext) student(id int64) (roster.User, bool) {
	for _, u := range d.roster.students {
		if u.ID == id {
			return u, true
		}
	}
	return roster.User{}, false
}

func (d *distributionContext) theShareFailurePolicyIs(policy string) error {
	p, err := distribution.ParseSharePolicy(policy)
	if err != nil {
		return err
	}
	d.policy = p
	return nil
}

func (d *distributionContext) anActivitySetUp(title, base, tokens, permission string) error {
	client, err := d.client()
	if err != nil {
		return err
	}
	root := d.drive.addFolder("My Drive")
	setup := appdist.NewSetupService(client, d.roster, d.repo, nil, "Drive distributions", root, nil)

	a, err := setup.CreateActivity(context.Background(), appdist.SetupRequest{
		CourseID:   d.roster.course.ID,
		Name:       title,
		Base:       distribution.BaseMode(base),
		Tokens:     strings.Split(tokens, ","),
		Permission: permission,
		DocType:    string(distribution.TypeDocument),
	})
	if err != nil {
		d.setupErr = err
		return nil
	}
	d.activity = a
	d.title = title
	return nil
}

func (d *distributionContext) setupShouldFailWithConfigurationError() error {
	if !errors.Is(d.setupErr, distribution.ErrConfiguration) {
		return fmt.Errorf("expected a configuration error, got %v", d.setupErr)
	}
	if d.activity != nil {
		return fmt.Errorf("expected no activity, got %d", d.activity.ID)
	}
	return nil
}

func (d *distributionContext) copyingForStudentFails(id int64) error {
	d.drive.failCopyFor["_"+strconv.FormatInt(id, 10)] = true
	return nil
}

func (d *distributionContext) copyingOutlastsBatchDeadline(id int64, ms int) error {
	d.drive.stallCopyFor["_"+strconv.FormatInt(id, 10)] = true
	d.batchTimeout = time.Duration(ms) * time.Millisecond
	return nil
}

func (d *distributionContext) studentShouldHaveStatusMentioning(id int64, text string) error {
	if d.result == nil {
		return fmt.Errorf("no result, error was %v", d.runErr)
	}
	for _, s := range d.result.Status {
		if s.UserID == id {
			if !strings.Contains(s.CreationStatus, text) {
				return fmt.Errorf("expected status of student %d to mention %q, got %q", id, text, s.CreationStatus)
			}
			return nil
		}
	}
	return fmt.Errorf("no status for student %d", id)
}

func (d *distributionContext) sharingWithFails(email string) error {
	d.drive.failShareTo[email] = true
	return nil
}

func (d *distributionContext) theCredentialsHaveExpired() error {
	d.drive.expired = true
	return nil
}

func (d *distributionContext) iDistributeTheActivity() error {
	if d.activity == nil {
		return fmt.Errorf("no activity has been set up: %v", d.setupErr)
	}
	client, err := d.client()
	if err != nil {
		return err
	}
	engine := appdist.NewEngine(client, d.roster, d.repo, lock.NewMemoryLocker(), nil,
		appdist.Options{SharePolicy: d.policy}, nil)
	d.result, d.runErr = engine.CreateDistribution(context.Background(), appdist.Request{ActivityID: d.activity.ID})
	return nil
}

func (d *distributionContext) theDistributionShouldSucceed() error {
	if d.runErr != nil {
		return fmt.Errorf("expected the distribution to succeed, got %v", d.runErr)
	}
	return nil
}

func (d *distributionContext) filesShouldBeRecorded(n int) error {
	records, err := d.repo.ListFileRecords(context.Background(), d.activity.ID)
	if err != nil {
		return err
	}
	if len(records) != n {
		return fmt.Errorf("expected %d file records, got %d", n, len(records))
	}
	if d.result != nil && len(d.result.Records) != n {
		return fmt.Errorf("expected %d records in the result, got %d", n, len(d.result.Records))
	}
	return nil
}

func (d *distributionContext) copiesShouldExist(n int) error {
	if got := d.drive.countCopies(d.title); got != n {
		return fmt.Errorf("expected %d copies of %q, got %d", n, d.title, got)
	}
	return nil
}

func (d *distributionContext) everyTargetShouldBeOK() error {
	if d.result == nil {
		return fmt.Errorf("no result, error was %v", d.runErr)
	}
	for _, s := range d.result.Status {
		if s.CreationStatus != distribution.StatusOK {
			return fmt.Errorf("target %d/%d/%d has status %q", s.UserID, s.GroupID, s.GroupingID, s.CreationStatus)
		}
	}
	return nil
}

func (d *distributionContext) studentShouldHaveFailedStatus(id int64) error {
	if d.result == nil {
		return fmt.Errorf("no result, error was %v", d.runErr)
	}
	for _, s := range d.result.Status {
		if s.UserID != id {
			continue
		}
		if s.CreationStatus == distribution.StatusOK {
			return fmt.Errorf("expected student %d to fail, got OK", id)
		}
		return nil
	}
	return fmt.Errorf("no status for student %d", id)
}

// shouldHaveAccessToCopy checks the role on a copy. owner is a student id
// or "group N".
func (d *distributionContext) shouldHaveAccessToCopy(email, role, owner string) error {
	suffix := "_" + owner
	if id, ok := strings.CutPrefix(owner, "group "); ok {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return err
		}
		suffix = "_" + distribution.GroupKey(n)
	}
	if got := d.drive.roleOf(suffix, email); got != role {
		return fmt.Errorf("expected %s to have %q on the copy for %s, got %q", email, role, owner, got)
	}
	return nil
}

func (d *distributionContext) theActivityShouldBeShared() error {
	a, err := d.repo.GetActivity(context.Background(), d.activity.ID)
	if err != nil {
		return err
	}
	if !a.Sharing {
		return fmt.Errorf("expected activity %d to be marked as shared", a.ID)
	}
	return nil
}

func (d *distributionContext) theActivityShouldNotBeShared() error {
	a, err := d.repo.GetActivity(context.Background(), d.activity.ID)
	if err != nil {
		return err
	}
	if a.Sharing {
		return fmt.Errorf("expected activity %d not to be marked as shared", a.ID)
	}
	return nil
}

func (d *distributionContext) refusedAsAlreadyDistributed() error {
	if !errors.Is(d.runErr, distribution.ErrAlreadyDistributed) {
		return fmt.Errorf("expected already distributed, got %v", d.runErr)
	}
	return nil
}

func (d *distributionContext) failWithRetryableError() error {
	if d.runErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !appdist.IsRetryable(d.runErr) {
		return fmt.Errorf("expected a retryable error, got %v", d.runErr)
	}
	return nil
}

func (d *distributionContext) failWith(text string) error {
	if d.runErr == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !strings.Contains(d.runErr.Error(), text) {
		return fmt.Errorf("expected error mentioning %q, got %v", text, d.runErr)
	}
	return nil
}

func (d *distributionContext) nothingShouldBeRecorded() error {
	ctx := context.Background()
	files, err := d.repo.ListFileRecords(ctx, d.activity.ID)
	if err != nil {
		return err
	}
	tasks, err := d.repo.ListWorkTasks(ctx, d.activity.ID)
	if err != nil {
		return err
	}
	if len(files) != 0 || len(tasks) != 0 {
		return fmt.Errorf("expected no records, got %d files and %d tasks", len(files), len(tasks))
	}
	return nil
}
