package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"drive-distribution/domain/distribution"
	"drive-distribution/domain/roster"
)

var tracer = otel.Tracer("drive-distribution/infrastructure/postgres")

// Repository implements distribution.Repository on Postgres
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new Postgres repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type activityRow struct {
	ID             int64     `db:"id"`
	CourseID       int64     `db:"course_id"`
	Name           string    `db:"name"`
	Intro          string    `db:"intro"`
	DocID          string    `db:"doc_id"`
	DocType        string    `db:"doc_type"`
	Distribution   string    `db:"distribution"`
	Permission     string    `db:"permission"`
	ParentFolderID string    `db:"parent_folder_id"`
	Conditions     string    `db:"conditions"`
	Sharing        bool      `db:"sharing"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r activityRow) toActivity() (*distribution.Activity, error) {
	dist, err := distribution.ParseDistribution(r.Distribution)
	if err != nil {
		return nil, fmt.Errorf("activity %d: %w", r.ID, err)
	}
	sel, err := roster.ParseConditions([]byte(r.Conditions))
	if err != nil {
		return nil, fmt.Errorf("activity %d: %w", r.ID, err)
	}
	return &distribution.Activity{
		ID:             r.ID,
		CourseID:       r.CourseID,
		Name:           r.Name,
		Intro:          r.Intro,
		DocID:          r.DocID,
		DocType:        distribution.FileType(r.DocType),
		Distribution:   dist,
		Permission:     distribution.Permission(r.Permission),
		ParentFolderID: r.ParentFolderID,
		Selection:      sel,
		Sharing:        r.Sharing,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

const activityColumns = `id, course_id, name, intro, doc_id, doc_type, distribution, permission,
	parent_folder_id, conditions, sharing, created_at, updated_at`

// CreateActivity implements distribution.Repository
func (r *Repository) CreateActivity(ctx context.Context, a *distribution.Activity) error {
	conditions, err := a.Selection.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}

	query := `
		INSERT INTO activity (course_id, name, intro, doc_id, doc_type, distribution, permission, parent_folder_id, conditions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err = r.db.QueryRowxContext(ctx, query,
		a.CourseID, a.Name, a.Intro, a.DocID, string(a.DocType),
		a.Distribution.LegacyName(a.Selection.Shape()), string(a.Permission),
		a.ParentFolderID, string(conditions),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// GetActivity implements distribution.Repository
func (r *Repository) GetActivity(ctx context.Context, id int64) (*distribution.Activity, error) {
	var row activityRow
	err := r.db.GetContext(ctx, &row, `SELECT `+activityColumns+` FROM activity WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", distribution.ErrActivityNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity %d: %w", id, err)
	}
	return row.toActivity()
}

// SaveRun implements distribution.Repository. Folder records are written
// before file records. Work tasks of an earlier run for the same target are
// overwritten with the latest status.
func (r *Repository) SaveRun(ctx context.Context, run distribution.RunRecords) (err error) {
	ctx, span := tracer.Start(ctx, "Postgres.Repository.SaveRun")
	span.SetAttributes(
		attribute.Int64("activity.id", run.ActivityID),
		attribute.Int("run.folders", len(run.Folders)),
		attribute.Int("run.files", len(run.Files)),
		attribute.Int("run.tasks", len(run.Tasks)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, f := range run.Folders {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO folder_record (activity_id, kind, group_id, folder_id)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (activity_id, kind, group_id) DO NOTHING`,
				f.ActivityID, string(f.Kind), f.GroupID, f.FolderID)
			if err != nil {
				return fmt.Errorf("failed to insert folder record: %w", err)
			}
		}

		for _, f := range run.Files {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO file_record (activity_id, user_id, group_id, grouping_id, name, url, permission, submit_status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (activity_id, user_id, group_id, grouping_id) DO NOTHING`,
				f.ActivityID, f.UserID, f.GroupID, f.GroupingID, f.Name, f.URL, string(f.Permission), f.SubmitStatus)
			if err != nil {
				return fmt.Errorf("failed to insert file record: %w", err)
			}
		}

		for _, t := range run.Tasks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO work_task (activity_id, user_id, group_id, grouping_id, creation_status)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (activity_id, user_id, group_id, grouping_id)
				DO UPDATE SET creation_status = EXCLUDED.creation_status`,
				t.ActivityID, t.UserID, t.GroupID, t.GroupingID, t.Status)
			if err != nil {
				return fmt.Errorf("failed to insert work task: %w", err)
			}
		}

		if !run.MarkShared {
			return nil
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE activity SET sharing = TRUE, updated_at = NOW() WHERE id = $1 AND sharing = FALSE`,
			run.ActivityID)
		if err != nil {
			return fmt.Errorf("failed to mark activity shared: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to mark activity shared: %w", err)
		}
		if n == 0 {
			return distribution.ErrAlreadyDistributed
		}
		return nil
	})
}

// ListFolderRecords implements distribution.Repository
func (r *Repository) ListFolderRecords(ctx context.Context, activityID int64) ([]distribution.FolderRecord, error) {
	var out []distribution.FolderRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, activity_id, kind, group_id, folder_id, created_at
		FROM folder_record WHERE activity_id = $1 ORDER BY id`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder records: %w", err)
	}
	return out, nil
}

// ListFileRecords implements distribution.Repository
func (r *Repository) ListFileRecords(ctx context.Context, activityID int64) ([]distribution.FileRecord, error) {
	var out []distribution.FileRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, activity_id, user_id, group_id, grouping_id, name, url, permission, submit_status, created_at
		FROM file_record WHERE activity_id = $1 ORDER BY id`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}
	return out, nil
}

// ListWorkTasks implements distribution.Repository
func (r *Repository) ListWorkTasks(ctx context.Context, activityID int64) ([]distribution.WorkTask, error) {
	var out []distribution.WorkTask
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, activity_id, user_id, group_id, grouping_id, creation_status, created_at
		FROM work_task WHERE activity_id = $1 ORDER BY id`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work tasks: %w", err)
	}
	return out, nil
}

// DeleteActivity implements distribution.Repository
func (r *Repository) DeleteActivity(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, table := range []string{"activity_grade", "activity_submission", "work_task", "file_record", "folder_record"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE activity_id = $1`, id); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM activity WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %d", distribution.ErrActivityNotFound, id)
		}
		return nil
	})
}

// Ensure Repository implements distribution.Repository
var _ distribution.Repository = (*Repository)(nil)
