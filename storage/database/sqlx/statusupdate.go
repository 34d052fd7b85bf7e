package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core/statusupdate"
	"github.com/rcos-io/portal/core/user"
)

type statusUpdateRepository struct {
	db *sqlx.DB
}

var _ statusupdate.Repository = (*statusUpdateRepository)(nil) // interface compliance check

func NewStatusUpdateRepository(db *sqlx.DB) *statusUpdateRepository {
	return &statusUpdateRepository{db: db}
}

func (repo statusUpdateRepository) CreateStatusUpdate(ctx context.Context, su statusupdate.StatusUpdate) (statusupdate.StatusUpdate, error) {
	su.ID = uuid.New().String()
	const q = `
		INSERT INTO status_update (id, semester_id, name, opens_at, closes_at, created_at, updated_at)
		VALUES (:id, :semester_id, :name, :opens_at, :closes_at, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, su); err != nil {
		return statusupdate.StatusUpdate{}, errors.Wrap(err, "inserting status update")
	}
	return su, nil
}

func (repo statusUpdateRepository) GetStatusUpdate(ctx context.Context, id string) (statusupdate.StatusUpdate, error) {
	var su statusupdate.StatusUpdate
	if err := repo.db.GetContext(ctx, &su, `SELECT * FROM status_update WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return statusupdate.StatusUpdate{}, statusupdate.ErrNotFound
		}
		return statusupdate.StatusUpdate{}, errors.Wrap(err, "getting status update")
	}
	return su, nil
}

func (repo statusUpdateRepository) QueryStatusUpdates(ctx context.Context, semesterID string) ([]statusupdate.StatusUpdate, error) {
	q := `SELECT * FROM status_update`
	args := make([]interface{}, 0, 1)
	if semesterID != "" {
		q += ` WHERE semester_id = $1`
		args = append(args, semesterID)
	}
	q += ` ORDER BY opens_at`

	sus := make([]statusupdate.StatusUpdate, 0)
	if err := repo.db.SelectContext(ctx, &sus, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying status updates")
	}
	return sus, nil
}

func (repo statusUpdateRepository) UpdateStatusUpdate(ctx context.Context, su statusupdate.StatusUpdate) (statusupdate.StatusUpdate, error) {
	const q = `
		UPDATE status_update SET
			name = :name, opens_at = :opens_at, closes_at = :closes_at, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, su); err != nil {
		return statusupdate.StatusUpdate{}, errors.Wrap(err, "updating status update")
	}
	return su, nil
}

func (repo statusUpdateRepository) trapNoSubmissionErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return statusupdate.ErrSubmissionNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo statusUpdateRepository) CreateSubmission(ctx context.Context, sub statusupdate.Submission) (statusupdate.Submission, error) {
	sub.ID = uuid.New().String()
	const q = `
		INSERT INTO status_update_submission (
			id, status_update_id, user_id, previous_week, next_week, blockers,
			grade, grader_id, grader_comments, created_at, updated_at
		) VALUES (
			:id, :status_update_id, :user_id, :previous_week, :next_week, :blockers,
			:grade, :grader_id, :grader_comments, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, sub); err != nil {
		return statusupdate.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo statusUpdateRepository) GetSubmission(ctx context.Context, statusUpdateID, userID string) (statusupdate.Submission, error) {
	const q = `SELECT * FROM status_update_submission WHERE status_update_id = $1 AND user_id = $2`
	var sub statusupdate.Submission
	if err := repo.db.GetContext(ctx, &sub, q, statusUpdateID, userID); err != nil {
		return statusupdate.Submission{}, repo.trapNoSubmissionErr(err, "getting submission")
	}
	return sub, nil
}

func (repo statusUpdateRepository) GetSubmissionByID(ctx context.Context, id string) (statusupdate.Submission, error) {
	var sub statusupdate.Submission
	if err := repo.db.GetContext(ctx, &sub, `SELECT * FROM status_update_submission WHERE id = $1`, id); err != nil {
		return statusupdate.Submission{}, repo.trapNoSubmissionErr(err, "getting submission")
	}
	return sub, nil
}

// submissionRow flattens a submission with its joined user.
type submissionRow struct {
	statusupdate.Submission
	JoinedUser user.User `db:"u"`
}

func (repo statusUpdateRepository) QuerySubmissions(ctx context.Context, statusUpdateID string) ([]statusupdate.Submission, error) {
	const q = `
		SELECT s.*,
			u.id "u.id", u.email "u.email", u.first_name "u.first_name", u.last_name "u.last_name",
			u.role "u.role", u.is_approved "u.is_approved", u.is_staff "u.is_staff",
			u.rcs_id "u.rcs_id", u.graduation_year "u.graduation_year",
			u.discord_user_id "u.discord_user_id", u.github_username "u.github_username",
			u.password_hash "u.password_hash", u.last_login "u.last_login",
			u.created_at "u.created_at", u.updated_at "u.updated_at"
		FROM status_update_submission s
		JOIN "user" u ON u.id = s.user_id
		WHERE s.status_update_id = $1
		ORDER BY s.created_at`
	rows := make([]submissionRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, q, statusUpdateID); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]statusupdate.Submission, 0, len(rows))
	for _, row := range rows {
		sub := row.Submission
		usr := row.JoinedUser
		sub.User = &usr
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo statusUpdateRepository) QueryUserSubmissions(ctx context.Context, userID, semesterID string) ([]statusupdate.Submission, error) {
	q := `
		SELECT s.* FROM status_update_submission s
		JOIN status_update su ON su.id = s.status_update_id
		WHERE s.user_id = $1`
	args := []interface{}{userID}
	if semesterID != "" {
		q += ` AND su.semester_id = $2`
		args = append(args, semesterID)
	}
	q += ` ORDER BY su.opens_at`

	subs := make([]statusupdate.Submission, 0)
	if err := repo.db.SelectContext(ctx, &subs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying user submissions")
	}
	return subs, nil
}

func (repo statusUpdateRepository) UpdateSubmission(ctx context.Context, sub statusupdate.Submission) (statusupdate.Submission, error) {
	const q = `
		UPDATE status_update_submission SET
			previous_week = :previous_week, next_week = :next_week, blockers = :blockers,
			grade = :grade, grader_id = :grader_id, grader_comments = :grader_comments,
			updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, sub); err != nil {
		return statusupdate.Submission{}, errors.Wrap(err, "updating submission")
	}
	return sub, nil
}
