package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/user"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return enrollment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo enrollmentRepository) UpsertEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO enrollment (
			id, semester_id, user_id, project_id, credits, is_for_pay, is_project_lead,
			is_coordinator, is_faculty_advisor, final_grade, notes_markdown, created_at, updated_at
		) VALUES (
			:id, :semester_id, :user_id, :project_id, :credits, :is_for_pay, :is_project_lead,
			:is_coordinator, :is_faculty_advisor, :final_grade, :notes_markdown, :created_at, :updated_at
		)
		ON CONFLICT (semester_id, user_id) DO UPDATE SET
			project_id = EXCLUDED.project_id, credits = EXCLUDED.credits,
			is_for_pay = EXCLUDED.is_for_pay, is_project_lead = EXCLUDED.is_project_lead,
			is_coordinator = EXCLUDED.is_coordinator, is_faculty_advisor = EXCLUDED.is_faculty_advisor,
			final_grade = EXCLUDED.final_grade, notes_markdown = EXCLUDED.notes_markdown,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, enr); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "upserting enrollment")
	}
	return repo.GetEnrollment(ctx, enr.SemesterID, enr.UserID)
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, semesterID, userID string) (enrollment.Enrollment, error) {
	const q = `SELECT * FROM enrollment WHERE semester_id = $1 AND user_id = $2`
	var enr enrollment.Enrollment
	if err := repo.db.GetContext(ctx, &enr, q, semesterID, userID); err != nil {
		return enrollment.Enrollment{}, repo.trapNoRowsErr(err, "getting enrollment")
	}
	return enr, nil
}

// enrollmentRow flattens an enrollment with its joined user.
type enrollmentRow struct {
	enrollment.Enrollment
	JoinedUser user.User `db:"u"`
}

const enrollmentJoinQuery = `
	SELECT e.*,
		u.id "u.id", u.email "u.email", u.first_name "u.first_name", u.last_name "u.last_name",
		u.role "u.role", u.is_approved "u.is_approved", u.is_staff "u.is_staff",
		u.rcs_id "u.rcs_id", u.graduation_year "u.graduation_year",
		u.discord_user_id "u.discord_user_id", u.github_username "u.github_username",
		u.password_hash "u.password_hash", u.last_login "u.last_login",
		u.created_at "u.created_at", u.updated_at "u.updated_at"
	FROM enrollment e
	JOIN "user" u ON u.id = e.user_id`

func (repo enrollmentRepository) queryJoined(ctx context.Context, q string, args ...interface{}) ([]enrollment.Enrollment, error) {
	rows := make([]enrollmentRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enr := row.Enrollment
		usr := row.JoinedUser
		enr.User = &usr
		enrs = append(enrs, enr)
	}
	return enrs, nil
}

func (repo enrollmentRepository) QueryEnrollments(ctx context.Context, filter *enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	q := enrollmentJoinQuery
	var (
		where []string
		args  []interface{}
	)
	next := func(arg interface{}) string {
		args = append(args, arg)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.SemesterID != "" {
			where = append(where, "e.semester_id = "+next(filter.SemesterID))
		}
		if filter.ProjectID != "" {
			where = append(where, "e.project_id = "+next(filter.ProjectID))
		}
		if filter.UserID != "" {
			where = append(where, "e.user_id = "+next(filter.UserID))
		}
		if filter.AdminsOnly {
			where = append(where, "(e.is_coordinator OR e.is_faculty_advisor)")
		}
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY e.is_project_lead DESC, e.credits DESC, u.first_name ASC"

	return repo.queryJoined(ctx, q, args...)
}

func (repo enrollmentRepository) QuerySemesterAdmins(ctx context.Context, semesterID string) ([]enrollment.Enrollment, error) {
	q := enrollmentJoinQuery + ` WHERE (e.is_coordinator OR e.is_faculty_advisor)`
	args := make([]interface{}, 0, 1)
	if semesterID != "" {
		q += ` AND e.semester_id = $1`
		args = append(args, semesterID)
	}
	// faculty advisors last
	q += ` ORDER BY e.is_faculty_advisor ASC, u.first_name ASC`
	return repo.queryJoined(ctx, q, args...)
}

func (repo enrollmentRepository) CountEnrollments(ctx context.Context, semesterID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollment WHERE semester_id = $1`, semesterID)
	return count, errors.Wrap(err, "counting enrollments")
}

func (repo enrollmentRepository) CountEnrolledProjects(ctx context.Context, semesterID string) (int, error) {
	const q = `SELECT COUNT(DISTINCT project_id) FROM enrollment WHERE semester_id = $1 AND project_id IS NOT NULL`
	var count int
	err := repo.db.GetContext(ctx, &count, q, semesterID)
	return count, errors.Wrap(err, "counting enrolled projects")
}

func (repo enrollmentRepository) ClearEnrollmentProject(ctx context.Context, semesterID, userID string) error {
	const q = `UPDATE enrollment SET project_id = NULL, is_project_lead = FALSE, updated_at = now()
		WHERE semester_id = $1 AND user_id = $2`
	res, err := repo.db.ExecContext(ctx, q, semesterID, userID)
	if err != nil {
		return errors.Wrap(err, "clearing enrollment project")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}

func (repo enrollmentRepository) QueryUserSemesterIDs(ctx context.Context, userID string) ([]string, error) {
	const q = `
		SELECT e.semester_id FROM enrollment e
		JOIN semester s ON s.id = e.semester_id
		WHERE e.user_id = $1
		ORDER BY s.start_date DESC`
	ids := make([]string, 0)
	if err := repo.db.SelectContext(ctx, &ids, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying user semesters")
	}
	return ids, nil
}
