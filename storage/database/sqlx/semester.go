package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core/semester"
)

type semesterRepository struct {
	db *sqlx.DB
}

var _ semester.Repository = (*semesterRepository)(nil) // interface compliance check

func NewSemesterRepository(db *sqlx.DB) *semesterRepository {
	return &semesterRepository{db: db}
}

func (repo semesterRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return semester.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo semesterRepository) CreateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error) {
	const q = `
		INSERT INTO semester (id, name, is_accepting_new_projects, start_date, end_date, created_at, updated_at)
		VALUES (:id, :name, :is_accepting_new_projects, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, sem); err != nil {
		return semester.Semester{}, errors.Wrap(err, "inserting semester")
	}
	return sem, nil
}

func (repo semesterRepository) GetSemester(ctx context.Context, id string) (semester.Semester, error) {
	var sem semester.Semester
	if err := repo.db.GetContext(ctx, &sem, `SELECT * FROM semester WHERE id = $1`, id); err != nil {
		return semester.Semester{}, repo.trapNoRowsErr(err, "getting semester")
	}
	return sem, nil
}

func (repo semesterRepository) QuerySemesters(ctx context.Context) ([]semester.Semester, error) {
	sems := make([]semester.Semester, 0)
	if err := repo.db.SelectContext(ctx, &sems, `SELECT * FROM semester ORDER BY start_date DESC`); err != nil {
		return nil, errors.Wrap(err, "querying semesters")
	}
	return sems, nil
}

func (repo semesterRepository) GetActiveSemester(ctx context.Context, date time.Time) (semester.Semester, error) {
	const q = `SELECT * FROM semester WHERE start_date <= $1 AND end_date >= $1 ORDER BY start_date DESC LIMIT 1`
	var sem semester.Semester
	if err := repo.db.GetContext(ctx, &sem, q, date); err != nil {
		return semester.Semester{}, repo.trapNoRowsErr(err, "getting active semester")
	}
	return sem, nil
}

func (repo semesterRepository) GetLatestSemester(ctx context.Context) (semester.Semester, error) {
	var sem semester.Semester
	if err := repo.db.GetContext(ctx, &sem, `SELECT * FROM semester ORDER BY start_date DESC LIMIT 1`); err != nil {
		return semester.Semester{}, repo.trapNoRowsErr(err, "getting latest semester")
	}
	return sem, nil
}

func (repo semesterRepository) UpdateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error) {
	const q = `
		UPDATE semester SET
			name = :name, is_accepting_new_projects = :is_accepting_new_projects,
			start_date = :start_date, end_date = :end_date, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, sem); err != nil {
		return semester.Semester{}, errors.Wrap(err, "updating semester")
	}
	return sem, nil
}
