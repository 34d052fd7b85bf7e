package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/rcos-io/portal/core/semester"
)

type semesterRepository struct {
	db *semesterTable
}

var _ semester.Repository = (*semesterRepository)(nil) // interface compliance check

func NewSemesterRepository(db *DB) *semesterRepository {
	return &semesterRepository{db: db.semester}
}

func (repo *semesterRepository) query() []semester.Semester {
	sems := make([]semester.Semester, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		sems = append(sems, *s)
	}
	sort.Slice(sems, func(i, j int) bool { return sems[i].StartDate.After(sems[j].StartDate) })
	return sems
}

func (repo *semesterRepository) CreateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[sem.ID] = &sem
	return sem, nil
}

func (repo *semesterRepository) GetSemester(ctx context.Context, id string) (semester.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sem, ok := repo.db.table[id]; ok {
		return *sem, nil
	}
	return semester.Semester{}, semester.ErrNotFound
}

func (repo *semesterRepository) QuerySemesters(ctx context.Context) ([]semester.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *semesterRepository) GetActiveSemester(ctx context.Context, date time.Time) (semester.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sem := range repo.query() {
		if sem.IsActive(date) {
			return sem, nil
		}
	}
	return semester.Semester{}, semester.ErrNotFound
}

func (repo *semesterRepository) GetLatestSemester(ctx context.Context) (semester.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sems := repo.query()
	if len(sems) == 0 {
		return semester.Semester{}, semester.ErrNotFound
	}
	return sems[0], nil
}

func (repo *semesterRepository) UpdateSemester(ctx context.Context, sem semester.Semester) (semester.Semester, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[sem.ID]; !ok {
		return semester.Semester{}, semester.ErrNotFound
	}
	repo.db.table[sem.ID] = &sem
	return sem, nil
}
