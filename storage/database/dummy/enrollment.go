package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/core/user"
)

type enrollmentRepository struct {
	db    *enrollmentTable
	users *userTable
	sems  *semesterTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db.enrollment, users: db.user, sems: db.semester}
}

func (repo *enrollmentRepository) query() []enrollment.Enrollment {
	enrs := make([]enrollment.Enrollment, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		enrs = append(enrs, *e)
	}
	return enrs
}

func (repo *enrollmentRepository) joinUser(enr *enrollment.Enrollment) {
	repo.users.RLock()
	defer repo.users.RUnlock()
	if usr, ok := repo.users.table[enr.UserID]; ok {
		u := *usr
		enr.User = &u
	} else {
		enr.User = &user.User{ID: enr.UserID}
	}
}

func (repo *enrollmentRepository) UpsertEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(enr.SemesterID, enr.UserID)
	if existing, ok := repo.db.table[k]; ok {
		enr.ID = existing.ID
		enr.CreatedAt = existing.CreatedAt
	} else if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	repo.db.table[k] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, semesterID, userID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.table[key(semesterID, userID)]; ok {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter *enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	enrs := make([]enrollment.Enrollment, 0)
	for _, enr := range repo.query() {
		if filter != nil {
			if filter.SemesterID != "" && enr.SemesterID != filter.SemesterID {
				continue
			}
			if filter.ProjectID != "" && (!enr.ProjectID.Valid || enr.ProjectID.String != filter.ProjectID) {
				continue
			}
			if filter.UserID != "" && enr.UserID != filter.UserID {
				continue
			}
			if filter.AdminsOnly && !enr.IsSemesterAdmin() {
				continue
			}
		}
		enrs = append(enrs, enr)
	}
	repo.db.RUnlock()

	for i := range enrs {
		repo.joinUser(&enrs[i])
	}
	sort.Slice(enrs, func(i, j int) bool {
		a, b := enrs[i], enrs[j]
		if a.IsProjectLead != b.IsProjectLead {
			return a.IsProjectLead
		}
		if a.Credits != b.Credits {
			return a.Credits > b.Credits
		}
		return a.User.FirstName < b.User.FirstName
	})
	return enrs, nil
}

func (repo *enrollmentRepository) QuerySemesterAdmins(ctx context.Context, semesterID string) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	admins := make([]enrollment.Enrollment, 0)
	for _, enr := range repo.query() {
		if !enr.IsSemesterAdmin() {
			continue
		}
		if semesterID != "" && enr.SemesterID != semesterID {
			continue
		}
		admins = append(admins, enr)
	}
	repo.db.RUnlock()

	for i := range admins {
		repo.joinUser(&admins[i])
	}
	// faculty advisors last
	sort.Slice(admins, func(i, j int) bool {
		a, b := admins[i], admins[j]
		if a.IsFacultyAdvisor != b.IsFacultyAdvisor {
			return !a.IsFacultyAdvisor
		}
		return a.User.FirstName < b.User.FirstName
	})
	return admins, nil
}

func (repo *enrollmentRepository) CountEnrollments(ctx context.Context, semesterID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	count := 0
	for _, enr := range repo.query() {
		if enr.SemesterID == semesterID {
			count++
		}
	}
	return count, nil
}

func (repo *enrollmentRepository) CountEnrolledProjects(ctx context.Context, semesterID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make(map[string]bool)
	for _, enr := range repo.query() {
		if enr.SemesterID == semesterID && enr.ProjectID.Valid {
			projects[enr.ProjectID.String] = true
		}
	}
	return len(projects), nil
}

func (repo *enrollmentRepository) ClearEnrollmentProject(ctx context.Context, semesterID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr, ok := repo.db.table[key(semesterID, userID)]
	if !ok {
		return enrollment.ErrNotFound
	}
	enr.ProjectID.Valid = false
	enr.ProjectID.String = ""
	enr.IsProjectLead = false
	enr.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *enrollmentRepository) QueryUserSemesterIDs(ctx context.Context, userID string) ([]string, error) {
	repo.db.RLock()
	ids := make([]string, 0)
	for _, enr := range repo.query() {
		if enr.UserID == userID {
			ids = append(ids, enr.SemesterID)
		}
	}
	repo.db.RUnlock()

	repo.sems.RLock()
	defer repo.sems.RUnlock()
	sort.Slice(ids, func(i, j int) bool {
		a, okA := repo.sems.table[ids[i]]
		b, okB := repo.sems.table[ids[j]]
		if okA && okB {
			return a.StartDate.After(b.StartDate)
		}
		return ids[i] > ids[j]
	})
	return ids, nil
}
