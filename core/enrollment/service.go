package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
)

var (
	// errors
	ErrNotFound = errors.New("enrollment not found")

	errGradeOutOfRange = errors.New("final grade must be between 0.00 and 4.00")
)

type (
	Repository interface {
		// UpsertEnrollment creates the (semester, user) enrollment or updates it in place.
		UpsertEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, semesterID, userID string) (Enrollment, error)
		// QueryEnrollments applies AND on available filter fields and joins users.
		// Results are ordered by project lead first, then credits, then first name.
		QueryEnrollments(ctx context.Context, filter *QueryFilter) ([]Enrollment, error)
		// QuerySemesterAdmins returns coordinator/faculty-advisor enrollments for a
		// semester (all semesters when empty), faculty advisors last, users joined.
		QuerySemesterAdmins(ctx context.Context, semesterID string) ([]Enrollment, error)
		CountEnrollments(ctx context.Context, semesterID string) (int, error)
		// CountEnrolledProjects counts distinct projects with at least one enrollment.
		CountEnrolledProjects(ctx context.Context, semesterID string) (int, error)
		// ClearEnrollmentProject detaches the user from their project, keeping the enrollment.
		ClearEnrollmentProject(ctx context.Context, semesterID, userID string) error
		// QueryUserSemesterIDs returns the IDs of semesters the user has enrollments in,
		// most recent first.
		QueryUserSemesterIDs(ctx context.Context, userID string) ([]string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Enroll(ctx context.Context, eu EnrollUser) (Enrollment, error) {
	now := time.Now().UTC()
	enr := Enrollment{
		SemesterID:       eu.SemesterID,
		UserID:           eu.UserID,
		ProjectID:        eu.ProjectID,
		Credits:          eu.Credits,
		IsForPay:         eu.IsForPay,
		IsProjectLead:    eu.IsProjectLead,
		IsCoordinator:    eu.IsCoordinator,
		IsFacultyAdvisor: eu.IsFacultyAdvisor,
		FinalGrade:       eu.FinalGrade,
		NotesMarkdown:    eu.NotesMarkdown,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.UpsertEnrollment(ctx, enr)
}

func (svc *Service) Get(ctx context.Context, semesterID, userID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, semesterID, userID)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *Service) SemesterAdmins(ctx context.Context, semesterID string) ([]Enrollment, error) {
	return svc.repo.QuerySemesterAdmins(ctx, semesterID)
}

func (svc *Service) Count(ctx context.Context, semesterID string) (int, error) {
	return svc.repo.CountEnrollments(ctx, semesterID)
}

func (svc *Service) CountProjects(ctx context.Context, semesterID string) (int, error) {
	return svc.repo.CountEnrolledProjects(ctx, semesterID)
}

func (svc *Service) UserSemesterIDs(ctx context.Context, userID string) ([]string, error) {
	return svc.repo.QueryUserSemesterIDs(ctx, userID)
}

// SetFinalGrade records the user's final grade for the semester.
func (svc *Service) SetFinalGrade(ctx context.Context, semesterID, userID string, grade float64) (Enrollment, error) {
	if grade < 0 || grade > 4 {
		return Enrollment{}, core.NewValidationError(errGradeOutOfRange,
			core.FieldError{Field: "final_grade", Error: errGradeOutOfRange.Error()})
	}
	enr, err := svc.repo.GetEnrollment(ctx, semesterID, userID)
	if err != nil {
		return Enrollment{}, err
	}
	enr.FinalGrade.SetValid(grade)
	enr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertEnrollment(ctx, enr)
}
