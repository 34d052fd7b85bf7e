package enrollment_test

import (
	"context"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/enrollment"
	"github.com/rcos-io/portal/storage/database/dummy"
)

func newTestService(t *testing.T) *enrollment.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	return enrollment.NewService(dummydb.NewEnrollmentRepository(db))
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	enr, err := svc.Enroll(ctx, enrollment.EnrollUser{
		SemesterID: "202209",
		UserID:     "user-1",
		Credits:    4,
	})
	if err != nil {
		t.Fatalf("Enroll() failed, %v", err)
	}
	if enr.ID == "" {
		t.Error("ID is empty, want a generated ID")
	}

	// enrolling again for the same (semester, user) updates in place
	updated, err := svc.Enroll(ctx, enrollment.EnrollUser{
		SemesterID: "202209",
		UserID:     "user-1",
		Credits:    0,
		IsForPay:   true,
		ProjectID:  null.StringFrom("project-1"),
	})
	if err != nil {
		t.Fatalf("Enroll() failed, %v", err)
	}
	if updated.ID != enr.ID {
		t.Errorf("ID = %q, want %q", updated.ID, enr.ID)
	}
	if !updated.IsForPay || updated.Credits != 0 {
		t.Errorf("Enroll() = %+v, want IsForPay and 0 credits", updated)
	}

	count, err := svc.Count(ctx, "202209")
	if err != nil {
		t.Fatalf("Count() failed, %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestService_CountProjects(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	enrollments := []enrollment.EnrollUser{
		{SemesterID: "202209", UserID: "user-1", ProjectID: null.StringFrom("project-1")},
		{SemesterID: "202209", UserID: "user-2", ProjectID: null.StringFrom("project-1")},
		{SemesterID: "202209", UserID: "user-3", ProjectID: null.StringFrom("project-2")},
		{SemesterID: "202209", UserID: "user-4"}, // no project yet
		{SemesterID: "202301", UserID: "user-5", ProjectID: null.StringFrom("project-3")},
	}
	for _, eu := range enrollments {
		if _, err := svc.Enroll(ctx, eu); err != nil {
			t.Fatalf("Enroll() failed, %v", err)
		}
	}

	count, err := svc.CountProjects(ctx, "202209")
	if err != nil {
		t.Fatalf("CountProjects() failed, %v", err)
	}
	if count != 2 {
		t.Errorf("CountProjects() = %d, want 2", count)
	}
}

func TestService_SemesterAdmins(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	enrollments := []enrollment.EnrollUser{
		{SemesterID: "202209", UserID: "user-1", IsCoordinator: true},
		{SemesterID: "202209", UserID: "user-2", IsFacultyAdvisor: true},
		{SemesterID: "202209", UserID: "user-3"},
	}
	for _, eu := range enrollments {
		if _, err := svc.Enroll(ctx, eu); err != nil {
			t.Fatalf("Enroll() failed, %v", err)
		}
	}

	admins, err := svc.SemesterAdmins(ctx, "202209")
	if err != nil {
		t.Fatalf("SemesterAdmins() failed, %v", err)
	}
	if len(admins) != 2 {
		t.Fatalf("SemesterAdmins() = %d records, want 2", len(admins))
	}
	// faculty advisors come last
	if !admins[0].IsCoordinator || !admins[1].IsFacultyAdvisor {
		t.Errorf("SemesterAdmins() order = %+v, want coordinator first", admins)
	}
}

func TestService_SetFinalGrade(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Enroll(ctx, enrollment.EnrollUser{SemesterID: "202209", UserID: "user-1"}); err != nil {
		t.Fatalf("Enroll() failed, %v", err)
	}

	enr, err := svc.SetFinalGrade(ctx, "202209", "user-1", 3.67)
	if err != nil {
		t.Fatalf("SetFinalGrade() failed, %v", err)
	}
	if !enr.FinalGrade.Valid || enr.FinalGrade.Float64 != 3.67 {
		t.Errorf("FinalGrade = %+v, want 3.67", enr.FinalGrade)
	}

	for _, grade := range []float64{-0.1, 4.5} {
		if _, err := svc.SetFinalGrade(ctx, "202209", "user-1", grade); err == nil {
			t.Errorf("SetFinalGrade(%v) expected an error", grade)
		} else if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("SetFinalGrade(%v) error = %v, want a validation error", grade, err)
		}
	}

	if _, err := svc.SetFinalGrade(ctx, "202209", "nope", 4); err != enrollment.ErrNotFound {
		t.Errorf("SetFinalGrade() error = %v, want %v", err, enrollment.ErrNotFound)
	}
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	enrollments := []enrollment.EnrollUser{
		{SemesterID: "202209", UserID: "user-1", ProjectID: null.StringFrom("project-1"), IsProjectLead: true},
		{SemesterID: "202209", UserID: "user-2", ProjectID: null.StringFrom("project-1"), Credits: 4},
		{SemesterID: "202301", UserID: "user-1"},
	}
	for _, eu := range enrollments {
		if _, err := svc.Enroll(ctx, eu); err != nil {
			t.Fatalf("Enroll() failed, %v", err)
		}
	}

	enrs, err := svc.Query(ctx, &enrollment.QueryFilter{SemesterID: "202209", ProjectID: "project-1"})
	if err != nil {
		t.Fatalf("Query() failed, %v", err)
	}
	if len(enrs) != 2 {
		t.Fatalf("Query() = %d records, want 2", len(enrs))
	}
	// project lead first
	if !enrs[0].IsProjectLead {
		t.Errorf("Query() order = %+v, want the project lead first", enrs)
	}

	ids, err := svc.UserSemesterIDs(ctx, "user-1")
	if err != nil {
		t.Fatalf("UserSemesterIDs() failed, %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("UserSemesterIDs() = %v, want 2 IDs", ids)
	}
}
