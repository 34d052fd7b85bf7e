package semester_test

import (
	"context"
	"testing"
	"time"

	"github.com/rcos-io/portal/core"
	"github.com/rcos-io/portal/core/semester"
	"github.com/rcos-io/portal/storage/database/dummy"
)

func newTestService(t *testing.T) *semester.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	return semester.NewService(dummydb.NewSemesterRepository(db), core.NewCache(time.Minute))
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	ns := semester.NewSemester{
		ID:        "202209",
		Name:      "Fall 2022",
		StartDate: day(2022, time.August, 29),
		EndDate:   day(2022, time.December, 16),
	}
	sem, err := svc.Create(ctx, ns)
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if sem.ID != ns.ID || sem.Name != ns.Name {
		t.Errorf("Create() = %+v, want ID %q and Name %q", sem, ns.ID, ns.Name)
	}

	// duplicate ID
	_, err = svc.Create(ctx, ns)
	if _, ok := err.(*core.ValidationError); !ok {
		t.Fatalf("Create() error = %v, want a validation error", err)
	}
}

func TestService_GetActiveOrLatest(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	// no semesters at all
	if _, err := svc.GetActiveOrLatest(ctx); err != semester.ErrNoSemester {
		t.Errorf("GetActiveOrLatest() error = %v, want %v", err, semester.ErrNoSemester)
	}

	// one past semester: falls back to the latest
	past := semester.NewSemester{
		ID:        "202201",
		Name:      "Spring 2022",
		StartDate: day(2022, time.January, 10),
		EndDate:   day(2022, time.May, 10),
	}
	if _, err := svc.Create(ctx, past); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	sem, err := svc.GetActiveOrLatest(ctx)
	if err != nil {
		t.Fatalf("GetActiveOrLatest() failed, %v", err)
	}
	if sem.ID != past.ID {
		t.Errorf("GetActiveOrLatest() = %q, want %q", sem.ID, past.ID)
	}

	// an ongoing semester wins over the latest
	now := time.Now().UTC()
	active := semester.NewSemester{
		ID:        "209901",
		Name:      "Current",
		StartDate: now.AddDate(0, -1, 0),
		EndDate:   now.AddDate(0, 1, 0),
	}
	if _, err := svc.Create(ctx, active); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	sem, err = svc.GetActiveOrLatest(ctx)
	if err != nil {
		t.Fatalf("GetActiveOrLatest() failed, %v", err)
	}
	if sem.ID != active.ID {
		t.Errorf("GetActiveOrLatest() = %q, want %q", sem.ID, active.ID)
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	sem, err := svc.Create(ctx, semester.NewSemester{
		ID:        "202209",
		Name:      "Fall 2022",
		StartDate: day(2022, time.August, 29),
		EndDate:   day(2022, time.December, 16),
	})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	accepting := true
	sem, err = svc.Update(ctx, sem.ID, semester.UpdateSemester{
		Name:                   "Fall '22",
		IsAcceptingNewProjects: &accepting,
	})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if sem.Name != "Fall '22" {
		t.Errorf("Name = %q, want %q", sem.Name, "Fall '22")
	}
	if !sem.IsAcceptingNewProjects {
		t.Error("IsAcceptingNewProjects = false, want true")
	}

	if _, err := svc.Update(ctx, "209901", semester.UpdateSemester{}); err != semester.ErrNotFound {
		t.Errorf("Update() error = %v, want %v", err, semester.ErrNotFound)
	}
}

func TestUpdateSemester_Validate(t *testing.T) {
	orig := semester.Semester{
		StartDate: day(2022, time.August, 29),
		EndDate:   day(2022, time.December, 16),
	}

	badEnd := day(2022, time.August, 1)
	us := semester.UpdateSemester{EndDate: &badEnd}
	if err := us.Validate(orig, core.Validate); err == nil {
		t.Error("Validate() expected an error for an end date before the start date")
	}

	goodEnd := day(2022, time.December, 20)
	us = semester.UpdateSemester{EndDate: &goodEnd}
	if err := us.Validate(orig, core.Validate); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
