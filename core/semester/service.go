package semester

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core"
)

var (
	// errors
	ErrNotFound   = errors.New("semester not found")
	ErrNoSemester = errors.New("no semesters available")
	ErrIDExists   = errors.New("a semester with this ID already exists")

	errEndBeforeStart = errors.New("the last day must come after the first day")
)

const activeSemesterCacheKey = "active_semester"

type (
	Repository interface {
		CreateSemester(ctx context.Context, sem Semester) (Semester, error)
		GetSemester(ctx context.Context, id string) (Semester, error)
		// QuerySemesters returns all semesters ordered by descending start date.
		QuerySemesters(ctx context.Context) ([]Semester, error)
		// GetActiveSemester returns the semester containing `date`, or ErrNotFound.
		GetActiveSemester(ctx context.Context, date time.Time) (Semester, error)
		// GetLatestSemester returns the semester with the most recent start date.
		GetLatestSemester(ctx context.Context) (Semester, error)
		UpdateSemester(ctx context.Context, sem Semester) (Semester, error)
	}

	Service struct {
		repo  Repository
		cache core.Cache
	}
)

func NewService(repo Repository, cache core.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (svc *Service) Create(ctx context.Context, ns NewSemester) (Semester, error) {
	if _, err := svc.repo.GetSemester(ctx, ns.ID); err == nil {
		return Semester{}, core.NewValidationError(ErrIDExists, core.FieldError{Field: "id", Error: ErrIDExists.Error()})
	} else if err != ErrNotFound {
		return Semester{}, err
	}

	now := time.Now().UTC()
	sem := Semester{
		ID:                     ns.ID,
		Name:                   ns.Name,
		IsAcceptingNewProjects: ns.IsAcceptingNewProjects,
		StartDate:              ns.StartDate,
		EndDate:                ns.EndDate,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	sem, err := svc.repo.CreateSemester(ctx, sem)
	if err != nil {
		return Semester{}, err
	}
	svc.cache.Delete(activeSemesterCacheKey)
	return sem, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Semester, error) {
	return svc.repo.GetSemester(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Semester, error) {
	return svc.repo.QuerySemesters(ctx)
}

// GetActive returns the semester containing today, ErrNotFound otherwise.
// The lookup is cached; semester writes invalidate it.
func (svc *Service) GetActive(ctx context.Context) (Semester, error) {
	val, err := svc.cache.GetOrSet(activeSemesterCacheKey, func() (interface{}, error) {
		sem, err := svc.repo.GetActiveSemester(ctx, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		return sem, nil
	})
	if err != nil {
		return Semester{}, err
	}
	return val.(Semester), nil
}

// GetActiveOrLatest falls back to the most recently started semester when none is active.
func (svc *Service) GetActiveOrLatest(ctx context.Context) (Semester, error) {
	sem, err := svc.GetActive(ctx)
	if err == nil {
		return sem, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Semester{}, err
	}
	sem, err = svc.repo.GetLatestSemester(ctx)
	if err == ErrNotFound {
		return Semester{}, ErrNoSemester
	}
	return sem, err
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateSemester) (Semester, error) {
	sem, err := svc.repo.GetSemester(ctx, id)
	if err != nil {
		return Semester{}, err
	}

	if us.Name != "" {
		sem.Name = us.Name
	}
	if us.IsAcceptingNewProjects != nil {
		sem.IsAcceptingNewProjects = *us.IsAcceptingNewProjects
	}
	if us.StartDate != nil {
		sem.StartDate = *us.StartDate
	}
	if us.EndDate != nil {
		sem.EndDate = *us.EndDate
	}
	sem.UpdatedAt = time.Now().UTC()

	sem, err = svc.repo.UpdateSemester(ctx, sem)
	if err != nil {
		return Semester{}, err
	}
	svc.cache.Delete(activeSemesterCacheKey)
	return sem, nil
}
