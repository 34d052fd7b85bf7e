package statusupdate

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/rcos-io/portal/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("status update not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrWindowClosed       = errors.New("this status update is not accepting submissions")
	ErrAlreadySubmitted   = errors.New("you already submitted for this status update")
)

type (
	Repository interface {
		CreateStatusUpdate(ctx context.Context, su StatusUpdate) (StatusUpdate, error)
		GetStatusUpdate(ctx context.Context, id string) (StatusUpdate, error)
		// QueryStatusUpdates returns windows for a semester (all when empty),
		// ordered by opening time.
		QueryStatusUpdates(ctx context.Context, semesterID string) ([]StatusUpdate, error)
		UpdateStatusUpdate(ctx context.Context, su StatusUpdate) (StatusUpdate, error)

		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, statusUpdateID, userID string) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		// QuerySubmissions returns a window's submissions, users joined, oldest first.
		QuerySubmissions(ctx context.Context, statusUpdateID string) ([]Submission, error)
		// QueryUserSubmissions returns the user's submissions across windows of a
		// semester (all semesters when empty).
		QueryUserSubmissions(ctx context.Context, userID, semesterID string) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nsu NewStatusUpdate) (StatusUpdate, error) {
	now := time.Now().UTC()
	su := StatusUpdate{
		SemesterID: nsu.SemesterID,
		Name:       nsu.Name,
		OpensAt:    nsu.OpensAt.UTC(),
		ClosesAt:   nsu.ClosesAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateStatusUpdate(ctx, su)
}

func (svc *Service) Get(ctx context.Context, id string) (StatusUpdate, error) {
	return svc.repo.GetStatusUpdate(ctx, id)
}

func (svc *Service) Query(ctx context.Context, semesterID string) ([]StatusUpdate, error) {
	return svc.repo.QueryStatusUpdates(ctx, semesterID)
}

// Submit records the user's report for the window; only while the window is open,
// and only once per user.
func (svc *Service) Submit(ctx context.Context, statusUpdateID string, usr user.User, ns NewSubmission) (Submission, error) {
	su, err := svc.repo.GetStatusUpdate(ctx, statusUpdateID)
	if err != nil {
		return Submission{}, err
	}
	if !su.IsOpen(time.Now().UTC()) {
		return Submission{}, ErrWindowClosed
	}
	if _, err = svc.repo.GetSubmission(ctx, statusUpdateID, usr.ID); err == nil {
		return Submission{}, ErrAlreadySubmitted
	} else if err != ErrSubmissionNotFound {
		return Submission{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateSubmission(ctx, Submission{
		StatusUpdateID: statusUpdateID,
		UserID:         usr.ID,
		PreviousWeek:   ns.PreviousWeek,
		NextWeek:       ns.NextWeek,
		Blockers:       ns.Blockers,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) Submissions(ctx context.Context, statusUpdateID string) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, statusUpdateID)
}

func (svc *Service) UserSubmissions(ctx context.Context, userID, semesterID string) ([]Submission, error) {
	return svc.repo.QueryUserSubmissions(ctx, userID, semesterID)
}

// Grade records an admin's grade on a submission.
func (svc *Service) Grade(ctx context.Context, grader user.User, submissionID string, g GradeSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	sub.Grade.SetValid(g.Grade)
	sub.GraderID.SetValid(grader.ID)
	sub.GraderComments = g.GraderComments
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubmission(ctx, sub)
}
