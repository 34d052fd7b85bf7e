package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/rcos-io/portal/core/statusupdate"
)

type statusUpdateRepository struct {
	db    *statusUpdateTable
	users *userTable
}

var _ statusupdate.Repository = (*statusUpdateRepository)(nil) // interface compliance check

func NewStatusUpdateRepository(db *DB) *statusUpdateRepository {
	return &statusUpdateRepository{db: db.statusUpdate, users: db.user}
}

func (repo *statusUpdateRepository) CreateStatusUpdate(ctx context.Context, su statusupdate.StatusUpdate) (statusupdate.StatusUpdate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	su.ID = uuid.New().String()
	repo.db.table[su.ID] = &su
	return su, nil
}

func (repo *statusUpdateRepository) GetStatusUpdate(ctx context.Context, id string) (statusupdate.StatusUpdate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if su, ok := repo.db.table[id]; ok {
		return *su, nil
	}
	return statusupdate.StatusUpdate{}, statusupdate.ErrNotFound
}

func (repo *statusUpdateRepository) QueryStatusUpdates(ctx context.Context, semesterID string) ([]statusupdate.StatusUpdate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sus := make([]statusupdate.StatusUpdate, 0)
	for _, su := range repo.db.table {
		if semesterID != "" && su.SemesterID != semesterID {
			continue
		}
		sus = append(sus, *su)
	}
	sort.Slice(sus, func(i, j int) bool { return sus[i].OpensAt.Before(sus[j].OpensAt) })
	return sus, nil
}

func (repo *statusUpdateRepository) UpdateStatusUpdate(ctx context.Context, su statusupdate.StatusUpdate) (statusupdate.StatusUpdate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[su.ID]; !ok {
		return statusupdate.StatusUpdate{}, statusupdate.ErrNotFound
	}
	stored := su
	repo.db.table[su.ID] = &stored
	return su, nil
}

func (repo *statusUpdateRepository) CreateSubmission(ctx context.Context, sub statusupdate.Submission) (statusupdate.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.submissions[key(sub.StatusUpdateID, sub.UserID)] = &sub
	return sub, nil
}

func (repo *statusUpdateRepository) GetSubmission(ctx context.Context, statusUpdateID, userID string) (statusupdate.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.submissions[key(statusUpdateID, userID)]; ok {
		return *sub, nil
	}
	return statusupdate.Submission{}, statusupdate.ErrSubmissionNotFound
}

func (repo *statusUpdateRepository) GetSubmissionByID(ctx context.Context, id string) (statusupdate.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sub := range repo.db.submissions {
		if sub.ID == id {
			return *sub, nil
		}
	}
	return statusupdate.Submission{}, statusupdate.ErrSubmissionNotFound
}

func (repo *statusUpdateRepository) QuerySubmissions(ctx context.Context, statusUpdateID string) ([]statusupdate.Submission, error) {
	repo.db.RLock()
	subs := make([]statusupdate.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.StatusUpdateID == statusUpdateID {
			subs = append(subs, *sub)
		}
	}
	repo.db.RUnlock()

	repo.users.RLock()
	for i := range subs {
		if usr, ok := repo.users.table[subs[i].UserID]; ok {
			u := *usr
			subs[i].User = &u
		}
	}
	repo.users.RUnlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (repo *statusUpdateRepository) QueryUserSubmissions(ctx context.Context, userID, semesterID string) ([]statusupdate.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]statusupdate.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.UserID != userID {
			continue
		}
		if semesterID != "" {
			su, ok := repo.db.table[sub.StatusUpdateID]
			if !ok || su.SemesterID != semesterID {
				continue
			}
		}
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (repo *statusUpdateRepository) UpdateSubmission(ctx context.Context, sub statusupdate.Submission) (statusupdate.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(sub.StatusUpdateID, sub.UserID)
	if _, ok := repo.db.submissions[k]; !ok {
		return statusupdate.Submission{}, statusupdate.ErrSubmissionNotFound
	}
	stored := sub
	repo.db.submissions[k] = &stored
	return sub, nil
}
