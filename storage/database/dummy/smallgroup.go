package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/rcos-io/portal/core/project"
	"github.com/rcos-io/portal/core/smallgroup"
	"github.com/rcos-io/portal/core/user"
)

type smallGroupRepository struct {
	db       *smallGroupTable
	users    *userTable
	projects *projectTable
}

var _ smallgroup.Repository = (*smallGroupRepository)(nil) // interface compliance check

func NewSmallGroupRepository(db *DB) *smallGroupRepository {
	return &smallGroupRepository{db: db.smallGroup, users: db.user, projects: db.project}
}

func (repo *smallGroupRepository) joinLinks(sg *smallgroup.SmallGroup) {
	repo.projects.RLock()
	projs := make([]project.Project, 0)
	for _, id := range repo.db.projects[sg.ID] {
		if proj, ok := repo.projects.table[id]; ok {
			projs = append(projs, *proj)
		}
	}
	repo.projects.RUnlock()
	sort.Slice(projs, func(i, j int) bool { return projs[i].Name < projs[j].Name })
	sg.Projects = projs

	repo.users.RLock()
	mentors := make([]user.User, 0)
	for _, id := range repo.db.mentors[sg.ID] {
		if usr, ok := repo.users.table[id]; ok {
			mentors = append(mentors, *usr)
		}
	}
	repo.users.RUnlock()
	sort.Slice(mentors, func(i, j int) bool { return mentors[i].FirstName < mentors[j].FirstName })
	sg.Mentors = mentors
}

func (repo *smallGroupRepository) CreateSmallGroup(ctx context.Context, sg smallgroup.SmallGroup) (smallgroup.SmallGroup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sg.ID = uuid.New().String()
	repo.db.table[sg.ID] = &sg
	return sg, nil
}

func (repo *smallGroupRepository) GetSmallGroup(ctx context.Context, id string) (smallgroup.SmallGroup, error) {
	repo.db.RLock()
	stored, ok := repo.db.table[id]
	if !ok {
		repo.db.RUnlock()
		return smallgroup.SmallGroup{}, smallgroup.ErrNotFound
	}
	sg := *stored
	repo.db.RUnlock()

	repo.joinLinks(&sg)
	return sg, nil
}

func (repo *smallGroupRepository) QuerySmallGroups(ctx context.Context, semesterID string) ([]smallgroup.SmallGroup, error) {
	repo.db.RLock()
	groups := make([]smallgroup.SmallGroup, 0)
	for _, sg := range repo.db.table {
		if semesterID != "" && sg.SemesterID != semesterID {
			continue
		}
		groups = append(groups, *sg)
	}
	repo.db.RUnlock()

	for i := range groups {
		repo.joinLinks(&groups[i])
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.SemesterID != b.SemesterID {
			return a.SemesterID < b.SemesterID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Location < b.Location
	})
	return groups, nil
}

func (repo *smallGroupRepository) UpdateSmallGroup(ctx context.Context, sg smallgroup.SmallGroup) (smallgroup.SmallGroup, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[sg.ID]; !ok {
		return smallgroup.SmallGroup{}, smallgroup.ErrNotFound
	}
	stored := sg
	repo.db.table[sg.ID] = &stored
	return sg, nil
}

func (repo *smallGroupRepository) GetSmallGroupForProject(ctx context.Context, semesterID, projectID string) (smallgroup.SmallGroup, error) {
	repo.db.RLock()
	var found *smallgroup.SmallGroup
	for _, sg := range repo.db.table {
		if semesterID != "" && sg.SemesterID != semesterID {
			continue
		}
		for _, id := range repo.db.projects[sg.ID] {
			if id == projectID {
				found = sg
				break
			}
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		repo.db.RUnlock()
		return smallgroup.SmallGroup{}, smallgroup.ErrNotFound
	}
	sg := *found
	repo.db.RUnlock()

	repo.joinLinks(&sg)
	return sg, nil
}

func (repo *smallGroupRepository) AddSmallGroupProject(ctx context.Context, groupID, projectID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[groupID]; !ok {
		return smallgroup.ErrNotFound
	}
	for _, id := range repo.db.projects[groupID] {
		if id == projectID {
			return nil
		}
	}
	repo.db.projects[groupID] = append(repo.db.projects[groupID], projectID)
	return nil
}

func (repo *smallGroupRepository) RemoveSmallGroupProject(ctx context.Context, groupID, projectID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	ids := repo.db.projects[groupID]
	for i, id := range ids {
		if id == projectID {
			repo.db.projects[groupID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (repo *smallGroupRepository) AddSmallGroupMentor(ctx context.Context, groupID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[groupID]; !ok {
		return smallgroup.ErrNotFound
	}
	for _, id := range repo.db.mentors[groupID] {
		if id == userID {
			return nil
		}
	}
	repo.db.mentors[groupID] = append(repo.db.mentors[groupID], userID)
	return nil
}

func (repo *smallGroupRepository) RemoveSmallGroupMentor(ctx context.Context, groupID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	ids := repo.db.mentors[groupID]
	for i, id := range ids {
		if id == userID {
			repo.db.mentors[groupID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
